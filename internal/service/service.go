// Package service relays Telegram messages through the inference endpoint,
// executing tool calls against the backend's scripts along the way.
package service

import (
	"time"

	"github.com/vantage-bot/gateway/internal/adapter/backend"
	"github.com/vantage-bot/gateway/internal/adapter/llm"
	"github.com/vantage-bot/gateway/internal/adapter/telegram"
	"github.com/vantage-bot/gateway/internal/config"
	"github.com/vantage-bot/gateway/internal/tools"
	"github.com/vantage-bot/gateway/policy"
)

// Service handles inbound chat events end to end. Updates are processed one
// at a time from the poll loop, so the per-chat maps need no locking.
type Service struct {
	config        *config.Config
	bot           *telegram.Client
	backendClient *backend.Client
	llmClient     llm.ChatClient
	registry      *tools.Registry
	policyEngine  *policy.Engine

	// Per-chat rolling conversation history, capped at historyCap entries.
	// Process-local only; durable state lives in the backend.
	history map[int64][]llm.ChatMessage

	// Last document upload per chat, referenced by follow-up messages.
	uploads map[int64]upload
}

type upload struct {
	Filename   string
	Path       string
	UploadedAt time.Time
}

// New creates a gateway service.
func New(cfg *config.Config, bot *telegram.Client, backendClient *backend.Client, llmClient llm.ChatClient, registry *tools.Registry, policyEngine *policy.Engine) *Service {
	return &Service{
		config:        cfg,
		bot:           bot,
		backendClient: backendClient,
		llmClient:     llmClient,
		registry:      registry,
		policyEngine:  policyEngine,
		history:       make(map[int64][]llm.ChatMessage),
		uploads:       make(map[int64]upload),
	}
}
