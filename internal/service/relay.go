package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/vantage-bot/gateway/internal/adapter/llm"
	"github.com/vantage-bot/gateway/internal/adapter/telegram"
	"github.com/vantage-bot/gateway/internal/prompt"
)

const (
	historyCap      = 20
	historyInPrompt = 10

	apologyMessage    = "Sorry, I encountered an error processing your request."
	emptyReplyMessage = "I processed your request but have no response to show."
	documentApology   = "Sorry, I encountered an error handling your file."
)

var (
	thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)
	thinkTagRe   = regexp.MustCompile(`</?think>`)
	taskRefRe    = regexp.MustCompile(`task (\d+)`)
)

// HandleMessage processes an inbound text message as one full turn.
func (s *Service) HandleMessage(ctx context.Context, msg *telegram.Message) {
	chatID := msg.Chat.ID
	text := msg.Text

	// A pending upload from this chat is surfaced to the model.
	if up, ok := s.uploads[chatID]; ok {
		text = fmt.Sprintf("%s\n\n[Recently uploaded file: %s]", text, up.Filename)
	}

	s.relayTurn(ctx, chatID, text)
}

// HandleDocument downloads an uploaded document into the media inbox and
// either relays the caption, auto-detects a task reference from recent
// conversation, or asks the user what to do with the file.
func (s *Service) HandleDocument(ctx context.Context, msg *telegram.Message) {
	chatID := msg.Chat.ID
	doc := msg.Document

	log.Printf("received document %q from chat %d", doc.FileName, chatID)

	path, err := s.downloadDocument(ctx, doc)
	if err != nil {
		log.Printf("WARN: failed to save document %q: %v", doc.FileName, err)
		s.reply(ctx, chatID, documentApology)
		return
	}
	log.Printf("saved document to %s", path)

	s.uploads[chatID] = upload{Filename: doc.FileName, Path: path, UploadedAt: msg.Time()}

	if msg.Caption != "" {
		text := fmt.Sprintf("%s\n\n[User uploaded file: %s]", msg.Caption, doc.FileName)
		s.relayTurn(ctx, chatID, text)
		return
	}

	// No caption: look for a task mention in the recent conversation.
	if taskID, ok := s.recentTaskReference(chatID); ok {
		log.Printf("auto-detected task context: task %s", taskID)
		s.reply(ctx, chatID, fmt.Sprintf("Received %s. Analyzing for task %s...", doc.FileName, taskID))

		text := fmt.Sprintf("Analyze this uploaded document for task %s\n\n[Recently uploaded file: %s]", taskID, doc.FileName)
		s.relayTurn(ctx, chatID, text)
		return
	}

	s.reply(ctx, chatID, fmt.Sprintf("Received %s. What would you like me to do with it?", doc.FileName))
}

// relayTurn runs one user turn start to finish: context fetch, tool-call
// loop, markup stripping, reply, history update.
func (s *Service) relayTurn(ctx context.Context, chatID int64, userMessage string) {
	turnID := "turn_" + uuid.New().String()[:8]
	log.Printf("[%s] message from chat %d: %s", turnID, chatID, firstLine(userMessage))

	if err := s.bot.SendChatAction(ctx, chatID, "typing"); err != nil {
		log.Printf("WARN: [%s] failed to send chat action: %v", turnID, err)
	}

	// Failure here degrades to an empty context, never aborts the turn.
	enrichedContext := s.backendClient.FetchEnrichedContext(ctx, s.config.DefaultProject)

	messages := []llm.ChatMessage{
		{Role: "system", Content: prompt.System},
		{Role: "system", Content: "PROJECT CONTEXT:\n" + enrichedContext},
	}
	messages = append(messages, s.historyTail(chatID, historyInPrompt)...)
	messages = append(messages, llm.ChatMessage{Role: "user", Content: userMessage})

	reply, err := s.runToolLoop(ctx, turnID, chatID, messages)
	if err != nil {
		log.Printf("WARN: [%s] turn failed: %v", turnID, err)
		s.reply(ctx, chatID, apologyMessage)
		return
	}

	reply = stripThinkTags(reply)
	if reply == "" {
		log.Printf("WARN: [%s] empty response after stripping think tags", turnID)
		reply = emptyReplyMessage
	}

	s.reply(ctx, chatID, reply)
	log.Printf("[%s] sent response: %s", turnID, firstLine(reply))

	s.appendHistory(chatID,
		llm.ChatMessage{Role: "user", Content: userMessage},
		llm.ChatMessage{Role: "assistant", Content: reply},
	)
}

func (s *Service) reply(ctx context.Context, chatID int64, text string) {
	if err := s.bot.SendMessage(ctx, chatID, text); err != nil {
		log.Printf("WARN: failed to send message to chat %d: %v", chatID, err)
	}
}

func (s *Service) downloadDocument(ctx context.Context, doc *telegram.Document) (string, error) {
	file, err := s.bot.GetFile(ctx, doc.FileID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file: %w", err)
	}

	dest := s.config.MediaInboxPath(doc.FileName)
	if err := s.bot.DownloadFile(ctx, file.FilePath, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// recentTaskReference scans the last two exchanges for a "task N" mention.
func (s *Service) recentTaskReference(chatID int64) (string, bool) {
	tail := s.historyTail(chatID, 4)
	var recent []string
	for _, m := range tail {
		recent = append(recent, m.Content)
	}
	match := taskRefRe.FindStringSubmatch(strings.ToLower(strings.Join(recent, " ")))
	if match == nil {
		return "", false
	}
	return match[1], true
}

func (s *Service) historyTail(chatID int64, n int) []llm.ChatMessage {
	h := s.history[chatID]
	if len(h) > n {
		h = h[len(h)-n:]
	}
	return h
}

func (s *Service) appendHistory(chatID int64, entries ...llm.ChatMessage) {
	h := append(s.history[chatID], entries...)
	if len(h) > historyCap {
		h = h[len(h)-historyCap:]
	}
	s.history[chatID] = h
}

// stripThinkTags removes <think> spans and stray think tags from a reply.
func stripThinkTags(text string) string {
	if text == "" {
		return ""
	}
	text = thinkBlockRe.ReplaceAllString(text, "")
	text = thinkTagRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 100 {
		s = s[:100] + "..."
	}
	return s
}
