package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vantage-bot/gateway/internal/adapter/backend"
	"github.com/vantage-bot/gateway/internal/adapter/llm"
	"github.com/vantage-bot/gateway/internal/adapter/telegram"
	"github.com/vantage-bot/gateway/internal/tools"
)

const testToken = "TESTTOKEN"

// fakeBotAPI records sendMessage and sendChatAction calls and serves getFile
// and file downloads for document tests.
type fakeBotAPI struct {
	mu      sync.Mutex
	sent    []string
	actions []string

	filePath string
	fileBody string
	fileErr  bool
}

func (f *fakeBotAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if body, ok := strings.CutPrefix(r.URL.Path, "/file/bot"+testToken+"/"); ok {
			if body != f.filePath {
				http.NotFound(w, r)
				return
			}
			w.Write([]byte(f.fileBody))
			return
		}

		method := strings.TrimPrefix(r.URL.Path, "/bot"+testToken+"/")
		r.ParseForm()

		f.mu.Lock()
		defer f.mu.Unlock()

		switch method {
		case "sendMessage":
			f.sent = append(f.sent, r.FormValue("text"))
			w.Write([]byte(`{"ok":true,"result":{}}`))
		case "sendChatAction":
			f.actions = append(f.actions, r.FormValue("action"))
			w.Write([]byte(`{"ok":true,"result":true}`))
		case "getFile":
			if f.fileErr {
				w.Write([]byte(`{"ok":false,"description":"file not found"}`))
				return
			}
			w.Write([]byte(`{"ok":true,"result":{"file_id":"` + r.FormValue("file_id") + `","file_path":"` + f.filePath + `"}}`))
		default:
			w.Write([]byte(`{"ok":true,"result":[]}`))
		}
	}
}

func (f *fakeBotAPI) sentMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func contextServer(t *testing.T, contextBody string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/projects/demo-project/chat/context" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"context":"` + contextBody + `"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newRelayService wires a service against fake Telegram and backend servers.
func newRelayService(t *testing.T, fake llm.ChatClient, bot *fakeBotAPI, backendURL string) *Service {
	t.Helper()

	botSrv := httptest.NewServer(bot.handler())
	t.Cleanup(botSrv.Close)

	cfg := loopConfig()
	cfg.TelegramToken = testToken
	cfg.MediaInboxDir = t.TempDir()

	reg, err := tools.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	return New(cfg,
		telegram.NewClient(botSrv.URL, testToken, 5*time.Second),
		backend.NewClient(backendURL, 5*time.Second),
		fake, reg, nil)
}

func textMessage(chatID int64, text string) *telegram.Message {
	return &telegram.Message{
		MessageID: 1,
		Date:      time.Now().Unix(),
		Chat:      telegram.Chat{ID: chatID, Type: "private"},
		Text:      text,
	}
}

func documentMessage(chatID int64, name, caption string) *telegram.Message {
	return &telegram.Message{
		MessageID: 2,
		Date:      time.Now().Unix(),
		Chat:      telegram.Chat{ID: chatID, Type: "private"},
		Caption:   caption,
		Document:  &telegram.Document{FileID: "file_abc", FileName: name, MimeType: "application/pdf"},
	}
}

func TestHandleMessageStripsThinkTags(t *testing.T) {
	bot := &fakeBotAPI{}
	fake := &scriptedLLM{responses: []*llm.ChatCompletionResponse{
		textResponse("<think>the user greeted me</think>Hello! How can I help?"),
	}}
	svc := newRelayService(t, fake, bot, contextServer(t, "3 active tasks").URL)

	svc.HandleMessage(context.Background(), textMessage(7, "hi"))

	sent := bot.sentMessages()
	if len(sent) != 1 || sent[0] != "Hello! How can I help?" {
		t.Fatalf("unexpected outbound messages: %v", sent)
	}

	msgs := fake.requests[0].Messages
	if msgs[0].Role != "system" || !strings.Contains(msgs[0].Content, "Vantage") {
		t.Fatalf("system prompt missing: %+v", msgs[0])
	}
	if msgs[1].Content != "PROJECT CONTEXT:\n3 active tasks" {
		t.Fatalf("enriched context missing: %q", msgs[1].Content)
	}
	if msgs[len(msgs)-1].Role != "user" || msgs[len(msgs)-1].Content != "hi" {
		t.Fatalf("user message mispositioned: %+v", msgs[len(msgs)-1])
	}

	// History records the raw exchange with the stripped reply.
	h := svc.history[7]
	if len(h) != 2 || h[1].Content != "Hello! How can I help?" {
		t.Fatalf("unexpected history: %+v", h)
	}
}

func TestHandleMessageEmptyReplyFallback(t *testing.T) {
	bot := &fakeBotAPI{}
	fake := &scriptedLLM{responses: []*llm.ChatCompletionResponse{textResponse("<think>hmm</think>")}}
	svc := newRelayService(t, fake, bot, contextServer(t, "ctx").URL)

	svc.HandleMessage(context.Background(), textMessage(7, "hi"))

	sent := bot.sentMessages()
	if len(sent) != 1 || sent[0] != emptyReplyMessage {
		t.Fatalf("expected empty-reply fallback, got %v", sent)
	}
}

func TestHandleMessageApologizesOnInferenceFailure(t *testing.T) {
	bot := &fakeBotAPI{}
	fake := &scriptedLLM{err: context.DeadlineExceeded}
	svc := newRelayService(t, fake, bot, contextServer(t, "ctx").URL)

	svc.HandleMessage(context.Background(), textMessage(7, "hi"))

	sent := bot.sentMessages()
	if len(sent) != 1 || sent[0] != apologyMessage {
		t.Fatalf("expected apology, got %v", sent)
	}
	if len(svc.history[7]) != 0 {
		t.Fatalf("failed turn must not enter history: %+v", svc.history[7])
	}
}

func TestHandleMessageToleratesBackendOutage(t *testing.T) {
	bot := &fakeBotAPI{}
	fake := &scriptedLLM{responses: []*llm.ChatCompletionResponse{textResponse("ok")}}

	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	svc := newRelayService(t, fake, bot, down.URL)

	svc.HandleMessage(context.Background(), textMessage(7, "hi"))

	sent := bot.sentMessages()
	if len(sent) != 1 || sent[0] != "ok" {
		t.Fatalf("turn must proceed without enriched context, got %v", sent)
	}
	if fake.requests[0].Messages[1].Content != "PROJECT CONTEXT:\n" {
		t.Fatalf("expected empty context block, got %q", fake.requests[0].Messages[1].Content)
	}
}

func TestHandleMessageHistoryWindow(t *testing.T) {
	bot := &fakeBotAPI{}
	fake := &scriptedLLM{responses: []*llm.ChatCompletionResponse{textResponse("reply")}}
	svc := newRelayService(t, fake, bot, contextServer(t, "ctx").URL)

	for i := 0; i < 15; i++ {
		svc.appendHistory(7,
			llm.ChatMessage{Role: "user", Content: "old question"},
			llm.ChatMessage{Role: "assistant", Content: "old answer"},
		)
	}
	if len(svc.history[7]) != historyCap {
		t.Fatalf("history not capped: %d", len(svc.history[7]))
	}

	svc.HandleMessage(context.Background(), textMessage(7, "latest"))

	// system prompt + context + last 10 history entries + new user message.
	msgs := fake.requests[0].Messages
	if len(msgs) != 2+historyInPrompt+1 {
		t.Fatalf("unexpected transcript length: %d", len(msgs))
	}
	if len(svc.history[7]) != historyCap {
		t.Fatalf("history exceeded cap after turn: %d", len(svc.history[7]))
	}
}

func TestHandleDocumentWithCaption(t *testing.T) {
	bot := &fakeBotAPI{filePath: "documents/file_1.pdf", fileBody: "%PDF-1.4 fake"}
	fake := &scriptedLLM{responses: []*llm.ChatCompletionResponse{textResponse("Looks like a site plan.")}}
	svc := newRelayService(t, fake, bot, contextServer(t, "ctx").URL)

	svc.HandleDocument(context.Background(), documentMessage(7, "plan.pdf", "what is this?"))

	saved := filepath.Join(svc.config.MediaInboxDir, "plan.pdf")
	data, err := os.ReadFile(saved)
	if err != nil {
		t.Fatalf("document not saved to inbox: %v", err)
	}
	if string(data) != "%PDF-1.4 fake" {
		t.Fatalf("unexpected file content: %q", data)
	}

	sent := bot.sentMessages()
	if len(sent) != 1 || sent[0] != "Looks like a site plan." {
		t.Fatalf("unexpected outbound messages: %v", sent)
	}

	user := fake.requests[0].Messages
	last := user[len(user)-1].Content
	if !strings.Contains(last, "what is this?") || !strings.Contains(last, "[User uploaded file: plan.pdf]") {
		t.Fatalf("caption relay missing upload annotation: %q", last)
	}
}

func TestHandleDocumentAutoDetectsTask(t *testing.T) {
	bot := &fakeBotAPI{filePath: "documents/file_1.pdf", fileBody: "data"}
	fake := &scriptedLLM{responses: []*llm.ChatCompletionResponse{textResponse("Report attached to task 12.")}}
	svc := newRelayService(t, fake, bot, contextServer(t, "ctx").URL)

	svc.appendHistory(7,
		llm.ChatMessage{Role: "user", Content: "show me Task 12"},
		llm.ChatMessage{Role: "assistant", Content: "Task 12 is pouring the foundation."},
	)

	svc.HandleDocument(context.Background(), documentMessage(7, "report.pdf", ""))

	sent := bot.sentMessages()
	if len(sent) != 2 {
		t.Fatalf("expected ack plus reply, got %v", sent)
	}
	if sent[0] != "Received report.pdf. Analyzing for task 12..." {
		t.Fatalf("unexpected ack: %q", sent[0])
	}
	if sent[1] != "Report attached to task 12." {
		t.Fatalf("unexpected reply: %q", sent[1])
	}

	user := fake.requests[0].Messages
	last := user[len(user)-1].Content
	if !strings.Contains(last, "Analyze this uploaded document for task 12") {
		t.Fatalf("synthetic analysis turn missing: %q", last)
	}
}

func TestHandleDocumentWithoutContextAsks(t *testing.T) {
	bot := &fakeBotAPI{filePath: "documents/file_1.pdf", fileBody: "data"}
	fake := &scriptedLLM{}
	svc := newRelayService(t, fake, bot, contextServer(t, "ctx").URL)

	svc.HandleDocument(context.Background(), documentMessage(7, "mystery.pdf", ""))

	sent := bot.sentMessages()
	if len(sent) != 1 || sent[0] != "Received mystery.pdf. What would you like me to do with it?" {
		t.Fatalf("unexpected outbound messages: %v", sent)
	}
	if len(fake.requests) != 0 {
		t.Fatal("no inference call expected without caption or task context")
	}
}

func TestHandleDocumentDownloadFailure(t *testing.T) {
	bot := &fakeBotAPI{fileErr: true}
	fake := &scriptedLLM{}
	svc := newRelayService(t, fake, bot, contextServer(t, "ctx").URL)

	svc.HandleDocument(context.Background(), documentMessage(7, "broken.pdf", "analyze"))

	sent := bot.sentMessages()
	if len(sent) != 1 || sent[0] != documentApology {
		t.Fatalf("expected document apology, got %v", sent)
	}
}

func TestHandleMessageAnnotatesRecentUpload(t *testing.T) {
	bot := &fakeBotAPI{}
	fake := &scriptedLLM{responses: []*llm.ChatCompletionResponse{textResponse("Analyzing plan.pdf now.")}}
	svc := newRelayService(t, fake, bot, contextServer(t, "ctx").URL)

	svc.uploads[7] = upload{Filename: "plan.pdf", Path: "/tmp/plan.pdf", UploadedAt: time.Now()}

	svc.HandleMessage(context.Background(), textMessage(7, "analyze that file"))

	user := fake.requests[0].Messages
	last := user[len(user)-1].Content
	if !strings.Contains(last, "[Recently uploaded file: plan.pdf]") {
		t.Fatalf("upload annotation missing: %q", last)
	}
}
