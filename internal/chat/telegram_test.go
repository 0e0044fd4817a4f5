package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		maxLen    int
		wantParts int
	}{
		{"short", "Hello", 4096, 1},
		{"exact", "Hello", 5, 1},
		{"split-needed", "Hello World, this is a test", 10, 4},
		{"empty", "", 4096, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := SplitMessage(tt.text, tt.maxLen)
			if len(parts) != tt.wantParts {
				t.Errorf("SplitMessage() = %d parts, want %d", len(parts), tt.wantParts)
			}
		})
	}
}

func TestSplitMessage_PartsNotExceedMax(t *testing.T) {
	text := "This is a longer message that needs to be split into multiple parts for Telegram delivery."
	maxLen := 20
	parts := SplitMessage(text, maxLen)

	for i, part := range parts {
		if len(part) > maxLen {
			t.Errorf("part[%d] len=%d exceeds maxLen=%d: %q", i, len(part), maxLen, part)
		}
	}
}

func TestNewTelegramChannel_NoToken(t *testing.T) {
	_, err := NewTelegramChannel("")
	if err == nil {
		t.Error("NewTelegramChannel() should error with empty token")
	}
}

func TestNewTelegramChannel_ValidToken(t *testing.T) {
	ch, err := NewTelegramChannel("test-token")
	if err != nil {
		t.Fatalf("NewTelegramChannel() error = %v", err)
	}
	if ch == nil {
		t.Error("NewTelegramChannel() returned nil")
	}
}

func testChannel(server *httptest.Server) *TelegramChannel {
	return &TelegramChannel{
		token:   "test-token",
		baseURL: server.URL,
		client:  server.Client(),
		stop:    make(chan struct{}),
	}
}

func TestTelegramSendMessage_KeyboardAndMessageID(t *testing.T) {
	var gotPath, gotMarkup string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm() error = %v", err)
		}
		gotMarkup = r.Form.Get("reply_markup")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":42}}`))
	}))
	defer server.Close()

	ch := testChannel(server)
	id, err := ch.SendMessage(t.Context(), OutboundMessage{
		ChatID: 123,
		Text:   "Оберіть відповідь",
		Keyboard: [][]Button{
			{{Text: "а", Data: "ans:0"}, {Text: "б", Data: "ans:1"}},
		},
	})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if id != 42 {
		t.Fatalf("message id = %d, want 42", id)
	}
	if gotPath != "/sendMessage" {
		t.Fatalf("path = %q, want /sendMessage", gotPath)
	}

	var markup struct {
		InlineKeyboard [][]struct {
			Text         string `json:"text"`
			CallbackData string `json:"callback_data"`
		} `json:"inline_keyboard"`
	}
	if err := json.Unmarshal([]byte(gotMarkup), &markup); err != nil {
		t.Fatalf("reply_markup not valid JSON: %v", err)
	}
	if len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 2 {
		t.Fatalf("keyboard shape = %v", markup.InlineKeyboard)
	}
	if markup.InlineKeyboard[0][1].CallbackData != "ans:1" {
		t.Fatalf("callback data = %q, want ans:1", markup.InlineKeyboard[0][1].CallbackData)
	}
}

func TestTelegramSendMessage_RetryWithoutParseMode(t *testing.T) {
	var calls int
	var lastParseMode string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm() error = %v", err)
		}
		lastParseMode = r.Form.Get("parse_mode")
		if lastParseMode != "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7}}`))
	}))
	defer server.Close()

	ch := testChannel(server)
	id, err := ch.SendMessage(t.Context(), OutboundMessage{
		ChatID:    123,
		Text:      "_broken markdown",
		ParseMode: "Markdown",
	})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if lastParseMode != "" {
		t.Fatal("retry kept parse_mode")
	}
	if id != 7 {
		t.Fatalf("message id = %d, want 7", id)
	}
}

func TestTelegramSendDocument(t *testing.T) {
	var gotPath, gotFileName, gotChatID string
	var gotContent []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm() error = %v", err)
		}
		gotChatID = r.FormValue("chat_id")
		file, header, err := r.FormFile("document")
		if err != nil {
			t.Fatalf("FormFile() error = %v", err)
		}
		defer func() { _ = file.Close() }()
		gotFileName = header.Filename
		buf := make([]byte, header.Size)
		if _, err := file.Read(buf); err != nil && err.Error() != "EOF" {
			t.Fatalf("reading upload: %v", err)
		}
		gotContent = buf
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	ch := testChannel(server)
	err := ch.SendDocument(t.Context(), 55, "test_5.json", []byte(`{"questions":[]}`), "Експорт тесту")
	if err != nil {
		t.Fatalf("SendDocument() error = %v", err)
	}
	if gotPath != "/sendDocument" {
		t.Fatalf("path = %q, want /sendDocument", gotPath)
	}
	if gotChatID != "55" {
		t.Fatalf("chat_id = %q, want 55", gotChatID)
	}
	if gotFileName != "test_5.json" {
		t.Fatalf("filename = %q, want test_5.json", gotFileName)
	}
	if !strings.Contains(string(gotContent), "questions") {
		t.Fatalf("content = %q", gotContent)
	}
}

func TestTelegramAnswerCallback(t *testing.T) {
	var gotPath, gotID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm() error = %v", err)
		}
		gotID = r.Form.Get("callback_query_id")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	}))
	defer server.Close()

	ch := testChannel(server)
	if err := ch.AnswerCallback(t.Context(), "cb-9", ""); err != nil {
		t.Fatalf("AnswerCallback() error = %v", err)
	}
	if gotPath != "/answerCallbackQuery" {
		t.Fatalf("path = %q, want /answerCallbackQuery", gotPath)
	}
	if gotID != "cb-9" {
		t.Fatalf("callback_query_id = %q, want cb-9", gotID)
	}
}
