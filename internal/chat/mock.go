package chat

import (
	"context"
	"fmt"
	"sync"
)

// SentDocument records one SendDocument call on MockChannel.
type SentDocument struct {
	ChatID   int64
	FileName string
	Content  []byte
	Caption  string
}

// EditedMessage records one EditMessage call on MockChannel.
type EditedMessage struct {
	MessageID int64
	Message   OutboundMessage
}

// ForwardedMessage records one Forward call on MockChannel.
type ForwardedMessage struct {
	ToChatID   int64
	FromChatID int64
	MessageID  int64
}

// MockChannel is a test double for Channel. Files maps file ids to contents
// served by DownloadFile.
type MockChannel struct {
	mu sync.Mutex

	SentMessages      []OutboundMessage
	EditedMessages    []EditedMessage
	SentDocuments     []SentDocument
	SentFiles         []SentFile
	AnsweredCallbacks []string
	Forwarded         []ForwardedMessage
	ClearedKeyboards  []int64
	Files             map[string][]byte

	nextMessageID int64
}

func (m *MockChannel) SendMessage(_ context.Context, msg OutboundMessage) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentMessages = append(m.SentMessages, msg)
	m.nextMessageID++
	return m.nextMessageID, nil
}

func (m *MockChannel) EditMessage(_ context.Context, messageID int64, msg OutboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EditedMessages = append(m.EditedMessages, EditedMessage{MessageID: messageID, Message: msg})
	return nil
}

func (m *MockChannel) ClearKeyboard(_ context.Context, _ int64, messageID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClearedKeyboards = append(m.ClearedKeyboards, messageID)
	return nil
}

func (m *MockChannel) AnswerCallback(_ context.Context, callbackID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnsweredCallbacks = append(m.AnsweredCallbacks, callbackID)
	return nil
}

func (m *MockChannel) SendDocument(_ context.Context, chatID int64, fileName string, content []byte, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentDocuments = append(m.SentDocuments, SentDocument{ChatID: chatID, FileName: fileName, Content: content, Caption: caption})
	return nil
}

// SentFile records one SendFile call on MockChannel.
type SentFile struct {
	ChatID   int64
	FileID   string
	FileType string
}

func (m *MockChannel) SendFile(_ context.Context, chatID int64, fileID, fileType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentFiles = append(m.SentFiles, SentFile{ChatID: chatID, FileID: fileID, FileType: fileType})
	return nil
}

func (m *MockChannel) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.Files[fileID]
	if !ok {
		return nil, fmt.Errorf("unknown file id: %s", fileID)
	}
	return content, nil
}

func (m *MockChannel) Forward(_ context.Context, toChatID, fromChatID, messageID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Forwarded = append(m.Forwarded, ForwardedMessage{ToChatID: toChatID, FromChatID: fromChatID, MessageID: messageID})
	return nil
}

func (m *MockChannel) Start(_ context.Context, _ func(InboundMessage)) error {
	return nil
}

func (m *MockChannel) Stop() error {
	return nil
}

// LastMessage returns the most recently sent message.
func (m *MockChannel) LastMessage() (OutboundMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.SentMessages) == 0 {
		return OutboundMessage{}, false
	}
	return m.SentMessages[len(m.SentMessages)-1], true
}
