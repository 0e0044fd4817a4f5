// Package chat provides a unified interface for messaging channels
// (Telegram, WebSocket) and the inbound/outbound message model the bot
// layer works with.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Document describes a file attached to an inbound message: a document
// upload, a photo, an audio track, or a video.
type Document struct {
	FileID   string
	FileName string
	MIMEType string
}

// InboundMessage is an event received from any channel: a plain message, a
// command, a document upload, or an inline-button press.
type InboundMessage struct {
	Channel   string
	ChatID    int64
	UserID    int64
	MessageID int64
	Text      string
	Document  *Document

	// Callback fields are set when the event is an inline-button press.
	CallbackID        string
	CallbackData      string
	CallbackMessageID int64

	Username  string
	FirstName string
	LastName  string
}

// IsCallback reports whether the event is an inline-button press.
func (m InboundMessage) IsCallback() bool {
	return m.CallbackID != ""
}

// Button is one inline keyboard button. Data is delivered back as
// CallbackData when pressed.
type Button struct {
	Text string
	Data string
}

// OutboundMessage is a message to send via any channel. Keyboard rows, if
// any, render as an inline keyboard under the message.
type OutboundMessage struct {
	Channel   string
	ChatID    int64
	Text      string
	ParseMode string // "Markdown", "HTML", or ""
	Keyboard  [][]Button
}

// Channel is the interface each messaging platform must implement.
// SendMessage returns the id of the delivered message so callers can edit
// it in place later.
type Channel interface {
	SendMessage(ctx context.Context, msg OutboundMessage) (int64, error)
	EditMessage(ctx context.Context, messageID int64, msg OutboundMessage) error
	ClearKeyboard(ctx context.Context, chatID, messageID int64) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	SendDocument(ctx context.Context, chatID int64, fileName string, content []byte, caption string) error
	// SendFile re-sends a previously uploaded file by its platform file id.
	SendFile(ctx context.Context, chatID int64, fileID, fileType string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
	Forward(ctx context.Context, toChatID, fromChatID, messageID int64) error
	Start(ctx context.Context, handler func(InboundMessage)) error
	Stop() error
}

// Gateway routes messages to/from registered channels.
type Gateway struct {
	channels map[string]Channel
	mu       sync.RWMutex
}

// NewGateway creates a new chat gateway.
func NewGateway() *Gateway {
	return &Gateway{
		channels: make(map[string]Channel),
	}
}

// Register adds a channel to the gateway.
func (g *Gateway) Register(name string, ch Channel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[name] = ch
	slog.Info("chat channel registered", "channel", name)
}

// Channel returns the named channel.
func (g *Gateway) Channel(name string) (Channel, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ch, ok := g.channels[name]
	if !ok {
		return nil, fmt.Errorf("unknown channel: %s", name)
	}
	return ch, nil
}

// Send dispatches a message to the appropriate channel and returns the
// delivered message id.
func (g *Gateway) Send(ctx context.Context, msg OutboundMessage) (int64, error) {
	ch, err := g.Channel(msg.Channel)
	if err != nil {
		return 0, err
	}
	return ch.SendMessage(ctx, msg)
}

// StartAll starts all registered channels with the given message handler.
func (g *Gateway) StartAll(ctx context.Context, handler func(InboundMessage)) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for name, ch := range g.channels {
		slog.Info("starting channel", "channel", name)
		if err := ch.Start(ctx, handler); err != nil {
			return fmt.Errorf("starting channel %s: %w", name, err)
		}
	}
	return nil
}

// StopAll stops every registered channel, keeping the first error.
func (g *Gateway) StopAll() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var firstErr error
	for name, ch := range g.channels {
		if err := ch.Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stopping channel %s: %w", name, err)
		}
	}
	return firstErr
}
