package chat

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
)

// wsInbound is a frame received from a WebSocket client.
type wsInbound struct {
	ChatID       int64  `json:"chat_id"`
	UserID       int64  `json:"user_id"`
	Text         string `json:"text,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
	Username     string `json:"username,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
}

// wsOutbound is a frame sent to a WebSocket client.
type wsOutbound struct {
	Type      string     `json:"type"` // "message", "edit", "clear_keyboard", "document"
	MessageID int64      `json:"message_id,omitempty"`
	Text      string     `json:"text,omitempty"`
	Keyboard  [][]Button `json:"keyboard,omitempty"`
	FileName  string     `json:"file_name,omitempty"`
	Content   string     `json:"content,omitempty"` // base64 for documents
	Caption   string     `json:"caption,omitempty"`
}

// WebSocketChannel implements the Channel interface over WebSocket
// connections, one connection per chat. It is an http.Handler; mount it on
// the server mux and clients connect with their chat id as a query
// parameter.
type WebSocketChannel struct {
	mu      sync.RWMutex
	conns   map[int64]*websocket.Conn
	handler func(InboundMessage)
	nextID  atomic.Int64
	stopped atomic.Bool
}

// NewWebSocketChannel creates a WebSocket channel adapter.
func NewWebSocketChannel() *WebSocketChannel {
	return &WebSocketChannel{
		conns: make(map[int64]*websocket.Conn),
	}
}

func (c *WebSocketChannel) Start(_ context.Context, handler func(InboundMessage)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
	return nil
}

func (c *WebSocketChannel) Stop() error {
	c.stopped.Store(true)
	c.mu.Lock()
	defer c.mu.Unlock()
	for chatID, conn := range c.conns {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(c.conns, chatID)
	}
	return nil
}

// ServeHTTP upgrades the request and pumps inbound frames to the handler
// until the client disconnects.
func (c *WebSocketChannel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if c.stopped.Load() {
		http.Error(w, "channel stopped", http.StatusServiceUnavailable)
		return
	}

	ws, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Error("failed to accept WebSocket", "error", err)
		return
	}

	ctx := r.Context()
	var registered int64
	defer func() {
		if registered != 0 {
			c.mu.Lock()
			if c.conns[registered] == ws {
				delete(c.conns, registered)
			}
			c.mu.Unlock()
		}
		_ = ws.Close(websocket.StatusNormalClosure, "session ended")
	}()

	for {
		_, frame, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 {
				slog.Warn("WebSocket read error", "error", err)
			}
			return
		}

		var in wsInbound
		if err := json.Unmarshal(frame, &in); err != nil {
			slog.Warn("malformed WebSocket frame", "error", err)
			continue
		}
		if in.ChatID == 0 {
			continue
		}

		if registered == 0 {
			registered = in.ChatID
			c.mu.Lock()
			c.conns[in.ChatID] = ws
			c.mu.Unlock()
			slog.Info("WebSocket chat connected", "chat_id", in.ChatID)
		}

		c.mu.RLock()
		handler := c.handler
		c.mu.RUnlock()
		if handler == nil {
			continue
		}

		msg := InboundMessage{
			Channel:   "websocket",
			ChatID:    in.ChatID,
			UserID:    in.UserID,
			Text:      in.Text,
			Username:  in.Username,
			FirstName: in.FirstName,
			LastName:  in.LastName,
		}
		if in.CallbackData != "" {
			msg.CallbackID = fmt.Sprintf("ws-%d", c.nextID.Add(1))
			msg.CallbackData = in.CallbackData
		}
		go handler(msg)
	}
}

func (c *WebSocketChannel) SendMessage(ctx context.Context, msg OutboundMessage) (int64, error) {
	id := c.nextID.Add(1)
	frame := wsOutbound{
		Type:      "message",
		MessageID: id,
		Text:      msg.Text,
		Keyboard:  msg.Keyboard,
	}
	if err := c.write(ctx, msg.ChatID, frame); err != nil {
		return 0, err
	}
	return id, nil
}

func (c *WebSocketChannel) EditMessage(ctx context.Context, messageID int64, msg OutboundMessage) error {
	return c.write(ctx, msg.ChatID, wsOutbound{
		Type:      "edit",
		MessageID: messageID,
		Text:      msg.Text,
		Keyboard:  msg.Keyboard,
	})
}

func (c *WebSocketChannel) ClearKeyboard(ctx context.Context, chatID, messageID int64) error {
	return c.write(ctx, chatID, wsOutbound{Type: "clear_keyboard", MessageID: messageID})
}

// AnswerCallback is a no-op: WebSocket clients do not block on button
// presses the way Telegram does.
func (c *WebSocketChannel) AnswerCallback(_ context.Context, _, _ string) error {
	return nil
}

func (c *WebSocketChannel) SendDocument(ctx context.Context, chatID int64, fileName string, content []byte, caption string) error {
	return c.write(ctx, chatID, wsOutbound{
		Type:     "document",
		FileName: fileName,
		Content:  base64.StdEncoding.EncodeToString(content),
		Caption:  caption,
	})
}

// SendFile is unsupported: WebSocket clients have no shared file store.
func (c *WebSocketChannel) SendFile(_ context.Context, _ int64, fileID, _ string) error {
	return fmt.Errorf("websocket channel cannot resend file %s", fileID)
}

// DownloadFile is unsupported: WebSocket clients have no upload store.
func (c *WebSocketChannel) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	return nil, fmt.Errorf("websocket channel has no file %s: uploads are not supported", fileID)
}

func (c *WebSocketChannel) Forward(ctx context.Context, toChatID, _, _ int64) error {
	return c.write(ctx, toChatID, wsOutbound{Type: "message", Text: "(пересланe повідомлення)"})
}

func (c *WebSocketChannel) write(ctx context.Context, chatID int64, frame wsOutbound) error {
	c.mu.RLock()
	conn, ok := c.conns[chatID]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no WebSocket connection for chat %d", chatID)
	}

	encoded, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encode WebSocket frame: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, encoded); err != nil {
		return fmt.Errorf("write WebSocket frame: %w", err)
	}
	return nil
}
