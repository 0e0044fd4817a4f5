package chat

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func TestWebSocketChannel_RoundTrip(t *testing.T) {
	ch := NewWebSocketChannel()
	inbound := make(chan InboundMessage, 1)
	if err := ch.Start(context.Background(), func(msg InboundMessage) {
		inbound <- msg
	}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	server := httptest.NewServer(ch)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()

	frame, _ := json.Marshal(wsInbound{ChatID: 9, UserID: 9, Text: "привіт", FirstName: "Оля"})
	if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var got InboundMessage
	select {
	case got = <-inbound:
	case <-ctx.Done():
		t.Fatal("inbound message never arrived")
	}
	if got.Channel != "websocket" || got.ChatID != 9 || got.Text != "привіт" {
		t.Fatalf("inbound = %+v", got)
	}

	// Outbound goes back over the same connection.
	id, err := ch.SendMessage(ctx, OutboundMessage{
		ChatID:   9,
		Text:     "Оберіть тему",
		Keyboard: [][]Button{{{Text: "Фонетика", Data: "topic:1"}}},
	})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if id == 0 {
		t.Fatal("SendMessage() returned zero id")
	}

	_, reply, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	var out wsOutbound
	if err := json.Unmarshal(reply, &out); err != nil {
		t.Fatalf("decode outbound frame: %v", err)
	}
	if out.Type != "message" || out.Text != "Оберіть тему" {
		t.Fatalf("outbound = %+v", out)
	}
	if len(out.Keyboard) != 1 || out.Keyboard[0][0].Data != "topic:1" {
		t.Fatalf("keyboard = %+v", out.Keyboard)
	}
}

func TestWebSocketChannel_SendToUnknownChat(t *testing.T) {
	ch := NewWebSocketChannel()
	if _, err := ch.SendMessage(context.Background(), OutboundMessage{ChatID: 404, Text: "x"}); err == nil {
		t.Fatal("SendMessage() to unconnected chat should error")
	}
}
