package chat_test

import (
	"context"
	"testing"

	"github.com/osvitacode/studybot/internal/chat"
)

func TestNewGateway(t *testing.T) {
	gw := chat.NewGateway()
	if gw == nil {
		t.Fatal("NewGateway() returned nil")
	}
}

func TestGateway_RegisterChannel(t *testing.T) {
	gw := chat.NewGateway()
	mock := &chat.MockChannel{}

	gw.Register("telegram", mock)

	ch, err := gw.Channel("telegram")
	if err != nil {
		t.Fatalf("Channel(telegram) error = %v", err)
	}
	if ch != chat.Channel(mock) {
		t.Error("Channel(telegram) returned a different channel")
	}
}

func TestGateway_Channel_NotRegistered(t *testing.T) {
	gw := chat.NewGateway()

	if _, err := gw.Channel("whatsapp"); err == nil {
		t.Error("Channel(whatsapp) should error when not registered")
	}
}

func TestGateway_SendMessage(t *testing.T) {
	gw := chat.NewGateway()
	mock := &chat.MockChannel{}
	gw.Register("telegram", mock)

	id, err := gw.Send(context.Background(), chat.OutboundMessage{
		Channel: "telegram",
		ChatID:  123,
		Text:    "Привіт!",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if id == 0 {
		t.Error("Send() returned zero message id")
	}
	if len(mock.SentMessages) != 1 {
		t.Errorf("SentMessages = %d, want 1", len(mock.SentMessages))
	}
}

func TestGateway_SendMessage_UnknownChannel(t *testing.T) {
	gw := chat.NewGateway()

	_, err := gw.Send(context.Background(), chat.OutboundMessage{
		Channel: "unknown",
		ChatID:  123,
		Text:    "Привіт!",
	})
	if err == nil {
		t.Error("Send() should error for unknown channel")
	}
}

func TestInboundMessage_IsCallback(t *testing.T) {
	plain := chat.InboundMessage{Channel: "telegram", ChatID: 1, UserID: 2, Text: "привіт"}
	if plain.IsCallback() {
		t.Error("plain message reported as callback")
	}

	cb := chat.InboundMessage{Channel: "telegram", ChatID: 1, UserID: 2, CallbackID: "q1", CallbackData: "ans:0"}
	if !cb.IsCallback() {
		t.Error("callback message not reported as callback")
	}
}
