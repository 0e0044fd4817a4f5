package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/osvitacode/studybot/internal/assessment"
	"github.com/osvitacode/studybot/internal/catalog"
	"github.com/osvitacode/studybot/internal/chat"
	"github.com/osvitacode/studybot/internal/questionset"
	"github.com/osvitacode/studybot/internal/session"
)

// notifier delivers assessment questions and outcomes over the chat
// gateway. The channel a conversation lives on is remembered from its last
// inbound event.
type notifier struct {
	channels *chat.Gateway
	topics   interface {
		Topic(ctx context.Context, id int) (catalog.Topic, error)
	}
	threshold int
	routes    sync.Map // session.Key -> channel name
}

// bind remembers which channel the conversation speaks on.
func (n *notifier) bind(key session.Key, channel string) {
	n.routes.Store(key, channel)
}

func (n *notifier) channelFor(key session.Key) (chat.Channel, error) {
	name := "telegram"
	if v, ok := n.routes.Load(key); ok {
		name = v.(string)
	}
	return n.channels.Channel(name)
}

func (n *notifier) AskQuestion(ctx context.Context, key session.Key, messageID int64, ordinal, total int, q questionset.Question) (int64, error) {
	ch, err := n.channelFor(key)
	if err != nil {
		return 0, err
	}

	var rows [][]chat.Button
	for i, opt := range q.Options {
		rows = append(rows, []chat.Button{{Text: opt, Data: "ans:" + strconv.Itoa(i)}})
	}
	rows = append(rows, []chat.Button{{Text: btnCancel, Data: "cancel"}})

	msg := chat.OutboundMessage{
		ChatID:   key.ChatID,
		Text:     fmt.Sprintf(textQuestion, ordinal, total, q.Text),
		Keyboard: rows,
	}

	// Edit the previous question in place so the chat holds one anchor
	// message per assessment.
	if messageID != 0 {
		if err := ch.EditMessage(ctx, messageID, msg); err == nil {
			return messageID, nil
		}
		slog.Warn("question edit failed, sending a new message", "chat_id", key.ChatID)
	}
	return ch.SendMessage(ctx, msg)
}

func (n *notifier) AnnounceResult(ctx context.Context, key session.Key, res assessment.Result) error {
	ch, err := n.channelFor(key)
	if err != nil {
		return err
	}

	var text string
	switch {
	case res.Subject.Kind == catalog.KindQuiz && res.Passed:
		text = fmt.Sprintf(textQuizPassed, res.Score, res.Correct, res.Total)
	case res.Subject.Kind == catalog.KindQuiz:
		text = fmt.Sprintf(textQuizFailed, res.Score, n.threshold)
	case res.Passed:
		text = fmt.Sprintf(textTestPassed, res.Score, res.Correct, res.Total)
	default:
		text = fmt.Sprintf(textTestFailed, res.Score, n.threshold)
	}

	_, err = ch.SendMessage(ctx, chat.OutboundMessage{ChatID: key.ChatID, Text: text})
	return err
}

func (n *notifier) AnnounceQuizUnlocked(ctx context.Context, key session.Key, topicID int) error {
	ch, err := n.channelFor(key)
	if err != nil {
		return err
	}

	title := strconv.Itoa(topicID)
	if topic, err := n.topics.Topic(ctx, topicID); err == nil {
		title = topic.Title
	}
	_, err = ch.SendMessage(ctx, chat.OutboundMessage{
		ChatID: key.ChatID,
		Text:   fmt.Sprintf(textQuizUnlocked, title),
	})
	return err
}
