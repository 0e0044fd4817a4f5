package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/osvitacode/studybot/internal/chat"
	"github.com/osvitacode/studybot/internal/session"
)

const handleTimeout = 30 * time.Second

// conversation bundles one inbound event with its resolved channel.
type conversation struct {
	channel chat.Channel
	msg     chat.InboundMessage
	key     session.Key
}

func (c *conversation) reply(ctx context.Context, text string) error {
	_, err := c.channel.SendMessage(ctx, chat.OutboundMessage{ChatID: c.key.ChatID, Text: text})
	return err
}

func (c *conversation) replyKeyboard(ctx context.Context, text string, rows [][]chat.Button) error {
	_, err := c.channel.SendMessage(ctx, chat.OutboundMessage{
		ChatID:   c.key.ChatID,
		Text:     text,
		Keyboard: rows,
	})
	return err
}

// HandleInbound is the entry point the chat gateway calls for every inbound
// event. Events of the same conversation are processed one at a time.
func (b *Bot) HandleInbound(msg chat.InboundMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	key := session.Key{ChatID: msg.ChatID, UserID: msg.UserID}
	unlock := b.locks.lock(key)
	defer unlock()

	b.notifier.bind(key, msg.Channel)

	channel, err := b.channels.Channel(msg.Channel)
	if err != nil {
		slog.Error("inbound event from unregistered channel", "channel", msg.Channel)
		return
	}
	c := &conversation{channel: channel, msg: msg, key: key}

	if err := b.dispatch(ctx, c); err != nil {
		slog.Error("handler failed",
			"channel", msg.Channel,
			"chat_id", msg.ChatID,
			"user_id", msg.UserID,
			"error", err,
		)
		if err := c.reply(ctx, textError); err != nil {
			slog.Error("failed to send error reply", "error", err)
		}
	}

	if msg.IsCallback() {
		if err := channel.AnswerCallback(ctx, msg.CallbackID, ""); err != nil {
			slog.Warn("failed to answer callback", "error", err)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, c *conversation) error {
	if c.msg.IsCallback() {
		return b.dispatchCallback(ctx, c)
	}
	if strings.HasPrefix(c.msg.Text, "/") {
		return b.dispatchCommand(ctx, c)
	}
	return b.dispatchState(ctx, c)
}

func (b *Bot) dispatchCommand(ctx context.Context, c *conversation) error {
	cmd := strings.SplitN(c.msg.Text, " ", 2)[0]
	// Group chats append the bot name: "/start@studybot".
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}

	switch cmd {
	case "/start":
		return b.handleStart(ctx, c)
	case "/tests":
		return b.showProgramMenu(ctx, c)
	case "/quizzes":
		return b.showQuizList(ctx, c)
	case "/support":
		return b.startSupport(ctx, c)
	case "/help":
		return b.showFAQ(ctx, c)
	case "/cancel":
		return b.handleCancel(ctx, c)
	case "/done":
		return b.finishMaterialUpload(ctx, c)
	case "/admin":
		return b.showAdminMenu(ctx, c)
	default:
		return c.reply(ctx, textUnknownCommand)
	}
}

func (b *Bot) dispatchState(ctx context.Context, c *conversation) error {
	state, err := b.sessions.GetState(ctx, c.key)
	if err != nil {
		return err
	}

	switch state {
	case session.StateRegistrationName:
		return b.handleRegistrationName(ctx, c)
	case session.StateSupportMessage:
		return b.handleSupportMessage(ctx, c)
	case session.StateTestSession, session.StateQuizSession:
		return c.reply(ctx, textUseButtons)
	case session.StateTopicTitle, session.StateTopicDescription, session.StateTopicClass:
		return b.handleTopicInput(ctx, c, state)
	case session.StateLessonTitle, session.StateLessonDescription:
		return b.handleLessonInput(ctx, c, state)
	case session.StateTestUpload, session.StateQuizUpload:
		return b.handleQuestionUpload(ctx, c, state)
	case session.StateMaterialUpload:
		return b.handleMaterialUpload(ctx, c)
	default:
		// Free text outside any flow: registered students get the menu,
		// everyone else goes through registration.
		return b.handleStart(ctx, c)
	}
}

func (b *Bot) dispatchCallback(ctx context.Context, c *conversation) error {
	verb, args := splitCallback(c.msg.CallbackData)

	// An in-flight assessment accepts only its own buttons.
	state, err := b.sessions.GetState(ctx, c.key)
	if err != nil {
		return err
	}
	inAssessment := state == session.StateTestSession || state == session.StateQuizSession
	if inAssessment && verb != "ans" && verb != "cancel" {
		return c.reply(ctx, textUseButtons)
	}

	switch verb {
	case "menu":
		return b.showMainMenu(ctx, c)
	case "classes":
		return b.showProgramMenu(ctx, c)
	case "program":
		return b.showClassMenu(ctx, c, args)
	case "class":
		return b.showTopics(ctx, c, args)
	case "topic":
		return b.showTopic(ctx, c, args)
	case "lesson":
		return b.showLesson(ctx, c, args)
	case "test":
		return b.startTest(ctx, c, args)
	case "quiz":
		return b.startQuiz(ctx, c, args)
	case "quizzes":
		return b.showQuizList(ctx, c)
	case "ans":
		return b.handleAnswer(ctx, c, args)
	case "cancel":
		return b.handleCancel(ctx, c)
	case "support":
		return b.startSupport(ctx, c)
	case "help":
		return b.showFAQ(ctx, c)
	case "regname":
		return b.handleRegistrationNameButton(ctx, c)
	}

	if strings.HasPrefix(verb, "adm:") {
		return b.dispatchAdminCallback(ctx, c, verb, args)
	}

	slog.Warn("unknown callback", "data", c.msg.CallbackData)
	return nil
}

// errNotFoundReply sends text when err is the catalog's not-found sentinel
// and passes other errors through.
func errNotFoundReply(ctx context.Context, c *conversation, err error, sentinel error, text string) error {
	if errors.Is(err, sentinel) {
		return c.reply(ctx, text)
	}
	return err
}
