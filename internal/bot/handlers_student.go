package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/osvitacode/studybot/internal/assessment"
	"github.com/osvitacode/studybot/internal/catalog"
	"github.com/osvitacode/studybot/internal/chat"
	"github.com/osvitacode/studybot/internal/session"
)

// handleStart greets a known student with the main menu and sends a new
// one through registration.
func (b *Bot) handleStart(ctx context.Context, c *conversation) error {
	_, err := b.catalog.Student(ctx, c.msg.UserID)
	if errors.Is(err, catalog.ErrNotFound) {
		if err := b.sessions.Clear(ctx, c.key); err != nil {
			return err
		}
		if err := b.sessions.SetState(ctx, c.key, session.StateRegistrationName); err != nil {
			return err
		}
		return c.replyKeyboard(ctx, textAskName, [][]chat.Button{
			{{Text: btnUseTgName, Data: "regname"}},
		})
	}
	if err != nil {
		return err
	}
	return b.showMainMenu(ctx, c)
}

// handleRegistrationNameButton registers the student under their messenger
// profile name instead of a typed one.
func (b *Bot) handleRegistrationNameButton(ctx context.Context, c *conversation) error {
	state, err := b.sessions.GetState(ctx, c.key)
	if err != nil {
		return err
	}
	if state != session.StateRegistrationName {
		return b.handleStart(ctx, c)
	}

	name := strings.TrimSpace(c.msg.FirstName + " " + c.msg.LastName)
	if name == "" {
		return c.reply(ctx, textNameEmpty)
	}
	return b.registerStudent(ctx, c, name)
}

func (b *Bot) handleRegistrationName(ctx context.Context, c *conversation) error {
	name := strings.TrimSpace(c.msg.Text)
	if name == "" {
		return c.reply(ctx, textNameEmpty)
	}
	return b.registerStudent(ctx, c, name)
}

func (b *Bot) registerStudent(ctx context.Context, c *conversation, name string) error {
	err := b.catalog.AddStudent(ctx, catalog.Student{
		ID:       c.msg.UserID,
		Name:     name,
		Username: c.msg.Username,
	})
	if err != nil {
		return err
	}
	if err := b.sessions.Clear(ctx, c.key); err != nil {
		return err
	}

	slog.Info("student registered", "student_id", c.msg.UserID)
	if err := c.reply(ctx, fmt.Sprintf(textWelcome, name)); err != nil {
		return err
	}
	return b.showMainMenu(ctx, c)
}

func (b *Bot) showMainMenu(ctx context.Context, c *conversation) error {
	rows := [][]chat.Button{
		{{Text: btnStudy, Data: "classes"}},
		{{Text: btnQuizzes, Data: "quizzes"}},
		{{Text: btnSupport, Data: "support"}},
		{{Text: btnHelp, Data: "help"}},
	}
	return c.replyKeyboard(ctx, textMainMenu, rows)
}

func (b *Bot) showFAQ(ctx context.Context, c *conversation) error {
	threshold := b.gating.Threshold()
	return c.replyKeyboard(ctx, fmt.Sprintf(textFAQ, threshold, threshold), [][]chat.Button{
		{{Text: btnSupport, Data: "support"}},
		{{Text: btnBack, Data: "menu"}},
	})
}

func (b *Bot) showProgramMenu(ctx context.Context, c *conversation) error {
	var rows [][]chat.Button
	for _, p := range programs {
		rows = append(rows, []chat.Button{{
			Text: p.Label,
			Data: callbackData("program", strconv.Itoa(p.From), strconv.Itoa(p.To)),
		}})
	}
	rows = append(rows, []chat.Button{{Text: btnBack, Data: "menu"}})
	return c.replyKeyboard(ctx, textChooseProgram, rows)
}

func (b *Bot) showClassMenu(ctx context.Context, c *conversation, args []string) error {
	from, err := callbackInt(args, 0)
	if err != nil {
		return err
	}
	to, err := callbackInt(args, 1)
	if err != nil {
		return err
	}

	var row []chat.Button
	var rows [][]chat.Button
	for class := from; class <= to; class++ {
		row = append(row, chat.Button{
			Text: strconv.Itoa(class),
			Data: callbackID("class", class),
		})
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []chat.Button{{Text: btnBack, Data: "classes"}})
	return c.replyKeyboard(ctx, textChooseClass, rows)
}

func (b *Bot) showTopics(ctx context.Context, c *conversation, args []string) error {
	class, err := callbackInt(args, 0)
	if err != nil {
		return err
	}

	topics, err := b.catalog.TopicsByClass(ctx, class)
	if err != nil {
		return err
	}
	if len(topics) == 0 {
		return c.replyKeyboard(ctx, textNoTopics, [][]chat.Button{
			{{Text: btnBack, Data: "classes"}},
		})
	}
	b.sortTopics(topics)

	var rows [][]chat.Button
	for _, t := range topics {
		rows = append(rows, []chat.Button{{Text: t.Title, Data: callbackID("topic", t.ID)}})
	}
	rows = append(rows, []chat.Button{{Text: btnBack, Data: "classes"}})
	return c.replyKeyboard(ctx, textChooseTopic, rows)
}

func (b *Bot) showTopic(ctx context.Context, c *conversation, args []string) error {
	topicID, err := callbackInt(args, 0)
	if err != nil {
		return err
	}

	topic, err := b.catalog.Topic(ctx, topicID)
	if err != nil {
		return errNotFoundReply(ctx, c, err, catalog.ErrNotFound, textNoTopics)
	}
	lessons, err := b.catalog.LessonsOfTopic(ctx, topicID)
	if err != nil {
		return err
	}
	b.sortLessons(lessons)

	text := topic.Title
	if topic.Description != "" {
		text += "\n\n" + topic.Description
	}
	if len(lessons) == 0 {
		text += "\n\n" + textNoLessons
	}

	var rows [][]chat.Button
	for _, l := range lessons {
		rows = append(rows, []chat.Button{{Text: l.Title, Data: callbackID("lesson", l.ID)}})
	}
	hasQuiz, err := b.catalog.HasQuestionSet(ctx, catalog.Subject{Kind: catalog.KindQuiz, ID: topicID})
	if err != nil {
		return err
	}
	if hasQuiz {
		rows = append(rows, []chat.Button{{Text: btnQuiz, Data: callbackID("quiz", topicID)}})
	}
	rows = append(rows, []chat.Button{{Text: btnBack, Data: callbackID("class", topic.Class)}})
	return c.replyKeyboard(ctx, text, rows)
}

func (b *Bot) showLesson(ctx context.Context, c *conversation, args []string) error {
	lessonID, err := callbackInt(args, 0)
	if err != nil {
		return err
	}

	lesson, err := b.catalog.Lesson(ctx, lessonID)
	if err != nil {
		return errNotFoundReply(ctx, c, err, catalog.ErrNotFound, textNoLessons)
	}

	text := lesson.Title
	if lesson.Description != "" {
		text += "\n\n" + lesson.Description
	}

	// Materials go out as separate file messages before the lesson card.
	materials, err := b.catalog.Materials(ctx, lessonID)
	if err != nil {
		return err
	}
	for _, m := range materials {
		if err := c.channel.SendFile(ctx, c.key.ChatID, m.FileID, m.Type); err != nil {
			slog.Warn("failed to send lesson material",
				"lesson_id", lessonID,
				"material_id", m.ID,
				"error", err,
			)
		}
	}

	var rows [][]chat.Button
	hasTest, err := b.catalog.HasQuestionSet(ctx, catalog.Subject{Kind: catalog.KindTest, ID: lessonID})
	if err != nil {
		return err
	}
	if hasTest {
		rows = append(rows, []chat.Button{{Text: btnTakeTest, Data: callbackID("test", lessonID)}})
	} else {
		text += "\n\n" + textLessonNoTest
	}
	rows = append(rows, []chat.Button{{Text: btnBack, Data: callbackID("topic", lesson.TopicID)}})
	return c.replyKeyboard(ctx, text, rows)
}

func (b *Bot) startTest(ctx context.Context, c *conversation, args []string) error {
	lessonID, err := callbackInt(args, 0)
	if err != nil {
		return err
	}
	lesson, err := b.catalog.Lesson(ctx, lessonID)
	if err != nil {
		return errNotFoundReply(ctx, c, err, catalog.ErrNotFound, textNoLessons)
	}

	subject := catalog.Subject{Kind: catalog.KindTest, ID: lessonID}
	err = b.assess.Start(ctx, c.key, subject, lesson.TopicID)
	if errors.Is(err, assessment.ErrEmptySubject) {
		return c.reply(ctx, textEmptySubject)
	}
	return err
}

func (b *Bot) startQuiz(ctx context.Context, c *conversation, args []string) error {
	topicID, err := callbackInt(args, 0)
	if err != nil {
		return err
	}

	hasQuiz, err := b.catalog.HasQuestionSet(ctx, catalog.Subject{Kind: catalog.KindQuiz, ID: topicID})
	if err != nil {
		return err
	}
	if !hasQuiz {
		return c.reply(ctx, textQuizUnavailable)
	}

	attempted, err := b.scores.HasQuizAttempt(ctx, c.msg.UserID, topicID)
	if err != nil {
		return err
	}
	if attempted {
		return c.reply(ctx, textQuizAttempted)
	}

	unlocked, err := b.gating.IsQuizUnlocked(ctx, c.msg.UserID, topicID)
	if err != nil {
		return err
	}
	if !unlocked {
		return c.reply(ctx, textQuizLocked)
	}

	subject := catalog.Subject{Kind: catalog.KindQuiz, ID: topicID}
	err = b.assess.Start(ctx, c.key, subject, topicID)
	if errors.Is(err, assessment.ErrEmptySubject) {
		return c.reply(ctx, textEmptySubject)
	}
	return err
}

func (b *Bot) showQuizList(ctx context.Context, c *conversation) error {
	topics, err := b.gating.EligibleTopics(ctx, c.msg.UserID)
	if err != nil {
		return err
	}
	if len(topics) == 0 {
		return c.replyKeyboard(ctx, textNoQuizzes, [][]chat.Button{
			{{Text: btnBack, Data: "menu"}},
		})
	}
	b.sortTopics(topics)

	var rows [][]chat.Button
	for _, t := range topics {
		rows = append(rows, []chat.Button{{Text: t.Title, Data: callbackID("quiz", t.ID)}})
	}
	rows = append(rows, []chat.Button{{Text: btnBack, Data: "menu"}})
	return c.replyKeyboard(ctx, textQuizListHeader, rows)
}

func (b *Bot) handleAnswer(ctx context.Context, c *conversation, args []string) error {
	chosen, err := callbackInt(args, 0)
	if err != nil {
		return err
	}

	_, err = b.assess.Submit(ctx, c.key, chosen)
	if errors.Is(err, assessment.ErrNoActiveSession) {
		return c.reply(ctx, textNoAssessment)
	}
	var fetchErr *assessment.QuestionFetchError
	if errors.As(err, &fetchErr) {
		slog.Error("question fetch failed", "subject", fetchErr.Subject.String(), "index", fetchErr.Index, "error", err)
		return c.reply(ctx, textAssessError)
	}
	return err
}

// handleCancel backs out of whatever is active: an assessment, registration,
// a support message, or an admin input flow.
func (b *Bot) handleCancel(ctx context.Context, c *conversation) error {
	err := b.assess.Cancel(ctx, c.key)
	if err == nil {
		if c.msg.CallbackMessageID != 0 {
			if err := c.channel.ClearKeyboard(ctx, c.key.ChatID, c.msg.CallbackMessageID); err != nil {
				slog.Warn("failed to clear keyboard", "error", err)
			}
		}
		return c.reply(ctx, textCancelled)
	}
	if !errors.Is(err, assessment.ErrNoActiveSession) {
		return err
	}

	state, err := b.sessions.GetState(ctx, c.key)
	if err != nil {
		return err
	}
	if state == session.StateIdle {
		return c.reply(ctx, textNothingToCancel)
	}
	if err := b.sessions.Clear(ctx, c.key); err != nil {
		return err
	}
	return c.reply(ctx, textFlowCancelled)
}

func (b *Bot) startSupport(ctx context.Context, c *conversation) error {
	if err := b.sessions.Clear(ctx, c.key); err != nil {
		return err
	}
	if err := b.sessions.SetState(ctx, c.key, session.StateSupportMessage); err != nil {
		return err
	}
	return c.reply(ctx, textSupportAsk)
}

// handleSupportMessage forwards the student's message to every admin.
func (b *Bot) handleSupportMessage(ctx context.Context, c *conversation) error {
	name := c.msg.FirstName
	if student, err := b.catalog.Student(ctx, c.msg.UserID); err == nil {
		name = student.Name
	}

	for adminID := range b.admins {
		_, err := c.channel.SendMessage(ctx, chat.OutboundMessage{
			ChatID: adminID,
			Text:   fmt.Sprintf(textSupportFrom, name, c.msg.Username),
		})
		if err != nil {
			slog.Warn("failed to notify admin", "admin_id", adminID, "error", err)
			continue
		}
		if err := c.channel.Forward(ctx, adminID, c.key.ChatID, c.msg.MessageID); err != nil {
			slog.Warn("failed to forward support message", "admin_id", adminID, "error", err)
		}
	}

	if err := b.sessions.Clear(ctx, c.key); err != nil {
		return err
	}
	return c.reply(ctx, textSupportSent)
}
