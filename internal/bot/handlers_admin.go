package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/osvitacode/studybot/internal/catalog"
	"github.com/osvitacode/studybot/internal/chat"
	"github.com/osvitacode/studybot/internal/questionset"
	"github.com/osvitacode/studybot/internal/session"
)

// Admin flow payload keys.
const (
	keyTitle       = "title"
	keyDescription = "description"
	keyTopicID     = "topic_id"
	keyLessonID    = "lesson_id"
	keySubjectID   = "subject_id"
)

func (b *Bot) showAdminMenu(ctx context.Context, c *conversation) error {
	if !b.isAdmin(c.msg.UserID) {
		return c.reply(ctx, textAdminOnly)
	}

	rows := [][]chat.Button{
		{{Text: btnAdmAddTopic, Data: "adm:addtopic"}, {Text: btnAdmDelTopic, Data: "adm:topics:deltopic"}},
		{{Text: btnAdmAddLesson, Data: "adm:topics:addlesson"}, {Text: btnAdmDelLesson, Data: "adm:topics:lessons:dellesson"}},
		{{Text: btnAdmUploadTest, Data: "adm:topics:lessons:uptest"}, {Text: btnAdmUploadQuiz, Data: "adm:topics:upquiz"}},
		{{Text: btnAdmExportTest, Data: "adm:topics:lessons:exptest"}, {Text: btnAdmExportQuiz, Data: "adm:topics:expquiz"}},
		{{Text: btnAdmUploadMat, Data: "adm:topics:lessons:upmat"}},
	}
	return c.replyKeyboard(ctx, textAdminMenu, rows)
}

func (b *Bot) dispatchAdminCallback(ctx context.Context, c *conversation, verb string, args []string) error {
	if !b.isAdmin(c.msg.UserID) {
		return c.reply(ctx, textAdminOnly)
	}

	switch verb {
	case "adm:menu":
		return b.showAdminMenu(ctx, c)
	case "adm:topics":
		return b.showAdminTopicPicker(ctx, c, args)
	case "adm:lessons":
		return b.showAdminLessonPicker(ctx, c, args)
	case "adm:addtopic":
		return b.startTopicCreation(ctx, c)
	case "adm:deltopic":
		return b.deleteTopic(ctx, c, args)
	case "adm:addlesson":
		return b.startLessonCreation(ctx, c, args)
	case "adm:dellesson":
		return b.deleteLesson(ctx, c, args)
	case "adm:uptest":
		return b.startQuestionUpload(ctx, c, args, session.StateTestUpload, textAdminUploadTest)
	case "adm:upquiz":
		return b.startQuestionUpload(ctx, c, args, session.StateQuizUpload, textAdminUploadQuiz)
	case "adm:upmat":
		return b.startMaterialUpload(ctx, c, args)
	case "adm:exptest":
		return b.exportQuestionSet(ctx, c, args, catalog.KindTest)
	case "adm:expquiz":
		return b.exportQuestionSet(ctx, c, args, catalog.KindQuiz)
	}

	slog.Warn("unknown admin callback", "data", c.msg.CallbackData)
	return nil
}

// showAdminTopicPicker lists every topic; each button carries the rest of
// the callback chain so multi-step admin flows share one picker.
func (b *Bot) showAdminTopicPicker(ctx context.Context, c *conversation, next []string) error {
	if len(next) == 0 {
		return fmt.Errorf("topic picker without continuation")
	}

	topics, err := b.allTopics(ctx)
	if err != nil {
		return err
	}
	if len(topics) == 0 {
		return c.replyKeyboard(ctx, textNoTopics, [][]chat.Button{
			{{Text: btnBack, Data: "adm:menu"}},
		})
	}

	var rows [][]chat.Button
	for _, t := range topics {
		data := "adm:" + strings.Join(append(append([]string(nil), next...), strconv.Itoa(t.ID)), ":")
		label := fmt.Sprintf("%d клас — %s", t.Class, t.Title)
		rows = append(rows, []chat.Button{{Text: label, Data: data}})
	}
	rows = append(rows, []chat.Button{{Text: btnBack, Data: "adm:menu"}})
	return c.replyKeyboard(ctx, textAdminPickTopic, rows)
}

// showAdminLessonPicker lists the lessons of args[last] with each button
// carrying "adm:<next>:<lessonID>".
func (b *Bot) showAdminLessonPicker(ctx context.Context, c *conversation, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("lesson picker needs a verb and a topic id")
	}
	next := args[0]
	topicID, err := callbackInt(args, 1)
	if err != nil {
		return err
	}

	lessons, err := b.catalog.LessonsOfTopic(ctx, topicID)
	if err != nil {
		return err
	}
	if len(lessons) == 0 {
		return c.replyKeyboard(ctx, textNoLessons, [][]chat.Button{
			{{Text: btnBack, Data: "adm:menu"}},
		})
	}
	b.sortLessons(lessons)

	var rows [][]chat.Button
	for _, l := range lessons {
		rows = append(rows, []chat.Button{{Text: l.Title, Data: "adm:" + next + ":" + strconv.Itoa(l.ID)}})
	}
	rows = append(rows, []chat.Button{{Text: btnBack, Data: "adm:menu"}})
	return c.replyKeyboard(ctx, textAdminPickLesson, rows)
}

func (b *Bot) startTopicCreation(ctx context.Context, c *conversation) error {
	// Every flow starts from a clean session; nothing leaks in from an
	// abandoned one.
	if err := b.sessions.Clear(ctx, c.key); err != nil {
		return err
	}
	if err := b.sessions.SetState(ctx, c.key, session.StateTopicTitle); err != nil {
		return err
	}
	return c.reply(ctx, textAdminTopicTitle)
}

// handleTopicInput walks the title, description, class steps of topic
// creation.
func (b *Bot) handleTopicInput(ctx context.Context, c *conversation, state session.State) error {
	if !b.isAdmin(c.msg.UserID) {
		return c.reply(ctx, textAdminOnly)
	}
	text := strings.TrimSpace(c.msg.Text)

	switch state {
	case session.StateTopicTitle:
		if text == "" {
			return c.reply(ctx, textAdminTopicTitle)
		}
		if _, err := b.sessions.MergePayload(ctx, c.key, session.Payload{keyTitle: text}); err != nil {
			return err
		}
		if err := b.sessions.SetState(ctx, c.key, session.StateTopicDescription); err != nil {
			return err
		}
		return c.reply(ctx, textAdminTopicDesc)

	case session.StateTopicDescription:
		if _, err := b.sessions.MergePayload(ctx, c.key, session.Payload{keyDescription: text}); err != nil {
			return err
		}
		if err := b.sessions.SetState(ctx, c.key, session.StateTopicClass); err != nil {
			return err
		}
		return c.reply(ctx, textAdminTopicClass)

	default: // session.StateTopicClass
		class, err := strconv.Atoi(text)
		if err != nil {
			return c.reply(ctx, textAdminClassBad)
		}
		payload, err := b.sessions.GetPayload(ctx, c.key)
		if err != nil {
			return err
		}
		title, _ := payload.String(keyTitle)
		description, _ := payload.String(keyDescription)

		if _, err := b.catalog.AddTopic(ctx, title, description, class); err != nil {
			return err
		}
		if err := b.sessions.Clear(ctx, c.key); err != nil {
			return err
		}
		slog.Info("topic created", "title", title, "class", class, "admin_id", c.msg.UserID)
		return c.reply(ctx, fmt.Sprintf(textAdminTopicDone, title))
	}
}

func (b *Bot) deleteTopic(ctx context.Context, c *conversation, args []string) error {
	topicID, err := callbackInt(args, 0)
	if err != nil {
		return err
	}
	if err := b.catalog.DeleteTopic(ctx, topicID); err != nil {
		return err
	}
	slog.Info("topic deleted", "topic_id", topicID, "admin_id", c.msg.UserID)
	return c.reply(ctx, textAdminTopicGone)
}

func (b *Bot) startLessonCreation(ctx context.Context, c *conversation, args []string) error {
	topicID, err := callbackInt(args, 0)
	if err != nil {
		return err
	}
	if err := b.sessions.Clear(ctx, c.key); err != nil {
		return err
	}
	if _, err := b.sessions.MergePayload(ctx, c.key, session.Payload{keyTopicID: topicID}); err != nil {
		return err
	}
	if err := b.sessions.SetState(ctx, c.key, session.StateLessonTitle); err != nil {
		return err
	}
	return c.reply(ctx, textAdminLessonTitle)
}

func (b *Bot) handleLessonInput(ctx context.Context, c *conversation, state session.State) error {
	if !b.isAdmin(c.msg.UserID) {
		return c.reply(ctx, textAdminOnly)
	}
	text := strings.TrimSpace(c.msg.Text)

	if state == session.StateLessonTitle {
		if text == "" {
			return c.reply(ctx, textAdminLessonTitle)
		}
		if _, err := b.sessions.MergePayload(ctx, c.key, session.Payload{keyTitle: text}); err != nil {
			return err
		}
		if err := b.sessions.SetState(ctx, c.key, session.StateLessonDescription); err != nil {
			return err
		}
		return c.reply(ctx, textAdminLessonDesc)
	}

	payload, err := b.sessions.GetPayload(ctx, c.key)
	if err != nil {
		return err
	}
	title, _ := payload.String(keyTitle)
	topicID, ok := payload.Int(keyTopicID)
	if !ok {
		return fmt.Errorf("lesson creation payload lost its topic id")
	}

	if _, err := b.catalog.AddLesson(ctx, title, text, topicID); err != nil {
		return err
	}
	if err := b.sessions.Clear(ctx, c.key); err != nil {
		return err
	}
	slog.Info("lesson created", "title", title, "topic_id", topicID, "admin_id", c.msg.UserID)
	return c.reply(ctx, fmt.Sprintf(textAdminLessonDone, title))
}

func (b *Bot) deleteLesson(ctx context.Context, c *conversation, args []string) error {
	lessonID, err := callbackInt(args, 0)
	if err != nil {
		return err
	}
	if err := b.catalog.DeleteLesson(ctx, lessonID); err != nil {
		return err
	}
	slog.Info("lesson deleted", "lesson_id", lessonID, "admin_id", c.msg.UserID)
	return c.reply(ctx, textAdminLessonGone)
}

func (b *Bot) startQuestionUpload(ctx context.Context, c *conversation, args []string, state session.State, prompt string) error {
	subjectID, err := callbackInt(args, 0)
	if err != nil {
		return err
	}
	if err := b.sessions.Clear(ctx, c.key); err != nil {
		return err
	}
	if _, err := b.sessions.MergePayload(ctx, c.key, session.Payload{keySubjectID: subjectID}); err != nil {
		return err
	}
	if err := b.sessions.SetState(ctx, c.key, state); err != nil {
		return err
	}
	return c.reply(ctx, prompt)
}

// handleQuestionUpload parses the uploaded question file and stores it
// behind the subject picked earlier in the flow.
func (b *Bot) handleQuestionUpload(ctx context.Context, c *conversation, state session.State) error {
	if !b.isAdmin(c.msg.UserID) {
		return c.reply(ctx, textAdminOnly)
	}
	if c.msg.Document == nil {
		return c.reply(ctx, textAdminNeedFile)
	}

	payload, err := b.sessions.GetPayload(ctx, c.key)
	if err != nil {
		return err
	}
	subjectID, ok := payload.Int(keySubjectID)
	if !ok {
		return fmt.Errorf("upload payload lost its subject id")
	}

	content, err := c.channel.DownloadFile(ctx, c.msg.Document.FileID)
	if err != nil {
		return fmt.Errorf("download question file: %w", err)
	}
	set, err := questionset.ParseFile(c.msg.Document.FileName, content)
	if err != nil {
		return c.reply(ctx, fmt.Sprintf(textAdminBadFile, err))
	}

	kind := catalog.KindTest
	if state == session.StateQuizUpload {
		kind = catalog.KindQuiz
	}
	subject := catalog.Subject{Kind: kind, ID: subjectID}
	if err := b.catalog.PutQuestionSet(ctx, subject, set); err != nil {
		return err
	}
	if err := b.sessions.Clear(ctx, c.key); err != nil {
		return err
	}
	slog.Info("question set uploaded",
		"subject", subject.String(),
		"questions", set.Count(),
		"admin_id", c.msg.UserID,
	)
	return c.reply(ctx, fmt.Sprintf(textAdminTestSaved, set.Count()))
}

func (b *Bot) startMaterialUpload(ctx context.Context, c *conversation, args []string) error {
	lessonID, err := callbackInt(args, 0)
	if err != nil {
		return err
	}

	// Uploaded files replace the lesson's materials wholesale.
	if err := b.catalog.DeleteMaterials(ctx, lessonID); err != nil {
		return err
	}

	if err := b.sessions.Clear(ctx, c.key); err != nil {
		return err
	}
	if _, err := b.sessions.MergePayload(ctx, c.key, session.Payload{keyLessonID: lessonID}); err != nil {
		return err
	}
	if err := b.sessions.SetState(ctx, c.key, session.StateMaterialUpload); err != nil {
		return err
	}
	return c.reply(ctx, textAdminUploadMat)
}

// handleMaterialUpload stores each uploaded file against the lesson; the
// flow stays open until /done.
func (b *Bot) handleMaterialUpload(ctx context.Context, c *conversation) error {
	if !b.isAdmin(c.msg.UserID) {
		return c.reply(ctx, textAdminOnly)
	}
	if c.msg.Document == nil {
		return c.reply(ctx, textAdminNeedFile)
	}

	payload, err := b.sessions.GetPayload(ctx, c.key)
	if err != nil {
		return err
	}
	lessonID, ok := payload.Int(keyLessonID)
	if !ok {
		return fmt.Errorf("material upload payload lost its lesson id")
	}

	if err := b.catalog.AddMaterial(ctx, lessonID, c.msg.Document.FileID, c.msg.Document.MIMEType); err != nil {
		return err
	}
	return c.reply(ctx, textAdminMatSaved)
}

func (b *Bot) finishMaterialUpload(ctx context.Context, c *conversation) error {
	state, err := b.sessions.GetState(ctx, c.key)
	if err != nil {
		return err
	}
	if state != session.StateMaterialUpload {
		return c.reply(ctx, textUnknownCommand)
	}
	if err := b.sessions.Clear(ctx, c.key); err != nil {
		return err
	}
	return c.reply(ctx, textAdminMatDone)
}

func (b *Bot) exportQuestionSet(ctx context.Context, c *conversation, args []string, kind catalog.SubjectKind) error {
	subjectID, err := callbackInt(args, 0)
	if err != nil {
		return err
	}
	subject := catalog.Subject{Kind: kind, ID: subjectID}

	set, err := b.catalog.QuestionSet(ctx, subject)
	if err != nil {
		return errNotFoundReply(ctx, c, err, catalog.ErrNotFound, textAdminNothingExp)
	}
	document, err := set.MarshalJSONDocument()
	if err != nil {
		return err
	}

	fileName := fmt.Sprintf("%s_%d.json", subject.Kind, subject.ID)
	return c.channel.SendDocument(ctx, c.key.ChatID, fileName, document, "")
}
