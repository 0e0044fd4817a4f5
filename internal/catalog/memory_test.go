package catalog_test

import (
	"errors"
	"testing"

	"github.com/osvitacode/studybot/internal/catalog"
	"github.com/osvitacode/studybot/internal/questionset"
)

func twoQuestions() questionset.Set {
	return questionset.Set{Questions: []questionset.Question{
		{Text: "q1", Options: []string{"a", "b", "c"}, CorrectAnswer: 0},
		{Text: "q2", Options: []string{"a", "b", "c"}, CorrectAnswer: 2},
	}}
}

func TestMemory_TopicLessonLifecycle(t *testing.T) {
	cat := catalog.NewMemory()
	ctx := t.Context()

	topicID, err := cat.AddTopic(ctx, "Цикли", "Усе про цикли", 7)
	if err != nil {
		t.Fatalf("AddTopic() error = %v", err)
	}

	lessonID, err := cat.AddLesson(ctx, "Цикл for", "опис", topicID)
	if err != nil {
		t.Fatalf("AddLesson() error = %v", err)
	}

	lessons, err := cat.LessonsOfTopic(ctx, topicID)
	if err != nil {
		t.Fatalf("LessonsOfTopic() error = %v", err)
	}
	if len(lessons) != 1 || lessons[0].ID != lessonID {
		t.Errorf("LessonsOfTopic() = %v, want one lesson %d", lessons, lessonID)
	}

	topics, err := cat.TopicsByClass(ctx, 7)
	if err != nil {
		t.Fatalf("TopicsByClass() error = %v", err)
	}
	if len(topics) != 1 {
		t.Errorf("TopicsByClass(7) = %d topics, want 1", len(topics))
	}

	if err := cat.DeleteTopic(ctx, topicID); err != nil {
		t.Fatalf("DeleteTopic() error = %v", err)
	}
	if _, err := cat.Lesson(ctx, lessonID); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("Lesson() after topic delete error = %v, want ErrNotFound", err)
	}
}

func TestMemory_QuestionAccess(t *testing.T) {
	cat := catalog.NewMemory()
	ctx := t.Context()
	subj := catalog.Subject{Kind: catalog.KindTest, ID: 7}

	if _, err := cat.QuestionCount(ctx, subj); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("QuestionCount() on undefined subject error = %v, want ErrNotFound", err)
	}

	if err := cat.PutQuestionSet(ctx, subj, twoQuestions()); err != nil {
		t.Fatalf("PutQuestionSet() error = %v", err)
	}

	count, err := cat.QuestionCount(ctx, subj)
	if err != nil {
		t.Fatalf("QuestionCount() error = %v", err)
	}
	if count != 2 {
		t.Errorf("QuestionCount() = %d, want 2", count)
	}

	q, err := cat.Question(ctx, subj, 1)
	if err != nil {
		t.Fatalf("Question() error = %v", err)
	}
	if q.CorrectAnswer != 2 {
		t.Errorf("Question(1).CorrectAnswer = %d, want 2", q.CorrectAnswer)
	}

	if _, err := cat.Question(ctx, subj, 2); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("Question(2) error = %v, want ErrNotFound past the end", err)
	}
}

func TestMemory_TestAndQuizAreSeparateNamespaces(t *testing.T) {
	cat := catalog.NewMemory()
	ctx := t.Context()

	testSubj := catalog.Subject{Kind: catalog.KindTest, ID: 5}
	quizSubj := catalog.Subject{Kind: catalog.KindQuiz, ID: 5}

	if err := cat.PutQuestionSet(ctx, testSubj, twoQuestions()); err != nil {
		t.Fatalf("PutQuestionSet() error = %v", err)
	}

	ok, err := cat.HasQuestionSet(ctx, quizSubj)
	if err != nil {
		t.Fatalf("HasQuestionSet() error = %v", err)
	}
	if ok {
		t.Error("quiz subject should not exist when only the test was stored")
	}
}

func TestMemory_TopicsWithQuiz(t *testing.T) {
	cat := catalog.NewMemory()
	ctx := t.Context()

	withQuiz, _ := cat.AddTopic(ctx, "A", "", 5)
	_, _ = cat.AddTopic(ctx, "B", "", 5)

	if err := cat.PutQuestionSet(ctx, catalog.Subject{Kind: catalog.KindQuiz, ID: withQuiz}, twoQuestions()); err != nil {
		t.Fatalf("PutQuestionSet() error = %v", err)
	}

	topics, err := cat.TopicsWithQuiz(ctx)
	if err != nil {
		t.Fatalf("TopicsWithQuiz() error = %v", err)
	}
	if len(topics) != 1 || topics[0].ID != withQuiz {
		t.Errorf("TopicsWithQuiz() = %v, want only topic %d", topics, withQuiz)
	}
}

func TestMemory_StudentRegistrationFirstWins(t *testing.T) {
	cat := catalog.NewMemory()
	ctx := t.Context()

	_ = cat.AddStudent(ctx, catalog.Student{ID: 42, Name: "Оля", Username: "olia"})
	_ = cat.AddStudent(ctx, catalog.Student{ID: 42, Name: "Інше ім'я", Username: "x"})

	s, err := cat.Student(ctx, 42)
	if err != nil {
		t.Fatalf("Student() error = %v", err)
	}
	if s.Name != "Оля" {
		t.Errorf("Name = %q, want first registration kept", s.Name)
	}
}

func TestMemory_MaterialsReplaceFlow(t *testing.T) {
	cat := catalog.NewMemory()
	ctx := t.Context()

	_ = cat.AddMaterial(ctx, 3, "file-1", "document")
	_ = cat.AddMaterial(ctx, 3, "file-2", "photo")

	mats, _ := cat.Materials(ctx, 3)
	if len(mats) != 2 {
		t.Fatalf("Materials() = %d, want 2", len(mats))
	}

	_ = cat.DeleteMaterials(ctx, 3)
	_ = cat.AddMaterial(ctx, 3, "file-3", "video")

	mats, _ = cat.Materials(ctx, 3)
	if len(mats) != 1 || mats[0].FileID != "file-3" {
		t.Errorf("Materials() after replace = %v, want only file-3", mats)
	}
}
