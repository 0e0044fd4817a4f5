package eligibility

import (
	"context"
	"errors"
	"testing"

	"github.com/osvitacode/studybot/internal/catalog"
	"github.com/osvitacode/studybot/internal/questionset"
	"github.com/osvitacode/studybot/internal/scores"
)

const threshold = 60

func twoQuestions() questionset.Set {
	return questionset.Set{Questions: []questionset.Question{
		{Text: "q1", Options: []string{"a", "b"}, CorrectAnswer: 0},
		{Text: "q2", Options: []string{"a", "b"}, CorrectAnswer: 1},
	}}
}

// fixture builds a topic with two lessons, each carrying a test, plus a
// topic quiz. Returns the engine, backing stores, and the created ids.
type fixtureIDs struct {
	topic   int
	lessonA int
	lessonB int
}

func fixture(t *testing.T) (*Engine, *catalog.Memory, *scores.Memory, fixtureIDs) {
	t.Helper()
	ctx := context.Background()
	cat := catalog.NewMemory()

	var ids fixtureIDs
	var err error
	ids.topic, err = cat.AddTopic(ctx, "Фонетика", "Звуки і букви", 5)
	if err != nil {
		t.Fatalf("AddTopic: %v", err)
	}
	ids.lessonA, err = cat.AddLesson(ctx, "Звуки", "", ids.topic)
	if err != nil {
		t.Fatalf("AddLesson: %v", err)
	}
	ids.lessonB, err = cat.AddLesson(ctx, "Наголос", "", ids.topic)
	if err != nil {
		t.Fatalf("AddLesson: %v", err)
	}
	for _, lessonID := range []int{ids.lessonA, ids.lessonB} {
		if err := cat.PutQuestionSet(ctx, catalog.Subject{Kind: catalog.KindTest, ID: lessonID}, twoQuestions()); err != nil {
			t.Fatalf("PutQuestionSet(test %d): %v", lessonID, err)
		}
	}
	if err := cat.PutQuestionSet(ctx, catalog.Subject{Kind: catalog.KindQuiz, ID: ids.topic}, twoQuestions()); err != nil {
		t.Fatalf("PutQuestionSet(quiz): %v", err)
	}

	store := scores.NewMemory(cat)
	return New(cat, store, threshold), cat, store, ids
}

func pass(t *testing.T, store *scores.Memory, studentID int64, subject catalog.Subject, score int) {
	t.Helper()
	err := store.Append(context.Background(), scores.Record{StudentID: studentID, Subject: subject, Score: score})
	if err != nil {
		t.Fatalf("Append(%s, %d): %v", subject, score, err)
	}
}

func TestIsQuizUnlocked(t *testing.T) {
	ctx := context.Background()
	engine, _, store, ids := fixture(t)

	unlocked, err := engine.IsQuizUnlocked(ctx, 7, ids.topic)
	if err != nil {
		t.Fatalf("IsQuizUnlocked: %v", err)
	}
	if unlocked {
		t.Fatal("quiz unlocked with no tests attempted")
	}

	// One lesson passed, the other failed: still locked.
	pass(t, store, 7, catalog.Subject{Kind: catalog.KindTest, ID: ids.lessonA}, 100)
	pass(t, store, 7, catalog.Subject{Kind: catalog.KindTest, ID: ids.lessonB}, 50)
	unlocked, err = engine.IsQuizUnlocked(ctx, 7, ids.topic)
	if err != nil {
		t.Fatalf("IsQuizUnlocked: %v", err)
	}
	if unlocked {
		t.Fatal("quiz unlocked with one lesson test below threshold")
	}

	// Retake brings the second lesson over the bar.
	pass(t, store, 7, catalog.Subject{Kind: catalog.KindTest, ID: ids.lessonB}, 60)
	unlocked, err = engine.IsQuizUnlocked(ctx, 7, ids.topic)
	if err != nil {
		t.Fatalf("IsQuizUnlocked: %v", err)
	}
	if !unlocked {
		t.Fatal("quiz locked after all lesson tests passed")
	}
}

func TestIsQuizUnlocked_LessonWithoutTest(t *testing.T) {
	ctx := context.Background()
	engine, cat, store, ids := fixture(t)

	// A lesson with no attached test must not block the quiz.
	if _, err := cat.AddLesson(ctx, "Конспект", "", ids.topic); err != nil {
		t.Fatalf("AddLesson: %v", err)
	}
	pass(t, store, 7, catalog.Subject{Kind: catalog.KindTest, ID: ids.lessonA}, 100)
	pass(t, store, 7, catalog.Subject{Kind: catalog.KindTest, ID: ids.lessonB}, 100)

	unlocked, err := engine.IsQuizUnlocked(ctx, 7, ids.topic)
	if err != nil {
		t.Fatalf("IsQuizUnlocked: %v", err)
	}
	if !unlocked {
		t.Fatal("lesson without a test blocked the quiz")
	}
}

func TestIsQuizUnlocked_EmptyTopic(t *testing.T) {
	ctx := context.Background()
	engine, cat, _, _ := fixture(t)

	topicID, err := cat.AddTopic(ctx, "Лексика", "", 5)
	if err != nil {
		t.Fatalf("AddTopic: %v", err)
	}
	unlocked, err := engine.IsQuizUnlocked(ctx, 7, topicID)
	if err != nil {
		t.Fatalf("IsQuizUnlocked: %v", err)
	}
	if !unlocked {
		t.Fatal("topic with no lessons should be vacuously unlocked")
	}
}

func TestEligibleTopics(t *testing.T) {
	ctx := context.Background()
	engine, _, store, ids := fixture(t)

	topics, err := engine.EligibleTopics(ctx, 7)
	if err != nil {
		t.Fatalf("EligibleTopics: %v", err)
	}
	if len(topics) != 0 {
		t.Fatalf("expected no eligible topics, got %d", len(topics))
	}

	pass(t, store, 7, catalog.Subject{Kind: catalog.KindTest, ID: ids.lessonA}, 100)
	pass(t, store, 7, catalog.Subject{Kind: catalog.KindTest, ID: ids.lessonB}, 80)

	topics, err = engine.EligibleTopics(ctx, 7)
	if err != nil {
		t.Fatalf("EligibleTopics: %v", err)
	}
	if len(topics) != 1 || topics[0].ID != ids.topic {
		t.Fatalf("expected topic %d eligible, got %v", ids.topic, topics)
	}

	// One quiz attempt, even a failing one, removes the topic forever.
	pass(t, store, 7, catalog.Subject{Kind: catalog.KindQuiz, ID: ids.topic}, 0)
	topics, err = engine.EligibleTopics(ctx, 7)
	if err != nil {
		t.Fatalf("EligibleTopics: %v", err)
	}
	if len(topics) != 0 {
		t.Fatalf("attempted quiz still listed: %v", topics)
	}
}

func TestEligibleTopics_PerStudent(t *testing.T) {
	ctx := context.Background()
	engine, _, store, ids := fixture(t)

	pass(t, store, 7, catalog.Subject{Kind: catalog.KindTest, ID: ids.lessonA}, 100)
	pass(t, store, 7, catalog.Subject{Kind: catalog.KindTest, ID: ids.lessonB}, 100)
	pass(t, store, 7, catalog.Subject{Kind: catalog.KindQuiz, ID: ids.topic}, 100)

	// Another student's progress is independent.
	topics, err := engine.EligibleTopics(ctx, 8)
	if err != nil {
		t.Fatalf("EligibleTopics: %v", err)
	}
	if len(topics) != 0 {
		t.Fatalf("student 8 inherited student 7 progress: %v", topics)
	}
}

func TestRecordPass(t *testing.T) {
	ctx := context.Background()
	engine, _, store, ids := fixture(t)

	if err := engine.RecordTestPass(ctx, 7, ids.lessonA, 100); err != nil {
		t.Fatalf("RecordTestPass: %v", err)
	}
	if err := engine.RecordQuizPass(ctx, 7, ids.topic, 75); err != nil {
		t.Fatalf("RecordQuizPass: %v", err)
	}

	best, ok, err := store.BestScore(ctx, 7, catalog.Subject{Kind: catalog.KindQuiz, ID: ids.topic})
	if err != nil {
		t.Fatalf("BestScore: %v", err)
	}
	if !ok || best != 75 {
		t.Fatalf("BestScore = %d, %v; want 75, true", best, ok)
	}
}

func TestRecordPass_UnknownSubjectStillRecorded(t *testing.T) {
	ctx := context.Background()
	engine, _, store, _ := fixture(t)

	err := engine.RecordTestPass(ctx, 7, 999, 100)
	if !errors.Is(err, ErrUnknownSubject) {
		t.Fatalf("error = %v; want ErrUnknownSubject", err)
	}

	best, ok, err := store.BestScore(ctx, 7, catalog.Subject{Kind: catalog.KindTest, ID: 999})
	if err != nil {
		t.Fatalf("BestScore: %v", err)
	}
	if !ok || best != 100 {
		t.Fatalf("record not kept: best=%d ok=%v", best, ok)
	}
}
