// Package eligibility decides when a topic's quiz unlocks for a student and
// records completed assessment scores. The gating predicate is recomputed
// from current score history on every call; it is never cached, because a
// student can pass a previously-failed lesson test between checks.
package eligibility

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/osvitacode/studybot/internal/catalog"
	"github.com/osvitacode/studybot/internal/scores"
)

// ErrUnknownSubject reports a score recorded against a subject id that has
// no backing test or quiz definition. The record is still appended: a
// definition can be deleted independently of history already earned
// against it.
var ErrUnknownSubject = errors.New("unknown subject")

// Catalog is the curriculum slice the engine needs.
type Catalog interface {
	TopicsWithQuiz(ctx context.Context) ([]catalog.Topic, error)
	HasQuestionSet(ctx context.Context, subject catalog.Subject) (bool, error)
}

// Engine evaluates quiz gating and appends score records.
type Engine struct {
	catalog   Catalog
	scores    scores.Store
	threshold int
}

// New creates an eligibility engine with the given passing threshold.
func New(cat Catalog, store scores.Store, threshold int) *Engine {
	return &Engine{catalog: cat, scores: store, threshold: threshold}
}

// Threshold returns the minimum passing percentage.
func (e *Engine) Threshold() int {
	return e.threshold
}

// IsQuizUnlocked reports whether every lesson test under the topic has a
// passing record for the student. Lessons without a test are vacuously
// satisfied; a test never attempted is not.
func (e *Engine) IsQuizUnlocked(ctx context.Context, studentID int64, topicID int) (bool, error) {
	standings, err := e.scores.TestStandings(ctx, studentID, topicID)
	if err != nil {
		return false, fmt.Errorf("test standings for topic %d: %w", topicID, err)
	}
	for _, st := range standings {
		if !st.Attempted || st.Best < e.threshold {
			return false, nil
		}
	}
	return true, nil
}

// EligibleTopics returns every topic whose quiz the student can take: all
// lesson tests passed and no quiz attempt on record yet. One recorded quiz
// attempt, pass or fail, consumes the topic's eligibility for good.
// Ordering is unspecified; callers sort for display.
func (e *Engine) EligibleTopics(ctx context.Context, studentID int64) ([]catalog.Topic, error) {
	topics, err := e.catalog.TopicsWithQuiz(ctx)
	if err != nil {
		return nil, fmt.Errorf("topics with quiz: %w", err)
	}

	var out []catalog.Topic
	for _, topic := range topics {
		attempted, err := e.scores.HasQuizAttempt(ctx, studentID, topic.ID)
		if err != nil {
			return nil, fmt.Errorf("quiz attempt for topic %d: %w", topic.ID, err)
		}
		if attempted {
			continue
		}

		unlocked, err := e.IsQuizUnlocked(ctx, studentID, topic.ID)
		if err != nil {
			return nil, err
		}
		if unlocked {
			out = append(out, topic)
		}
	}
	return out, nil
}

// RecordTestPass appends a passing lesson-test score. If the lesson no
// longer has a test defined the record is kept anyway and ErrUnknownSubject
// is returned so the caller can log it.
func (e *Engine) RecordTestPass(ctx context.Context, studentID int64, lessonID, score int) error {
	return e.record(ctx, studentID, catalog.Subject{Kind: catalog.KindTest, ID: lessonID}, score)
}

// RecordQuizPass appends a passing topic-quiz score.
func (e *Engine) RecordQuizPass(ctx context.Context, studentID int64, topicID, score int) error {
	return e.record(ctx, studentID, catalog.Subject{Kind: catalog.KindQuiz, ID: topicID}, score)
}

func (e *Engine) record(ctx context.Context, studentID int64, subject catalog.Subject, score int) error {
	err := e.scores.Append(ctx, scores.Record{
		StudentID:   studentID,
		Subject:     subject,
		Score:       score,
		CompletedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("record %s score: %w", subject.Kind, err)
	}

	defined, err := e.catalog.HasQuestionSet(ctx, subject)
	if err != nil {
		return fmt.Errorf("check subject %s: %w", subject, err)
	}
	if !defined {
		slog.Warn("score recorded against missing subject definition",
			"subject", subject.String(),
			"student_id", studentID,
		)
		return fmt.Errorf("subject %s: %w", subject, ErrUnknownSubject)
	}
	return nil
}
