// Package assessment runs a single-choice question session over the durable
// session store. Questions are asked strictly in order, one at a time; the
// only state carried between answers lives in the session payload, so a
// process restart mid-assessment loses nothing.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/osvitacode/studybot/internal/catalog"
	"github.com/osvitacode/studybot/internal/eligibility"
	"github.com/osvitacode/studybot/internal/questionset"
	"github.com/osvitacode/studybot/internal/session"
)

// Catalog supplies questions for a subject.
type Catalog interface {
	QuestionCount(ctx context.Context, subject catalog.Subject) (int, error)
	Question(ctx context.Context, subject catalog.Subject, index int) (questionset.Question, error)
}

// Recorder persists passing scores and answers the quiz-gating question.
type Recorder interface {
	RecordTestPass(ctx context.Context, studentID int64, lessonID, score int) error
	RecordQuizPass(ctx context.Context, studentID int64, topicID, score int) error
	IsQuizUnlocked(ctx context.Context, studentID int64, topicID int) (bool, error)
}

// Notifier delivers questions and outcomes to the student. AskQuestion gets
// the previous question's message id (zero on the first question) so the
// channel can edit in place instead of flooding the chat; it returns the id
// of the message now showing the question.
type Notifier interface {
	AskQuestion(ctx context.Context, key session.Key, messageID int64, ordinal, total int, q questionset.Question) (int64, error)
	AnnounceResult(ctx context.Context, key session.Key, res Result) error
	AnnounceQuizUnlocked(ctx context.Context, key session.Key, topicID int) error
}

// Result is the outcome of a finished assessment.
type Result struct {
	Subject catalog.Subject
	TopicID int
	Correct int
	Total   int
	Score   int
	Passed  bool
}

// Engine drives assessment sessions.
type Engine struct {
	sessions  session.Store
	catalog   Catalog
	recorder  Recorder
	notifier  Notifier
	threshold int
}

func New(sessions session.Store, cat Catalog, rec Recorder, n Notifier, threshold int) *Engine {
	return &Engine{sessions: sessions, catalog: cat, recorder: rec, notifier: n, threshold: threshold}
}

// Start begins an assessment for the subject and asks its first question.
// Any previous session under the key is discarded.
func (e *Engine) Start(ctx context.Context, key session.Key, subject catalog.Subject, topicID int) error {
	total, err := e.catalog.QuestionCount(ctx, subject)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return fmt.Errorf("subject %s: %w", subject, ErrEmptySubject)
		}
		return fmt.Errorf("question count for %s: %w", subject, err)
	}
	if total == 0 {
		return fmt.Errorf("subject %s: %w", subject, ErrEmptySubject)
	}

	first, err := e.catalog.Question(ctx, subject, 0)
	if err != nil {
		return &QuestionFetchError{Subject: subject, Index: 0, Err: err}
	}

	if err := e.sessions.Clear(ctx, key); err != nil {
		return fmt.Errorf("clear previous session: %w", err)
	}

	msgID, err := e.notifier.AskQuestion(ctx, key, 0, 1, total, first)
	if err != nil {
		return fmt.Errorf("ask first question: %w", err)
	}

	state := session.StateTestSession
	if subject.Kind == catalog.KindQuiz {
		state = session.StateQuizSession
	}
	if err := e.sessions.SetState(ctx, key, state); err != nil {
		return fmt.Errorf("set session state: %w", err)
	}

	p := progress{
		Subject:       subject,
		TopicID:       topicID,
		Total:         total,
		Index:         0,
		Correct:       0,
		PendingAnswer: first.CorrectAnswer,
		MessageID:     msgID,
	}
	if _, err := e.sessions.MergePayload(ctx, key, p.payload()); err != nil {
		return fmt.Errorf("store progress: %w", err)
	}
	return nil
}

// Submit records the chosen option for the current question and either asks
// the next question or finalizes the assessment. The returned Result is nil
// while questions remain. A QuestionFetchError leaves the session untouched
// so the same answer can be resubmitted.
func (e *Engine) Submit(ctx context.Context, key session.Key, chosen int) (*Result, error) {
	p, err := e.activeProgress(ctx, key)
	if err != nil {
		return nil, err
	}

	if chosen == p.PendingAnswer {
		p.Correct++
	}
	p.Index++

	if p.Index < p.Total {
		next, err := e.catalog.Question(ctx, p.Subject, p.Index)
		if err != nil {
			return nil, &QuestionFetchError{Subject: p.Subject, Index: p.Index, Err: err}
		}
		// Progress is persisted before the question goes out: the stored
		// pending answer must never lag behind a question the student can
		// already see.
		p.PendingAnswer = next.CorrectAnswer
		if _, err := e.sessions.MergePayload(ctx, key, p.payload()); err != nil {
			return nil, fmt.Errorf("store progress: %w", err)
		}
		msgID, err := e.notifier.AskQuestion(ctx, key, p.MessageID, p.Index+1, p.Total, next)
		if err != nil {
			return nil, fmt.Errorf("ask question %d: %w", p.Index, err)
		}
		if msgID != p.MessageID {
			// A stale message id only costs an extra message next time.
			if _, err := e.sessions.MergePayload(ctx, key, session.Payload{keyMessageID: msgID}); err != nil {
				slog.Warn("failed to store question message id", "error", err)
			}
		}
		return nil, nil
	}

	return e.finalize(ctx, key, p)
}

// Cancel abandons an assessment in progress. Nothing is recorded. The
// payload is deliberately not consulted: a session whose payload is missing
// or unreadable must still be cancellable, otherwise it traps the
// conversation in the answer state.
func (e *Engine) Cancel(ctx context.Context, key session.Key) error {
	state, err := e.sessions.GetState(ctx, key)
	if err != nil {
		return fmt.Errorf("get session state: %w", err)
	}
	if state != session.StateTestSession && state != session.StateQuizSession {
		return ErrNoActiveSession
	}
	if err := e.sessions.Clear(ctx, key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (e *Engine) activeProgress(ctx context.Context, key session.Key) (progress, error) {
	state, err := e.sessions.GetState(ctx, key)
	if err != nil {
		return progress{}, fmt.Errorf("get session state: %w", err)
	}
	if state != session.StateTestSession && state != session.StateQuizSession {
		return progress{}, ErrNoActiveSession
	}
	pl, err := e.sessions.GetPayload(ctx, key)
	if err != nil {
		return progress{}, fmt.Errorf("get session payload: %w", err)
	}
	p, err := decodeProgress(pl)
	if err != nil {
		return progress{}, fmt.Errorf("session %s: %w", key, err)
	}
	return p, nil
}

func (e *Engine) finalize(ctx context.Context, key session.Key, p progress) (*Result, error) {
	score := int(math.Round(float64(p.Correct) * 100 / float64(p.Total)))
	res := Result{
		Subject: p.Subject,
		TopicID: p.TopicID,
		Correct: p.Correct,
		Total:   p.Total,
		Score:   score,
		Passed:  score >= e.threshold,
	}

	// Record before clearing: if the write fails the session survives and
	// resubmitting the last answer recomputes the same result.
	if res.Passed {
		var err error
		switch p.Subject.Kind {
		case catalog.KindQuiz:
			err = e.recorder.RecordQuizPass(ctx, key.UserID, p.Subject.ID, score)
		default:
			err = e.recorder.RecordTestPass(ctx, key.UserID, p.Subject.ID, score)
		}
		if errors.Is(err, eligibility.ErrUnknownSubject) {
			slog.Warn("passed assessment for subject with no definition",
				"subject", p.Subject.String(),
				"student_id", key.UserID,
			)
		} else if err != nil {
			return nil, fmt.Errorf("record score: %w", err)
		}
	}

	if err := e.sessions.Clear(ctx, key); err != nil {
		return nil, fmt.Errorf("clear session: %w", err)
	}
	if err := e.notifier.AnnounceResult(ctx, key, res); err != nil {
		return &res, fmt.Errorf("announce result: %w", err)
	}

	if p.Subject.Kind == catalog.KindTest && res.Passed {
		unlocked, err := e.recorder.IsQuizUnlocked(ctx, key.UserID, p.TopicID)
		if err != nil {
			slog.Warn("quiz unlock check failed", "topic_id", p.TopicID, "error", err)
			return &res, nil
		}
		if unlocked {
			if err := e.notifier.AnnounceQuizUnlocked(ctx, key, p.TopicID); err != nil {
				return &res, fmt.Errorf("announce quiz unlocked: %w", err)
			}
		}
	}
	return &res, nil
}
