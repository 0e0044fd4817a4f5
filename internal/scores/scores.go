// Package scores keeps the append-only history of passing assessment
// results. Records are immutable once written; a student's standing on a
// subject is the maximum score across their records.
package scores

import (
	"context"
	"time"

	"github.com/osvitacode/studybot/internal/catalog"
)

// Record is one completed passing assessment.
type Record struct {
	StudentID   int64
	Subject     catalog.Subject
	Score       int
	CompletedAt time.Time
}

// LessonStanding is a student's best result on one lesson's test. Only
// lessons that have a test defined produce a standing; lessons without a
// test never gate anything.
type LessonStanding struct {
	LessonID  int
	Best      int
	Attempted bool
}

// Store persists score history. All reads reflect every append that
// completed before the call.
type Store interface {
	Append(ctx context.Context, rec Record) error
	// TestStandings returns one entry per lesson-with-test under the topic,
	// with the student's best score (Attempted false when no record exists).
	TestStandings(ctx context.Context, studentID int64, topicID int) ([]LessonStanding, error)
	HasQuizAttempt(ctx context.Context, studentID int64, topicID int) (bool, error)
	BestScore(ctx context.Context, studentID int64, subject catalog.Subject) (int, bool, error)
}
