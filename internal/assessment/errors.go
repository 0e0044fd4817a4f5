package assessment

import (
	"errors"
	"fmt"

	"github.com/osvitacode/studybot/internal/catalog"
)

// ErrNoActiveSession is returned when an answer or cancel arrives for a
// conversation that has no assessment in progress.
var ErrNoActiveSession = errors.New("no active assessment session")

// ErrEmptySubject is returned when starting an assessment whose question
// set is missing or has no questions.
var ErrEmptySubject = errors.New("subject has no questions")

// QuestionFetchError wraps a failure to load the next question. The session
// is left intact so the student can retry the same answer.
type QuestionFetchError struct {
	Subject catalog.Subject
	Index   int
	Err     error
}

func (e *QuestionFetchError) Error() string {
	return fmt.Sprintf("fetch question %d of %s: %v", e.Index, e.Subject, e.Err)
}

func (e *QuestionFetchError) Unwrap() error {
	return e.Err
}
