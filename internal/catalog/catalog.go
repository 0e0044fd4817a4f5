// Package catalog holds the curriculum content: classes, topics, lessons,
// lesson materials, and the question sets behind lesson tests and topic
// quizzes. Question ordering within a subject is a fixed, stable sequence
// by index.
package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that the requested entity does not exist. Callers
// distinguish it from storage faults with errors.Is.
var ErrNotFound = errors.New("not found")

// Student is a registered learner.
type Student struct {
	ID       int64
	Name     string
	Username string
}

// Topic groups lessons within one school class and may own a quiz.
type Topic struct {
	ID          int
	Title       string
	Description string
	Class       int
}

// Lesson belongs to a topic and may own a test.
type Lesson struct {
	ID          int
	Title       string
	Description string
	TopicID     int
}

// Material is a media reference attached to a lesson. FileID is the
// messaging platform's file handle; Type is the platform media kind
// (document, photo, audio, video).
type Material struct {
	ID       int
	LessonID int
	FileID   string
	Type     string
}

// SubjectKind distinguishes lesson tests from topic quizzes.
type SubjectKind string

const (
	KindTest SubjectKind = "test"
	KindQuiz SubjectKind = "quiz"
)

// Subject addresses one assessment: a test by its lesson id or a quiz by
// its topic id.
type Subject struct {
	Kind SubjectKind
	ID   int
}

func (s Subject) String() string {
	return fmt.Sprintf("%s/%d", s.Kind, s.ID)
}
