// Package questionset defines the question-set document format used for
// lesson tests and topic quizzes, and the importers that accept it as JSON,
// YAML, or XLSX uploads.
package questionset

import (
	"encoding/json"
	"fmt"
)

// Question is a single-choice question. CorrectAnswer is a zero-based index
// into Options.
type Question struct {
	Text          string   `json:"question" yaml:"question"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer int      `json:"correct_answer" yaml:"correct_answer"`
}

// Set is an ordered, fixed sequence of questions.
type Set struct {
	Questions []Question `json:"questions" yaml:"questions"`
}

// Count returns the number of questions in the set.
func (s Set) Count() int {
	return len(s.Questions)
}

// At returns the question at the zero-based index.
func (s Set) At(index int) (Question, bool) {
	if index < 0 || index >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[index], true
}

// Validate checks structural soundness of the set.
func (s Set) Validate() error {
	if len(s.Questions) == 0 {
		return fmt.Errorf("question set is empty")
	}
	for i, q := range s.Questions {
		if q.Text == "" {
			return fmt.Errorf("question %d: text is empty", i+1)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("question %d: needs at least 2 options, got %d", i+1, len(q.Options))
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return fmt.Errorf("question %d: correct_answer %d out of range [0,%d)",
				i+1, q.CorrectAnswer, len(q.Options))
		}
	}
	return nil
}

// MarshalJSONDocument renders the set as an indented JSON document, the
// format admins download when exporting a test or quiz.
func (s Set) MarshalJSONDocument() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshal question set: %w", err)
	}
	return data, nil
}
