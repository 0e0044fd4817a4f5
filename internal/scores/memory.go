package scores

import (
	"context"
	"fmt"
	"sync"

	"github.com/osvitacode/studybot/internal/catalog"
)

// TopicStructure is the slice of the catalog TestStandings needs: which
// lessons a topic has and which of them carry a test.
type TopicStructure interface {
	LessonsOfTopic(ctx context.Context, topicID int) ([]catalog.Lesson, error)
	HasQuestionSet(ctx context.Context, subject catalog.Subject) (bool, error)
}

// Memory is an in-memory score store for tests.
type Memory struct {
	mu        sync.RWMutex
	records   []Record
	structure TopicStructure
}

// NewMemory creates an in-memory score store that resolves topic structure
// through the given catalog.
func NewMemory(structure TopicStructure) *Memory {
	return &Memory{structure: structure}
}

func (s *Memory) Append(_ context.Context, rec Record) error {
	if rec.Score < 0 || rec.Score > 100 {
		return fmt.Errorf("score %d out of range [0,100]", rec.Score)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *Memory) TestStandings(ctx context.Context, studentID int64, topicID int) ([]LessonStanding, error) {
	lessons, err := s.structure.LessonsOfTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}

	var out []LessonStanding
	for _, lesson := range lessons {
		hasTest, err := s.structure.HasQuestionSet(ctx, catalog.Subject{Kind: catalog.KindTest, ID: lesson.ID})
		if err != nil {
			return nil, err
		}
		if !hasTest {
			continue
		}

		best, attempted, err := s.BestScore(ctx, studentID, catalog.Subject{Kind: catalog.KindTest, ID: lesson.ID})
		if err != nil {
			return nil, err
		}
		out = append(out, LessonStanding{LessonID: lesson.ID, Best: best, Attempted: attempted})
	}
	return out, nil
}

func (s *Memory) HasQuizAttempt(_ context.Context, studentID int64, topicID int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.StudentID == studentID && rec.Subject.Kind == catalog.KindQuiz && rec.Subject.ID == topicID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Memory) BestScore(_ context.Context, studentID int64, subject catalog.Subject) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best := 0
	found := false
	for _, rec := range s.records {
		if rec.StudentID != studentID || rec.Subject != subject {
			continue
		}
		if !found || rec.Score > best {
			best = rec.Score
		}
		found = true
	}
	return best, found, nil
}

// Records returns a copy of the history, for tests.
func (s *Memory) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record(nil), s.records...)
}
