package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/osvitacode/studybot/internal/questionset"
)

// Memory is an in-memory catalog for tests and single-process development.
type Memory struct {
	mu         sync.RWMutex
	nextID     int
	students   map[int64]Student
	topics     map[int]Topic
	lessons    map[int]Lesson
	materials  map[int][]Material // by lesson id
	tests      map[int]questionset.Set
	quizzes    map[int]questionset.Set
	materialID int
}

// NewMemory creates an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{
		nextID:    1,
		students:  make(map[int64]Student),
		topics:    make(map[int]Topic),
		lessons:   make(map[int]Lesson),
		materials: make(map[int][]Material),
		tests:     make(map[int]questionset.Set),
		quizzes:   make(map[int]questionset.Set),
	}
}

func (m *Memory) AddStudent(_ context.Context, s Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[s.ID]; ok {
		return nil // first registration wins, like ON CONFLICT DO NOTHING
	}
	m.students[s.ID] = s
	return nil
}

func (m *Memory) Student(_ context.Context, id int64) (Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[id]
	if !ok {
		return Student{}, fmt.Errorf("student %d: %w", id, ErrNotFound)
	}
	return s, nil
}

func (m *Memory) AddTopic(_ context.Context, title, description string, class int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.topics[id] = Topic{ID: id, Title: title, Description: description, Class: class}
	return id, nil
}

func (m *Memory) DeleteTopic(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.topics, id)
	delete(m.quizzes, id)
	for lid, l := range m.lessons {
		if l.TopicID == id {
			delete(m.lessons, lid)
			delete(m.tests, lid)
			delete(m.materials, lid)
		}
	}
	return nil
}

func (m *Memory) Topic(_ context.Context, id int) (Topic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.topics[id]
	if !ok {
		return Topic{}, fmt.Errorf("topic %d: %w", id, ErrNotFound)
	}
	return t, nil
}

func (m *Memory) TopicsByClass(_ context.Context, class int) ([]Topic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Topic
	for _, t := range m.topics {
		if t.Class == class {
			out = append(out, t)
		}
	}
	return out, nil
}

// TopicsWithQuiz returns every topic that has a quiz defined.
func (m *Memory) TopicsWithQuiz(_ context.Context) ([]Topic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Topic
	for id := range m.quizzes {
		if t, ok := m.topics[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) AddLesson(_ context.Context, title, description string, topicID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.lessons[id] = Lesson{ID: id, Title: title, Description: description, TopicID: topicID}
	return id, nil
}

func (m *Memory) DeleteLesson(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lessons, id)
	delete(m.tests, id)
	delete(m.materials, id)
	return nil
}

func (m *Memory) Lesson(_ context.Context, id int) (Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lessons[id]
	if !ok {
		return Lesson{}, fmt.Errorf("lesson %d: %w", id, ErrNotFound)
	}
	return l, nil
}

func (m *Memory) LessonsOfTopic(_ context.Context, topicID int) ([]Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Lesson
	for _, l := range m.lessons {
		if l.TopicID == topicID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *Memory) AddMaterial(_ context.Context, lessonID int, fileID, fileType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.materialID++
	m.materials[lessonID] = append(m.materials[lessonID], Material{
		ID: m.materialID, LessonID: lessonID, FileID: fileID, Type: fileType,
	})
	return nil
}

func (m *Memory) Materials(_ context.Context, lessonID int) ([]Material, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Material(nil), m.materials[lessonID]...), nil
}

func (m *Memory) DeleteMaterials(_ context.Context, lessonID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.materials, lessonID)
	return nil
}

// PutQuestionSet stores or replaces the question set behind a subject.
func (m *Memory) PutQuestionSet(_ context.Context, subject Subject, set questionset.Set) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch subject.Kind {
	case KindTest:
		m.tests[subject.ID] = set
	case KindQuiz:
		m.quizzes[subject.ID] = set
	default:
		return fmt.Errorf("unknown subject kind %q", subject.Kind)
	}
	return nil
}

// QuestionSet returns the full question set behind a subject.
func (m *Memory) QuestionSet(_ context.Context, subject Subject) (questionset.Set, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.questionSetLocked(subject)
	if !ok {
		return questionset.Set{}, fmt.Errorf("subject %s: %w", subject, ErrNotFound)
	}
	return set, nil
}

// HasQuestionSet reports whether a subject has a question set defined.
func (m *Memory) HasQuestionSet(_ context.Context, subject Subject) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.questionSetLocked(subject)
	return ok, nil
}

// QuestionCount returns the length of a subject's question sequence.
func (m *Memory) QuestionCount(_ context.Context, subject Subject) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.questionSetLocked(subject)
	if !ok {
		return 0, fmt.Errorf("subject %s: %w", subject, ErrNotFound)
	}
	return set.Count(), nil
}

// Question returns the question at a zero-based index of a subject's
// sequence.
func (m *Memory) Question(_ context.Context, subject Subject, index int) (questionset.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.questionSetLocked(subject)
	if !ok {
		return questionset.Question{}, fmt.Errorf("subject %s: %w", subject, ErrNotFound)
	}
	q, ok := set.At(index)
	if !ok {
		return questionset.Question{}, fmt.Errorf("subject %s question %d: %w", subject, index, ErrNotFound)
	}
	return q, nil
}

func (m *Memory) questionSetLocked(subject Subject) (questionset.Set, bool) {
	switch subject.Kind {
	case KindTest:
		set, ok := m.tests[subject.ID]
		return set, ok
	case KindQuiz:
		set, ok := m.quizzes[subject.ID]
		return set, ok
	}
	return questionset.Set{}, false
}
