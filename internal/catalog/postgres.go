package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osvitacode/studybot/internal/questionset"
)

// Postgres is the PostgreSQL-backed catalog. Question sets are stored as
// one jsonb document per subject; tests are unique per lesson and quizzes
// unique per topic.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a PostgreSQL-backed catalog.
func NewPostgres(pool *pgxpool.Pool) (*Postgres, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &Postgres{pool: pool}, nil
}

func (c *Postgres) AddStudent(ctx context.Context, s Student) error {
	_, err := c.pool.Exec(ctx,
		`INSERT INTO students (id, name, username)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		s.ID, s.Name, s.Username,
	)
	if err != nil {
		return fmt.Errorf("add student: %w", err)
	}
	return nil
}

func (c *Postgres) Student(ctx context.Context, id int64) (Student, error) {
	var s Student
	err := c.pool.QueryRow(ctx,
		`SELECT id, name, username FROM students WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Username)
	if errors.Is(err, pgx.ErrNoRows) {
		return Student{}, fmt.Errorf("student %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Student{}, fmt.Errorf("get student: %w", err)
	}
	return s, nil
}

func (c *Postgres) AddTopic(ctx context.Context, title, description string, class int) (int, error) {
	var id int
	err := c.pool.QueryRow(ctx,
		`INSERT INTO topics (title, description, class)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		title, description, class,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("add topic: %w", err)
	}
	return id, nil
}

func (c *Postgres) DeleteTopic(ctx context.Context, id int) error {
	if _, err := c.pool.Exec(ctx, `DELETE FROM topics WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	return nil
}

func (c *Postgres) Topic(ctx context.Context, id int) (Topic, error) {
	var t Topic
	err := c.pool.QueryRow(ctx,
		`SELECT id, title, description, class FROM topics WHERE id = $1`, id,
	).Scan(&t.ID, &t.Title, &t.Description, &t.Class)
	if errors.Is(err, pgx.ErrNoRows) {
		return Topic{}, fmt.Errorf("topic %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Topic{}, fmt.Errorf("get topic: %w", err)
	}
	return t, nil
}

func (c *Postgres) TopicsByClass(ctx context.Context, class int) ([]Topic, error) {
	return c.queryTopics(ctx,
		`SELECT id, title, description, class FROM topics WHERE class = $1`, class)
}

func (c *Postgres) TopicsWithQuiz(ctx context.Context) ([]Topic, error) {
	return c.queryTopics(ctx,
		`SELECT t.id, t.title, t.description, t.class
		 FROM topics t
		 JOIN quizzes q ON q.topic_id = t.id`)
}

func (c *Postgres) queryTopics(ctx context.Context, query string, args ...any) ([]Topic, error) {
	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	var out []Topic
	for rows.Next() {
		var t Topic
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Class); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}
	return out, nil
}

func (c *Postgres) AddLesson(ctx context.Context, title, description string, topicID int) (int, error) {
	var id int
	err := c.pool.QueryRow(ctx,
		`INSERT INTO lessons (title, description, topic_id)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		title, description, topicID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("add lesson: %w", err)
	}
	return id, nil
}

func (c *Postgres) DeleteLesson(ctx context.Context, id int) error {
	if _, err := c.pool.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	return nil
}

func (c *Postgres) Lesson(ctx context.Context, id int) (Lesson, error) {
	var l Lesson
	err := c.pool.QueryRow(ctx,
		`SELECT id, title, description, topic_id FROM lessons WHERE id = $1`, id,
	).Scan(&l.ID, &l.Title, &l.Description, &l.TopicID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lesson{}, fmt.Errorf("lesson %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Lesson{}, fmt.Errorf("get lesson: %w", err)
	}
	return l, nil
}

func (c *Postgres) LessonsOfTopic(ctx context.Context, topicID int) ([]Lesson, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id, title, description, topic_id FROM lessons WHERE topic_id = $1`,
		topicID,
	)
	if err != nil {
		return nil, fmt.Errorf("query lessons: %w", err)
	}
	defer rows.Close()

	var out []Lesson
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.Title, &l.Description, &l.TopicID); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lessons: %w", err)
	}
	return out, nil
}

func (c *Postgres) AddMaterial(ctx context.Context, lessonID int, fileID, fileType string) error {
	_, err := c.pool.Exec(ctx,
		`INSERT INTO materials (lesson_id, file_id, type) VALUES ($1, $2, $3)`,
		lessonID, fileID, fileType,
	)
	if err != nil {
		return fmt.Errorf("add material: %w", err)
	}
	return nil
}

func (c *Postgres) Materials(ctx context.Context, lessonID int) ([]Material, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id, lesson_id, file_id, type FROM materials WHERE lesson_id = $1`,
		lessonID,
	)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	var out []Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.LessonID, &m.FileID, &m.Type); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}
	return out, nil
}

func (c *Postgres) DeleteMaterials(ctx context.Context, lessonID int) error {
	if _, err := c.pool.Exec(ctx,
		`DELETE FROM materials WHERE lesson_id = $1`, lessonID,
	); err != nil {
		return fmt.Errorf("delete materials: %w", err)
	}
	return nil
}

func (c *Postgres) PutQuestionSet(ctx context.Context, subject Subject, set questionset.Set) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal question set: %w", err)
	}

	var query string
	switch subject.Kind {
	case KindTest:
		query = `INSERT INTO tests (lesson_id, questions)
		         VALUES ($1, $2::jsonb)
		         ON CONFLICT (lesson_id) DO UPDATE SET questions = EXCLUDED.questions`
	case KindQuiz:
		query = `INSERT INTO quizzes (topic_id, questions)
		         VALUES ($1, $2::jsonb)
		         ON CONFLICT (topic_id) DO UPDATE SET questions = EXCLUDED.questions`
	default:
		return fmt.Errorf("unknown subject kind %q", subject.Kind)
	}

	if _, err := c.pool.Exec(ctx, query, subject.ID, string(data)); err != nil {
		return fmt.Errorf("put question set %s: %w", subject, err)
	}
	return nil
}

func (c *Postgres) QuestionSet(ctx context.Context, subject Subject) (questionset.Set, error) {
	query, err := questionSetQuery(subject)
	if err != nil {
		return questionset.Set{}, err
	}

	var raw []byte
	err = c.pool.QueryRow(ctx, query, subject.ID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return questionset.Set{}, fmt.Errorf("subject %s: %w", subject, ErrNotFound)
	}
	if err != nil {
		return questionset.Set{}, fmt.Errorf("get question set %s: %w", subject, err)
	}

	var set questionset.Set
	if err := json.Unmarshal(raw, &set); err != nil {
		return questionset.Set{}, fmt.Errorf("decode question set %s: %w", subject, err)
	}
	return set, nil
}

func (c *Postgres) HasQuestionSet(ctx context.Context, subject Subject) (bool, error) {
	var table string
	switch subject.Kind {
	case KindTest:
		table = `SELECT EXISTS (SELECT 1 FROM tests WHERE lesson_id = $1)`
	case KindQuiz:
		table = `SELECT EXISTS (SELECT 1 FROM quizzes WHERE topic_id = $1)`
	default:
		return false, fmt.Errorf("unknown subject kind %q", subject.Kind)
	}

	var exists bool
	if err := c.pool.QueryRow(ctx, table, subject.ID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check question set %s: %w", subject, err)
	}
	return exists, nil
}

func (c *Postgres) QuestionCount(ctx context.Context, subject Subject) (int, error) {
	var query string
	switch subject.Kind {
	case KindTest:
		query = `SELECT jsonb_array_length(questions->'questions') FROM tests WHERE lesson_id = $1`
	case KindQuiz:
		query = `SELECT jsonb_array_length(questions->'questions') FROM quizzes WHERE topic_id = $1`
	default:
		return 0, fmt.Errorf("unknown subject kind %q", subject.Kind)
	}

	var count int
	err := c.pool.QueryRow(ctx, query, subject.ID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("subject %s: %w", subject, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("count questions %s: %w", subject, err)
	}
	return count, nil
}

func (c *Postgres) Question(ctx context.Context, subject Subject, index int) (questionset.Question, error) {
	var query string
	switch subject.Kind {
	case KindTest:
		query = `SELECT questions->'questions'->$2::int FROM tests WHERE lesson_id = $1`
	case KindQuiz:
		query = `SELECT questions->'questions'->$2::int FROM quizzes WHERE topic_id = $1`
	default:
		return questionset.Question{}, fmt.Errorf("unknown subject kind %q", subject.Kind)
	}

	var raw []byte
	err := c.pool.QueryRow(ctx, query, subject.ID, index).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return questionset.Question{}, fmt.Errorf("subject %s: %w", subject, ErrNotFound)
	}
	if err != nil {
		return questionset.Question{}, fmt.Errorf("get question %s[%d]: %w", subject, index, err)
	}
	// A null jsonb element means the index is past the end of the sequence.
	if len(raw) == 0 || string(raw) == "null" {
		return questionset.Question{}, fmt.Errorf("subject %s question %d: %w", subject, index, ErrNotFound)
	}

	var q questionset.Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return questionset.Question{}, fmt.Errorf("decode question %s[%d]: %w", subject, index, err)
	}
	return q, nil
}

func questionSetQuery(subject Subject) (string, error) {
	switch subject.Kind {
	case KindTest:
		return `SELECT questions FROM tests WHERE lesson_id = $1`, nil
	case KindQuiz:
		return `SELECT questions FROM quizzes WHERE topic_id = $1`, nil
	default:
		return "", fmt.Errorf("unknown subject kind %q", subject.Kind)
	}
}
