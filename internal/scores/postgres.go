package scores

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osvitacode/studybot/internal/catalog"
)

// Postgres is the PostgreSQL-backed score store. student_scores has no
// foreign keys into tests or quizzes: deleting a subject definition never
// erases the history recorded against it.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a PostgreSQL-backed score store.
func NewPostgres(pool *pgxpool.Pool) (*Postgres, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &Postgres{pool: pool}, nil
}

func (s *Postgres) Append(ctx context.Context, rec Record) error {
	if rec.Score < 0 || rec.Score > 100 {
		return fmt.Errorf("score %d out of range [0,100]", rec.Score)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO student_scores (student_id, subject_kind, subject_id, score, completed_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.StudentID, string(rec.Subject.Kind), rec.Subject.ID, rec.Score, rec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("append score: %w", err)
	}
	return nil
}

// TestStandings runs as one query so a single eligibility check sees one
// snapshot of the history.
func (s *Postgres) TestStandings(ctx context.Context, studentID int64, topicID int) ([]LessonStanding, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT l.id, MAX(sc.score)
		 FROM lessons l
		 JOIN tests t ON t.lesson_id = l.id
		 LEFT JOIN student_scores sc
		   ON sc.subject_kind = 'test' AND sc.subject_id = l.id AND sc.student_id = $1
		 WHERE l.topic_id = $2
		 GROUP BY l.id`,
		studentID, topicID,
	)
	if err != nil {
		return nil, fmt.Errorf("query test standings: %w", err)
	}
	defer rows.Close()

	var out []LessonStanding
	for rows.Next() {
		var st LessonStanding
		var best *int
		if err := rows.Scan(&st.LessonID, &best); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		if best != nil {
			st.Best = *best
			st.Attempted = true
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate standings: %w", err)
	}
	return out, nil
}

func (s *Postgres) HasQuizAttempt(ctx context.Context, studentID int64, topicID int) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM student_scores
		   WHERE student_id = $1 AND subject_kind = 'quiz' AND subject_id = $2
		 )`,
		studentID, topicID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check quiz attempt: %w", err)
	}
	return exists, nil
}

func (s *Postgres) BestScore(ctx context.Context, studentID int64, subject catalog.Subject) (int, bool, error) {
	var best *int
	err := s.pool.QueryRow(ctx,
		`SELECT MAX(score) FROM student_scores
		 WHERE student_id = $1 AND subject_kind = $2 AND subject_id = $3`,
		studentID, string(subject.Kind), subject.ID,
	).Scan(&best)
	if err != nil {
		return 0, false, fmt.Errorf("best score: %w", err)
	}
	if best == nil {
		return 0, false, nil
	}
	return *best, true, nil
}
