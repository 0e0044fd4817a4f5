package database

import (
	"context"
	"fmt"
)

// schema holds the full DDL. Statements are idempotent so Migrate can
// run on every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		id         BIGINT PRIMARY KEY,
		name       TEXT NOT NULL,
		username   TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS topics (
		id          SERIAL PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		class       INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS lessons (
		id          SERIAL PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		topic_id    INT NOT NULL REFERENCES topics(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS materials (
		id        SERIAL PRIMARY KEY,
		lesson_id INT NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
		file_id   TEXT NOT NULL,
		type      TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tests (
		lesson_id INT PRIMARY KEY REFERENCES lessons(id) ON DELETE CASCADE,
		questions JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS quizzes (
		topic_id  INT PRIMARY KEY REFERENCES topics(id) ON DELETE CASCADE,
		questions JSONB NOT NULL
	)`,
	// Scores reference subjects by kind and id on purpose: deleting a
	// topic or lesson must never erase a student's results.
	`CREATE TABLE IF NOT EXISTS student_scores (
		id           SERIAL PRIMARY KEY,
		student_id   BIGINT NOT NULL,
		subject_kind TEXT NOT NULL,
		subject_id   INT NOT NULL,
		score        INT NOT NULL,
		completed_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_student_scores_lookup
		ON student_scores (student_id, subject_kind, subject_id)`,
	`CREATE TABLE IF NOT EXISTS bot_states (
		key   TEXT PRIMARY KEY,
		state TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bot_data (
		key     TEXT PRIMARY KEY,
		payload JSONB NOT NULL DEFAULT '{}'::jsonb
	)`,
}

// Migrate applies the database schema.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
