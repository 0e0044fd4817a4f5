package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps session state and payload in two tables keyed by the
// conversation key, so a redeploy mid-flow leaves the session intact. The
// payload merge happens server-side in a single upsert, which makes it
// atomic per key.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed session store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) GetState(ctx context.Context, key Key) (State, error) {
	var state string
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM bot_states WHERE key = $1`,
		key.String(),
	).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return StateIdle, nil
	}
	if err != nil {
		return StateIdle, fmt.Errorf("get state: %w", err)
	}
	return State(state), nil
}

func (s *PostgresStore) SetState(ctx context.Context, key Key, state State) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO bot_states (key, state)
		 VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET state = EXCLUDED.state`,
		key.String(), string(state),
	)
	if err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPayload(ctx context.Context, key Key) (Payload, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM bot_data WHERE key = $1`,
		key.String(),
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payload{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payload: %w", err)
	}
	return decodePayload(raw)
}

func (s *PostgresStore) MergePayload(ctx context.Context, key Key, partial Payload) (Payload, error) {
	data, err := json.Marshal(partial)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	// jsonb || is a shallow merge with right-hand precedence, exactly the
	// contract MergePayload promises.
	var raw []byte
	err = s.pool.QueryRow(ctx,
		`INSERT INTO bot_data (key, payload)
		 VALUES ($1, $2::jsonb)
		 ON CONFLICT (key) DO UPDATE SET payload = bot_data.payload || EXCLUDED.payload
		 RETURNING payload`,
		key.String(), string(data),
	).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("merge payload: %w", err)
	}
	return decodePayload(raw)
}

func (s *PostgresStore) Clear(ctx context.Context, key Key) error {
	// One statement, one transaction: state and payload go away together,
	// so a failure cannot leave an orphaned payload for the next flow to
	// merge into.
	_, err := s.pool.Exec(ctx,
		`WITH state_gone AS (
		     DELETE FROM bot_states WHERE key = $1
		 )
		 DELETE FROM bot_data WHERE key = $1`,
		key.String(),
	)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func decodePayload(raw []byte) (Payload, error) {
	if len(raw) == 0 {
		return Payload{}, nil
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if p == nil {
		p = Payload{}
	}
	return p, nil
}
