// Package session persists per-conversation flow state between inbound events.
// Each conversation key holds a small state tag plus a JSON-shaped payload;
// the two are stored independently so routing can dispatch on the tag without
// touching the payload.
package session

import (
	"context"
	"fmt"
)

// Key identifies one conversation's active session.
type Key struct {
	ChatID int64
	UserID int64
}

func (k Key) String() string {
	return fmt.Sprintf("%d:%d", k.ChatID, k.UserID)
}

// State is the closed set of flow states a session can be in. The empty
// string means idle: no flow in progress, payload unused.
type State string

const (
	StateIdle State = ""

	StateRegistrationName State = "registration:name"

	StateTestSession State = "test:answer"
	StateQuizSession State = "quiz:answer"

	StateSupportMessage State = "support:send"

	StateTopicTitle       State = "admin:topic:title"
	StateTopicDescription State = "admin:topic:description"
	StateTopicClass       State = "admin:topic:class"

	StateLessonTitle       State = "admin:lesson:title"
	StateLessonDescription State = "admin:lesson:description"

	StateTestUpload     State = "admin:test:upload"
	StateQuizUpload     State = "admin:quiz:upload"
	StateMaterialUpload State = "admin:materials:upload"
)

// Payload is the session's working data. Its keys are interpreted only by
// the handler bound to the current state.
type Payload map[string]any

// Int reads an integer payload field, tolerating the numeric types a JSON
// round trip can produce.
func (p Payload) Int(key string) (int, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// Int64 reads a 64-bit integer payload field.
func (p Payload) Int64(key string) (int64, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}

// String reads a string payload field.
func (p Payload) String(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok
}

// Store persists session state and payload per key. Absence is not an error:
// an unknown key reads as StateIdle with an empty payload. MergePayload is
// the only mutation primitive used mid-flow and must be atomic per key.
type Store interface {
	GetState(ctx context.Context, key Key) (State, error)
	SetState(ctx context.Context, key Key, state State) error
	GetPayload(ctx context.Context, key Key) (Payload, error)
	// MergePayload merges partial into the stored payload with shallow key
	// overwrite and returns the merged result.
	MergePayload(ctx context.Context, key Key, partial Payload) (Payload, error)
	// Clear removes state and payload for the key. Clearing an absent key
	// is a no-op.
	Clear(ctx context.Context, key Key) error
}
