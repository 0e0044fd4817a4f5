package session_test

import (
	"testing"

	"github.com/osvitacode/studybot/internal/session"
)

func TestMemoryStore_AbsentKeyReadsIdle(t *testing.T) {
	store := session.NewMemoryStore()
	key := session.Key{ChatID: 1, UserID: 1}

	state, err := store.GetState(t.Context(), key)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state != session.StateIdle {
		t.Errorf("state = %q, want idle", state)
	}

	payload, err := store.GetPayload(t.Context(), key)
	if err != nil {
		t.Fatalf("GetPayload() error = %v", err)
	}
	if len(payload) != 0 {
		t.Errorf("payload = %v, want empty", payload)
	}
}

func TestMemoryStore_SetAndGetState(t *testing.T) {
	store := session.NewMemoryStore()
	key := session.Key{ChatID: 10, UserID: 10}

	if err := store.SetState(t.Context(), key, session.StateTestSession); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}

	state, _ := store.GetState(t.Context(), key)
	if state != session.StateTestSession {
		t.Errorf("state = %q, want %q", state, session.StateTestSession)
	}
}

func TestMemoryStore_MergePayload_ShallowOverwrite(t *testing.T) {
	store := session.NewMemoryStore()
	key := session.Key{ChatID: 2, UserID: 2}

	_, err := store.MergePayload(t.Context(), key, session.Payload{"a": 1, "b": "keep"})
	if err != nil {
		t.Fatalf("MergePayload() error = %v", err)
	}

	merged, err := store.MergePayload(t.Context(), key, session.Payload{"a": 2, "c": 3})
	if err != nil {
		t.Fatalf("MergePayload() error = %v", err)
	}

	if a, _ := merged.Int("a"); a != 2 {
		t.Errorf("a = %d, want 2 (overwritten)", a)
	}
	if b, _ := merged.String("b"); b != "keep" {
		t.Errorf("b = %q, want keep (untouched)", b)
	}
	if c, _ := merged.Int("c"); c != 3 {
		t.Errorf("c = %d, want 3 (added)", c)
	}
}

func TestMemoryStore_ClearIsIdempotent(t *testing.T) {
	store := session.NewMemoryStore()
	key := session.Key{ChatID: 3, UserID: 3}

	_ = store.SetState(t.Context(), key, session.StateQuizSession)
	_, _ = store.MergePayload(t.Context(), key, session.Payload{"x": 1})

	for i := 0; i < 2; i++ {
		if err := store.Clear(t.Context(), key); err != nil {
			t.Fatalf("Clear() #%d error = %v", i+1, err)
		}
	}

	state, _ := store.GetState(t.Context(), key)
	if state != session.StateIdle {
		t.Errorf("state after clear = %q, want idle", state)
	}
	payload, _ := store.GetPayload(t.Context(), key)
	if len(payload) != 0 {
		t.Errorf("payload after clear = %v, want empty", payload)
	}
}

func TestMemoryStore_KeysAreIsolated(t *testing.T) {
	store := session.NewMemoryStore()
	a := session.Key{ChatID: 1, UserID: 1}
	b := session.Key{ChatID: 1, UserID: 2}

	_ = store.SetState(t.Context(), a, session.StateTestSession)
	_, _ = store.MergePayload(t.Context(), a, session.Payload{"subject_id": 7})

	state, _ := store.GetState(t.Context(), b)
	if state != session.StateIdle {
		t.Errorf("key b state = %q, want idle", state)
	}

	_ = store.Clear(t.Context(), b)
	state, _ = store.GetState(t.Context(), a)
	if state != session.StateTestSession {
		t.Errorf("key a state = %q after clearing b, want %q", state, session.StateTestSession)
	}
}

func TestPayload_IntToleratesJSONNumbers(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want int
		ok   bool
	}{
		{"int", 5, 5, true},
		{"int64", int64(6), 6, true},
		{"float64", float64(7), 7, true},
		{"string", "8", 0, false},
		{"missing", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := session.Payload{}
			if tt.val != nil {
				p["k"] = tt.val
			}
			got, ok := p.Int("k")
			if got != tt.want || ok != tt.ok {
				t.Errorf("Int() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}
