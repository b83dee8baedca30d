package syncx

import (
	"context"
	"database/sql"
	"sync"
	"time"
)

// Event types appended by the engine. AttemptSubmitted is the canonical
// event for a graded submission; ResultWriteFailed marks a projection write
// that must be reconciled (by retry or by a reporting rebuild) rather than
// silently dropped.
const (
	EventAttemptSubmitted  = "AttemptSubmitted"
	EventResultWriteFailed = "ResultWriteFailed"
	EventTaskReviewed      = "TaskReviewed"
	EventAttemptsCleared   = "AttemptsCleared"
)

type Event struct {
	Offset    int64
	Type      string
	Key       string // natural key: attempt or submission ID
	DataJSON  string
	CreatedAt int64
}

// Log is an append-only record of engine events.
type Log interface {
	Append(ctx context.Context, e Event) error
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}

// MemoryLog collects events in memory for tests.
type MemoryLog struct {
	mu     sync.Mutex
	Events []Event
}

func NewMemoryLog() *MemoryLog { return &MemoryLog{} }

func (m *MemoryLog) Append(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.Offset = int64(len(m.Events) + 1)
	e.CreatedAt = time.Now().Unix()
	m.Events = append(m.Events, e)
	return nil
}

// ByType returns the logged events matching typ, for test assertions.
func (m *MemoryLog) ByType(typ string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.Events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
