package review

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Store persists task submissions. Latest must order by submission time so
// that a fresh pending row supersedes an older failed one.
type Store interface {
	Insert(ctx context.Context, s TaskSubmission) error
	Update(ctx context.Context, s TaskSubmission) error
	Latest(ctx context.Context, courseID, lessonID, userID string) (TaskSubmission, error)
	ListByStatus(ctx context.Context, st Status) ([]TaskSubmission, error)
	// History returns every submission for the pair, oldest first. Audit
	// surface: nothing is ever deleted here.
	History(ctx context.Context, courseID, lessonID, userID string) ([]TaskSubmission, error)
}

type memoryStore struct {
	mu   sync.RWMutex
	subs []TaskSubmission
}

func NewMemoryStore() Store {
	return &memoryStore{}
}

func (m *memoryStore) Insert(_ context.Context, s TaskSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, s)
	return nil
}

func (m *memoryStore) Update(_ context.Context, s TaskSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.subs {
		if m.subs[i].ID == s.ID {
			m.subs[i] = s
			return nil
		}
	}
	return fmt.Errorf("%w: submission %s not found", ErrPrecondition, s.ID)
}

func (m *memoryStore) Latest(_ context.Context, courseID, lessonID, userID string) (TaskSubmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *TaskSubmission
	for i := range m.subs {
		s := &m.subs[i]
		if s.CourseID != courseID || s.LessonID != lessonID || s.UserID != userID {
			continue
		}
		if latest == nil || s.SubmittedAt.After(latest.SubmittedAt) {
			latest = s
		}
	}
	if latest == nil {
		return TaskSubmission{}, fmt.Errorf("%w: no submission for user %s", ErrPrecondition, userID)
	}
	return *latest, nil
}

func (m *memoryStore) ListByStatus(_ context.Context, st Status) ([]TaskSubmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []TaskSubmission
	for _, s := range m.subs {
		if s.Status == st {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (m *memoryStore) History(_ context.Context, courseID, lessonID, userID string) ([]TaskSubmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []TaskSubmission
	for _, s := range m.subs {
		if s.CourseID == courseID && s.LessonID == lessonID && s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}
