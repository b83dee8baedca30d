package assess

import (
	"context"
	"sort"
	"sync"

	"github.com/learnloop/learnloop-lms/internal/course"
)

// AttemptStore is the authoritative attempt history. Append must be an
// atomic single-row insert at the storage layer — implementations must never
// realize it as a read-modify-write of a larger aggregate, or concurrent
// submissions against the same course would race.
type AttemptStore interface {
	Append(ctx context.Context, a Attempt) error
	// Has reports whether the user has at least one attempt against the
	// given assessment path. Gating resolution for mcq entry requirements
	// rides on this.
	Has(ctx context.Context, courseID, lessonID string, kind course.AssessmentKind, userID string) (bool, error)
	ListForUser(ctx context.Context, courseID, lessonID, assessmentID, userID string) ([]Attempt, error)
	// ListGraded returns training and exam attempts (entry attempts are
	// never mirrored to reporting). Empty courseID means all courses.
	ListGraded(ctx context.Context, courseID string) ([]Attempt, error)
	// Clear removes all of a user's attempts for one assessment and returns
	// how many were removed. Clearing an empty history is not an error.
	Clear(ctx context.Context, courseID, lessonID, assessmentID, userID string) (int64, error)
}

type memoryAttempts struct {
	mu       sync.RWMutex
	attempts []Attempt
}

func NewMemoryAttempts() AttemptStore {
	return &memoryAttempts{}
}

func (m *memoryAttempts) Append(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, a)
	return nil
}

func (m *memoryAttempts) Has(_ context.Context, courseID, lessonID string, kind course.AssessmentKind, userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.attempts {
		a := &m.attempts[i]
		if a.CourseID == courseID && a.LessonID == lessonID && a.Kind == kind && a.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryAttempts) ListForUser(_ context.Context, courseID, lessonID, assessmentID, userID string) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Attempt
	for _, a := range m.attempts {
		if a.CourseID == courseID && a.LessonID == lessonID && a.AssessmentID == assessmentID && a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TakenAt.Before(out[j].TakenAt) })
	return out, nil
}

func (m *memoryAttempts) ListGraded(_ context.Context, courseID string) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Attempt
	for _, a := range m.attempts {
		if a.Kind == course.KindEntry {
			continue
		}
		if courseID != "" && a.CourseID != courseID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memoryAttempts) Clear(_ context.Context, courseID, lessonID, assessmentID, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.attempts[:0]
	var removed int64
	for _, a := range m.attempts {
		if a.CourseID == courseID && a.LessonID == lessonID && a.AssessmentID == assessmentID && a.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	m.attempts = kept
	return removed, nil
}
