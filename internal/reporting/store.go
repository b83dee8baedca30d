package reporting

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Store is the reporting projection. Insert-only from the recorder's side;
// Delete exists solely for the rebuild maintenance path.
type Store interface {
	Insert(ctx context.Context, r Record) error
	// Delete drops records for one course, or all records when courseID is
	// empty. Returns the number removed.
	Delete(ctx context.Context, courseID string) (int64, error)
	GroupStats(ctx context.Context, courseID string) ([]GroupStats, error)
	List(ctx context.Context, opts ListOpts) (Page, error)
	TopActive(ctx context.Context, limit int) ([]UserActivity, error)
	TopPerformers(ctx context.Context, limit, minAttempts int) ([]UserPerformance, error)
}

type memoryStore struct {
	mu      sync.RWMutex
	records []Record
}

func NewMemoryStore() Store {
	return &memoryStore{}
}

func (m *memoryStore) Insert(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func (m *memoryStore) Delete(_ context.Context, courseID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if courseID == "" {
		n := int64(len(m.records))
		m.records = nil
		return n, nil
	}
	kept := m.records[:0]
	var removed int64
	for _, r := range m.records {
		if r.CourseID == courseID {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return removed, nil
}

func (m *memoryStore) GroupStats(_ context.Context, courseID string) ([]GroupStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	type key struct {
		course, lesson string
		typ            ExamType
	}
	buckets := map[key]*GroupStats{}
	var order []key
	for _, r := range m.records {
		if courseID != "" && r.CourseID != courseID {
			continue
		}
		k := key{r.CourseID, r.LessonID, r.ExamType}
		g, ok := buckets[k]
		if !ok {
			g = &GroupStats{
				CourseID:    r.CourseID,
				CourseTitle: r.CourseTitle,
				LessonID:    r.LessonID,
				LessonTitle: r.LessonTitle,
				ExamType:    r.ExamType,
			}
			buckets[k] = g
			order = append(order, k)
		}
		g.TotalAttempts++
		g.AverageScore += float64(r.Percentage)
		if r.Passed {
			g.PassedCount++
		} else {
			g.FailedCount++
		}
	}
	out := make([]GroupStats, 0, len(order))
	for _, k := range order {
		g := buckets[k]
		g.AverageScore /= float64(g.TotalAttempts)
		g.PassRate = float64(g.PassedCount) / float64(g.TotalAttempts)
		out = append(out, *g)
	}
	return out, nil
}

func (m *memoryStore) List(_ context.Context, opts ListOpts) (Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []Record
	needle := strings.ToLower(strings.TrimSpace(opts.Search))
	for _, r := range m.records {
		if opts.CourseID != "" && r.CourseID != opts.CourseID {
			continue
		}
		if opts.LessonID != "" && r.LessonID != opts.LessonID {
			continue
		}
		if opts.ExamType != "" && r.ExamType != opts.ExamType {
			continue
		}
		if opts.Passed != nil && r.Passed != *opts.Passed {
			continue
		}
		if needle != "" && !matchesSearch(r, needle) {
			continue
		}
		matched = append(matched, r)
	}
	sortRecords(matched, opts.Sort)

	total := len(matched)
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := opts.Offset
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return Page{Items: matched[offset:end], Total: total, Limit: limit, Offset: offset}, nil
}

func matchesSearch(r Record, needle string) bool {
	for _, h := range []string{r.UserName, r.UserEmail, r.UserPhone, r.CourseTitle, r.LessonTitle} {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

func sortRecords(rs []Record, spec string) {
	field, asc := parseSort(spec)
	sort.SliceStable(rs, func(i, j int) bool {
		var less bool
		switch field {
		case "score":
			less = rs[i].Score < rs[j].Score
		case "percentage":
			less = rs[i].Percentage < rs[j].Percentage
		default:
			less = rs[i].CompletedAt.Before(rs[j].CompletedAt)
		}
		if asc {
			return less
		}
		return !less
	})
}

// parseSort whitelists sortable fields; anything else falls back to
// completed_at desc.
func parseSort(spec string) (field string, asc bool) {
	parts := strings.Fields(strings.ToLower(spec))
	field = "completed_at"
	if len(parts) > 0 {
		switch parts[0] {
		case "score", "percentage", "completed_at":
			field = parts[0]
		}
	}
	asc = len(parts) > 1 && parts[1] == "asc"
	return field, asc
}

func (m *memoryStore) TopActive(_ context.Context, limit int) ([]UserActivity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	agg := map[string]*UserActivity{}
	var order []string
	for _, r := range m.records {
		a, ok := agg[r.UserID]
		if !ok {
			a = &UserActivity{UserID: r.UserID, UserName: r.UserName}
			agg[r.UserID] = a
			order = append(order, r.UserID)
		}
		a.Attempts++
		a.AverageScore += float64(r.Percentage)
	}
	out := make([]UserActivity, 0, len(order))
	for _, id := range order {
		a := agg[id]
		a.AverageScore /= float64(a.Attempts)
		out = append(out, *a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Attempts > out[j].Attempts })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) TopPerformers(_ context.Context, limit, minAttempts int) ([]UserPerformance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	type acc struct {
		perf   UserPerformance
		passed int
	}
	agg := map[string]*acc{}
	var order []string
	for _, r := range m.records {
		a, ok := agg[r.UserID]
		if !ok {
			a = &acc{perf: UserPerformance{UserID: r.UserID, UserName: r.UserName}}
			agg[r.UserID] = a
			order = append(order, r.UserID)
		}
		a.perf.Attempts++
		a.perf.AverageScore += float64(r.Percentage)
		if r.Passed {
			a.passed++
		}
	}
	var out []UserPerformance
	for _, id := range order {
		a := agg[id]
		if minAttempts > 0 && a.perf.Attempts < minAttempts {
			continue
		}
		a.perf.AverageScore /= float64(a.perf.Attempts)
		a.perf.PassRate = float64(a.passed) / float64(a.perf.Attempts)
		out = append(out, a.perf)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AverageScore > out[j].AverageScore })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
