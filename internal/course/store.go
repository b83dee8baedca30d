package course

import (
	"context"
	"sync"
)

type Summary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Units   int    `json:"units"`
	Lessons int    `json:"lessons"`
}

// Store is the catalog of course aggregates. Structure (units, lessons,
// assessments, questions) is written only by authoring operations; learner
// traffic is read-only here.
type Store interface {
	Put(ctx context.Context, c Course) error
	Get(ctx context.Context, id string) (Course, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
}

type memoryStore struct {
	mu      sync.RWMutex
	courses map[string]Course
}

// NewMemoryStore backs tests and offline demos.
func NewMemoryStore() Store {
	return &memoryStore{courses: map[string]Course{}}
}

func (m *memoryStore) Put(_ context.Context, c Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[c.ID] = c
	return nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courses[id]
	if !ok {
		return Course{}, notFound("course", id)
	}
	return c, nil
}

func (m *memoryStore) List(_ context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Summary, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, summarize(c))
	}
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[id]; !ok {
		return notFound("course", id)
	}
	delete(m.courses, id)
	return nil
}

func summarize(c Course) Summary {
	n := len(c.Lessons)
	for i := range c.Units {
		n += len(c.Units[i].Lessons)
	}
	return Summary{ID: c.ID, Title: c.Title, Units: len(c.Units), Lessons: n}
}
