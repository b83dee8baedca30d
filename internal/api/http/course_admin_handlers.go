package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/learnloop/learnloop-lms/internal/course"
	"github.com/learnloop/learnloop-lms/internal/rbac"
)

// Authoring surface. These handlers are the only writers of course
// structure; learner traffic never mutates the aggregate.

// POST /admin/courses {title}
func CreateCourseHandler(courses course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title string `json:"title"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
			http.Error(w, "title required", http.StatusBadRequest)
			return
		}
		now := time.Now()
		c := course.Course{
			ID:        uuid.NewString(),
			Title:     strings.TrimSpace(req.Title),
			CreatedBy: rbac.SubjectFromContext(r.Context()),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := courses.Put(r.Context(), c); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// PUT /admin/courses/{courseID}/structure {units, lessons}
// Replaces the course's units and direct lessons wholesale after
// validation. Missing IDs anywhere in the tree are assigned here.
func PutCourseStructureHandler(courses course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Units   []course.Unit   `json:"units"`
			Lessons []course.Lesson `json:"lessons"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		c, err := courses.Get(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeError(w, err)
			return
		}
		c.Units = req.Units
		c.Lessons = req.Lessons
		assignIDs(&c)
		if err := c.Validate(); err != nil {
			writeError(w, err)
			return
		}
		c.UpdatedAt = time.Now()
		if err := courses.Put(r.Context(), c); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// GET /admin/courses/{courseID} — the full aggregate, answer keys included.
func GetCourseAdminHandler(courses course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := courses.Get(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// DELETE /admin/courses/{courseID}
func DeleteCourseHandler(courses course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := courses.Delete(r.Context(), chi.URLParam(r, "courseID")); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}

func assignIDs(c *course.Course) {
	for ui := range c.Units {
		if c.Units[ui].ID == "" {
			c.Units[ui].ID = uuid.NewString()
		}
		for li := range c.Units[ui].Lessons {
			assignLessonIDs(&c.Units[ui].Lessons[li])
		}
	}
	for li := range c.Lessons {
		assignLessonIDs(&c.Lessons[li])
	}
}

func assignLessonIDs(l *course.Lesson) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	for i := range l.Videos {
		if l.Videos[i].ID == "" {
			l.Videos[i].ID = uuid.NewString()
		}
	}
	for i := range l.Documents {
		if l.Documents[i].ID == "" {
			l.Documents[i].ID = uuid.NewString()
		}
	}
	for i := range l.Exams {
		if l.Exams[i].ID == "" {
			l.Exams[i].ID = uuid.NewString()
		}
	}
	for i := range l.Trainings {
		if l.Trainings[i].ID == "" {
			l.Trainings[i].ID = uuid.NewString()
		}
	}
	if l.Entry != nil && l.Entry.Kind == course.EntryMCQ && l.Entry.MCQ != nil && l.Entry.MCQ.ID == "" {
		l.Entry.MCQ.ID = uuid.NewString()
	}
}
