package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnloop/learnloop-lms/internal/course"
	"github.com/learnloop/learnloop-lms/internal/gating"
	"github.com/learnloop/learnloop-lms/internal/rbac"
)

// GET /courses/{courseID}/lessons/{lessonID}?unit_id=
// The per-learner lesson view: the gating resolver decides whether the
// learner gets the real collections or just locked counts.
func GetLessonHandler(courses course.Store, resolver *gating.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		c, err := courses.Get(r.Context(), courseID)
		if err != nil {
			writeError(w, err)
			return
		}
		lesson, _, err := course.FindLesson(&c, r.URL.Query().Get("unit_id"), chi.URLParam(r, "lessonID"))
		if err != nil {
			writeError(w, err)
			return
		}
		view, err := resolver.BuildView(r.Context(), courseID, lesson, rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// GET /courses — outline summaries, any authenticated role.
func ListCoursesHandler(courses course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := courses.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
