package http

import (
	"net/http"
	"strings"

	"github.com/learnloop/learnloop-lms/internal/reporting"
)

// GET /reports/stats?course_id=
func ExamStatsHandler(store reporting.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.GroupStats(r.Context(), r.URL.Query().Get("course_id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// GET /reports/results?course_id=&lesson_id=&type=&passed=&q=&limit=&offset=&sort=
func ListResultsHandler(store reporting.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := reporting.ListOpts{
			CourseID: q.Get("course_id"),
			LessonID: q.Get("lesson_id"),
			ExamType: reporting.ExamType(q.Get("type")),
			Search:   strings.TrimSpace(q.Get("q")),
			Limit:    parseIntDefault(q.Get("limit"), 50),
			Offset:   parseIntDefault(q.Get("offset"), 0),
			Sort:     q.Get("sort"),
		}
		switch q.Get("passed") {
		case "true":
			t := true
			opts.Passed = &t
		case "false":
			f := false
			opts.Passed = &f
		}
		page, err := store.List(r.Context(), opts)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// GET /reports/top-active?limit=
func TopActiveHandler(store reporting.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.TopActive(r.Context(), parseIntDefault(r.URL.Query().Get("limit"), 10))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /reports/top-performers?limit=&min_attempts=
func TopPerformersHandler(store reporting.Store, defaultMinAttempts int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.TopPerformers(r.Context(),
			parseIntDefault(r.URL.Query().Get("limit"), 10),
			parseIntDefault(r.URL.Query().Get("min_attempts"), defaultMinAttempts))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
