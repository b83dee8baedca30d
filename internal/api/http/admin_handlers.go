package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnloop/learnloop-lms/internal/assess"
)

// POST /admin/courses/{courseID}/lessons/{lessonID}/assessments/{assessmentID}/clear
// Removes every attempt the named user has against the assessment; used for
// retake resets. Clearing nothing returns removed=0, not an error.
func ClearAttemptsHandler(rec *assess.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			http.Error(w, "user_id required", http.StatusBadRequest)
			return
		}
		removed, err := rec.ClearAttempts(r.Context(),
			chi.URLParam(r, "courseID"), r.URL.Query().Get("unit_id"),
			chi.URLParam(r, "lessonID"), chi.URLParam(r, "assessmentID"), req.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
	}
}

// POST /admin/reports/rebuild?course_id=
// Re-materializes the exam_results projection from the attempt history.
func RebuildResultsHandler(rec *assess.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := rec.RebuildResults(r.Context(), r.URL.Query().Get("course_id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"rebuilt": n})
	}
}
