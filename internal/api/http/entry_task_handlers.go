package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnloop/learnloop-lms/internal/rbac"
	"github.com/learnloop/learnloop-lms/internal/review"
)

// POST /courses/{courseID}/lessons/{lessonID}/entry/task
func SubmitEntryTaskHandler(svc *review.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TaskLink  string `json:"task_link,omitempty"`
			TaskImage string `json:"task_image,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		sub, err := svc.Submit(r.Context(), review.SubmitInput{
			CourseID:  chi.URLParam(r, "courseID"),
			UnitID:    r.URL.Query().Get("unit_id"),
			LessonID:  chi.URLParam(r, "lessonID"),
			UserID:    rbac.SubjectFromContext(r.Context()),
			TaskLink:  req.TaskLink,
			TaskImage: req.TaskImage,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

// GET /admin/entry-tasks — the pending review queue, oldest first.
func ListPendingTasksHandler(svc *review.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListPending(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// POST /admin/courses/{courseID}/lessons/{lessonID}/entry-tasks/{userID}/review
func ReviewEntryTaskHandler(svc *review.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status   string `json:"status"`
			Feedback string `json:"admin_feedback,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		sub, err := svc.Review(r.Context(),
			chi.URLParam(r, "courseID"), chi.URLParam(r, "lessonID"), chi.URLParam(r, "userID"),
			review.Decision{
				Status:   review.Status(req.Status),
				Feedback: req.Feedback,
				AdminID:  rbac.SubjectFromContext(r.Context()),
			})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}
