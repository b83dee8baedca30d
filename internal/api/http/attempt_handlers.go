package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/learnloop/learnloop-lms/internal/assess"
	"github.com/learnloop/learnloop-lms/internal/rbac"
)

type submitReq struct {
	Answers []assess.SubmittedAnswer `json:"answers"`
	// StartTime (RFC3339) is preferred; TimeTaken (minutes) is the trusted
	// client fallback when the start time was never sent.
	StartTime *time.Time `json:"start_time,omitempty"`
	TimeTaken int        `json:"time_taken,omitempty"`
}

func decodeSubmit(r *http.Request, withAssessment bool) (assess.SubmitInput, error) {
	var req submitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return assess.SubmitInput{}, err
	}
	in := assess.SubmitInput{
		CourseID:         chi.URLParam(r, "courseID"),
		UnitID:           r.URL.Query().Get("unit_id"),
		LessonID:         chi.URLParam(r, "lessonID"),
		UserID:           rbac.SubjectFromContext(r.Context()),
		Answers:          req.Answers,
		StartTime:        req.StartTime,
		TimeTakenMinutes: req.TimeTaken,
	}
	if withAssessment {
		in.AssessmentID = chi.URLParam(r, "assessmentID")
	}
	return in, nil
}

// POST /courses/{courseID}/lessons/{lessonID}/trainings/{assessmentID}/submit
func SubmitTrainingHandler(rec *assess.Recorder) http.HandlerFunc {
	return submitHandler(rec.SubmitTraining, true)
}

// POST /courses/{courseID}/lessons/{lessonID}/exams/{assessmentID}/submit
func SubmitExamHandler(rec *assess.Recorder) http.HandlerFunc {
	return submitHandler(rec.SubmitExam, true)
}

// POST /courses/{courseID}/lessons/{lessonID}/entry/submit
// Only valid for mcq entry requirements; task entries go through the task
// submission endpoint instead.
func SubmitEntryHandler(rec *assess.Recorder) http.HandlerFunc {
	return submitHandler(rec.SubmitEntry, false)
}

func submitHandler(submit func(context.Context, assess.SubmitInput) (*assess.Graded, error), withAssessment bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := decodeSubmit(r, withAssessment)
		if err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		g, err := submit(r.Context(), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

// GET /courses/{courseID}/lessons/{lessonID}/assessments/{assessmentID}/attempts
// Learners see only their own history; admins may pass ?user_id= to inspect
// someone else's.
func ListAttemptsHandler(store assess.AttemptStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		userID := r.URL.Query().Get("user_id")
		if role != "admin" || userID == "" {
			userID = rbac.SubjectFromContext(r.Context())
		}
		list, err := store.ListForUser(r.Context(),
			chi.URLParam(r, "courseID"), chi.URLParam(r, "lessonID"),
			chi.URLParam(r, "assessmentID"), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
