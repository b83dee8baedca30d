package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnloop/learnloop-lms/internal/assess"
	"github.com/learnloop/learnloop-lms/internal/course"
	"github.com/learnloop/learnloop-lms/internal/gating"
	"github.com/learnloop/learnloop-lms/internal/rbac"
	"github.com/learnloop/learnloop-lms/internal/reporting"
	"github.com/learnloop/learnloop-lms/internal/review"
	syncx "github.com/learnloop/learnloop-lms/internal/sync"
	"github.com/learnloop/learnloop-lms/internal/users"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type env struct {
	router    *chi.Mux
	courses   course.Store
	attempts  assess.AttemptStore
	results   reporting.Store
	sub, role string
}

// identity stands in for the JWT middleware: subject and role are read from
// test headers straight into the context.
func identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := rbac.WithSubject(r.Context(), r.Header.Get("X-Test-Sub"))
		ctx = rbac.WithRole(ctx, r.Header.Get("X-Test-Role"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func seedCourse() course.Course {
	open := testNow.Add(-time.Hour)
	return course.Course{
		ID:    "c1",
		Title: "Go Basics",
		Lessons: []course.Lesson{
			{
				ID: "l1", Title: "Open Lesson",
				Exams: []course.Assessment{{
					ID: "e1", Title: "Final", OpenDate: &open,
					Questions: []course.Question{
						{Text: "q0", Options: []string{"a", "b"}, CorrectAnswer: 0},
						{Text: "q1", Options: []string{"a", "b"}, CorrectAnswer: 1},
					},
				}},
			},
			{
				ID: "l2", Title: "Gated Lesson",
				Videos: []course.ContentItem{{ID: "v1", Title: "Intro", URL: "videos/v1"}},
				Entry: &course.EntryRequirement{
					Kind: course.EntryMCQ, Enabled: true,
					MCQ: &course.Assessment{
						ID: "en1", Title: "Entry Check",
						Questions: []course.Question{
							{Text: "eq0", Options: []string{"a", "b"}, CorrectAnswer: 0},
						},
					},
				},
			},
			{
				ID: "l3", Title: "Task Lesson",
				Entry: &course.EntryRequirement{
					Kind: course.EntryTask, Enabled: true,
					Task: &course.TaskSpec{Description: "Share your project"},
				},
			},
		},
	}
}

func newEnv(t *testing.T, sub, role string) *env {
	t.Helper()
	courses := course.NewMemoryStore()
	require.NoError(t, courses.Put(context.Background(), seedCourse()))

	dir := users.NewMemoryStore()
	require.NoError(t, dir.Upsert(context.Background(), users.User{
		ID: "learner-1", Username: "dewi", Name: "Dewi Santoso", Role: "learner",
	}))

	attempts := assess.NewMemoryAttempts()
	results := reporting.NewMemoryStore()
	subs := review.NewMemoryStore()
	events := syncx.NewMemoryLog()

	recorder := assess.NewRecorder(courses, attempts, results, dir, events, 50).
		WithClock(func() time.Time { return testNow })
	resolver := gating.NewResolver(attempts, subs)
	reviews := review.NewService(courses, subs, events)

	r := chi.NewRouter()
	r.Use(identity)
	r.Get("/courses", ListCoursesHandler(courses))
	r.Get("/courses/{courseID}/lessons/{lessonID}", GetLessonHandler(courses, resolver))
	r.Post("/courses/{courseID}/lessons/{lessonID}/exams/{assessmentID}/submit", SubmitExamHandler(recorder))
	r.Post("/courses/{courseID}/lessons/{lessonID}/entry/submit", SubmitEntryHandler(recorder))
	r.Post("/courses/{courseID}/lessons/{lessonID}/entry/task", SubmitEntryTaskHandler(reviews))
	r.Get("/courses/{courseID}/lessons/{lessonID}/assessments/{assessmentID}/attempts", ListAttemptsHandler(attempts))
	r.Post("/admin/courses/{courseID}/lessons/{lessonID}/entry-tasks/{userID}/review", ReviewEntryTaskHandler(reviews))
	r.Get("/reports/results", ListResultsHandler(results))

	return &env{router: r, courses: courses, attempts: attempts, results: results, sub: sub, role: role}
}

// as returns a view of the same environment acting under another identity,
// so one test can play both learner and admin.
func (e *env) as(sub, role string) *env {
	clone := *e
	clone.sub, clone.role = sub, role
	return &clone
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Sub", e.sub)
	req.Header.Set("X-Test-Role", e.role)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func TestSubmitExamEndpoint(t *testing.T) {
	e := newEnv(t, "learner-1", "learner")
	rr := e.do(t, http.MethodPost, "/courses/c1/lessons/l1/exams/e1/submit", map[string]any{
		"answers": []map[string]int{
			{"question_index": 0, "selected_answer": 0},
			{"question_index": 1, "selected_answer": 1},
		},
		"time_taken": 5,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var g assess.Graded
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &g))
	assert.Equal(t, 2, g.Score)
	assert.Equal(t, 100, g.Percentage)
	assert.True(t, g.Passed)
	assert.NotEmpty(t, g.AttemptID)
	assert.Equal(t, 5, g.TimeTakenMinutes)

	// the graded attempt is mirrored for reporting
	page, err := e.results.List(context.Background(), reporting.ListOpts{CourseID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestSubmitExamErrorMapping(t *testing.T) {
	e := newEnv(t, "learner-1", "learner")

	rr := e.do(t, http.MethodPost, "/courses/ghost/lessons/l1/exams/e1/submit", map[string]any{})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = e.do(t, http.MethodPost, "/courses/c1/lessons/l1/exams/ghost/submit", map[string]any{})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// entry endpoint against a lesson whose gate is a task, not an mcq
	rr = e.do(t, http.MethodPost, "/courses/c1/lessons/l3/entry/submit", map[string]any{})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLessonViewLockFlow(t *testing.T) {
	e := newEnv(t, "learner-1", "learner")

	rr := e.do(t, http.MethodGet, "/courses/c1/lessons/l2", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var view gating.LessonView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, gating.StateLocked, view.State)
	require.NotNil(t, view.Locked)
	assert.Equal(t, 1, view.Locked.Videos)
	assert.Empty(t, view.Videos)

	// completing the entry exam unlocks, regardless of the score
	rr = e.do(t, http.MethodPost, "/courses/c1/lessons/l2/entry/submit", map[string]any{
		"answers": []map[string]int{{"question_index": 0, "selected_answer": 1}}, // wrong
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = e.do(t, http.MethodGet, "/courses/c1/lessons/l2", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	view = gating.LessonView{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, gating.StateUnlocked, view.State)
	assert.Nil(t, view.Locked)
	assert.Len(t, view.Videos, 1)
}

// The learner-facing lesson payload must never leak answer keys.
func TestLessonViewHidesAnswers(t *testing.T) {
	e := newEnv(t, "learner-1", "learner")
	rr := e.do(t, http.MethodGet, "/courses/c1/lessons/l1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "correct_answer")
	assert.NotContains(t, rr.Body.String(), "explanation")
}

func TestEntryTaskReviewEndpoint(t *testing.T) {
	e := newEnv(t, "learner-1", "learner")

	// reviewing before any submission is a conflict
	admin := e.as("admin-1", "admin")
	rr := admin.do(t, http.MethodPost, "/admin/courses/c1/lessons/l3/entry-tasks/learner-1/review",
		map[string]string{"status": "success"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = e.do(t, http.MethodPost, "/courses/c1/lessons/l3/entry/task",
		map[string]string{"task_link": "https://example.com/p"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// rejection without feedback is invalid
	rr = admin.do(t, http.MethodPost, "/admin/courses/c1/lessons/l3/entry-tasks/learner-1/review",
		map[string]string{"status": "failed"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = admin.do(t, http.MethodPost, "/admin/courses/c1/lessons/l3/entry-tasks/learner-1/review",
		map[string]string{"status": "failed", "admin_feedback": "broken link"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var sub review.TaskSubmission
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sub))
	assert.Equal(t, review.StatusFailed, sub.Status)
	assert.Equal(t, "admin-1", sub.ReviewedBy)
}

func TestListAttemptsScoping(t *testing.T) {
	e := newEnv(t, "learner-1", "learner")
	rr := e.do(t, http.MethodPost, "/courses/c1/lessons/l1/exams/e1/submit", map[string]any{
		"answers": []map[string]int{{"question_index": 0, "selected_answer": 0}},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	// another learner asking for learner-1's history gets their own (empty)
	other := e.as("learner-2", "learner")
	rr = other.do(t, http.MethodGet, "/courses/c1/lessons/l1/assessments/e1/attempts?user_id=learner-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list []assess.Attempt
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Empty(t, list)

	// an admin may inspect any learner
	admin := e.as("admin-1", "admin")
	rr = admin.do(t, http.MethodGet, "/courses/c1/lessons/l1/assessments/e1/attempts?user_id=learner-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestListResultsEndpoint(t *testing.T) {
	e := newEnv(t, "admin-1", "admin")
	require.NoError(t, e.results.Insert(context.Background(), reporting.Record{
		ID: "r1", UserID: "u1", CourseID: "c1", ExamType: reporting.TypeExam,
		Percentage: 80, Passed: true, CompletedAt: testNow,
	}))
	require.NoError(t, e.results.Insert(context.Background(), reporting.Record{
		ID: "r2", UserID: "u2", CourseID: "c1", ExamType: reporting.TypeExam,
		Percentage: 20, Passed: false, CompletedAt: testNow,
	}))

	rr := e.do(t, http.MethodGet, "/reports/results?course_id=c1&passed=true", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var page reporting.Page
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	assert.True(t, page.Items[0].Passed)
}
