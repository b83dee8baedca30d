package assess

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/learnloop/learnloop-lms/internal/course"
	"github.com/learnloop/learnloop-lms/internal/reporting"
	syncx "github.com/learnloop/learnloop-lms/internal/sync"
	"github.com/learnloop/learnloop-lms/internal/users"
)

// Recorder validates, scores and persists attempts. It owns the consistency
// contract between the authoritative attempt history and the denormalized
// reporting projection: the attempt row is written first and always stands;
// a failed projection write is retried, logged and recorded in the event log
// so it can be reconciled later — never dropped.
type Recorder struct {
	courses     course.Store
	attempts    AttemptStore
	results     reporting.Store
	users       users.Store
	events      syncx.Log
	passPercent int
	now         func() time.Time
}

func NewRecorder(courses course.Store, attempts AttemptStore, results reporting.Store, dir users.Store, events syncx.Log, passPercent int) *Recorder {
	return &Recorder{
		courses:     courses,
		attempts:    attempts,
		results:     results,
		users:       dir,
		events:      events,
		passPercent: passPercent,
		now:         time.Now,
	}
}

// WithClock overrides the recorder's clock, for tests.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

type SubmitInput struct {
	CourseID     string
	UnitID       string
	LessonID     string
	AssessmentID string
	UserID       string
	Answers      []SubmittedAnswer
	// StartTime, when supplied by the client, is the trusted source for
	// elapsed time. TimeTakenMinutes is the client-reported fallback used
	// only when StartTime is absent.
	StartTime        *time.Time
	TimeTakenMinutes int
}

// Graded is what the learner gets back: the scored result plus the recorded
// attempt's identity.
type Graded struct {
	AttemptID        string    `json:"attempt_id"`
	TakenAt          time.Time `json:"taken_at"`
	TimeTakenMinutes int       `json:"time_taken_minutes"`
	Result
}

func (r *Recorder) SubmitTraining(ctx context.Context, in SubmitInput) (*Graded, error) {
	return r.submit(ctx, in, course.KindTraining)
}

func (r *Recorder) SubmitExam(ctx context.Context, in SubmitInput) (*Graded, error) {
	return r.submit(ctx, in, course.KindExam)
}

// SubmitEntry records an attempt against the lesson's mcq entry requirement.
// Entry attempts unlock content by existing; they are not mirrored to the
// reporting store.
func (r *Recorder) SubmitEntry(ctx context.Context, in SubmitInput) (*Graded, error) {
	return r.submit(ctx, in, course.KindEntry)
}

func (r *Recorder) submit(ctx context.Context, in SubmitInput, kind course.AssessmentKind) (*Graded, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("%w: missing user identity", ErrValidation)
	}

	// Preconditions run strictly before any mutation: a failure here never
	// leaves a half-written attempt.
	c, err := r.courses.Get(ctx, in.CourseID)
	if err != nil {
		return nil, err
	}
	lesson, unit, err := course.FindLesson(&c, in.UnitID, in.LessonID)
	if err != nil {
		return nil, err
	}
	if kind == course.KindEntry {
		if lesson.Entry == nil || lesson.Entry.Kind != course.EntryMCQ {
			return nil, &course.NotFoundError{Entity: "entry requirement", ID: in.LessonID}
		}
		if !lesson.Entry.Enabled {
			return nil, fmt.Errorf("%w: entry requirement not enabled", ErrInvalidState)
		}
	}
	asmt, err := course.FindAssessment(lesson, kind, in.AssessmentID)
	if err != nil {
		return nil, err
	}
	if len(asmt.Questions) == 0 {
		return nil, fmt.Errorf("%w: assessment has no questions", ErrInvalidState)
	}

	now := r.now()
	if err := checkWindow(asmt, kind, now); err != nil {
		return nil, err
	}

	res, err := Score(asmt.Questions, in.Answers, r.passPercent)
	if err != nil {
		return nil, err
	}

	attempt := Attempt{
		ID:               uuid.NewString(),
		CourseID:         in.CourseID,
		UnitID:           in.UnitID,
		LessonID:         in.LessonID,
		AssessmentID:     asmt.ID,
		Kind:             kind,
		UserID:           in.UserID,
		Score:            res.Score,
		TotalQuestions:   res.TotalQuestions,
		TimeTakenMinutes: elapsedMinutes(in, now),
		Answers:          res.Answers,
		TakenAt:          now,
	}
	if err := r.attempts.Append(ctx, attempt); err != nil {
		return nil, err
	}
	r.logEvent(ctx, syncx.EventAttemptSubmitted, attempt.ID, attempt)

	if kind != course.KindEntry {
		rec := r.buildRecord(ctx, attempt, c.Title, unit, lesson, asmt, res)
		if err := r.insertResultWithRetry(ctx, rec); err != nil {
			// The attempt is authoritative and already durable; surface the
			// projection gap loudly instead of failing the submission.
			log.Printf("exam result write failed for attempt %s: %v", attempt.ID, err)
			r.logEvent(ctx, syncx.EventResultWriteFailed, attempt.ID, rec)
		}
	}

	return &Graded{
		AttemptID:        attempt.ID,
		TakenAt:          attempt.TakenAt,
		TimeTakenMinutes: attempt.TimeTakenMinutes,
		Result:           res,
	}, nil
}

// checkWindow enforces the per-kind schedule: final exams honor both dates,
// trainings only the open date, entry requirements neither.
func checkWindow(a *course.Assessment, kind course.AssessmentKind, now time.Time) error {
	if kind == course.KindEntry {
		return nil
	}
	if a.OpenDate != nil && now.Before(*a.OpenDate) {
		return fmt.Errorf("%w: not open until %s", ErrInvalidState, a.OpenDate.Format(time.RFC3339))
	}
	if kind == course.KindExam && a.CloseDate != nil && now.After(*a.CloseDate) {
		return fmt.Errorf("%w: closed at %s", ErrInvalidState, a.CloseDate.Format(time.RFC3339))
	}
	return nil
}

func elapsedMinutes(in SubmitInput, now time.Time) int {
	if in.StartTime != nil {
		m := int(math.Round(now.Sub(*in.StartTime).Minutes()))
		if m < 0 {
			m = 0
		}
		return m
	}
	return in.TimeTakenMinutes
}

func (r *Recorder) buildRecord(ctx context.Context, a Attempt, courseTitle string, unit *course.Unit, lesson *course.Lesson, asmt *course.Assessment, res Result) reporting.Record {
	rec := reporting.Record{
		ID:               uuid.NewString(),
		UserID:           a.UserID,
		CourseID:         a.CourseID,
		CourseTitle:      courseTitle,
		LessonID:         a.LessonID,
		LessonTitle:      lesson.Title,
		ExamType:         reporting.ExamType(a.Kind),
		Score:            a.Score,
		TotalQuestions:   a.TotalQuestions,
		CorrectAnswers:   res.Score,
		WrongAnswers:     a.TotalQuestions - res.Score,
		Percentage:       res.Percentage,
		TimeTakenMinutes: a.TimeTakenMinutes,
		TimeLimitMinutes: asmt.TimeLimitMinutes,
		PassingScore:     r.passPercent,
		Passed:           res.Passed,
		CompletedAt:      a.TakenAt,
	}
	if unit != nil {
		rec.UnitID = unit.ID
		rec.UnitTitle = unit.Title
	}
	if aj, err := json.Marshal(a.Answers); err == nil {
		rec.AnswersJSON = string(aj)
	}
	// Learner contact details are denormalized for the dashboard's free-text
	// search; a missing directory entry is not fatal.
	if u, err := r.users.Get(ctx, a.UserID); err == nil {
		rec.UserName = u.Name
		rec.UserEmail = u.Email
		rec.UserPhone = u.Phone
	}
	return rec
}

func (r *Recorder) insertResultWithRetry(ctx context.Context, rec reporting.Record) error {
	err := r.results.Insert(ctx, rec)
	if err == nil {
		return nil
	}
	return r.results.Insert(ctx, rec)
}

func (r *Recorder) logEvent(ctx context.Context, typ, key string, payload any) {
	if r.events == nil {
		return
	}
	data, _ := json.Marshal(payload)
	if err := r.events.Append(ctx, syncx.Event{Type: typ, Key: key, DataJSON: string(data)}); err != nil {
		log.Printf("event log append failed (%s %s): %v", typ, key, err)
	}
}

// ClearAttempts removes every attempt the user has against one assessment.
// Used for admin retake resets; clearing an already-empty history returns 0
// rather than an error. For a cleared mcq entry requirement this also
// re-locks the lesson, since gating rides on attempt existence.
func (r *Recorder) ClearAttempts(ctx context.Context, courseID, unitID, lessonID, assessmentID, userID string) (int64, error) {
	c, err := r.courses.Get(ctx, courseID)
	if err != nil {
		return 0, err
	}
	if _, _, err := course.FindLesson(&c, unitID, lessonID); err != nil {
		return 0, err
	}
	removed, err := r.attempts.Clear(ctx, courseID, lessonID, assessmentID, userID)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		r.logEvent(ctx, syncx.EventAttemptsCleared, assessmentID, map[string]any{
			"course_id": courseID, "lesson_id": lessonID, "user_id": userID, "removed": removed,
		})
	}
	return removed, nil
}

// RebuildResults re-materializes the reporting projection from the attempt
// history, for one course or (empty courseID) for everything. The projection
// is derived state: losing it, or a ResultWriteFailed event, is repaired
// here rather than treated as data loss.
func (r *Recorder) RebuildResults(ctx context.Context, courseID string) (int, error) {
	attempts, err := r.attempts.ListGraded(ctx, courseID)
	if err != nil {
		return 0, err
	}
	if _, err := r.results.Delete(ctx, courseID); err != nil {
		return 0, err
	}
	type courseMeta struct {
		c   course.Course
		err error
	}
	cache := map[string]courseMeta{}
	n := 0
	for _, a := range attempts {
		meta, ok := cache[a.CourseID]
		if !ok {
			meta.c, meta.err = r.courses.Get(ctx, a.CourseID)
			cache[a.CourseID] = meta
		}
		rec := r.recordFromHistory(ctx, a, meta.c, meta.err == nil)
		if err := r.results.Insert(ctx, rec); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// recordFromHistory rebuilds a projection row from a stored attempt,
// re-resolving titles from the catalog where the structure still exists.
func (r *Recorder) recordFromHistory(ctx context.Context, a Attempt, c course.Course, haveCourse bool) reporting.Record {
	pct := int(math.Round(float64(a.Score) / float64(a.TotalQuestions) * 100))
	rec := reporting.Record{
		ID:               uuid.NewString(),
		UserID:           a.UserID,
		CourseID:         a.CourseID,
		LessonID:         a.LessonID,
		UnitID:           a.UnitID,
		ExamType:         reporting.ExamType(a.Kind),
		Score:            a.Score,
		TotalQuestions:   a.TotalQuestions,
		CorrectAnswers:   a.Score,
		WrongAnswers:     a.TotalQuestions - a.Score,
		Percentage:       pct,
		TimeTakenMinutes: a.TimeTakenMinutes,
		PassingScore:     r.passPercent,
		Passed:           pct >= r.passPercent,
		CompletedAt:      a.TakenAt,
	}
	if aj, err := json.Marshal(a.Answers); err == nil {
		rec.AnswersJSON = string(aj)
	}
	if haveCourse {
		rec.CourseTitle = c.Title
		if lesson, unit, err := course.FindLesson(&c, a.UnitID, a.LessonID); err == nil {
			rec.LessonTitle = lesson.Title
			if unit != nil {
				rec.UnitTitle = unit.Title
			}
			if asmt, err := course.FindAssessment(lesson, a.Kind, a.AssessmentID); err == nil {
				rec.TimeLimitMinutes = asmt.TimeLimitMinutes
			}
		}
	}
	if u, err := r.users.Get(ctx, a.UserID); err == nil {
		rec.UserName = u.Name
		rec.UserEmail = u.Email
		rec.UserPhone = u.Phone
	}
	return rec
}
