package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/learnloop/learnloop-lms/internal/course"
	syncx "github.com/learnloop/learnloop-lms/internal/sync"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// ErrPrecondition rejects a review against a submission that does not exist
// or is no longer pending.
var ErrPrecondition = errors.New("review precondition failed")

// ErrValidation rejects malformed submissions and decisions.
var ErrValidation = errors.New("validation failed")

// TaskSubmission is one free-form entry-task submission. Rows are append
// plus a single admin review transition; a rejected submission is retained
// for audit and superseded by the learner's next (fresh pending) row.
type TaskSubmission struct {
	ID            string     `json:"id"`
	CourseID      string     `json:"course_id"`
	UnitID        string     `json:"unit_id,omitempty"`
	LessonID      string     `json:"lesson_id"`
	UserID        string     `json:"user_id"`
	TaskLink      string     `json:"task_link,omitempty"`
	TaskImage     string     `json:"task_image,omitempty"` // opaque asset key
	Status        Status     `json:"status"`
	AdminFeedback string     `json:"admin_feedback,omitempty"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy    string     `json:"reviewed_by,omitempty"`
}

// Service runs the pending → success|failed state machine.
type Service struct {
	courses course.Store
	subs    Store
	events  syncx.Log
	now     func() time.Time
}

func NewService(courses course.Store, subs Store, events syncx.Log) *Service {
	return &Service{courses: courses, subs: subs, events: events, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type SubmitInput struct {
	CourseID  string
	UnitID    string
	LessonID  string
	UserID    string
	TaskLink  string
	TaskImage string
}

// Submit records a fresh pending submission. Prior failed (or even pending)
// rows are kept; gating reads only the latest row for the pair.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*TaskSubmission, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("%w: missing user identity", ErrValidation)
	}
	if strings.TrimSpace(in.TaskLink) == "" && strings.TrimSpace(in.TaskImage) == "" {
		return nil, fmt.Errorf("%w: a task link or image is required", ErrValidation)
	}
	c, err := s.courses.Get(ctx, in.CourseID)
	if err != nil {
		return nil, err
	}
	lesson, _, err := course.FindLesson(&c, in.UnitID, in.LessonID)
	if err != nil {
		return nil, err
	}
	if lesson.Entry == nil || lesson.Entry.Kind != course.EntryTask {
		return nil, &course.NotFoundError{Entity: "entry requirement", ID: in.LessonID}
	}
	if !lesson.Entry.Enabled {
		return nil, fmt.Errorf("%w: entry requirement not enabled", ErrValidation)
	}

	sub := TaskSubmission{
		ID:          uuid.NewString(),
		CourseID:    in.CourseID,
		UnitID:      in.UnitID,
		LessonID:    in.LessonID,
		UserID:      in.UserID,
		TaskLink:    strings.TrimSpace(in.TaskLink),
		TaskImage:   strings.TrimSpace(in.TaskImage),
		Status:      StatusPending,
		SubmittedAt: s.now(),
	}
	if err := s.subs.Insert(ctx, sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

type Decision struct {
	Status   Status
	Feedback string
	AdminID  string
}

// Review applies an admin decision to the learner's latest pending
// submission for the lesson. Rejections require feedback: a silent,
// unexplained failure must never reach the learner.
func (s *Service) Review(ctx context.Context, courseID, lessonID, userID string, d Decision) (*TaskSubmission, error) {
	if d.Status != StatusSuccess && d.Status != StatusFailed {
		return nil, fmt.Errorf("%w: decision must be success or failed", ErrValidation)
	}
	if d.Status == StatusFailed && strings.TrimSpace(d.Feedback) == "" {
		return nil, fmt.Errorf("%w: rejection requires feedback", ErrValidation)
	}
	sub, err := s.subs.Latest(ctx, courseID, lessonID, userID)
	if err != nil {
		return nil, err
	}
	if sub.Status != StatusPending {
		return nil, fmt.Errorf("%w: submission %s is %s, not pending", ErrPrecondition, sub.ID, sub.Status)
	}

	now := s.now()
	sub.Status = d.Status
	sub.AdminFeedback = strings.TrimSpace(d.Feedback)
	sub.ReviewedAt = &now
	sub.ReviewedBy = d.AdminID
	if err := s.subs.Update(ctx, sub); err != nil {
		return nil, err
	}
	s.logEvent(ctx, sub)
	return &sub, nil
}

func (s *Service) logEvent(ctx context.Context, sub TaskSubmission) {
	if s.events == nil {
		return
	}
	data, _ := json.Marshal(sub)
	if err := s.events.Append(ctx, syncx.Event{Type: syncx.EventTaskReviewed, Key: sub.ID, DataJSON: string(data)}); err != nil {
		log.Printf("event log append failed (TaskReviewed %s): %v", sub.ID, err)
	}
}

// ListPending returns the admin review queue, oldest first.
func (s *Service) ListPending(ctx context.Context) ([]TaskSubmission, error) {
	return s.subs.ListByStatus(ctx, StatusPending)
}

// LatestFor exposes the learner's most recent submission for a lesson, used
// by the gating resolver and the lesson view.
func (s *Service) LatestFor(ctx context.Context, courseID, lessonID, userID string) (*TaskSubmission, error) {
	sub, err := s.subs.Latest(ctx, courseID, lessonID, userID)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
