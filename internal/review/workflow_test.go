package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/learnloop/learnloop-lms/internal/course"
	syncx "github.com/learnloop/learnloop-lms/internal/sync"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func seedCourse(t *testing.T) course.Store {
	t.Helper()
	courses := course.NewMemoryStore()
	err := courses.Put(context.Background(), course.Course{
		ID:    "c1",
		Title: "Go Basics",
		Lessons: []course.Lesson{
			{
				ID: "l1", Title: "Task Gated",
				Entry: &course.EntryRequirement{
					Kind:    course.EntryTask,
					Enabled: true,
					Task:    &course.TaskSpec{Description: "Share your project"},
				},
			},
			{ID: "l2", Title: "Plain"},
			{
				ID: "l3", Title: "Disabled",
				Entry: &course.EntryRequirement{
					Kind: course.EntryTask,
					Task: &course.TaskSpec{Description: "off"},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return courses
}

func newService(t *testing.T) (*Service, *syncx.MemoryLog) {
	t.Helper()
	events := syncx.NewMemoryLog()
	svc := NewService(seedCourse(t), NewMemoryStore(), events).
		WithClock(func() time.Time { return testNow })
	return svc, events
}

func TestSubmitAndApprove(t *testing.T) {
	svc, events := newService(t)
	ctx := context.Background()

	sub, err := svc.Submit(ctx, SubmitInput{
		CourseID: "c1", LessonID: "l1", UserID: "u1",
		TaskLink: "https://example.com/project",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.Status != StatusPending || sub.ID == "" {
		t.Fatalf("unexpected submission: %+v", sub)
	}

	pending, err := svc.ListPending(ctx)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending queue: %v (len=%d)", err, len(pending))
	}

	got, err := svc.Review(ctx, "c1", "l1", "u1", Decision{Status: StatusSuccess, AdminID: "admin"})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if got.Status != StatusSuccess || got.ReviewedBy != "admin" || got.ReviewedAt == nil {
		t.Fatalf("unexpected reviewed submission: %+v", got)
	}
	if n := len(events.ByType(syncx.EventTaskReviewed)); n != 1 {
		t.Fatalf("TaskReviewed events = %d, want 1", n)
	}

	if _, err := svc.ListPending(ctx); err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	pending, _ = svc.ListPending(ctx)
	if len(pending) != 0 {
		t.Fatalf("queue not drained: %d", len(pending))
	}
}

// A rejection without feedback must never reach the learner.
func TestReviewRejectionRequiresFeedback(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.Submit(ctx, SubmitInput{
		CourseID: "c1", LessonID: "l1", UserID: "u1", TaskLink: "https://example.com/p",
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	_, err := svc.Review(ctx, "c1", "l1", "u1", Decision{Status: StatusFailed, AdminID: "admin"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}

	got, err := svc.Review(ctx, "c1", "l1", "u1", Decision{
		Status: StatusFailed, Feedback: "link is broken", AdminID: "admin",
	})
	if err != nil {
		t.Fatalf("Review with feedback: %v", err)
	}
	if got.AdminFeedback != "link is broken" {
		t.Fatalf("feedback = %q", got.AdminFeedback)
	}
}

func TestReviewInvalidDecision(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Review(context.Background(), "c1", "l1", "u1", Decision{Status: StatusPending})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestReviewWithoutSubmission(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Review(context.Background(), "c1", "l1", "ghost",
		Decision{Status: StatusSuccess, AdminID: "admin"})
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("err = %v, want ErrPrecondition", err)
	}
}

// Only the latest pending row is reviewable: deciding twice is a conflict.
func TestReviewTwiceFails(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.Submit(ctx, SubmitInput{
		CourseID: "c1", LessonID: "l1", UserID: "u1", TaskLink: "https://example.com/p",
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Review(ctx, "c1", "l1", "u1", Decision{Status: StatusSuccess, AdminID: "admin"}); err != nil {
		t.Fatalf("first review: %v", err)
	}
	_, err := svc.Review(ctx, "c1", "l1", "u1", Decision{Status: StatusSuccess, AdminID: "admin"})
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("err = %v, want ErrPrecondition", err)
	}
}

// After a rejection the learner resubmits; the new row is pending and the
// rejected one stays in the history for audit.
func TestResubmitAfterRejection(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.Submit(ctx, SubmitInput{
		CourseID: "c1", LessonID: "l1", UserID: "u1", TaskLink: "https://example.com/v1",
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Review(ctx, "c1", "l1", "u1", Decision{
		Status: StatusFailed, Feedback: "try again", AdminID: "admin",
	}); err != nil {
		t.Fatalf("Review: %v", err)
	}

	svc.WithClock(func() time.Time { return testNow.Add(time.Minute) })
	second, err := svc.Submit(ctx, SubmitInput{
		CourseID: "c1", LessonID: "l1", UserID: "u1", TaskLink: "https://example.com/v2",
	})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if second.Status != StatusPending || second.AdminFeedback != "" {
		t.Fatalf("resubmission must start fresh: %+v", second)
	}

	latest, err := svc.LatestFor(ctx, "c1", "l1", "u1")
	if err != nil {
		t.Fatalf("LatestFor: %v", err)
	}
	if latest.ID != second.ID {
		t.Fatalf("latest = %s, want %s", latest.ID, second.ID)
	}

	hist, err := svc.subs.History(ctx, "c1", "l1", "u1")
	if err != nil || len(hist) != 2 {
		t.Fatalf("history: %v (len=%d)", err, len(hist))
	}
	if hist[0].Status != StatusFailed {
		t.Fatalf("rejected row lost: %+v", hist[0])
	}
}

func TestSubmitValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, SubmitInput{CourseID: "c1", LessonID: "l1", UserID: "u1"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty payload: err = %v, want ErrValidation", err)
	}
	if _, err := svc.Submit(ctx, SubmitInput{CourseID: "c1", LessonID: "l1", TaskLink: "x"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing user: err = %v, want ErrValidation", err)
	}
	if _, err := svc.Submit(ctx, SubmitInput{
		CourseID: "c1", LessonID: "l2", UserID: "u1", TaskLink: "x",
	}); !errors.Is(err, course.ErrNotFound) {
		t.Fatalf("lesson without task entry: err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Submit(ctx, SubmitInput{
		CourseID: "c1", LessonID: "l3", UserID: "u1", TaskLink: "x",
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("disabled entry: err = %v, want ErrValidation", err)
	}
}
