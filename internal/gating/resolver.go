package gating

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/learnloop/learnloop-lms/internal/assess"
	"github.com/learnloop/learnloop-lms/internal/course"
	"github.com/learnloop/learnloop-lms/internal/review"
)

// State is the gate position for one (lesson, learner) pair.
type State string

const (
	// StateNotGated: no entry requirement, or it is disabled. Everything
	// visible.
	StateNotGated State = "not_gated"
	// StateLocked: an enabled entry requirement is unmet.
	StateLocked State = "locked"
	// StateUnlocked: the entry requirement is met. Unlock never reverts on
	// its own; only clearing the qualifying attempt or a failed re-review
	// can functionally re-lock.
	StateUnlocked State = "unlocked"
)

// Resolver computes gate state from the learner's attempt and submission
// history.
type Resolver struct {
	attempts assess.AttemptStore
	subs     review.Store
}

func NewResolver(attempts assess.AttemptStore, subs review.Store) *Resolver {
	return &Resolver{attempts: attempts, subs: subs}
}

// Resolve evaluates the entry requirement variants exhaustively. The mcq
// gate is satisfied by attempt *existence* — the score is deliberately not
// consulted: entry exams gate on completion, not on passing.
func (r *Resolver) Resolve(ctx context.Context, courseID string, lesson *course.Lesson, userID string) (State, error) {
	entry := lesson.Entry
	if entry == nil || !entry.Enabled {
		return StateNotGated, nil
	}
	switch entry.Kind {
	case course.EntryMCQ:
		has, err := r.attempts.Has(ctx, courseID, lesson.ID, course.KindEntry, userID)
		if err != nil {
			return StateLocked, err
		}
		if has {
			return StateUnlocked, nil
		}
		return StateLocked, nil
	case course.EntryTask:
		sub, err := r.subs.Latest(ctx, courseID, lesson.ID, userID)
		if err != nil {
			if errors.Is(err, review.ErrPrecondition) {
				return StateLocked, nil // never submitted
			}
			return StateLocked, err
		}
		if sub.Status == review.StatusSuccess {
			return StateUnlocked, nil
		}
		return StateLocked, nil
	default:
		return StateLocked, fmt.Errorf("unknown entry kind %q", entry.Kind)
	}
}

// QuestionView is a learner-safe question: no correct index, no explanation.
type QuestionView struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Image   string   `json:"image,omitempty"`
}

type AssessmentView struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	TimeLimitMinutes int            `json:"time_limit_minutes"`
	OpenDate         *string        `json:"open_date,omitempty"`
	CloseDate        *string        `json:"close_date,omitempty"`
	Questions        []QuestionView `json:"questions"`
}

// LockedCounts tells a locked client how many items wait behind the gate
// without leaking any of them.
type LockedCounts struct {
	Videos    int `json:"videos"`
	Documents int `json:"documents"`
	Exams     int `json:"exams"`
	Trainings int `json:"trainings"`
}

type EntryView struct {
	Kind       course.EntryKind       `json:"kind"`
	Enabled    bool                   `json:"enabled"`
	Assessment *AssessmentView        `json:"assessment,omitempty"`
	Task       *course.TaskSpec       `json:"task,omitempty"`
	Submission *review.TaskSubmission `json:"submission,omitempty"` // learner's latest
}

// LessonView is the per-learner lesson payload: full collections when
// unlocked, bare counts when locked.
type LessonView struct {
	LessonID  string               `json:"lesson_id"`
	Title     string               `json:"title"`
	State     State                `json:"state"`
	Videos    []course.ContentItem `json:"videos,omitempty"`
	Documents []course.ContentItem `json:"documents,omitempty"`
	Exams     []AssessmentView     `json:"exams,omitempty"`
	Trainings []AssessmentView     `json:"trainings,omitempty"`
	Locked    *LockedCounts        `json:"locked,omitempty"`
	Entry     *EntryView           `json:"entry,omitempty"`
}

// BuildView resolves the gate and shapes the lesson for one learner.
func (r *Resolver) BuildView(ctx context.Context, courseID string, lesson *course.Lesson, userID string) (LessonView, error) {
	state, err := r.Resolve(ctx, courseID, lesson, userID)
	if err != nil {
		return LessonView{}, err
	}
	view := LessonView{LessonID: lesson.ID, Title: lesson.Title, State: state}

	if lesson.Entry != nil {
		ev := &EntryView{Kind: lesson.Entry.Kind, Enabled: lesson.Entry.Enabled}
		switch lesson.Entry.Kind {
		case course.EntryMCQ:
			if lesson.Entry.MCQ != nil {
				av := sanitize(*lesson.Entry.MCQ)
				ev.Assessment = &av
			}
		case course.EntryTask:
			ev.Task = lesson.Entry.Task
			if sub, err := r.subs.Latest(ctx, courseID, lesson.ID, userID); err == nil {
				ev.Submission = &sub
			}
		}
		view.Entry = ev
	}

	if state == StateLocked {
		view.Locked = &LockedCounts{
			Videos:    len(lesson.Videos),
			Documents: len(lesson.Documents),
			Exams:     len(lesson.Exams),
			Trainings: len(lesson.Trainings),
		}
		return view, nil
	}

	view.Videos = lesson.Videos
	view.Documents = lesson.Documents
	view.Exams = sanitizeAll(lesson.Exams)
	view.Trainings = sanitizeAll(lesson.Trainings)
	return view, nil
}

// sanitize strips answer keys and explanations before a payload reaches a
// learner, mirroring how exams are served everywhere else.
func sanitize(a course.Assessment) AssessmentView {
	av := AssessmentView{
		ID:               a.ID,
		Title:            a.Title,
		TimeLimitMinutes: a.TimeLimitMinutes,
		Questions:        make([]QuestionView, len(a.Questions)),
	}
	if a.OpenDate != nil {
		s := a.OpenDate.UTC().Format(time.RFC3339)
		av.OpenDate = &s
	}
	if a.CloseDate != nil {
		s := a.CloseDate.UTC().Format(time.RFC3339)
		av.CloseDate = &s
	}
	for i, q := range a.Questions {
		av.Questions[i] = QuestionView{Text: q.Text, Options: q.Options, Image: q.Image}
	}
	return av
}

func sanitizeAll(as []course.Assessment) []AssessmentView {
	if len(as) == 0 {
		return nil
	}
	out := make([]AssessmentView, len(as))
	for i := range as {
		out[i] = sanitize(as[i])
	}
	return out
}
