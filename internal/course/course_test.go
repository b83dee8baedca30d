package course

import (
	"context"
	"errors"
	"testing"
	"time"
)

func validQuestion() Question {
	return Question{Text: "pick one", Options: []string{"a", "b", "c"}, CorrectAnswer: 1}
}

func TestQuestionValidate(t *testing.T) {
	q := validQuestion()
	if err := q.Validate(); err != nil {
		t.Fatalf("valid question rejected: %v", err)
	}

	cases := map[string]Question{
		"no text":          {Options: []string{"a", "b"}, CorrectAnswer: 0},
		"one option":       {Text: "x", Options: []string{"a"}, CorrectAnswer: 0},
		"five options":     {Text: "x", Options: []string{"a", "b", "c", "d", "e"}, CorrectAnswer: 0},
		"index too high":   {Text: "x", Options: []string{"a", "b"}, CorrectAnswer: 2},
		"negative index":   {Text: "x", Options: []string{"a", "b"}, CorrectAnswer: -1},
	}
	for name, q := range cases {
		if err := q.Validate(); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: err = %v, want ErrValidation", name, err)
		}
	}
}

func TestAssessmentValidateWindow(t *testing.T) {
	open := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	closed := open.Add(-time.Hour)
	a := Assessment{Title: "Final", OpenDate: &open, CloseDate: &closed,
		Questions: []Question{validQuestion()}}
	if err := a.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("close before open: err = %v, want ErrValidation", err)
	}
}

func TestEntryRequirementValidate(t *testing.T) {
	mcq := &Assessment{Title: "Entry", Questions: []Question{validQuestion()}}
	task := &TaskSpec{Description: "do the thing"}

	good := []EntryRequirement{
		{Kind: EntryMCQ, MCQ: mcq},
		{Kind: EntryTask, Task: task},
	}
	for i, e := range good {
		if err := e.Validate(); err != nil {
			t.Errorf("good[%d]: %v", i, err)
		}
	}

	bad := []EntryRequirement{
		{Kind: EntryMCQ},                        // missing payload
		{Kind: EntryTask},                       // missing payload
		{Kind: EntryMCQ, MCQ: mcq, Task: task},  // both payloads
		{Kind: EntryTask, MCQ: mcq, Task: task}, // both payloads
		{Kind: "essay", Task: task},             // unknown kind
	}
	for i, e := range bad {
		if err := e.Validate(); !errors.Is(err, ErrValidation) {
			t.Errorf("bad[%d]: err = %v, want ErrValidation", i, err)
		}
	}
}

func structuredCourse() Course {
	return Course{
		ID:    "c1",
		Title: "Go Basics",
		Units: []Unit{{
			ID: "u1", Title: "Unit One",
			Lessons: []Lesson{{
				ID: "l1", Title: "Lesson One",
				Exams:     []Assessment{{ID: "e1", Title: "Final", Questions: []Question{validQuestion()}}},
				Trainings: []Assessment{{ID: "t1", Title: "Drill", Questions: []Question{validQuestion()}}},
			}},
		}},
		Lessons: []Lesson{{
			ID: "l2", Title: "Direct",
			Entry: &EntryRequirement{
				Kind: EntryMCQ, Enabled: true,
				MCQ: &Assessment{ID: "en1", Title: "Entry", Questions: []Question{validQuestion()}},
			},
		}},
	}
}

func TestFindLessonUnitScoped(t *testing.T) {
	c := structuredCourse()
	lesson, unit, err := FindLesson(&c, "u1", "l1")
	if err != nil {
		t.Fatalf("FindLesson: %v", err)
	}
	if lesson.ID != "l1" || unit == nil || unit.ID != "u1" {
		t.Fatalf("got lesson=%v unit=%v", lesson, unit)
	}
}

func TestFindLessonDirect(t *testing.T) {
	c := structuredCourse()
	lesson, unit, err := FindLesson(&c, "", "l2")
	if err != nil {
		t.Fatalf("FindLesson: %v", err)
	}
	if lesson.ID != "l2" || unit != nil {
		t.Fatalf("got lesson=%v unit=%v", lesson, unit)
	}
}

// A direct lookup must not fall through to unit lessons, and vice versa.
func TestFindLessonPathsAreDistinct(t *testing.T) {
	c := structuredCourse()
	if _, _, err := FindLesson(&c, "", "l1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unit lesson via direct path: err = %v, want ErrNotFound", err)
	}
	if _, _, err := FindLesson(&c, "u1", "l2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("direct lesson via unit path: err = %v, want ErrNotFound", err)
	}
	if _, _, err := FindLesson(&c, "ghost", "l1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown unit: err = %v, want ErrNotFound", err)
	}
}

func TestFindAssessment(t *testing.T) {
	c := structuredCourse()
	lesson, _, _ := FindLesson(&c, "u1", "l1")

	if a, err := FindAssessment(lesson, KindExam, "e1"); err != nil || a.ID != "e1" {
		t.Fatalf("exam: a=%v err=%v", a, err)
	}
	if a, err := FindAssessment(lesson, KindTraining, "t1"); err != nil || a.ID != "t1" {
		t.Fatalf("training: a=%v err=%v", a, err)
	}
	// kinds do not cross over
	if _, err := FindAssessment(lesson, KindTraining, "e1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("exam via training kind: err = %v, want ErrNotFound", err)
	}

	entry, _, _ := FindLesson(&c, "", "l2")
	a, err := FindAssessment(entry, KindEntry, "ignored")
	if err != nil || a.ID != "en1" {
		t.Fatalf("entry: a=%v err=%v", a, err)
	}
	if _, err := FindAssessment(lesson, KindEntry, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("lesson without entry: err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	c := structuredCourse()
	if err := s.Put(ctx, c); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "c1")
	if err != nil || got.Title != "Go Basics" {
		t.Fatalf("Get: %v (%+v)", err, got)
	}
	list, err := s.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List: %v (len=%d)", err, len(list))
	}
	if list[0].Units != 1 || list[0].Lessons != 2 {
		t.Fatalf("summary wrong: %+v", list[0])
	}
	if err := s.Delete(ctx, "c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after delete: err = %v, want ErrNotFound", err)
	}
}
