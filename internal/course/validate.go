package course

import (
	"fmt"
	"strings"
)

// Validate enforces the question invariants: 2..4 options and a correct
// index inside the option range.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: question text required", ErrValidation)
	}
	if n := len(q.Options); n < 2 || n > 4 {
		return fmt.Errorf("%w: question needs 2-4 options, got %d", ErrValidation, n)
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("%w: correct answer %d out of range", ErrValidation, q.CorrectAnswer)
	}
	return nil
}

func (a *Assessment) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("%w: assessment title required", ErrValidation)
	}
	if a.TimeLimitMinutes < 0 {
		return fmt.Errorf("%w: negative time limit", ErrValidation)
	}
	if a.OpenDate != nil && a.CloseDate != nil && a.CloseDate.Before(*a.OpenDate) {
		return fmt.Errorf("%w: close date before open date", ErrValidation)
	}
	for i := range a.Questions {
		if err := a.Questions[i].Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}
	return nil
}

func (e *EntryRequirement) Validate() error {
	switch e.Kind {
	case EntryMCQ:
		if e.MCQ == nil {
			return fmt.Errorf("%w: mcq entry without assessment", ErrValidation)
		}
		if e.Task != nil {
			return fmt.Errorf("%w: mcq entry carries a task payload", ErrValidation)
		}
		return e.MCQ.Validate()
	case EntryTask:
		if e.Task == nil {
			return fmt.Errorf("%w: task entry without task spec", ErrValidation)
		}
		if e.MCQ != nil {
			return fmt.Errorf("%w: task entry carries an mcq payload", ErrValidation)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown entry kind %q", ErrValidation, e.Kind)
	}
}

func (l *Lesson) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return fmt.Errorf("%w: lesson title required", ErrValidation)
	}
	for i := range l.Exams {
		if err := l.Exams[i].Validate(); err != nil {
			return fmt.Errorf("exam %d: %w", i, err)
		}
	}
	for i := range l.Trainings {
		if err := l.Trainings[i].Validate(); err != nil {
			return fmt.Errorf("training %d: %w", i, err)
		}
	}
	if l.Entry != nil {
		if err := l.Entry.Validate(); err != nil {
			return fmt.Errorf("entry: %w", err)
		}
	}
	return nil
}

func (c *Course) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: course title required", ErrValidation)
	}
	for ui := range c.Units {
		for li := range c.Units[ui].Lessons {
			if err := c.Units[ui].Lessons[li].Validate(); err != nil {
				return fmt.Errorf("unit %d lesson %d: %w", ui, li, err)
			}
		}
	}
	for li := range c.Lessons {
		if err := c.Lessons[li].Validate(); err != nil {
			return fmt.Errorf("lesson %d: %w", li, err)
		}
	}
	return nil
}
