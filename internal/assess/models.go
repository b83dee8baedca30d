package assess

import (
	"time"

	"github.com/learnloop/learnloop-lms/internal/course"
)

// Answer is one graded answer inside a recorded attempt.
type Answer struct {
	QuestionIndex  int  `json:"question_index"`
	SelectedAnswer int  `json:"selected_answer"`
	IsCorrect      bool `json:"is_correct"`
}

// Attempt is the canonical record of a graded submission. It is append-only:
// learners never mutate an attempt after it is scored; the only removal path
// is the admin clear-attempts operation.
type Attempt struct {
	ID               string                `json:"id"`
	CourseID         string                `json:"course_id"`
	UnitID           string                `json:"unit_id,omitempty"`
	LessonID         string                `json:"lesson_id"`
	AssessmentID     string                `json:"assessment_id"`
	Kind             course.AssessmentKind `json:"kind"`
	UserID           string                `json:"user_id"`
	Score            int                   `json:"score"`
	TotalQuestions   int                   `json:"total_questions"`
	TimeTakenMinutes int                   `json:"time_taken_minutes"`
	Answers          []Answer              `json:"answers"`
	TakenAt          time.Time             `json:"taken_at"`
}

// SubmittedAnswer is the learner's raw payload: unordered, possibly a strict
// subset of the assessment's questions.
type SubmittedAnswer struct {
	QuestionIndex  int `json:"question_index"`
	SelectedAnswer int `json:"selected_answer"`
}
