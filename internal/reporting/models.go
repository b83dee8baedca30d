package reporting

import "time"

// ExamType enumerates the graded assessment kinds mirrored into the
// reporting store. There is deliberately no entry variant: entry attempts
// stay in the authoritative attempt history only.
type ExamType string

const (
	TypeTraining ExamType = "training"
	TypeExam     ExamType = "exam"
)

// Record is the denormalized, read-optimized copy of one graded attempt.
// Created once, never updated. It is a projection of the attempt history and
// can be rebuilt from it; it is never consulted for gating decisions.
type Record struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	UserName         string    `json:"user_name,omitempty"`
	UserEmail        string    `json:"user_email,omitempty"`
	UserPhone        string    `json:"user_phone,omitempty"`
	CourseID         string    `json:"course_id"`
	CourseTitle      string    `json:"course_title"`
	UnitID           string    `json:"unit_id,omitempty"`
	UnitTitle        string    `json:"unit_title,omitempty"`
	LessonID         string    `json:"lesson_id"`
	LessonTitle      string    `json:"lesson_title"`
	ExamType         ExamType  `json:"exam_type"`
	Score            int       `json:"score"`
	TotalQuestions   int       `json:"total_questions"`
	CorrectAnswers   int       `json:"correct_answers"`
	WrongAnswers     int       `json:"wrong_answers"`
	Percentage       int       `json:"percentage"`
	TimeTakenMinutes int       `json:"time_taken_minutes"`
	TimeLimitMinutes int       `json:"time_limit_minutes"`
	PassingScore     int       `json:"passing_score"`
	Passed           bool      `json:"passed"`
	AnswersJSON      string    `json:"answers,omitempty"`
	CompletedAt      time.Time `json:"completed_at"`
}

// GroupStats is one (course, lesson, examType) bucket on the statistics
// dashboard.
type GroupStats struct {
	CourseID      string   `json:"course_id"`
	CourseTitle   string   `json:"course_title"`
	LessonID      string   `json:"lesson_id"`
	LessonTitle   string   `json:"lesson_title"`
	ExamType      ExamType `json:"exam_type"`
	TotalAttempts int      `json:"total_attempts"`
	AverageScore  float64  `json:"average_score"` // mean percentage
	PassedCount   int      `json:"passed_count"`
	FailedCount   int      `json:"failed_count"`
	PassRate      float64  `json:"pass_rate"`
}

// ListOpts filters the flat record listing. Search matches learner
// name/email/phone and course/lesson titles, case-insensitively.
type ListOpts struct {
	CourseID string
	LessonID string
	ExamType ExamType
	Passed   *bool
	Search   string
	Limit    int
	Offset   int
	Sort     string // whitelisted: completed_at|score|percentage [asc|desc]
}

type Page struct {
	Items  []Record `json:"items"`
	Total  int      `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

// UserActivity ranks learners by volume of graded attempts.
type UserActivity struct {
	UserID       string  `json:"user_id"`
	UserName     string  `json:"user_name,omitempty"`
	Attempts     int     `json:"attempts"`
	AverageScore float64 `json:"average_score"`
}

// UserPerformance ranks learners by mean percentage, gated by a minimum
// attempt floor so a single lucky attempt cannot top the board.
type UserPerformance struct {
	UserID       string  `json:"user_id"`
	UserName     string  `json:"user_name,omitempty"`
	Attempts     int     `json:"attempts"`
	AverageScore float64 `json:"average_score"`
	PassRate     float64 `json:"pass_rate"`
}
