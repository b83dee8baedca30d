package assess

import (
	"fmt"
	"math"

	"github.com/learnloop/learnloop-lms/internal/course"
)

// ReviewRow pairs a question with the learner's answer for post-submission
// feedback. SelectedAnswer is -1 when the question was left unanswered.
type ReviewRow struct {
	QuestionIndex  int      `json:"question_index"`
	Text           string   `json:"text"`
	Options        []string `json:"options"`
	SelectedAnswer int      `json:"selected_answer"`
	CorrectAnswer  int      `json:"correct_answer"`
	IsCorrect      bool     `json:"is_correct"`
	Explanation    string   `json:"explanation,omitempty"`
}

// Result is a scored submission ready for persistence.
type Result struct {
	Score          int         `json:"score"`
	TotalQuestions int         `json:"total_questions"`
	Percentage     int         `json:"percentage"`
	Passed         bool        `json:"passed"`
	Answers        []Answer    `json:"answers"`
	Review         []ReviewRow `json:"review"`
}

// Score grades a submission against the question list. Answers referencing a
// question index outside the list are skipped silently: partial submissions
// are legal and unanswered questions simply count as wrong. TotalQuestions is
// always the full question count, never the number of submitted answers.
// The pass boundary is inclusive: percentage >= passPercent passes.
func Score(questions []course.Question, submitted []SubmittedAnswer, passPercent int) (Result, error) {
	total := len(questions)
	if total == 0 {
		return Result{}, fmt.Errorf("%w: assessment has no questions", ErrInvalidState)
	}

	answers := make([]Answer, 0, len(submitted))
	selected := make(map[int]int, len(submitted)) // questionIndex -> selected option
	correct := 0
	for _, sa := range submitted {
		if sa.QuestionIndex < 0 || sa.QuestionIndex >= total {
			continue
		}
		ok := sa.SelectedAnswer == questions[sa.QuestionIndex].CorrectAnswer
		if ok {
			correct++
		}
		answers = append(answers, Answer{
			QuestionIndex:  sa.QuestionIndex,
			SelectedAnswer: sa.SelectedAnswer,
			IsCorrect:      ok,
		})
		selected[sa.QuestionIndex] = sa.SelectedAnswer
	}

	pct := int(math.Round(float64(correct) / float64(total) * 100))

	review := make([]ReviewRow, total)
	for i, q := range questions {
		sel, answered := selected[i]
		if !answered {
			sel = -1
		}
		review[i] = ReviewRow{
			QuestionIndex:  i,
			Text:           q.Text,
			Options:        q.Options,
			SelectedAnswer: sel,
			CorrectAnswer:  q.CorrectAnswer,
			IsCorrect:      answered && sel == q.CorrectAnswer,
			Explanation:    q.Explanation,
		}
	}

	return Result{
		Score:          correct,
		TotalQuestions: total,
		Percentage:     pct,
		Passed:         pct >= passPercent,
		Answers:        answers,
		Review:         review,
	}, nil
}
