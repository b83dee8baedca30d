package assess

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/learnloop/learnloop-lms/internal/course"
)

// SQLAttempts persists attempts one row per attempt. An append is a single
// INSERT, which gives the atomic "push to sub-list" guarantee the embedded
// aggregate could not.
type SQLAttempts struct {
	db *sql.DB
}

func NewSQLAttempts(db *sql.DB) *SQLAttempts { return &SQLAttempts{db: db} }

func (s *SQLAttempts) Append(ctx context.Context, a Attempt) error {
	aj, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attempts (id,course_id,unit_id,lesson_id,assessment_id,kind,user_id,score,total_questions,time_taken_min,answers_json,taken_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		a.ID, a.CourseID, a.UnitID, a.LessonID, a.AssessmentID, string(a.Kind), a.UserID,
		a.Score, a.TotalQuestions, a.TimeTakenMinutes, string(aj), a.TakenAt.Unix())
	return err
}

func (s *SQLAttempts) Has(ctx context.Context, courseID, lessonID string, kind course.AssessmentKind, userID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM attempts WHERE course_id=$1 AND lesson_id=$2 AND kind=$3 AND user_id=$4`,
		courseID, lessonID, string(kind), userID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLAttempts) ListForUser(ctx context.Context, courseID, lessonID, assessmentID, userID string) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,course_id,unit_id,lesson_id,assessment_id,kind,user_id,score,total_questions,time_taken_min,answers_json,taken_at
		 FROM attempts
		 WHERE course_id=$1 AND lesson_id=$2 AND assessment_id=$3 AND user_id=$4
		 ORDER BY taken_at ASC`,
		courseID, lessonID, assessmentID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttempts(rows)
}

func (s *SQLAttempts) ListGraded(ctx context.Context, courseID string) ([]Attempt, error) {
	q := `SELECT id,course_id,unit_id,lesson_id,assessment_id,kind,user_id,score,total_questions,time_taken_min,answers_json,taken_at
		 FROM attempts WHERE kind IN ('training','exam')`
	args := []any{}
	if courseID != "" {
		q += ` AND course_id=$1`
		args = append(args, courseID)
	}
	q += ` ORDER BY taken_at ASC`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttempts(rows)
}

func (s *SQLAttempts) Clear(ctx context.Context, courseID, lessonID, assessmentID, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM attempts WHERE course_id=$1 AND lesson_id=$2 AND assessment_id=$3 AND user_id=$4`,
		courseID, lessonID, assessmentID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanAttempts(rows *sql.Rows) ([]Attempt, error) {
	var out []Attempt
	for rows.Next() {
		var a Attempt
		var kind, aj string
		var taken int64
		if err := rows.Scan(&a.ID, &a.CourseID, &a.UnitID, &a.LessonID, &a.AssessmentID, &kind,
			&a.UserID, &a.Score, &a.TotalQuestions, &a.TimeTakenMinutes, &aj, &taken); err != nil {
			return nil, err
		}
		a.Kind = course.AssessmentKind(kind)
		if err := json.Unmarshal([]byte(aj), &a.Answers); err != nil {
			a.Answers = nil
		}
		a.TakenAt = time.Unix(taken, 0)
		out = append(out, a)
	}
	return out, rows.Err()
}
