package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const submissionCols = `id,course_id,unit_id,lesson_id,user_id,task_link,task_image,status,admin_feedback,submitted_at,reviewed_at,reviewed_by`

func (s *SQLStore) Insert(ctx context.Context, sub TaskSubmission) error {
	var reviewedAt *int64
	if sub.ReviewedAt != nil {
		v := sub.ReviewedAt.Unix()
		reviewedAt = &v
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_submissions (`+submissionCols+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		sub.ID, sub.CourseID, sub.UnitID, sub.LessonID, sub.UserID, sub.TaskLink, sub.TaskImage,
		string(sub.Status), sub.AdminFeedback, sub.SubmittedAt.Unix(), reviewedAt, sub.ReviewedBy)
	return err
}

func (s *SQLStore) Update(ctx context.Context, sub TaskSubmission) error {
	var reviewedAt *int64
	if sub.ReviewedAt != nil {
		v := sub.ReviewedAt.Unix()
		reviewedAt = &v
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE task_submissions SET status=$1, admin_feedback=$2, reviewed_at=$3, reviewed_by=$4 WHERE id=$5`,
		string(sub.Status), sub.AdminFeedback, reviewedAt, sub.ReviewedBy, sub.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: submission %s not found", ErrPrecondition, sub.ID)
	}
	return nil
}

func (s *SQLStore) Latest(ctx context.Context, courseID, lessonID, userID string) (TaskSubmission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+submissionCols+` FROM task_submissions
		 WHERE course_id=$1 AND lesson_id=$2 AND user_id=$3
		 ORDER BY submitted_at DESC LIMIT 1`,
		courseID, lessonID, userID)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TaskSubmission{}, fmt.Errorf("%w: no submission for user %s", ErrPrecondition, userID)
	}
	return sub, err
}

func (s *SQLStore) ListByStatus(ctx context.Context, st Status) ([]TaskSubmission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionCols+` FROM task_submissions WHERE status=$1 ORDER BY submitted_at ASC`,
		string(st))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

func (s *SQLStore) History(ctx context.Context, courseID, lessonID, userID string) ([]TaskSubmission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionCols+` FROM task_submissions
		 WHERE course_id=$1 AND lesson_id=$2 AND user_id=$3
		 ORDER BY submitted_at ASC`,
		courseID, lessonID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (TaskSubmission, error) {
	var sub TaskSubmission
	var status string
	var submitted int64
	var reviewed sql.NullInt64
	if err := row.Scan(&sub.ID, &sub.CourseID, &sub.UnitID, &sub.LessonID, &sub.UserID,
		&sub.TaskLink, &sub.TaskImage, &status, &sub.AdminFeedback, &submitted, &reviewed, &sub.ReviewedBy); err != nil {
		return TaskSubmission{}, err
	}
	sub.Status = Status(status)
	sub.SubmittedAt = time.Unix(submitted, 0)
	if reviewed.Valid {
		t := time.Unix(reviewed.Int64, 0)
		sub.ReviewedAt = &t
	}
	return sub, nil
}

func scanSubmissions(rows *sql.Rows) ([]TaskSubmission, error) {
	var out []TaskSubmission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}
