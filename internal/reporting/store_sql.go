package reporting

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Insert(ctx context.Context, r Record) error {
	passed := 0
	if r.Passed {
		passed = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exam_results (id,user_id,user_name,user_email,user_phone,
		   course_id,course_title,unit_id,unit_title,lesson_id,lesson_title,
		   exam_type,score,total_questions,correct_answers,wrong_answers,percentage,
		   time_taken_min,time_limit_min,passing_score,passed,answers_json,completed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`,
		r.ID, r.UserID, r.UserName, r.UserEmail, r.UserPhone,
		r.CourseID, r.CourseTitle, r.UnitID, r.UnitTitle, r.LessonID, r.LessonTitle,
		string(r.ExamType), r.Score, r.TotalQuestions, r.CorrectAnswers, r.WrongAnswers, r.Percentage,
		r.TimeTakenMinutes, r.TimeLimitMinutes, r.PassingScore, passed, r.AnswersJSON, r.CompletedAt.Unix())
	return err
}

func (s *SQLStore) Delete(ctx context.Context, courseID string) (int64, error) {
	var res sql.Result
	var err error
	if courseID == "" {
		res, err = s.db.ExecContext(ctx, `DELETE FROM exam_results`)
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM exam_results WHERE course_id=$1`, courseID)
	}
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLStore) GroupStats(ctx context.Context, courseID string) ([]GroupStats, error) {
	q := `SELECT course_id, MAX(course_title), lesson_id, MAX(lesson_title), exam_type,
	        COUNT(1), AVG(percentage), SUM(passed), COUNT(1)-SUM(passed)
	      FROM exam_results`
	args := []any{}
	if courseID != "" {
		q += ` WHERE course_id=$1`
		args = append(args, courseID)
	}
	q += ` GROUP BY course_id, lesson_id, exam_type ORDER BY course_id, lesson_id, exam_type`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []GroupStats
	for rows.Next() {
		var g GroupStats
		var typ string
		if err := rows.Scan(&g.CourseID, &g.CourseTitle, &g.LessonID, &g.LessonTitle, &typ,
			&g.TotalAttempts, &g.AverageScore, &g.PassedCount, &g.FailedCount); err != nil {
			return nil, err
		}
		g.ExamType = ExamType(typ)
		if g.TotalAttempts > 0 {
			g.PassRate = float64(g.PassedCount) / float64(g.TotalAttempts)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) (Page, error) {
	where, args := buildFilters(opts)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM exam_results`+where, args...).Scan(&total); err != nil {
		return Page{}, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	field, asc := parseSort(opts.Sort)
	dir := "DESC"
	if asc {
		dir = "ASC"
	}
	q := `SELECT id,user_id,user_name,user_email,user_phone,
	        course_id,course_title,unit_id,unit_title,lesson_id,lesson_title,
	        exam_type,score,total_questions,correct_answers,wrong_answers,percentage,
	        time_taken_min,time_limit_min,passing_score,passed,answers_json,completed_at
	      FROM exam_results` + where +
		fmt.Sprintf(` ORDER BY %s %s LIMIT %d OFFSET %d`, field, dir, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	page := Page{Limit: limit, Offset: opts.Offset, Total: total}
	for rows.Next() {
		var r Record
		var typ string
		var passed int
		var completed int64
		if err := rows.Scan(&r.ID, &r.UserID, &r.UserName, &r.UserEmail, &r.UserPhone,
			&r.CourseID, &r.CourseTitle, &r.UnitID, &r.UnitTitle, &r.LessonID, &r.LessonTitle,
			&typ, &r.Score, &r.TotalQuestions, &r.CorrectAnswers, &r.WrongAnswers, &r.Percentage,
			&r.TimeTakenMinutes, &r.TimeLimitMinutes, &r.PassingScore, &passed, &r.AnswersJSON, &completed); err != nil {
			return Page{}, err
		}
		r.ExamType = ExamType(typ)
		r.Passed = passed != 0
		r.CompletedAt = time.Unix(completed, 0)
		page.Items = append(page.Items, r)
	}
	return page, rows.Err()
}

func buildFilters(opts ListOpts) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if opts.CourseID != "" {
		add("course_id=$%d", opts.CourseID)
	}
	if opts.LessonID != "" {
		add("lesson_id=$%d", opts.LessonID)
	}
	if opts.ExamType != "" {
		add("exam_type=$%d", string(opts.ExamType))
	}
	if opts.Passed != nil {
		p := 0
		if *opts.Passed {
			p = 1
		}
		add("passed=$%d", p)
	}
	if needle := strings.TrimSpace(opts.Search); needle != "" {
		args = append(args, "%"+strings.ToLower(needle)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			`(LOWER(user_name) LIKE $%d OR LOWER(user_email) LIKE $%d OR LOWER(user_phone) LIKE $%d
			  OR LOWER(course_title) LIKE $%d OR LOWER(lesson_title) LIKE $%d)`, n, n, n, n, n))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *SQLStore) TopActive(ctx context.Context, limit int) ([]UserActivity, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT user_id, MAX(user_name), COUNT(1), AVG(percentage)
		 FROM exam_results GROUP BY user_id
		 ORDER BY COUNT(1) DESC LIMIT %d`, limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []UserActivity
	for rows.Next() {
		var a UserActivity
		if err := rows.Scan(&a.UserID, &a.UserName, &a.Attempts, &a.AverageScore); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) TopPerformers(ctx context.Context, limit, minAttempts int) ([]UserPerformance, error) {
	if limit <= 0 {
		limit = 10
	}
	if minAttempts <= 0 {
		minAttempts = 1
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT user_id, MAX(user_name), COUNT(1), AVG(percentage),
		        CAST(SUM(passed) AS REAL)/COUNT(1)
		 FROM exam_results GROUP BY user_id
		 HAVING COUNT(1) >= %d
		 ORDER BY AVG(percentage) DESC LIMIT %d`, minAttempts, limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []UserPerformance
	for rows.Next() {
		var p UserPerformance
		if err := rows.Scan(&p.UserID, &p.UserName, &p.Attempts, &p.AverageScore, &p.PassRate); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
