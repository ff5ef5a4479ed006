package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// SQLStore implements Store against sqlite or postgres. Placeholders are $n,
// which both drivers accept.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

/* ---------------- Exams ---------------- */

func (s *SQLStore) PutExam(ctx context.Context, e Exam) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO exams
		(id,title,course_id,teacher_id,start_time,end_time,exam_type,allow_back_nav,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		e.ID, e.Title, e.CourseID, e.TeacherID, e.StartTime, e.EndTime, e.ExamType, e.AllowBackNavigation, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert exam: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateExam(ctx context.Context, e Exam) error {
	res, err := s.db.ExecContext(ctx, `UPDATE exams
		SET title=$1, start_time=$2, end_time=$3, exam_type=$4, allow_back_nav=$5
		WHERE id=$6`,
		e.Title, e.StartTime, e.EndTime, e.ExamType, e.AllowBackNavigation, e.ID)
	if err != nil {
		return fmt.Errorf("update exam: %w", err)
	}
	return requireRow(res)
}

const examCols = `id,title,course_id,teacher_id,start_time,end_time,exam_type,allow_back_nav,created_at`

func scanExam(row interface{ Scan(...any) error }) (Exam, error) {
	var e Exam
	err := row.Scan(&e.ID, &e.Title, &e.CourseID, &e.TeacherID, &e.StartTime, &e.EndTime,
		&e.ExamType, &e.AllowBackNavigation, &e.CreatedAt)
	return e, err
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	e, err := scanExam(s.db.QueryRowContext(ctx, `SELECT `+examCols+` FROM exams WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Exam{}, ErrNotFound
	}
	if err != nil {
		return Exam{}, fmt.Errorf("get exam: %w", err)
	}
	return e, nil
}

func (s *SQLStore) DeleteExam(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exams WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	return requireRow(res)
}

func (s *SQLStore) listExams(ctx context.Context, query string, args ...any) ([]Exam, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	defer rows.Close()
	out := []Exam{}
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListExamsByTeacher(ctx context.Context, teacherID string) ([]Exam, error) {
	return s.listExams(ctx, `SELECT `+examCols+` FROM exams WHERE teacher_id=$1 ORDER BY start_time DESC`, teacherID)
}

func (s *SQLStore) ListExamsByCourse(ctx context.Context, courseID string) ([]Exam, error) {
	return s.listExams(ctx, `SELECT `+examCols+` FROM exams WHERE course_id=$1 ORDER BY start_time DESC`, courseID)
}

func (s *SQLStore) ListActiveExamsForStudent(ctx context.Context, studentID string, now int64) ([]Exam, error) {
	return s.listExams(ctx, `SELECT `+examCols+` FROM exams e
		WHERE e.start_time <= $1 AND e.end_time >= $1
		  AND EXISTS (SELECT 1 FROM exam_students es WHERE es.exam_id=e.id AND es.student_id=$2)
		  AND NOT EXISTS (SELECT 1 FROM attempts a WHERE a.exam_id=e.id AND a.student_id=$2 AND a.completed)
		ORDER BY e.end_time`, now, studentID)
}

func (s *SQLStore) ListUpcomingExamsForStudent(ctx context.Context, studentID string, now int64) ([]Exam, error) {
	return s.listExams(ctx, `SELECT `+examCols+` FROM exams e
		WHERE e.start_time > $1
		  AND EXISTS (SELECT 1 FROM exam_students es WHERE es.exam_id=e.id AND es.student_id=$2)
		  AND NOT EXISTS (SELECT 1 FROM attempts a WHERE a.exam_id=e.id AND a.student_id=$2 AND a.completed)
		ORDER BY e.start_time`, now, studentID)
}

func (s *SQLStore) CourseTeacher(ctx context.Context, courseID string) (string, error) {
	var teacherID string
	err := s.db.QueryRowContext(ctx, `SELECT teacher_id FROM courses WHERE id=$1`, courseID).Scan(&teacherID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("course teacher: %w", err)
	}
	return teacherID, nil
}

/* ---------------- Questions ---------------- */

const questionCols = `id,exam_id,text,image_path,option_count,option_a,option_b,option_c,option_d,option_e,correct_option,course_id`

func scanQuestion(row interface{ Scan(...any) error }) (Question, error) {
	var q Question
	err := row.Scan(&q.ID, &q.ExamID, &q.Text, &q.ImagePath, &q.OptionCount,
		&q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.OptionE, &q.CorrectOption, &q.CourseID)
	return q, err
}

func insertQuestion(ctx context.Context, ex interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}, q Question) error {
	_, err := ex.ExecContext(ctx, `INSERT INTO questions
		(id,exam_id,text,image_path,option_count,option_a,option_b,option_c,option_d,option_e,correct_option,course_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		q.ID, q.ExamID, q.Text, q.ImagePath, q.OptionCount,
		q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.OptionE, q.CorrectOption, q.CourseID)
	return err
}

func (s *SQLStore) PutQuestion(ctx context.Context, q Question) error {
	if err := insertQuestion(ctx, s.db, q); err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

// PutQuestions inserts all rows or none.
func (s *SQLStore) PutQuestions(ctx context.Context, qs []Question) error {
	if len(qs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	for _, q := range qs {
		if err := insertQuestion(ctx, tx, q); err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) UpdateQuestion(ctx context.Context, q Question) error {
	res, err := s.db.ExecContext(ctx, `UPDATE questions
		SET text=$1, image_path=$2, option_count=$3, option_a=$4, option_b=$5,
		    option_c=$6, option_d=$7, option_e=$8, correct_option=$9
		WHERE id=$10`,
		q.Text, q.ImagePath, q.OptionCount, q.OptionA, q.OptionB, q.OptionC, q.OptionD,
		q.OptionE, q.CorrectOption, q.ID)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return requireRow(res)
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx, `SELECT `+questionCols+` FROM questions WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, ErrNotFound
	}
	if err != nil {
		return Question{}, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return requireRow(res)
}

func (s *SQLStore) listQuestions(ctx context.Context, query string, args ...any) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListQuestions(ctx context.Context, examID string) ([]Question, error) {
	return s.listQuestions(ctx, `SELECT `+questionCols+` FROM questions WHERE exam_id=$1 ORDER BY id`, examID)
}

func (s *SQLStore) ListQuestionsByCourse(ctx context.Context, courseID string) ([]Question, error) {
	return s.listQuestions(ctx, `SELECT `+questionCols+` FROM questions WHERE course_id=$1 ORDER BY id`, courseID)
}

func (s *SQLStore) CountQuestions(ctx context.Context, examID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions WHERE exam_id=$1`, examID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

/* ---------------- Question bank ---------------- */

const bankCols = `id,teacher_id,course_id,text,image_path,option_count,option_a,option_b,option_c,option_d,option_e,correct_option,points,difficulty,tags,created_at`

func scanBank(row interface{ Scan(...any) error }) (BankQuestion, error) {
	var b BankQuestion
	err := row.Scan(&b.ID, &b.TeacherID, &b.CourseID, &b.Text, &b.ImagePath, &b.OptionCount,
		&b.OptionA, &b.OptionB, &b.OptionC, &b.OptionD, &b.OptionE, &b.CorrectOption,
		&b.Points, &b.Difficulty, &b.Tags, &b.CreatedAt)
	return b, err
}

func (s *SQLStore) PutBankQuestion(ctx context.Context, b BankQuestion) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO question_bank
		(id,teacher_id,course_id,text,image_path,option_count,option_a,option_b,option_c,option_d,option_e,correct_option,points,difficulty,tags,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		b.ID, b.TeacherID, b.CourseID, b.Text, b.ImagePath, b.OptionCount,
		b.OptionA, b.OptionB, b.OptionC, b.OptionD, b.OptionE, b.CorrectOption,
		b.Points, b.Difficulty, b.Tags, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert bank question: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateBankQuestion(ctx context.Context, b BankQuestion) error {
	res, err := s.db.ExecContext(ctx, `UPDATE question_bank
		SET text=$1, image_path=$2, option_count=$3, option_a=$4, option_b=$5, option_c=$6,
		    option_d=$7, option_e=$8, correct_option=$9, points=$10, difficulty=$11, tags=$12
		WHERE id=$13`,
		b.Text, b.ImagePath, b.OptionCount, b.OptionA, b.OptionB, b.OptionC, b.OptionD,
		b.OptionE, b.CorrectOption, b.Points, b.Difficulty, b.Tags, b.ID)
	if err != nil {
		return fmt.Errorf("update bank question: %w", err)
	}
	return requireRow(res)
}

func (s *SQLStore) GetBankQuestion(ctx context.Context, id string) (BankQuestion, error) {
	b, err := scanBank(s.db.QueryRowContext(ctx, `SELECT `+bankCols+` FROM question_bank WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return BankQuestion{}, ErrNotFound
	}
	if err != nil {
		return BankQuestion{}, fmt.Errorf("get bank question: %w", err)
	}
	return b, nil
}

func (s *SQLStore) DeleteBankQuestion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM question_bank WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete bank question: %w", err)
	}
	return requireRow(res)
}

func (s *SQLStore) SearchBank(ctx context.Context, opts BankSearchOpts) ([]BankQuestion, error) {
	query := `SELECT ` + bankCols + ` FROM question_bank WHERE teacher_id=$1`
	args := []any{opts.TeacherID}
	if opts.Term != "" {
		args = append(args, "%"+opts.Term+"%")
		n := len(args)
		query += fmt.Sprintf(` AND (text LIKE $%d OR tags LIKE $%d)`, n, n)
	}
	if opts.Difficulty != "" {
		args = append(args, opts.Difficulty)
		query += fmt.Sprintf(` AND difficulty=$%d`, len(args))
	}
	if opts.CourseID != "" {
		args = append(args, opts.CourseID)
		query += fmt.Sprintf(` AND course_id=$%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search bank: %w", err)
	}
	defer rows.Close()
	out := []BankQuestion{}
	for rows.Next() {
		b, err := scanBank(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

/* ---------------- Assignments ---------------- */

func (s *SQLStore) IsAssigned(ctx context.Context, examID, studentID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM exam_students WHERE exam_id=$1 AND student_id=$2`, examID, studentID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("assignment check: %w", err)
	}
	return true, nil
}

func (s *SQLStore) ReplaceAssignments(ctx context.Context, examID string, studentIDs []string, at int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM exam_students WHERE exam_id=$1`, examID); err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}
	for _, sid := range studentIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO exam_students (exam_id,student_id,assigned_at)
			VALUES ($1,$2,$3)
			ON CONFLICT (exam_id,student_id) DO NOTHING`, examID, sid, at); err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) ListAssignments(ctx context.Context, examID string) ([]Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT exam_id,student_id,assigned_at FROM exam_students WHERE exam_id=$1 ORDER BY assigned_at`, examID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()
	out := []Assignment{}
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ExamID, &a.StudentID, &a.AssignedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

/* ---------------- Attempts ---------------- */

const attemptCols = `id,exam_id,student_id,started_at,finished_at,completed,score`

func scanAttempt(row interface{ Scan(...any) error }) (Attempt, error) {
	var a Attempt
	err := row.Scan(&a.ID, &a.ExamID, &a.StudentID, &a.StartedAt, &a.FinishedAt, &a.Completed, &a.Score)
	return a, err
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	a, err := scanAttempt(s.db.QueryRowContext(ctx, `SELECT `+attemptCols+` FROM attempts WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, ErrNotFound
	}
	if err != nil {
		return Attempt{}, fmt.Errorf("get attempt: %w", err)
	}
	return a, nil
}

func (s *SQLStore) GetAttemptForStudent(ctx context.Context, examID, studentID string) (Attempt, error) {
	a, err := scanAttempt(s.db.QueryRowContext(ctx,
		`SELECT `+attemptCols+` FROM attempts WHERE exam_id=$1 AND student_id=$2`, examID, studentID))
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, ErrNotFound
	}
	if err != nil {
		return Attempt{}, fmt.Errorf("get attempt: %w", err)
	}
	return a, nil
}

func (s *SQLStore) StartAttempt(ctx context.Context, a Attempt, preserveStart bool) (Attempt, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	// The unique index on (exam_id, student_id) arbitrates concurrent starts:
	// the loser of the insert race lands in the conflict branch.
	set := `started_at=excluded.started_at`
	if preserveStart {
		set = `started_at=attempts.started_at`
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO attempts
		(id,exam_id,student_id,started_at,finished_at,completed,score)
		VALUES ($1,$2,$3,$4,0,FALSE,0)
		ON CONFLICT (exam_id,student_id) DO UPDATE SET `+set,
		a.ID, a.ExamID, a.StudentID, a.StartedAt)
	if err != nil {
		return Attempt{}, fmt.Errorf("start attempt: %w", err)
	}
	return s.GetAttemptForStudent(ctx, a.ExamID, a.StudentID)
}

func (s *SQLStore) FinishAttempt(ctx context.Context, id string, finishedAt int64, score int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE attempts SET completed=TRUE, finished_at=$1, score=$2 WHERE id=$3`,
		finishedAt, score, id)
	if err != nil {
		return fmt.Errorf("finish attempt: %w", err)
	}
	return requireRow(res)
}

func (s *SQLStore) listAttempts(ctx context.Context, query string, args ...any) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListAttemptsByExam(ctx context.Context, examID string) ([]Attempt, error) {
	return s.listAttempts(ctx, `SELECT `+attemptCols+` FROM attempts WHERE exam_id=$1 ORDER BY started_at`, examID)
}

func (s *SQLStore) ListAttemptsByStudent(ctx context.Context, studentID string) ([]Attempt, error) {
	return s.listAttempts(ctx, `SELECT `+attemptCols+` FROM attempts WHERE student_id=$1 ORDER BY started_at DESC`, studentID)
}

func (s *SQLStore) ListExpiredAttempts(ctx context.Context, now int64) ([]Attempt, error) {
	return s.listAttempts(ctx, `SELECT a.id,a.exam_id,a.student_id,a.started_at,a.finished_at,a.completed,a.score
		FROM attempts a JOIN exams e ON e.id=a.exam_id
		WHERE NOT a.completed AND e.end_time < $1`, now)
}

/* ---------------- Answers ---------------- */

func (s *SQLStore) UpsertAnswer(ctx context.Context, a Answer) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	// Last write wins on the (attempt_id, question_id) unique index; that is
	// the intended "change my answer" semantics.
	_, err := s.db.ExecContext(ctx, `INSERT INTO answers
		(id,attempt_id,question_id,selected,is_correct)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (attempt_id,question_id) DO UPDATE SET
		  selected=excluded.selected, is_correct=excluded.is_correct`,
		a.ID, a.AttemptID, a.QuestionID, a.Selected, a.IsCorrect)
	if err != nil {
		return fmt.Errorf("upsert answer: %w", err)
	}
	return nil
}

func (s *SQLStore) ListAnswers(ctx context.Context, attemptID string) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,attempt_id,question_id,selected,is_correct FROM answers WHERE attempt_id=$1`, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()
	out := []Answer{}
	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.Selected, &a.IsCorrect); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) CountCorrect(ctx context.Context, attemptID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM answers WHERE attempt_id=$1 AND is_correct`, attemptID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count correct: %w", err)
	}
	return n, nil
}

/* ---------------- helpers ---------------- */

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
