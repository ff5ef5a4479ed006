package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/examhall/examhall/internal/rbac"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

/* ---------------- Users ---------------- */

const userCols = `id,full_name,email,password_hash,role,department,class,created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &role, &u.Department, &u.Class, &u.CreatedAt)
	u.Role = rbac.Role(role)
	return u, err
}

func (s *SQLStore) CreateUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users
		(id,full_name,email,password_hash,role,department,class,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		u.ID, u.FullName, u.Email, u.PasswordHash, u.Role.String(), u.Department, u.Class, u.CreatedAt)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateUser(ctx context.Context, u User) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users
		SET full_name=$1, email=$2, department=$3, class=$4 WHERE id=$5`,
		u.FullName, u.Email, u.Department, u.Class, u.ID)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return requireRow(res)
}

func (s *SQLStore) GetUser(ctx context.Context, id string) (User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email=$1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *SQLStore) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireRow(res)
}

func (s *SQLStore) listUsers(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListUsersByRole(ctx context.Context, role rbac.Role) ([]User, error) {
	return s.listUsers(ctx, `SELECT `+userCols+` FROM users WHERE role=$1 ORDER BY full_name`, role.String())
}

func (s *SQLStore) ListStudentsByDeptClass(ctx context.Context, department, class string) ([]User, error) {
	return s.listUsers(ctx, `SELECT `+userCols+` FROM users
		WHERE role='student' AND department=$1 AND class=$2 ORDER BY full_name`, department, class)
}

func (s *SQLStore) listStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListDepartments(ctx context.Context) ([]string, error) {
	return s.listStrings(ctx, `SELECT DISTINCT department FROM users
		WHERE role='student' AND department <> '' ORDER BY department`)
}

func (s *SQLStore) ListClasses(ctx context.Context, department string) ([]string, error) {
	return s.listStrings(ctx, `SELECT DISTINCT class FROM users
		WHERE role='student' AND department=$1 AND class <> '' ORDER BY class`, department)
}

/* ---------------- Courses ---------------- */

const courseCols = `id,name,teacher_id,department,class,created_at`

func scanCourse(row interface{ Scan(...any) error }) (Course, error) {
	var c Course
	err := row.Scan(&c.ID, &c.Name, &c.TeacherID, &c.Department, &c.Class, &c.CreatedAt)
	return c, err
}

func (s *SQLStore) CreateCourse(ctx context.Context, c Course) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO courses
		(id,name,teacher_id,department,class,created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		c.ID, c.Name, c.TeacherID, c.Department, c.Class, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateCourse(ctx context.Context, c Course) error {
	res, err := s.db.ExecContext(ctx, `UPDATE courses
		SET name=$1, department=$2, class=$3 WHERE id=$4`,
		c.Name, c.Department, c.Class, c.ID)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return requireRow(res)
}

func (s *SQLStore) GetCourse(ctx context.Context, id string) (Course, error) {
	c, err := scanCourse(s.db.QueryRowContext(ctx, `SELECT `+courseCols+` FROM courses WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Course{}, ErrNotFound
	}
	if err != nil {
		return Course{}, fmt.Errorf("get course: %w", err)
	}
	return c, nil
}

func (s *SQLStore) DeleteCourse(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return requireRow(res)
}

func (s *SQLStore) listCourses(ctx context.Context, query string, args ...any) ([]Course, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()
	out := []Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListCourses(ctx context.Context) ([]Course, error) {
	return s.listCourses(ctx, `SELECT `+courseCols+` FROM courses ORDER BY name`)
}

func (s *SQLStore) ListCoursesByTeacher(ctx context.Context, teacherID string) ([]Course, error) {
	return s.listCourses(ctx, `SELECT `+courseCols+` FROM courses WHERE teacher_id=$1 ORDER BY name`, teacherID)
}

func (s *SQLStore) ListCoursesByDeptClass(ctx context.Context, department, class string) ([]Course, error) {
	return s.listCourses(ctx, `SELECT `+courseCols+` FROM courses
		WHERE department=$1 AND class=$2 ORDER BY name`, department, class)
}

func (s *SQLStore) ListCoursesByStudent(ctx context.Context, studentID string) ([]Course, error) {
	return s.listCourses(ctx, `SELECT c.id,c.name,c.teacher_id,c.department,c.class,c.created_at
		FROM courses c JOIN course_students cs ON cs.course_id=c.id
		WHERE cs.student_id=$1 ORDER BY c.name`, studentID)
}

/* ---------------- Enrollment ---------------- */

func (s *SQLStore) Enroll(ctx context.Context, courseID, studentID string, at int64) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO course_students (course_id,student_id,assigned_at)
		VALUES ($1,$2,$3) ON CONFLICT (course_id,student_id) DO NOTHING`, courseID, studentID, at)
	if err != nil {
		return fmt.Errorf("enroll: %w", err)
	}
	return nil
}

func (s *SQLStore) Unenroll(ctx context.Context, courseID, studentID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM course_students WHERE course_id=$1 AND student_id=$2`, courseID, studentID)
	if err != nil {
		return fmt.Errorf("unenroll: %w", err)
	}
	return nil
}

func (s *SQLStore) ReplaceCourseRoster(ctx context.Context, courseID string, studentIDs []string, at int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM course_students WHERE course_id=$1`, courseID); err != nil {
		return fmt.Errorf("clear roster: %w", err)
	}
	for _, sid := range studentIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO course_students (course_id,student_id,assigned_at)
			VALUES ($1,$2,$3) ON CONFLICT (course_id,student_id) DO NOTHING`, courseID, sid, at); err != nil {
			return fmt.Errorf("insert roster row: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) ListCourseStudents(ctx context.Context, courseID string) ([]User, error) {
	return s.listUsers(ctx, `SELECT u.id,u.full_name,u.email,u.password_hash,u.role,u.department,u.class,u.created_at
		FROM users u JOIN course_students cs ON cs.student_id=u.id
		WHERE cs.course_id=$1 ORDER BY u.full_name`, courseID)
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

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // sqlite
		strings.Contains(msg, "duplicate key") // postgres
}
