package roster

import (
	"errors"

	"github.com/examhall/examhall/internal/rbac"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")

	// ErrEmailTaken is the one registration failure callers must be able to
	// tell apart, so the user can be told the address is in use.
	ErrEmailTaken = errors.New("email already registered")

	ErrBadCredentials = errors.New("invalid email or password")
)

type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name" validate:"required,max=100"`
	Email        string    `json:"email" validate:"required,email,max=100"`
	PasswordHash string    `json:"-"`
	Role         rbac.Role `json:"role"`
	// Department and Class drive automatic course enrollment for students.
	Department string `json:"department,omitempty" validate:"max=100"`
	Class      string `json:"class,omitempty" validate:"max=50"`
	CreatedAt  int64  `json:"created_at,omitempty"`
}

type Course struct {
	ID        string `json:"id"`
	Name      string `json:"name" validate:"required,max=100"`
	TeacherID string `json:"teacher_id"`
	// When both are set, every student user with the same (department, class)
	// is enrolled automatically.
	Department string `json:"department,omitempty" validate:"max=100"`
	Class      string `json:"class,omitempty" validate:"max=50"`
	CreatedAt  int64  `json:"created_at,omitempty"`
}

type Enrollment struct {
	CourseID   string `json:"course_id"`
	StudentID  string `json:"student_id"`
	AssignedAt int64  `json:"assigned_at"`
}
