package roster

import (
	"context"

	"github.com/examhall/examhall/internal/rbac"
)

// Store is the persistence boundary for users, courses and course
// enrollment. Emails are unique case-insensitively; (course, student) is
// unique for enrollments.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u User) error
	UpdateUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsersByRole(ctx context.Context, role rbac.Role) ([]User, error)
	ListStudentsByDeptClass(ctx context.Context, department, class string) ([]User, error)
	ListDepartments(ctx context.Context) ([]string, error)
	ListClasses(ctx context.Context, department string) ([]string, error)

	// Courses
	CreateCourse(ctx context.Context, c Course) error
	UpdateCourse(ctx context.Context, c Course) error
	GetCourse(ctx context.Context, id string) (Course, error)
	DeleteCourse(ctx context.Context, id string) error
	ListCourses(ctx context.Context) ([]Course, error)
	ListCoursesByTeacher(ctx context.Context, teacherID string) ([]Course, error)
	ListCoursesByDeptClass(ctx context.Context, department, class string) ([]Course, error)
	ListCoursesByStudent(ctx context.Context, studentID string) ([]Course, error)

	// Enrollment
	Enroll(ctx context.Context, courseID, studentID string, at int64) error // idempotent
	Unenroll(ctx context.Context, courseID, studentID string) error
	// ReplaceCourseRoster swaps the whole roster in one transaction.
	ReplaceCourseRoster(ctx context.Context, courseID string, studentIDs []string, at int64) error
	ListCourseStudents(ctx context.Context, courseID string) ([]User, error)
}
