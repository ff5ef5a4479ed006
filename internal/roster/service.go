package roster

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/examhall/examhall/internal/rbac"
)

// Service owns accounts, courses and the course enrollment graph. Students
// carrying a (department, class) pair are enrolled automatically into every
// course tagged with the same pair; the enrollment is recomputed whenever
// either side of the match changes.
type Service struct {
	store Store
	now   func() time.Time
	log   *logrus.Entry
}

func NewService(store Store, now func() time.Time, log *logrus.Entry) *Service {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{store: store, now: now, log: log}
}

/* ---------------- Accounts ---------------- */

// Register creates an account. A duplicate email fails with ErrEmailTaken so
// the caller can show a specific message. New students with department+class
// are enrolled into matching courses immediately.
func (s *Service) Register(ctx context.Context, fullName, email, password string, role rbac.Role, department, class string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u := User{
		ID:           uuid.NewString(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Department:   department,
		Class:        class,
		CreatedAt:    s.now().Unix(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return User{}, err
	}
	if err := s.autoEnroll(ctx, u); err != nil {
		return User{}, err
	}
	u.PasswordHash = ""
	return u, nil
}

// Authenticate verifies credentials and returns the user, or
// ErrBadCredentials. Unknown email and wrong password are indistinguishable.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrBadCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrBadCredentials
	}
	u.PasswordHash = ""
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	u.PasswordHash = ""
	return u, nil
}

func (s *Service) UsersByRole(ctx context.Context, role rbac.Role) ([]User, error) {
	us, err := s.store.ListUsersByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	for i := range us {
		us[i].PasswordHash = ""
	}
	return us, nil
}

func (s *Service) Students(ctx context.Context) ([]User, error) {
	return s.UsersByRole(ctx, rbac.RoleStudent)
}

func (s *Service) StudentsByDeptClass(ctx context.Context, department, class string) ([]User, error) {
	us, err := s.store.ListStudentsByDeptClass(ctx, department, class)
	if err != nil {
		return nil, err
	}
	for i := range us {
		us[i].PasswordHash = ""
	}
	return us, nil
}

func (s *Service) Departments(ctx context.Context) ([]string, error) {
	return s.store.ListDepartments(ctx)
}

func (s *Service) Classes(ctx context.Context, department string) ([]string, error) {
	return s.store.ListClasses(ctx, department)
}

// UpdateUser edits profile fields. When a student's department or class
// changes, their course enrollment is cleared and rebuilt from the new pair.
func (s *Service) UpdateUser(ctx context.Context, u User) (User, error) {
	cur, err := s.store.GetUser(ctx, u.ID)
	if err != nil {
		return User{}, err
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Role = cur.Role
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return User{}, err
	}
	if cur.Role == rbac.RoleStudent && (cur.Department != u.Department || cur.Class != u.Class) {
		if err := s.reEnroll(ctx, u); err != nil {
			return User{}, err
		}
	}
	u.Role = cur.Role
	return u, nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.store.DeleteUser(ctx, id)
}

// autoEnroll adds a student to every course matching their department+class.
// Fires on user create/update and course create/update only; nothing
// recomputes retroactively on unrelated edits.
func (s *Service) autoEnroll(ctx context.Context, u User) error {
	if u.Role != rbac.RoleStudent || u.Department == "" || u.Class == "" {
		return nil
	}
	courses, err := s.store.ListCoursesByDeptClass(ctx, u.Department, u.Class)
	if err != nil {
		return err
	}
	at := s.now().Unix()
	for _, c := range courses {
		if err := s.store.Enroll(ctx, c.ID, u.ID, at); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) reEnroll(ctx context.Context, u User) error {
	current, err := s.store.ListCoursesByStudent(ctx, u.ID)
	if err != nil {
		return err
	}
	for _, c := range current {
		if err := s.store.Unenroll(ctx, c.ID, u.ID); err != nil {
			return err
		}
	}
	return s.autoEnroll(ctx, u)
}

/* ---------------- Courses ---------------- */

func (s *Service) CreateCourse(ctx context.Context, c Course) (Course, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = s.now().Unix()
	if err := s.store.CreateCourse(ctx, c); err != nil {
		return Course{}, err
	}
	if err := s.syncCourseRoster(ctx, c); err != nil {
		return Course{}, err
	}
	return c, nil
}

// UpdateCourse edits a course the teacher owns. Changing the
// department/class tags clears the roster and recomputes it from the new
// tags; there is no incremental diff.
func (s *Service) UpdateCourse(ctx context.Context, teacherID string, c Course) (Course, error) {
	cur, err := s.store.GetCourse(ctx, c.ID)
	if err != nil {
		return Course{}, err
	}
	if cur.TeacherID != teacherID {
		return Course{}, ErrForbidden
	}
	c.TeacherID = cur.TeacherID
	c.CreatedAt = cur.CreatedAt
	if err := s.store.UpdateCourse(ctx, c); err != nil {
		return Course{}, err
	}
	if cur.Department != c.Department || cur.Class != c.Class {
		if err := s.syncCourseRoster(ctx, c); err != nil {
			return Course{}, err
		}
	}
	return c, nil
}

// DeleteCourse removes the course; its exams, their questions, attempts and
// assignments go with it through the store's cascade.
func (s *Service) DeleteCourse(ctx context.Context, courseID, teacherID string) error {
	cur, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if cur.TeacherID != teacherID {
		return ErrForbidden
	}
	return s.store.DeleteCourse(ctx, courseID)
}

func (s *Service) GetCourse(ctx context.Context, id string) (Course, error) {
	return s.store.GetCourse(ctx, id)
}

func (s *Service) CoursesForTeacher(ctx context.Context, teacherID string) ([]Course, error) {
	return s.store.ListCoursesByTeacher(ctx, teacherID)
}

func (s *Service) CoursesForStudent(ctx context.Context, studentID string) ([]Course, error) {
	return s.store.ListCoursesByStudent(ctx, studentID)
}

func (s *Service) CourseStudents(ctx context.Context, courseID string) ([]User, error) {
	us, err := s.store.ListCourseStudents(ctx, courseID)
	if err != nil {
		return nil, err
	}
	for i := range us {
		us[i].PasswordHash = ""
	}
	return us, nil
}

// syncCourseRoster rebuilds the course roster from its department/class tags
// in one transaction.
func (s *Service) syncCourseRoster(ctx context.Context, c Course) error {
	if c.Department == "" || c.Class == "" {
		return nil
	}
	students, err := s.store.ListStudentsByDeptClass(ctx, c.Department, c.Class)
	if err != nil {
		return err
	}
	ids := make([]string, len(students))
	for i, u := range students {
		ids[i] = u.ID
	}
	s.log.WithFields(logrus.Fields{
		"course_id": c.ID,
		"students":  len(ids),
	}).Debug("course roster recomputed")
	return s.store.ReplaceCourseRoster(ctx, c.ID, ids, s.now().Unix())
}
