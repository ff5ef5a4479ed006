package roster

import (
	"context"
	"sort"
	"strings"

	"github.com/examhall/examhall/internal/rbac"
)

type fakeStore struct {
	users       map[string]User
	courses     map[string]Course
	enrollments map[string]map[string]int64 // courseID -> studentID -> at
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[string]User{},
		courses:     map[string]Course{},
		enrollments: map[string]map[string]int64{},
	}
}

func (f *fakeStore) CreateUser(_ context.Context, u User) error {
	for _, cur := range f.users {
		if strings.EqualFold(cur.Email, u.Email) {
			return ErrEmailTaken
		}
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) UpdateUser(_ context.Context, u User) error {
	cur, ok := f.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range f.users {
		if id != u.ID && strings.EqualFold(other.Email, u.Email) {
			return ErrEmailTaken
		}
	}
	u.PasswordHash = cur.PasswordHash
	u.Role = cur.Role
	u.CreatedAt = cur.CreatedAt
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, id string) (User, error) {
	u, ok := f.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (f *fakeStore) DeleteUser(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return ErrNotFound
	}
	delete(f.users, id)
	for _, m := range f.enrollments {
		delete(m, id)
	}
	return nil
}

func (f *fakeStore) ListUsersByRole(_ context.Context, role rbac.Role) ([]User, error) {
	var out []User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sortUsers(out)
	return out, nil
}

func (f *fakeStore) ListStudentsByDeptClass(_ context.Context, department, class string) ([]User, error) {
	var out []User
	for _, u := range f.users {
		if u.Role == rbac.RoleStudent && u.Department == department && u.Class == class {
			out = append(out, u)
		}
	}
	sortUsers(out)
	return out, nil
}

func (f *fakeStore) ListDepartments(_ context.Context) ([]string, error) {
	set := map[string]bool{}
	for _, u := range f.users {
		if u.Department != "" {
			set[u.Department] = true
		}
	}
	return sortedKeys(set), nil
}

func (f *fakeStore) ListClasses(_ context.Context, department string) ([]string, error) {
	set := map[string]bool{}
	for _, u := range f.users {
		if u.Department == department && u.Class != "" {
			set[u.Class] = true
		}
	}
	return sortedKeys(set), nil
}

func (f *fakeStore) CreateCourse(_ context.Context, c Course) error {
	f.courses[c.ID] = c
	return nil
}

func (f *fakeStore) UpdateCourse(_ context.Context, c Course) error {
	if _, ok := f.courses[c.ID]; !ok {
		return ErrNotFound
	}
	f.courses[c.ID] = c
	return nil
}

func (f *fakeStore) GetCourse(_ context.Context, id string) (Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return Course{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) DeleteCourse(_ context.Context, id string) error {
	if _, ok := f.courses[id]; !ok {
		return ErrNotFound
	}
	delete(f.courses, id)
	delete(f.enrollments, id)
	return nil
}

func (f *fakeStore) ListCourses(_ context.Context) ([]Course, error) {
	var out []Course
	for _, c := range f.courses {
		out = append(out, c)
	}
	sortCourses(out)
	return out, nil
}

func (f *fakeStore) ListCoursesByTeacher(_ context.Context, teacherID string) ([]Course, error) {
	var out []Course
	for _, c := range f.courses {
		if c.TeacherID == teacherID {
			out = append(out, c)
		}
	}
	sortCourses(out)
	return out, nil
}

func (f *fakeStore) ListCoursesByDeptClass(_ context.Context, department, class string) ([]Course, error) {
	var out []Course
	for _, c := range f.courses {
		if c.Department == department && c.Class == class {
			out = append(out, c)
		}
	}
	sortCourses(out)
	return out, nil
}

func (f *fakeStore) ListCoursesByStudent(_ context.Context, studentID string) ([]Course, error) {
	var out []Course
	for cid, m := range f.enrollments {
		if _, ok := m[studentID]; ok {
			if c, found := f.courses[cid]; found {
				out = append(out, c)
			}
		}
	}
	sortCourses(out)
	return out, nil
}

func (f *fakeStore) Enroll(_ context.Context, courseID, studentID string, at int64) error {
	m, ok := f.enrollments[courseID]
	if !ok {
		m = map[string]int64{}
		f.enrollments[courseID] = m
	}
	if _, exists := m[studentID]; !exists {
		m[studentID] = at
	}
	return nil
}

func (f *fakeStore) Unenroll(_ context.Context, courseID, studentID string) error {
	delete(f.enrollments[courseID], studentID)
	return nil
}

func (f *fakeStore) ReplaceCourseRoster(_ context.Context, courseID string, studentIDs []string, at int64) error {
	m := map[string]int64{}
	for _, id := range studentIDs {
		m[id] = at
	}
	f.enrollments[courseID] = m
	return nil
}

func (f *fakeStore) ListCourseStudents(_ context.Context, courseID string) ([]User, error) {
	var out []User
	for sid := range f.enrollments[courseID] {
		if u, ok := f.users[sid]; ok {
			out = append(out, u)
		}
	}
	sortUsers(out)
	return out, nil
}

func sortUsers(us []User) {
	sort.Slice(us, func(i, j int) bool { return us[i].ID < us[j].ID })
}

func sortCourses(cs []Course) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID < cs[j].ID })
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
