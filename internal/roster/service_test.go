package roster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/examhall/examhall/internal/rbac"
)

func fixedClock(sec int64) func() time.Time {
	return func() time.Time { return time.Unix(sec, 0) }
}

func TestRegisterAndAuthenticate(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f, fixedClock(100), nil)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ada Student", "Ada@School.Test", "password123", rbac.RoleStudent, "math", "1a")
	if err != nil {
		t.Fatal(err)
	}
	if u.Email != "ada@school.test" {
		t.Fatalf("email = %q, want lowercased", u.Email)
	}
	if u.PasswordHash != "" {
		t.Fatal("password hash leaked out of Register")
	}

	// duplicate address, any casing
	if _, err := svc.Register(ctx, "Other", "ADA@school.test", "password123", rbac.RoleStudent, "", ""); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}

	got, err := svc.Authenticate(ctx, "ada@school.test", "password123")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID {
		t.Fatalf("authenticated wrong user: %s", got.ID)
	}

	if _, err := svc.Authenticate(ctx, "ada@school.test", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("err = %v, want ErrBadCredentials for wrong password", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@school.test", "password123"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("err = %v, want ErrBadCredentials for unknown email", err)
	}
}

func TestRegisterAutoEnrolls(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f, fixedClock(100), nil)
	ctx := context.Background()

	c, err := svc.CreateCourse(ctx, Course{Name: "Algebra", TeacherID: "t1", Department: "math", Class: "1a"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateCourse(ctx, Course{Name: "Biology", TeacherID: "t1", Department: "bio", Class: "1a"}); err != nil {
		t.Fatal(err)
	}

	u, err := svc.Register(ctx, "Ada", "ada@school.test", "password123", rbac.RoleStudent, "math", "1a")
	if err != nil {
		t.Fatal(err)
	}

	cs, err := svc.CoursesForStudent(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cs) != 1 || cs[0].ID != c.ID {
		t.Fatalf("courses = %+v, want just %s", cs, c.ID)
	}

	// teachers are never auto-enrolled
	tu, err := svc.Register(ctx, "Teach", "teach@school.test", "password123", rbac.RoleTeacher, "math", "1a")
	if err != nil {
		t.Fatal(err)
	}
	cs, err = svc.CoursesForStudent(ctx, tu.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cs) != 0 {
		t.Fatalf("teacher enrolled into %d courses", len(cs))
	}
}

func TestUpdateUserRecomputesEnrollment(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f, fixedClock(100), nil)
	ctx := context.Background()

	mathC, err := svc.CreateCourse(ctx, Course{Name: "Algebra", TeacherID: "t1", Department: "math", Class: "1a"})
	if err != nil {
		t.Fatal(err)
	}
	bioC, err := svc.CreateCourse(ctx, Course{Name: "Biology", TeacherID: "t1", Department: "bio", Class: "2b"})
	if err != nil {
		t.Fatal(err)
	}

	u, err := svc.Register(ctx, "Ada", "ada@school.test", "password123", rbac.RoleStudent, "math", "1a")
	if err != nil {
		t.Fatal(err)
	}

	u.Department, u.Class = "bio", "2b"
	if _, err := svc.UpdateUser(ctx, u); err != nil {
		t.Fatal(err)
	}

	cs, err := svc.CoursesForStudent(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cs) != 1 || cs[0].ID != bioC.ID {
		t.Fatalf("courses = %+v, want moved to %s", cs, bioC.ID)
	}
	students, err := svc.CourseStudents(ctx, mathC.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(students) != 0 {
		t.Fatalf("old course still lists %d students", len(students))
	}
}

func TestCourseRosterSync(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f, fixedClock(100), nil)
	ctx := context.Background()

	a, err := svc.Register(ctx, "Ada", "ada@school.test", "password123", rbac.RoleStudent, "math", "1a")
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.Register(ctx, "Bob", "bob@school.test", "password123", rbac.RoleStudent, "math", "2b")
	if err != nil {
		t.Fatal(err)
	}

	// creating the course picks up existing matching students
	c, err := svc.CreateCourse(ctx, Course{Name: "Algebra", TeacherID: "t1", Department: "math", Class: "1a"})
	if err != nil {
		t.Fatal(err)
	}
	students, err := svc.CourseStudents(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(students) != 1 || students[0].ID != a.ID {
		t.Fatalf("roster = %+v, want just Ada", students)
	}

	// retagging the course swaps the roster
	c.Department, c.Class = "math", "2b"
	if _, err := svc.UpdateCourse(ctx, "t1", c); err != nil {
		t.Fatal(err)
	}
	students, err = svc.CourseStudents(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(students) != 1 || students[0].ID != b.ID {
		t.Fatalf("roster = %+v, want just Bob after retag", students)
	}
}

func TestCourseOwnership(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f, fixedClock(100), nil)
	ctx := context.Background()

	c, err := svc.CreateCourse(ctx, Course{Name: "Algebra", TeacherID: "t1"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.UpdateCourse(ctx, "intruder", c); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden on update", err)
	}
	if err := svc.DeleteCourse(ctx, c.ID, "intruder"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden on delete", err)
	}
	if err := svc.DeleteCourse(ctx, c.ID, "t1"); err != nil {
		t.Fatal(err)
	}
}

func TestDepartmentsAndClasses(t *testing.T) {
	f := newFakeStore()
	svc := NewService(f, fixedClock(100), nil)
	ctx := context.Background()

	for _, r := range []struct{ name, email, dept, class string }{
		{"Ada", "ada@school.test", "math", "1a"},
		{"Bob", "bob@school.test", "math", "2b"},
		{"Cem", "cem@school.test", "bio", "1a"},
	} {
		if _, err := svc.Register(ctx, r.name, r.email, "password123", rbac.RoleStudent, r.dept, r.class); err != nil {
			t.Fatal(err)
		}
	}

	ds, err := svc.Departments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ds) != 2 {
		t.Fatalf("departments = %v, want 2", ds)
	}
	cs, err := svc.Classes(ctx, "math")
	if err != nil {
		t.Fatal(err)
	}
	if len(cs) != 2 {
		t.Fatalf("classes = %v, want 1a and 2b", cs)
	}
}
