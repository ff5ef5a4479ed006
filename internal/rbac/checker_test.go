package rbac

import (
	"context"
	"testing"
)

func TestParseRole(t *testing.T) {
	for _, s := range []string{"student", "teacher", "admin"} {
		if _, err := ParseRole(s); err != nil {
			t.Fatalf("ParseRole(%q) failed: %v", s, err)
		}
	}
	for _, s := range []string{"", "Student", "root", "superadmin"} {
		if _, err := ParseRole(s); err == nil {
			t.Fatalf("ParseRole(%q) accepted", s)
		}
	}
}

func TestCheckerHas(t *testing.T) {
	c := NewChecker(nil)

	cases := []struct {
		role Role
		perm string
		want bool
	}{
		{RoleStudent, "attempt:start", true},
		{RoleStudent, "exam:create", false},
		{RoleStudent, "attempt:view-all", false},
		{RoleTeacher, "exam:create", true},
		{RoleTeacher, "attempt:start", false},
		{RoleTeacher, "bank:manage", true},
		{RoleAdmin, "anything:at-all", true},
		{Role("ghost"), "exam:view", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%s, %s) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestCheckerAny(t *testing.T) {
	c := NewChecker(nil)
	if !c.Any(RoleStudent, "exam:create", "attempt:view-own") {
		t.Fatal("student denied despite holding attempt:view-own")
	}
	if c.Any(RoleStudent, "exam:create", "exam:assign") {
		t.Fatal("student granted teacher-only permissions")
	}
}

func TestWildcardPrefix(t *testing.T) {
	c := NewChecker(map[Role][]string{RoleTeacher: {"exam:*"}})
	if !c.Has(RoleTeacher, "exam:delete-own") {
		t.Fatal("prefix wildcard did not match")
	}
	if c.Has(RoleTeacher, "bank:manage") {
		t.Fatal("prefix wildcard leaked across namespaces")
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithRole(context.Background(), RoleTeacher)
	ctx = WithSubject(ctx, "u-1")
	if RoleFromContext(ctx) != RoleTeacher {
		t.Fatal("role lost in context")
	}
	if SubjectFromContext(ctx) != "u-1" {
		t.Fatal("subject lost in context")
	}
	if RoleFromContext(context.Background()) != "" {
		t.Fatal("empty context produced a role")
	}
}
