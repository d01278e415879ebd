package rbac_test

import (
	"context"
	"testing"

	"github.com/campusware/examcore/internal/rbac"
)

func TestDefaultRolePermissions(t *testing.T) {
	c := rbac.NewChecker(nil)

	cases := []struct {
		role, perm string
		want       bool
	}{
		{"student", "response:submit", true},
		{"student", "result:view-own", true},
		{"student", "reval:request", true},
		{"student", "exam:create", false},
		{"student", "response:grade", false},
		{"student", "question:view-keys", false},
		{"teacher", "exam:finalize", true},
		{"teacher", "question:view-keys", true},
		{"teacher", "reval:review", true},
		{"teacher", "config:update", false},
		{"admin", "exam:delete", true},
		{"admin", "config:update", true},
		{"intruder", "exam:view", false},
		{"", "exam:view", false},
	}
	for _, cse := range cases {
		if got := c.Has(cse.role, cse.perm); got != cse.want {
			t.Errorf("Has(%q, %q) = %v, want %v", cse.role, cse.perm, got, cse.want)
		}
	}
}

func TestAny(t *testing.T) {
	c := rbac.NewChecker(nil)
	if !c.Any("student", "result:view-all", "result:view-own") {
		t.Fatalf("student should match view-own")
	}
	if c.Any("student", "result:view-all", "exam:create") {
		t.Fatalf("student should match neither")
	}
}

func TestWildcardPrefix(t *testing.T) {
	c := rbac.NewChecker(map[string][]string{
		"auditor": {"exam:*"},
	})
	if !c.Has("auditor", "exam:view") || !c.Has("auditor", "exam:delete") {
		t.Fatalf("prefix wildcard should cover the exam namespace")
	}
	if c.Has("auditor", "response:grade") {
		t.Fatalf("prefix wildcard must not leak across namespaces")
	}
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	if rbac.RoleFromContext(ctx) != "" || rbac.SubjectFromContext(ctx) != "" {
		t.Fatalf("empty context must yield empty principal")
	}
	ctx = rbac.WithRole(rbac.WithSubject(ctx, "u-1"), "teacher")
	if rbac.SubjectFromContext(ctx) != "u-1" || rbac.RoleFromContext(ctx) != "teacher" {
		t.Fatalf("principal round trip failed")
	}
}
