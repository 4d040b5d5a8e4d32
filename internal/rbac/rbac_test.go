package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerWildcards(t *testing.T) {
	c := NewChecker(nil)
	if !c.Has(RoleUser, "quizset:delete") {
		t.Fatal("user should match quizset:*")
	}
	if c.Has(RoleUser, "exam:overdue") {
		t.Fatal("user must not see the overdue report")
	}
	if !c.Has(RoleAdmin, "exam:overdue") {
		t.Fatal("admin holds every permission")
	}
	if c.Has("guest", "exam:take") {
		t.Fatal("unknown role must have no permissions")
	}
	if !c.Any(RoleUser, "exam:overdue", "exam:take") || c.All(RoleUser, "exam:overdue", "exam:take") {
		t.Fatal("Any/All mismatch")
	}
}

func TestRequire(t *testing.T) {
	h := Require("exam:overdue")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, tc := range []struct {
		role string
		want int
	}{
		{"", http.StatusForbidden},
		{RoleUser, http.StatusForbidden},
		{RoleAdmin, http.StatusOK},
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin/exams/overdue", nil)
		req = req.WithContext(WithRole(context.Background(), tc.role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("role %q: status %d, want %d", tc.role, rec.Code, tc.want)
		}
	}
}

func TestCustomPolicy(t *testing.T) {
	c := NewChecker(map[string][]string{"grader": {"exam:view-all", "wrongbook:*"}})
	if !c.Has("grader", "exam:view-all") || c.Has("grader", "exam:view") {
		t.Fatal("exact grants must not match other names")
	}
	if !c.Has("grader", "wrongbook:use") || c.Has("grader", "wrongbooks") {
		t.Fatal("prefix grant mismatch")
	}
	if c.All("grader") {
		t.Fatal("All with no permissions must be false")
	}
}

func TestAllowed(t *testing.T) {
	if Allowed(context.Background(), "exam:take") {
		t.Fatal("no role must allow nothing")
	}
	if !Allowed(WithRole(context.Background(), RoleUser), "exam:take") || Allowed(WithRole(context.Background(), RoleUser), "exam:view-all") {
		t.Fatal("user policy mismatch")
	}
	if !Allowed(WithRole(context.Background(), RoleAdmin), "exam:view-all") {
		t.Fatal("admin holds every permission")
	}
}
