package auth

import (
	"context"
	"testing"

	"github.com/mind-engage/mindengage-quiz/internal/apperr"
	"github.com/mind-engage/mindengage-quiz/internal/db/dbtest"
)

func TestRegisterAndVerify(t *testing.T) {
	store := NewSQLCredentials(dbtest.Open(t))
	ctx := context.Background()

	u, err := store.Register(ctx, "alice", "Alice@Example.com", "s3cret!")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID == 0 || u.Role != "user" || u.Email != "alice@example.com" {
		t.Fatalf("unexpected user %+v", u)
	}

	if _, err := store.Register(ctx, "alice", "other@example.com", "s3cret!"); !apperr.Is(err, apperr.InvalidArgument) {
		t.Fatalf("duplicate username err = %v", err)
	}

	got, err := store.Verify(ctx, "alice@example.com", "s3cret!")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("Verify id = %d, want %d", got.ID, u.ID)
	}
	if _, err := store.Verify(ctx, "alice@example.com", "wrong"); !apperr.Is(err, apperr.Unauthenticated) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := store.Verify(ctx, "nobody@example.com", "s3cret!"); !apperr.Is(err, apperr.Unauthenticated) {
		t.Fatalf("unknown email err = %v", err)
	}

	me, err := store.Get(ctx, u.ID)
	if err != nil || me.Username != "alice" {
		t.Fatalf("Get = (%+v, %v)", me, err)
	}
}

func TestRegisterValidation(t *testing.T) {
	store := NewSQLCredentials(dbtest.Open(t))
	ctx := context.Background()
	cases := []struct{ user, email, pass string }{
		{"", "a@example.com", "secret1"},
		{"bob", "not-an-email", "secret1"},
		{"bob", "bob@example.com", "123"},
	}
	for _, c := range cases {
		if _, err := store.Register(ctx, c.user, c.email, c.pass); !apperr.Is(err, apperr.InvalidArgument) {
			t.Fatalf("Register(%q,%q) err = %v, want InvalidArgument", c.user, c.email, err)
		}
	}
}
