package apperr

import (
	"database/sql"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(nil); got != "" {
		t.Fatalf("KindOf(nil) = %q", got)
	}
	if got := KindOf(sql.ErrConnDone); got != Internal {
		t.Fatalf("untyped error kind = %q, want Internal", got)
	}
	wrapped := fmt.Errorf("start exam: %w", New(InvalidState, "exam has already been started"))
	if got := KindOf(wrapped); got != InvalidState {
		t.Fatalf("wrapped kind = %q, want InvalidState", got)
	}
	if !Is(wrapped, InvalidState) || Is(wrapped, NotFound) {
		t.Fatalf("Is mismatch for %v", wrapped)
	}
}

func TestMessageHidesInternalCause(t *testing.T) {
	err := Wrap(Internal, "insert exam", sql.ErrTxDone)
	if got := Message(err); got != "server error" {
		t.Fatalf("Message = %q", got)
	}
	if got := Message(New(NotFound, "exam not found")); got != "exam not found" {
		t.Fatalf("Message = %q", got)
	}
	if got := Message(fmt.Errorf("boom")); got != "server error" {
		t.Fatalf("Message = %q", got)
	}
}
