package practice

import (
	"context"
	"errors"
	"testing"

	"github.com/mind-engage/mindengage-quiz/internal/apperr"
	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/db/dbtest"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/wrongbook"
)

type brokenTracker struct{}

func (brokenTracker) RecordAttempt(context.Context, db.Querier, int64, int64, bool) error {
	return errors.New("down")
}

func TestSubmitGradesAndTracks(t *testing.T) {
	dbh := dbtest.Open(t)
	user := dbtest.SeedUser(t, dbh, "alice")
	setID := dbtest.SeedQuizSet(t, dbh, user, "set")
	qid, opts := dbtest.SeedQuestion(t, dbh, setID, "pick two", grading.TypeMultiChoice,
		dbtest.Option{Text: "a", Correct: true}, dbtest.Option{Text: "b", Correct: true}, dbtest.Option{Text: "c"})
	svc := NewService(dbh, wrongbook.New(dbh))
	ctx := context.Background()

	res, err := svc.Submit(ctx, user, qid, []int64{opts[0]})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.IsCorrect || len(res.CorrectOptions) != 2 || res.Explanation != "because" {
		t.Fatalf("partial selection = %+v", res)
	}

	res, err = svc.Submit(ctx, user, qid, []int64{opts[1], opts[0], opts[0]})
	if err != nil || !res.IsCorrect {
		t.Fatalf("exact selection = (%+v, %v)", res, err)
	}

	var progress, wrong int
	dbh.QueryRow(`SELECT COUNT(*) FROM user_progress WHERE user_id=$1`, user).Scan(&progress)
	dbh.QueryRow(`SELECT wrong_count FROM wrong_questions WHERE user_id=$1 AND question_id=$2`, user, qid).Scan(&wrong)
	if progress != 2 || wrong != 1 {
		t.Fatalf("progress=%d wrong=%d", progress, wrong)
	}
}

func TestSubmitScopesAndRollsBack(t *testing.T) {
	dbh := dbtest.Open(t)
	alice := dbtest.SeedUser(t, dbh, "alice")
	bob := dbtest.SeedUser(t, dbh, "bob")
	setID := dbtest.SeedQuizSet(t, dbh, alice, "set")
	qid, opts := dbtest.SeedQuestion(t, dbh, setID, "q", grading.TypeSingleChoice,
		dbtest.Option{Text: "a", Correct: true}, dbtest.Option{Text: "b"})
	ctx := context.Background()

	svc := NewService(dbh, wrongbook.New(dbh))
	if _, err := svc.Submit(ctx, bob, qid, []int64{opts[0]}); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("foreign question err = %v", err)
	}
	if _, err := svc.Submit(ctx, alice, qid, nil); !apperr.Is(err, apperr.InvalidArgument) {
		t.Fatalf("nil selection err = %v", err)
	}

	svc.Tracker = brokenTracker{}
	if _, err := svc.Submit(ctx, alice, qid, []int64{opts[1]}); err == nil {
		t.Fatal("expected tracker failure")
	}
	var n int
	dbh.QueryRow(`SELECT COUNT(*) FROM user_progress`).Scan(&n)
	if n != 0 {
		t.Fatalf("progress rows after rollback = %d", n)
	}
}

func TestSubmitEmptySelectionIsTrackedAsWrong(t *testing.T) {
	dbh := dbtest.Open(t)
	user := dbtest.SeedUser(t, dbh, "alice")
	setID := dbtest.SeedQuizSet(t, dbh, user, "set")
	qid, _ := dbtest.SeedQuestion(t, dbh, setID, "q", grading.TypeSingleChoice,
		dbtest.Option{Text: "a", Correct: true}, dbtest.Option{Text: "b"})
	svc := NewService(dbh, wrongbook.New(dbh))

	res, err := svc.Submit(context.Background(), user, qid, []int64{})
	if err != nil || res.IsCorrect {
		t.Fatalf("empty selection = (%+v, %v)", res, err)
	}
	var incorrect, wrong int
	dbh.QueryRow(`SELECT COUNT(*) FROM user_progress WHERE user_id=$1 AND is_correct=$2`, user, false).Scan(&incorrect)
	dbh.QueryRow(`SELECT wrong_count FROM wrong_questions WHERE user_id=$1 AND question_id=$2`, user, qid).Scan(&wrong)
	if incorrect != 1 || wrong != 1 {
		t.Fatalf("incorrect progress=%d wrong_count=%d", incorrect, wrong)
	}
}
