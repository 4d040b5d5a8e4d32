package content

import (
	"context"
	"testing"

	"github.com/mind-engage/mindengage-quiz/internal/apperr"
	"github.com/mind-engage/mindengage-quiz/internal/db/dbtest"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
)

func strp(s string) *string { return &s }

func TestQuestionInputValidate(t *testing.T) {
	cases := []struct {
		name string
		in   QuestionInput
		ok   bool
	}{
		{"no text", QuestionInput{Options: []OptionInput{{Text: "a", IsCorrect: true}}}, false},
		{"no options", QuestionInput{Text: "q"}, false},
		{"blank option", QuestionInput{Text: "q", Options: []OptionInput{{Text: " ", IsCorrect: true}}}, false},
		{"no correct", QuestionInput{Text: "q", Options: []OptionInput{{Text: "a"}, {Text: "b"}}}, false},
		{"single with two correct", QuestionInput{Text: "q", Type: grading.TypeSingleChoice,
			Options: []OptionInput{{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true}}}, false},
		{"bad type", QuestionInput{Text: "q", Type: "essay", Options: []OptionInput{{Text: "a", IsCorrect: true}}}, false},
		{"multi with two correct", QuestionInput{Text: "q", Type: grading.TypeMultiChoice,
			Options: []OptionInput{{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true}}}, true},
		{"defaults to single", QuestionInput{Text: "q", Options: []OptionInput{{Text: "a", IsCorrect: true}, {Text: "b"}}}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.in.Validate()
			if c.ok && err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if !c.ok && !apperr.Is(err, apperr.InvalidArgument) {
				t.Fatalf("Validate err = %v, want InvalidArgument", err)
			}
		})
	}
}

func TestQuizSetOwnership(t *testing.T) {
	dbh := dbtest.Open(t)
	alice := dbtest.SeedUser(t, dbh, "alice")
	bob := dbtest.SeedUser(t, dbh, "bob")
	svc := NewService(dbh)
	ctx := context.Background()

	set, err := svc.CreateQuizSet(ctx, alice, QuizSetInput{Title: "  Go basics "})
	if err != nil {
		t.Fatalf("CreateQuizSet: %v", err)
	}
	if set.Title != "Go basics" {
		t.Fatalf("title = %q", set.Title)
	}
	if _, err := svc.CreateQuizSet(ctx, alice, QuizSetInput{}); !apperr.Is(err, apperr.InvalidArgument) {
		t.Fatalf("empty title err = %v", err)
	}

	if _, err := svc.GetQuizSet(ctx, bob, set.ID); !apperr.Is(err, apperr.Forbidden) {
		t.Fatalf("foreign get err = %v", err)
	}
	if _, err := svc.GetQuizSet(ctx, alice, set.ID+100); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("missing get err = %v", err)
	}
	if err := svc.DeleteQuizSet(ctx, bob, set.ID); !apperr.Is(err, apperr.Forbidden) {
		t.Fatalf("foreign delete err = %v", err)
	}

	updated, err := svc.UpdateQuizSet(ctx, alice, set.ID, QuizSetInput{Title: "Go", Description: "intro"})
	if err != nil || updated.Title != "Go" || updated.Description != "intro" {
		t.Fatalf("UpdateQuizSet = (%+v, %v)", updated, err)
	}

	sets, err := svc.ListQuizSets(ctx, bob)
	if err != nil || len(sets) != 0 {
		t.Fatalf("bob sets = (%v, %v)", sets, err)
	}
}

func TestQuestionCRUDAndFilters(t *testing.T) {
	dbh := dbtest.Open(t)
	alice := dbtest.SeedUser(t, dbh, "alice")
	bob := dbtest.SeedUser(t, dbh, "bob")
	svc := NewService(dbh)
	ctx := context.Background()

	set, err := svc.CreateQuizSet(ctx, alice, QuizSetInput{Title: "Geo"})
	if err != nil {
		t.Fatal(err)
	}
	q1, err := svc.CreateQuestion(ctx, alice, set.ID, QuestionInput{
		Text:       "Capital of France?",
		Category:   strp("capitals"),
		Difficulty: strp("easy"),
		Tags:       []string{"Europe", "europe", " cities "},
		Options:    []OptionInput{{Text: "Paris", IsCorrect: true}, {Text: "Lyon"}},
	})
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	if len(q1.Options) != 2 || q1.Options[0].Text != "Paris" || q1.Options[0].ID >= q1.Options[1].ID {
		t.Fatalf("options = %+v", q1.Options)
	}
	if len(q1.Tags) != 2 || q1.Tags[0] != "cities" || q1.Tags[1] != "europe" {
		t.Fatalf("tags = %v", q1.Tags)
	}
	if _, err := svc.CreateQuestion(ctx, alice, set.ID, QuestionInput{
		Text:       "Rivers through Paris?",
		Type:       grading.TypeMultiChoice,
		Difficulty: strp("hard"),
		Options:    []OptionInput{{Text: "Seine", IsCorrect: true}, {Text: "Bièvre", IsCorrect: true}, {Text: "Nile"}},
	}); err != nil {
		t.Fatalf("CreateQuestion multi: %v", err)
	}
	if _, err := svc.CreateQuestion(ctx, bob, set.ID, QuestionInput{
		Text: "x", Options: []OptionInput{{Text: "a", IsCorrect: true}},
	}); !apperr.Is(err, apperr.Forbidden) {
		t.Fatalf("foreign create err = %v", err)
	}

	checks := []struct {
		f    QuestionFilter
		want int
	}{
		{QuestionFilter{}, 2},
		{QuestionFilter{Query: "PARIS"}, 1},
		{QuestionFilter{Query: "capital"}, 1},
		{QuestionFilter{Difficulty: "hard"}, 1},
		{QuestionFilter{Category: "capitals"}, 1},
		{QuestionFilter{Tag: "Europe"}, 1},
		{QuestionFilter{Tag: "asia"}, 0},
	}
	for _, c := range checks {
		got, err := svc.ListQuestions(ctx, alice, set.ID, c.f)
		if err != nil {
			t.Fatalf("ListQuestions(%+v): %v", c.f, err)
		}
		if len(got) != c.want {
			t.Fatalf("ListQuestions(%+v) = %d questions, want %d", c.f, len(got), c.want)
		}
	}

	upd, err := svc.UpdateQuestion(ctx, alice, q1.ID, QuestionInput{
		Text:    "Capital of Italy?",
		Options: []OptionInput{{Text: "Milan"}, {Text: "Rome", IsCorrect: true}, {Text: "Turin"}},
	})
	if err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}
	if upd.Text != "Capital of Italy?" || len(upd.Options) != 3 || len(upd.Tags) != 0 {
		t.Fatalf("updated = %+v", upd)
	}
	if ids := upd.CorrectOptionIDs(); len(ids) != 1 || ids[0] != upd.Options[1].ID {
		t.Fatalf("correct ids = %v", ids)
	}

	sets, _ := svc.ListQuizSets(ctx, alice)
	if len(sets) != 1 || sets[0].QuestionCount != 2 {
		t.Fatalf("sets = %+v", sets)
	}

	if err := svc.DeleteQuestion(ctx, alice, q1.ID); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}
	if _, err := svc.GetQuestion(ctx, alice, q1.ID); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("deleted question err = %v", err)
	}
}

func TestDeleteQuizSetCascades(t *testing.T) {
	dbh := dbtest.Open(t)
	alice := dbtest.SeedUser(t, dbh, "alice")
	setID := dbtest.SeedQuizSet(t, dbh, alice, "s")
	dbtest.SeedQuestion(t, dbh, setID, "q", grading.TypeSingleChoice, dbtest.Option{Text: "a", Correct: true})
	svc := NewService(dbh)
	ctx := context.Background()

	if err := svc.DeleteQuizSet(ctx, alice, setID); err != nil {
		t.Fatalf("DeleteQuizSet: %v", err)
	}
	var n int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM options`).Scan(&n); err != nil || n != 0 {
		t.Fatalf("options left = %d (%v)", n, err)
	}
}

func TestCorrectOptionIDsAndOrder(t *testing.T) {
	dbh := dbtest.Open(t)
	alice := dbtest.SeedUser(t, dbh, "alice")
	setID := dbtest.SeedQuizSet(t, dbh, alice, "s")
	q1, o1 := dbtest.SeedQuestion(t, dbh, setID, "one", grading.TypeMultiChoice,
		dbtest.Option{Text: "a", Correct: true}, dbtest.Option{Text: "b"}, dbtest.Option{Text: "c", Correct: true})
	q2, _ := dbtest.SeedQuestion(t, dbh, setID, "two", grading.TypeSingleChoice, dbtest.Option{Text: "x"})
	repo := NewRepo(dbh)
	ctx := context.Background()

	m, err := repo.CorrectOptionIDs(ctx, []int64{q1, q2})
	if err != nil {
		t.Fatalf("CorrectOptionIDs: %v", err)
	}
	if got := m[q1]; len(got) != 2 || got[0] != o1[0] || got[1] != o1[2] {
		t.Fatalf("q1 correct = %v", got)
	}
	if got, ok := m[q2]; !ok || len(got) != 0 {
		t.Fatalf("q2 correct = %v (present=%v)", got, ok)
	}

	qs, err := repo.QuestionsWithOptions(ctx, []int64{q2, q1})
	if err != nil {
		t.Fatalf("QuestionsWithOptions: %v", err)
	}
	if len(qs) != 2 || qs[0].ID != q2 || qs[1].ID != q1 {
		t.Fatalf("order = %d, %d", qs[0].ID, qs[1].ID)
	}
}

func TestStats(t *testing.T) {
	dbh := dbtest.Open(t)
	alice := dbtest.SeedUser(t, dbh, "alice")
	setID := dbtest.SeedQuizSet(t, dbh, alice, "s")
	qid, _ := dbtest.SeedQuestion(t, dbh, setID, "q", grading.TypeSingleChoice, dbtest.Option{Text: "a", Correct: true})
	svc := NewService(dbh)
	ctx := context.Background()
	repo := NewRepo(dbh)
	for _, ok := range []bool{true, false, true} {
		if err := repo.InsertProgress(ctx, alice, setID, qid, ok, svc.Now()); err != nil {
			t.Fatal(err)
		}
	}
	st, err := svc.Stats(ctx, alice, setID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalAttempts != 3 || st.CorrectCount != 2 || st.Accuracy != 66.67 {
		t.Fatalf("stats = %+v", st)
	}
}
