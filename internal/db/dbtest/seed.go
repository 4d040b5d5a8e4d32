package dbtest

import (
	"context"
	"database/sql"
	"testing"
)

// Option describes a seeded answer option.
type Option struct {
	Text    string
	Correct bool
}

// SeedUser inserts a user and returns its id.
func SeedUser(t testing.TB, dbh *sql.DB, username string) int64 {
	t.Helper()
	var id int64
	err := dbh.QueryRowContext(context.Background(),
		`INSERT INTO users (username,email,password_hash,role,created_at) VALUES ($1,$2,'x','user',0) RETURNING id`,
		username, username+"@example.com").Scan(&id)
	if err != nil {
		t.Fatalf("seed user %q: %v", username, err)
	}
	return id
}

// SeedQuizSet inserts a quiz set owned by ownerID.
func SeedQuizSet(t testing.TB, dbh *sql.DB, ownerID int64, title string) int64 {
	t.Helper()
	var id int64
	err := dbh.QueryRowContext(context.Background(),
		`INSERT INTO quiz_sets (owner_id,title,description,created_at,updated_at) VALUES ($1,$2,'',0,0) RETURNING id`,
		ownerID, title).Scan(&id)
	if err != nil {
		t.Fatalf("seed quiz set %q: %v", title, err)
	}
	return id
}

// SeedQuestion inserts a question with options and returns the question id
// and the option ids in insertion order.
func SeedQuestion(t testing.TB, dbh *sql.DB, setID int64, text, qtype string, opts ...Option) (int64, []int64) {
	t.Helper()
	ctx := context.Background()
	var qid int64
	err := dbh.QueryRowContext(ctx,
		`INSERT INTO questions (quiz_set_id,question_text,question_type,explanation,created_at,updated_at)
		 VALUES ($1,$2,$3,'because',0,0) RETURNING id`,
		setID, text, qtype).Scan(&qid)
	if err != nil {
		t.Fatalf("seed question %q: %v", text, err)
	}
	ids := make([]int64, 0, len(opts))
	for _, o := range opts {
		var oid int64
		if err := dbh.QueryRowContext(ctx,
			`INSERT INTO options (question_id,option_text,is_correct) VALUES ($1,$2,$3) RETURNING id`,
			qid, o.Text, o.Correct).Scan(&oid); err != nil {
			t.Fatalf("seed option %q: %v", o.Text, err)
		}
		ids = append(ids, oid)
	}
	return qid, ids
}
