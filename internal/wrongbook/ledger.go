// Package wrongbook keeps the per-user ledger of missed questions. Practice
// and exam submission both feed it through RecordAttempt, inside their own
// transactions.
package wrongbook

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mind-engage/mindengage-quiz/internal/apperr"
	"github.com/mind-engage/mindengage-quiz/internal/content"
	"github.com/mind-engage/mindengage-quiz/internal/db"
)

type Entry struct {
	ID            int64            `json:"wrongQuestionId"`
	QuestionID    int64            `json:"questionId"`
	QuizSetID     int64            `json:"quizSetId"`
	QuizSetTitle  string           `json:"quizSetTitle"`
	WrongCount    int              `json:"wrongCount"`
	LastAttempted time.Time        `json:"lastAttempted"`
	IsMastered    bool             `json:"isMastered"`
	Question      content.Question `json:"question"`
}

type Stats struct {
	TotalWrong      int     `json:"totalWrong"`
	UnmasteredCount int     `json:"unmasteredCount"`
	MasteredCount   int     `json:"masteredCount"`
	AvgWrongCount   float64 `json:"avgWrongCount"`
}

// ListOptions filters List. QuizSetID 0 means every set.
type ListOptions struct {
	QuizSetID       int64
	IncludeMastered bool
}

type Ledger struct {
	DB  *sql.DB
	Now func() time.Time
}

func New(dbh *sql.DB) *Ledger { return &Ledger{DB: dbh, Now: time.Now} }

// RecordAttempt registers the outcome of one answered question. A miss
// inserts a record with count 1 or increments the existing one, stamps the
// attempt time and clears mastery. A correct answer writes nothing.
func (l *Ledger) RecordAttempt(ctx context.Context, q db.Querier, userID, questionID int64, correct bool) error {
	if correct {
		return nil
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO wrong_questions (user_id, question_id, wrong_count, last_attempted, is_mastered)
		 VALUES ($1, $2, 1, $3, $4)
		 ON CONFLICT (user_id, question_id) DO UPDATE SET
		   wrong_count = wrong_questions.wrong_count + 1,
		   last_attempted = excluded.last_attempted,
		   is_mastered = excluded.is_mastered`,
		userID, questionID, db.Now(l.Now()), false)
	if err != nil {
		return fmt.Errorf("record wrong attempt: %w", err)
	}
	return nil
}

// Add records a manual miss on a question the user owns.
func (l *Ledger) Add(ctx context.Context, userID, questionID int64) (Entry, error) {
	var id int64
	err := db.WithTx(ctx, l.DB, nil, func(tx *sql.Tx) error {
		_, owner, err := content.NewRepo(tx).QuestionOwner(ctx, questionID)
		if err != nil {
			return err
		}
		if owner != userID {
			return apperr.New(apperr.Forbidden, "not the owner of this question")
		}
		if err := l.RecordAttempt(ctx, tx, userID, questionID, false); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx,
			`SELECT id FROM wrong_questions WHERE user_id=$1 AND question_id=$2`, userID, questionID).Scan(&id)
	})
	if err != nil {
		return Entry{}, err
	}
	return l.get(ctx, userID, id)
}

func (l *Ledger) get(ctx context.Context, userID, id int64) (Entry, error) {
	entries, err := l.query(ctx, `wq.user_id = $1 AND wq.id = $2`, userID, id)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, apperr.New(apperr.NotFound, "wrong question record not found")
	}
	return entries[0], nil
}

// List returns the user's records, most missed first, then most recent.
func (l *Ledger) List(ctx context.Context, userID int64, opt ListOptions) ([]Entry, error) {
	where := `wq.user_id = $1`
	args := []any{userID}
	if opt.QuizSetID != 0 {
		args = append(args, opt.QuizSetID)
		where += fmt.Sprintf(` AND q.quiz_set_id = $%d`, len(args))
	}
	if !opt.IncludeMastered {
		args = append(args, false)
		where += fmt.Sprintf(` AND wq.is_mastered = $%d`, len(args))
	}
	return l.query(ctx, where, args...)
}

func (l *Ledger) query(ctx context.Context, where string, args ...any) ([]Entry, error) {
	rows, err := l.DB.QueryContext(ctx,
		`SELECT wq.id, wq.question_id, q.quiz_set_id, s.title, wq.wrong_count, wq.last_attempted, wq.is_mastered
		 FROM wrong_questions wq
		 JOIN questions q ON q.id = wq.question_id
		 JOIN quiz_sets s ON s.id = q.quiz_set_id
		 WHERE `+where+`
		 ORDER BY wq.wrong_count DESC, wq.last_attempted DESC, wq.id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list wrong questions: %w", err)
	}
	out := []Entry{}
	var ids []int64
	for rows.Next() {
		var (
			e    Entry
			last int64
		)
		if err := rows.Scan(&e.ID, &e.QuestionID, &e.QuizSetID, &e.QuizSetTitle, &e.WrongCount, &last, &e.IsMastered); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan wrong question: %w", err)
		}
		e.LastAttempted = time.Unix(last, 0).UTC()
		out = append(out, e)
		ids = append(ids, e.QuestionID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	qs, err := content.NewRepo(l.DB).QuestionsWithOptions(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]content.Question, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}
	for i := range out {
		out[i].Question = byID[out[i].QuestionID]
	}
	return out, nil
}

// Master flags a record as mastered. Records of other users are NotFound.
func (l *Ledger) Master(ctx context.Context, userID, id int64) error {
	res, err := l.DB.ExecContext(ctx,
		`UPDATE wrong_questions SET is_mastered = $1 WHERE id = $2 AND user_id = $3`, true, id, userID)
	return requireOne(res, err, "mark mastered")
}

func (l *Ledger) Remove(ctx context.Context, userID, id int64) error {
	res, err := l.DB.ExecContext(ctx, `DELETE FROM wrong_questions WHERE id = $1 AND user_id = $2`, id, userID)
	return requireOne(res, err, "remove wrong question")
}

func requireOne(res sql.Result, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return apperr.New(apperr.NotFound, "wrong question record not found")
	}
	return nil
}

func (l *Ledger) Stats(ctx context.Context, userID int64) (Stats, error) {
	var (
		st       Stats
		sumWrong int64
	)
	err := l.DB.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN is_mastered THEN 0 ELSE 1 END), 0),
		        COALESCE(SUM(CASE WHEN is_mastered THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(wrong_count), 0)
		 FROM wrong_questions WHERE user_id = $1`, userID).
		Scan(&st.TotalWrong, &st.UnmasteredCount, &st.MasteredCount, &sumWrong)
	if err != nil {
		return Stats{}, fmt.Errorf("wrong question stats: %w", err)
	}
	if st.TotalWrong > 0 {
		st.AvgWrongCount = decimal.NewFromInt(sumWrong).
			DivRound(decimal.NewFromInt(int64(st.TotalWrong)), 2).InexactFloat64()
	}
	return st, nil
}
