package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/apperr"
	"github.com/mind-engage/mindengage-quiz/internal/db"
)

// sqlStore holds the exam tables' SQL. It runs on the Querier it is given;
// the service decides the transaction.
type sqlStore struct {
	q db.Querier
}

var errExamNotFound = apperr.New(apperr.NotFound, "exam not found")

const examColumns = `e.id, e.quiz_set_id, s.title, e.user_id, e.title, e.duration_minutes, e.total_questions,
	e.started_at, e.ended_at, e.score, e.status, e.created_at`

func scanExam(sc interface{ Scan(...any) error }) (Exam, error) {
	var (
		e              Exam
		started, ended sql.NullInt64
		score          sql.NullFloat64
		status         string
		created        int64
	)
	if err := sc.Scan(&e.ID, &e.QuizSetID, &e.QuizSetTitle, &e.UserID, &e.Title, &e.DurationMinutes,
		&e.TotalQuestions, &started, &ended, &score, &status, &created); err != nil {
		return Exam{}, err
	}
	e.StartedAt = db.NullUnix(started)
	e.EndedAt = db.NullUnix(ended)
	if score.Valid {
		v := score.Float64
		e.Score = &v
	}
	e.Status = Status(status)
	e.CreatedAt = time.Unix(created, 0).UTC()
	return e, nil
}

func (s sqlStore) insert(ctx context.Context, e Exam) (int64, error) {
	var id int64
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO exams (quiz_set_id, user_id, title, duration_minutes, total_questions, status, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		e.QuizSetID, e.UserID, e.Title, e.DurationMinutes, e.TotalQuestions, string(StatusNotStarted), db.Now(e.CreatedAt)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert exam: %w", err)
	}
	return id, nil
}

func (s sqlStore) get(ctx context.Context, id int64) (Exam, error) {
	e, err := scanExam(s.q.QueryRowContext(ctx,
		`SELECT `+examColumns+` FROM exams e JOIN quiz_sets s ON s.id = e.quiz_set_id WHERE e.id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Exam{}, errExamNotFound
	}
	if err != nil {
		return Exam{}, fmt.Errorf("get exam: %w", err)
	}
	return e, nil
}

// lock takes the exam's row lock for the rest of the transaction with a
// no-op write, so concurrent lifecycle calls on one exam run one after the
// other and the later one reads the committed status.
func (s sqlStore) lock(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `UPDATE exams SET status = status WHERE id=$1`, id)
	ok, err := affectedOne(res, err, "lock exam")
	if err != nil {
		return err
	}
	if !ok {
		return errExamNotFound
	}
	return nil
}

func (s sqlStore) list(ctx context.Context, where string, args ...any) ([]Exam, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+examColumns+` FROM exams e JOIN quiz_sets s ON s.id = e.quiz_set_id
		 WHERE `+where+` ORDER BY e.created_at DESC, e.id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	defer rows.Close()
	out := []Exam{}
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// markStarted moves a not_started exam to in_progress. It reports false when
// the exam was no longer not_started.
func (s sqlStore) markStarted(ctx context.Context, id int64, now time.Time) (bool, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE exams SET status=$1, started_at=$2 WHERE id=$3 AND status=$4`,
		string(StatusInProgress), db.Now(now), id, string(StatusNotStarted))
	return affectedOne(res, err, "start exam")
}

// markCompleted moves an in_progress exam to completed with its score.
func (s sqlStore) markCompleted(ctx context.Context, id int64, score float64, now time.Time) (bool, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE exams SET status=$1, ended_at=$2, score=$3 WHERE id=$4 AND status=$5`,
		string(StatusCompleted), db.Now(now), score, id, string(StatusInProgress))
	return affectedOne(res, err, "complete exam")
}

func affectedOne(res sql.Result, err error, op string) (bool, error) {
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

func (s sqlStore) insertQuestions(ctx context.Context, examID int64, ids []int64) error {
	for i, qid := range ids {
		if _, err := s.q.ExecContext(ctx,
			`INSERT INTO exam_questions (exam_id, question_id, position) VALUES ($1,$2,$3)`,
			examID, qid, i); err != nil {
			return fmt.Errorf("insert exam question: %w", err)
		}
	}
	return nil
}

// questionIDs returns the sampled ids of an exam in presentation order.
func (s sqlStore) questionIDs(ctx context.Context, examID int64) ([]int64, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT question_id FROM exam_questions WHERE exam_id=$1 ORDER BY position`, examID)
	if err != nil {
		return nil, fmt.Errorf("exam questions: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s sqlStore) insertAnswer(ctx context.Context, examID int64, a answerRecord, now time.Time) error {
	sel := a.Selected
	if sel == nil {
		sel = []int64{}
	}
	buf, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("marshal selection: %w", err)
	}
	if _, err := s.q.ExecContext(ctx,
		`INSERT INTO exam_answers (exam_id, question_id, selected_options, is_correct, answered_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		examID, a.QuestionID, string(buf), a.IsCorrect, db.Now(now)); err != nil {
		return fmt.Errorf("insert exam answer: %w", err)
	}
	return nil
}

// answers returns the stored answers in the order the questions were shown.
func (s sqlStore) answers(ctx context.Context, examID int64) ([]answerRecord, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT ea.question_id, ea.selected_options, ea.is_correct
		 FROM exam_answers ea
		 LEFT JOIN exam_questions eq ON eq.exam_id = ea.exam_id AND eq.question_id = ea.question_id
		 WHERE ea.exam_id=$1
		 ORDER BY COALESCE(eq.position, 0), ea.answered_at, ea.id`, examID)
	if err != nil {
		return nil, fmt.Errorf("exam answers: %w", err)
	}
	defer rows.Close()
	var out []answerRecord
	for rows.Next() {
		var (
			a   answerRecord
			sel string
		)
		if err := rows.Scan(&a.QuestionID, &sel, &a.IsCorrect); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(sel), &a.Selected); err != nil {
			return nil, fmt.Errorf("decode selection: %w", err)
		}
		if a.Selected == nil {
			a.Selected = []int64{}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
