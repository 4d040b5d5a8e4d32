package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/apperr"
	"github.com/mind-engage/mindengage-quiz/internal/db"
)

// Repo is the SQL side of the content repository. It runs on whatever
// Querier it is given, so callers decide the transaction boundary.
type Repo struct {
	q db.Querier
}

func NewRepo(q db.Querier) *Repo { return &Repo{q: q} }

var errQuizSetNotFound = apperr.New(apperr.NotFound, "quiz set not found")
var errQuestionNotFound = apperr.New(apperr.NotFound, "question not found")

// ---- quiz sets ----

func (r *Repo) QuizSetOwner(ctx context.Context, setID int64) (int64, error) {
	var owner int64
	err := r.q.QueryRowContext(ctx, `SELECT owner_id FROM quiz_sets WHERE id=$1`, setID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errQuizSetNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("quiz set owner: %w", err)
	}
	return owner, nil
}

const quizSetColumns = `s.id, s.owner_id, s.title, s.description, s.created_at, s.updated_at,
	(SELECT COUNT(*) FROM questions q WHERE q.quiz_set_id = s.id)`

func scanQuizSet(sc interface{ Scan(...any) error }) (QuizSet, error) {
	var (
		s                QuizSet
		created, updated int64
	)
	if err := sc.Scan(&s.ID, &s.OwnerID, &s.Title, &s.Description, &created, &updated, &s.QuestionCount); err != nil {
		return QuizSet{}, err
	}
	s.CreatedAt = time.Unix(created, 0).UTC()
	s.UpdatedAt = time.Unix(updated, 0).UTC()
	return s, nil
}

func (r *Repo) GetQuizSet(ctx context.Context, setID int64) (QuizSet, error) {
	s, err := scanQuizSet(r.q.QueryRowContext(ctx, `SELECT `+quizSetColumns+` FROM quiz_sets s WHERE s.id=$1`, setID))
	if errors.Is(err, sql.ErrNoRows) {
		return QuizSet{}, errQuizSetNotFound
	}
	if err != nil {
		return QuizSet{}, fmt.Errorf("get quiz set: %w", err)
	}
	return s, nil
}

func (r *Repo) ListQuizSets(ctx context.Context, ownerID int64) ([]QuizSet, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+quizSetColumns+` FROM quiz_sets s WHERE s.owner_id=$1 ORDER BY s.created_at DESC, s.id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list quiz sets: %w", err)
	}
	defer rows.Close()
	out := []QuizSet{}
	for rows.Next() {
		s, err := scanQuizSet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quiz set: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) InsertQuizSet(ctx context.Context, ownerID int64, in QuizSetInput, now time.Time) (QuizSet, error) {
	s := QuizSet{OwnerID: ownerID, Title: in.Title, Description: in.Description,
		CreatedAt: now.UTC().Truncate(time.Second), UpdatedAt: now.UTC().Truncate(time.Second)}
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO quiz_sets (owner_id, title, description, created_at, updated_at) VALUES ($1,$2,$3,$4,$4) RETURNING id`,
		ownerID, in.Title, in.Description, db.Now(now)).Scan(&s.ID)
	if err != nil {
		return QuizSet{}, fmt.Errorf("insert quiz set: %w", err)
	}
	return s, nil
}

func (r *Repo) UpdateQuizSet(ctx context.Context, setID int64, in QuizSetInput, now time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE quiz_sets SET title=$1, description=$2, updated_at=$3 WHERE id=$4`,
		in.Title, in.Description, db.Now(now), setID)
	if err != nil {
		return fmt.Errorf("update quiz set: %w", err)
	}
	return nil
}

// DeleteQuizSet removes the set; questions, options and exams cascade.
func (r *Repo) DeleteQuizSet(ctx context.Context, setID int64) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM quiz_sets WHERE id=$1`, setID); err != nil {
		return fmt.Errorf("delete quiz set: %w", err)
	}
	return nil
}

// ---- questions ----

func (r *Repo) CountQuestions(ctx context.Context, setID int64) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions WHERE quiz_set_id=$1`, setID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

func (r *Repo) QuestionIDs(ctx context.Context, setID int64) ([]int64, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id FROM questions WHERE quiz_set_id=$1 ORDER BY id`, setID)
	if err != nil {
		return nil, fmt.Errorf("question ids: %w", err)
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

// QuestionOwner returns the quiz set and its owner for a question.
func (r *Repo) QuestionOwner(ctx context.Context, questionID int64) (setID, ownerID int64, err error) {
	err = r.q.QueryRowContext(ctx,
		`SELECT q.quiz_set_id, s.owner_id FROM questions q JOIN quiz_sets s ON s.id = q.quiz_set_id WHERE q.id=$1`,
		questionID).Scan(&setID, &ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, errQuestionNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("question owner: %w", err)
	}
	return setID, ownerID, nil
}

const questionColumns = `q.id, q.quiz_set_id, q.question_text, q.question_type, q.explanation,
	q.image_url, q.category, q.difficulty, q.created_at`

func scanQuestion(sc interface{ Scan(...any) error }) (Question, error) {
	var (
		q                          Question
		image, category, difficult sql.NullString
		created                    int64
	)
	if err := sc.Scan(&q.ID, &q.QuizSetID, &q.Text, &q.Type, &q.Explanation, &image, &category, &difficult, &created); err != nil {
		return Question{}, err
	}
	q.ImageURL = nullString(image)
	q.Category = nullString(category)
	q.Difficulty = nullString(difficult)
	q.CreatedAt = time.Unix(created, 0).UTC()
	q.Options = []Option{}
	q.Tags = []string{}
	return q, nil
}

// QuestionsWithOptions loads the given questions with their options ordered
// by option id. The result follows the order of ids; unknown ids are skipped.
func (r *Repo) QuestionsWithOptions(ctx context.Context, ids []int64) ([]Question, error) {
	if len(ids) == 0 {
		return []Question{}, nil
	}
	in, args := inClause(1, ids)
	rows, err := r.q.QueryContext(ctx, `SELECT `+questionColumns+` FROM questions q WHERE q.id IN (`+in+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	byID := make(map[int64]*Question, len(ids))
	loaded := make([]Question, 0, len(ids))
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan question: %w", err)
		}
		loaded = append(loaded, q)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	for i := range loaded {
		byID[loaded[i].ID] = &loaded[i]
	}
	if err := r.attachOptions(ctx, byID, ids); err != nil {
		return nil, err
	}
	if err := r.attachTags(ctx, byID, ids); err != nil {
		return nil, err
	}

	out := make([]Question, 0, len(loaded))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (r *Repo) GetQuestion(ctx context.Context, questionID int64) (Question, error) {
	qs, err := r.QuestionsWithOptions(ctx, []int64{questionID})
	if err != nil {
		return Question{}, err
	}
	if len(qs) == 0 {
		return Question{}, errQuestionNotFound
	}
	return qs[0], nil
}

func (r *Repo) attachOptions(ctx context.Context, byID map[int64]*Question, ids []int64) error {
	in, args := inClause(1, ids)
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, question_id, option_text, is_correct FROM options WHERE question_id IN (`+in+`) ORDER BY id`, args...)
	if err != nil {
		return fmt.Errorf("load options: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect); err != nil {
			return fmt.Errorf("scan option: %w", err)
		}
		if q, ok := byID[o.QuestionID]; ok {
			q.Options = append(q.Options, o)
		}
	}
	return rows.Err()
}

func (r *Repo) attachTags(ctx context.Context, byID map[int64]*Question, ids []int64) error {
	in, args := inClause(1, ids)
	rows, err := r.q.QueryContext(ctx,
		`SELECT qt.question_id, t.name FROM question_tags qt JOIN tags t ON t.id = qt.tag_id
		 WHERE qt.question_id IN (`+in+`) ORDER BY t.name`, args...)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			qid  int64
			name string
		)
		if err := rows.Scan(&qid, &name); err != nil {
			return fmt.Errorf("scan tag: %w", err)
		}
		if q, ok := byID[qid]; ok {
			q.Tags = append(q.Tags, name)
		}
	}
	return rows.Err()
}

// CorrectOptionIDs maps each question id to its correct option ids. A
// question without correct options maps to an empty slice.
func (r *Repo) CorrectOptionIDs(ctx context.Context, questionIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(questionIDs))
	if len(questionIDs) == 0 {
		return out, nil
	}
	for _, id := range questionIDs {
		out[id] = []int64{}
	}
	in, args := inClause(1, questionIDs)
	rows, err := r.q.QueryContext(ctx,
		`SELECT question_id, id FROM options WHERE is_correct = $`+strconv.Itoa(len(args)+1)+` AND question_id IN (`+in+`) ORDER BY id`,
		append(args, true)...)
	if err != nil {
		return nil, fmt.Errorf("correct options: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var qid, oid int64
		if err := rows.Scan(&qid, &oid); err != nil {
			return nil, err
		}
		out[qid] = append(out[qid], oid)
	}
	return out, rows.Err()
}

func (r *Repo) ListQuestions(ctx context.Context, setID int64, f QuestionFilter) ([]Question, error) {
	sqlStr := `SELECT q.id FROM questions q WHERE q.quiz_set_id=$1`
	args := []any{setID}
	if s := strings.TrimSpace(f.Query); s != "" {
		args = append(args, "%"+strings.ToLower(s)+"%")
		n := strconv.Itoa(len(args))
		sqlStr += ` AND (LOWER(q.question_text) LIKE $` + n + ` OR LOWER(q.explanation) LIKE $` + n + `)`
	}
	if s := strings.TrimSpace(f.Category); s != "" {
		args = append(args, s)
		sqlStr += ` AND q.category = $` + strconv.Itoa(len(args))
	}
	if s := strings.TrimSpace(f.Difficulty); s != "" {
		args = append(args, s)
		sqlStr += ` AND q.difficulty = $` + strconv.Itoa(len(args))
	}
	if s := strings.TrimSpace(f.Tag); s != "" {
		args = append(args, strings.ToLower(s))
		sqlStr += ` AND EXISTS (SELECT 1 FROM question_tags qt JOIN tags t ON t.id = qt.tag_id
			WHERE qt.question_id = q.id AND t.name = $` + strconv.Itoa(len(args)) + `)`
	}
	sqlStr += ` ORDER BY q.created_at, q.id`

	rows, err := r.q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	return r.QuestionsWithOptions(ctx, ids)
}

// InsertQuestion writes a validated question with its options and tags.
// Callers wrap it in a transaction.
func (r *Repo) InsertQuestion(ctx context.Context, setID int64, in QuestionInput, now time.Time) (int64, error) {
	var id int64
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO questions (quiz_set_id, question_text, question_type, explanation, image_url, category, difficulty, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8) RETURNING id`,
		setID, in.Text, in.Type, in.Explanation, in.ImageURL, in.Category, in.Difficulty, db.Now(now)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert question: %w", err)
	}
	if err := r.insertOptions(ctx, id, in.Options); err != nil {
		return 0, err
	}
	if err := r.AttachTags(ctx, id, in.Tags); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateQuestion rewrites the question fields and replaces options and tags.
// The image is managed separately and left untouched.
func (r *Repo) UpdateQuestion(ctx context.Context, questionID int64, in QuestionInput, now time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE questions SET question_text=$1, question_type=$2, explanation=$3, category=$4, difficulty=$5, updated_at=$6
		 WHERE id=$7`,
		in.Text, in.Type, in.Explanation, in.Category, in.Difficulty, db.Now(now), questionID)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if _, err := r.q.ExecContext(ctx, `DELETE FROM options WHERE question_id=$1`, questionID); err != nil {
		return fmt.Errorf("clear options: %w", err)
	}
	if err := r.insertOptions(ctx, questionID, in.Options); err != nil {
		return err
	}
	if _, err := r.q.ExecContext(ctx, `DELETE FROM question_tags WHERE question_id=$1`, questionID); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	return r.AttachTags(ctx, questionID, in.Tags)
}

func (r *Repo) insertOptions(ctx context.Context, questionID int64, opts []OptionInput) error {
	for _, o := range opts {
		if _, err := r.q.ExecContext(ctx,
			`INSERT INTO options (question_id, option_text, is_correct) VALUES ($1,$2,$3)`,
			questionID, o.Text, o.IsCorrect); err != nil {
			return fmt.Errorf("insert option: %w", err)
		}
	}
	return nil
}

func (r *Repo) DeleteQuestion(ctx context.Context, questionID int64) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, questionID); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

func (r *Repo) SetImageURL(ctx context.Context, questionID int64, url *string, now time.Time) error {
	if _, err := r.q.ExecContext(ctx,
		`UPDATE questions SET image_url=$1, updated_at=$2 WHERE id=$3`, url, db.Now(now), questionID); err != nil {
		return fmt.Errorf("set image url: %w", err)
	}
	return nil
}

// ---- tags ----

func (r *Repo) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()
	out := []Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AttachTags links tags to a question, creating missing tags.
func (r *Repo) AttachTags(ctx context.Context, questionID int64, names []string) error {
	for _, name := range normalizeTags(names) {
		if _, err := r.q.ExecContext(ctx, `INSERT INTO tags (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
			return fmt.Errorf("insert tag: %w", err)
		}
		var tagID int64
		if err := r.q.QueryRowContext(ctx, `SELECT id FROM tags WHERE name=$1`, name).Scan(&tagID); err != nil {
			return fmt.Errorf("lookup tag: %w", err)
		}
		if _, err := r.q.ExecContext(ctx,
			`INSERT INTO question_tags (question_id, tag_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`, questionID, tagID); err != nil {
			return fmt.Errorf("link tag: %w", err)
		}
	}
	return nil
}

// ---- practice progress ----

func (r *Repo) InsertProgress(ctx context.Context, userID, setID, questionID int64, correct bool, now time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO user_progress (user_id, quiz_set_id, question_id, is_correct, attempted_at) VALUES ($1,$2,$3,$4,$5)`,
		userID, setID, questionID, correct, db.Now(now))
	if err != nil {
		return fmt.Errorf("insert progress: %w", err)
	}
	return nil
}

// ProgressCounts returns total and correct practice attempts of a user on a set.
func (r *Repo) ProgressCounts(ctx context.Context, userID, setID int64) (total, correct int, err error) {
	err = r.q.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0)
		 FROM user_progress WHERE user_id=$1 AND quiz_set_id=$2`, userID, setID).Scan(&total, &correct)
	if err != nil {
		return 0, 0, fmt.Errorf("progress counts: %w", err)
	}
	return total, correct, nil
}

// inClause renders "$start,$start+1,..." for ids and returns them as args.
func inClause(start int, ids []int64) (string, []any) {
	var b strings.Builder
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(start + i))
		args = append(args, id)
	}
	return b.String(), args
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
