package exam

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/apperr"
	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/metrics"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
)

// Service runs the exam lifecycle: not_started -> in_progress -> completed.
// Each operation is one transaction; status changes are conditional updates,
// so of two racing calls on the same exam exactly one wins.
type Service struct {
	DB      *sql.DB
	Content ContentFactory
	Tracker Tracker
	Events  EventSink
	Grader  grading.Grader
	Sampler *Sampler
	Now     func() time.Time
}

func NewService(dbh *sql.DB, tracker Tracker, events EventSink) *Service {
	if events == nil {
		events = nopEvents{}
	}
	return &Service{
		DB:      dbh,
		Content: SQLContent,
		Tracker: tracker,
		Events:  events,
		Grader:  grading.NewDefaultGrader(),
		Sampler: NewSampler(0),
		Now:     time.Now,
	}
}

func (s *Service) now() time.Time { return s.Now().UTC().Truncate(time.Second) }

func reject(op string, err error) error {
	if err != nil {
		metrics.ExamRejections.WithLabelValues(op, string(apperr.KindOf(err))).Inc()
	}
	return err
}

func ownedBy(e Exam, requester int64) error {
	if e.UserID != requester {
		return apperr.New(apperr.Forbidden, "you do not have permission to access this exam")
	}
	return nil
}

// Create persists a not_started exam over a quiz set the requester owns.
// Questions are sampled later, on Start.
func (s *Service) Create(ctx context.Context, requester, setID int64, in CreateInput) (Exam, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || in.DurationMinutes == 0 {
		return Exam{}, reject("create", apperr.New(apperr.InvalidArgument, "title and duration are required"))
	}
	if in.DurationMinutes < 0 {
		return Exam{}, reject("create", apperr.New(apperr.InvalidArgument, "duration must be positive"))
	}

	var e Exam
	err := db.WithTx(ctx, s.DB, nil, func(tx *sql.Tx) error {
		cr := s.Content(tx)
		owner, err := cr.QuizSetOwner(ctx, setID)
		if err != nil {
			return err
		}
		if owner != requester {
			return apperr.New(apperr.Forbidden, "you do not have permission to create an exam for this quiz set")
		}
		available, err := cr.CountQuestions(ctx, setID)
		if err != nil {
			return err
		}
		total := ResolveCount(in.QuestionCount, available)
		if total == 0 {
			return apperr.New(apperr.InvalidArgument, "no questions available in this quiz set")
		}
		st := sqlStore{q: tx}
		id, err := st.insert(ctx, Exam{
			QuizSetID:       setID,
			UserID:          requester,
			Title:           in.Title,
			DurationMinutes: in.DurationMinutes,
			TotalQuestions:  total,
			CreatedAt:       s.now(),
		})
		if err != nil {
			return err
		}
		e, err = st.get(ctx, id)
		return err
	})
	if err != nil {
		return Exam{}, reject("create", err)
	}
	return e, nil
}

// Start moves the exam to in_progress, samples its questions and returns them
// without correctness flags.
func (s *Service) Start(ctx context.Context, requester, examID int64) (StartResult, error) {
	var out StartResult
	err := db.WithTx(ctx, s.DB, nil, func(tx *sql.Tx) error {
		st := sqlStore{q: tx}
		if err := st.lock(ctx, examID); err != nil {
			return err
		}
		e, err := st.get(ctx, examID)
		if err != nil {
			return err
		}
		if err := ownedBy(e, requester); err != nil {
			return err
		}
		if e.Status != StatusNotStarted {
			return apperr.New(apperr.InvalidState, "exam has already been started")
		}
		now := s.now()
		ok, err := st.markStarted(ctx, examID, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.InvalidState, "exam has already been started")
		}

		cr := s.Content(tx)
		all, err := cr.QuestionIDs(ctx, e.QuizSetID)
		if err != nil {
			return err
		}
		picked := s.Sampler.Sample(all, e.TotalQuestions)
		if err := st.insertQuestions(ctx, examID, picked); err != nil {
			return err
		}
		qs, err := cr.QuestionsWithOptions(ctx, picked)
		if err != nil {
			return err
		}

		out = StartResult{
			ExamID:          e.ID,
			Title:           e.Title,
			DurationMinutes: e.DurationMinutes,
			StartedAt:       now,
			Questions:       make([]QuestionView, 0, len(qs)),
		}
		for _, q := range qs {
			v := QuestionView{ID: q.ID, QuestionText: q.Text, QuestionType: q.Type, ImageURL: q.ImageURL,
				Options: make([]OptionView, 0, len(q.Options))}
			for _, o := range q.Options {
				v.Options = append(v.Options, OptionView{ID: o.ID, Text: o.Text})
			}
			out.Questions = append(out.Questions, v)
		}
		return nil
	})
	if err != nil {
		return StartResult{}, reject("start", err)
	}
	metrics.ExamTransitions.WithLabelValues(string(StatusInProgress)).Inc()
	return out, nil
}

// deadlineExceeded reports whether more than the exam's duration has elapsed
// since it started.
func deadlineExceeded(e Exam, now time.Time) bool {
	if e.StartedAt == nil {
		return false
	}
	return now.Sub(*e.StartedAt).Minutes() > float64(e.DurationMinutes)
}

func validateAnswers(answers []Answer) error {
	if answers == nil {
		return apperr.New(apperr.InvalidArgument, "answers must be an array")
	}
	seen := make(map[int64]struct{}, len(answers))
	for _, a := range answers {
		if a.QuestionID <= 0 {
			return apperr.New(apperr.InvalidArgument, "every answer needs a questionId")
		}
		if _, dup := seen[a.QuestionID]; dup {
			return apperr.Newf(apperr.InvalidArgument, "question %d answered twice", a.QuestionID)
		}
		seen[a.QuestionID] = struct{}{}
	}
	return nil
}

// Submit scores the answers and completes the exam. Scoring, answer rows,
// wrong-question ledger updates, the ExamCompleted event and the status change
// commit together or not at all. The transaction is not bound to the caller's
// cancellation.
func (s *Service) Submit(ctx context.Context, requester, examID int64, answers []Answer) (SubmitResult, error) {
	if err := validateAnswers(answers); err != nil {
		return SubmitResult{}, reject("submit", err)
	}
	started := time.Now()
	ctx = context.WithoutCancel(ctx)

	var out SubmitResult
	err := db.WithTx(ctx, s.DB, nil, func(tx *sql.Tx) error {
		st := sqlStore{q: tx}
		if err := st.lock(ctx, examID); err != nil {
			return err
		}
		e, err := st.get(ctx, examID)
		if err != nil {
			return err
		}
		if err := ownedBy(e, requester); err != nil {
			return err
		}
		if e.Status != StatusInProgress {
			return apperr.New(apperr.InvalidState, "exam is not in progress")
		}
		now := s.now()
		if deadlineExceeded(e, now) {
			return apperr.New(apperr.DeadlineExceeded, "exam time has expired")
		}

		sampled, err := st.questionIDs(ctx, examID)
		if err != nil {
			return err
		}
		inExam := make(map[int64]string, len(sampled))
		for _, id := range sampled {
			inExam[id] = ""
		}
		ids := make([]int64, 0, len(answers))
		for _, a := range answers {
			if _, ok := inExam[a.QuestionID]; !ok {
				return apperr.Newf(apperr.InvalidArgument, "question %d is not part of this exam", a.QuestionID)
			}
			ids = append(ids, a.QuestionID)
		}

		cr := s.Content(tx)
		correctByID, err := cr.CorrectOptionIDs(ctx, ids)
		if err != nil {
			return err
		}
		qs, err := cr.QuestionsWithOptions(ctx, ids)
		if err != nil {
			return err
		}
		for _, q := range qs {
			inExam[q.ID] = q.Type
		}

		correctCount := 0
		attempts := make([]grading.Result, 0, len(answers))
		for _, a := range answers {
			res := s.Grader.Grade(grading.Q{
				ID:               a.QuestionID,
				Type:             inExam[a.QuestionID],
				CorrectOptionIDs: correctByID[a.QuestionID],
			}, a.SelectedOptions)
			if res.Correct {
				correctCount++
			}
			if err := st.insertAnswer(ctx, examID, answerRecord{
				QuestionID: a.QuestionID, Selected: a.SelectedOptions, IsCorrect: res.Correct,
			}, now); err != nil {
				return err
			}
			if res.Answered {
				res.QuestionID = a.QuestionID
				attempts = append(attempts, res)
			}
		}
		// ledger rows are upserted in question order, so two submits of the
		// same user lock them in the same order
		sort.Slice(attempts, func(i, j int) bool { return attempts[i].QuestionID < attempts[j].QuestionID })
		for _, res := range attempts {
			if err := s.Tracker.RecordAttempt(ctx, tx, requester, res.QuestionID, res.Correct); err != nil {
				return err
			}
		}

		score := grading.Score(correctCount, e.TotalQuestions)
		ok, err := st.markCompleted(ctx, examID, score, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.InvalidState, "exam is not in progress")
		}
		if err := s.Events.Append(ctx, tx, syncx.TypeExamCompleted, strconv.FormatInt(examID, 10), completedEvent{
			ExamID:         examID,
			QuizSetID:      e.QuizSetID,
			UserID:         requester,
			TotalQuestions: e.TotalQuestions,
			CorrectCount:   correctCount,
			Score:          score,
			CompletedAt:    now.Unix(),
		}, now); err != nil {
			return err
		}

		out = SubmitResult{
			ExamID:         examID,
			TotalQuestions: e.TotalQuestions,
			CorrectCount:   correctCount,
			Score:          score,
			CompletedAt:    now,
		}
		return nil
	})
	if err != nil {
		return SubmitResult{}, reject("submit", err)
	}
	metrics.ExamSubmitDuration.Observe(time.Since(started).Seconds())
	metrics.ExamTransitions.WithLabelValues(string(StatusCompleted)).Inc()
	return out, nil
}

// Results returns the exam with every stored answer and the full option list,
// correctness included.
func (s *Service) Results(ctx context.Context, requester, examID int64) (Results, error) {
	return s.results(ctx, examID, func(e Exam) error { return ownedBy(e, requester) })
}

// ResultsAny is Results without the ownership check, for reviewers allowed
// to see every exam.
func (s *Service) ResultsAny(ctx context.Context, examID int64) (Results, error) {
	return s.results(ctx, examID, func(Exam) error { return nil })
}

func (s *Service) results(ctx context.Context, examID int64, allow func(Exam) error) (Results, error) {
	st := sqlStore{q: s.DB}
	e, err := st.get(ctx, examID)
	if err != nil {
		return Results{}, err
	}
	if err := allow(e); err != nil {
		return Results{}, err
	}
	recs, err := st.answers(ctx, examID)
	if err != nil {
		return Results{}, err
	}
	ids := make([]int64, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.QuestionID)
	}
	qs, err := s.Content(s.DB).QuestionsWithOptions(ctx, ids)
	if err != nil {
		return Results{}, err
	}
	byID := make(map[int64]int, len(qs))
	for i, q := range qs {
		byID[q.ID] = i
	}

	out := Results{Exam: e, Answers: make([]AnswerDetail, 0, len(recs))}
	for _, r := range recs {
		d := AnswerDetail{QuestionID: r.QuestionID, SelectedOptions: r.Selected, IsCorrect: r.IsCorrect,
			Options: []ResultOption{}}
		if i, ok := byID[r.QuestionID]; ok {
			q := qs[i]
			d.QuestionText = q.Text
			d.Explanation = q.Explanation
			for _, o := range q.Options {
				d.Options = append(d.Options, ResultOption{ID: o.ID, Text: o.Text, IsCorrect: o.IsCorrect})
			}
		}
		out.Answers = append(out.Answers, d)
	}
	return out, nil
}

// List returns the requester's exams, newest first.
func (s *Service) List(ctx context.Context, requester int64) ([]Exam, error) {
	return sqlStore{q: s.DB}.list(ctx, `e.user_id = $1`, requester)
}

// Overdue lists in-progress exams whose window has elapsed. It is a report
// only: nothing here changes exam state.
func (s *Service) Overdue(ctx context.Context) ([]Exam, error) {
	return sqlStore{q: s.DB}.list(ctx,
		`e.status = $1 AND e.started_at IS NOT NULL AND e.started_at + e.duration_minutes * 60 < $2`,
		string(StatusInProgress), db.Now(s.now()))
}

// SweepOverdue refreshes the overdue gauge and returns the count.
func (s *Service) SweepOverdue(ctx context.Context) (int, error) {
	exams, err := s.Overdue(ctx)
	if err != nil {
		return 0, err
	}
	metrics.ExamsOverdue.Set(float64(len(exams)))
	return len(exams), nil
}
