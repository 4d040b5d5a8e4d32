// Package practice grades single-question practice answers outside of exams.
package practice

import (
	"context"
	"database/sql"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/apperr"
	"github.com/mind-engage/mindengage-quiz/internal/content"
	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
)

// Tracker receives every answered practice question.
type Tracker interface {
	RecordAttempt(ctx context.Context, q db.Querier, userID, questionID int64, correct bool) error
}

type Result struct {
	IsCorrect      bool    `json:"isCorrect"`
	CorrectOptions []int64 `json:"correctOptions"`
	Explanation    string  `json:"explanation"`
}

type Service struct {
	DB      *sql.DB
	Tracker Tracker
	Grader  grading.Grader
	Now     func() time.Time
}

func NewService(dbh *sql.DB, tracker Tracker) *Service {
	return &Service{DB: dbh, Tracker: tracker, Grader: grading.NewDefaultGrader(), Now: time.Now}
}

// Submit grades one answer, logs the attempt to the user's progress and
// feeds the wrong-question ledger, all in one transaction. Only questions of
// the user's own quiz sets can be practiced; others are NotFound.
func (s *Service) Submit(ctx context.Context, userID, questionID int64, selected []int64) (Result, error) {
	if selected == nil {
		return Result{}, apperr.New(apperr.InvalidArgument, "selectedOptions must be an array")
	}
	var out Result
	err := db.WithTx(ctx, s.DB, nil, func(tx *sql.Tx) error {
		repo := content.NewRepo(tx)
		setID, owner, err := repo.QuestionOwner(ctx, questionID)
		if err != nil {
			return err
		}
		if owner != userID {
			return apperr.New(apperr.NotFound, "question not found")
		}
		q, err := repo.GetQuestion(ctx, questionID)
		if err != nil {
			return err
		}
		correct := q.CorrectOptionIDs()
		res := s.Grader.Grade(grading.Q{ID: q.ID, Type: q.Type, CorrectOptionIDs: correct}, selected)

		if err := repo.InsertProgress(ctx, userID, setID, questionID, res.Correct, s.Now()); err != nil {
			return err
		}
		// empty selections count as misses here, unlike in exams
		if err := s.Tracker.RecordAttempt(ctx, tx, userID, questionID, res.Correct); err != nil {
			return err
		}
		out = Result{IsCorrect: res.Correct, CorrectOptions: correct, Explanation: q.Explanation}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return out, nil
}
