package exam

import (
	"context"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/content"
	"github.com/mind-engage/mindengage-quiz/internal/db"
)

// ContentReader is the slice of the content repository the lifecycle needs.
// It is always bound to the Querier of the running transaction.
type ContentReader interface {
	QuizSetOwner(ctx context.Context, setID int64) (int64, error)
	CountQuestions(ctx context.Context, setID int64) (int, error)
	QuestionIDs(ctx context.Context, setID int64) ([]int64, error)
	QuestionsWithOptions(ctx context.Context, ids []int64) ([]content.Question, error)
	CorrectOptionIDs(ctx context.Context, questionIDs []int64) (map[int64][]int64, error)
}

// ContentFactory binds a ContentReader to a Querier.
type ContentFactory func(q db.Querier) ContentReader

func SQLContent(q db.Querier) ContentReader { return content.NewRepo(q) }

// Tracker receives the outcome of every answered question on submit.
type Tracker interface {
	RecordAttempt(ctx context.Context, q db.Querier, userID, questionID int64, correct bool) error
}

// EventSink appends lifecycle events inside the submit transaction.
type EventSink interface {
	Append(ctx context.Context, q db.Querier, typ, key string, payload any, now time.Time) error
}

type nopEvents struct{}

func (nopEvents) Append(context.Context, db.Querier, string, string, any, time.Time) error { return nil }

// completedEvent is the payload of an ExamCompleted event.
type completedEvent struct {
	ExamID         int64   `json:"examId"`
	QuizSetID      int64   `json:"quizSetId"`
	UserID         int64   `json:"userId"`
	TotalQuestions int     `json:"totalQuestions"`
	CorrectCount   int     `json:"correctCount"`
	Score          float64 `json:"score"`
	CompletedAt    int64   `json:"completedAt"`
}
