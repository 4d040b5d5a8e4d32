package transfer

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-quiz/internal/content"
	"github.com/mind-engage/mindengage-quiz/internal/db"
)

type ImportResult struct {
	BatchID       string `json:"batchId"`
	ImportedCount int    `json:"importedCount"`
}

// Service exports and imports question banks of quiz sets the requester owns.
type Service struct {
	DB      *sql.DB
	Content *content.Service
	Now     func() time.Time
}

func NewService(dbh *sql.DB, cs *content.Service) *Service {
	return &Service{DB: dbh, Content: cs, Now: time.Now}
}

func (s *Service) Export(ctx context.Context, requester, setID int64) (Bank, error) {
	set, err := s.Content.GetQuizSet(ctx, requester, setID)
	if err != nil {
		return Bank{}, err
	}
	qs, err := content.NewRepo(s.DB).ListQuestions(ctx, setID, content.QuestionFilter{})
	if err != nil {
		return Bank{}, err
	}
	return FromQuestions(set.Title, qs, s.Now()), nil
}

// Import appends every question of the bank to the set. Either all of them
// are written or none.
func (s *Service) Import(ctx context.Context, requester, setID int64, b Bank) (ImportResult, error) {
	inputs, err := b.Validate()
	if err != nil {
		return ImportResult{}, err
	}
	res := ImportResult{BatchID: uuid.NewString()}
	err = db.WithTx(ctx, s.DB, nil, func(tx *sql.Tx) error {
		if err := s.Content.AuthorizeSet(ctx, tx, setID, requester); err != nil {
			return err
		}
		repo := content.NewRepo(tx)
		now := s.Now()
		for _, in := range inputs {
			if _, err := repo.InsertQuestion(ctx, setID, in, now); err != nil {
				return err
			}
			res.ImportedCount++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	log.Printf("import %s: %d questions into quiz set %d", res.BatchID, res.ImportedCount, setID)
	return res, nil
}
