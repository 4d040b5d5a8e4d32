package content

import (
	"context"
	"database/sql"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/apperr"
	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
)

// Service exposes owner-scoped content operations. Every call resolves the
// quiz set owner first: a missing set is NotFound, someone else's is Forbidden.
type Service struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewService(dbh *sql.DB) *Service {
	return &Service{DB: dbh, Now: time.Now}
}

func (s *Service) repo() *Repo { return NewRepo(s.DB) }

func checkOwner(owner, requester int64) error {
	if owner != requester {
		return apperr.New(apperr.Forbidden, "not the owner of this quiz set")
	}
	return nil
}

// AuthorizeSet returns NotFound/Forbidden unless requester owns the set.
func (s *Service) AuthorizeSet(ctx context.Context, q db.Querier, setID, requester int64) error {
	owner, err := NewRepo(q).QuizSetOwner(ctx, setID)
	if err != nil {
		return err
	}
	return checkOwner(owner, requester)
}

// AuthorizeQuestion resolves the question's set and checks ownership.
func (s *Service) AuthorizeQuestion(ctx context.Context, q db.Querier, questionID, requester int64) (setID int64, err error) {
	setID, owner, err := NewRepo(q).QuestionOwner(ctx, questionID)
	if err != nil {
		return 0, err
	}
	return setID, checkOwner(owner, requester)
}

// ---- quiz sets ----

func (s *Service) CreateQuizSet(ctx context.Context, requester int64, in QuizSetInput) (QuizSet, error) {
	if err := in.Validate(); err != nil {
		return QuizSet{}, err
	}
	return s.repo().InsertQuizSet(ctx, requester, in, s.Now())
}

func (s *Service) ListQuizSets(ctx context.Context, requester int64) ([]QuizSet, error) {
	return s.repo().ListQuizSets(ctx, requester)
}

func (s *Service) GetQuizSet(ctx context.Context, requester, setID int64) (QuizSet, error) {
	set, err := s.repo().GetQuizSet(ctx, setID)
	if err != nil {
		return QuizSet{}, err
	}
	if err := checkOwner(set.OwnerID, requester); err != nil {
		return QuizSet{}, err
	}
	return set, nil
}

func (s *Service) UpdateQuizSet(ctx context.Context, requester, setID int64, in QuizSetInput) (QuizSet, error) {
	if err := in.Validate(); err != nil {
		return QuizSet{}, err
	}
	err := db.WithTx(ctx, s.DB, nil, func(tx *sql.Tx) error {
		if err := s.AuthorizeSet(ctx, tx, setID, requester); err != nil {
			return err
		}
		return NewRepo(tx).UpdateQuizSet(ctx, setID, in, s.Now())
	})
	if err != nil {
		return QuizSet{}, err
	}
	return s.repo().GetQuizSet(ctx, setID)
}

func (s *Service) DeleteQuizSet(ctx context.Context, requester, setID int64) error {
	return db.WithTx(ctx, s.DB, nil, func(tx *sql.Tx) error {
		if err := s.AuthorizeSet(ctx, tx, setID, requester); err != nil {
			return err
		}
		return NewRepo(tx).DeleteQuizSet(ctx, setID)
	})
}

// ---- questions ----

func (s *Service) ListQuestions(ctx context.Context, requester, setID int64, f QuestionFilter) ([]Question, error) {
	if err := s.AuthorizeSet(ctx, s.DB, setID, requester); err != nil {
		return nil, err
	}
	return s.repo().ListQuestions(ctx, setID, f)
}

func (s *Service) GetQuestion(ctx context.Context, requester, questionID int64) (Question, error) {
	if _, err := s.AuthorizeQuestion(ctx, s.DB, questionID, requester); err != nil {
		return Question{}, err
	}
	return s.repo().GetQuestion(ctx, questionID)
}

func (s *Service) CreateQuestion(ctx context.Context, requester, setID int64, in QuestionInput) (Question, error) {
	if err := in.Validate(); err != nil {
		return Question{}, err
	}
	var id int64
	err := db.WithTx(ctx, s.DB, nil, func(tx *sql.Tx) error {
		if err := s.AuthorizeSet(ctx, tx, setID, requester); err != nil {
			return err
		}
		var err error
		id, err = NewRepo(tx).InsertQuestion(ctx, setID, in, s.Now())
		return err
	})
	if err != nil {
		return Question{}, err
	}
	return s.repo().GetQuestion(ctx, id)
}

func (s *Service) UpdateQuestion(ctx context.Context, requester, questionID int64, in QuestionInput) (Question, error) {
	if err := in.Validate(); err != nil {
		return Question{}, err
	}
	err := db.WithTx(ctx, s.DB, nil, func(tx *sql.Tx) error {
		if _, err := s.AuthorizeQuestion(ctx, tx, questionID, requester); err != nil {
			return err
		}
		return NewRepo(tx).UpdateQuestion(ctx, questionID, in, s.Now())
	})
	if err != nil {
		return Question{}, err
	}
	return s.repo().GetQuestion(ctx, questionID)
}

func (s *Service) DeleteQuestion(ctx context.Context, requester, questionID int64) error {
	return db.WithTx(ctx, s.DB, nil, func(tx *sql.Tx) error {
		if _, err := s.AuthorizeQuestion(ctx, tx, questionID, requester); err != nil {
			return err
		}
		return NewRepo(tx).DeleteQuestion(ctx, questionID)
	})
}

// SetImage stores url as the question image (nil clears it) and returns the
// previous value so the caller can drop the old blob.
func (s *Service) SetImage(ctx context.Context, requester, questionID int64, url *string) (prev *string, err error) {
	err = db.WithTx(ctx, s.DB, nil, func(tx *sql.Tx) error {
		if _, err := s.AuthorizeQuestion(ctx, tx, questionID, requester); err != nil {
			return err
		}
		r := NewRepo(tx)
		q, err := r.GetQuestion(ctx, questionID)
		if err != nil {
			return err
		}
		prev = q.ImageURL
		return r.SetImageURL(ctx, questionID, url, s.Now())
	})
	return prev, err
}

// ---- tags & stats ----

func (s *Service) ListTags(ctx context.Context) ([]Tag, error) {
	return s.repo().ListTags(ctx)
}

func (s *Service) AddTags(ctx context.Context, requester, questionID int64, names []string) (Question, error) {
	names = normalizeTags(names)
	if len(names) == 0 {
		return Question{}, apperr.New(apperr.InvalidArgument, "at least one tag is required")
	}
	err := db.WithTx(ctx, s.DB, nil, func(tx *sql.Tx) error {
		if _, err := s.AuthorizeQuestion(ctx, tx, questionID, requester); err != nil {
			return err
		}
		return NewRepo(tx).AttachTags(ctx, questionID, names)
	})
	if err != nil {
		return Question{}, err
	}
	return s.repo().GetQuestion(ctx, questionID)
}

// Stats reports the requester's practice accuracy on a set.
func (s *Service) Stats(ctx context.Context, requester, setID int64) (Stats, error) {
	if err := s.AuthorizeSet(ctx, s.DB, setID, requester); err != nil {
		return Stats{}, err
	}
	total, correct, err := s.repo().ProgressCounts(ctx, requester, setID)
	if err != nil {
		return Stats{}, err
	}
	return Stats{TotalAttempts: total, CorrectCount: correct, Accuracy: grading.Score(correct, total)}, nil
}
