// Package transfer moves question banks in and out of quiz sets as JSON or
// XLSX files.
package transfer

import (
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/apperr"
	"github.com/mind-engage/mindengage-quiz/internal/content"
)

// Bank is the portable form of a quiz set's questions.
type Bank struct {
	QuizSet   BankSet        `json:"quizSet"`
	Questions []BankQuestion `json:"questions"`
}

type BankSet struct {
	Title      string    `json:"title"`
	ExportedAt time.Time `json:"exportedAt"`
}

type BankQuestion struct {
	QuestionText string       `json:"questionText"`
	QuestionType string       `json:"questionType"`
	Category     *string      `json:"category"`
	Difficulty   *string      `json:"difficulty"`
	Explanation  string       `json:"explanation"`
	ImageURL     *string      `json:"imageUrl"`
	Tags         []string     `json:"tags"`
	Options      []BankOption `json:"options"`
}

type BankOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// FromQuestions builds a bank from stored questions. Ids are dropped.
func FromQuestions(title string, qs []content.Question, now time.Time) Bank {
	b := Bank{
		QuizSet:   BankSet{Title: title, ExportedAt: now.UTC()},
		Questions: make([]BankQuestion, 0, len(qs)),
	}
	for _, q := range qs {
		bq := BankQuestion{
			QuestionText: q.Text,
			QuestionType: q.Type,
			Category:     q.Category,
			Difficulty:   q.Difficulty,
			Explanation:  q.Explanation,
			ImageURL:     q.ImageURL,
			Tags:         append([]string{}, q.Tags...),
			Options:      make([]BankOption, 0, len(q.Options)),
		}
		for _, o := range q.Options {
			bq.Options = append(bq.Options, BankOption{Text: o.Text, IsCorrect: o.IsCorrect})
		}
		b.Questions = append(b.Questions, bq)
	}
	return b
}

// Validate converts every question to a validated content input. The first
// invalid question fails the whole bank, named by its 1-based position.
func (b Bank) Validate() ([]content.QuestionInput, error) {
	if len(b.Questions) == 0 {
		return nil, apperr.New(apperr.InvalidArgument, "no questions to import")
	}
	out := make([]content.QuestionInput, 0, len(b.Questions))
	for i, q := range b.Questions {
		in := content.QuestionInput{
			Text:        q.QuestionText,
			Type:        q.QuestionType,
			Explanation: q.Explanation,
			ImageURL:    q.ImageURL,
			Category:    q.Category,
			Difficulty:  q.Difficulty,
			Tags:        q.Tags,
			Options:     make([]content.OptionInput, 0, len(q.Options)),
		}
		for _, o := range q.Options {
			in.Options = append(in.Options, content.OptionInput{Text: o.Text, IsCorrect: o.IsCorrect})
		}
		if err := in.Validate(); err != nil {
			return nil, apperr.Wrap(apperr.InvalidArgument,
				fmt.Sprintf("question %d: %s", i+1, apperr.Message(err)), err)
		}
		out = append(out, in)
	}
	return out, nil
}
