package content

import (
	"strings"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/apperr"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
)

type QuizSet struct {
	ID            int64     `json:"id"`
	OwnerID       int64     `json:"ownerId"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Option struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"-"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"isCorrect"`
}

type Question struct {
	ID          int64     `json:"id"`
	QuizSetID   int64     `json:"quizSetId"`
	Text        string    `json:"questionText"`
	Type        string    `json:"questionType"`
	Explanation string    `json:"explanation"`
	ImageURL    *string   `json:"imageUrl"`
	Category    *string   `json:"category"`
	Difficulty  *string   `json:"difficulty"`
	Tags        []string  `json:"tags"`
	Options     []Option  `json:"options"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CorrectOptionIDs returns the ids of options flagged correct.
func (q Question) CorrectOptionIDs() []int64 {
	out := make([]int64, 0, 2)
	for _, o := range q.Options {
		if o.IsCorrect {
			out = append(out, o.ID)
		}
	}
	return out
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type QuizSetInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (in *QuizSetInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return apperr.New(apperr.InvalidArgument, "title is required")
	}
	return nil
}

type OptionInput struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

type QuestionInput struct {
	Text        string        `json:"questionText"`
	Type        string        `json:"questionType"`
	Explanation string        `json:"explanation"`
	ImageURL    *string       `json:"imageUrl"`
	Category    *string       `json:"category"`
	Difficulty  *string       `json:"difficulty"`
	Tags        []string      `json:"tags"`
	Options     []OptionInput `json:"options"`
}

// Validate normalizes the input and enforces the authoring rules: text, at
// least one option, non-blank option texts, at least one correct option and
// exactly one for single choice questions.
func (in *QuestionInput) Validate() error {
	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" {
		return apperr.New(apperr.InvalidArgument, "question text is required")
	}
	if in.Type == "" {
		in.Type = grading.TypeSingleChoice
	}
	if in.Type != grading.TypeSingleChoice && in.Type != grading.TypeMultiChoice {
		return apperr.Newf(apperr.InvalidArgument, "unsupported question type %q", in.Type)
	}
	if len(in.Options) == 0 {
		return apperr.New(apperr.InvalidArgument, "at least one option is required")
	}
	correct := 0
	for i := range in.Options {
		in.Options[i].Text = strings.TrimSpace(in.Options[i].Text)
		if in.Options[i].Text == "" {
			return apperr.New(apperr.InvalidArgument, "all options must have text")
		}
		if in.Options[i].IsCorrect {
			correct++
		}
	}
	if correct == 0 {
		return apperr.New(apperr.InvalidArgument, "at least one option must be marked as correct")
	}
	if in.Type == grading.TypeSingleChoice && correct > 1 {
		return apperr.New(apperr.InvalidArgument, "single choice questions take exactly one correct option")
	}
	in.Category = trimOptional(in.Category)
	in.Difficulty = trimOptional(in.Difficulty)
	in.Tags = normalizeTags(in.Tags)
	return nil
}

// QuestionFilter narrows ListQuestions. Empty fields do not filter.
type QuestionFilter struct {
	Query      string
	Category   string
	Difficulty string
	Tag        string
}

type Stats struct {
	TotalAttempts int     `json:"totalAttempts"`
	CorrectCount  int     `json:"correctCount"`
	Accuracy      float64 `json:"accuracy"`
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func normalizeTags(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
