package grading

import (
	"github.com/shopspring/decimal"
)

// Question types a quiz set can hold.
const (
	TypeSingleChoice = "single_choice"
	TypeMultiChoice  = "multi_choice"
)

// Q is the minimal view of a question needed for grading.
type Q struct {
	ID               int64
	Type             string
	CorrectOptionIDs []int64
}

// Result is the outcome of grading one response.
type Result struct {
	QuestionID int64
	Answered   bool // false when the selection was empty
	Correct    bool
}

// Strategy grades a single question.
type Strategy interface {
	Grade(q Q, selected []int64) Result
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(q Q, selected []int64) Result
}

type defaultGrader struct {
	strategies map[string]Strategy
	fallback   Strategy
}

func (g *defaultGrader) Grade(q Q, selected []int64) Result {
	s, ok := g.strategies[q.Type]
	if !ok {
		s = g.fallback
	}
	return s.Grade(q, selected)
}

type Option func(*defaultGrader)

// WithStrategy installs or replaces the strategy for a question type.
func WithStrategy(questionType string, s Strategy) Option {
	return func(g *defaultGrader) { g.strategies[questionType] = s }
}

// NewDefaultGrader installs exact-match grading for both choice types. Types
// it does not know are graded exact-match as well.
func NewDefaultGrader(opts ...Option) Grader {
	g := &defaultGrader{
		strategies: map[string]Strategy{
			TypeSingleChoice: exactStrategy{},
			TypeMultiChoice:  exactStrategy{},
		},
		fallback: exactStrategy{},
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

type exactStrategy struct{}

func (exactStrategy) Grade(q Q, selected []int64) Result {
	return Result{
		QuestionID: q.ID,
		Answered:   len(selected) > 0,
		Correct:    Exact(selected, q.CorrectOptionIDs),
	}
}

// Exact reports whether the selected option ids equal the correct ones as
// sets. No partial credit. An empty correct set matches nothing, not even an
// empty selection.
func Exact(selected, correct []int64) bool {
	want := toSet(correct)
	if len(want) == 0 {
		return false
	}
	return setEqual(toSet(selected), want)
}

// Score returns 100 * correct / total rounded half away from zero to two
// decimals. A zero total scores 0.
func Score(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	d := decimal.NewFromInt(int64(correct)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(total)), 2)
	return d.InexactFloat64()
}

func toSet(ids []int64) map[int64]struct{} {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func setEqual(a, b map[int64]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
