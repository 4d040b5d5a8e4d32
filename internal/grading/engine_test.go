package grading

import "testing"

func TestExactMatch(t *testing.T) {
	const a, b, c = 1, 2, 3
	correct := []int64{a, b}

	tests := []struct {
		name     string
		selected []int64
		want     bool
	}{
		{name: "subset", selected: []int64{a}, want: false},
		{name: "superset", selected: []int64{a, b, c}, want: false},
		{name: "empty", selected: nil, want: false},
		{name: "wrong only", selected: []int64{c}, want: false},
		{name: "exact", selected: []int64{a, b}, want: true},
		{name: "exact reordered", selected: []int64{b, a}, want: true},
		{name: "exact with duplicate", selected: []int64{a, b, a}, want: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Exact(tc.selected, correct); got != tc.want {
				t.Fatalf("Exact(%v, %v) = %v, want %v", tc.selected, correct, got, tc.want)
			}
		})
	}
}

func TestExactWithNoCorrectOptions(t *testing.T) {
	if Exact(nil, nil) {
		t.Fatal("empty selection must not match an empty correct set")
	}
	if Exact([]int64{4}, []int64{}) {
		t.Fatal("any selection must not match an empty correct set")
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		correct, total int
		want           float64
	}{
		{3, 5, 60},
		{0, 4, 0},
		{4, 4, 100},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{1, 0, 0},
	}
	for _, tc := range tests {
		if got := Score(tc.correct, tc.total); got != tc.want {
			t.Fatalf("Score(%d,%d) = %v, want %v", tc.correct, tc.total, got, tc.want)
		}
	}
}

type alwaysRight struct{}

func (alwaysRight) Grade(q Q, _ []int64) Result { return Result{QuestionID: q.ID, Correct: true} }

func TestGraderRoutesByType(t *testing.T) {
	g := NewDefaultGrader()
	q := Q{ID: 7, Type: TypeMultiChoice, CorrectOptionIDs: []int64{1, 2}}
	res := g.Grade(q, []int64{2, 1})
	if !res.Correct || !res.Answered || res.QuestionID != 7 {
		t.Fatalf("unexpected result %+v", res)
	}
	res = g.Grade(Q{ID: 8, Type: "true_false", CorrectOptionIDs: []int64{5}}, nil)
	if res.Correct || res.Answered {
		t.Fatalf("unknown type should fall back to exact-match, got %+v", res)
	}

	custom := NewDefaultGrader(WithStrategy(TypeSingleChoice, alwaysRight{}))
	if !custom.Grade(Q{ID: 1, Type: TypeSingleChoice}, nil).Correct {
		t.Fatal("custom strategy not installed")
	}
}
