package exam

import (
	"sort"
	"testing"
)

func TestResolveCount(t *testing.T) {
	cases := []struct{ requested, available, want int }{
		{15, 10, 10},
		{3, 10, 3},
		{0, 10, 10},
		{-2, 10, 10},
		{10, 10, 10},
		{5, 0, 0},
	}
	for _, c := range cases {
		if got := ResolveCount(c.requested, c.available); got != c.want {
			t.Errorf("ResolveCount(%d, %d) = %d, want %d", c.requested, c.available, got, c.want)
		}
	}
}

func TestSampleDistinctSubset(t *testing.T) {
	s := NewSampler(42)
	ids := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	orig := append([]int64(nil), ids...)

	for round := 0; round < 50; round++ {
		got := s.Sample(ids, 4)
		if len(got) != 4 {
			t.Fatalf("len = %d, want 4", len(got))
		}
		seen := map[int64]bool{}
		for _, id := range got {
			if id < 1 || id > 10 || seen[id] {
				t.Fatalf("bad sample %v", got)
			}
			seen[id] = true
		}
	}
	for i := range ids {
		if ids[i] != orig[i] {
			t.Fatalf("input modified: %v", ids)
		}
	}
}

func TestSampleAllWhenCountTooLarge(t *testing.T) {
	s := NewSampler(7)
	ids := []int64{5, 3, 9}
	for _, count := range []int{0, 3, 10} {
		got := s.Sample(ids, count)
		sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
		if len(got) != 3 || got[0] != 3 || got[1] != 5 || got[2] != 9 {
			t.Fatalf("Sample(count=%d) = %v", count, got)
		}
	}
	if got := s.Sample(nil, 3); len(got) != 0 {
		t.Fatalf("Sample(nil) = %v", got)
	}
}

func TestSampleCoversEveryID(t *testing.T) {
	s := NewSampler(1)
	ids := []int64{1, 2, 3, 4, 5}
	hits := map[int64]int{}
	for i := 0; i < 500; i++ {
		for _, id := range s.Sample(ids, 2) {
			hits[id]++
		}
	}
	// 1000 picks over 5 ids; each should land near 200
	for _, id := range ids {
		if hits[id] < 120 || hits[id] > 280 {
			t.Fatalf("id %d picked %d times: %v", id, hits[id], hits)
		}
	}
}
