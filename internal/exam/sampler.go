package exam

import (
	"math/rand"
	"sync"
	"time"
)

// Sampler picks exam questions uniformly at random without replacement.
type Sampler struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewSampler(seed int64) *Sampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{r: rand.New(rand.NewSource(seed))}
}

// Sample returns count distinct ids from ids in random order, or all of them
// (shuffled) when count <= 0 or count >= len(ids). ids is not modified.
func (s *Sampler) Sample(ids []int64, count int) []int64 {
	shuffled := make([]int64, len(ids))
	copy(shuffled, ids)

	s.mu.Lock()
	// Fisher-Yates
	for i := len(shuffled) - 1; i > 0; i-- {
		j := s.r.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	s.mu.Unlock()

	if count <= 0 || count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count]
}

// ResolveCount is the number of questions an exam takes from a set with
// available questions: the requested count capped at available, or all.
func ResolveCount(requested, available int) int {
	if requested > 0 && requested < available {
		return requested
	}
	return available
}
