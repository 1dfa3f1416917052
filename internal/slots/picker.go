package slots

import (
	"math/rand"
	"sync"
	"time"
)

// Picker selects one candidate from a non-empty availability set. The bot
// assigns slots randomly for perceived fairness; tests and the first-fit
// policy plug in deterministic pickers.
type Picker interface {
	Pick(candidates []Candidate) Candidate
}

// RandomPicker selects uniformly at random.
type RandomPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPicker creates a picker seeded from the clock.
func NewRandomPicker() *RandomPicker {
	return &RandomPicker{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (p *RandomPicker) Pick(candidates []Candidate) Candidate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return candidates[p.rng.Intn(len(candidates))]
}

// FirstFitPicker selects the earliest candidate.
type FirstFitPicker struct{}

func (FirstFitPicker) Pick(candidates []Candidate) Candidate {
	earliest := candidates[0]
	for _, c := range candidates[1:] {
		if c.Start.Before(earliest.Start) {
			earliest = c
		}
	}
	return earliest
}
