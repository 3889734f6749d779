package creativity

import (
	"math/rand"
	"sync"
)

// Source yields uniform draws in [0,1)
type Source interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// GlobalSource returns a goroutine-safe source backed by math/rand's
// top-level generator
func GlobalSource() Source { return globalSource{} }

// lockedSource serialises access to a seeded generator so a single seeded
// engine can be shared by concurrent requests
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededSource returns a reproducible, goroutine-safe source
func NewSeededSource(seed int64) Source {
	return &lockedSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// SequenceSource replays a fixed list of draws, wrapping around at the end;
// an empty sequence always yields 0
type SequenceSource struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewSequenceSource builds a SequenceSource over values
func NewSequenceSource(values ...float64) *SequenceSource {
	return &SequenceSource{values: append([]float64(nil), values...)}
}

func (s *SequenceSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// Draws reports how many values have been consumed
func (s *SequenceSource) Draws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
