package source

import (
	"context"
	"math/rand/v2"

	"github.com/jonboulle/clockwork"

	"github.com/timf34/FOVWiFiStreamingApp/internal/domain"
)

const (
	fieldWidth  = 100.0
	fieldHeight = 100.0
	walkStep    = 1.5
)

// Sim generates a smooth pseudo-random walk across a bounded field. With a
// non-zero seed the walk is fully deterministic, which the tests rely on.
type Sim struct {
	rng   *rand.Rand
	clock clockwork.Clock
	x, y  float64
}

// NewSim creates a simulated source starting at the field's center.
// seed 0 picks a random seed.
func NewSim(seed int64, clock clockwork.Clock) *Sim {
	if seed == 0 {
		seed = clock.Now().UnixNano()
	}
	return &Sim{
		rng:   rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1)),
		clock: clock,
		x:     fieldWidth / 2,
		y:     fieldHeight / 2,
	}
}

// Next advances the walk one step. It never fails and never blocks.
func (s *Sim) Next(context.Context) (domain.Sample, error) {
	s.x = clamp(s.x+(s.rng.Float64()*2-1)*walkStep, 0, fieldWidth)
	s.y = clamp(s.y+(s.rng.Float64()*2-1)*walkStep, 0, fieldHeight)

	return domain.Sample{
		X: s.x,
		Y: s.y,
		T: float64(s.clock.Now().UnixNano()) / 1e9,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
