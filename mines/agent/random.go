package agent

import (
	"math/rand"
	"sync"
	"time"

	"sweeper-lite/mines"
)

// Random scores uniformly at random. It is the floor other oracles are
// measured against.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom seeds the oracle; seed 0 uses the clock.
func NewRandom(seed int64) *Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Score(mines.FeatureVector) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64(), nil
}
