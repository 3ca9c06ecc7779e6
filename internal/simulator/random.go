package simulator

import (
	"math/rand"
	"time"
)

// RandomSource drives standard-queue insertion positions and failure draws.
// *rand.Rand satisfies it.
type RandomSource interface {
	// Intn returns a uniform value in [0, n)
	Intn(n int) int

	// Float64 returns a uniform value in [0.0, 1.0)
	Float64() float64
}

// NewSeededRandom returns a deterministic RandomSource
func NewSeededRandom(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

func newDefaultRandom() RandomSource {
	return NewSeededRandom(time.Now().UnixNano())
}
