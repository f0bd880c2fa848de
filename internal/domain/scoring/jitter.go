package scoring

import (
	"crypto/rand"
	"encoding/binary"
	"hash/fnv"
	"math"
	mrand "math/rand/v2"
)

// DefaultJitterAmplitude bounds presentation jitter to +/- 2.5 points.
const DefaultJitterAmplitude = 2.5

// JitterSource yields a small score offset for a pick. Implementations must
// return the same value for the same key.
type JitterSource interface {
	Jitter(key string) float64
}

// NoJitter always returns 0.
type NoJitter struct{}

// Jitter implements JitterSource.
func (NoJitter) Jitter(string) float64 { return 0 }

// SeededJitter derives a uniform offset in [-amplitude, +amplitude] from its
// seed and the key. It holds no mutable state and is safe for concurrent use.
type SeededJitter struct {
	seed      uint64
	amplitude float64
}

// NewSeededJitter returns a deterministic jitter source. Negative or
// non-finite amplitudes disable jitter.
func NewSeededJitter(seed int64, amplitude float64) *SeededJitter {
	if math.IsNaN(amplitude) || math.IsInf(amplitude, 0) || amplitude < 0 {
		amplitude = 0
	}
	return &SeededJitter{seed: uint64(seed), amplitude: amplitude} //nolint:gosec // bit reinterpretation
}

// NewRandomJitter seeds a jitter source from crypto/rand, so offsets differ
// between processes but stay stable for a key within one.
func NewRandomJitter(amplitude float64) *SeededJitter {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return NewSeededJitter(0, amplitude)
	}
	return NewSeededJitter(int64(binary.LittleEndian.Uint64(b[:])), amplitude) //nolint:gosec // bit reinterpretation
}

// Amplitude returns the configured bound.
func (j *SeededJitter) Amplitude() float64 { return j.amplitude }

// Jitter implements JitterSource.
func (j *SeededJitter) Jitter(key string) float64 {
	if j.amplitude == 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	rng := mrand.New(mrand.NewPCG(j.seed, h.Sum64()))
	return j.amplitude * (2*rng.Float64() - 1)
}
