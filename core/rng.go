package core

// RNG is a small fast xorshift generator. The render package builds one
// instance per pixel sample; it is never shared between goroutines. State is 64 bits wide so a render reproduces bit-identically
// across machines regardless of GOMAXPROCS.
type RNG struct {
	state uint64
}

// NewRNG seeds a generator. A zero seed is remapped to a fixed non-zero
// constant since xorshift is degenerate at state 0.
func NewRNG(seed uint64) *RNG {
	if seed == 0 {
		seed = 0x9e3779b97f4a7c15
	}
	return &RNG{state: seed}
}

// SeedFor derives a worker/pixel/pass-scoped seed from a run seed so that a
// given (runSeed, pixelIndex, sampleIndex) always produces the same stream —
// required for the golden-pixel end-to-end test in the spec, and so a
// reproduced render doesn't depend on which worker happened to claim which
// job or on GOMAXPROCS.
func SeedFor(runSeed uint64, pixelIndex, sampleIndex int) uint64 {
	h := runSeed ^ uint64(pixelIndex)*0x9e3779b97f4a7c15
	h ^= uint64(sampleIndex) * 0xbf58476d1ce4e5b9
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	if h == 0 {
		h = 1
	}
	return h
}

func (r *RNG) next() uint64 {
	x := r.state
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	r.state = x
	return x
}

// Float64 returns a pseudo-random value in [0, 1).
func (r *RNG) Float64() float64 {
	return float64(r.next()>>11) / (1 << 53)
}

// Float32 returns a pseudo-random value in [0, 1).
func (r *RNG) Float32() float32 {
	return float32(r.Float64())
}

// Uint64, Int63 and Seed implement math/rand.Source64, so a render worker
// can drive the path tracer's *rand.Rand from this xorshift stream instead
// of the standard library's generator — every worker's stream is then
// reproducible from (runSeed, pixelIndex, sampleIndex) via SeedFor regardless of
// GOMAXPROCS or scheduling order.
func (r *RNG) Uint64() uint64 { return r.next() }

func (r *RNG) Int63() int64 { return int64(r.next() >> 1) }

func (r *RNG) Seed(seed int64) {
	s := uint64(seed)
	if s == 0 {
		s = 0x9e3779b97f4a7c15
	}
	r.state = s
}
