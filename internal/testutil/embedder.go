package testutil

import (
	"hash/fnv"
	"math"
)

// TestDimension matches the dimension the default schema is created with.
const TestDimension = 768

// Vector returns a deterministic unit vector derived from the seed text.
// The same text always produces the same vector, and different texts
// produce different ones, which is enough to exercise similarity search
// without a live embedding service.
func Vector(dimension int, seed string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	state := h.Sum64()

	vec := make([]float32, dimension)
	var norm float64
	for i := range vec {
		// xorshift64 keeps the sequence deterministic per seed.
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		v := float64(int64(state%2000)-1000) / 1000.0
		vec[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
