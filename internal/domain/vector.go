package domain

import "math"

// EmbeddingDim is the shared embedding space dimension of both towers.
const EmbeddingDim = 32

// Vector is an embedding vector in the shared query/candidate space.
type Vector []float32

// Dot returns the inner product of two vectors. Both towers emit unit-norm
// vectors, so the dot product equals cosine similarity.
func Dot(a, b Vector) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Normalize scales v to unit L2 norm in place and returns it.
// The zero vector is returned unchanged.
func Normalize(v Vector) Vector {
	var sq float64
	for _, x := range v {
		sq += float64(x) * float64(x)
	}
	if sq == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(sq))
	for i := range v {
		v[i] *= inv
	}
	return v
}
