package vector

import "math"

// Normalize returns a unit-length copy of v. A zero vector is returned as an
// unchanged copy rather than producing NaN components.
//
// Every adapter calls Normalize immediately before persisting a vector and
// immediately before using one as a query. A corpus and query normalized
// inconsistently skews every similarity score without ever raising an error,
// so this is the one step no backend may skip or reorder.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)

	n := Norm(v)
	if n == 0 {
		return out
	}

	inv := float32(1 / n)
	for i := range out {
		out[i] *= inv
	}
	return out
}

// Norm returns the Euclidean norm of v, accumulated in float64 so that
// normalization is stable for high-dimensional embeddings.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
