package memstore

import (
	"math"

	"github.com/viant/vec/search"

	"github.com/Aleph-Alpha/vecsearch/v1/vectordb"
)

// score returns the higher-is-better similarity for the metric. queryNorm and
// norm are squared L2 norms.
func score(d vectordb.Distance, query search.Float32s, queryNorm float64, v []float32, norm float64) float32 {
	switch d {
	case vectordb.DistanceCosine:
		// A zero vector has no direction; it scores 0 against everything.
		if queryNorm == 0 || norm == 0 {
			return 0
		}
		cos := dot(query, v) / math.Sqrt(queryNorm*norm)
		return float32(math.Max(-1, math.Min(1, cos)))
	case vectordb.DistanceEuclidean:
		return 1 / (1 + query.EuclideanDistance(v))
	case vectordb.DistanceDot:
		return float32(dot(query, v))
	}
	return 0
}

// dot accumulates in float64 so that parallel vectors of different length
// round to the same cosine.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func squaredNorm(v []float32) float64 {
	return dot(v, v)
}
