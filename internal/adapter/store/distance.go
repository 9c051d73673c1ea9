package store

import (
	"fmt"
	"math"
	"sort"

	"sprintrag/internal/domain"
)

// Metric names a vector distance. Lower distance means more relevant.
type Metric string

const (
	// MetricL2 is squared Euclidean distance.
	MetricL2 Metric = "l2"
	// MetricCosine is 1 - cosine similarity. A zero vector is at distance 1 from everything.
	MetricCosine Metric = "cosine"
)

func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case "", MetricL2:
		return MetricL2, nil
	case MetricCosine:
		return MetricCosine, nil
	default:
		return "", fmt.Errorf("%w: unknown distance metric %q", domain.ErrInvalidConfig, s)
	}
}

func (m Metric) Distance(a, b []float32) float64 {
	if m == MetricCosine {
		return 1 - cosineSimilarity(a, b)
	}
	return squaredL2(a, b)
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Candidate is a record scored against a query, tagged with its insertion order.
type Candidate struct {
	Seq    uint64
	Result domain.SearchResult
}

// TopK orders candidates by ascending distance, ties by insertion order,
// and returns at most k of them.
func TopK(candidates []Candidate, k int) []domain.SearchResult {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Result.Distance != candidates[j].Result.Distance {
			return candidates[i].Result.Distance < candidates[j].Result.Distance
		}
		return candidates[i].Seq < candidates[j].Seq
	})
	k = max(0, min(k, len(candidates)))
	results := make([]domain.SearchResult, k)
	for i := 0; i < k; i++ {
		results[i] = candidates[i].Result
	}
	return results
}
