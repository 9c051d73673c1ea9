package store

import (
	"testing"

	"sprintrag/internal/domain"
)

func TestMetricDistance(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}

	if d := MetricL2.Distance(a, b); d != 2 {
		t.Errorf("expected squared L2 of 2, got %f", d)
	}
	if d := MetricCosine.Distance(a, b); d != 1 {
		t.Errorf("expected cosine distance 1 for orthogonal vectors, got %f", d)
	}
	if d := MetricCosine.Distance(a, a); d > 1e-9 {
		t.Errorf("expected cosine distance 0 for identical vectors, got %f", d)
	}
	if d := MetricCosine.Distance(a, []float32{0, 0}); d != 1 {
		t.Errorf("expected zero vector at cosine distance 1, got %f", d)
	}
}

func TestParseMetric(t *testing.T) {
	if m, err := ParseMetric(""); err != nil || m != MetricL2 {
		t.Errorf("expected default l2, got %q, %v", m, err)
	}
	if _, err := ParseMetric("manhattan"); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestTopK(t *testing.T) {
	cands := []Candidate{
		{Seq: 3, Result: domain.SearchResult{Text: "c", Distance: 0.5}},
		{Seq: 1, Result: domain.SearchResult{Text: "a", Distance: 0.5}},
		{Seq: 2, Result: domain.SearchResult{Text: "b", Distance: 0.1}},
	}
	got := TopK(cands, 5)
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Text != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i].Text)
		}
	}
	if len(TopK(cands, 0)) != 0 {
		t.Error("expected no results for k=0")
	}
	if len(TopK(cands, -1)) != 0 {
		t.Error("expected no results for negative k")
	}
}
