package service

import (
	"math"
	"testing"

	"github.com/grievance_desk/backend/internal/models"
)

func TestCosineSimilarity(t *testing.T) {
	if got := CosineSimilarity([]float64{1, 0}, []float64{1, 0}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical vectors: got %f", got)
	}
	if got := CosineSimilarity([]float64{1, 0}, []float64{0, 1}); math.Abs(got) > 1e-9 {
		t.Fatalf("orthogonal vectors: got %f", got)
	}
	if got := CosineSimilarity([]float64{1, 0}, []float64{-1, 0}); math.Abs(got+1) > 1e-9 {
		t.Fatalf("opposite vectors: got %f", got)
	}
	if got := CosineSimilarity([]float64{0, 0}, []float64{1, 0}); got != 0 {
		t.Fatalf("zero vector must yield 0, got %f", got)
	}
	if got := CosineSimilarity(nil, []float64{1}); got != 0 {
		t.Fatalf("empty vector must yield 0, got %f", got)
	}
}

func TestFindDuplicateThreshold(t *testing.T) {
	existing := []models.Complaint{
		{ID: "c1", Embedding: []float64{1, 0, 0}},
		{ID: "c2", Embedding: []float64{0, 1, 0}},
	}

	match := FindDuplicate([]float64{1, 0, 0}, existing, 0.88)
	if match.DuplicateOf == nil || *match.DuplicateOf != "c1" {
		t.Fatalf("expected duplicate of c1, got %+v", match)
	}
	if match.Score < 0.999 {
		t.Fatalf("expected score ~1, got %f", match.Score)
	}

	// Below threshold the score is still reported.
	match = FindDuplicate([]float64{1, 1, 0}, existing, 0.88)
	if match.DuplicateOf != nil {
		t.Fatalf("expected no duplicate, got %v", *match.DuplicateOf)
	}
	if match.Score <= 0 {
		t.Fatalf("score must be reported even below threshold, got %f", match.Score)
	}
}

func TestFindDuplicateTieBreakEarliest(t *testing.T) {
	existing := []models.Complaint{
		{ID: "first", Embedding: []float64{1, 0}},
		{ID: "second", Embedding: []float64{1, 0}},
	}
	match := FindDuplicate([]float64{1, 0}, existing, 0.88)
	if match.DuplicateOf == nil || *match.DuplicateOf != "first" {
		t.Fatalf("ties must resolve to the earliest insertion, got %+v", match)
	}
}

func TestFindDuplicateNoCandidates(t *testing.T) {
	match := FindDuplicate([]float64{1, 0}, nil, 0.88)
	if match.DuplicateOf != nil || match.Score != 0 {
		t.Fatalf("first complaint must be non-duplicate with score 0, got %+v", match)
	}

	match = FindDuplicate(nil, []models.Complaint{{ID: "c1", Embedding: []float64{1}}}, 0.88)
	if match.DuplicateOf != nil || match.Score != 0 {
		t.Fatalf("missing embedding must disable detection, got %+v", match)
	}
}
