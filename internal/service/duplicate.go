package service

import (
	"math"

	"github.com/grievance_desk/backend/internal/models"
)

// DuplicateMatch is the duplicate detector's verdict for one new complaint.
// Score is always populated, even below threshold, for telemetry.
type DuplicateMatch struct {
	DuplicateOf *string
	Score       float64
}

// CosineSimilarity computes dot(a,b)/(|a||b|), clamped to [-1,1].
// A zero or empty vector yields 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, sim))
}

// FindDuplicate scans existing complaints of the same issue for the best
// embedding match. Candidates must already be scoped to the issue's own
// location and category; ties on score go to the earliest inserted complaint
// because the scan preserves insertion order and only a strictly greater
// score replaces the best match.
func FindDuplicate(embedding []float64, existing []models.Complaint, threshold float64) DuplicateMatch {
	if len(embedding) == 0 || len(existing) == 0 {
		return DuplicateMatch{Score: 0}
	}

	var bestID string
	bestScore := 0.0
	found := false
	for _, c := range existing {
		if len(c.Embedding) == 0 {
			continue
		}
		score := CosineSimilarity(embedding, c.Embedding)
		if score > bestScore {
			bestScore = score
			bestID = c.ID
			found = true
		}
	}

	if found && bestScore >= threshold {
		return DuplicateMatch{DuplicateOf: &bestID, Score: bestScore}
	}
	return DuplicateMatch{Score: bestScore}
}
