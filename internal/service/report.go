package service

import "github.com/grievance_desk/backend/internal/models"

// DuplicatePair links a duplicate complaint to its original.
type DuplicatePair struct {
	DuplicateID string  `json:"duplicate_id"`
	OriginalID  string  `json:"original_id"`
	Similarity  float64 `json:"similarity"`
}

// SimilarityStats summarizes recorded similarity scores across an issue's
// complaints. Every complaint carries a score, duplicate or not.
type SimilarityStats struct {
	Average     float64 `json:"average_similarity"`
	Min         float64 `json:"min_similarity"`
	Max         float64 `json:"max_similarity"`
	TotalScored int     `json:"total_scored"`
}

// DuplicateReport extracts duplicate relationships and similarity stats
// from an issue's complaints.
func DuplicateReport(complaints []models.Complaint) ([]DuplicatePair, SimilarityStats) {
	pairs := []DuplicatePair{}
	var stats SimilarityStats

	for i, c := range complaints {
		if c.IsDuplicate && c.DuplicateOf != nil {
			pairs = append(pairs, DuplicatePair{
				DuplicateID: c.ID,
				OriginalID:  *c.DuplicateOf,
				Similarity:  c.SimilarityScore,
			})
		}

		if i == 0 || c.SimilarityScore < stats.Min {
			stats.Min = c.SimilarityScore
		}
		if c.SimilarityScore > stats.Max {
			stats.Max = c.SimilarityScore
		}
		stats.Average += c.SimilarityScore
		stats.TotalScored++
	}
	if stats.TotalScored > 0 {
		stats.Average /= float64(stats.TotalScored)
	}
	return pairs, stats
}
