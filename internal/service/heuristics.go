package service

import (
	"fmt"
	"time"

	"github.com/grievance_desk/backend/internal/models"
)

// HeuristicInput carries the facts of the submission being evaluated.
type HeuristicInput struct {
	IssueID         string
	Urgency         string
	IsDuplicate     bool
	SimilarityScore float64
	Timestamp       time.Time
}

// HeuristicConfig tunes noise detection.
type HeuristicConfig struct {
	NoiseMinEntries    int
	NoiseMaxAvgGap     time.Duration
	NoiseMinSimilarity float64
}

// EvaluateHeuristics derives follow-up, escalation and possible-noise flags
// from prior session entries and the current submission. prior excludes the
// current submission. The three flags are independent; malformed or empty
// input degrades to all-false with empty details.
func EvaluateHeuristics(prior []models.SessionEntry, in HeuristicInput, cfg HeuristicConfig) models.HeuristicResult {
	result := models.HeuristicResult{Details: map[string]string{}}
	if in.IssueID == "" {
		return result
	}

	// Follow-up: a prior entry references the same issue and the current
	// submission is not itself a duplicate.
	if !in.IsDuplicate {
		for _, e := range prior {
			if e.IssueID == in.IssueID {
				result.IsFollowUp = true
				break
			}
		}
	}

	// Escalation: current urgency strictly above the prior max for this issue.
	prevMax := 0
	for _, e := range prior {
		if e.IssueID != in.IssueID {
			continue
		}
		if s := UrgencyScore(e.Urgency); s > prevMax {
			prevMax = s
		}
	}
	if prevMax > 0 && UrgencyScore(in.Urgency) > prevMax {
		result.IsEscalation = true
		result.Details["previous_urgency"] = UrgencyLabel(prevMax)
		result.Details["current_urgency"] = in.Urgency
	}

	// Possible noise: rapid, highly similar submissions.
	total := len(prior) + 1
	if total >= cfg.NoiseMinEntries {
		avgGap, gapOK := meanGapSeconds(prior, in.Timestamp)
		avgSim := meanSimilarity(prior, in.SimilarityScore)
		if gapOK && avgGap <= cfg.NoiseMaxAvgGap.Seconds() && avgSim >= cfg.NoiseMinSimilarity {
			result.PossibleNoise = true
			result.Details["avg_gap_seconds"] = fmt.Sprintf("%.2f", avgGap)
			result.Details["avg_similarity"] = fmt.Sprintf("%.3f", avgSim)
		}
	}

	return result
}

func meanGapSeconds(prior []models.SessionEntry, current time.Time) (float64, bool) {
	timestamps := make([]time.Time, 0, len(prior)+1)
	for _, e := range prior {
		if !e.Timestamp.IsZero() {
			timestamps = append(timestamps, e.Timestamp)
		}
	}
	timestamps = append(timestamps, current)
	if len(timestamps) < 2 {
		return 0, false
	}

	var sum float64
	n := 0
	for i := 1; i < len(timestamps); i++ {
		delta := timestamps[i].Sub(timestamps[i-1]).Seconds()
		if delta >= 0 {
			sum += delta
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func meanSimilarity(prior []models.SessionEntry, current float64) float64 {
	sum := current
	n := 1
	for _, e := range prior {
		sum += e.SimilarityScore
		n++
	}
	return sum / float64(n)
}
