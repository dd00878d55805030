// Package intel computes derived operational-intelligence scores over
// persisted issue snapshots. Everything here is stateless and recomputed on
// demand; nothing is cached as a source of truth.
package intel

import (
	"time"

	"github.com/grievance_desk/backend/internal/models"
)

// Health is a 0-100 composite indicator; higher means worse.
type Health struct {
	Score int    `json:"score"`
	Label string `json:"label"`

	UrgencyTerm  int `json:"urgency_term"`
	VolumeTerm   int `json:"volume_term"`
	AgeTerm      int `json:"age_term"`
	NoisePenalty int `json:"noise_penalty"`
}

// ComputeHealth scores an issue from urgency, unique volume, unresolved age
// and a penalty for duplicate-heavy (likely noisy) issues.
func ComputeHealth(issue models.Issue, now time.Time) Health {
	urgency := urgencyPoints(issue.UrgencyMax)

	volume := issue.UniqueComplaintCount * 5
	if volume > 25 {
		volume = 25
	}

	age := 0
	if issue.Status != models.StatusResolved {
		hours := now.Sub(issue.CreatedAt).Hours()
		switch {
		case hours < 6:
			age = 5
		case hours < 24:
			age = 10
		case hours < 72:
			age = 15
		default:
			age = 20
		}
	}

	noise := 0
	if issue.ComplaintCount > 0 {
		ratio := float64(issue.DuplicateCount) / float64(issue.ComplaintCount)
		switch {
		case ratio > 0.6:
			noise = -15
		case ratio > 0.4:
			noise = -10
		case ratio > 0.2:
			noise = -5
		}
	}

	score := urgency + volume + age + noise
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Health{
		Score:        score,
		Label:        healthLabel(score),
		UrgencyTerm:  urgency,
		VolumeTerm:   volume,
		AgeTerm:      age,
		NoisePenalty: noise,
	}
}

func urgencyPoints(urgencyMax string) int {
	switch urgencyMax {
	case models.UrgencyCritical:
		return 40
	case models.UrgencyHigh:
		return 30
	case models.UrgencyMedium:
		return 20
	default:
		return 10
	}
}

func healthLabel(score int) string {
	switch {
	case score <= 20:
		return "HEALTHY"
	case score <= 40:
		return "MONITOR"
	case score <= 60:
		return "WARNING"
	case score <= 80:
		return "CRITICAL"
	default:
		return "EMERGENCY"
	}
}
