package intel

import (
	"time"

	"github.com/grievance_desk/backend/internal/models"
)

// Priority is a 0-100 composite used only as a sort key for the admin queue.
type Priority struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`

	SeverityWeight float64 `json:"severity_weight"`
	SLAWeight      float64 `json:"sla_weight"`
	HealthWeight   float64 `json:"health_weight"`
	VolumeWeight   float64 `json:"volume_weight"`
	RecencyWeight  float64 `json:"recency_weight"`
}

// ComputePriority ranks an issue from its severity, SLA risk, health score,
// unique volume and age.
func ComputePriority(issue models.Issue, severity int, healthScore int, slaRisk string, now time.Time) Priority {
	p := Priority{}

	switch severity {
	case 1:
		p.SeverityWeight = 40
	case 2:
		p.SeverityWeight = 30
	case 3:
		p.SeverityWeight = 20
	default:
		p.SeverityWeight = 10
	}

	switch slaRisk {
	case SLABreaching:
		p.SLAWeight = 25
	case SLAWarning:
		p.SLAWeight = 15
	}

	p.HealthWeight = float64(100-healthScore) * 0.2

	p.VolumeWeight = float64(issue.UniqueComplaintCount * 2)
	if p.VolumeWeight > 10 {
		p.VolumeWeight = 10
	}

	age := now.Sub(issue.CreatedAt).Hours()
	switch {
	case age < 1:
		p.RecencyWeight = 5
	case age < 6:
		p.RecencyWeight = 3
	case age < 24:
		p.RecencyWeight = 1
	}

	p.Score = p.SeverityWeight + p.SLAWeight + p.HealthWeight + p.VolumeWeight + p.RecencyWeight
	p.Label = priorityLabel(p.Score)
	return p
}

func priorityLabel(score float64) string {
	switch {
	case score >= 75:
		return "CRITICAL"
	case score >= 50:
		return "HIGH"
	case score >= 25:
		return "MEDIUM"
	default:
		return "LOW"
	}
}
