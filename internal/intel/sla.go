package intel

import (
	"time"

	"github.com/grievance_desk/backend/internal/models"
)

// SLA risk levels.
const (
	SLAOk        = "OK"
	SLAWarning   = "WARNING"
	SLABreaching = "BREACHING"
)

// SLA describes response-time risk against a severity-based target.
type SLA struct {
	Risk             string  `json:"risk"`
	TargetHours      int     `json:"target_hours"`
	ElapsedHours     float64 `json:"elapsed_hours"`
	RemainingMinutes int     `json:"remaining_minutes"`
	OverdueMinutes   int     `json:"overdue_minutes"`
	IsBreached       bool    `json:"is_breached"`
}

func slaTargetHours(severity int) int {
	switch severity {
	case 1:
		return 1
	case 2:
		return 6
	case 3:
		return 24
	default:
		return 72
	}
}

// EvaluateSLA computes SLA risk for an issue. Resolved issues are always OK
// regardless of elapsed time.
func EvaluateSLA(issue models.Issue, severity int, now time.Time) SLA {
	target := slaTargetHours(severity)

	if issue.Status == models.StatusResolved {
		return SLA{Risk: SLAOk, TargetHours: target}
	}

	elapsed := now.Sub(issue.CreatedAt).Hours()
	ratio := elapsed / float64(target)

	out := SLA{
		TargetHours:  target,
		ElapsedHours: elapsed,
	}
	switch {
	case ratio >= 1.0:
		out.Risk = SLABreaching
		out.IsBreached = true
		out.OverdueMinutes = int((elapsed - float64(target)) * 60)
	case ratio >= 0.5:
		out.Risk = SLAWarning
		out.RemainingMinutes = int((float64(target) - elapsed) * 60)
	default:
		out.Risk = SLAOk
		out.RemainingMinutes = int((float64(target) - elapsed) * 60)
	}
	return out
}
