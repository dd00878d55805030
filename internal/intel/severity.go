package intel

import (
	"fmt"

	"github.com/grievance_desk/backend/internal/models"
)

// Severity is an ordinal SEV-1 (worst) .. SEV-4 impact classification.
type Severity struct {
	Label       string `json:"label"`
	Numeric     int    `json:"numeric"`
	Description string `json:"description"`
}

// categoryMinSeverity caps how mild an issue in these categories can register.
var categoryMinSeverity = map[string]int{
	"Electricity": 2,
	"Water":       2,
	"Internet":    3,
	"Safety":      1,
	"Hygiene":     3,
}

// ComputeSeverity derives severity from max urgency, escalated by unique
// complaint volume and capped by the category's minimum severity.
func ComputeSeverity(issue models.Issue) Severity {
	sev := urgencyBaseSeverity(issue.UrgencyMax)

	if issue.UniqueComplaintCount >= 8 {
		sev -= 2
	} else if issue.UniqueComplaintCount >= 4 {
		sev -= 1
	}

	if min, ok := categoryMinSeverity[issue.Category]; ok && sev > min {
		sev = min
	}

	if sev < 1 {
		sev = 1
	}
	if sev > 4 {
		sev = 4
	}

	return Severity{
		Label:       fmt.Sprintf("SEV-%d", sev),
		Numeric:     sev,
		Description: severityDescription(sev),
	}
}

func urgencyBaseSeverity(urgencyMax string) int {
	switch urgencyMax {
	case models.UrgencyCritical:
		return 1
	case models.UrgencyHigh:
		return 2
	case models.UrgencyMedium:
		return 3
	default:
		return 4
	}
}

func severityDescription(sev int) string {
	switch sev {
	case 1:
		return "Critical - Immediate action required"
	case 2:
		return "Major - Significant impact"
	case 3:
		return "Moderate - Noticeable disruption"
	default:
		return "Minor - Low impact"
	}
}
