package service

import "github.com/grievance_desk/backend/internal/models"

// UrgencyScore maps an urgency label to its ordinal. Unknown labels rank as Low.
func UrgencyScore(urgency string) int {
	switch urgency {
	case models.UrgencyCritical:
		return 4
	case models.UrgencyHigh:
		return 3
	case models.UrgencyMedium:
		return 2
	default:
		return 1
	}
}

// UrgencyLabel is the inverse of UrgencyScore.
func UrgencyLabel(score int) string {
	switch score {
	case 4:
		return models.UrgencyCritical
	case 3:
		return models.UrgencyHigh
	case 2:
		return models.UrgencyMedium
	default:
		return models.UrgencyLow
	}
}
