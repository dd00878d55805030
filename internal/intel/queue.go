package intel

import (
	"sort"
	"time"

	"github.com/grievance_desk/backend/internal/models"
)

// Snapshot bundles the derived scores for one issue. Recomputed on demand,
// never stored.
type Snapshot struct {
	Issue    models.Issue `json:"issue"`
	Health   Health       `json:"health"`
	Severity Severity     `json:"severity"`
	SLA      SLA          `json:"sla"`
	Priority Priority     `json:"priority"`
}

// ComputeSnapshot evaluates all intelligence signals for one issue.
func ComputeSnapshot(issue models.Issue, now time.Time) Snapshot {
	health := ComputeHealth(issue, now)
	severity := ComputeSeverity(issue)
	sla := EvaluateSLA(issue, severity.Numeric, now)
	priority := ComputePriority(issue, severity.Numeric, health.Score, sla.Risk, now)
	return Snapshot{
		Issue:    issue,
		Health:   health,
		Severity: severity,
		SLA:      sla,
		Priority: priority,
	}
}

// BuildQueue scores every issue and sorts descending by priority. Equal
// scores fall back to oldest created_at first, then issue id, so the queue
// order is deterministic.
func BuildQueue(issues []models.Issue, now time.Time) []Snapshot {
	out := make([]Snapshot, 0, len(issues))
	for _, issue := range issues {
		out = append(out, ComputeSnapshot(issue, now))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority.Score != out[j].Priority.Score {
			return out[i].Priority.Score > out[j].Priority.Score
		}
		if !out[i].Issue.CreatedAt.Equal(out[j].Issue.CreatedAt) {
			return out[i].Issue.CreatedAt.Before(out[j].Issue.CreatedAt)
		}
		return out[i].Issue.ID < out[j].Issue.ID
	})
	return out
}
