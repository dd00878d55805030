package intel

import (
	"testing"
	"time"

	"github.com/grievance_desk/backend/internal/models"
)

func TestCriticalOpenIssueSnapshot(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	issue := models.Issue{
		ID:                   "ISSUE-hostel_a-water-abc123",
		Location:             "Hostel A",
		Category:             "Water",
		Status:               models.StatusOpen,
		UrgencyMax:           models.UrgencyCritical,
		ComplaintCount:       10,
		UniqueComplaintCount: 10,
		CreatedAt:            now.Add(-2 * time.Hour),
	}

	snap := ComputeSnapshot(issue, now)

	if snap.Severity.Numeric != 1 || snap.Severity.Label != "SEV-1" {
		t.Fatalf("severity = %+v, want SEV-1", snap.Severity)
	}
	if snap.SLA.Risk != SLABreaching || !snap.SLA.IsBreached {
		t.Fatalf("sla = %+v, want BREACHING", snap.SLA)
	}
	if snap.SLA.OverdueMinutes != 60 {
		t.Fatalf("overdue = %d min, want 60", snap.SLA.OverdueMinutes)
	}
	// 40 urgency + 25 volume cap + 5 age (under 6h), no noise penalty.
	if snap.Health.Score != 70 || snap.Health.Label != "CRITICAL" {
		t.Fatalf("health = %+v, want score 70 CRITICAL", snap.Health)
	}
	// 40 severity + 25 sla + 6 health + 10 volume cap + 3 recency.
	if snap.Priority.Score != 84 || snap.Priority.Label != "CRITICAL" {
		t.Fatalf("priority = %+v, want score 84 CRITICAL", snap.Priority)
	}
}

func TestResolvedIssueSLAAlwaysOk(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	issue := models.Issue{
		ID:         "ISSUE-x",
		Category:   "Water",
		Status:     models.StatusResolved,
		UrgencyMax: models.UrgencyCritical,
		CreatedAt:  now.Add(-200 * time.Hour),
	}

	sla := EvaluateSLA(issue, 1, now)
	if sla.Risk != SLAOk || sla.IsBreached {
		t.Fatalf("resolved issue must be OK regardless of age, got %+v", sla)
	}
}

func TestSLAWarningBand(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	issue := models.Issue{
		Status:    models.StatusOpen,
		CreatedAt: now.Add(-4 * time.Hour),
	}

	// Severity 2 targets 6h; 4h elapsed is past the 50% mark.
	sla := EvaluateSLA(issue, 2, now)
	if sla.Risk != SLAWarning {
		t.Fatalf("risk = %q, want WARNING", sla.Risk)
	}
	if sla.RemainingMinutes != 120 {
		t.Fatalf("remaining = %d min, want 120", sla.RemainingMinutes)
	}
}

func TestSeverityVolumeEscalation(t *testing.T) {
	issue := models.Issue{
		Category:             "General",
		UrgencyMax:           models.UrgencyMedium,
		UniqueComplaintCount: 4,
	}
	if got := ComputeSeverity(issue); got.Numeric != 2 {
		t.Fatalf("4 unique complaints should escalate SEV-3 to SEV-2, got %+v", got)
	}

	issue.UniqueComplaintCount = 8
	if got := ComputeSeverity(issue); got.Numeric != 1 {
		t.Fatalf("8 unique complaints should escalate SEV-3 to SEV-1, got %+v", got)
	}
}

func TestSeverityCategoryMinimums(t *testing.T) {
	cases := []struct {
		category string
		want     int
	}{
		{"Safety", 1},
		{"Water", 2},
		{"Electricity", 2},
		{"Internet", 3},
		{"Hygiene", 3},
		{"General", 4},
	}
	for _, tc := range cases {
		issue := models.Issue{
			Category:             tc.category,
			UrgencyMax:           models.UrgencyLow,
			UniqueComplaintCount: 1,
		}
		if got := ComputeSeverity(issue); got.Numeric != tc.want {
			t.Fatalf("category %s: severity = %d, want %d", tc.category, got.Numeric, tc.want)
		}
	}
}

func TestHealthLabels(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Resolved low-urgency issue with one complaint: 10 + 5 + 0.
	quiet := models.Issue{
		Status:               models.StatusResolved,
		UrgencyMax:           models.UrgencyLow,
		ComplaintCount:       1,
		UniqueComplaintCount: 1,
		CreatedAt:            now.Add(-time.Hour),
	}
	if got := ComputeHealth(quiet, now); got.Score != 15 || got.Label != "HEALTHY" {
		t.Fatalf("quiet issue health = %+v, want 15 HEALTHY", got)
	}

	// Old critical issue at full volume: 40 + 25 + 20.
	loud := models.Issue{
		Status:               models.StatusOpen,
		UrgencyMax:           models.UrgencyCritical,
		ComplaintCount:       12,
		UniqueComplaintCount: 12,
		CreatedAt:            now.Add(-100 * time.Hour),
	}
	if got := ComputeHealth(loud, now); got.Score != 85 || got.Label != "EMERGENCY" {
		t.Fatalf("loud issue health = %+v, want 85 EMERGENCY", got)
	}
}

func TestHealthNoisePenalty(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	issue := models.Issue{
		Status:               models.StatusOpen,
		UrgencyMax:           models.UrgencyLow,
		ComplaintCount:       10,
		DuplicateCount:       7,
		UniqueComplaintCount: 3,
		CreatedAt:            now.Add(-time.Hour),
	}

	got := ComputeHealth(issue, now)
	if got.NoisePenalty != -15 {
		t.Fatalf("duplicate ratio 0.7 should cost 15 points, got %+v", got)
	}
}

func TestQueueOrderDeterministic(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	older := now.Add(-30 * time.Hour)
	newer := now.Add(-25 * time.Hour)

	issues := []models.Issue{
		{ID: "ISSUE-b", Category: "General", Status: models.StatusOpen, UrgencyMax: models.UrgencyLow, ComplaintCount: 1, UniqueComplaintCount: 1, CreatedAt: older},
		{ID: "ISSUE-c", Category: "General", Status: models.StatusOpen, UrgencyMax: models.UrgencyCritical, ComplaintCount: 5, UniqueComplaintCount: 5, CreatedAt: newer},
		{ID: "ISSUE-a", Category: "General", Status: models.StatusOpen, UrgencyMax: models.UrgencyLow, ComplaintCount: 1, UniqueComplaintCount: 1, CreatedAt: older},
	}

	queue := BuildQueue(issues, now)
	if queue[0].Issue.ID != "ISSUE-c" {
		t.Fatalf("highest priority first, got %s", queue[0].Issue.ID)
	}
	// Equal scores break ties on created_at, then issue id.
	if queue[1].Issue.ID != "ISSUE-a" || queue[2].Issue.ID != "ISSUE-b" {
		t.Fatalf("tie-break order wrong: %s, %s", queue[1].Issue.ID, queue[2].Issue.ID)
	}
}
