package service

import (
	"testing"
	"time"

	"github.com/grievance_desk/backend/internal/models"
)

func testHeuristicConfig() HeuristicConfig {
	return HeuristicConfig{
		NoiseMinEntries:    4,
		NoiseMaxAvgGap:     30 * time.Second,
		NoiseMinSimilarity: 0.85,
	}
}

func TestFollowUpSameIssue(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	prior := []models.SessionEntry{
		{ComplaintID: "c1", IssueID: "ISSUE-a", Urgency: models.UrgencyMedium, Timestamp: base},
	}

	got := EvaluateHeuristics(prior, HeuristicInput{
		IssueID:   "ISSUE-a",
		Urgency:   models.UrgencyMedium,
		Timestamp: base.Add(5 * time.Minute),
	}, testHeuristicConfig())

	if !got.IsFollowUp {
		t.Fatalf("expected follow-up for repeat issue in session")
	}
	if got.IsEscalation || got.PossibleNoise {
		t.Fatalf("unexpected flags: %+v", got)
	}
}

func TestFollowUpSuppressedForDuplicate(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	prior := []models.SessionEntry{
		{ComplaintID: "c1", IssueID: "ISSUE-a", Urgency: models.UrgencyMedium, Timestamp: base},
	}

	got := EvaluateHeuristics(prior, HeuristicInput{
		IssueID:     "ISSUE-a",
		Urgency:     models.UrgencyMedium,
		IsDuplicate: true,
		Timestamp:   base.Add(5 * time.Minute),
	}, testHeuristicConfig())

	if got.IsFollowUp {
		t.Fatalf("duplicate submissions must not count as follow-ups")
	}
}

func TestEscalationDetected(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	prior := []models.SessionEntry{
		{ComplaintID: "c1", IssueID: "ISSUE-a", Urgency: models.UrgencyLow, Timestamp: base},
		{ComplaintID: "c2", IssueID: "ISSUE-a", Urgency: models.UrgencyMedium, Timestamp: base.Add(10 * time.Minute)},
	}

	got := EvaluateHeuristics(prior, HeuristicInput{
		IssueID:   "ISSUE-a",
		Urgency:   models.UrgencyCritical,
		Timestamp: base.Add(20 * time.Minute),
	}, testHeuristicConfig())

	if !got.IsEscalation {
		t.Fatalf("expected escalation: Medium -> Critical")
	}
	if got.Details["previous_urgency"] != models.UrgencyMedium {
		t.Fatalf("previous_urgency = %q, want %q", got.Details["previous_urgency"], models.UrgencyMedium)
	}
	if got.Details["current_urgency"] != models.UrgencyCritical {
		t.Fatalf("current_urgency = %q, want %q", got.Details["current_urgency"], models.UrgencyCritical)
	}
}

func TestNoEscalationAcrossIssues(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	prior := []models.SessionEntry{
		{ComplaintID: "c1", IssueID: "ISSUE-b", Urgency: models.UrgencyLow, Timestamp: base},
	}

	got := EvaluateHeuristics(prior, HeuristicInput{
		IssueID:   "ISSUE-a",
		Urgency:   models.UrgencyCritical,
		Timestamp: base.Add(time.Minute),
	}, testHeuristicConfig())

	if got.IsEscalation {
		t.Fatalf("escalation must only compare entries for the same issue")
	}
}

func TestNoiseDetection(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	prior := []models.SessionEntry{
		{ComplaintID: "c1", IssueID: "ISSUE-a", Urgency: models.UrgencyLow, SimilarityScore: 0.95, Timestamp: base},
		{ComplaintID: "c2", IssueID: "ISSUE-a", Urgency: models.UrgencyLow, SimilarityScore: 0.92, Timestamp: base.Add(10 * time.Second)},
		{ComplaintID: "c3", IssueID: "ISSUE-a", Urgency: models.UrgencyLow, SimilarityScore: 0.91, Timestamp: base.Add(20 * time.Second)},
	}

	got := EvaluateHeuristics(prior, HeuristicInput{
		IssueID:         "ISSUE-a",
		Urgency:         models.UrgencyLow,
		IsDuplicate:     true,
		SimilarityScore: 0.93,
		Timestamp:       base.Add(30 * time.Second),
	}, testHeuristicConfig())

	if !got.PossibleNoise {
		t.Fatalf("expected possible_noise for 4 rapid near-identical entries, got %+v", got)
	}
	if got.Details["avg_gap_seconds"] == "" || got.Details["avg_similarity"] == "" {
		t.Fatalf("noise details missing: %+v", got.Details)
	}
}

func TestNoiseNeedsMinimumEntries(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	prior := []models.SessionEntry{
		{ComplaintID: "c1", IssueID: "ISSUE-a", SimilarityScore: 0.99, Timestamp: base},
		{ComplaintID: "c2", IssueID: "ISSUE-a", SimilarityScore: 0.99, Timestamp: base.Add(5 * time.Second)},
	}

	got := EvaluateHeuristics(prior, HeuristicInput{
		IssueID:         "ISSUE-a",
		SimilarityScore: 0.99,
		IsDuplicate:     true,
		Urgency:         models.UrgencyLow,
		Timestamp:       base.Add(10 * time.Second),
	}, testHeuristicConfig())

	if got.PossibleNoise {
		t.Fatalf("3 entries is below the noise threshold of 4")
	}
}

func TestNoiseNeedsHighSimilarity(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	prior := []models.SessionEntry{
		{ComplaintID: "c1", IssueID: "ISSUE-a", SimilarityScore: 0.5, Timestamp: base},
		{ComplaintID: "c2", IssueID: "ISSUE-a", SimilarityScore: 0.4, Timestamp: base.Add(5 * time.Second)},
		{ComplaintID: "c3", IssueID: "ISSUE-a", SimilarityScore: 0.6, Timestamp: base.Add(10 * time.Second)},
	}

	got := EvaluateHeuristics(prior, HeuristicInput{
		IssueID:         "ISSUE-a",
		SimilarityScore: 0.5,
		Urgency:         models.UrgencyLow,
		Timestamp:       base.Add(15 * time.Second),
	}, testHeuristicConfig())

	if got.PossibleNoise {
		t.Fatalf("dissimilar submissions must not be flagged as noise")
	}
}

func TestHeuristicsDegradeOnEmptyInput(t *testing.T) {
	got := EvaluateHeuristics(nil, HeuristicInput{}, testHeuristicConfig())
	if got.IsFollowUp || got.IsEscalation || got.PossibleNoise {
		t.Fatalf("empty input must yield all-false flags, got %+v", got)
	}
	if len(got.Details) != 0 {
		t.Fatalf("empty input must yield empty details, got %+v", got.Details)
	}
}
