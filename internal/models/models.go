package models

import "time"

// Issue lifecycle statuses.
const (
	StatusOpen       = "OPEN"
	StatusInProgress = "IN_PROGRESS"
	StatusResolved   = "RESOLVED"
	StatusReopened   = "REOPENED"
)

// Urgency levels, ordered Low < Medium < High < Critical.
const (
	UrgencyLow      = "Low"
	UrgencyMedium   = "Medium"
	UrgencyHigh     = "High"
	UrgencyCritical = "Critical"
)

// ValidStatus reports whether s is a known issue status.
func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusReopened:
		return true
	}
	return false
}

// Complaint is immutable once persisted.
type Complaint struct {
	ID              string    `json:"id"`
	IssueID         string    `json:"issue_id"`
	Text            string    `json:"text"`
	Category        string    `json:"category"`
	Urgency         string    `json:"urgency"`
	Location        string    `json:"location"`
	Embedding       []float64 `json:"-"`
	SimilarityScore float64   `json:"similarity_score"`
	IsDuplicate     bool      `json:"is_duplicate"`
	DuplicateOf     *string   `json:"duplicate_of"`
	SessionID       *string   `json:"session_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// Issue groups complaints sharing a normalized (location, category) key.
type Issue struct {
	ID                   string     `json:"id"`
	Location             string     `json:"location"`
	Category             string     `json:"category"`
	Status               string     `json:"status"`
	UrgencyMax           string     `json:"urgency_max"`
	UrgencyAvg           float64    `json:"urgency_avg"`
	ComplaintCount       int        `json:"complaint_count"`
	UniqueComplaintCount int        `json:"unique_complaint_count"`
	DuplicateCount       int        `json:"duplicate_count"`
	CreatedAt            time.Time  `json:"created_at"`
	LastUpdated          time.Time  `json:"last_updated"`
	ResolvedAt           *time.Time `json:"resolved_at"`
}

// Classification is the output of the external classify capability.
type Classification struct {
	Category           string  `json:"category"`
	CategoryConfidence float64 `json:"category_confidence"`
	Urgency            string  `json:"urgency"`
	UrgencyConfidence  float64 `json:"urgency_confidence"`
}

// SessionEntry records one submission in a session's bounded history.
type SessionEntry struct {
	ComplaintID     string    `json:"complaint_id"`
	IssueID         string    `json:"issue_id"`
	Category        string    `json:"category"`
	Urgency         string    `json:"urgency"`
	SimilarityScore float64   `json:"similarity_score"`
	IsDuplicate     bool      `json:"is_duplicate"`
	Timestamp       time.Time `json:"timestamp"`
}

// Session is ephemeral submission history for one anonymous actor.
// Not persisted; lifecycle is independent of issues and complaints.
type Session struct {
	ID           string         `json:"session_id"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActiveAt time.Time      `json:"last_active_at"`
	Entries      []SessionEntry `json:"entries"`
}

// HeuristicResult is the outcome of session-aware heuristic evaluation.
// The three flags are independent and may co-occur.
type HeuristicResult struct {
	IsFollowUp    bool              `json:"is_follow_up"`
	IsEscalation  bool              `json:"is_escalation"`
	PossibleNoise bool              `json:"possible_noise"`
	Details       map[string]string `json:"details"`
}
