package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/grievance_desk/backend/internal/ai"
	"github.com/grievance_desk/backend/internal/apperr"
	"github.com/grievance_desk/backend/internal/db"
	"github.com/grievance_desk/backend/internal/metrics"
	"github.com/grievance_desk/backend/internal/models"
)

// IngestService drives one complaint through the full pipeline:
// classify and embed, resolve-or-create the issue under its row lock,
// duplicate-scan, persist, then update session state and evaluate
// heuristics.
type IngestService struct {
	Store    *db.Store
	AI       ai.Adapter
	Sessions *SessionTracker
	Metrics  *metrics.Registry
	Logger   zerolog.Logger

	DuplicateThreshold float64
	Retries            int
	Heuristics         HeuristicConfig
}

type IngestRequest struct {
	Text        string
	Location    string
	ComplaintID string
	SessionID   string
}

// Aggregation is the issue-side outcome of one ingestion.
type Aggregation struct {
	IssueID              string  `json:"issue_id"`
	IsNewIssue           bool    `json:"is_new_issue"`
	IsDuplicate          bool    `json:"is_duplicate"`
	DuplicateOf          *string `json:"duplicate_of"`
	SimilarityScore      float64 `json:"similarity_score"`
	ComplaintCount       int     `json:"complaint_count"`
	UniqueComplaintCount int     `json:"unique_complaint_count"`
	DuplicateCount       int     `json:"duplicate_count"`
	UrgencyMax           string  `json:"urgency_max"`
	UrgencyAvg           float64 `json:"urgency_avg"`
}

// SessionInfo reports session state after the ingestion.
type SessionInfo struct {
	SessionID        string `json:"session_id"`
	EntriesInSession int    `json:"entries_in_session"`
}

type IngestResult struct {
	ComplaintID      string                 `json:"complaint_id"`
	Classification   models.Classification  `json:"classification"`
	Aggregation      Aggregation            `json:"aggregation"`
	Session          SessionInfo            `json:"session"`
	Heuristics       models.HeuristicResult `json:"heuristics"`
	Degraded         map[string]bool        `json:"degraded"`
	ProcessingMillis int64                  `json:"processing_ms"`
}

// Ingest processes one complaint. Validation and capacity failures return
// tagged errors with zero side effects; transient store failures leave no
// partial writes behind.
func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	start := time.Now()
	s.Metrics.ComplaintsReceived.Add(1)

	result := IngestResult{Degraded: map[string]bool{}}

	if err := validateRequest(req); err != nil {
		s.Metrics.ComplaintsRejected.Add(1)
		return result, err
	}

	complaintID := req.ComplaintID
	if complaintID == "" {
		complaintID = "CMP-" + uuid.New().String()[:12]
	}
	result.ComplaintID = complaintID

	// Session resolution happens before any persistence so a capacity
	// rejection touches nothing.
	session, created := s.resolveSession(req.SessionID)
	if created {
		s.Metrics.SessionsCreated.Add(1)
	}
	result.Session.SessionID = session.ID
	if !s.Sessions.CanSubmit(session.ID) {
		s.Metrics.ComplaintsRejected.Add(1)
		return result, apperr.New(apperr.KindCapacity, "session %s at entry limit", session.ID)
	}

	classification, embedding := s.enrich(ctx, req.Text, result.Degraded)
	result.Classification = classification

	agg, err := s.persist(ctx, complaintID, req, classification, embedding, session.ID, result.Degraded)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			s.Metrics.ComplaintsRejected.Add(1)
		} else {
			s.Metrics.ComplaintsFailed.Add(1)
		}
		return result, err
	}
	result.Aggregation = agg

	if agg.IsNewIssue {
		s.Metrics.IssuesCreated.Add(1)
	}
	if agg.IsDuplicate {
		s.Metrics.DuplicatesDetected.Add(1)
	}

	// Session and heuristics run after the commit; a crash here leaves
	// session state merely stale, which is acceptable for advisory data.
	prior, _ := s.Sessions.Snapshot(session.ID)
	s.Sessions.AddEntry(session.ID, models.SessionEntry{
		ComplaintID:     complaintID,
		IssueID:         agg.IssueID,
		Category:        classification.Category,
		Urgency:         classification.Urgency,
		SimilarityScore: agg.SimilarityScore,
		IsDuplicate:     agg.IsDuplicate,
		Timestamp:       time.Now().UTC(),
	})
	if after, ok := s.Sessions.Snapshot(session.ID); ok {
		result.Session.EntriesInSession = len(after.Entries)
	}

	if result.Degraded["embedding"] {
		result.Heuristics = models.HeuristicResult{Details: map[string]string{}}
		result.Degraded["heuristics"] = true
	} else {
		result.Heuristics = EvaluateHeuristics(prior.Entries, HeuristicInput{
			IssueID:         agg.IssueID,
			Urgency:         classification.Urgency,
			IsDuplicate:     agg.IsDuplicate,
			SimilarityScore: agg.SimilarityScore,
			Timestamp:       time.Now().UTC(),
		}, s.Heuristics)
		if result.Heuristics.IsFollowUp {
			s.Metrics.FollowUps.Add(1)
		}
		if result.Heuristics.IsEscalation {
			s.Metrics.Escalations.Add(1)
		}
		if result.Heuristics.PossibleNoise {
			s.Metrics.NoiseFlags.Add(1)
		}
	}

	result.ProcessingMillis = time.Since(start).Milliseconds()
	s.Metrics.ComplaintsSucceeded.Add(1)
	s.Metrics.ObserveLatency(float64(time.Since(start).Microseconds()) / 1000)

	s.Logger.Info().
		Str("complaint_id", complaintID).
		Str("issue_id", agg.IssueID).
		Bool("is_duplicate", agg.IsDuplicate).
		Float64("similarity", agg.SimilarityScore).
		Msg("complaint processed")

	return result, nil
}

// IngestBatch processes independent complaints with bounded fan-out.
// Per-item failures land in the matching result slot instead of aborting
// the batch.
type BatchItem struct {
	Result IngestResult
	Err    error
}

func (s *IngestService) IngestBatch(ctx context.Context, reqs []IngestRequest) []BatchItem {
	items := make([]BatchItem, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			items[i].Result, items[i].Err = s.Ingest(gctx, req)
			return nil
		})
	}
	_ = g.Wait()
	return items
}

func validateRequest(req IngestRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return apperr.New(apperr.KindValidation, "complaint text must not be empty")
	}
	if len(strings.TrimSpace(req.Location)) < 2 {
		return apperr.New(apperr.KindValidation, "location too short")
	}
	return nil
}

func (s *IngestService) resolveSession(sessionID string) (*models.Session, bool) {
	if sessionID != "" {
		if session, ok := s.Sessions.Get(sessionID); ok {
			return session, false
		}
	}
	return s.Sessions.Create(), true
}

// enrich runs the external capabilities. Either may degrade without failing
// the ingestion; the flags mark which signal was skipped.
func (s *IngestService) enrich(ctx context.Context, text string, degraded map[string]bool) (models.Classification, []float64) {
	classification, err := s.AI.Classify(ctx, text)
	if err != nil {
		s.Logger.Warn().Err(err).Msg("classification unavailable")
		degraded["classification"] = true
		classification = models.Classification{Category: "General", Urgency: models.UrgencyMedium}
	}

	embedding, err := s.AI.Embed(ctx, text)
	if err != nil || isZeroVector(embedding) {
		if err != nil {
			s.Logger.Warn().Err(err).Msg("embedding unavailable")
		}
		s.Metrics.DegradedEmbeddings.Add(1)
		degraded["embedding"] = true
		degraded["duplicate_detection"] = true
		embedding = nil
	}
	return classification, embedding
}

func isZeroVector(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// persist runs the atomic unit of work: lock-or-create the issue, scan for
// duplicates among its complaints, insert the complaint, bump counters.
// A lost creation race surfaces as a unique violation on the issue key;
// the loser re-reads under the lock, bounded by Retries.
func (s *IngestService) persist(ctx context.Context, complaintID string, req IngestRequest, classification models.Classification, embedding []float64, sessionID string, degraded map[string]bool) (Aggregation, error) {
	issueKey := IssueKey(req.Location, classification.Category)

	var agg Aggregation
	var lastErr error
	for attempt := 0; attempt < s.Retries; attempt++ {
		err := s.Store.WithTx(ctx, func(tx pgx.Tx) error {
			var txErr error
			agg, txErr = s.persistTx(ctx, tx, issueKey, complaintID, req, classification, embedding, sessionID)
			return txErr
		})
		if err == nil {
			return agg, nil
		}

		if db.IsUniqueViolation(err) {
			if constraintName(err) == "complaints_pkey" {
				return agg, apperr.Wrap(apperr.KindValidation, err, "complaint %s already processed", complaintID)
			}
			// Issue-key race: another writer created the issue first.
			s.Logger.Warn().Str("issue_key", issueKey).Int("attempt", attempt+1).Msg("issue creation race, retrying")
			lastErr = err
			continue
		}
		if db.IsTransient(err) {
			return agg, apperr.Wrap(apperr.KindTransientBackend, err, "store unreachable")
		}
		if apperr.KindOf(err) != apperr.KindUnknown {
			return agg, err
		}
		return agg, apperr.Wrap(apperr.KindTransientBackend, err, "ingestion transaction failed")
	}
	return agg, apperr.Wrap(apperr.KindConsistency, lastErr, "issue creation retries exhausted for key %s", issueKey)
}

func (s *IngestService) persistTx(ctx context.Context, tx pgx.Tx, issueKey, complaintID string, req IngestRequest, classification models.Classification, embedding []float64, sessionID string) (Aggregation, error) {
	now := time.Now().UTC()

	issue, found, err := s.Store.GetIssueByKeyForUpdate(ctx, tx, issueKey)
	if err != nil {
		return Aggregation{}, err
	}

	isNewIssue := !found
	if isNewIssue {
		issue = models.Issue{
			ID:          IssueID(req.Location, classification.Category),
			Location:    req.Location,
			Category:    classification.Category,
			Status:      models.StatusOpen,
			UrgencyMax:  classification.Urgency,
			UrgencyAvg:  float64(UrgencyScore(classification.Urgency)),
			CreatedAt:   now,
			LastUpdated: now,
		}
		if err := s.Store.InsertIssue(ctx, tx, issue, issueKey); err != nil {
			return Aggregation{}, err
		}
	} else if Normalize(issue.Location) != Normalize(req.Location) || Normalize(issue.Category) != Normalize(classification.Category) {
		// Should be impossible given the key derivation; never repaired.
		return Aggregation{}, apperr.New(apperr.KindConsistency,
			"issue %s resolved for key %s but holds %s/%s", issue.ID, issueKey, issue.Location, issue.Category)
	}

	existing, err := s.Store.ListComplaintsByIssueTx(ctx, tx, issue.ID)
	if err != nil {
		return Aggregation{}, err
	}

	match := FindDuplicate(embedding, existing, s.DuplicateThreshold)

	// Location and category come from the issue itself so a complaint can
	// never disagree with its owner.
	complaint := models.Complaint{
		ID:              complaintID,
		IssueID:         issue.ID,
		Text:            req.Text,
		Category:        issue.Category,
		Urgency:         classification.Urgency,
		Location:        issue.Location,
		Embedding:       embedding,
		SimilarityScore: match.Score,
		IsDuplicate:     match.DuplicateOf != nil,
		DuplicateOf:     match.DuplicateOf,
		CreatedAt:       now,
	}
	if sessionID != "" {
		complaint.SessionID = &sessionID
	}
	if err := s.Store.InsertComplaint(ctx, tx, complaint); err != nil {
		return Aggregation{}, err
	}

	// Urgency aggregates span all complaints, duplicates included.
	maxScore := UrgencyScore(classification.Urgency)
	sumScore := maxScore
	for _, c := range existing {
		score := UrgencyScore(c.Urgency)
		if score > maxScore {
			maxScore = score
		}
		sumScore += score
	}
	urgencyMax := UrgencyLabel(maxScore)
	urgencyAvg := float64(sumScore) / float64(len(existing)+1)

	if err := s.Store.IncrementIssueCounts(ctx, tx, issue.ID, complaint.IsDuplicate, urgencyMax, urgencyAvg); err != nil {
		return Aggregation{}, err
	}

	agg := Aggregation{
		IssueID:              issue.ID,
		IsNewIssue:           isNewIssue,
		IsDuplicate:          complaint.IsDuplicate,
		DuplicateOf:          match.DuplicateOf,
		SimilarityScore:      match.Score,
		ComplaintCount:       issue.ComplaintCount + 1,
		UniqueComplaintCount: issue.UniqueComplaintCount,
		DuplicateCount:       issue.DuplicateCount,
		UrgencyMax:           urgencyMax,
		UrgencyAvg:           urgencyAvg,
	}
	if complaint.IsDuplicate {
		agg.DuplicateCount++
	} else {
		agg.UniqueComplaintCount++
	}
	return agg, nil
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
