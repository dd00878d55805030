package ai

import (
	"context"
	"math"
	"strings"

	"github.com/grievance_desk/backend/internal/models"
	"github.com/grievance_desk/backend/internal/utils"
)

// MockAdapter produces deterministic classifications and embeddings from a
// text hash. Keyword hits steer category/urgency so demo submissions behave
// plausibly; everything stays stable across runs.
type MockAdapter struct {
	ModelVersion string
	Dimension    int
}

var mockCategories = []string{"Water", "Electricity", "Internet", "Safety", "Hygiene", "General"}

var categoryKeywords = map[string][]string{
	"Water":       {"water", "tap", "leak", "pipe"},
	"Electricity": {"power", "electric", "light", "fan", "socket"},
	"Internet":    {"wifi", "internet", "network", "router"},
	"Safety":      {"fire", "theft", "broken lock", "unsafe"},
	"Hygiene":     {"clean", "garbage", "smell", "cockroach", "toilet"},
}

var urgentKeywords = []string{"fire", "flood", "sparking", "emergency", "no water", "danger"}

func (m MockAdapter) Classify(ctx context.Context, text string) (models.Classification, error) {
	lower := strings.ToLower(text)

	category := ""
	for cat, words := range categoryKeywords {
		for _, w := range words {
			if strings.Contains(lower, w) {
				category = cat
				break
			}
		}
		if category != "" {
			break
		}
	}
	h := utils.HashStringToUint64(lower)
	if category == "" {
		category = mockCategories[int(h)%len(mockCategories)]
	}

	urgency := models.UrgencyMedium
	for _, w := range urgentKeywords {
		if strings.Contains(lower, w) {
			urgency = models.UrgencyCritical
			break
		}
	}
	if urgency != models.UrgencyCritical {
		urgencies := []string{models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh}
		urgency = urgencies[int(h/7)%len(urgencies)]
	}

	confidence := 0.75
	if h%5 == 0 {
		confidence = 0.62
	}

	return models.Classification{
		Category:           category,
		CategoryConfidence: confidence,
		Urgency:            urgency,
		UrgencyConfidence:  confidence,
	}, nil
}

func (m MockAdapter) Embed(ctx context.Context, text string) ([]float64, error) {
	dim := m.Dimension
	if dim == 0 {
		dim = 64
	}

	// Bag-of-words style projection keyed by token hash. Texts sharing most
	// tokens land close in cosine space, which is enough for duplicate
	// detection in tests and local runs.
	vec := make([]float64, dim)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,!?;:")
		if token == "" {
			continue
		}
		h := utils.HashStringToUint64(token)
		vec[int(h%uint64(dim))] += 1.0
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}
