package ai

import (
	"context"

	"github.com/grievance_desk/backend/internal/models"
)

// Adapter is the external classification and embedding capability.
// Classify maps text to category and urgency with confidences; Embed maps
// text to a fixed-dimension vector. A zero vector from Embed means the
// embedding capability is unavailable, not a valid input.
type Adapter interface {
	Classify(ctx context.Context, text string) (models.Classification, error)
	Embed(ctx context.Context, text string) ([]float64, error)
}
