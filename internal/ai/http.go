package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/grievance_desk/backend/internal/models"
)

// HTTPAdapter calls an external model-serving process over JSON.
type HTTPAdapter struct {
	BaseURL string
	Client  *http.Client
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Category           string  `json:"category"`
	CategoryConfidence float64 `json:"category_confidence"`
	Urgency            string  `json:"urgency"`
	UrgencyConfidence  float64 `json:"urgency_confidence"`
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (h HTTPAdapter) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (h HTTPAdapter) post(ctx context.Context, path string, payload any, out any) error {
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+path, bytes.NewBuffer(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("ai service error")
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (h HTTPAdapter) Classify(ctx context.Context, text string) (models.Classification, error) {
	var r classifyResponse
	if err := h.post(ctx, "/classify", classifyRequest{Text: text}, &r); err != nil {
		return models.Classification{}, err
	}
	return models.Classification{
		Category:           r.Category,
		CategoryConfidence: r.CategoryConfidence,
		Urgency:            r.Urgency,
		UrgencyConfidence:  r.UrgencyConfidence,
	}, nil
}

func (h HTTPAdapter) Embed(ctx context.Context, text string) ([]float64, error) {
	var r embedResponse
	if err := h.post(ctx, "/embed", embedRequest{Text: text}, &r); err != nil {
		return nil, err
	}
	return r.Embedding, nil
}
