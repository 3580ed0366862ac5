package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// BlockThreshold is the toxicity score above which content is blocked.
// Strictly greater than: a score of exactly 0.5 passes.
const BlockThreshold = 0.5

// Classifier scores text toxicity in [0, 1]. A failed call surfaces as an
// error; there is no fallback score.
type Classifier interface {
	Score(ctx context.Context, text string) (float64, error)
}

// PerspectiveClient calls the Comment Analyzer API's comments:analyze
// endpoint with the TOXICITY attribute.
type PerspectiveClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

func NewPerspectiveClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *PerspectiveClient {
	return &PerspectiveClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     logger,
	}
}

type analyzeRequest struct {
	Comment             analyzeComment            `json:"comment"`
	RequestedAttributes map[string]map[string]any `json:"requestedAttributes"`
}

type analyzeComment struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	AttributeScores map[string]struct {
		SummaryScore struct {
			Value float64 `json:"value"`
		} `json:"summaryScore"`
	} `json:"attributeScores"`
}

func (c *PerspectiveClient) Score(ctx context.Context, text string) (float64, error) {
	body, err := json.Marshal(analyzeRequest{
		Comment:             analyzeComment{Text: text},
		RequestedAttributes: map[string]map[string]any{"TOXICITY": {}},
	})
	if err != nil {
		return 0, err
	}

	endpoint := fmt.Sprintf("%s/v1alpha1/comments:analyze?key=%s", c.baseURL, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var parsed analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("classifier response decode failed: %w", err)
	}

	toxicity, ok := parsed.AttributeScores["TOXICITY"]
	if !ok {
		return 0, fmt.Errorf("classifier response missing TOXICITY score")
	}
	score := toxicity.SummaryScore.Value

	switch {
	case score < 0.2:
		c.logger.Info("Text toxicity level: Low", "score", score)
	case score < BlockThreshold:
		c.logger.Info("Text toxicity level: Medium", "score", score)
	default:
		c.logger.Info("Text toxicity level: High", "score", score)
	}

	return score, nil
}
