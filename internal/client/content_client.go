package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContentClient checks that a content item exists before a thread is opened
// on it.
type ContentClient interface {
	ContentItemExists(ctx context.Context, contentItemID uuid.UUID) (bool, error)
}

type contentClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewContentClient creates an HTTP client against the content service.
func NewContentClient(baseURL string, logger *zap.Logger) ContentClient {
	return &contentClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}
}

func (c *contentClient) ContentItemExists(ctx context.Context, contentItemID uuid.UUID) (bool, error) {
	url := fmt.Sprintf("%s/api/content/items/%s", c.baseURL, contentItemID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("content service request failed",
			zap.String("contentItemId", contentItemID.String()),
			zap.Error(err))
		return false, fmt.Errorf("content service unavailable: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("content service returned status %d", resp.StatusCode)
	}
}
