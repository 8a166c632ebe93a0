package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cartesian-metadata-app/internal/domain"
	"cartesian-metadata-app/internal/infrastructure/metrics"
	"cartesian-metadata-app/internal/ports"

	"github.com/rs/zerolog"
)

const (
	serviceName   = "generation"
	statusSuccess = "success"
	// maxImageBytes caps a single product image download
	maxImageBytes = 20 << 20
)

// Client talks to the metadata generation service
type Client struct {
	uploadURL   string
	requestsURL string
	http        *http.Client
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewClient creates a generation service client
func NewClient(uploadURL, requestsURL string, timeout time.Duration, m *metrics.Metrics, logger zerolog.Logger) *Client {
	return &Client{
		uploadURL:   uploadURL,
		requestsURL: requestsURL,
		http:        &http.Client{Timeout: timeout},
		metrics:     m,
		logger:      logger,
	}
}

var (
	_ ports.GenerationService = (*Client)(nil)
	_ ports.ImageFetcher      = (*Client)(nil)
)

type uploadRequest struct {
	CustomerID string                   `json:"customer_id"`
	Images     []domain.GenerationImage `json:"images"`
}

type uploadResponse struct {
	Status    string `json:"api_action_status"`
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
}

type requestsRequest struct {
	CustomerID string `json:"customer_id"`
}

type requestsResponse struct {
	Status      string                     `json:"api_action_status"`
	Message     string                     `json:"message"`
	RequestData []domain.GenerationRequest `json:"request_data"`
}

// UploadImages posts one batch of encoded images for customerID
func (c *Client) UploadImages(ctx context.Context, customerID string, images []domain.GenerationImage) (*domain.GenerationUploadResult, error) {
	var resp uploadResponse
	if err := c.post(ctx, "upload_images", c.uploadURL, uploadRequest{CustomerID: customerID, Images: images}, &resp); err != nil {
		return nil, err
	}
	if resp.Status != statusSuccess {
		return nil, &domain.ErrUpstream{Service: serviceName, Err: fmt.Errorf("upload rejected with status %q: %s", resp.Status, resp.Message)}
	}

	c.logger.Info().
		Str("customerId", customerID).
		Str("requestId", resp.RequestID).
		Int("images", len(images)).
		Msg("Generation batch uploaded")

	return &domain.GenerationUploadResult{
		Status:    resp.Status,
		RequestID: resp.RequestID,
		Message:   resp.Message,
		Uploaded:  len(images),
	}, nil
}

// ListRequests returns the generation requests submitted for customerID
func (c *Client) ListRequests(ctx context.Context, customerID string) ([]domain.GenerationRequest, error) {
	var resp requestsResponse
	if err := c.post(ctx, "list_requests", c.requestsURL, requestsRequest{CustomerID: customerID}, &resp); err != nil {
		return nil, err
	}
	if resp.Status != statusSuccess {
		return nil, &domain.ErrUpstream{Service: serviceName, Err: fmt.Errorf("request lookup returned status %q: %s", resp.Status, resp.Message)}
	}
	if resp.RequestData == nil {
		return []domain.GenerationRequest{}, nil
	}
	return resp.RequestData, nil
}

// Fetch downloads an image
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	data, err := c.fetch(ctx, url)
	c.metrics.ObserveUpstream("image_cdn", "fetch_image", start, err)
	return data, err
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image %s exceeds %d bytes", url, maxImageBytes)
	}
	return data, nil
}

func (c *Client) post(ctx context.Context, operation, url string, body interface{}, out interface{}) error {
	start := time.Now()
	err := c.doPost(ctx, url, body, out)
	c.metrics.ObserveUpstream(serviceName, operation, start, err)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("operation", operation).
			Msg("Generation service request failed")
		return &domain.ErrUpstream{Service: serviceName, Err: err}
	}
	return nil
}

func (c *Client) doPost(ctx context.Context, url string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call generation service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("generation service returned status %d: %s", resp.StatusCode, string(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
