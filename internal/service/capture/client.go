package capture

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	pkghttp "ChartSentry/pkg/http"
	"ChartSentry/pkg/logger"
)

// snapshotRequest is the payload the capture service expects.
type snapshotRequest struct {
	URL       string `json:"url"`
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
}

// snapshotResponse carries one rendered chart back from the capture service.
type snapshotResponse struct {
	Image     string `json:"image"`
	Timeframe string `json:"timeframe"`
}

// Client talks to the external chart capture service over HTTP.
type Client struct {
	serviceURL string
	http       *pkghttp.Client
	logger     *logger.Logger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets the per-snapshot timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http = pkghttp.NewClient(pkghttp.WithTimeout(d))
	}
}

// NewClient creates a capture service client.
func NewClient(serviceURL string, log *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		serviceURL: serviceURL,
		http:       pkghttp.NewClient(),
		logger:     log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Snapshot renders one chart at the given timeframe and returns the PNG bytes.
func (c *Client) Snapshot(ctx context.Context, chartURL, symbol, timeframe string) ([]byte, error) {
	var resp snapshotResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: http.MethodPost,
		URL:    c.serviceURL + "/capture",
		Body: snapshotRequest{
			URL:       chartURL,
			Symbol:    symbol,
			Timeframe: timeframe,
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("capture %s tf=%s: %w", symbol, timeframe, err)
	}

	if resp.Image == "" {
		return nil, fmt.Errorf("capture %s tf=%s: empty image", symbol, timeframe)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Image)
	if err != nil {
		return nil, fmt.Errorf("capture %s tf=%s: decode image: %w", symbol, timeframe, err)
	}

	return data, nil
}
