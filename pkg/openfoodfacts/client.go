// Package openfoodfacts provides the product source backed by the public
// Open Food Facts v2 API.
package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nutridive/nutridive/pkg/apperrors"
	"github.com/nutridive/nutridive/pkg/jsonutil"
	"github.com/nutridive/nutridive/pkg/models"
)

const (
	// DefaultBaseURL is the public Open Food Facts host.
	DefaultBaseURL = "https://world.openfoodfacts.org"
	// DefaultTimeout bounds a single product lookup.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent identifies this service to Open Food Facts.
	DefaultUserAgent = "NutriDive/1.0 (+https://github.com/nutridive/nutridive)"

	// statusFound is the "status" value Open Food Facts returns for a known product.
	statusFound = 1
	// maxErrorBody caps how much of an error body is logged.
	maxErrorBody = 512
	// maxBodyBytes caps how much of a response is read. Product documents
	// are far smaller.
	maxBodyBytes = 8 << 20
)

// ProductSource fetches raw product data by barcode.
type ProductSource interface {
	FetchProduct(ctx context.Context, barcode string) (*models.ProductRecord, error)
}

// Config configures the client. Zero values select the defaults.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client fetches products from Open Food Facts.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ ProductSource = (*Client)(nil)

// NewClient creates a new Open Food Facts client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.Named("openfoodfacts"),
	}
}

// productResponse is the v2 product envelope.
type productResponse struct {
	Status  json.RawMessage       `json:"status"`
	Product *models.ProductRecord `json:"product"`
}

// FetchProduct looks up a barcode. A non-200 status or a response whose status
// flag is not 1 yields apperrors.ErrNotFound; transport failures yield
// apperrors.ErrUpstream.
func (c *Client) FetchProduct(ctx context.Context, barcode string) (*models.ProductRecord, error) {
	endpoint, err := buildURL(c.baseURL, "api", "v2", "product", barcode+".json")
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Product lookup failed",
			zap.String("barcode", barcode),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", apperrors.ErrUpstream, err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%w: response for %s exceeds %d bytes", apperrors.ErrUpstream, barcode, maxBodyBytes)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Info("Product source returned non-success status",
			zap.String("barcode", barcode),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(body), maxErrorBody)))
		return nil, apperrors.NotFoundf("product %s not found", barcode)
	}

	var envelope productResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", apperrors.ErrUpstream, err)
	}

	if jsonutil.FlexibleIntValue(envelope.Status, 0) != statusFound || envelope.Product == nil {
		return nil, apperrors.NotFoundf("product %s not found in Open Food Facts database", barcode)
	}

	c.logger.Debug("Fetched product",
		zap.String("barcode", barcode),
		zap.String("name", envelope.Product.Name),
		zap.Duration("elapsed", time.Since(start)))

	return envelope.Product, nil
}

// buildURL joins path segments onto the base URL, escaping each segment.
func buildURL(baseURL string, pathSegments ...string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	segments := append([]string{u.Path}, pathSegments...)
	u.Path = path.Join(segments...)
	return u.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
