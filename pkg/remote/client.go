// Package remote implements the HTTP menu API client used as the
// repository's primary data source. Retries, error classification, and
// request metrics live here, inside the collaborator: the repository
// itself never retries.
package remote

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/plateful/menu-catalog/pkg/catalog"
)

// Prometheus metrics for menu API requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "menu_remote_requests_total",
		Help: "Total menu API requests by status",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "menu_remote_request_duration_seconds",
		Help:    "Menu API request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "menu_remote_errors_total",
		Help: "Total menu API errors by class",
	}, []string{"class"})
)

// Config holds the menu API client configuration.
type Config struct {
	// BaseURL of the menu API (required).
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout per HTTP request.
	Timeout time.Duration

	// Retry behavior; zero value uses DefaultRetryConfig.
	Retry RetryConfig
}

// Client fetches menu items over HTTP. It implements the repository's
// RemoteSource interface.
type Client struct {
	http   *resty.Client
	retry  RetryConfig
	logger zerolog.Logger
}

// menuItemsResponse mirrors the wire shape of GET /menu-items.
type menuItemsResponse struct {
	Items      []catalog.MenuItem `json:"items"`
	NextCursor string             `json:"next_cursor"`
}

// New creates a menu API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		httpClient.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &Client{
		http:   httpClient,
		retry:  cfg.Retry,
		logger: log.With().Str("component", "menu-remote").Logger(),
	}, nil
}

// FetchItems fetches one page of menu items with server-side filtering
// and pagination. Server (5xx), rate limit, and network errors are
// retried with backoff; client (4xx) errors are not.
func (c *Client) FetchItems(ctx context.Context, limit int, cursor string, filter catalog.Filter) (*catalog.Page, error) {
	start := time.Now()
	defer func() {
		requestDuration.Observe(time.Since(start).Seconds())
	}()

	var page *catalog.Page
	err := retryWithBackoff(ctx, c.retry, c.logger, func() error {
		var out menuItemsResponse

		req := c.http.R().
			SetContext(ctx).
			SetResult(&out).
			SetQueryParam("limit", strconv.Itoa(limit))

		if cursor != "" {
			req.SetQueryParam("cursor", cursor)
		}
		if filter.Query != "" {
			req.SetQueryParam("q", filter.Query)
		}
		if len(filter.Categories) > 0 {
			req.SetQueryParam("categories", strings.Join(filter.Categories, ","))
		}
		if len(filter.Cuisines) > 0 {
			req.SetQueryParam("cuisines", strings.Join(filter.Cuisines, ","))
		}
		if pr := filter.PriceRange; pr != nil {
			req.SetQueryParam("min_price", formatPrice(pr.Min))
			req.SetQueryParam("max_price", formatPrice(pr.Max))
		}

		resp, err := req.Get("/menu-items")
		if err != nil {
			requestsTotal.WithLabelValues("network_error").Inc()
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			c.logger.Error().Err(err).Msg("Menu API request failed")
			return &APIError{Class: ErrorClassNetwork, Message: "request failed", Err: err}
		}

		requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode())).Inc()

		if resp.IsError() {
			class := classifyStatus(resp.StatusCode())
			errorsTotal.WithLabelValues(string(class)).Inc()
			c.logger.Warn().
				Int("status", resp.StatusCode()).
				Str("error_class", string(class)).
				Msg("Menu API request error")
			return &APIError{
				StatusCode: resp.StatusCode(),
				Class:      class,
				Message:    strings.TrimSpace(resp.String()),
			}
		}

		page = &catalog.Page{Items: out.Items, NextCursor: out.NextCursor}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("items", len(page.Items)).
		Bool("has_more", page.HasMore()).
		Msg("Fetched menu items")

	return page, nil
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
