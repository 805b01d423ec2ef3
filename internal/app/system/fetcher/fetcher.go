// Package fetcher retrieves the project collection from the dashboard-data
// endpoint.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dalemusser/projectdash/internal/domain/models"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single fetch when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// maxBody caps the response size read from the endpoint.
const maxBody = 32 << 20

var tracer = otel.Tracer("github.com/dalemusser/projectdash/internal/app/system/fetcher")

// FetchError reports a non-2xx response from the data endpoint.
type FetchError struct {
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Config configures a Client.
type Config struct {
	URL     string        // dashboard-data endpoint
	Token   string        // bearer token; empty sends no Authorization header
	Timeout time.Duration // per request; zero uses DefaultTimeout
}

// Client loads projects over HTTP. It never retries.
type Client struct {
	url   string
	token string
	http  *http.Client
	log   *zap.Logger
}

// New builds a Client. A nil httpClient gets one with cfg.Timeout.
func New(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{url: cfg.URL, token: cfg.Token, http: httpClient, log: logger}
}

// Load fetches every project of the company. A non-2xx response returns a
// *FetchError; transport and decode failures are wrapped.
func (c *Client) Load(ctx context.Context, companyID string) ([]models.Project, error) {
	ctx, span := tracer.Start(ctx, "fetcher.Load", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	reqID := uuid.NewString()
	span.SetAttributes(
		attribute.String("projectdash.company_id", companyID),
		attribute.String("projectdash.request_id", reqID),
	)

	u, err := url.Parse(c.url)
	if err != nil {
		span.SetStatus(codes.Error, "bad url")
		return nil, fmt.Errorf("parse data url: %w", err)
	}
	if companyID != "" {
		q := u.Query()
		q.Set("company", companyID)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		span.SetStatus(codes.Error, "build request")
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		c.log.Warn("dashboard data fetch failed",
			zap.String("company_id", companyID),
			zap.String("request_id", reqID),
			zap.Error(err))
		return nil, fmt.Errorf("fetch dashboard data: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		ferr := &FetchError{StatusCode: resp.StatusCode}
		span.SetStatus(codes.Error, ferr.Error())
		c.log.Warn("dashboard data endpoint returned error",
			zap.String("company_id", companyID),
			zap.String("request_id", reqID),
			zap.Int("status", resp.StatusCode))
		return nil, ferr
	}

	var projects []models.Project
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&projects); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode")
		return nil, fmt.Errorf("decode dashboard data: %w", err)
	}
	if projects == nil {
		projects = []models.Project{}
	}

	span.SetAttributes(attribute.Int("projectdash.projects", len(projects)))
	c.log.Debug("dashboard data loaded",
		zap.String("company_id", companyID),
		zap.Int("projects", len(projects)),
		zap.Duration("took", time.Since(start)))
	return projects, nil
}
