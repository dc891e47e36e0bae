package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/jobpilot/internal/common"
	"github.com/ternarybob/jobpilot/internal/models"
)

const (
	// DefaultTimeout is the default HTTP timeout for one source request
	DefaultTimeout = 15 * time.Second

	// DefaultRequestSpacing is the default minimum gap between requests to one source
	DefaultRequestSpacing = time.Second

	// maxBodyBytes bounds how much of a response is read
	maxBodyBytes = 8 << 20
)

// APIError is returned when a job board answers with a non-200 status
type APIError struct {
	Source     string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Source, e.StatusCode, e.Message)
}

// Option configures an httpSource
type Option func(*httpSource)

// WithBaseURL points a source at a different endpoint
func WithBaseURL(baseURL string) Option {
	return func(s *httpSource) {
		s.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(s *httpSource) {
		s.httpClient = client
	}
}

// WithRequestSpacing sets the minimum gap between requests; zero disables limiting
func WithRequestSpacing(every time.Duration) Option {
	return func(s *httpSource) {
		if every <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Every(every), 1)
	}
}

// WithUserAgent sets the User-Agent header sent to job boards
func WithUserAgent(ua string) Option {
	return func(s *httpSource) {
		s.userAgent = ua
	}
}

// httpSource is the shared transport of the job board adapters
type httpSource struct {
	name       string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

func newHTTPSource(name, baseURL string, logger arbor.ILogger, opts ...Option) httpSource {
	s := httpSource{
		name:       name,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(DefaultRequestSpacing), 1),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// OptionsFromConfig translates [sources] settings into adapter options
func OptionsFromConfig(cfg *common.SourcesConfig) []Option {
	opts := []Option{
		WithHTTPClient(&http.Client{Timeout: common.ParseDurationOr(cfg.RequestTimeout, DefaultTimeout)}),
		WithRequestSpacing(common.ParseDurationOr(cfg.RateLimit, DefaultRequestSpacing)),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, WithUserAgent(cfg.UserAgent))
	}
	return opts
}

// Name returns the provenance tag of the source
func (s *httpSource) Name() string {
	return s.name
}

// getJSON waits on the limiter, performs a GET and decodes the JSON body into result
func (s *httpSource) getJSON(ctx context.Context, params url.Values, result interface{}) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s rate limiter: %w", s.name, err)
	}

	reqURL := s.baseURL
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(reqURL, "?") {
			sep = "&"
		}
		reqURL += sep + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	s.logger.Debug().
		Str("source", s.name).
		Str("url", reqURL).
		Msg("Job board request")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch from %s: %w", s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Source: s.name, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(result); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", s.name, err)
	}
	return nil
}

// parseTime tries the date layouts job boards are known to use
func parseTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// newListing builds a queue-ready listing with identity and timestamps
func newListing(source string) models.JobListing {
	now := time.Now().UTC()
	return models.JobListing{
		ID:        common.NewJobID(),
		Source:    source,
		Status:    models.JobStatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
