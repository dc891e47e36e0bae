package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobpilot/internal/common"
	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
	"github.com/ternarybob/jobpilot/internal/services/ai"
	"github.com/ternarybob/jobpilot/internal/services/sources"
)

const (
	maxPageBytes = 4 << 20

	// maxPromptRunes bounds the page markdown sent to the model
	maxPromptRunes = 12000
)

var (
	// ErrInvalidURL is returned for anything but an absolute http(s) URL
	ErrInvalidURL = errors.New("invalid job URL")

	// ErrNoListing is returned when neither the model nor the page markup yields a title
	ErrNoListing = errors.New("no job listing found on page")
)

// Service imports a single job posting from its web page
type Service struct {
	ai               interfaces.AIService
	httpClient       *http.Client
	userAgent        string
	descriptionLimit int
	logger           arbor.ILogger
}

// NewService creates an importer. aiService may be nil, which uses the page markup only.
func NewService(aiService interfaces.AIService, cfg *common.SourcesConfig, logger arbor.ILogger) *Service {
	limit := cfg.DescriptionLimit
	if limit <= 0 {
		limit = sources.DefaultDescriptionLimit
	}
	return &Service{
		ai:               aiService,
		httpClient:       &http.Client{Timeout: common.ParseDurationOr(cfg.RequestTimeout, sources.DefaultTimeout)},
		userAgent:        cfg.UserAgent,
		descriptionLimit: limit,
		logger:           logger,
	}
}

// WithHTTPClient replaces the HTTP client
func (s *Service) WithHTTPClient(client *http.Client) *Service {
	s.httpClient = client
	return s
}

// Import fetches pageURL and returns a new listing tagged Imported
func (s *Service) Import(ctx context.Context, pageURL string) (*models.JobListing, error) {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, pageURL)
	}
	pageURL = u.String()

	html, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	doc.Find("script, style, noscript, nav, footer, header, iframe, svg").Remove()

	markdown := s.htmlToMarkdown(doc, pageURL)

	var job *models.JobListing
	if s.ai != nil {
		job, err = s.ai.ExtractJob(ctx, pageURL, truncateRunes(markdown, maxPromptRunes))
		if err != nil && !errors.Is(err, ai.ErrNoResult) {
			return nil, fmt.Errorf("failed to extract job: %w", err)
		}
	}
	if job == nil {
		s.logger.Debug().Str("url", pageURL).Msg("Using page markup for imported job")
		job = fromMarkup(doc, u, markdown)
	}
	if strings.TrimSpace(job.Title) == "" {
		return nil, ErrNoListing
	}

	listing := newImported(job, pageURL, u.Hostname())
	listing.Description = truncateRunes(strings.TrimSpace(listing.Description), s.descriptionLimit)

	s.logger.Info().
		Str("url", pageURL).
		Str("title", listing.Title).
		Str("company", listing.Company).
		Msg("Job imported")

	return &listing, nil
}

func (s *Service) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}
	return string(body), nil
}

// htmlToMarkdown converts the main content, falling back to plain text when conversion fails
func (s *Service) htmlToMarkdown(doc *goquery.Document, baseURL string) string {
	content := doc.Find("main, article, [role=main]").First()
	if content.Length() == 0 {
		content = doc.Find("body")
	}

	converter := md.NewConverter(baseURL, true, nil)
	converted := converter.Convert(content)
	if strings.TrimSpace(converted) == "" {
		s.logger.Warn().Str("url", baseURL).Msg("HTML to markdown conversion produced empty output, using text")
		return sources.CleanText(content.Text(), 0)
	}
	return converted
}

// fromMarkup takes the title from og:title, h1 or <title> and the company from og:site_name or the host
func fromMarkup(doc *goquery.Document, u *url.URL, markdown string) *models.JobListing {
	title := firstNonEmpty(
		metaContent(doc, "og:title"),
		doc.Find("h1").First().Text(),
		doc.Find("title").First().Text(),
	)
	company := firstNonEmpty(
		metaContent(doc, "og:site_name"),
		strings.TrimPrefix(u.Hostname(), "www."),
	)
	return &models.JobListing{
		Title:       sources.CleanText(title, 0),
		Company:     sources.CleanText(company, 0),
		Description: markdown,
	}
}

func newImported(job *models.JobListing, pageURL, host string) models.JobListing {
	listing := job.Clone()
	listing.ID = common.NewJobID()
	listing.URL = pageURL
	listing.Source = models.SourceImported
	listing.Status = models.JobStatusNew
	listing.MatchScore = nil
	if listing.Company == "" {
		listing.Company = strings.TrimPrefix(host, "www.")
	}
	if listing.Location == "" {
		listing.Location = "Unspecified"
	}
	now := time.Now().UTC()
	listing.CreatedAt = now
	listing.UpdatedAt = now
	return listing
}

func metaContent(doc *goquery.Document, property string) string {
	v, _ := doc.Find(`meta[property="` + property + `"]`).Attr("content")
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit])) + "..."
}
