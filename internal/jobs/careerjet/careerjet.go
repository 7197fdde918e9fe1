// Package careerjet searches the Careerjet job search API.
package careerjet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/roguegoose-dev/goose-guidance/internal/failure"
	"github.com/roguegoose-dev/goose-guidance/internal/jobs"
	"github.com/roguegoose-dev/goose-guidance/internal/logger"
)

const (
	DefaultBaseURL  = "https://search.api.careerjet.net/v4"
	DefaultLocale   = "en_US"
	DefaultPageSize = 20
	DefaultReferer  = "https://roguegoose.dev/jobs"

	typeJobs     = "JOBS"
	httpTimeout  = 15 * time.Second
	maxErrorBody = 512
)

var sortTokens = map[jobs.Sort]string{
	jobs.SortNewest:    "date",
	jobs.SortSalary:    "salary",
	jobs.SortRelevance: "relevance",
}

// SortToken returns the Careerjet sort value for s.
func SortToken(s jobs.Sort) (string, bool) {
	token, ok := sortTokens[s]
	return token, ok
}

// Config holds the Careerjet credentials and request shape.
type Config struct {
	APIKey   string
	Locale   string
	BaseURL  string
	Referer  string
	PageSize int
}

// Client implements jobs.Provider for Careerjet. Careerjet requires the end
// user's IP address and user agent on every query; they are read from the
// request context.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New builds a Careerjet client. httpClient may be nil.
func New(cfg Config, httpClient *http.Client, log *zap.Logger) (*Client, error) {
	if cfg.APIKey = strings.TrimSpace(cfg.APIKey); cfg.APIKey == "" {
		return nil, errors.New("careerjet api key is required")
	}
	if cfg.Locale = strings.TrimSpace(cfg.Locale); cfg.Locale == "" {
		cfg.Locale = DefaultLocale
	}
	if cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Referer = strings.TrimSpace(cfg.Referer); cfg.Referer == "" {
		cfg.Referer = DefaultReferer
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: httpTimeout}
	}

	return &Client{
		cfg:    cfg,
		http:   httpClient,
		logger: logger.WithCommonFields(log, string(jobs.SourceCareerjet), ""),
	}, nil
}

func (c *Client) Name() jobs.Source { return jobs.SourceCareerjet }

type queryResponse struct {
	Type    string `json:"type"`
	Hits    int    `json:"hits"`
	Message string `json:"message"`
	Jobs    []job  `json:"jobs"`
}

type job struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Locations   string `json:"locations"`
	Salary      string `json:"salary"`
	Site        string `json:"site"`
	URL         string `json:"url"`
}

// Search runs one query against Careerjet. The category of q is ignored since
// Careerjet has no category filter.
func (c *Client) Search(ctx context.Context, q jobs.Query) ([]jobs.Listing, error) {
	client := jobs.ClientInfoFrom(ctx)

	params := url.Values{}
	params.Set("locale_code", c.cfg.Locale)
	params.Set("keywords", strings.TrimSpace(q.Keywords))
	params.Set("location", strings.TrimSpace(q.Location))
	params.Set("page_size", strconv.Itoa(c.cfg.PageSize))
	params.Set("page", "1")
	if token, ok := SortToken(q.Sort); ok {
		params.Set("sort", token)
	}
	params.Set("user_ip", client.IP)
	params.Set("user_agent", client.UserAgent)

	endpoint := c.cfg.BaseURL + "/query"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.cfg.APIKey, "")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", c.cfg.Referer)

	c.logger.Debug("make request", zap.String("endpoint", endpoint))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("careerjet request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read careerjet body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &failure.UpstreamError{
			Provider: string(jobs.SourceCareerjet),
			Status:   resp.StatusCode,
			Body:     logger.TruncateForLog(string(body), maxErrorBody),
		}
	}

	var parsed queryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &failure.MalformedResponse{Provider: string(jobs.SourceCareerjet), Err: err}
	}

	// LOCATIONS (ambiguous location) and similar answers carry no jobs.
	if !strings.EqualFold(parsed.Type, typeJobs) {
		c.logger.Debug("careerjet returned no jobs", zap.String("type", parsed.Type), zap.String("message", parsed.Message))
		return []jobs.Listing{}, nil
	}

	listings := make([]jobs.Listing, 0, len(parsed.Jobs))
	for _, j := range parsed.Jobs {
		l := jobs.Listing{
			Title:    jobs.PlainText(j.Title),
			Company:  strings.TrimSpace(j.Company),
			Location: strings.TrimSpace(j.Locations),
			Salary:   strings.TrimSpace(j.Salary),
			Summary:  jobs.PlainText(j.Description),
			PostedAt: parseDate(j.Date),
			URL:      strings.TrimSpace(j.URL),
			Source:   jobs.SourceCareerjet,
		}
		if !l.Valid() {
			continue
		}
		listings = append(listings, l)
	}

	return listings, nil
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC1123, time.RFC1123Z} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
