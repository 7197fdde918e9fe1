// Package adzuna searches the Adzuna job board API.
package adzuna

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
	DefaultBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	DefaultCountry  = "us"
	DefaultPageSize = 20

	httpTimeout  = 15 * time.Second
	maxErrorBody = 512
)

// categoryTags maps the internal taxonomy onto Adzuna category tags. Several
// internal categories share one tag.
var categoryTags = map[jobs.Category]string{
	jobs.CategorySoftware:        "it-jobs",
	jobs.CategoryData:            "it-jobs",
	jobs.CategoryITSupport:       "it-jobs",
	jobs.CategoryHealthcare:      "healthcare-nursing-jobs",
	jobs.CategoryNursing:         "healthcare-nursing-jobs",
	jobs.CategoryFinance:         "accounting-finance-jobs",
	jobs.CategoryAccounting:      "accounting-finance-jobs",
	jobs.CategoryTrades:          "trade-construction-jobs",
	jobs.CategoryConstruction:    "trade-construction-jobs",
	jobs.CategoryLogistics:       "logistics-warehouse-jobs",
	jobs.CategoryWarehouse:       "logistics-warehouse-jobs",
	jobs.CategoryDesign:          "creative-design-jobs",
	jobs.CategoryMarketing:       "pr-advertising-marketing-jobs",
	jobs.CategorySales:           "sales-jobs",
	jobs.CategoryCustomerService: "customer-services-jobs",
	jobs.CategoryEducation:       "teaching-jobs",
	jobs.CategoryEngineering:     "engineering-jobs",
	jobs.CategoryManufacturing:   "manufacturing-jobs",
	jobs.CategoryHospitality:     "hospitality-catering-jobs",
	jobs.CategoryRetail:          "retail-jobs",
	jobs.CategoryAdmin:           "admin-jobs",
	jobs.CategoryLegal:           "legal-jobs",
	jobs.CategoryHR:              "hr-jobs",
	jobs.CategoryScience:         "scientific-qa-jobs",
	jobs.CategorySocialWork:      "social-work-jobs",
}

var sortTokens = map[jobs.Sort]string{
	jobs.SortNewest:    "date",
	jobs.SortSalary:    "salary",
	jobs.SortRelevance: "relevance",
}

// CategoryTag returns the Adzuna tag for c. ok is false when c has no
// mapping, in which case no category parameter is sent.
func CategoryTag(c jobs.Category) (string, bool) {
	tag, ok := categoryTags[c]
	return tag, ok
}

// SortToken returns the Adzuna sort_by value for s.
func SortToken(s jobs.Sort) (string, bool) {
	token, ok := sortTokens[s]
	return token, ok
}

// Config holds the Adzuna credentials and request shape.
type Config struct {
	AppID    string
	AppKey   string
	Country  string
	BaseURL  string
	PageSize int
}

// Client implements jobs.Provider for Adzuna.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New builds an Adzuna client. httpClient may be nil.
func New(cfg Config, httpClient *http.Client, log *zap.Logger) (*Client, error) {
	cfg.AppID = strings.TrimSpace(cfg.AppID)
	cfg.AppKey = strings.TrimSpace(cfg.AppKey)
	if cfg.AppID == "" || cfg.AppKey == "" {
		return nil, errors.New("adzuna app id and app key are required")
	}
	if cfg.Country = strings.ToLower(strings.TrimSpace(cfg.Country)); cfg.Country == "" {
		cfg.Country = DefaultCountry
	}
	if cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
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
		logger: logger.WithCommonFields(log, string(jobs.SourceAdzuna), ""),
	}, nil
}

func (c *Client) Name() jobs.Source { return jobs.SourceAdzuna }

// adzunaResponse mirrors the top-level Adzuna JSON response.
type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

// adzunaResult mirrors a single Adzuna job listing.
type adzunaResult struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Company     adzunaCompany  `json:"company"`
	Location    adzunaLocation `json:"location"`
	SalaryMin   float64        `json:"salary_min"`
	SalaryMax   float64        `json:"salary_max"`
	RedirectURL string         `json:"redirect_url"`
	Created     string         `json:"created"`
}

type adzunaCompany struct {
	DisplayName string `json:"display_name"`
}

type adzunaLocation struct {
	DisplayName string `json:"display_name"`
}

// Search fetches the first page of results for q.
func (c *Client) Search(ctx context.Context, q jobs.Query) ([]jobs.Listing, error) {
	endpoint := fmt.Sprintf("%s/%s/search/1", c.cfg.BaseURL, url.PathEscape(c.cfg.Country))

	params := url.Values{}
	params.Set("app_id", c.cfg.AppID)
	params.Set("app_key", c.cfg.AppKey)
	params.Set("results_per_page", strconv.Itoa(c.cfg.PageSize))
	params.Set("content-type", "application/json")
	if what := strings.TrimSpace(q.Keywords); what != "" {
		params.Set("what", what)
	}
	if where := strings.TrimSpace(q.Location); where != "" {
		params.Set("where", where)
	}
	if tag, ok := CategoryTag(q.Category); ok {
		params.Set("category", tag)
	}
	if token, ok := SortToken(q.Sort); ok {
		params.Set("sort_by", token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("make request", zap.String("endpoint", endpoint))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("adzuna request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read adzuna body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &failure.UpstreamError{
			Provider: string(jobs.SourceAdzuna),
			Status:   resp.StatusCode,
			Body:     logger.TruncateForLog(string(body), maxErrorBody),
		}
	}

	var apiResp adzunaResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, &failure.MalformedResponse{Provider: string(jobs.SourceAdzuna), Err: err}
	}

	listings := make([]jobs.Listing, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		l := jobs.Listing{
			Title:    jobs.PlainText(r.Title),
			Company:  strings.TrimSpace(r.Company.DisplayName),
			Location: strings.TrimSpace(r.Location.DisplayName),
			Salary:   formatSalary(r.SalaryMin, r.SalaryMax),
			Summary:  jobs.PlainText(r.Description),
			PostedAt: parseCreated(r.Created),
			URL:      strings.TrimSpace(r.RedirectURL),
			Source:   jobs.SourceAdzuna,
		}
		if !l.Valid() {
			continue
		}
		listings = append(listings, l)
	}

	return listings, nil
}

func parseCreated(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func formatSalary(lo, hi float64) string {
	switch {
	case lo > 0 && hi > 0 && lo == hi:
		return formatAmount(lo)
	case lo > 0 && hi > 0:
		return fmt.Sprintf("%s-%s", formatAmount(lo), formatAmount(hi))
	case lo > 0:
		return formatAmount(lo) + "+"
	case hi > 0:
		return "up to " + formatAmount(hi)
	default:
		return ""
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}
