// Package headhunter searches vacancies on HeadHunter (hh.ru).
package headhunter

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/roguegoose-dev/goose-guidance/internal/jobs"
	"github.com/roguegoose-dev/goose-guidance/internal/logger"
)

const (
	DefaultAPIURL    = "https://api.hh.ru"
	DefaultUserAgent = "goose-guidance/1.0 (support@roguegoose.dev)"
	DefaultPerPage   = 20
)

// Config holds the hh.ru client settings. Token is optional; anonymous
// search works without it.
type Config struct {
	Token     string
	APIURL    string
	UserAgent string
	PerPage   int
}

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	perPage    int
}

func New(cfg Config, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	apiURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	perPage := cfg.PerPage
	if perPage <= 0 || perPage > maxPerPage {
		perPage = DefaultPerPage
	}

	return &Client{
		token:      strings.TrimSpace(cfg.Token),
		logger:     logger.WithCommonFields(log, string(jobs.SourceHeadhunter), ""),
		HTTPClient: httpClient,
		UserAgent:  userAgent,
		APIURL:     apiURL,
		perPage:    perPage,
	}
}

func (c *Client) Name() jobs.Source { return jobs.SourceHeadhunter }

// Search runs a vacancy search. hh.ru has no category filter matching the
// internal taxonomy, so the category is ignored.
func (c *Client) Search(ctx context.Context, q jobs.Query) ([]jobs.Listing, error) {
	vacancies, err := c.search(ctx, paramsFromQuery(q, c.perPage))
	if err != nil {
		return nil, err
	}

	listings := make([]jobs.Listing, 0, len(vacancies.Items))
	for _, v := range vacancies.Items {
		l := v.Listing()
		if !l.Valid() {
			continue
		}
		listings = append(listings, l)
	}

	return listings, nil
}
