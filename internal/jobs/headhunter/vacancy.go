package headhunter

import (
	"fmt"
	"strings"
	"time"

	"github.com/roguegoose-dev/goose-guidance/internal/jobs"
)

const publishedAtLayout = "2006-01-02T15:04:05-0700"

type Vacancies struct {
	Items []*Vacancy
}

type Vacancy struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Area struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"area,omitempty"`
	Salary struct {
		From     int    `json:"from,omitempty"`
		To       int    `json:"to,omitempty"`
		Currency string `json:"currency,omitempty"`
	} `json:"salary,omitempty"`
	Employer struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"employer,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
	Archived     bool   `json:"archived,omitempty"`
	Snippet      struct {
		Requirement    string `json:"requirement,omitempty"`
		Responsibility string `json:"responsibility,omitempty"`
	} `json:"snippet,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// Listing normalizes the vacancy. Archived vacancies come back without a URL
// so they are dropped like any other incomplete listing.
func (va *Vacancy) Listing() jobs.Listing {
	l := jobs.Listing{
		Title:    strings.TrimSpace(va.Name),
		Company:  strings.TrimSpace(va.Employer.Name),
		Location: strings.TrimSpace(va.Area.Name),
		Salary:   va.salaryText(),
		Summary:  va.summary(),
		PostedAt: parsePublishedAt(va.PublishedAt),
		URL:      strings.TrimSpace(va.AlternateURL),
		Source:   jobs.SourceHeadhunter,
	}
	if va.Archived {
		l.URL = ""
	}
	return l
}

func (va *Vacancy) salaryText() string {
	from, to := va.Salary.From, va.Salary.To
	currency := strings.TrimSpace(va.Salary.Currency)

	var text string
	switch {
	case from > 0 && to > 0 && from != to:
		text = fmt.Sprintf("%d-%d", from, to)
	case from > 0 && to > 0:
		text = fmt.Sprintf("%d", from)
	case from > 0:
		text = fmt.Sprintf("from %d", from)
	case to > 0:
		text = fmt.Sprintf("up to %d", to)
	default:
		return ""
	}

	if currency != "" {
		text += " " + currency
	}
	return text
}

// snippet fields carry <highlighttext> markup around matched words.
func (va *Vacancy) summary() string {
	parts := make([]string, 0, 2)
	for _, s := range []string{va.Snippet.Requirement, va.Snippet.Responsibility} {
		if text := jobs.PlainText(s); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func parsePublishedAt(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(publishedAtLayout, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
