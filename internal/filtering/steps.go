package filtering

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/roguegoose-dev/goose-guidance/internal/jobs"
)

type toggle struct {
	enabled bool
	reason  string
}

func (t *toggle) Disable(reason string) {
	t.enabled = false
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return t.enabled }

type requiredFieldsFilter struct {
	toggle
}

// NewRequiredFields creates a filter that removes listings without a title or URL.
func NewRequiredFields() Filter {
	return &requiredFieldsFilter{toggle{enabled: true}}
}

func (f *requiredFieldsFilter) Name() string { return "required_fields" }

func (f *requiredFieldsFilter) Validate(*Config) error { return nil }

func (f *requiredFieldsFilter) Apply(_ context.Context, deps Deps, listings []jobs.Listing) ([]jobs.Listing, Step, error) {
	initial := len(listings)
	kept, dropped := keep(listings, func(l jobs.Listing) bool { return !l.Valid() })

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Debug("excluding listings without title or url", zap.Int("listings_left", len(kept)))
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *requiredFieldsFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.enabled, Reason: f.reason}
}

type duplicateURLFilter struct {
	toggle
}

// NewDuplicateURL creates a filter that keeps only the first listing for each URL.
func NewDuplicateURL() Filter {
	return &duplicateURLFilter{toggle{enabled: true}}
}

func (f *duplicateURLFilter) Name() string { return "duplicate_url" }

func (f *duplicateURLFilter) Validate(*Config) error { return nil }

func (f *duplicateURLFilter) Apply(_ context.Context, deps Deps, listings []jobs.Listing) ([]jobs.Listing, Step, error) {
	initial := len(listings)
	seen := make(map[string]struct{}, len(listings))

	kept, dropped := keep(listings, func(l jobs.Listing) bool {
		key := strings.TrimSpace(l.URL)
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
		return false
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Debug("excluding duplicate listings",
			zap.Strings("excluded_urls", urls(dropped)),
			zap.Int("listings_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *duplicateURLFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.enabled, Reason: f.reason}
}

type excludedCompaniesFilter struct {
	toggle
	companies map[string]struct{}
}

// NewExcludedCompanies creates a filter that removes listings by companies configured in the config.
func NewExcludedCompanies() Filter {
	return &excludedCompaniesFilter{toggle: toggle{enabled: true}}
}

func (f *excludedCompaniesFilter) Name() string { return "excluded_companies" }

func (f *excludedCompaniesFilter) Validate(cfg *Config) error {
	f.companies = make(map[string]struct{})
	if cfg == nil {
		return nil
	}
	for _, company := range cfg.ExcludedCompanies {
		if key := normalizeCompany(company); key != "" {
			f.companies[key] = struct{}{}
		}
	}
	return nil
}

func (f *excludedCompaniesFilter) Apply(_ context.Context, deps Deps, listings []jobs.Listing) ([]jobs.Listing, Step, error) {
	initial := len(listings)
	if len(f.companies) == 0 {
		return listings, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	kept, dropped := keep(listings, func(l jobs.Listing) bool {
		_, ok := f.companies[normalizeCompany(l.Company)]
		return ok
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Debug("excluding listings by companies",
			zap.Strings("excluded_urls", urls(dropped)),
			zap.Int("listings_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *excludedCompaniesFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.enabled,
		Reason:  f.reason,
		Details: map[string]string{"companies": strconv.Itoa(len(f.companies))},
	}
}

func normalizeCompany(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
