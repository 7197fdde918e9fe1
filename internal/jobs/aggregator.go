package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roguegoose-dev/goose-guidance/internal/failure"
	"github.com/roguegoose-dev/goose-guidance/internal/logger"
)

// DefaultProviderTimeout bounds a single provider call.
const DefaultProviderTimeout = 8 * time.Second

// KnownSources lists every provider this service can talk to, enabled or not.
var KnownSources = []Source{SourceAdzuna, SourceCareerjet, SourceHeadhunter}

// Provider searches one external job board. Implementations return an empty
// slice, not an error, when the board has no matches.
type Provider interface {
	Name() Source
	Search(ctx context.Context, q Query) ([]Listing, error)
}

// ListingFilter post-processes merged listings. It must keep the order of
// the listings it retains.
type ListingFilter interface {
	Filter(ctx context.Context, listings []Listing) ([]Listing, error)
}

// Outcome is what one provider contributed to a search. Exactly one of
// Listings and Err is meaningful.
type Outcome struct {
	Source   Source
	Listings []Listing
	Err      error
	Duration time.Duration
}

// OK reports whether the provider answered.
func (o Outcome) OK() bool { return o.Err == nil }

// Result is a merged search result with a per-provider report.
type Result struct {
	Listings []Listing
	Outcomes []Outcome
}

// Options tune an Aggregator.
type Options struct {
	ProviderTimeout time.Duration
	Filter          ListingFilter
}

// Aggregator fans a query out to the enabled providers and merges what comes
// back. It is safe for concurrent use.
type Aggregator struct {
	providers []Provider
	timeout   time.Duration
	filter    ListingFilter
	logger    *zap.Logger
}

// NewAggregator registers providers in the given order. That order breaks
// ties when merged listings are sorted.
func NewAggregator(providers []Provider, opts Options, log *zap.Logger) (*Aggregator, error) {
	seen := make(map[Source]struct{}, len(providers))
	for _, p := range providers {
		if p == nil {
			return nil, errors.New("nil job provider")
		}
		if _, ok := seen[p.Name()]; ok {
			return nil, fmt.Errorf("duplicate job provider %q", p.Name())
		}
		seen[p.Name()] = struct{}{}
	}

	timeout := opts.ProviderTimeout
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}

	return &Aggregator{
		providers: providers,
		timeout:   timeout,
		filter:    opts.Filter,
		logger:    logger.WithFields(log),
	}, nil
}

// Sources lists the enabled providers in registration order.
func (a *Aggregator) Sources() []Source {
	out := make([]Source, 0, len(a.providers))
	for _, p := range a.providers {
		out = append(out, p.Name())
	}
	return out
}

// Search queries the selected providers in parallel and waits for all of
// them. A provider that fails or times out contributes nothing; the search
// itself only fails on invalid input.
func (a *Aggregator) Search(ctx context.Context, q Query) (*Result, error) {
	selected, err := a.selectProviders(q.Source)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(selected))

	g, gCtx := errgroup.WithContext(ctx)
	for i, p := range selected {
		g.Go(func() error {
			outcomes[i] = a.call(gCtx, p, q)
			return nil
		})
	}
	// Goroutines never return an error.
	_ = g.Wait()

	for _, o := range outcomes {
		if o.OK() {
			a.logger.Debug("job provider answered",
				zap.String(logger.FieldProvider, string(o.Source)),
				zap.Int("listings", len(o.Listings)),
				zap.Duration("duration", o.Duration),
			)
			continue
		}
		a.logger.Warn("job provider failed",
			zap.String(logger.FieldProvider, string(o.Source)),
			zap.Duration("duration", o.Duration),
			zap.Error(o.Err),
		)
	}

	listings := merge(outcomes, len(selected) > 1)

	if a.filter != nil {
		listings, err = a.filter.Filter(ctx, listings)
		if err != nil {
			return nil, fmt.Errorf("filter listings: %w", err)
		}
	}

	return &Result{Listings: listings, Outcomes: outcomes}, nil
}

func (a *Aggregator) call(ctx context.Context, p Provider, q Query) Outcome {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	started := time.Now()
	listings, err := p.Search(ctx, q)
	outcome := Outcome{Source: p.Name(), Duration: time.Since(started)}
	if err != nil {
		outcome.Err = err
		return outcome
	}

	outcome.Listings = make([]Listing, 0, len(listings))
	for _, l := range listings {
		if l.Source == "" {
			l.Source = p.Name()
		}
		outcome.Listings = append(outcome.Listings, l)
	}

	return outcome
}

func (a *Aggregator) selectProviders(source Source) ([]Provider, error) {
	source = Source(strings.ToLower(strings.TrimSpace(string(source))))
	if source == "" || source == SourceAll {
		return a.providers, nil
	}

	for _, p := range a.providers {
		if p.Name() == source {
			return []Provider{p}, nil
		}
	}

	for _, known := range KnownSources {
		if known == source {
			return nil, failure.Invalid("source", "provider %q is not enabled", source)
		}
	}

	return nil, failure.Invalid("source", "unknown provider %q", source)
}

// merge concatenates listings in provider order. With several providers the
// result is sorted newest first; listings without a date go last and ties
// keep their provider order. A single provider keeps its native order.
func merge(outcomes []Outcome, sortByDate bool) []Listing {
	var listings []Listing
	for _, o := range outcomes {
		if o.OK() {
			listings = append(listings, o.Listings...)
		}
	}
	if listings == nil {
		listings = []Listing{}
	}

	if sortByDate {
		sort.SliceStable(listings, func(i, j int) bool {
			return postedAfter(listings[i].PostedAt, listings[j].PostedAt)
		})
	}

	return listings
}

func postedAfter(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.After(*b)
	}
}
