package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roguegoose-dev/goose-guidance/internal/jobs"
)

// Filter represents a single filtering step applied to merged listings.
// Steps must keep the relative order of the listings they retain.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, listings []jobs.Listing) ([]jobs.Listing, Step, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	ExcludedCompanies []string
	ExcludeFile       string
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Defaults returns the standard steps in the order they run.
func Defaults() []Filter {
	return []Filter{
		NewRequiredFields(),
		NewDuplicateURL(),
		NewExcludedCompanies(),
		NewExcludeFile(),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// apply runs already validated steps. It does not mutate the steps, so it
// may run concurrently.
func apply(ctx context.Context, deps Deps, steps []Filter, listings []jobs.Listing) ([]jobs.Listing, error) {
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}

		next, info, err := step.Apply(ctx, deps, listings)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil && info.Dropped > 0 {
			deps.Logger.Debug("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		listings = next
	}

	return listings, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// Pipeline binds validated steps so the job aggregator can run them after
// every merge.
type Pipeline struct {
	deps  Deps
	steps []Filter
}

// NewPipeline validates the enabled steps once up front.
func NewPipeline(cfg *Config, deps Deps, steps []Filter) (*Pipeline, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	for _, step := range steps {
		if !step.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Info("filter disabled", zap.String("name", step.Name()))
			}
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}
	return &Pipeline{deps: deps, steps: steps}, nil
}

// Filter implements jobs.ListingFilter.
func (p *Pipeline) Filter(ctx context.Context, listings []jobs.Listing) ([]jobs.Listing, error) {
	return apply(ctx, p.deps, p.steps, listings)
}

// Steps returns the statuses of the pipeline steps.
func (p *Pipeline) Steps() []Status {
	return Describe(p.steps)
}

// keep retains the listings for which drop returns false, in order. It
// returns the kept listings and the dropped ones.
func keep(listings []jobs.Listing, drop func(jobs.Listing) bool) ([]jobs.Listing, []jobs.Listing) {
	kept := make([]jobs.Listing, 0, len(listings))
	var dropped []jobs.Listing
	for _, l := range listings {
		if drop(l) {
			dropped = append(dropped, l)
			continue
		}
		kept = append(kept, l)
	}
	return kept, dropped
}

func urls(listings []jobs.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.URL)
	}
	return out
}
