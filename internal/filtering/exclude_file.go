package filtering

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/roguegoose-dev/goose-guidance/internal/jobs"
)

type excludeFileFilter struct {
	toggle
	path string
	urls map[string]struct{}
}

// NewExcludeFile creates a filter that removes listings whose URL is listed in
// the exclude file, one URL per line. Lines starting with # are ignored.
func NewExcludeFile() Filter {
	return &excludeFileFilter{toggle: toggle{enabled: true}}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	f.urls = nil
	if cfg == nil || strings.TrimSpace(cfg.ExcludeFile) == "" {
		return nil
	}

	f.path = strings.TrimSpace(cfg.ExcludeFile)
	urls, err := readExcludeFile(f.path)
	if err != nil {
		return fmt.Errorf("getting excluded urls from file: %w", err)
	}
	f.urls = urls
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, listings []jobs.Listing) ([]jobs.Listing, Step, error) {
	initial := len(listings)
	if len(f.urls) == 0 {
		return listings, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	kept, dropped := keep(listings, func(l jobs.Listing) bool {
		_, ok := f.urls[strings.TrimSpace(l.URL)]
		return ok
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Debug("excluding listings from exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_urls", urls(dropped)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *excludeFileFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.enabled,
		Reason:  f.reason,
		Details: map[string]string{
			"path": f.path,
			"urls": strconv.Itoa(len(f.urls)),
		},
	}
}

func readExcludeFile(path string) (map[string]struct{}, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	urls := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return urls, nil
}
