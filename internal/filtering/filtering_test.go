package filtering

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roguegoose-dev/goose-guidance/internal/jobs"
)

func listing(title, company, url string) jobs.Listing {
	return jobs.Listing{Title: title, Company: company, URL: url, Source: jobs.SourceAdzuna}
}

func titles(listings []jobs.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.Title)
	}
	return out
}

func assertTitles(t *testing.T, got []jobs.Listing, expect ...string) {
	t.Helper()
	names := titles(got)
	if len(names) != len(expect) {
		t.Fatalf("expected %v, got %v", expect, names)
	}
	for i := range expect {
		if names[i] != expect[i] {
			t.Fatalf("expected %v, got %v", expect, names)
		}
	}
}

func TestRequiredFields(t *testing.T) {
	t.Parallel()

	in := []jobs.Listing{
		listing("ok", "", "https://x/1"),
		listing("", "", "https://x/2"),
		listing("no url", "", " "),
		listing("also ok", "", "https://x/3"),
	}

	out, step, err := NewRequiredFields().Apply(context.Background(), Deps{}, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTitles(t, out, "ok", "also ok")
	if step != (Step{Initial: 4, Dropped: 2, Left: 2}) {
		t.Fatalf("unexpected step: %+v", step)
	}
}

func TestDuplicateURLKeepsFirst(t *testing.T) {
	t.Parallel()

	in := []jobs.Listing{
		listing("first", "", "https://x/1"),
		listing("other", "", "https://x/2"),
		listing("second", "", "https://x/1"),
	}

	out, step, _ := NewDuplicateURL().Apply(context.Background(), Deps{}, in)
	assertTitles(t, out, "first", "other")
	if step.Dropped != 1 {
		t.Fatalf("expected one duplicate dropped, got %+v", step)
	}
}

func TestExcludedCompanies(t *testing.T) {
	t.Parallel()

	f := NewExcludedCompanies()
	if err := f.Validate(&Config{ExcludedCompanies: []string{"  Acme   Corp ", ""}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := []jobs.Listing{
		listing("a", "ACME corp", "https://x/1"),
		listing("b", "Initech", "https://x/2"),
	}

	out, _, _ := f.Apply(context.Background(), Deps{}, in)
	assertTitles(t, out, "b")
}

func TestExcludeFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "excluded.txt")
	content := "# dismissed listings\nhttps://x/2\n\n  https://x/3  \n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write exclude file: %v", err)
	}

	f := NewExcludeFile()
	if err := f.Validate(&Config{ExcludeFile: path}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := []jobs.Listing{
		listing("a", "", "https://x/1"),
		listing("b", "", "https://x/2"),
		listing("c", "", "https://x/3"),
	}

	out, step, _ := f.Apply(context.Background(), Deps{}, in)
	assertTitles(t, out, "a")
	if step.Dropped != 2 {
		t.Fatalf("expected two dropped, got %+v", step)
	}

	if err := NewExcludeFile().Validate(&Config{ExcludeFile: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatal("expected missing exclude file to fail validation")
	}
}

func TestPipelineRunsStepsInOrder(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	steps := Defaults()
	DisableByName(steps, "exclude_file", "not configured")

	p, err := NewPipeline(&Config{ExcludedCompanies: []string{"Initech"}}, Deps{Logger: zap.New(core)}, steps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := []jobs.Listing{
		listing("keep 1", "Acme", "https://x/1"),
		listing("dup", "Acme", "https://x/1"),
		listing("initech", "Initech", "https://x/2"),
		listing("", "Acme", "https://x/3"),
		listing("keep 2", "Globex", "https://x/4"),
	}

	out, err := p.Filter(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTitles(t, out, "keep 1", "keep 2")

	if logs.FilterMessage("filter step").Len() != 3 {
		t.Fatalf("expected three filter step entries, got %d", logs.FilterMessage("filter step").Len())
	}
	if logs.FilterMessage("filter disabled").Len() != 1 {
		t.Fatalf("expected disabled filter to be logged")
	}

	statuses := p.Steps()
	if len(statuses) != 4 || statuses[3].Enabled || statuses[3].Reason != "not configured" {
		t.Fatalf("unexpected statuses: %+v", statuses)
	}
}
