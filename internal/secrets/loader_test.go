package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "key")
	if err := os.WriteFile(file, []byte("  from-file \n"), 0o600); err != nil {
		t.Fatalf("write secret file: %v", err)
	}

	t.Setenv("GOOSE_TEST_SECRET", " from-env ")

	tests := []struct {
		name   string
		src    Source
		expect string
	}{
		{name: "file wins", src: Source{File: file, Value: "inline", Env: "GOOSE_TEST_SECRET"}, expect: "from-file"},
		{name: "inline before env", src: Source{Value: " inline ", Env: "GOOSE_TEST_SECRET"}, expect: "inline"},
		{name: "env as last resort", src: Source{Env: "GOOSE_TEST_SECRET"}, expect: "from-env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("   "), 0o600); err != nil {
		t.Fatalf("write secret file: %v", err)
	}

	if _, err := Load(Source{Name: "adzuna app key", File: empty}); err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Fatalf("expected empty file error, got %v", err)
	}

	if _, err := Load(Source{Name: "gemini api key", File: filepath.Join(dir, "missing")}); err == nil {
		t.Fatal("expected error for missing file")
	}

	_, err := Load(Source{Name: "gemini api key", Env: "GOOSE_TEST_UNSET_SECRET"})
	if err == nil || !strings.Contains(err.Error(), "GOOSE_TEST_UNSET_SECRET") {
		t.Fatalf("expected hint about env variable, got %v", err)
	}
}

func TestOptional(t *testing.T) {
	got, err := Optional(Source{Name: "hh token"})
	if err != nil || got != "" {
		t.Fatalf("expected empty optional secret, got %q, %v", got, err)
	}

	if _, err := Optional(Source{Name: "hh token", File: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatal("expected broken file to be reported")
	}
}
