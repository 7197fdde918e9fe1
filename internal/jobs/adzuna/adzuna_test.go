package adzuna

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/roguegoose-dev/goose-guidance/internal/failure"
	"github.com/roguegoose-dev/goose-guidance/internal/jobs"
)

const sampleResponse = `{
  "count": 3,
  "results": [
    {
      "id": "1",
      "title": "<strong>Go</strong> Developer",
      "description": "Build <em>services</em>",
      "company": {"display_name": "Acme"},
      "location": {"display_name": "Austin, Texas"},
      "salary_min": 90000,
      "salary_max": 120000,
      "redirect_url": "https://adzuna.example/1",
      "created": "2025-01-02T10:00:00Z"
    },
    {
      "id": "2",
      "title": "No link",
      "redirect_url": ""
    },
    {
      "id": "3",
      "title": "Warehouse Lead",
      "company": {},
      "location": {},
      "redirect_url": "https://adzuna.example/3",
      "created": "not a date"
    }
  ]
}`

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(Config{AppID: "id", AppKey: "key", BaseURL: srv.URL}, srv.Client(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestSearchBuildsRequestAndNormalizes(t *testing.T) {
	var got url.Values
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		got = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	listings, err := c.Search(context.Background(), jobs.Query{
		Keywords: "golang",
		Location: "Austin",
		Category: jobs.CategorySoftware,
		Sort:     jobs.SortNewest,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if path != "/us/search/1" {
		t.Fatalf("unexpected path: %s", path)
	}
	expectParams := map[string]string{
		"app_id":           "id",
		"app_key":          "key",
		"results_per_page": "20",
		"what":             "golang",
		"where":            "Austin",
		"category":         "it-jobs",
		"sort_by":          "date",
	}
	for key, value := range expectParams {
		if got.Get(key) != value {
			t.Fatalf("expected %s=%q, got %q", key, value, got.Get(key))
		}
	}

	if len(listings) != 2 {
		t.Fatalf("expected listings without url to be dropped, got %d", len(listings))
	}

	first := listings[0]
	if first.Title != "Go Developer" || first.Company != "Acme" || first.Location != "Austin, Texas" {
		t.Fatalf("unexpected listing: %+v", first)
	}
	if first.Salary != "90000-120000" || first.Summary != "Build services" {
		t.Fatalf("unexpected salary or summary: %+v", first)
	}
	if first.PostedAt == nil || !first.PostedAt.Equal(time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected posted at: %v", first.PostedAt)
	}
	if first.Source != jobs.SourceAdzuna {
		t.Fatalf("unexpected source: %s", first.Source)
	}

	second := listings[1]
	if second.Company != "" || second.Salary != "" || second.PostedAt != nil {
		t.Fatalf("expected absent fields to stay empty, got %+v", second)
	}
}

func TestSearchOmitsUnmappedParameters(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	listings, err := newTestClient(t, srv).Search(context.Background(), jobs.Query{Category: "astronaut", Sort: jobs.SortDefault})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 0 {
		t.Fatalf("expected no listings, got %d", len(listings))
	}
	for _, key := range []string{"category", "sort_by", "what", "where"} {
		if got.Has(key) {
			t.Fatalf("expected %s to be omitted, got %q", key, got.Get(key))
		}
	}
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		checkFn func(error) bool
	}{
		{
			name:   "upstream status",
			status: http.StatusUnauthorized,
			body:   `{"exception":"AUTH_FAIL"}`,
			checkFn: func(err error) bool {
				var upstream *failure.UpstreamError
				return errors.As(err, &upstream) && upstream.Status == http.StatusUnauthorized
			},
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `{"results": [`,
			checkFn: func(err error) bool {
				var malformed *failure.MalformedResponse
				return errors.As(err, &malformed)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv).Search(context.Background(), jobs.Query{})
			if !tt.checkFn(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCategoryMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		category jobs.Category
		tag      string
		ok       bool
	}{
		{category: jobs.CategorySoftware, tag: "it-jobs", ok: true},
		{category: jobs.CategoryData, tag: "it-jobs", ok: true},
		{category: jobs.CategoryNursing, tag: "healthcare-nursing-jobs", ok: true},
		{category: jobs.CategoryWarehouse, tag: "logistics-warehouse-jobs", ok: true},
		{category: jobs.ParseCategory(" Marketing "), tag: "pr-advertising-marketing-jobs", ok: true},
		{category: "astronaut", ok: false},
		{category: "", ok: false},
	}

	for _, tt := range tests {
		tag, ok := CategoryTag(tt.category)
		if tag != tt.tag || ok != tt.ok {
			t.Fatalf("%q: expected (%q, %v), got (%q, %v)", tt.category, tt.tag, tt.ok, tag, ok)
		}
	}
}

func TestSortMapping(t *testing.T) {
	t.Parallel()

	tests := map[jobs.Sort]string{
		jobs.SortNewest:    "date",
		jobs.SortSalary:    "salary",
		jobs.SortRelevance: "relevance",
	}
	for sort, expect := range tests {
		if got, ok := SortToken(sort); !ok || got != expect {
			t.Fatalf("%s: expected %q, got %q", sort, expect, got)
		}
	}
	if _, ok := SortToken(jobs.SortDefault); ok {
		t.Fatal("expected default sort to send no parameter")
	}
}

func TestFormatSalary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		lo, hi float64
		expect string
	}{
		{lo: 50000, hi: 70000, expect: "50000-70000"},
		{lo: 60000, hi: 60000, expect: "60000"},
		{lo: 40000, expect: "40000+"},
		{hi: 80000, expect: "up to 80000"},
		{expect: ""},
	}
	for _, tt := range tests {
		if got := formatSalary(tt.lo, tt.hi); got != tt.expect {
			t.Fatalf("(%v, %v): expected %q, got %q", tt.lo, tt.hi, tt.expect, got)
		}
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(Config{AppID: "id"}, nil, nil); err == nil {
		t.Fatal("expected missing app key to fail")
	}
}
