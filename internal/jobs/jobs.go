// Package jobs aggregates job listings from independent search providers.
package jobs

import (
	"strings"
	"time"
)

// Source names a job search provider. SourceAll selects every enabled one.
type Source string

const (
	SourceAll        Source = "all"
	SourceAdzuna     Source = "adzuna"
	SourceCareerjet  Source = "careerjet"
	SourceHeadhunter Source = "headhunter"
)

// Sort is the provider independent result ordering a caller may ask for.
type Sort string

const (
	SortDefault   Sort = ""
	SortRelevance Sort = "relevance"
	SortNewest    Sort = "newest"
	SortSalary    Sort = "salary"
)

// ParseSort normalizes a sort name. Unrecognized values become SortDefault,
// which leaves the ordering to the provider.
func ParseSort(s string) Sort {
	switch sort := Sort(strings.ToLower(strings.TrimSpace(s))); sort {
	case SortRelevance, SortNewest, SortSalary:
		return sort
	default:
		return SortDefault
	}
}

// Category is an entry of the internal job taxonomy. Each provider maps it
// to its own vocabulary or ignores it.
type Category string

const (
	CategorySoftware        Category = "software"
	CategoryData            Category = "data"
	CategoryITSupport       Category = "it-support"
	CategoryHealthcare      Category = "healthcare"
	CategoryNursing         Category = "nursing"
	CategoryFinance         Category = "finance"
	CategoryAccounting      Category = "accounting"
	CategoryTrades          Category = "trades"
	CategoryConstruction    Category = "construction"
	CategoryLogistics       Category = "logistics"
	CategoryWarehouse       Category = "warehouse"
	CategoryDesign          Category = "design"
	CategoryMarketing       Category = "marketing"
	CategorySales           Category = "sales"
	CategoryCustomerService Category = "customer-service"
	CategoryEducation       Category = "education"
	CategoryEngineering     Category = "engineering"
	CategoryManufacturing   Category = "manufacturing"
	CategoryHospitality     Category = "hospitality"
	CategoryRetail          Category = "retail"
	CategoryAdmin           Category = "admin"
	CategoryLegal           Category = "legal"
	CategoryHR              Category = "hr"
	CategoryScience         Category = "science"
	CategorySocialWork      Category = "social-work"
)

// ParseCategory normalizes a category name. Values outside the taxonomy are
// kept as given; providers treat them as unmapped.
func ParseCategory(s string) Category {
	return Category(strings.ToLower(strings.TrimSpace(s)))
}

// Query is one job search as asked by a caller.
type Query struct {
	Keywords string
	Location string
	Category Category
	Sort     Sort
	Source   Source
}

// Listing is a normalized job posting. Title and URL are always set; other
// strings are empty when the provider had nothing.
type Listing struct {
	Title    string     `json:"title"`
	Company  string     `json:"company"`
	Location string     `json:"location"`
	Salary   string     `json:"salary"`
	Summary  string     `json:"summary"`
	PostedAt *time.Time `json:"postedAt"`
	URL      string     `json:"url"`
	Source   Source     `json:"source"`
}

// Valid reports whether the listing has the fields every listing must carry.
func (l Listing) Valid() bool {
	return strings.TrimSpace(l.Title) != "" && strings.TrimSpace(l.URL) != ""
}
