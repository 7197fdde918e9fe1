package headhunter

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/roguegoose-dev/goose-guidance/internal/failure"
	"github.com/roguegoose-dev/goose-guidance/internal/jobs"
)

const (
	SearchPath = "/vacancies"

	// Max value for search per page.
	maxPerPage = 100
)

var orderTokens = map[jobs.Sort]string{
	jobs.SortNewest:    "publication_time",
	jobs.SortSalary:    "salary_desc",
	jobs.SortRelevance: "relevance",
}

// OrderToken returns the hh.ru order_by value for s.
func OrderToken(s jobs.Sort) (string, bool) {
	token, ok := orderTokens[s]
	return token, ok
}

type SearchParams struct {
	Text string `hhparam:"text"`
	// hhparam is custom tag for reflect. Please see below.
	Areas   []int  `hhparam:"area"`
	OrderBy string `hhparam:"order_by"`
	PerPage int    `hhparam:"per_page"`
}

// paramsFromQuery translates a query. hh.ru areas are numeric ids, so a
// location is only sent when it is one.
func paramsFromQuery(q jobs.Query, perPage int) *SearchParams {
	params := &SearchParams{
		Text:    strings.TrimSpace(q.Keywords),
		PerPage: perPage,
	}
	if area, err := strconv.Atoi(strings.TrimSpace(q.Location)); err == nil && area > 0 {
		params.Areas = []int{area}
	}
	if token, ok := OrderToken(q.Sort); ok {
		params.OrderBy = token
	}
	return params
}

func (c *Client) search(ctx context.Context, params *SearchParams) (*Vacancies, error) {
	var vacancies []*Vacancy

	q := buildParams(params)
	apiURLSearch := fmt.Sprintf("%s%s", c.APIURL, SearchPath)

	items, err := c.GetItems(ctx, apiURLSearch, q)
	if err != nil {
		return nil, err
	}

	cfg := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   &vacancies,
		TagName:  "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, &failure.MalformedResponse{Provider: string(jobs.SourceHeadhunter), Err: err}
	}

	return &Vacancies{
		Items: vacancies,
	}, nil
}

func buildParams(params *SearchParams) url.Values {
	q := url.Values{}
	value := reflect.ValueOf(params).Elem()
	for _, field := range reflect.VisibleFields(value.Type()) {
		// Our custom tag is using here.
		key := field.Tag.Get("hhparam")
		if key == "" {
			continue
		}

		switch v := value.FieldByIndex(field.Index).Interface().(type) {
		case []int:
			for _, item := range v {
				q.Add(key, strconv.Itoa(item))
			}
		case []string:
			for _, item := range v {
				q.Add(key, item)
			}
		default:
			s := fmt.Sprintf("%v", v)
			if s != "" && s != "0" {
				q.Set(key, s)
			}
		}
	}

	return q
}
