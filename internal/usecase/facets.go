package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"ByteReview/internal/domain"
	"ByteReview/internal/filter"
	"ByteReview/internal/predicate"
)

// FacetOptions are the values the browse screen offers for each facet.
type FacetOptions struct {
	Authors        []string `json:"authors"`
	Years          []int    `json:"years"`
	Editions       []string `json:"editions"`
	WithSummary    int64    `json:"with_summary"`
	WithoutSummary int64    `json:"without_summary"`
}

// FacetOptions lists every author and year, the summary split under the
// author selection, and the editions still reachable under the other facets.
func (s *ReviewService) FacetOptions(ctx context.Context, f filter.Facets) (FacetOptions, error) {
	var opts FacetOptions

	authors, err := s.store.Distinct(ctx, domain.FieldAuthor, predicate.All())
	if err != nil {
		return opts, fmt.Errorf("distinct authors: %w", err)
	}
	opts.Authors = stringValues(authors)
	sort.Strings(opts.Authors)

	years, err := s.store.Distinct(ctx, domain.FieldYear, predicate.All())
	if err != nil {
		return opts, fmt.Errorf("distinct years: %w", err)
	}
	opts.Years = intValues(years)
	sort.Sort(sort.Reverse(sort.IntSlice(opts.Years)))

	byAuthor := filter.Facets{Authors: f.Authors, HasSummary: filter.ChoiceYes}
	if opts.WithSummary, err = s.store.Count(ctx, filter.Build(byAuthor)); err != nil {
		return opts, fmt.Errorf("count with summary: %w", err)
	}
	byAuthor.HasSummary = filter.ChoiceNo
	if opts.WithoutSummary, err = s.store.Count(ctx, filter.Build(byAuthor)); err != nil {
		return opts, fmt.Errorf("count without summary: %w", err)
	}

	others := f
	others.Edition = ""
	editions, err := s.store.Distinct(ctx, domain.FieldSourceDocument, filter.Build(others))
	if err != nil {
		return opts, fmt.Errorf("distinct editions: %w", err)
	}
	opts.Editions = stringValues(editions)
	sort.Strings(opts.Editions)

	return opts, nil
}

func stringValues(values []any) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func intValues(values []any) []int {
	out := make([]int, 0, len(values))
	seen := make(map[int]bool, len(values))
	for _, v := range values {
		var (
			n  int
			ok = true
		)
		switch t := v.(type) {
		case int:
			n = t
		case int32:
			n = int(t)
		case int64:
			n = int(t)
		case float64:
			n = int(t)
		case string:
			parsed, err := strconv.Atoi(strings.TrimSpace(t))
			n, ok = parsed, err == nil
		default:
			ok = false
		}
		if !ok || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
