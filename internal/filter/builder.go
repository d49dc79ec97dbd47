// Package filter turns independently selected facets into one predicate.
package filter

import (
	"strconv"
	"strings"

	"ByteReview/internal/domain"
	"ByteReview/internal/predicate"
)

// Choice is a yes/no facet; the zero value means no constraint.
type Choice string

const (
	ChoiceAny Choice = ""
	ChoiceYes Choice = "yes"
	ChoiceNo  Choice = "no"
)

// Facets holds the selections of the browse screen. Zero values mean "no constraint".
type Facets struct {
	Authors        []string
	SummaryStatus  domain.ReviewStatus
	OriginalStatus domain.ReviewStatus
	BestByte       *bool
	Year           *int
	HasSummary     Choice
	Edition        string
	IDSearch       string
}

// Active reports whether any facet constrains the result.
func (f Facets) Active() bool {
	return !Build(f).IsAll()
}

// Build composes the facets into a single predicate. Sub-predicates are
// combined with AND in a fixed order; no active facet yields match-all.
func Build(f Facets) predicate.Predicate {
	var parts []predicate.Predicate

	if authors := nonEmpty(f.Authors); len(authors) > 0 {
		parts = append(parts, predicate.In(domain.FieldAuthor, authors...))
	}
	if p, ok := statusPredicate(domain.FieldSummaryReviewStatus, f.SummaryStatus); ok {
		parts = append(parts, p)
	}
	if p, ok := statusPredicate(domain.FieldOriginalReviewStatus, f.OriginalStatus); ok {
		parts = append(parts, p)
	}
	switch f.HasSummary {
	case ChoiceYes:
		parts = append(parts, predicate.Present(domain.FieldSummary))
	case ChoiceNo:
		parts = append(parts, predicate.Blank(domain.FieldSummary))
	}
	if f.BestByte != nil {
		parts = append(parts, predicate.Equals(domain.FieldBestByte, *f.BestByte))
	}
	if f.Year != nil {
		parts = append(parts, predicate.Equals(domain.FieldYear, *f.Year))
	}
	if edition := strings.TrimSpace(f.Edition); edition != "" {
		parts = append(parts, predicate.Equals(domain.FieldSourceDocument, edition))
	}
	if needle := strings.TrimSpace(f.IDSearch); needle != "" {
		parts = append(parts, predicate.Contains(domain.FieldExternalID, needle))
	}

	return predicate.And(parts...)
}

// statusPredicate expands pending to "absent, null, empty or pending".
// Values outside the enum contribute nothing.
func statusPredicate(field string, status domain.ReviewStatus) (predicate.Predicate, bool) {
	switch status {
	case domain.StatusPending:
		return predicate.Or(
			predicate.Missing(field),
			predicate.Equals(field, nil),
			predicate.Equals(field, ""),
			predicate.Equals(field, string(domain.StatusPending)),
		), true
	case domain.StatusAccepted, domain.StatusRejected:
		return predicate.Equals(field, string(status)), true
	default:
		return predicate.Predicate{}, false
	}
}

func nonEmpty(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ParseStatus maps a UI value to a status facet; "all", blanks and unknown values yield no constraint.
func ParseStatus(value string) domain.ReviewStatus {
	s, err := domain.ParseReviewStatus(value)
	if err != nil {
		return ""
	}
	return s
}

// ParseChoice maps yes/no style values to a Choice.
func ParseChoice(value string) Choice {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "y", "true", "1":
		return ChoiceYes
	case "no", "n", "false", "0":
		return ChoiceNo
	default:
		return ChoiceAny
	}
}

// ParseBool maps yes/no style values to an optional flag.
func ParseBool(value string) *bool {
	var b bool
	switch ParseChoice(value) {
	case ChoiceYes:
		b = true
	case ChoiceNo:
		b = false
	default:
		return nil
	}
	return &b
}

// ParseYear returns nil for blanks, "all" and non-numeric input.
func ParseYear(value string) *int {
	y, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return nil
	}
	return &y
}
