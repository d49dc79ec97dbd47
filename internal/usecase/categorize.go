package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"ByteReview/internal/domain"
	"ByteReview/internal/infrastructure/parser"
	"ByteReview/internal/metrics"
	"ByteReview/internal/ports"
	"ByteReview/internal/predicate"
)

// DefaultWorkers bounds concurrent model calls when no limit is configured.
const DefaultWorkers = 10

const previewRunes = 100

// ErrNoCategories is returned when the category list is empty.
var ErrNoCategories = errors.New("no categories loaded")

// Outcome is the per-record result of the classify pass.
type Outcome string

const (
	OutcomeCategorized Outcome = "categorized"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeFailed      Outcome = "failed"
	OutcomeError       Outcome = "error"
)

// Record is one byte found by external id, with the value of the source field.
type Record struct {
	ExternalID string
	HasField   bool
	Content    string
}

// FieldCheck summarises which requested ids exist and carry the source field.
type FieldCheck struct {
	Total      int
	Found      int
	Missing    int
	HasField   int
	NoField    int
	MissingIDs []string
	Records    []Record
}

// Result is the classify outcome for one record.
type Result struct {
	ExternalID string
	Status     Outcome
	Category   string
	Reason     string
	Preview    string
}

// UpdateStats counts the apply pass.
type UpdateStats struct {
	Success int
	Failed  int
	Skipped int
}

// CategorizerDeps wires the store and the model into the batch job.
type CategorizerDeps struct {
	Store      ports.ByteStore
	Classifier ports.Classifier
	Workers    int
	Logger     *slog.Logger
}

// Categorizer assigns each listed byte one category from a fixed set.
type Categorizer struct {
	store      ports.ByteStore
	classifier ports.Classifier
	workers    int
	logger     *slog.Logger
}

// NewCategorizer constructs the batch component.
func NewCategorizer(deps CategorizerDeps) *Categorizer {
	workers := deps.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Categorizer{
		store:      deps.Store,
		classifier: deps.Classifier,
		workers:    workers,
		logger:     logger,
	}
}

// CheckFields looks up ids and reports which records exist and which carry
// a non-null value in field.
func (c *Categorizer) CheckFields(ctx context.Context, ids []string, field string) (FieldCheck, error) {
	check := FieldCheck{Total: len(ids)}
	if len(ids) == 0 {
		return check, nil
	}

	docs, err := c.store.Find(ctx, predicate.In(domain.FieldExternalID, anySlice(ids)...), ports.FindOptions{})
	if err != nil {
		return check, fmt.Errorf("find records: %w", err)
	}

	found := make(map[string]bool, len(docs))
	for _, doc := range docs {
		id, _ := doc[domain.FieldExternalID].(string)
		found[id] = true

		rec := Record{ExternalID: id}
		if v, ok := doc[field]; ok && v != nil {
			rec.HasField = true
			rec.Content = fmt.Sprint(v)
			check.HasField++
		} else {
			check.NoField++
		}
		check.Records = append(check.Records, rec)
	}
	check.Found = len(docs)

	for _, id := range ids {
		if !found[id] {
			check.MissingIDs = append(check.MissingIDs, id)
		}
	}
	check.Missing = len(check.MissingIDs)

	return check, nil
}

// FieldInUse reports whether any of the listed records already carries field.
func (c *Categorizer) FieldInUse(ctx context.Context, ids []string, field string) (bool, error) {
	if len(ids) == 0 {
		return false, nil
	}
	n, err := c.store.Count(ctx, predicate.And(
		predicate.In(domain.FieldExternalID, anySlice(ids)...),
		predicate.Exists(field),
	))
	if err != nil {
		return false, fmt.Errorf("count %s: %w", field, err)
	}
	return n > 0, nil
}

// Classify runs one model call per record that has content, at most
// Workers at a time. A failing record never cancels the others and nothing
// is retried. Results keep the order of records.
func (c *Categorizer) Classify(ctx context.Context, records []Record, categories []string) []Result {
	results := make([]Result, len(records))

	var g errgroup.Group
	g.SetLimit(c.workers)

	for i, rec := range records {
		g.Go(func() error {
			results[i] = c.classifyOne(ctx, rec, categories)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		metrics.CategorizeOutcomes.WithLabelValues(string(r.Status)).Inc()
	}
	return results
}

func (c *Categorizer) classifyOne(ctx context.Context, rec Record, categories []string) Result {
	res := Result{ExternalID: rec.ExternalID}

	if !rec.HasField {
		res.Status = OutcomeSkipped
		res.Reason = "field not found"
		return res
	}

	text := parser.PlainText(rec.Content)
	if text == "" {
		res.Status = OutcomeSkipped
		res.Reason = "field is empty"
		return res
	}
	res.Preview = parser.Preview(text, previewRunes)

	if err := ctx.Err(); err != nil {
		res.Status = OutcomeError
		res.Reason = err.Error()
		return res
	}

	reply, err := c.classifier.Classify(ctx, text, categories)
	if err != nil {
		c.logger.Warn("classification failed", "uuid", rec.ExternalID, "err", err)
		res.Status = OutcomeError
		res.Reason = err.Error()
		return res
	}

	if !slices.Contains(categories, reply) {
		res.Status = OutcomeFailed
		res.Reason = fmt.Sprintf("invalid category returned: %q", reply)
		return res
	}

	res.Status = OutcomeCategorized
	res.Category = reply
	return res
}

// Apply writes each categorized result into outputField, one record at a
// time. A failed write is counted and the pass continues.
func (c *Categorizer) Apply(ctx context.Context, results []Result, outputField string) (UpdateStats, error) {
	var stats UpdateStats
	if outputField == "" || outputField == domain.FieldID {
		return stats, fmt.Errorf("invalid output field %q", outputField)
	}

	for _, r := range results {
		if r.Status != OutcomeCategorized {
			stats.Skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		_, err := c.store.UpdateOne(ctx,
			predicate.Equals(domain.FieldExternalID, r.ExternalID),
			ports.Mutation{Field: outputField, Value: r.Category},
		)
		if err != nil {
			stats.Failed++
			c.logger.Error("update failed", "uuid", r.ExternalID, "err", err)
			continue
		}
		stats.Success++
		c.logger.Info("record categorized", "uuid", r.ExternalID, "category", r.Category)
	}
	return stats, nil
}

// Count tallies results by outcome.
func Count(results []Result) map[Outcome]int {
	out := make(map[Outcome]int, 4)
	for _, r := range results {
		out[r.Status]++
	}
	return out
}

func anySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
