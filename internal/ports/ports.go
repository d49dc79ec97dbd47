package ports

import (
	"context"

	"ByteReview/internal/domain"
	"ByteReview/internal/predicate"
)

// FindOptions bounds a fetch. A zero Limit means no limit.
type FindOptions struct {
	Skip  int64
	Limit int64
}

// Mutation is a single-field partial update: set Field to Value, or remove it when Unset.
type Mutation struct {
	Field string
	Value any
	Unset bool
}

// ByteStore is the document store holding extracted bytes. Find returns
// documents in stable natural storage order.
type ByteStore interface {
	Count(ctx context.Context, p predicate.Predicate) (int64, error)
	Find(ctx context.Context, p predicate.Predicate, opts FindOptions) ([]domain.Document, error)
	Distinct(ctx context.Context, field string, p predicate.Predicate) ([]any, error)
	// UpdateOne applies m to the first document matching p and reports whether it was modified.
	UpdateOne(ctx context.Context, p predicate.Predicate, m Mutation) (bool, error)
}

// Classifier picks one label for a piece of content.
type Classifier interface {
	Classify(ctx context.Context, content string, categories []string) (string, error)
}
