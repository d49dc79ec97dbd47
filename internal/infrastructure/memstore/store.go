// Package memstore keeps bytes in process memory. It backs demos and tests
// and evaluates predicates with predicate.Match.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ByteReview/internal/domain"
	"ByteReview/internal/ports"
	"ByteReview/internal/predicate"
)

// Store is a mutex-guarded slice of documents kept in insertion order.
type Store struct {
	mu   sync.RWMutex
	docs []domain.Document
}

var _ ports.ByteStore = (*Store)(nil)

// New seeds a store; documents without an _id get a fresh ObjectID.
func New(docs ...domain.Document) *Store {
	s := &Store{}
	for _, d := range docs {
		s.Insert(d)
	}
	return s
}

// Insert appends a copy of doc and returns its identity.
func (s *Store) Insert(doc domain.Document) primitive.ObjectID {
	cp := copyDoc(doc)
	oid, ok := cp[domain.FieldID].(primitive.ObjectID)
	if !ok {
		oid = primitive.NewObjectID()
		cp[domain.FieldID] = oid
	}

	s.mu.Lock()
	s.docs = append(s.docs, cp)
	s.mu.Unlock()
	return oid
}

// Count returns the number of documents matching p.
func (s *Store) Count(_ context.Context, p predicate.Predicate) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, d := range s.docs {
		if p.Match(d) {
			n++
		}
	}
	return n, nil
}

// Find returns copies of matching documents in insertion order.
func (s *Store) Find(_ context.Context, p predicate.Predicate, opts ports.FindOptions) ([]domain.Document, error) {
	if opts.Skip < 0 || opts.Limit < 0 {
		return nil, fmt.Errorf("negative skip or limit")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		out     []domain.Document
		skipped int64
	)
	for _, d := range s.docs {
		if !p.Match(d) {
			continue
		}
		if skipped < opts.Skip {
			skipped++
			continue
		}
		out = append(out, copyDoc(d))
		if opts.Limit > 0 && int64(len(out)) >= opts.Limit {
			break
		}
	}
	return out, nil
}

// Distinct returns the distinct non-null values of field among matching documents.
func (s *Store) Distinct(_ context.Context, field string, p predicate.Predicate) ([]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []any
	for _, d := range s.docs {
		v, ok := d[field]
		if !ok || v == nil || !p.Match(d) {
			continue
		}
		seen := false
		for _, existing := range out {
			if predicate.Equal(existing, v) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return fmt.Sprint(out[i]) < fmt.Sprint(out[j])
	})
	return out, nil
}

// UpdateOne mutates the first matching document. Writing the value already
// stored, or unsetting an absent field, reports false.
func (s *Store) UpdateOne(_ context.Context, p predicate.Predicate, m ports.Mutation) (bool, error) {
	if m.Field == "" || m.Field == domain.FieldID {
		return false, fmt.Errorf("field %q cannot be updated", m.Field)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.docs {
		if !p.Match(d) {
			continue
		}
		old, had := d[m.Field]
		if m.Unset {
			if !had {
				return false, nil
			}
			delete(d, m.Field)
			return true, nil
		}
		if had && sameValue(old, m.Value) {
			return false, nil
		}
		d[m.Field] = m.Value
		return true, nil
	}
	return false, nil
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return predicate.Equal(a, b)
}

func copyDoc(doc domain.Document) domain.Document {
	cp := make(domain.Document, len(doc))
	for k, v := range doc {
		cp[k] = v
	}
	return cp
}
