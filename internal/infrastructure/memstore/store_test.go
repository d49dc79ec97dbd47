package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ByteReview/internal/domain"
	"ByteReview/internal/ports"
	"ByteReview/internal/predicate"
)

func TestFindKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(
		domain.Document{"uuid": "a", "Year": 2023},
		domain.Document{"uuid": "b", "Year": 2022},
		domain.Document{"uuid": "c", "Year": 2023},
		domain.Document{"uuid": "d", "Year": 2023},
	)

	docs, err := s.Find(ctx, predicate.Equals("Year", 2023), ports.FindOptions{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "c", docs[0]["uuid"])

	n, err := s.Count(ctx, predicate.Equals("Year", 2023))
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestFindReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(domain.Document{"uuid": "a"})

	docs, err := s.Find(ctx, predicate.All(), ports.FindOptions{})
	require.NoError(t, err)
	docs[0]["uuid"] = "changed"

	again, err := s.Find(ctx, predicate.All(), ports.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, "a", again[0]["uuid"])
}

func TestDistinctSkipsNullAndDuplicates(t *testing.T) {
	t.Parallel()

	s := New(
		domain.Document{"Author": "B"},
		domain.Document{"Author": "A"},
		domain.Document{"Author": "B"},
		domain.Document{"Author": nil},
		domain.Document{},
	)

	got, err := s.Distinct(context.Background(), "Author", predicate.All())
	require.NoError(t, err)
	assert.Equal(t, []any{"A", "B"}, got)
}

func TestUpdateOneReportsModification(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	oid := s.Insert(domain.Document{"summary_review_status": "pending"})
	byID := predicate.Equals(domain.FieldID, oid)

	ok, err := s.UpdateOne(ctx, byID, ports.Mutation{Field: "summary_review_status", Value: "accepted"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UpdateOne(ctx, byID, ports.Mutation{Field: "summary_review_status", Value: "accepted"})
	require.NoError(t, err)
	assert.False(t, ok, "same value is not a modification")

	ok, err = s.UpdateOne(ctx, byID, ports.Mutation{Field: "summary_review_status", Unset: true})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UpdateOne(ctx, byID, ports.Mutation{Field: "summary_review_status", Unset: true})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.UpdateOne(ctx, byID, ports.Mutation{Field: domain.FieldID, Value: "x"})
	assert.Error(t, err)
}

func TestUpdateOneNoMatch(t *testing.T) {
	t.Parallel()

	s := New(domain.Document{"uuid": "a"})
	ok, err := s.UpdateOne(context.Background(), predicate.Equals("uuid", "zzz"), ports.Mutation{Field: "Category", Value: "Love"})
	require.NoError(t, err)
	assert.False(t, ok)
}
