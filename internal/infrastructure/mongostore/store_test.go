package mongostore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"ByteReview/internal/domain"
	"ByteReview/internal/filter"
	"ByteReview/internal/ports"
	"ByteReview/internal/predicate"
)

func TestLowerLeaves(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   predicate.Predicate
		want bson.D
	}{
		{"all", predicate.All(), bson.D{}},
		{"equals", predicate.Equals("Year", 2023), bson.D{{Key: "Year", Value: 2023}}},
		{"equals null", predicate.Equals("Title", nil), bson.D{{Key: "Title", Value: nil}}},
		{"in", predicate.In("Author", "A", "B"), bson.D{{Key: "Author", Value: bson.D{{Key: "$in", Value: []any{"A", "B"}}}}}},
		{"exists", predicate.Exists("uuid"), bson.D{{Key: "uuid", Value: bson.D{{Key: "$exists", Value: true}}}}},
		{"missing", predicate.Missing("uuid"), bson.D{{Key: "uuid", Value: bson.D{{Key: "$exists", Value: false}}}}},
		{
			"contains escapes regex",
			predicate.Contains("uuid", "a.b"),
			bson.D{{Key: "uuid", Value: bson.D{{Key: "$regex", Value: `a\.b`}, {Key: "$options", Value: "i"}}}},
		},
		{"empty or", predicate.Or(), bson.D{{Key: "_id", Value: bson.D{{Key: "$exists", Value: false}}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Lower(tc.in))
		})
	}
}

func TestLowerPendingStatus(t *testing.T) {
	t.Parallel()

	got := Lower(filter.Build(filter.Facets{SummaryStatus: domain.StatusPending}))
	want := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "summary_review_status", Value: bson.D{{Key: "$exists", Value: false}}}},
		bson.D{{Key: "summary_review_status", Value: nil}},
		bson.D{{Key: "summary_review_status", Value: ""}},
		bson.D{{Key: "summary_review_status", Value: "pending"}},
	}}}
	assert.Equal(t, want, got)
}

func TestLowerHasSummaryUsesNor(t *testing.T) {
	t.Parallel()

	year := 2023
	got := Lower(filter.Build(filter.Facets{HasSummary: filter.ChoiceYes, Year: &year}))

	and, ok := got.Map()["$and"].(bson.A)
	if assert.True(t, ok) && assert.Len(t, and, 2) {
		nor := and[0].(bson.D)
		assert.Equal(t, "$nor", nor[0].Key)
		assert.Equal(t, bson.D{{Key: "Year", Value: 2023}}, and[1])
	}
}

func TestUpdateDocuments(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		bson.D{{Key: "$set", Value: bson.D{{Key: "Best_byte", Value: true}}}},
		Update(ports.Mutation{Field: "Best_byte", Value: true}))
	assert.Equal(t,
		bson.D{{Key: "$unset", Value: bson.D{{Key: "locked_title", Value: ""}}}},
		Update(ports.Mutation{Field: "locked_title", Unset: true}))
}
