package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDecodeByte(t *testing.T) {
	t.Parallel()

	oid := primitive.NewObjectID()
	doc := Document{
		FieldID:                  oid,
		FieldAuthor:              "Daaji",
		FieldYear:                float64(2023),
		FieldExternalID:          "hfn-001",
		FieldSummary:             "short",
		FieldSummaryReviewStatus: nil,
		FieldBestByte:            true,
		FieldLockedContent:       "summary",
		FieldReviewedByLLM:       1,
		FieldLLMReview: map[string]any{
			"describes_specific_problem": true,
			"actual_word_count":          420,
			"recommendations":            "tighten the intro",
		},
	}

	b, err := DecodeByte(doc)
	require.NoError(t, err)

	assert.Equal(t, oid, b.ID)
	assert.Equal(t, "Daaji", b.Author)
	assert.Equal(t, 2023, b.Year)
	assert.Equal(t, StatusPending, b.SummaryReviewStatus)
	assert.Equal(t, StatusPending, b.OriginalReviewStatus)
	assert.True(t, b.BestByte)
	assert.Equal(t, ContentLockSummary, b.LockedContent)
	require.True(t, b.HasLLMReview())
	assert.Equal(t, 420, b.LLMReview.ActualWordCount)
	assert.Equal(t, "short", b.Variant(ContentLockSummary.Field()))
}

func TestDecodeByteCoercesStringScalars(t *testing.T) {
	t.Parallel()

	doc := Document{
		FieldYear:                 " 2022 ",
		FieldChunkNumber:          "7",
		FieldFragmentConfidence:   "0.75",
		FieldBestByte:             "true",
		FieldReadyToPublish:       "maybe",
		FieldOriginalReviewStatus: "accepted",
	}

	b, err := DecodeByte(doc)
	require.NoError(t, err)

	assert.Equal(t, 2022, b.Year)
	assert.Equal(t, 7, b.ChunkNumber)
	assert.InDelta(t, 0.75, b.FragmentConfidence, 1e-9)
	assert.True(t, b.BestByte)
	assert.False(t, b.ReadyToPublish)
	assert.Equal(t, StatusAccepted, b.OriginalReviewStatus)
	assert.Equal(t, " 2022 ", doc[FieldYear], "input document is left untouched")

	_, err = DecodeByte(Document{FieldYear: "MMXXIII", FieldTitle: "kept"})
	require.NoError(t, err)
}

func TestParseID(t *testing.T) {
	t.Parallel()

	oid := primitive.NewObjectID()
	got, err := ParseID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)

	_, err = ParseID("not-an-id")
	assert.True(t, errors.Is(err, ErrInvalidID))
}

func TestParseReviewStatus(t *testing.T) {
	t.Parallel()

	s, err := ParseReviewStatus(" Accepted ")
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, s)

	_, err = ParseReviewStatus("maybe")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestLockSelectors(t *testing.T) {
	t.Parallel()

	tl, err := ParseTitleLock("current")
	require.NoError(t, err)
	assert.Equal(t, FieldCurrentTitle, tl.Field())

	cl, err := ParseContentLock("current-original")
	require.NoError(t, err)
	assert.Equal(t, FieldCurrentOriginalArticle, cl.Field())

	none, err := ParseContentLock("")
	require.NoError(t, err)
	assert.Empty(t, none.Field())

	_, err = ParseTitleLock("summary")
	assert.ErrorIs(t, err, ErrInvalidLock)
}
