package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ByteReview/internal/domain"
	"ByteReview/internal/filter"
	"ByteReview/internal/infrastructure/memstore"
	"ByteReview/internal/ports"
	"ByteReview/internal/predicate"
)

var errStoreDown = errors.New("store down")

type failingStore struct{}

func (failingStore) Count(context.Context, predicate.Predicate) (int64, error) {
	return 0, errStoreDown
}

func (failingStore) Find(context.Context, predicate.Predicate, ports.FindOptions) ([]domain.Document, error) {
	return nil, errStoreDown
}

func (failingStore) Distinct(context.Context, string, predicate.Predicate) ([]any, error) {
	return nil, errStoreDown
}

func (failingStore) UpdateOne(context.Context, predicate.Predicate, ports.Mutation) (bool, error) {
	return false, errStoreDown
}

func seeded(n int) (*memstore.Store, []primitive.ObjectID) {
	store := memstore.New()
	ids := make([]primitive.ObjectID, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, store.Insert(domain.Document{
			"uuid":   fmt.Sprintf("HFN-%03d", i),
			"Author": "Daaji",
			"Year":   2023,
			"Title":  fmt.Sprintf("Title %d", i),
		}))
	}
	return store, ids
}

func newService(store ports.ByteStore) *ReviewService {
	return NewReviewService(ReviewDeps{Store: store})
}

func TestTotalPages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(1, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 2, TotalPages(15, 10))
}

func TestFetchPageSecondPageOfFifteen(t *testing.T) {
	t.Parallel()

	store, _ := seeded(15)
	svc := newService(store)

	page, err := svc.FetchPage(context.Background(), predicate.All(), 2, 10)
	require.NoError(t, err)
	assert.Len(t, page.Documents, 5)
	assert.Equal(t, 2, page.PageNumber)
	assert.Equal(t, 2, page.TotalPages)
	assert.EqualValues(t, 15, page.TotalDocuments)
	assert.Equal(t, "HFN-010", page.Documents[0].ExternalID)
}

func TestFetchPageBeyondEndIsNotClamped(t *testing.T) {
	t.Parallel()

	store, _ := seeded(15)
	svc := newService(store)

	page, err := svc.FetchPage(context.Background(), predicate.All(), 99, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Documents)
	assert.Equal(t, 99, page.PageNumber)
	assert.Equal(t, 2, page.TotalPages)
}

func TestFetchPageEmptyResult(t *testing.T) {
	t.Parallel()

	store, _ := seeded(3)
	svc := newService(store)

	page, err := svc.FetchPage(context.Background(), predicate.Equals("Author", "Nobody"), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Documents)
	assert.Equal(t, 0, page.TotalPages)
	assert.False(t, page.Degraded)
}

func TestFetchPagesAreDisjointAndCover(t *testing.T) {
	t.Parallel()

	store, _ := seeded(23)
	svc := newService(store)
	ctx := context.Background()

	first, err := svc.FetchPage(ctx, predicate.All(), 1, 7)
	require.NoError(t, err)
	require.Equal(t, 4, first.TotalPages)

	seen := map[string]bool{}
	for n := 1; n <= first.TotalPages; n++ {
		page, err := svc.FetchPage(ctx, predicate.All(), n, 7)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(page.Documents), 7)
		for _, b := range page.Documents {
			assert.False(t, seen[b.ExternalID], "duplicate %s", b.ExternalID)
			seen[b.ExternalID] = true
		}
	}
	assert.Len(t, seen, 23)
}

func TestFetchPageDefaults(t *testing.T) {
	t.Parallel()

	store, _ := seeded(12)
	svc := newService(store)

	page, err := svc.FetchPage(context.Background(), predicate.All(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.PageNumber)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Len(t, page.Documents, DefaultPageSize)
}

func TestGetPageFailsOpen(t *testing.T) {
	t.Parallel()

	svc := newService(failingStore{})

	page := svc.GetPage(context.Background(), predicate.All(), 3, 10)
	assert.True(t, page.Degraded)
	assert.Empty(t, page.Documents)
	assert.Equal(t, 1, page.PageNumber)
	assert.Equal(t, 0, page.TotalPages)

	_, err := svc.FetchPage(context.Background(), predicate.All(), 3, 10)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestFetchPageSkipsUndecodableRecords(t *testing.T) {
	t.Parallel()

	store := memstore.New(
		domain.Document{"uuid": "A", "Year": 2023},
		domain.Document{"uuid": "B", "Year": "2023"},
		domain.Document{"uuid": "C", "Year": 2023, "llm_review": "not a review"},
		domain.Document{"uuid": "D", "Year": 2023},
	)
	svc := newService(store)
	ctx := context.Background()

	page := svc.GetPage(ctx, predicate.All(), 1, 10)
	assert.False(t, page.Degraded)
	assert.Equal(t, 1, page.TotalPages)
	assert.EqualValues(t, 4, page.TotalDocuments)

	var got []string
	for _, b := range page.Documents {
		got = append(got, b.ExternalID)
		assert.Equal(t, 2023, b.Year)
	}
	assert.Equal(t, []string{"A", "B", "D"}, got)

	opts, err := svc.FacetOptions(ctx, filter.Facets{})
	require.NoError(t, err)
	assert.Equal(t, []int{2023}, opts.Years)
}

func TestBestBytesOf2023EndToEnd(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	for i := 0; i < 15; i++ {
		doc := domain.Document{"uuid": fmt.Sprintf("HFN-%02d", i), "Author": "Daaji", "Year": 2022, "Best_byte": false}
		if i%3 == 0 {
			doc["Year"] = 2023
			doc["Best_byte"] = true
		}
		store.Insert(doc)
	}
	svc := newService(store)

	yes, year := true, 2023
	p := filter.Build(filter.Facets{BestByte: &yes, Year: &year})

	page := svc.GetPage(context.Background(), p, 1, 10)
	require.False(t, page.Degraded)
	assert.Len(t, page.Documents, 5)
	assert.Equal(t, 1, page.TotalPages)
	assert.EqualValues(t, 5, page.TotalDocuments)
	for _, b := range page.Documents {
		assert.True(t, b.BestByte)
		assert.Equal(t, 2023, b.Year)
	}
}

func TestGetReadsAbsentStatusesAsPending(t *testing.T) {
	t.Parallel()

	store, ids := seeded(1)
	b, err := newService(store).Get(context.Background(), ids[0].Hex())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, b.SummaryReviewStatus)
	assert.Equal(t, domain.StatusPending, b.OriginalReviewStatus)
}

func TestAcceptPendingSummaryLeavesPendingFilter(t *testing.T) {
	t.Parallel()

	store, ids := seeded(3)
	svc := newService(store)
	ctx := context.Background()
	pending := filter.Build(filter.Facets{SummaryStatus: domain.StatusPending})

	before := svc.GetPage(ctx, pending, 1, 10)
	require.EqualValues(t, 3, before.TotalDocuments)

	ok, err := svc.SetSummaryReviewStatus(ctx, ids[1].Hex(), domain.StatusAccepted)
	require.NoError(t, err)
	assert.True(t, ok)

	after := svc.GetPage(ctx, pending, 1, 10)
	assert.EqualValues(t, 2, after.TotalDocuments)
	for _, b := range after.Documents {
		assert.NotEqual(t, ids[1], b.ID)
	}

	accepted := svc.GetPage(ctx, filter.Build(filter.Facets{SummaryStatus: domain.StatusAccepted}), 1, 10)
	require.Len(t, accepted.Documents, 1)
	assert.Equal(t, domain.StatusAccepted, accepted.Documents[0].SummaryReviewStatus)

	ok, err = svc.SetSummaryReviewStatus(ctx, ids[1].Hex(), domain.StatusAccepted)
	require.NoError(t, err)
	assert.False(t, ok, "writing the same status modifies nothing")
}

func TestMutatorsRejectBadInput(t *testing.T) {
	t.Parallel()

	store, ids := seeded(1)
	svc := newService(store)
	ctx := context.Background()

	_, err := svc.SetBestByte(ctx, "not-an-id", true)
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.SetOriginalReviewStatus(ctx, ids[0].Hex(), "archived")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = svc.LockContent(ctx, ids[0].Hex(), "everything")
	assert.ErrorIs(t, err, domain.ErrInvalidLock)

	ok, err := svc.SetBestByte(ctx, primitive.NewObjectID().Hex(), true)
	require.NoError(t, err)
	assert.False(t, ok, "unknown id modifies nothing")
}

func TestMutatorStoreErrorIsReturned(t *testing.T) {
	t.Parallel()

	svc := newService(failingStore{})
	ok, err := svc.SetReadyToPublish(context.Background(), primitive.NewObjectID().Hex(), true)
	assert.False(t, ok)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestTextMutators(t *testing.T) {
	t.Parallel()

	store, ids := seeded(1)
	svc := newService(store)
	ctx := context.Background()
	id := ids[0].Hex()

	ok, err := svc.SetCurrentTitle(ctx, id, "  Fresh & new  ")
	require.NoError(t, err)
	assert.True(t, ok)

	b, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Fresh & new", b.CurrentTitle)

	ok, err = svc.SetCurrentSummary(ctx, id, `<p>Calm</p><script>alert(1)</script>`)
	require.NoError(t, err)
	assert.True(t, ok)
	b, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "<p>Calm</p>", b.CurrentSummary)

	ok, err = svc.SetCurrentSummary(ctx, id, "Love <3 & peace")
	require.NoError(t, err)
	assert.True(t, ok)
	b, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Love <3 & peace", b.CurrentSummary, "prose with < is stored as typed")

	ok, err = svc.SetCurrentTitle(ctx, id, "   ")
	require.NoError(t, err)
	assert.True(t, ok, "empty text unsets the field")
	b, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, b.CurrentTitle)
}

func TestLocks(t *testing.T) {
	t.Parallel()

	store, ids := seeded(1)
	svc := newService(store)
	ctx := context.Background()
	id := ids[0].Hex()

	_, err := svc.LockTitle(ctx, id, domain.TitleLockCurrent)
	assert.ErrorIs(t, err, ErrLockTargetEmpty)

	ok, err := svc.LockTitle(ctx, id, domain.TitleLockOriginal)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.LockContent(ctx, id, domain.ContentLockSummary)
	assert.ErrorIs(t, err, ErrLockTargetEmpty)

	_, err = svc.SetCurrentSummary(ctx, id, "Edited")
	require.NoError(t, err)
	ok, err = svc.LockContent(ctx, id, domain.ContentLockCurrentSummary)
	require.NoError(t, err)
	assert.True(t, ok)

	b, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.TitleLockOriginal, b.LockedTitle)
	assert.Equal(t, domain.ContentLockCurrentSummary, b.LockedContent)

	ok, err = svc.LockTitle(ctx, id, domain.TitleLockNone)
	require.NoError(t, err)
	assert.True(t, ok)
	b, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.TitleLockNone, b.LockedTitle)
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()

	svc := newService(memstore.New())
	_, err := svc.Get(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFacetOptions(t *testing.T) {
	t.Parallel()

	store := memstore.New(
		domain.Document{"Author": "Daaji", "Year": 2023, "pdf_name": "May-2023", "content_summary": "s"},
		domain.Document{"Author": "Babuji", "Year": 2021, "pdf_name": "Jan-2021"},
		domain.Document{"Author": "Daaji", "Year": 2022, "pdf_name": "Feb-2022", "content_summary": ""},
		domain.Document{"Author": "Chariji", "Year": 2023, "pdf_name": "May-2023", "content_summary": "x"},
	)
	svc := newService(store)

	opts, err := svc.FacetOptions(context.Background(), filter.Facets{Authors: []string{"Daaji"}, Edition: "Feb-2022"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Babuji", "Chariji", "Daaji"}, opts.Authors)
	assert.Equal(t, []int{2023, 2022, 2021}, opts.Years)
	assert.EqualValues(t, 1, opts.WithSummary)
	assert.EqualValues(t, 1, opts.WithoutSummary)
	assert.Equal(t, []string{"Feb-2022", "May-2023"}, opts.Editions)
}

func TestFlowsApplyThroughMutators(t *testing.T) {
	t.Parallel()

	store, ids := seeded(1)
	svc := newService(store)
	ctx := context.Background()
	id := ids[0].Hex()

	flows := map[string]func(context.Context, string, string) (bool, error){}
	for _, f := range svc.Flows() {
		flows[f.Name] = f.Apply
	}
	require.Len(t, flows, 9)

	ok, err := flows[FlowBestByte](ctx, id, "true")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = flows[FlowReadyToPublish](ctx, id, "maybe")
	assert.Error(t, err)

	ok, err = flows[FlowOriginalStatus](ctx, id, "rejected")
	require.NoError(t, err)
	assert.True(t, ok)

	b, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, b.BestByte)
	assert.Equal(t, domain.StatusRejected, b.OriginalReviewStatus)
}
