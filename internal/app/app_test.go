package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ByteReview/internal/config"
	"ByteReview/internal/domain"
	"ByteReview/internal/infrastructure/memstore"
	"ByteReview/internal/predicate"
)

func memoryConfig() config.Config {
	return config.Config{
		Store:      config.StoreConfig{Driver: config.DriverMemory},
		Sessions:   config.SessionConfig{Driver: config.SessionsMemory},
		Review:     config.ReviewConfig{PageSize: 5},
		Logging:    config.LoggingConfig{Level: "error"},
		Categorize: config.CategorizeConfig{Workers: 3},
	}
}

func TestNewWithMemoryDriver(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), memoryConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	assert.Equal(t, 5, a.Review().PageSize())

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig()
	cfg.Store.Driver = config.DriverPostgres
	_, err := New(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "DATABASE_DSN")
}

func TestNewWithStoreServesDocuments(t *testing.T) {
	t.Parallel()

	store := memstore.New(domain.Document{"uuid": "HFN-1", "Title": "One"})
	a := NewWithStore(memoryConfig(), store, nil)

	page := a.Review().GetPage(context.Background(), predicate.All(), 1, 0)
	require.Len(t, page.Documents, 1)
	assert.Equal(t, "HFN-1", page.Documents[0].ExternalID)
	assert.NotNil(t, a.Categorizer(0))
}
