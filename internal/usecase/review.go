package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"ByteReview/internal/domain"
	"ByteReview/internal/infrastructure/parser"
	"ByteReview/internal/metrics"
	"ByteReview/internal/ports"
	"ByteReview/internal/predicate"
)

// DefaultPageSize is used when no positive page size is configured.
const DefaultPageSize = 10

// ErrLockTargetEmpty is returned when a lock points at a variant with no text.
var ErrLockTargetEmpty = errors.New("lock target is empty")

// ReviewDeps wires the store into the review service.
type ReviewDeps struct {
	Store    ports.ByteStore
	PageSize int
	Logger   *slog.Logger
}

// ReviewService implements paging and the single-field editor writes.
type ReviewService struct {
	store    ports.ByteStore
	pageSize int
	logger   *slog.Logger
	policy   *bluemonday.Policy
}

// NewReviewService constructs the review component.
func NewReviewService(deps ReviewDeps) *ReviewService {
	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewService{
		store:    deps.Store,
		pageSize: pageSize,
		logger:   logger,
		policy:   bluemonday.UGCPolicy(),
	}
}

// PageSize returns the configured default page size.
func (s *ReviewService) PageSize() int {
	return s.pageSize
}

// Get loads one byte by its hex identity.
func (s *ReviewService) Get(ctx context.Context, id string) (domain.Byte, error) {
	oid, err := domain.ParseID(id)
	if err != nil {
		return domain.Byte{}, err
	}

	docs, err := s.store.Find(ctx, predicate.Equals(domain.FieldID, oid), ports.FindOptions{Limit: 1})
	if err != nil {
		return domain.Byte{}, fmt.Errorf("load byte %s: %w", id, err)
	}
	if len(docs) == 0 {
		return domain.Byte{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return domain.DecodeByte(docs[0])
}

// SetSummaryReviewStatus records the editor decision on the AI summary.
func (s *ReviewService) SetSummaryReviewStatus(ctx context.Context, id string, status domain.ReviewStatus) (bool, error) {
	return s.setStatus(ctx, id, domain.FieldSummaryReviewStatus, status)
}

// SetOriginalReviewStatus records the editor decision on the original-article extraction.
func (s *ReviewService) SetOriginalReviewStatus(ctx context.Context, id string, status domain.ReviewStatus) (bool, error) {
	return s.setStatus(ctx, id, domain.FieldOriginalReviewStatus, status)
}

// SetCurrentTitle stores the edited title; empty text removes it.
func (s *ReviewService) SetCurrentTitle(ctx context.Context, id, text string) (bool, error) {
	return s.setText(ctx, id, domain.FieldCurrentTitle, text)
}

// SetCurrentSummary stores the edited summary; empty text removes it.
func (s *ReviewService) SetCurrentSummary(ctx context.Context, id, text string) (bool, error) {
	return s.setText(ctx, id, domain.FieldCurrentSummary, text)
}

// SetCurrentOriginalArticle stores the edited original article; empty text removes it.
func (s *ReviewService) SetCurrentOriginalArticle(ctx context.Context, id, text string) (bool, error) {
	return s.setText(ctx, id, domain.FieldCurrentOriginalArticle, text)
}

func (s *ReviewService) SetBestByte(ctx context.Context, id string, value bool) (bool, error) {
	return s.mutate(ctx, id, ports.Mutation{Field: domain.FieldBestByte, Value: value})
}

func (s *ReviewService) SetReadyToPublish(ctx context.Context, id string, value bool) (bool, error) {
	return s.mutate(ctx, id, ports.Mutation{Field: domain.FieldReadyToPublish, Value: value})
}

// LockTitle marks one title variant as canonical; TitleLockNone clears the lock.
func (s *ReviewService) LockTitle(ctx context.Context, id string, lock domain.TitleLock) (bool, error) {
	lock, err := domain.ParseTitleLock(string(lock))
	if err != nil {
		return false, err
	}
	if lock == domain.TitleLockNone {
		return s.mutate(ctx, id, ports.Mutation{Field: domain.FieldLockedTitle, Unset: true})
	}
	if err := s.requireVariant(ctx, id, lock.Field()); err != nil {
		return false, err
	}
	return s.mutate(ctx, id, ports.Mutation{Field: domain.FieldLockedTitle, Value: string(lock)})
}

// LockContent marks one content variant as canonical; ContentLockNone clears the lock.
func (s *ReviewService) LockContent(ctx context.Context, id string, lock domain.ContentLock) (bool, error) {
	lock, err := domain.ParseContentLock(string(lock))
	if err != nil {
		return false, err
	}
	if lock == domain.ContentLockNone {
		return s.mutate(ctx, id, ports.Mutation{Field: domain.FieldLockedContent, Unset: true})
	}
	if err := s.requireVariant(ctx, id, lock.Field()); err != nil {
		return false, err
	}
	return s.mutate(ctx, id, ports.Mutation{Field: domain.FieldLockedContent, Value: string(lock)})
}

func (s *ReviewService) setStatus(ctx context.Context, id, field string, status domain.ReviewStatus) (bool, error) {
	status, err := domain.ParseReviewStatus(string(status))
	if err != nil {
		return false, err
	}
	return s.mutate(ctx, id, ports.Mutation{Field: field, Value: string(status)})
}

func (s *ReviewService) setText(ctx context.Context, id, field, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return s.mutate(ctx, id, ports.Mutation{Field: field, Unset: true})
	}
	// Plain text is stored as typed; markup goes through the UGC policy.
	if parser.HasMarkup(text) {
		text = strings.TrimSpace(s.policy.Sanitize(text))
	}
	return s.mutate(ctx, id, ports.Mutation{Field: field, Value: text})
}

func (s *ReviewService) requireVariant(ctx context.Context, id, field string) error {
	b, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if strings.TrimSpace(b.Variant(field)) == "" {
		return fmt.Errorf("%w: %s", ErrLockTargetEmpty, field)
	}
	return nil
}

func (s *ReviewService) mutate(ctx context.Context, id string, m ports.Mutation) (bool, error) {
	oid, err := domain.ParseID(id)
	if err != nil {
		return false, err
	}

	modified, err := s.store.UpdateOne(ctx, predicate.Equals(domain.FieldID, oid), m)
	if err != nil {
		metrics.Mutations.WithLabelValues(m.Field, "error").Inc()
		s.logger.Error("update failed", "id", id, "field", m.Field, "err", err)
		return false, fmt.Errorf("update %s: %w", m.Field, err)
	}

	result := "unchanged"
	if modified {
		result = "modified"
	}
	metrics.Mutations.WithLabelValues(m.Field, result).Inc()
	s.logger.Info("field updated", "id", id, "field", m.Field, "unset", m.Unset, "modified", modified)
	return modified, nil
}
