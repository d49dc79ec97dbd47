package usecase

import (
	"context"
	"fmt"

	"ByteReview/internal/domain"
	"ByteReview/internal/metrics"
	"ByteReview/internal/ports"
	"ByteReview/internal/predicate"
)

// Page is one window of a filtered result.
type Page struct {
	Documents      []domain.Byte `json:"documents"`
	PageNumber     int           `json:"page_number"`
	TotalPages     int           `json:"total_pages"`
	TotalDocuments int64         `json:"total_documents"`
	PageSize       int           `json:"page_size"`
	// Degraded is set when the store failed and the page was replaced by an empty one.
	Degraded bool `json:"degraded,omitempty"`
}

// TotalPages is ceil(total/pageSize), zero for an empty result.
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	size := int64(pageSize)
	return int((total + size - 1) / size)
}

// FetchPage counts the matches and fetches the requested window in natural
// storage order. Records that cannot be decoded are logged and left out. Page numbers past the end yield an empty page and are not
// clamped; numbers below 1 are served as page 1. A non-positive pageSize uses
// the configured default.
func (s *ReviewService) FetchPage(ctx context.Context, p predicate.Predicate, pageNumber, pageSize int) (Page, error) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize <= 0 {
		pageSize = s.pageSize
	}

	total, err := s.store.Count(ctx, p)
	if err != nil {
		return Page{}, fmt.Errorf("count bytes: %w", err)
	}

	page := Page{
		Documents:      []domain.Byte{},
		PageNumber:     pageNumber,
		TotalPages:     TotalPages(total, pageSize),
		TotalDocuments: total,
		PageSize:       pageSize,
	}

	skip := int64(pageNumber-1) * int64(pageSize)
	if skip >= total {
		return page, nil
	}

	docs, err := s.store.Find(ctx, p, ports.FindOptions{Skip: skip, Limit: int64(pageSize)})
	if err != nil {
		return Page{}, fmt.Errorf("find bytes: %w", err)
	}

	for _, doc := range docs {
		b, err := domain.DecodeByte(doc)
		if err != nil {
			// one unreadable record must not hide the rest of the page
			s.logger.Warn("skipping undecodable byte", "id", doc[domain.FieldID], "err", err)
			metrics.PageRequests.WithLabelValues("skipped_record").Inc()
			continue
		}
		page.Documents = append(page.Documents, b)
	}
	return page, nil
}

// GetPage is FetchPage that never fails: a store error is logged and an
// empty first page with Degraded set is returned instead.
func (s *ReviewService) GetPage(ctx context.Context, p predicate.Predicate, pageNumber, pageSize int) Page {
	page, err := s.FetchPage(ctx, p, pageNumber, pageSize)
	if err != nil {
		metrics.PageRequests.WithLabelValues("degraded").Inc()
		s.logger.Error("fetch page failed", "filter", p.String(), "page", pageNumber, "err", err)

		if pageSize <= 0 {
			pageSize = s.pageSize
		}
		return Page{
			Documents:  []domain.Byte{},
			PageNumber: 1,
			PageSize:   pageSize,
			Degraded:   true,
		}
	}

	metrics.PageRequests.WithLabelValues("ok").Inc()
	return page
}
