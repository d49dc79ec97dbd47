package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"ByteReview/internal/confirm"
	"ByteReview/internal/domain"
)

// Flow names exposed to the UI shell.
const (
	FlowSummaryStatus          = "summary-status"
	FlowOriginalStatus         = "original-status"
	FlowCurrentTitle           = "current-title"
	FlowCurrentSummary         = "current-summary"
	FlowCurrentOriginalArticle = "current-original-article"
	FlowBestByte               = "best-byte"
	FlowReadyToPublish         = "ready-to-publish"
	FlowLockTitle              = "lock-title"
	FlowLockContent            = "lock-content"
)

// ErrInvalidDraft is returned when a flag flow receives a non-boolean draft.
var ErrInvalidDraft = errors.New("invalid draft value")

// Flows binds every editor write to a confirmation flow. Drafts are the
// string form of the value being written.
func (s *ReviewService) Flows() []confirm.Flow {
	return []confirm.Flow{
		{Name: FlowSummaryStatus, Apply: func(ctx context.Context, id, draft string) (bool, error) {
			return s.SetSummaryReviewStatus(ctx, id, domain.ReviewStatus(draft))
		}},
		{Name: FlowOriginalStatus, Apply: func(ctx context.Context, id, draft string) (bool, error) {
			return s.SetOriginalReviewStatus(ctx, id, domain.ReviewStatus(draft))
		}},
		{Name: FlowCurrentTitle, Apply: s.SetCurrentTitle},
		{Name: FlowCurrentSummary, Apply: s.SetCurrentSummary},
		{Name: FlowCurrentOriginalArticle, Apply: s.SetCurrentOriginalArticle},
		{Name: FlowBestByte, Apply: boolFlow(s.SetBestByte)},
		{Name: FlowReadyToPublish, Apply: boolFlow(s.SetReadyToPublish)},
		{Name: FlowLockTitle, Apply: func(ctx context.Context, id, draft string) (bool, error) {
			return s.LockTitle(ctx, id, domain.TitleLock(draft))
		}},
		{Name: FlowLockContent, Apply: func(ctx context.Context, id, draft string) (bool, error) {
			return s.LockContent(ctx, id, domain.ContentLock(draft))
		}},
	}
}

func boolFlow(set func(context.Context, string, bool) (bool, error)) confirm.ApplyFunc {
	return func(ctx context.Context, id, draft string) (bool, error) {
		v, err := strconv.ParseBool(draft)
		if err != nil {
			return false, fmt.Errorf("%w: %q: %v", ErrInvalidDraft, draft, err)
		}
		return set(ctx, id, v)
	}
}
