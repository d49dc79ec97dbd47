package domain

import (
	"fmt"
	"strings"
)

// ReviewStatus enumerates editor decisions on a summary or an original-article extraction.
type ReviewStatus string

const (
	StatusPending  ReviewStatus = "pending"
	StatusAccepted ReviewStatus = "accepted"
	StatusRejected ReviewStatus = "rejected"
)

// Effective folds the absent/empty value into pending.
func (s ReviewStatus) Effective() ReviewStatus {
	if s == "" {
		return StatusPending
	}
	return s
}

// ParseReviewStatus accepts the three enumerated values, case-insensitively.
func ParseReviewStatus(value string) (ReviewStatus, error) {
	switch ReviewStatus(strings.ToLower(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, nil
	case StatusAccepted:
		return StatusAccepted, nil
	case StatusRejected:
		return StatusRejected, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
	}
}

// TitleLock names the title variant consumed by publishing.
type TitleLock string

const (
	TitleLockNone     TitleLock = ""
	TitleLockOriginal TitleLock = "original"
	TitleLockCurrent  TitleLock = "current"
)

// Field returns the stored field the selector points at.
func (l TitleLock) Field() string {
	switch l {
	case TitleLockOriginal:
		return FieldTitle
	case TitleLockCurrent:
		return FieldCurrentTitle
	default:
		return ""
	}
}

// ParseTitleLock validates a title selector; the empty string clears the lock.
func ParseTitleLock(value string) (TitleLock, error) {
	l := TitleLock(strings.TrimSpace(value))
	switch l {
	case TitleLockNone, TitleLockOriginal, TitleLockCurrent:
		return l, nil
	default:
		return "", fmt.Errorf("%w: title %q", ErrInvalidLock, value)
	}
}

// ContentLock names the content variant consumed by publishing.
type ContentLock string

const (
	ContentLockNone            ContentLock = ""
	ContentLockSummary         ContentLock = "summary"
	ContentLockCurrentSummary  ContentLock = "current-summary"
	ContentLockOriginalContent ContentLock = "original-content"
	ContentLockCurrentOriginal ContentLock = "current-original"
)

// Field returns the stored field the selector points at.
func (l ContentLock) Field() string {
	switch l {
	case ContentLockSummary:
		return FieldSummary
	case ContentLockCurrentSummary:
		return FieldCurrentSummary
	case ContentLockOriginalContent:
		return FieldContent
	case ContentLockCurrentOriginal:
		return FieldCurrentOriginalArticle
	default:
		return ""
	}
}

// ParseContentLock validates a content selector; the empty string clears the lock.
func ParseContentLock(value string) (ContentLock, error) {
	l := ContentLock(strings.TrimSpace(value))
	switch l {
	case ContentLockNone, ContentLockSummary, ContentLockCurrentSummary, ContentLockOriginalContent, ContentLockCurrentOriginal:
		return l, nil
	default:
		return "", fmt.Errorf("%w: content %q", ErrInvalidLock, value)
	}
}
