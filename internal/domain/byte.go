package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stored field names of the extracted byte collection.
const (
	FieldID                     = "_id"
	FieldSourceDocument         = "pdf_name"
	FieldAuthor                 = "Author"
	FieldYear                   = "Year"
	FieldCategory               = "Category"
	FieldSubcategory            = "Subcategory"
	FieldExternalID             = "uuid"
	FieldChunkNumber            = "chunk_number"
	FieldIsFragment             = "is_fragment"
	FieldFragmentConfidence     = "fragment_confidence"
	FieldTitle                  = "Title"
	FieldContent                = "Content"
	FieldSummary                = "content_summary"
	FieldCurrentTitle           = "current_title"
	FieldCurrentSummary         = "current_summary"
	FieldCurrentOriginalArticle = "current_origina_article"
	FieldSummaryReviewStatus    = "summary_review_status"
	FieldOriginalReviewStatus   = "orgnl_artcl_rv_sts"
	FieldBestByte               = "Best_byte"
	FieldReadyToPublish         = "ready_to_publish"
	FieldLockedTitle            = "locked_title"
	FieldLockedContent          = "locked_content"
	FieldTitleImageURL          = "title_image_url"
	FieldAudioURL               = "audio_url"
	FieldReviewedByLLM          = "reviewed_by_llm"
	FieldLLMReview              = "llm_review"
)

var (
	// ErrInvalidID is returned when a document identity cannot be parsed.
	ErrInvalidID = errors.New("invalid document id")
	// ErrInvalidStatus is returned for review statuses outside the enum.
	ErrInvalidStatus = errors.New("invalid review status")
	// ErrInvalidLock is returned for unknown lock selectors.
	ErrInvalidLock = errors.New("invalid lock selector")
	// ErrNotFound is returned when no record matches an identity.
	ErrNotFound = errors.New("byte not found")
)

// Document is a raw stored record keyed by stored field names.
type Document map[string]any

// Byte is one extracted article record.
type Byte struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SourceDocument     string             `bson:"pdf_name,omitempty" json:"pdf_name,omitempty"`
	Author             string             `bson:"Author,omitempty" json:"author,omitempty"`
	Year               int                `bson:"Year,omitempty" json:"year,omitempty"`
	Category           string             `bson:"Category,omitempty" json:"category,omitempty"`
	Subcategory        string             `bson:"Subcategory,omitempty" json:"subcategory,omitempty"`
	ExternalID         string             `bson:"uuid,omitempty" json:"uuid,omitempty"`
	ChunkNumber        int                `bson:"chunk_number,omitempty" json:"chunk_number,omitempty"`
	IsFragment         bool               `bson:"is_fragment,omitempty" json:"is_fragment"`
	FragmentConfidence float64            `bson:"fragment_confidence,omitempty" json:"fragment_confidence,omitempty"`

	Title   string `bson:"Title,omitempty" json:"title"`
	Content string `bson:"Content,omitempty" json:"content"`

	Summary                string `bson:"content_summary,omitempty" json:"content_summary,omitempty"`
	CurrentTitle           string `bson:"current_title,omitempty" json:"current_title,omitempty"`
	CurrentSummary         string `bson:"current_summary,omitempty" json:"current_summary,omitempty"`
	CurrentOriginalArticle string `bson:"current_origina_article,omitempty" json:"current_original_article,omitempty"`

	SummaryReviewStatus  ReviewStatus `bson:"summary_review_status,omitempty" json:"summary_review_status"`
	OriginalReviewStatus ReviewStatus `bson:"orgnl_artcl_rv_sts,omitempty" json:"original_review_status"`

	BestByte       bool `bson:"Best_byte,omitempty" json:"best_byte"`
	ReadyToPublish bool `bson:"ready_to_publish,omitempty" json:"ready_to_publish"`

	LockedTitle   TitleLock   `bson:"locked_title,omitempty" json:"locked_title,omitempty"`
	LockedContent ContentLock `bson:"locked_content,omitempty" json:"locked_content,omitempty"`

	TitleImageURL string `bson:"title_image_url,omitempty" json:"title_image_url,omitempty"`
	AudioURL      string `bson:"audio_url,omitempty" json:"audio_url,omitempty"`

	ReviewedByLLM int        `bson:"reviewed_by_llm,omitempty" json:"-"`
	LLMReview     *LLMReview `bson:"llm_review,omitempty" json:"llm_review,omitempty"`
}

// LLMReview is the read-only assessment attached by the external reviewer.
type LLMReview struct {
	DescribesSpecificProblem   bool   `bson:"describes_specific_problem" json:"describes_specific_problem"`
	ProblemExplanation         string `bson:"problem_explanation" json:"problem_explanation"`
	ProvidesActionableInsights bool   `bson:"provides_actionable_insights" json:"provides_actionable_insights"`
	InsightsExplanation        string `bson:"insights_explanation" json:"insights_explanation"`
	AvoidsFirstPerson          bool   `bson:"avoids_first_person" json:"avoids_first_person"`
	WritingStyleExplanation    string `bson:"writing_style_explanation" json:"writing_style_explanation"`
	LengthAppropriate          bool   `bson:"length_appropriate" json:"length_appropriate"`
	ActualWordCount            int    `bson:"actual_word_count" json:"actual_word_count"`
	Recommendations            string `bson:"recommendations" json:"recommendations"`
}

// HasLLMReview reports whether the reviewer block should be shown.
func (b Byte) HasLLMReview() bool {
	return b.ReviewedByLLM == 1 && b.LLMReview != nil
}

// Variant returns the text stored under a title or content variant field.
func (b Byte) Variant(field string) string {
	switch field {
	case FieldTitle:
		return b.Title
	case FieldCurrentTitle:
		return b.CurrentTitle
	case FieldSummary:
		return b.Summary
	case FieldCurrentSummary:
		return b.CurrentSummary
	case FieldContent:
		return b.Content
	case FieldCurrentOriginalArticle:
		return b.CurrentOriginalArticle
	default:
		return ""
	}
}

// ParseID converts the hex identity used by callers into a store identity.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

// DecodeByte maps a raw document onto a Byte through its bson tags.
// Numeric and flag fields stored as strings are converted first; a string
// that does not parse is dropped. Absent review statuses read as pending.
func DecodeByte(doc Document) (Byte, error) {
	var b Byte
	raw, err := bson.Marshal(coerceScalars(doc))
	if err != nil {
		return b, fmt.Errorf("marshal document: %w", err)
	}
	if err := bson.Unmarshal(raw, &b); err != nil {
		return b, fmt.Errorf("decode byte: %w", err)
	}
	b.SummaryReviewStatus = b.SummaryReviewStatus.Effective()
	b.OriginalReviewStatus = b.OriginalReviewStatus.Effective()
	return b, nil
}

var (
	intFields   = []string{FieldYear, FieldChunkNumber, FieldReviewedByLLM}
	floatFields = []string{FieldFragmentConfidence}
	boolFields  = []string{FieldBestByte, FieldReadyToPublish, FieldIsFragment}
)

// coerceScalars returns doc, or a copy of it with string-typed scalar fields
// converted to the type Byte expects.
func coerceScalars(doc Document) Document {
	var out Document
	set := func(field string, v any, ok bool) {
		if out == nil {
			out = make(Document, len(doc))
			for k, val := range doc {
				out[k] = val
			}
		}
		if ok {
			out[field] = v
		} else {
			delete(out, field)
		}
	}

	for _, f := range intFields {
		if s, isString := doc[f].(string); isString {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			set(f, n, err == nil)
		}
	}
	for _, f := range floatFields {
		if s, isString := doc[f].(string); isString {
			n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			set(f, n, err == nil)
		}
	}
	for _, f := range boolFields {
		if s, isString := doc[f].(string); isString {
			v, err := strconv.ParseBool(strings.TrimSpace(s))
			set(f, v, err == nil)
		}
	}

	if out == nil {
		return doc
	}
	return out
}
