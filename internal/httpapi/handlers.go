package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"ByteReview/internal/confirm"
	"ByteReview/internal/domain"
	"ByteReview/internal/filter"
	"ByteReview/internal/metrics"
	"ByteReview/internal/usecase"
)

type flowRequest struct {
	Event string `json:"event"`
	Draft string `json:"draft"`
}

type flowResponse struct {
	Flow       string        `json:"flow"`
	DocumentID string        `json:"document_id"`
	State      confirm.State `json:"state"`
	Draft      string        `json:"draft,omitempty"`
	Applied    bool          `json:"applied,omitempty"`
	Modified   bool          `json:"modified,omitempty"`
}

func (h *Handler) listBytes(c echo.Context) error {
	f := FacetsFromQuery(c)
	page := atoiOr(c.QueryParam("page"), 1)
	size := atoiOr(c.QueryParam("page_size"), 0)

	result := h.review.GetPage(c.Request().Context(), filter.Build(f), page, size)
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) getByte(c echo.Context) error {
	b, err := h.review.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) facetOptions(c echo.Context) error {
	opts, err := h.review.FacetOptions(c.Request().Context(), FacetsFromQuery(c))
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, opts)
}

func (h *Handler) flowState(c echo.Context) error {
	key, err := flowKey(c)
	if err != nil {
		return h.mapError(err)
	}

	entry, err := h.flows.State(c.Request().Context(), key)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, flowResponse{
		Flow:       key.Flow,
		DocumentID: key.DocumentID,
		State:      entry.State,
		Draft:      entry.Draft,
	})
}

func (h *Handler) fireFlow(c echo.Context) error {
	key, err := flowKey(c)
	if err != nil {
		return h.mapError(err)
	}

	var req flowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	event, err := confirm.ParseEvent(req.Event)
	if err != nil {
		return h.mapError(err)
	}

	tr, err := h.flows.Fire(c.Request().Context(), key, event, req.Draft)
	if err != nil {
		metrics.FlowTransitions.WithLabelValues(key.Flow, string(event), "rejected").Inc()
		return h.mapError(err)
	}
	metrics.FlowTransitions.WithLabelValues(key.Flow, string(event), "ok").Inc()

	return c.JSON(http.StatusOK, flowResponse{
		Flow:       key.Flow,
		DocumentID: key.DocumentID,
		State:      tr.To,
		Draft:      tr.Draft,
		Applied:    tr.Applied,
		Modified:   tr.Modified,
	})
}

// flowKey validates the document id and assigns a session when the client has none.
func flowKey(c echo.Context) (confirm.Key, error) {
	id := c.Param("id")
	if _, err := domain.ParseID(id); err != nil {
		return confirm.Key{}, err
	}

	session := strings.TrimSpace(c.Request().Header.Get(SessionHeader))
	if session == "" {
		session = uuid.NewString()
	}
	c.Response().Header().Set(SessionHeader, session)

	return confirm.Key{SessionID: session, DocumentID: id, Flow: c.Param("flow")}, nil
}

// FacetsFromQuery reads facet selections; unknown values are ignored.
func FacetsFromQuery(c echo.Context) filter.Facets {
	q := c.QueryParams()

	var authors []string
	for _, a := range q["author"] {
		for _, part := range strings.Split(a, ",") {
			if part = strings.TrimSpace(part); part != "" {
				authors = append(authors, part)
			}
		}
	}

	return filter.Facets{
		Authors:        authors,
		SummaryStatus:  filter.ParseStatus(q.Get("summary_status")),
		OriginalStatus: filter.ParseStatus(q.Get("original_status")),
		BestByte:       filter.ParseBool(q.Get("best_byte")),
		Year:           filter.ParseYear(q.Get("year")),
		HasSummary:     filter.ParseChoice(q.Get("has_summary")),
		Edition:        q.Get("edition"),
		IDSearch:       q.Get("q"),
	}
}

func (h *Handler) mapError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidLock),
		errors.Is(err, confirm.ErrUnknownEvent),
		errors.Is(err, usecase.ErrInvalidDraft):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())

	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, confirm.ErrUnknownFlow):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())

	case errors.Is(err, confirm.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())

	case errors.Is(err, usecase.ErrLockTargetEmpty):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())

	default:
		h.logger.Error("request failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func atoiOr(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
