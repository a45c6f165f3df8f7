package httpapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"tmf.evalgo.org/model"
)

type canAmendResponse struct {
	CanAmend    bool   `json:"can_amend"`
	ConflictDoc string `json:"conflict_doc_id,omitempty"`
}

// withdraw implements withdraw.
func (h *handlers) withdraw(c echo.Context) error {
	return h.simpleTransition(c, h.engine.Withdraw)
}

// markObsolete implements mark_obsolete.
func (h *handlers) markObsolete(c echo.Context) error {
	return h.simpleTransition(c, h.engine.MarkObsolete)
}

// archive implements archive.
func (h *handlers) archive(c echo.Context) error {
	return h.simpleTransition(c, h.engine.Archive)
}

func (h *handlers) simpleTransition(c echo.Context, op func(ctx context.Context, docID, actorID string) (*model.Document, error)) error {
	actorID, ok := GetActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing actor")
	}
	doc, err := op(c.Request().Context(), c.Param("docID"), actorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// deleteDocument implements delete.
func (h *handlers) deleteDocument(c echo.Context) error {
	actorID, ok := GetActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing actor")
	}
	if err := h.engine.Delete(c.Request().Context(), c.Param("docID"), actorID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// amend implements amend.
func (h *handlers) amend(c echo.Context) error {
	actorID, ok := GetActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing actor")
	}
	upload, err := readUpload(c)
	if err != nil {
		return err
	}
	doc, err := h.engine.Amend(c.Request().Context(), c.Param("docID"), actorID, upload)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, doc)
}

// canAmend implements can_amend.
func (h *handlers) canAmend(c echo.Context) error {
	ok, conflictDocID, err := h.engine.CanAmend(c.Request().Context(), c.Param("docID"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, canAmendResponse{CanAmend: ok, ConflictDoc: conflictDocID})
}
