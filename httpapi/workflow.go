package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tmf.evalgo.org/model"
)

type reviewerRequest struct {
	ReviewerIDs []string `json:"reviewer_ids"`
}

type approverRequest struct {
	ApproverID string `json:"approver_id"`
}

type ballotRequest struct {
	Decision model.Decision `json:"decision"`
	Comment  string         `json:"comment"`
}

// submitQC implements submit_qc.
func (h *handlers) submitQC(c echo.Context) error {
	var req reviewerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actorID, ok := GetActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing actor")
	}
	doc, err := h.engine.SubmitQC(c.Request().Context(), c.Param("docID"), actorID, req.ReviewerIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// submitReviewDirect implements submit_review_direct.
func (h *handlers) submitReviewDirect(c echo.Context) error {
	var req reviewerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actorID, ok := GetActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing actor")
	}
	doc, err := h.engine.SubmitReviewDirect(c.Request().Context(), c.Param("docID"), actorID, req.ReviewerIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// submitReview implements submit_review.
func (h *handlers) submitReview(c echo.Context) error {
	var req reviewerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actorID, ok := GetActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing actor")
	}
	doc, err := h.engine.SubmitReview(c.Request().Context(), c.Param("docID"), actorID, req.ReviewerIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// submitApproval implements submit_approval.
func (h *handlers) submitApproval(c echo.Context) error {
	var req approverRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actorID, ok := GetActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing actor")
	}
	doc, err := h.engine.SubmitApproval(c.Request().Context(), c.Param("docID"), actorID, req.ApproverID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// qcBallot implements qc_ballot.
func (h *handlers) qcBallot(c echo.Context) error {
	var req ballotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actorID, ok := GetActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing actor")
	}
	doc, err := h.engine.QCBallot(c.Request().Context(), c.Param("docID"), actorID, req.Decision, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// reviewBallot implements review_ballot.
func (h *handlers) reviewBallot(c echo.Context) error {
	var req ballotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actorID, ok := GetActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing actor")
	}
	doc, err := h.engine.ReviewBallot(c.Request().Context(), c.Param("docID"), actorID, req.Decision, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// recall implements recall.
func (h *handlers) recall(c echo.Context) error {
	actorID, ok := GetActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing actor")
	}
	doc, err := h.engine.Recall(c.Request().Context(), c.Param("docID"), actorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}
