package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type finalApprovalRequest struct {
	Approved bool   `json:"approved"`
	Comment  string `json:"comment"`
}

type verifySignatureResponse struct {
	Valid bool `json:"valid"`
}

// finalApproval implements final_approval.
func (h *handlers) finalApproval(c echo.Context) error {
	var req finalApprovalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actorID, ok := GetActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing actor")
	}
	doc, err := h.engine.FinalApproval(c.Request().Context(), c.Param("docID"), actorID, req.Approved, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// verifySignature implements verify_signature.
func (h *handlers) verifySignature(c echo.Context) error {
	valid, err := h.engine.VerifySignature(c.Request().Context(), c.Param("docID"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, verifySignatureResponse{Valid: valid})
}
