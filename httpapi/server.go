package httpapi

import (
	"github.com/labstack/echo/v4"

	"tmf.evalgo.org/auth"
	httpcommon "tmf.evalgo.org/http"

	"tmf.evalgo.org/engine"
)

// NewServer builds the Echo server exposing eng's operations over
// HTTP, wrapped in the donor's standard middleware stack
// (http.NewEchoServer) plus bearer-token authentication.
func NewServer(eng *engine.Engine, tokens *auth.TokenService, cfg httpcommon.ServerConfig) *echo.Echo {
	e := httpcommon.NewEchoServer(cfg)
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/healthz", httpcommon.HealthCheckHandler("tmf-engine", ""))
	e.GET("/docs", httpcommon.DocumentationHandler(docsConfig()))

	h := &handlers{engine: eng}

	api := e.Group("/v1")
	api.Use(AuthMiddleware(tokens))

	api.POST("/documents", h.createDocument)
	api.GET("/documents", h.listDocuments)
	api.GET("/documents/:docID", h.getDocument)
	api.GET("/documents/:docID/lineage", h.getLineage)
	api.GET("/documents/:docID/preview", h.previewRevision)
	api.POST("/documents/:docID/corrected-revision", h.uploadCorrectedRevision)
	api.POST("/documents/:docID/revised-revision", h.uploadRevisedRevision)
	api.GET("/tasks", h.listMyTasks)

	api.POST("/documents/:docID/submit-qc", h.submitQC)
	api.POST("/documents/:docID/submit-review-direct", h.submitReviewDirect)
	api.POST("/documents/:docID/submit-review", h.submitReview)
	api.POST("/documents/:docID/submit-approval", h.submitApproval)
	api.POST("/documents/:docID/qc-ballot", h.qcBallot)
	api.POST("/documents/:docID/review-ballot", h.reviewBallot)
	api.POST("/documents/:docID/recall", h.recall)

	api.POST("/documents/:docID/final-approval", h.finalApproval)
	api.GET("/documents/:docID/verify-signature", h.verifySignature)

	api.POST("/documents/:docID/withdraw", h.withdraw)
	api.POST("/documents/:docID/mark-obsolete", h.markObsolete)
	api.POST("/documents/:docID/archive", h.archive)
	api.DELETE("/documents/:docID", h.deleteDocument)
	api.POST("/documents/:docID/amend", h.amend)
	api.GET("/documents/:docID/can-amend", h.canAmend)

	return e
}

// handlers holds the single collaborator every Echo handler needs.
type handlers struct {
	engine *engine.Engine
}

// docsConfig describes the operation list for http.DocumentationHandler.
func docsConfig() httpcommon.ServiceDocConfig {
	return httpcommon.ServiceDocConfig{
		ServiceID:   "tmf-engine",
		ServiceName: "TMF Document Lifecycle Engine",
		Description: "Regulated document lifecycle, review/approval workflow, and audit trail for clinical-trial Trial Master File documents.",
		Capabilities: []string{
			"document-lifecycle", "qc-review-approval", "digital-signature", "audit-trail",
		},
		Endpoints: []httpcommon.EndpointDoc{
			{Method: "POST", Path: "/v1/documents", Description: "create_document"},
			{Method: "GET", Path: "/v1/documents", Description: "list_documents"},
			{Method: "GET", Path: "/v1/documents/:docID", Description: "get_document"},
			{Method: "GET", Path: "/v1/documents/:docID/lineage", Description: "get_lineage"},
			{Method: "GET", Path: "/v1/documents/:docID/preview", Description: "preview_revision"},
			{Method: "POST", Path: "/v1/documents/:docID/corrected-revision", Description: "upload_corrected_revision"},
			{Method: "POST", Path: "/v1/documents/:docID/revised-revision", Description: "upload_revised_revision"},
			{Method: "GET", Path: "/v1/tasks", Description: "list_my_tasks"},
			{Method: "POST", Path: "/v1/documents/:docID/submit-qc", Description: "submit_qc"},
			{Method: "POST", Path: "/v1/documents/:docID/submit-review-direct", Description: "submit_review_direct"},
			{Method: "POST", Path: "/v1/documents/:docID/submit-review", Description: "submit_review"},
			{Method: "POST", Path: "/v1/documents/:docID/submit-approval", Description: "submit_approval"},
			{Method: "POST", Path: "/v1/documents/:docID/qc-ballot", Description: "qc_ballot"},
			{Method: "POST", Path: "/v1/documents/:docID/review-ballot", Description: "review_ballot"},
			{Method: "POST", Path: "/v1/documents/:docID/recall", Description: "recall"},
			{Method: "POST", Path: "/v1/documents/:docID/final-approval", Description: "final_approval"},
			{Method: "GET", Path: "/v1/documents/:docID/verify-signature", Description: "verify_signature"},
			{Method: "POST", Path: "/v1/documents/:docID/withdraw", Description: "withdraw"},
			{Method: "POST", Path: "/v1/documents/:docID/mark-obsolete", Description: "mark_obsolete"},
			{Method: "POST", Path: "/v1/documents/:docID/archive", Description: "archive"},
			{Method: "DELETE", Path: "/v1/documents/:docID", Description: "delete"},
			{Method: "POST", Path: "/v1/documents/:docID/amend", Description: "amend"},
			{Method: "GET", Path: "/v1/documents/:docID/can-amend", Description: "can_amend"},
		},
	}
}
