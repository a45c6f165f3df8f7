package httpapi

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"tmf.evalgo.org/engine"
	"tmf.evalgo.org/model"
	"tmf.evalgo.org/storage"
)

// createDocument implements create_document.
func (h *handlers) createDocument(c echo.Context) error {
	actorID, ok := GetActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing actor")
	}

	upload, err := readUpload(c)
	if err != nil {
		return err
	}

	metadata := model.TMFMetadata{
		StudyID:     c.FormValue("study_id"),
		Country:     c.FormValue("country"),
		SiteID:      c.FormValue("site_id"),
		TMFZone:     c.FormValue("tmf_zone"),
		TMFSection:  c.FormValue("tmf_section"),
		TMFArtifact: c.FormValue("tmf_artifact"),
	}

	doc, err := h.engine.CreateDocument(c.Request().Context(), actorID, upload, metadata)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, doc)
}

// getDocument implements get_document.
func (h *handlers) getDocument(c echo.Context) error {
	doc, err := h.engine.GetDocument(c.Request().Context(), c.Param("docID"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// getLineage implements get_lineage.
func (h *handlers) getLineage(c echo.Context) error {
	doc, err := h.engine.GetDocument(c.Request().Context(), c.Param("docID"))
	if err != nil {
		return err
	}
	versions, err := h.engine.GetLineage(c.Request().Context(), doc.LineageID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, versions)
}

// listDocuments implements list_documents.
func (h *handlers) listDocuments(c echo.Context) error {
	filter := storage.ListFilter{Search: c.QueryParam("search")}
	if v := c.QueryParam("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}
	if v := c.QueryParam("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}

	docs, err := h.engine.ListDocuments(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, docs)
}

// listMyTasks implements list_my_tasks.
func (h *handlers) listMyTasks(c echo.Context) error {
	actorID, ok := GetActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing actor")
	}
	docs, err := h.engine.ListMyTasks(c.Request().Context(), actorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, docs)
}

// previewRevision implements preview_revision.
func (h *handlers) previewRevision(c echo.Context) error {
	data, contentType, err := h.engine.PreviewRevision(c.Request().Context(), c.Param("docID"))
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, contentType, data)
}

// uploadCorrectedRevision implements upload_corrected_revision.
func (h *handlers) uploadCorrectedRevision(c echo.Context) error {
	return h.replaceRevision(c, h.engine.UploadCorrectedRevision)
}

// uploadRevisedRevision implements upload_revised_revision.
func (h *handlers) uploadRevisedRevision(c echo.Context) error {
	return h.replaceRevision(c, h.engine.UploadRevisedRevision)
}

func (h *handlers) replaceRevision(c echo.Context, op func(ctx context.Context, docID, actorID string, upload engine.RevisionUpload) (*model.Document, error)) error {
	actorID, ok := GetActor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing actor")
	}
	upload, err := readUpload(c)
	if err != nil {
		return err
	}

	doc, err := op(c.Request().Context(), c.Param("docID"), actorID, upload)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// readUpload pulls the multipart "file" field and optional
// "author_comment" field off the request.
func readUpload(c echo.Context) (engine.RevisionUpload, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return engine.RevisionUpload{}, echo.NewHTTPError(http.StatusBadRequest, "a file field is required")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return engine.RevisionUpload{}, echo.NewHTTPError(http.StatusBadRequest, "could not open uploaded file")
	}
	defer f.Close()

	bytes, err := io.ReadAll(f)
	if err != nil {
		return engine.RevisionUpload{}, echo.NewHTTPError(http.StatusBadRequest, "could not read uploaded file")
	}

	contentType := fileHeader.Header.Get(echo.HeaderContentType)
	return engine.RevisionUpload{
		Bytes:         bytes,
		Filename:      fileHeader.Filename,
		ContentType:   contentType,
		AuthorComment: c.FormValue("author_comment"),
	}, nil
}
