package controllers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"relief-claims-api/models"
	"relief-claims-api/services"
)

type DocumentController struct {
	engine   *services.WorkflowEngine
	maxBytes int64
}

func NewDocumentController(engine *services.WorkflowEngine, maxBytes int64) *DocumentController {
	return &DocumentController{engine: engine, maxBytes: maxBytes}
}

// UploadDocument accepts multipart form fields "category" and "file".
func (dc *DocumentController) UploadDocument(c *gin.Context) {
	id, ok := currentIdentity(c)
	if !ok {
		return
	}
	if dc.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, dc.maxBytes+1<<20)
	}

	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		badRequest(c, "file could not be read")
		return
	}
	defer file.Close()

	doc, err := dc.engine.UploadDocument(c.Request.Context(), c.Param("id"), services.DocumentUpload{
		Category: models.DocumentCategory(c.PostForm("category")),
		FileName: header.Filename,
		Size:     header.Size,
		MimeType: header.Header.Get("Content-Type"),
		Body:     file,
	}, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"document": doc, "message": "File uploaded successfully"})
}

// ListDocuments returns the current document of each category.
func (dc *DocumentController) ListDocuments(c *gin.Context) {
	docs, err := dc.engine.ListDocuments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (dc *DocumentController) DownloadDocument(c *gin.Context) {
	doc, body, err := dc.engine.OpenDocument(c.Request.Context(), c.Param("id"), c.Param("document_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer body.Close()

	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, body)
}
