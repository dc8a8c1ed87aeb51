package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unirecords/university-api/internal/service"
	appErrors "github.com/unirecords/university-api/pkg/errors"
	"github.com/unirecords/university-api/pkg/response"
)

// ExportHandler exposes the roster export endpoints.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Register mounts the export routes on the given router.
func (h *ExportHandler) Register(r gin.IRouter) {
	group := r.Group("/api/enrollments/exports")
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.GET("/download/:token", h.Download)
}

// Create godoc
// @Summary Request a course roster export
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body service.CreateExportRequest true "Export payload"
// @Success 201 {object} response.Envelope
// @Router /api/enrollments/exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	var req service.CreateExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	job, err := h.exports.Request(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, job)
}

// Get godoc
// @Summary Get export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Export job ID"
// @Success 200 {object} response.Envelope
// @Router /api/enrollments/exports/{id} [get]
func (h *ExportHandler) Get(c *gin.Context) {
	job, err := h.exports.Status(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job)
}

// Download godoc
// @Summary Download a finished export
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /api/enrollments/exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	download, err := h.exports.Download(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(download.Path, download.Filename)
}
