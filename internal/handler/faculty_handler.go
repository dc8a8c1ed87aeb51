package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unirecords/university-api/internal/service"
	appErrors "github.com/unirecords/university-api/pkg/errors"
	"github.com/unirecords/university-api/pkg/response"
)

// FacultyHandler exposes the faculty record endpoints.
type FacultyHandler struct {
	faculty *service.FacultyService
}

// NewFacultyHandler constructs FacultyHandler.
func NewFacultyHandler(faculty *service.FacultyService) *FacultyHandler {
	return &FacultyHandler{faculty: faculty}
}

// Register mounts the faculty routes on the given router.
func (h *FacultyHandler) Register(r gin.IRouter) {
	group := r.Group("/api/faculty")
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.POST("", h.Create)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
}

// List godoc
// @Summary List faculty members
// @Tags Faculty
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/faculty [get]
func (h *FacultyHandler) List(c *gin.Context) {
	members, err := h.faculty.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members)
}

// Get godoc
// @Summary Get faculty member by ID
// @Tags Faculty
// @Produce json
// @Param id path int true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /api/faculty/{id} [get]
func (h *FacultyHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	member, err := h.faculty.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member)
}

// Create godoc
// @Summary Create faculty member
// @Tags Faculty
// @Accept json
// @Produce json
// @Param payload body service.CreateFacultyRequest true "Faculty payload"
// @Success 201 {object} response.Envelope
// @Router /api/faculty [post]
func (h *FacultyHandler) Create(c *gin.Context) {
	var req service.CreateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.faculty.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// Update godoc
// @Summary Update faculty member
// @Tags Faculty
// @Accept json
// @Produce json
// @Param id path int true "Faculty ID"
// @Param payload body service.UpdateFacultyRequest true "Faculty payload"
// @Success 200 {object} response.Envelope
// @Router /api/faculty/{id} [put]
func (h *FacultyHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.faculty.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member)
}

// Delete godoc
// @Summary Delete faculty member
// @Tags Faculty
// @Produce json
// @Param id path int true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /api/faculty/{id} [delete]
func (h *FacultyHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.faculty.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Faculty member deleted successfully")
}
