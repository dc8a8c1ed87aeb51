package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unirecords/university-api/internal/service"
	appErrors "github.com/unirecords/university-api/pkg/errors"
	"github.com/unirecords/university-api/pkg/response"
)

// EnrollmentHandler exposes the enrollment endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Register mounts the enrollment routes on the given router. The two filter
// routes come before the id route so gin does not shadow them.
func (h *EnrollmentHandler) Register(r gin.IRouter) {
	group := r.Group("/api/enrollments")
	group.GET("", h.List)
	group.GET("/student/:studentId", h.ListByStudent)
	group.GET("/course/:courseId", h.ListByCourse)
	group.GET("/:id", h.Get)
	group.POST("", h.Create)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	enrollments, err := h.enrollments.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments)
}

// Get godoc
// @Summary Get enrollment by ID
// @Tags Enrollments
// @Produce json
// @Param id path int true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /api/enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	enrollment, err := h.enrollments.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// ListByStudent godoc
// @Summary List enrollments for a student
// @Tags Enrollments
// @Produce json
// @Param studentId path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /api/enrollments/student/{studentId} [get]
func (h *EnrollmentHandler) ListByStudent(c *gin.Context) {
	studentID, ok := pathID(c, "studentId")
	if !ok {
		return
	}
	enrollments, err := h.enrollments.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments)
}

// ListByCourse godoc
// @Summary List enrollments for a course
// @Tags Enrollments
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /api/enrollments/course/{courseId} [get]
func (h *EnrollmentHandler) ListByCourse(c *gin.Context) {
	courseID, ok := pathID(c, "courseId")
	if !ok {
		return
	}
	enrollments, err := h.enrollments.ListByCourse(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments)
}

// Create godoc
// @Summary Enroll a student in a course
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.CreateEnrollmentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Router /api/enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req service.CreateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Update godoc
// @Summary Update enrollment
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path int true "Enrollment ID"
// @Param payload body service.UpdateEnrollmentRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope
// @Router /api/enrollments/{id} [put]
func (h *EnrollmentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// Delete godoc
// @Summary Delete enrollment
// @Tags Enrollments
// @Produce json
// @Param id path int true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /api/enrollments/{id} [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.enrollments.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Enrollment deleted successfully")
}
