package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

// AssignmentHandler exposes the teacher-subject pairing endpoints.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler constructs a new AssignmentHandler.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// List godoc
// @Summary List teacher-subject pairings
// @Tags Teacher Subjects
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher-subjects [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	pairings, err := h.assignments.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pairings, nil)
}

// Assign godoc
// @Summary Assign a subject to a teacher
// @Tags Teacher Subjects
// @Accept json
// @Produce json
// @Param payload body service.PairRequest true "Pairing payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teacher-subjects [post]
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req service.PairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pairing payload"))
		return
	}
	pairing, err := h.assignments.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pairing)
}

// Remove godoc
// @Summary Remove a teacher-subject pairing
// @Tags Teacher Subjects
// @Accept json
// @Produce json
// @Param payload body service.PairRequest true "Pairing payload"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /teacher-subjects [delete]
func (h *AssignmentHandler) Remove(c *gin.Context) {
	var req service.PairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pairing payload"))
		return
	}
	if err := h.assignments.Remove(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
