package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

// TimetableHandler exposes the slot engine and timetable views over HTTP.
type TimetableHandler struct {
	timetables *service.TimetableService
	population *service.PopulationService
}

// NewTimetableHandler constructs a new TimetableHandler.
func NewTimetableHandler(timetables *service.TimetableService, population *service.PopulationService) *TimetableHandler {
	return &TimetableHandler{timetables: timetables, population: population}
}

type assignTeacherPayload struct {
	service.SlotKeyRequest
	TeacherID string `json:"teacher_id"`
}

type assignSubjectPayload struct {
	service.SlotKeyRequest
	SubjectID string `json:"subject_id"`
}

// Get godoc
// @Summary Get timetable
// @Description Returns the timetable for a semester and division ordered by day and time
// @Tags Timetable
// @Produce json
// @Param semester path int true "Semester (1-8)"
// @Param division path string true "Division (A/B/C)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/{semester}/{division} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	semester, err := strconv.Atoi(c.Param("semester"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be an integer"))
		return
	}
	division := models.Division(c.Param("division"))

	entries, err := h.timetables.GetTimetable(c.Request.Context(), semester, division)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Structure godoc
// @Summary Get semester structure
// @Description Returns the static mapping of semesters to divisions
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/structure [get]
func (h *TimetableHandler) Structure(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{
		"semesters":   h.timetables.Structure(),
		"days":        models.Weekdays,
		"time_ranges": models.TimeRanges,
	}, nil)
}

// Export godoc
// @Summary Export timetable
// @Description Renders the timetable as CSV or PDF
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Param semester path int true "Semester (1-8)"
// @Param division path string true "Division (A/B/C)"
// @Param format query string false "Export format (csv or pdf)" default(csv)
// @Success 200 {file} byte
// @Router /timetable/{semester}/{division}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	semester, err := strconv.Atoi(c.Param("semester"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be an integer"))
		return
	}
	division := models.Division(c.Param("division"))
	format := c.DefaultQuery("format", "csv")

	payload, contentType, err := h.timetables.Export(c.Request.Context(), semester, division, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("timetable-sem%d-%s.%s", semester, division, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

// Assign godoc
// @Summary Assign subject and/or teacher to a slot
// @Description Creates the slot when missing and sets the supplied references
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body service.AssignSlotRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetable/slots [post]
func (h *TimetableHandler) Assign(c *gin.Context) {
	var req service.AssignSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}

	result, err := h.timetables.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	response.JSON(c, status, result, nil)
}

// AssignTeacher godoc
// @Summary Assign only a teacher to an existing slot
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body handler.assignTeacherPayload true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/slots/teacher [post]
func (h *TimetableHandler) AssignTeacher(c *gin.Context) {
	var req assignTeacherPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}

	slot, err := h.timetables.AssignTeacher(c.Request.Context(), req.SlotKeyRequest, req.TeacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// AssignSubject godoc
// @Summary Assign only a subject to an existing slot
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body handler.assignSubjectPayload true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/slots/subject [post]
func (h *TimetableHandler) AssignSubject(c *gin.Context) {
	var req assignSubjectPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}

	slot, err := h.timetables.AssignSubject(c.Request.Context(), req.SlotKeyRequest, req.SubjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// Clear godoc
// @Summary Clear a slot's subject and teacher
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body service.SlotKeyRequest true "Slot key"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/slots/clear [post]
func (h *TimetableHandler) Clear(c *gin.Context) {
	h.clearWith(c, h.timetables.Clear)
}

// ClearTeacher godoc
// @Summary Clear only the teacher on a slot
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body service.SlotKeyRequest true "Slot key"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/slots/clear-teacher [post]
func (h *TimetableHandler) ClearTeacher(c *gin.Context) {
	h.clearWith(c, h.timetables.ClearTeacher)
}

// ClearSubject godoc
// @Summary Clear only the subject on a slot
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body service.SlotKeyRequest true "Slot key"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/slots/clear-subject [post]
func (h *TimetableHandler) ClearSubject(c *gin.Context) {
	h.clearWith(c, h.timetables.ClearSubject)
}

func (h *TimetableHandler) clearWith(c *gin.Context, clear func(ctx context.Context, req service.SlotKeyRequest) (*models.TimetableSlot, error)) {
	var req service.SlotKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}

	slot, err := clear(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// ClearAll godoc
// @Summary Clear all slot assignments
// @Description Nulls subject and teacher on every slot
// @Tags Timetable
// @Success 204
// @Router /timetable/clear-all [post]
func (h *TimetableHandler) ClearAll(c *gin.Context) {
	if err := h.timetables.ClearAllAssignments(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Generate godoc
// @Summary Generate the slot grid
// @Description Creates missing slots for every semester, day, time range and division
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	report, err := h.population.GenerateSlots(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Populate godoc
// @Summary Randomly populate empty slots
// @Description Fills unassigned subject and teacher fields with random picks
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/populate [post]
func (h *TimetableHandler) Populate(c *gin.Context) {
	report, err := h.population.Populate(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
