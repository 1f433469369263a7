package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
)

type slotRepoStub struct {
	slots   map[models.SlotKey]*models.TimetableSlot
	entries []models.TimetableEntry
}

func (s *slotRepoStub) FindByKey(ctx context.Context, key models.SlotKey) (*models.TimetableSlot, error) {
	if slot, ok := s.slots[key]; ok {
		cp := *slot
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *slotRepoStub) Create(ctx context.Context, slot *models.TimetableSlot) error {
	if s.slots == nil {
		s.slots = make(map[models.SlotKey]*models.TimetableSlot)
	}
	if slot.ID == "" {
		slot.ID = "generated"
	}
	cp := *slot
	s.slots[slot.Key()] = &cp
	return nil
}

func (s *slotRepoStub) UpdateAssignments(ctx context.Context, slot *models.TimetableSlot) error {
	cp := *slot
	s.slots[slot.Key()] = &cp
	return nil
}

func (s *slotRepoStub) ClearAll(ctx context.Context) error { return nil }

func (s *slotRepoStub) ListBySemesterDivision(ctx context.Context, semester int, division models.Division) ([]models.TimetableEntry, error) {
	return s.entries, nil
}

type subjectFinderStub struct{ subjects map[string]*models.Subject }

func (s *subjectFinderStub) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if subject, ok := s.subjects[id]; ok {
		return subject, nil
	}
	return nil, sql.ErrNoRows
}

type teacherFinderStub struct{ teachers map[string]*models.Teacher }

func (s *teacherFinderStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := s.teachers[id]; ok {
		return teacher, nil
	}
	return nil, sql.ErrNoRows
}

func newTimetableHandlerForTest(slots *slotRepoStub) *TimetableHandler {
	subjects := &subjectFinderStub{subjects: map[string]*models.Subject{"s1": {ID: "s1", Semester: 3}}}
	teachers := &teacherFinderStub{teachers: map[string]*models.Teacher{"t1": {ID: "t1"}}}
	svc := service.NewTimetableService(slots, subjects, teachers, nil, time.Minute, validator.New(), zap.NewNop(), nil)
	return NewTimetableHandler(svc, nil)
}

func TestTimetableHandlerGetOrdersEntries(t *testing.T) {
	gin.SetMode(gin.TestMode)
	slots := &slotRepoStub{entries: []models.TimetableEntry{
		{ID: "e2", Semester: 3, Day: models.Tuesday, TimeSlot: "09:00-09:50", Division: "A"},
		{ID: "e1", Semester: 3, Day: models.Monday, TimeSlot: "09:00-09:50", Division: "A"},
	}}
	handler := newTimetableHandlerForTest(slots)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/timetable/3/A", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "semester", Value: "3"}, {Key: "division", Value: "A"}}

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []models.TimetableEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, "e1", envelope.Data[0].ID)
	assert.Equal(t, "e2", envelope.Data[1].ID)
}

func TestTimetableHandlerGetEmptyReturns404(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTimetableHandlerForTest(&slotRepoStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/timetable/3/A", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "semester", Value: "3"}, {Key: "division", Value: "A"}}

	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerAssignCreates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	slots := &slotRepoStub{slots: map[models.SlotKey]*models.TimetableSlot{}}
	handler := newTimetableHandlerForTest(slots)

	body, _ := json.Marshal(map[string]interface{}{
		"semester":   3,
		"day":        "Monday",
		"time_slot":  "09:00-09:50",
		"division":   "A",
		"subject_id": "s1",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/timetable/slots", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Assign(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, slots.slots, 1)
}

func TestTimetableHandlerAssignInvalidDay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTimetableHandlerForTest(&slotRepoStub{})

	body, _ := json.Marshal(map[string]interface{}{
		"semester":  3,
		"day":       "Sunday",
		"time_slot": "09:00-09:50",
		"division":  "A",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/timetable/slots", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Assign(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerClearMissingSlot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTimetableHandlerForTest(&slotRepoStub{slots: map[models.SlotKey]*models.TimetableSlot{}})

	body, _ := json.Marshal(map[string]interface{}{
		"semester":  3,
		"day":       "Monday",
		"time_slot": "09:00-09:50",
		"division":  "A",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/timetable/slots/clear", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Clear(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
