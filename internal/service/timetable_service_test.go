package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type mockSlotRepo struct {
	slots   map[models.SlotKey]*models.TimetableSlot
	entries []models.TimetableEntry
	listErr error
	cleared bool
}

func (m *mockSlotRepo) FindByKey(ctx context.Context, key models.SlotKey) (*models.TimetableSlot, error) {
	if slot, ok := m.slots[key]; ok {
		cp := *slot
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSlotRepo) Create(ctx context.Context, slot *models.TimetableSlot) error {
	if m.slots == nil {
		m.slots = make(map[models.SlotKey]*models.TimetableSlot)
	}
	if slot.ID == "" {
		slot.ID = "generated"
	}
	cp := *slot
	m.slots[slot.Key()] = &cp
	return nil
}

func (m *mockSlotRepo) UpdateAssignments(ctx context.Context, slot *models.TimetableSlot) error {
	cp := *slot
	m.slots[slot.Key()] = &cp
	return nil
}

func (m *mockSlotRepo) ClearAll(ctx context.Context) error {
	m.cleared = true
	for _, slot := range m.slots {
		slot.SubjectID = nil
		slot.TeacherID = nil
	}
	return nil
}

func (m *mockSlotRepo) ListBySemesterDivision(ctx context.Context, semester int, division models.Division) ([]models.TimetableEntry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.entries, nil
}

type mockSubjectFinder struct {
	subjects map[string]*models.Subject
}

func (m *mockSubjectFinder) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if subject, ok := m.subjects[id]; ok {
		return subject, nil
	}
	return nil, sql.ErrNoRows
}

type mockTeacherFinder struct {
	teachers map[string]*models.Teacher
}

func (m *mockTeacherFinder) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := m.teachers[id]; ok {
		return teacher, nil
	}
	return nil, sql.ErrNoRows
}

type mockCache struct {
	store   map[string][]byte
	deleted []string
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.store == nil {
		m.store = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = raw
	return nil
}

func (m *mockCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	m.store = nil
	return nil
}

func newTimetableServiceForTest(slots *mockSlotRepo, subjects *mockSubjectFinder, teachers *mockTeacherFinder, cache *mockCache) *TimetableService {
	return NewTimetableService(slots, subjects, teachers, cache, time.Minute, validator.New(), zap.NewNop(), nil)
}

func validKey() SlotKeyRequest {
	return SlotKeyRequest{Semester: 3, Day: "Monday", TimeSlot: "09:00-09:50", Division: "A"}
}

func TestAssignCreatesMissingSlot(t *testing.T) {
	slots := &mockSlotRepo{slots: map[models.SlotKey]*models.TimetableSlot{}}
	subjects := &mockSubjectFinder{subjects: map[string]*models.Subject{"s1": {ID: "s1", Semester: 3}}}
	teachers := &mockTeacherFinder{teachers: map[string]*models.Teacher{"t1": {ID: "t1"}}}
	cache := &mockCache{}
	svc := newTimetableServiceForTest(slots, subjects, teachers, cache)

	subjectID := "s1"
	result, err := svc.Assign(context.Background(), AssignSlotRequest{SlotKeyRequest: validKey(), SubjectID: &subjectID})
	require.NoError(t, err)
	assert.True(t, result.Created)
	require.NotNil(t, result.Slot.SubjectID)
	assert.Equal(t, "s1", *result.Slot.SubjectID)
	assert.Nil(t, result.Slot.TeacherID)
	assert.Contains(t, cache.deleted, "timetable:*")
}

func TestAssignUpdatesExistingSlotAndComposes(t *testing.T) {
	slots := &mockSlotRepo{slots: map[models.SlotKey]*models.TimetableSlot{}}
	subjects := &mockSubjectFinder{subjects: map[string]*models.Subject{"s1": {ID: "s1"}}}
	teachers := &mockTeacherFinder{teachers: map[string]*models.Teacher{"t1": {ID: "t1"}}}
	svc := newTimetableServiceForTest(slots, subjects, teachers, &mockCache{})

	subjectID := "s1"
	first, err := svc.Assign(context.Background(), AssignSlotRequest{SlotKeyRequest: validKey(), SubjectID: &subjectID})
	require.NoError(t, err)
	assert.True(t, first.Created)

	teacherID := "t1"
	second, err := svc.Assign(context.Background(), AssignSlotRequest{SlotKeyRequest: validKey(), TeacherID: &teacherID})
	require.NoError(t, err)
	assert.False(t, second.Created)

	// The earlier subject assignment survives the teacher-only update.
	require.NotNil(t, second.Slot.SubjectID)
	assert.Equal(t, "s1", *second.Slot.SubjectID)
	require.NotNil(t, second.Slot.TeacherID)
	assert.Equal(t, "t1", *second.Slot.TeacherID)
}

func TestAssignRejectsUnknownReferences(t *testing.T) {
	slots := &mockSlotRepo{slots: map[models.SlotKey]*models.TimetableSlot{}}
	svc := newTimetableServiceForTest(slots, &mockSubjectFinder{}, &mockTeacherFinder{}, &mockCache{})

	subjectID := "missing"
	_, err := svc.Assign(context.Background(), AssignSlotRequest{SlotKeyRequest: validKey(), SubjectID: &subjectID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, slots.slots)
}

func TestAssignRejectsInvalidKey(t *testing.T) {
	svc := newTimetableServiceForTest(&mockSlotRepo{}, &mockSubjectFinder{}, &mockTeacherFinder{}, &mockCache{})

	cases := []SlotKeyRequest{
		{Semester: 3, Day: "Sunday", TimeSlot: "09:00-09:50", Division: "A"},
		{Semester: 3, Day: "Monday", TimeSlot: "08:00-08:50", Division: "A"},
		{Semester: 4, Day: "Monday", TimeSlot: "09:00-09:50", Division: "B"},
		{Semester: 9, Day: "Monday", TimeSlot: "09:00-09:50", Division: "A"},
	}
	for _, key := range cases {
		_, err := svc.Assign(context.Background(), AssignSlotRequest{SlotKeyRequest: key})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestAssignTeacherDoesNotCreateSlot(t *testing.T) {
	slots := &mockSlotRepo{slots: map[models.SlotKey]*models.TimetableSlot{}}
	teachers := &mockTeacherFinder{teachers: map[string]*models.Teacher{"t1": {ID: "t1"}}}
	svc := newTimetableServiceForTest(slots, &mockSubjectFinder{}, teachers, &mockCache{})

	_, err := svc.AssignTeacher(context.Background(), validKey(), "t1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, slots.slots)
}

func TestAssignSubjectDoesNotCreateSlot(t *testing.T) {
	slots := &mockSlotRepo{slots: map[models.SlotKey]*models.TimetableSlot{}}
	subjects := &mockSubjectFinder{subjects: map[string]*models.Subject{"s1": {ID: "s1"}}}
	svc := newTimetableServiceForTest(slots, subjects, &mockTeacherFinder{}, &mockCache{})

	_, err := svc.AssignSubject(context.Background(), validKey(), "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClearNullsBothFields(t *testing.T) {
	subjectID, teacherID := "s1", "t1"
	key := validKey()
	slotKey := models.SlotKey{Semester: 3, Day: models.Monday, TimeSlot: "09:00-09:50", Division: "A"}
	slots := &mockSlotRepo{slots: map[models.SlotKey]*models.TimetableSlot{
		slotKey: {ID: "slot1", Semester: 3, Day: models.Monday, TimeSlot: "09:00-09:50", Division: "A", SubjectID: &subjectID, TeacherID: &teacherID},
	}}
	svc := newTimetableServiceForTest(slots, &mockSubjectFinder{}, &mockTeacherFinder{}, &mockCache{})

	slot, err := svc.Clear(context.Background(), key)
	require.NoError(t, err)
	assert.Nil(t, slot.SubjectID)
	assert.Nil(t, slot.TeacherID)

	// Clearing an already-empty slot is not an error.
	_, err = svc.Clear(context.Background(), key)
	require.NoError(t, err)
}

func TestClearTeacherKeepsSubject(t *testing.T) {
	subjectID, teacherID := "s1", "t1"
	slotKey := models.SlotKey{Semester: 3, Day: models.Monday, TimeSlot: "09:00-09:50", Division: "A"}
	slots := &mockSlotRepo{slots: map[models.SlotKey]*models.TimetableSlot{
		slotKey: {ID: "slot1", Semester: 3, Day: models.Monday, TimeSlot: "09:00-09:50", Division: "A", SubjectID: &subjectID, TeacherID: &teacherID},
	}}
	svc := newTimetableServiceForTest(slots, &mockSubjectFinder{}, &mockTeacherFinder{}, &mockCache{})

	slot, err := svc.ClearTeacher(context.Background(), validKey())
	require.NoError(t, err)
	require.NotNil(t, slot.SubjectID)
	assert.Equal(t, "s1", *slot.SubjectID)
	assert.Nil(t, slot.TeacherID)
}

func TestClearMissingSlotIsNotFound(t *testing.T) {
	svc := newTimetableServiceForTest(&mockSlotRepo{slots: map[models.SlotKey]*models.TimetableSlot{}}, &mockSubjectFinder{}, &mockTeacherFinder{}, &mockCache{})

	_, err := svc.Clear(context.Background(), validKey())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClearAllAssignments(t *testing.T) {
	subjectID := "s1"
	slotKey := models.SlotKey{Semester: 3, Day: models.Monday, TimeSlot: "09:00-09:50", Division: "A"}
	slots := &mockSlotRepo{slots: map[models.SlotKey]*models.TimetableSlot{
		slotKey: {ID: "slot1", Semester: 3, Day: models.Monday, TimeSlot: "09:00-09:50", Division: "A", SubjectID: &subjectID},
	}}
	cache := &mockCache{}
	svc := newTimetableServiceForTest(slots, &mockSubjectFinder{}, &mockTeacherFinder{}, cache)

	require.NoError(t, svc.ClearAllAssignments(context.Background()))
	assert.True(t, slots.cleared)
	assert.Nil(t, slots.slots[slotKey].SubjectID)
	assert.Contains(t, cache.deleted, "timetable:*")
}

func TestGetTimetableOrdersByDayThenTime(t *testing.T) {
	slots := &mockSlotRepo{entries: []models.TimetableEntry{
		{ID: "e3", Semester: 3, Day: models.Wednesday, TimeSlot: "09:00-09:50", Division: "A"},
		{ID: "e2", Semester: 3, Day: models.Monday, TimeSlot: "09:50-10:40", Division: "A"},
		{ID: "e1", Semester: 3, Day: models.Monday, TimeSlot: "09:00-09:50", Division: "A"},
	}}
	svc := newTimetableServiceForTest(slots, &mockSubjectFinder{}, &mockTeacherFinder{}, &mockCache{})

	entries, err := svc.GetTimetable(context.Background(), 3, "A")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "e1", entries[0].ID)
	assert.Equal(t, "e2", entries[1].ID)
	assert.Equal(t, "e3", entries[2].ID)
}

func TestGetTimetableEmptyIsNotFound(t *testing.T) {
	svc := newTimetableServiceForTest(&mockSlotRepo{}, &mockSubjectFinder{}, &mockTeacherFinder{}, &mockCache{})

	_, err := svc.GetTimetable(context.Background(), 3, "A")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGetTimetableServesFromCache(t *testing.T) {
	slots := &mockSlotRepo{entries: []models.TimetableEntry{
		{ID: "e1", Semester: 3, Day: models.Monday, TimeSlot: "09:00-09:50", Division: "A"},
	}}
	cache := &mockCache{}
	svc := newTimetableServiceForTest(slots, &mockSubjectFinder{}, &mockTeacherFinder{}, cache)

	first, err := svc.GetTimetable(context.Background(), 3, "A")
	require.NoError(t, err)

	slots.listErr = errors.New("db down")
	second, err := svc.GetTimetable(context.Background(), 3, "A")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetTimetableInvalidDivision(t *testing.T) {
	svc := newTimetableServiceForTest(&mockSlotRepo{}, &mockSubjectFinder{}, &mockTeacherFinder{}, &mockCache{})

	_, err := svc.GetTimetable(context.Background(), 4, "B")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportCSV(t *testing.T) {
	subjectName, teacherName := "Data Structures", "Asha Sharma"
	slots := &mockSlotRepo{entries: []models.TimetableEntry{
		{ID: "e1", Semester: 3, Day: models.Monday, TimeSlot: "09:00-09:50", Division: "A", SubjectName: &subjectName, TeacherName: &teacherName},
	}}
	svc := newTimetableServiceForTest(slots, &mockSubjectFinder{}, &mockTeacherFinder{}, &mockCache{})

	payload, contentType, err := svc.Export(context.Background(), 3, "A", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(payload), "Data Structures")
	assert.Contains(t, string(payload), "Asha Sharma")
}

func TestExportUnknownFormat(t *testing.T) {
	slots := &mockSlotRepo{entries: []models.TimetableEntry{
		{ID: "e1", Semester: 3, Day: models.Monday, TimeSlot: "09:00-09:50", Division: "A"},
	}}
	svc := newTimetableServiceForTest(slots, &mockSubjectFinder{}, &mockTeacherFinder{}, &mockCache{})

	_, _, err := svc.Export(context.Background(), 3, "A", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
