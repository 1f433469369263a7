package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/export"
)

type timetableRepository interface {
	FindByKey(ctx context.Context, key models.SlotKey) (*models.TimetableSlot, error)
	Create(ctx context.Context, slot *models.TimetableSlot) error
	UpdateAssignments(ctx context.Context, slot *models.TimetableSlot) error
	ClearAll(ctx context.Context) error
	ListBySemesterDivision(ctx context.Context, semester int, division models.Division) ([]models.TimetableEntry, error)
}

type slotSubjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type slotTeacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// SlotKeyRequest identifies a timetable slot by its 4-tuple.
type SlotKeyRequest struct {
	Semester int    `json:"semester" validate:"required,min=1,max=8"`
	Day      string `json:"day" validate:"required"`
	TimeSlot string `json:"time_slot" validate:"required"`
	Division string `json:"division" validate:"required"`
}

// AssignSlotRequest assigns a subject and/or teacher to a slot. Omitted
// references leave the corresponding field untouched.
type AssignSlotRequest struct {
	SlotKeyRequest
	SubjectID *string `json:"subject_id"`
	TeacherID *string `json:"teacher_id"`
}

// SlotMutationResult reports the outcome of a slot mutation.
type SlotMutationResult struct {
	Slot    *models.TimetableSlot `json:"slot"`
	Created bool                  `json:"created"`
}

// TimetableService implements the slot-assignment engine and timetable reads.
type TimetableService struct {
	slots     timetableRepository
	subjects  slotSubjectRepository
	teachers  slotTeacherRepository
	cache     timetableCache
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewTimetableService constructs a TimetableService.
func NewTimetableService(slots timetableRepository, subjects slotSubjectRepository, teachers slotTeacherRepository, cache timetableCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		slots:     slots,
		subjects:  subjects,
		teachers:  teachers,
		cache:     cache,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
	}
}

// resolveKey validates the request against the fixed weekday, time range and
// division tables and returns the typed slot key.
func (s *TimetableService) resolveKey(req SlotKeyRequest) (models.SlotKey, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.SlotKey{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot key")
	}

	day := models.Weekday(req.Day)
	if models.WeekdayIndex(day) < 0 {
		return models.SlotKey{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q", req.Day))
	}
	tr := models.TimeRange(req.TimeSlot)
	if models.TimeRangeIndex(tr) < 0 {
		return models.SlotKey{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown time slot %q", req.TimeSlot))
	}
	division := models.Division(req.Division)
	if !models.ValidDivision(req.Semester, division) {
		return models.SlotKey{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("division %q is not offered in semester %d", req.Division, req.Semester))
	}

	return models.SlotKey{Semester: req.Semester, Day: day, TimeSlot: tr, Division: division}, nil
}

func (s *TimetableService) findSlot(ctx context.Context, key models.SlotKey) (*models.TimetableSlot, error) {
	slot, err := s.slots.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable slot")
	}
	return slot, nil
}

func (s *TimetableService) resolveSubject(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.subjects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

func (s *TimetableService) resolveTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

func (s *TimetableService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "timetable:*"); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.Error(err))
	}
}

// Assign sets the supplied subject and/or teacher on the slot, creating the
// slot when it does not exist yet. Fields not supplied keep their value.
func (s *TimetableService) Assign(ctx context.Context, req AssignSlotRequest) (*SlotMutationResult, error) {
	key, err := s.resolveKey(req.SlotKeyRequest)
	if err != nil {
		return nil, err
	}

	if req.SubjectID != nil {
		if _, err := s.resolveSubject(ctx, *req.SubjectID); err != nil {
			return nil, err
		}
	}
	if req.TeacherID != nil {
		if _, err := s.resolveTeacher(ctx, *req.TeacherID); err != nil {
			return nil, err
		}
	}

	slot, err := s.slots.FindByKey(ctx, key)
	created := false
	switch {
	case err == nil:
	case errors.Is(err, sql.ErrNoRows):
		created = true
		slot = &models.TimetableSlot{
			Semester: key.Semester,
			Day:      key.Day,
			TimeSlot: key.TimeSlot,
			Division: key.Division,
		}
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable slot")
	}

	if req.SubjectID != nil {
		slot.SubjectID = req.SubjectID
	}
	if req.TeacherID != nil {
		slot.TeacherID = req.TeacherID
	}

	if created {
		err = s.slots.Create(ctx, slot)
	} else {
		err = s.slots.UpdateAssignments(ctx, slot)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable slot")
	}

	s.invalidate(ctx)
	s.metrics.RecordSlotMutation("assign")
	s.logger.Info("slot assigned",
		zap.Int("semester", key.Semester),
		zap.String("day", string(key.Day)),
		zap.String("time_slot", string(key.TimeSlot)),
		zap.String("division", string(key.Division)),
		zap.Bool("created", created),
	)

	return &SlotMutationResult{Slot: slot, Created: created}, nil
}

// AssignTeacher sets only the teacher on an existing slot. Unlike Assign it
// does not create missing slots.
func (s *TimetableService) AssignTeacher(ctx context.Context, req SlotKeyRequest, teacherID string) (*models.TimetableSlot, error) {
	key, err := s.resolveKey(req)
	if err != nil {
		return nil, err
	}
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher_id is required")
	}
	if _, err := s.resolveTeacher(ctx, teacherID); err != nil {
		return nil, err
	}

	slot, err := s.findSlot(ctx, key)
	if err != nil {
		return nil, err
	}

	slot.TeacherID = &teacherID
	if err := s.slots.UpdateAssignments(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable slot")
	}

	s.invalidate(ctx)
	s.metrics.RecordSlotMutation("assign_teacher")
	return slot, nil
}

// AssignSubject sets only the subject on an existing slot.
func (s *TimetableService) AssignSubject(ctx context.Context, req SlotKeyRequest, subjectID string) (*models.TimetableSlot, error) {
	key, err := s.resolveKey(req)
	if err != nil {
		return nil, err
	}
	if subjectID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject_id is required")
	}
	if _, err := s.resolveSubject(ctx, subjectID); err != nil {
		return nil, err
	}

	slot, err := s.findSlot(ctx, key)
	if err != nil {
		return nil, err
	}

	slot.SubjectID = &subjectID
	if err := s.slots.UpdateAssignments(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable slot")
	}

	s.invalidate(ctx)
	s.metrics.RecordSlotMutation("assign_subject")
	return slot, nil
}

// Clear nulls both the subject and teacher on the slot. Clearing an
// already-empty slot succeeds.
func (s *TimetableService) Clear(ctx context.Context, req SlotKeyRequest) (*models.TimetableSlot, error) {
	return s.clear(ctx, req, true, true)
}

// ClearTeacher nulls only the teacher reference.
func (s *TimetableService) ClearTeacher(ctx context.Context, req SlotKeyRequest) (*models.TimetableSlot, error) {
	return s.clear(ctx, req, false, true)
}

// ClearSubject nulls only the subject reference.
func (s *TimetableService) ClearSubject(ctx context.Context, req SlotKeyRequest) (*models.TimetableSlot, error) {
	return s.clear(ctx, req, true, false)
}

func (s *TimetableService) clear(ctx context.Context, req SlotKeyRequest, subject, teacher bool) (*models.TimetableSlot, error) {
	key, err := s.resolveKey(req)
	if err != nil {
		return nil, err
	}

	slot, err := s.findSlot(ctx, key)
	if err != nil {
		return nil, err
	}

	if subject {
		slot.SubjectID = nil
	}
	if teacher {
		slot.TeacherID = nil
	}
	if err := s.slots.UpdateAssignments(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable slot")
	}

	s.invalidate(ctx)
	s.metrics.RecordSlotMutation("clear")
	s.logger.Info("slot cleared",
		zap.Int("semester", key.Semester),
		zap.String("day", string(key.Day)),
		zap.String("time_slot", string(key.TimeSlot)),
		zap.String("division", string(key.Division)),
		zap.Bool("subject", subject),
		zap.Bool("teacher", teacher),
	)
	return slot, nil
}

// ClearAllAssignments nulls subject and teacher on every slot in the store.
func (s *TimetableService) ClearAllAssignments(ctx context.Context) error {
	if err := s.slots.ClearAll(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear timetable")
	}
	s.invalidate(ctx)
	s.metrics.RecordSlotMutation("clear_all")
	s.logger.Info("cleared all timetable assignments")
	return nil
}

// GetTimetable returns the timetable for a semester/division pair ordered
// Monday through Friday. Ties within a day are ordered by time-range start,
// a deliberate refinement over relying on storage order.
func (s *TimetableService) GetTimetable(ctx context.Context, semester int, division models.Division) ([]models.TimetableEntry, error) {
	if semester < 1 || semester > 8 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be between 1 and 8")
	}
	if !models.ValidDivision(semester, division) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("division %q is not offered in semester %d", division, semester))
	}

	cacheKey := fmt.Sprintf("timetable:%d:%s", semester, division)
	if s.cache != nil {
		var cached []models.TimetableEntry
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.metrics.RecordCacheLookup(true)
			return cached, nil
		}
		s.metrics.RecordCacheLookup(false)
	}

	entries, err := s.slots.ListBySemesterDivision(ctx, semester, division)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if len(entries) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no timetable entries for semester %d division %s", semester, division))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := models.WeekdayIndex(entries[i].Day), models.WeekdayIndex(entries[j].Day)
		if di != dj {
			return di < dj
		}
		return models.TimeRangeIndex(entries[i].TimeSlot) < models.TimeRangeIndex(entries[j].TimeSlot)
	})

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, entries, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache timetable", zap.Error(err))
		}
	}

	return entries, nil
}

// Structure returns the static semester to divisions mapping.
func (s *TimetableService) Structure() map[int][]models.Division {
	return models.SemesterDivisions
}

// Export renders the semester/division timetable as CSV or PDF.
func (s *TimetableService) Export(ctx context.Context, semester int, division models.Division, format string) ([]byte, string, error) {
	entries, err := s.GetTimetable(ctx, semester, division)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Day", "Time", "Subject", "Teacher"},
	}
	for _, entry := range entries {
		row := map[string]string{
			"Day":  string(entry.Day),
			"Time": string(entry.TimeSlot),
		}
		if entry.SubjectName != nil {
			row["Subject"] = *entry.SubjectName
		}
		if entry.TeacherName != nil {
			row["Teacher"] = *entry.TeacherName
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	switch format {
	case "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		title := fmt.Sprintf("Semester %d Division %s Timetable", semester, division)
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
