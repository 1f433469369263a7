package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// TimetableRepository manages timetable slots. Slots are identified by the
// (semester, day, time_slot, division) tuple which carries a unique constraint.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// FindByKey fetches the slot matching the identifying tuple.
func (r *TimetableRepository) FindByKey(ctx context.Context, key models.SlotKey) (*models.TimetableSlot, error) {
	const query = `SELECT id, semester, day, time_slot, division, subject_id, teacher_id, created_at, updated_at
FROM timetable_slots WHERE semester = $1 AND day = $2 AND time_slot = $3 AND division = $4`
	var slot models.TimetableSlot
	if err := r.db.GetContext(ctx, &slot, query, key.Semester, key.Day, key.TimeSlot, key.Division); err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create inserts a new slot.
func (r *TimetableRepository) Create(ctx context.Context, slot *models.TimetableSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now

	const query = `INSERT INTO timetable_slots (id, semester, day, time_slot, division, subject_id, teacher_id, created_at, updated_at)
		VALUES (:id, :semester, :day, :time_slot, :division, :subject_id, :teacher_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create timetable slot: %w", err)
	}
	return nil
}

// CreateIfAbsent inserts an empty slot unless one with the same key already
// exists. Existing slots keep their assignments. Reports whether a row was
// inserted.
func (r *TimetableRepository) CreateIfAbsent(ctx context.Context, slot *models.TimetableSlot) (bool, error) {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now

	const query = `INSERT INTO timetable_slots (id, semester, day, time_slot, division, subject_id, teacher_id, created_at, updated_at)
		VALUES (:id, :semester, :day, :time_slot, :division, :subject_id, :teacher_id, :created_at, :updated_at)
		ON CONFLICT (semester, day, time_slot, division) DO NOTHING`
	result, err := r.db.NamedExecContext(ctx, query, slot)
	if err != nil {
		return false, fmt.Errorf("create timetable slot if absent: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check inserted slot rows: %w", err)
	}
	return affected > 0, nil
}

// UpdateAssignments persists the slot's subject and teacher references.
func (r *TimetableRepository) UpdateAssignments(ctx context.Context, slot *models.TimetableSlot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetable_slots SET subject_id = :subject_id, teacher_id = :teacher_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("update timetable slot: %w", err)
	}
	return nil
}

// ClearAll nulls subject and teacher on every slot.
func (r *TimetableRepository) ClearAll(ctx context.Context) error {
	const query = `UPDATE timetable_slots SET subject_id = NULL, teacher_id = NULL, updated_at = $1`
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC()); err != nil {
		return fmt.Errorf("clear timetable slots: %w", err)
	}
	return nil
}

// ListBySemesterDivision returns all slots for the pair with resolved subject
// and teacher names. Storage order; callers apply the display ordering.
func (r *TimetableRepository) ListBySemesterDivision(ctx context.Context, semester int, division models.Division) ([]models.TimetableEntry, error) {
	const query = `
SELECT ts.id, ts.semester, ts.day, ts.time_slot, ts.division, ts.subject_id, ts.teacher_id,
       s.name AS subject_name, t.name AS teacher_name
FROM timetable_slots ts
LEFT JOIN subjects s ON s.id = ts.subject_id
LEFT JOIN teachers t ON t.id = ts.teacher_id
WHERE ts.semester = $1 AND ts.division = $2`
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, semester, division); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// ListMissingAssignment returns the semester's slots lacking a subject or a
// teacher.
func (r *TimetableRepository) ListMissingAssignment(ctx context.Context, semester int) ([]models.TimetableSlot, error) {
	const query = `SELECT id, semester, day, time_slot, division, subject_id, teacher_id, created_at, updated_at
FROM timetable_slots WHERE semester = $1 AND (subject_id IS NULL OR teacher_id IS NULL)`
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, semester); err != nil {
		return nil, fmt.Errorf("list unassigned slots: %w", err)
	}
	return slots, nil
}
