package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// TeacherSubjectRepository persists global teacher-subject pairings.
type TeacherSubjectRepository struct {
	db *sqlx.DB
}

// NewTeacherSubjectRepository constructs the repository.
func NewTeacherSubjectRepository(db *sqlx.DB) *TeacherSubjectRepository {
	return &TeacherSubjectRepository{db: db}
}

// List returns all pairings with resolved teacher and subject names.
func (r *TeacherSubjectRepository) List(ctx context.Context) ([]models.TeacherSubjectDetail, error) {
	const query = `
SELECT ts.id, ts.teacher_id, ts.subject_id, ts.assigned_date, ts.created_at,
       t.name AS teacher_name, s.name AS subject_name, s.code AS subject_code, s.semester
FROM teacher_subjects ts
JOIN teachers t ON t.id = ts.teacher_id
JOIN subjects s ON s.id = ts.subject_id
ORDER BY ts.assigned_date DESC, t.name ASC`
	var pairings []models.TeacherSubjectDetail
	if err := r.db.SelectContext(ctx, &pairings, query); err != nil {
		return nil, fmt.Errorf("list teacher subjects: %w", err)
	}
	return pairings, nil
}

// Exists checks whether the teacher is already paired with the subject.
func (r *TeacherSubjectRepository) Exists(ctx context.Context, teacherID, subjectID string) (bool, error) {
	const query = `SELECT 1 FROM teacher_subjects WHERE teacher_id = $1 AND subject_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, teacherID, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher subject: %w", err)
	}
	return true, nil
}

// Create inserts a new pairing.
func (r *TeacherSubjectRepository) Create(ctx context.Context, pairing *models.TeacherSubject) error {
	if pairing.ID == "" {
		pairing.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if pairing.CreatedAt.IsZero() {
		pairing.CreatedAt = now
	}
	if pairing.AssignedDate.IsZero() {
		pairing.AssignedDate = now
	}
	const query = `INSERT INTO teacher_subjects (id, teacher_id, subject_id, assigned_date, created_at)
		VALUES (:id, :teacher_id, :subject_id, :assigned_date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pairing); err != nil {
		return fmt.Errorf("create teacher subject: %w", err)
	}
	return nil
}

// DeleteByPair removes the pairing for the given teacher and subject.
// Returns sql.ErrNoRows when no such pairing exists.
func (r *TeacherSubjectRepository) DeleteByPair(ctx context.Context, teacherID, subjectID string) error {
	const query = `DELETE FROM teacher_subjects WHERE teacher_id = $1 AND subject_id = $2`
	result, err := r.db.ExecContext(ctx, query, teacherID, subjectID)
	if err != nil {
		return fmt.Errorf("delete teacher subject: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted teacher subject rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
