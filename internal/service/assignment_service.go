package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type teacherSubjectRepository interface {
	List(ctx context.Context) ([]models.TeacherSubjectDetail, error)
	Exists(ctx context.Context, teacherID, subjectID string) (bool, error)
	Create(ctx context.Context, pairing *models.TeacherSubject) error
	DeleteByPair(ctx context.Context, teacherID, subjectID string) error
}

type pairingTeacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type pairingSubjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// PairRequest identifies a teacher-subject pairing.
type PairRequest struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
}

// AssignmentService manages the global teacher-subject pairings that record
// which teachers are qualified to teach which subjects.
type AssignmentService struct {
	pairings  teacherSubjectRepository
	teachers  pairingTeacherRepository
	subjects  pairingSubjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(pairings teacherSubjectRepository, teachers pairingTeacherRepository, subjects pairingSubjectRepository, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		pairings:  pairings,
		teachers:  teachers,
		subjects:  subjects,
		validator: validate,
		logger:    logger,
	}
}

// List returns all pairings with resolved teacher and subject details.
func (s *AssignmentService) List(ctx context.Context) ([]models.TeacherSubjectDetail, error) {
	pairings, err := s.pairings.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher subjects")
	}
	return pairings, nil
}

// Assign records that the teacher teaches the subject. Duplicate pairings are
// rejected with a conflict.
func (s *AssignmentService) Assign(ctx context.Context, req PairRequest) (*models.TeacherSubject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pairing payload")
	}

	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	exists, err := s.pairings.Exists(ctx, req.TeacherID, req.SubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pairing")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher is already assigned to this subject")
	}

	pairing := &models.TeacherSubject{
		TeacherID: req.TeacherID,
		SubjectID: req.SubjectID,
	}
	if err := s.pairings.Create(ctx, pairing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create pairing")
	}

	s.logger.Info("teacher subject assigned",
		zap.String("teacher_id", req.TeacherID),
		zap.String("subject_id", req.SubjectID),
	)
	return pairing, nil
}

// Remove deletes the pairing for the teacher and subject.
func (s *AssignmentService) Remove(ctx context.Context, req PairRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pairing payload")
	}

	if err := s.pairings.DeleteByPair(ctx, req.TeacherID, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "pairing not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete pairing")
	}

	s.logger.Info("teacher subject removed",
		zap.String("teacher_id", req.TeacherID),
		zap.String("subject_id", req.SubjectID),
	)
	return nil
}
