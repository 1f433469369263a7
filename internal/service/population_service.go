package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type populationSlotRepository interface {
	CreateIfAbsent(ctx context.Context, slot *models.TimetableSlot) (bool, error)
	ListMissingAssignment(ctx context.Context, semester int) ([]models.TimetableSlot, error)
	UpdateAssignments(ctx context.Context, slot *models.TimetableSlot) error
}

type populationSubjectRepository interface {
	ListBySemester(ctx context.Context, semester int) ([]models.Subject, error)
}

type populationTeacherRepository interface {
	ListByDepartment(ctx context.Context, department string) ([]models.Teacher, error)
}

type populationCache interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// GenerateReport summarizes a slot grid generation run.
type GenerateReport struct {
	Created  int `json:"created"`
	Existing int `json:"existing"`
}

// PopulateReport summarizes a random population run.
type PopulateReport struct {
	Filled           int   `json:"filled"`
	SkippedSemesters []int `json:"skipped_semesters,omitempty"`
	Failed           int   `json:"failed,omitempty"`
}

// PopulationService generates the slot grid and fills unassigned slots with
// random picks from the eligible subjects and teachers.
type PopulationService struct {
	slots      populationSlotRepository
	subjects   populationSubjectRepository
	teachers   populationTeacherRepository
	cache      populationCache
	department string
	rng        *rand.Rand
	logger     *zap.Logger
	metrics    *MetricsService
}

// NewPopulationService constructs a PopulationService. A nil rng falls back
// to the shared global source.
func NewPopulationService(slots populationSlotRepository, subjects populationSubjectRepository, teachers populationTeacherRepository, cache populationCache, department string, rng *rand.Rand, logger *zap.Logger, metrics *MetricsService) *PopulationService {
	if department == "" {
		department = models.DefaultDepartment
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PopulationService{
		slots:      slots,
		subjects:   subjects,
		teachers:   teachers,
		cache:      cache,
		department: department,
		rng:        rng,
		logger:     logger,
		metrics:    metrics,
	}
}

func (s *PopulationService) intn(n int) int {
	if s.rng != nil {
		return s.rng.Intn(n)
	}
	return rand.Intn(n)
}

func (s *PopulationService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "timetable:*"); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.Error(err))
	}
}

// GenerateSlots creates one empty slot per (semester, day, time range,
// division) combination from the static tables. Slots that already exist
// keep their assignments, so the operation can be repeated safely.
func (s *PopulationService) GenerateSlots(ctx context.Context) (*GenerateReport, error) {
	report := &GenerateReport{}

	for semester, divisions := range models.SemesterDivisions {
		for _, division := range divisions {
			for _, day := range models.Weekdays {
				for _, tr := range models.TimeRanges {
					slot := &models.TimetableSlot{
						Semester: semester,
						Day:      day,
						TimeSlot: tr,
						Division: division,
					}
					inserted, err := s.slots.CreateIfAbsent(ctx, slot)
					if err != nil {
						return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
							fmt.Sprintf("failed to generate slots for semester %d", semester))
					}
					if inserted {
						report.Created++
					} else {
						report.Existing++
					}
				}
			}
		}
	}

	s.invalidate(ctx)
	s.metrics.RecordSlotMutation("generate")
	s.logger.Info("slot grid generated",
		zap.Int("created", report.Created),
		zap.Int("existing", report.Existing),
	)
	return report, nil
}

// Populate fills empty subject and teacher fields with uniform random picks.
// A semester with no subjects, or a department with no teachers, is skipped
// whole with a warning rather than failing the run. Per-slot failures are
// collected; slots already written stay written.
func (s *PopulationService) Populate(ctx context.Context) (*PopulateReport, error) {
	teachers, err := s.teachers.ListByDepartment(ctx, s.department)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}

	report := &PopulateReport{}
	var failures []error

	for semester := range models.SemesterDivisions {
		subjects, err := s.subjects.ListBySemester(ctx, semester)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
				fmt.Sprintf("failed to load subjects for semester %d", semester))
		}

		if len(subjects) == 0 || len(teachers) == 0 {
			s.logger.Warn("skipping semester during population",
				zap.Int("semester", semester),
				zap.Int("subjects", len(subjects)),
				zap.Int("teachers", len(teachers)),
			)
			report.SkippedSemesters = append(report.SkippedSemesters, semester)
			continue
		}

		slots, err := s.slots.ListMissingAssignment(ctx, semester)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
				fmt.Sprintf("failed to load unassigned slots for semester %d", semester))
		}

		for i := range slots {
			slot := &slots[i]
			if slot.SubjectID == nil {
				subject := subjects[s.intn(len(subjects))]
				slot.SubjectID = &subject.ID
			}
			if slot.TeacherID == nil {
				teacher := teachers[s.intn(len(teachers))]
				slot.TeacherID = &teacher.ID
			}
			if err := s.slots.UpdateAssignments(ctx, slot); err != nil {
				report.Failed++
				failures = append(failures, fmt.Errorf("populate slot %s: %w", slot.ID, err))
				continue
			}
			report.Filled++
		}
	}

	s.invalidate(ctx)
	s.metrics.RecordSlotMutation("populate")
	s.logger.Info("timetable populated",
		zap.Int("filled", report.Filled),
		zap.Int("failed", report.Failed),
		zap.Ints("skipped_semesters", report.SkippedSemesters),
	)

	if len(failures) > 0 {
		return report, appErrors.Wrap(errors.Join(failures...), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
			fmt.Sprintf("population completed with %d failed slots", report.Failed))
	}
	return report, nil
}
