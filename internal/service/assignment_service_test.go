package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type pairKey struct{ teacherID, subjectID string }

type mockPairingRepo struct {
	pairs   map[pairKey]bool
	details []models.TeacherSubjectDetail
}

func (m *mockPairingRepo) List(ctx context.Context) ([]models.TeacherSubjectDetail, error) {
	return m.details, nil
}

func (m *mockPairingRepo) Exists(ctx context.Context, teacherID, subjectID string) (bool, error) {
	return m.pairs[pairKey{teacherID, subjectID}], nil
}

func (m *mockPairingRepo) Create(ctx context.Context, pairing *models.TeacherSubject) error {
	if m.pairs == nil {
		m.pairs = make(map[pairKey]bool)
	}
	if pairing.ID == "" {
		pairing.ID = "generated"
	}
	m.pairs[pairKey{pairing.TeacherID, pairing.SubjectID}] = true
	return nil
}

func (m *mockPairingRepo) DeleteByPair(ctx context.Context, teacherID, subjectID string) error {
	key := pairKey{teacherID, subjectID}
	if !m.pairs[key] {
		return sql.ErrNoRows
	}
	delete(m.pairs, key)
	return nil
}

func newAssignmentServiceForTest(pairs *mockPairingRepo, teachers *mockTeacherFinder, subjects *mockSubjectFinder) *AssignmentService {
	return NewAssignmentService(pairs, teachers, subjects, validator.New(), zap.NewNop())
}

func TestAssignmentServiceAssign(t *testing.T) {
	pairs := &mockPairingRepo{}
	teachers := &mockTeacherFinder{teachers: map[string]*models.Teacher{"t1": {ID: "t1"}}}
	subjects := &mockSubjectFinder{subjects: map[string]*models.Subject{"s1": {ID: "s1"}}}
	svc := newAssignmentServiceForTest(pairs, teachers, subjects)

	pairing, err := svc.Assign(context.Background(), PairRequest{TeacherID: "t1", SubjectID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "t1", pairing.TeacherID)
	assert.True(t, pairs.pairs[pairKey{"t1", "s1"}])
}

func TestAssignmentServiceAssignDuplicateConflicts(t *testing.T) {
	pairs := &mockPairingRepo{pairs: map[pairKey]bool{{"t1", "s1"}: true}}
	teachers := &mockTeacherFinder{teachers: map[string]*models.Teacher{"t1": {ID: "t1"}}}
	subjects := &mockSubjectFinder{subjects: map[string]*models.Subject{"s1": {ID: "s1"}}}
	svc := newAssignmentServiceForTest(pairs, teachers, subjects)

	_, err := svc.Assign(context.Background(), PairRequest{TeacherID: "t1", SubjectID: "s1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceAssignUnknownTeacher(t *testing.T) {
	svc := newAssignmentServiceForTest(&mockPairingRepo{}, &mockTeacherFinder{}, &mockSubjectFinder{})

	_, err := svc.Assign(context.Background(), PairRequest{TeacherID: "missing", SubjectID: "s1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceRemove(t *testing.T) {
	pairs := &mockPairingRepo{pairs: map[pairKey]bool{{"t1", "s1"}: true}}
	svc := newAssignmentServiceForTest(pairs, &mockTeacherFinder{}, &mockSubjectFinder{})

	require.NoError(t, svc.Remove(context.Background(), PairRequest{TeacherID: "t1", SubjectID: "s1"}))
	assert.Empty(t, pairs.pairs)
}

func TestAssignmentServiceRemoveMissingIsNotFound(t *testing.T) {
	svc := newAssignmentServiceForTest(&mockPairingRepo{pairs: map[pairKey]bool{}}, &mockTeacherFinder{}, &mockSubjectFinder{})

	err := svc.Remove(context.Background(), PairRequest{TeacherID: "t1", SubjectID: "s1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
