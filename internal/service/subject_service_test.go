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

type mockSubjectRepo struct {
	items      map[string]*models.Subject
	codeIndex  map[string]string
	listResult []models.Subject
	listTotal  int
	deleted    []string
}

func (m *mockSubjectRepo) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	return m.listResult, m.listTotal, nil
}

func (m *mockSubjectRepo) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if subject, ok := m.items[id]; ok {
		cp := *subject
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubjectRepo) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	if owner, ok := m.codeIndex[code]; ok {
		if excludeID == "" || owner != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	if m.items == nil {
		m.items = make(map[string]*models.Subject)
	}
	if subject.ID == "" {
		subject.ID = "generated"
	}
	cp := *subject
	m.items[subject.ID] = &cp
	return nil
}

func (m *mockSubjectRepo) Update(ctx context.Context, subject *models.Subject) error {
	cp := *subject
	m.items[subject.ID] = &cp
	return nil
}

func (m *mockSubjectRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.items, id)
	return nil
}

func TestSubjectServiceCreateUppercasesCode(t *testing.T) {
	repo := &mockSubjectRepo{}
	service := NewSubjectService(repo, validator.New(), zap.NewNop())

	subject, err := service.Create(context.Background(), CreateSubjectRequest{Semester: 3, Name: "Data Structures", Code: "cs301"})
	require.NoError(t, err)
	assert.Equal(t, "CS301", subject.Code)
	assert.Equal(t, 3, subject.Semester)
}

func TestSubjectServiceCreateDuplicateCodeConflicts(t *testing.T) {
	repo := &mockSubjectRepo{codeIndex: map[string]string{"CS301": "other"}}
	service := NewSubjectService(repo, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), CreateSubjectRequest{Semester: 3, Name: "Data Structures", Code: "CS301"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSubjectServiceCreateRejectsSemesterOutOfRange(t *testing.T) {
	service := NewSubjectService(&mockSubjectRepo{}, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), CreateSubjectRequest{Semester: 9, Name: "Ghost", Code: "GH900"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubjectServiceUpdate(t *testing.T) {
	repo := &mockSubjectRepo{
		items: map[string]*models.Subject{
			"s1": {ID: "s1", Semester: 3, Name: "Data Structures", Code: "CS301"},
		},
	}
	service := NewSubjectService(repo, validator.New(), zap.NewNop())

	updated, err := service.Update(context.Background(), "s1", UpdateSubjectRequest{Semester: 4, Name: "Advanced Data Structures", Code: "CS401"})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Semester)
	assert.Equal(t, "CS401", updated.Code)
}

func TestSubjectServiceUpdateKeepsOwnCode(t *testing.T) {
	repo := &mockSubjectRepo{
		items: map[string]*models.Subject{
			"s1": {ID: "s1", Semester: 3, Name: "Data Structures", Code: "CS301"},
		},
		codeIndex: map[string]string{"CS301": "s1"},
	}
	service := NewSubjectService(repo, validator.New(), zap.NewNop())

	_, err := service.Update(context.Background(), "s1", UpdateSubjectRequest{Semester: 3, Name: "Data Structures II", Code: "CS301"})
	require.NoError(t, err)
}

func TestSubjectServiceDelete(t *testing.T) {
	repo := &mockSubjectRepo{
		items: map[string]*models.Subject{
			"s1": {ID: "s1", Semester: 3, Name: "Data Structures", Code: "CS301"},
		},
	}
	service := NewSubjectService(repo, validator.New(), zap.NewNop())

	require.NoError(t, service.Delete(context.Background(), "s1"))
	assert.Equal(t, []string{"s1"}, repo.deleted)
}
