package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
)

type mockTeacherRepo struct {
	items      map[string]*models.Teacher
	listResult []models.Teacher
	listTotal  int
	listErr    error
	deleted    []string
}

func (m *mockTeacherRepo) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listResult, m.listTotal, nil
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := m.items[id]; ok {
		cp := *teacher
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	if m.items == nil {
		m.items = make(map[string]*models.Teacher)
	}
	if teacher.ID == "" {
		teacher.ID = "generated"
	}
	now := time.Now()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now
	cp := *teacher
	m.items[teacher.ID] = &cp
	return nil
}

func (m *mockTeacherRepo) Update(ctx context.Context, teacher *models.Teacher) error {
	cp := *teacher
	m.items[teacher.ID] = &cp
	return nil
}

func (m *mockTeacherRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.items, id)
	return nil
}

func TestTeacherServiceCreateDefaultsDepartment(t *testing.T) {
	repo := &mockTeacherRepo{}
	service := NewTeacherService(repo, validator.New(), zap.NewNop())

	teacher, err := service.Create(context.Background(), CreateTeacherRequest{Name: "Asha Sharma"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultDepartment, teacher.Department)
	assert.Len(t, repo.items, 1)
}

func TestTeacherServiceCreateKeepsExplicitDepartment(t *testing.T) {
	repo := &mockTeacherRepo{}
	service := NewTeacherService(repo, validator.New(), zap.NewNop())

	teacher, err := service.Create(context.Background(), CreateTeacherRequest{Name: "Ravi Patel", Department: "MATHEMATICS"})
	require.NoError(t, err)
	assert.Equal(t, "MATHEMATICS", teacher.Department)
}

func TestTeacherServiceCreateRequiresName(t *testing.T) {
	service := NewTeacherService(&mockTeacherRepo{}, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), CreateTeacherRequest{})
	require.Error(t, err)
}

func TestTeacherServiceUpdate(t *testing.T) {
	repo := &mockTeacherRepo{
		items: map[string]*models.Teacher{
			"t1": {ID: "t1", Name: "Asha Sharma", Department: models.DefaultDepartment},
		},
	}
	service := NewTeacherService(repo, validator.New(), zap.NewNop())

	updated, err := service.Update(context.Background(), "t1", UpdateTeacherRequest{Name: "Asha Iyer", Phone: "9812345678"})
	require.NoError(t, err)
	assert.Equal(t, "Asha Iyer", updated.Name)
	assert.Equal(t, "9812345678", updated.Phone)
	// Department stays when the payload omits it.
	assert.Equal(t, models.DefaultDepartment, updated.Department)
}

func TestTeacherServiceUpdateMissing(t *testing.T) {
	service := NewTeacherService(&mockTeacherRepo{}, validator.New(), zap.NewNop())

	_, err := service.Update(context.Background(), "missing", UpdateTeacherRequest{Name: "Nobody"})
	require.Error(t, err)
}

func TestTeacherServiceDelete(t *testing.T) {
	repo := &mockTeacherRepo{
		items: map[string]*models.Teacher{
			"t1": {ID: "t1", Name: "Asha Sharma"},
		},
	}
	service := NewTeacherService(repo, validator.New(), zap.NewNop())

	require.NoError(t, service.Delete(context.Background(), "t1"))
	assert.Equal(t, []string{"t1"}, repo.deleted)
}
