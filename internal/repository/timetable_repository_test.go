package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimetableRepositoryFindByKey(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows([]string{"id", "semester", "day", "time_slot", "division", "subject_id", "teacher_id", "created_at", "updated_at"}).
		AddRow("slot1", 3, "Monday", "09:00-09:50", "A", nil, nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, semester, day, time_slot, division, subject_id, teacher_id, created_at, updated_at").
		WithArgs(3, models.Monday, models.TimeRange("09:00-09:50"), models.Division("A")).
		WillReturnRows(rows)

	slot, err := repo.FindByKey(context.Background(), models.SlotKey{Semester: 3, Day: models.Monday, TimeSlot: "09:00-09:50", Division: "A"})
	require.NoError(t, err)
	assert.Equal(t, "slot1", slot.ID)
	assert.Nil(t, slot.SubjectID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryCreateIfAbsent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	slot := &models.TimetableSlot{Semester: 3, Day: models.Monday, TimeSlot: "09:00-09:50", Division: "A"}

	mock.ExpectExec("INSERT INTO timetable_slots").
		WillReturnResult(sqlmock.NewResult(0, 1))
	inserted, err := repo.CreateIfAbsent(context.Background(), slot)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotEmpty(t, slot.ID)

	// Conflict path: existing slot keeps its row, nothing inserted.
	mock.ExpectExec("INSERT INTO timetable_slots").
		WillReturnResult(sqlmock.NewResult(0, 0))
	inserted, err = repo.CreateIfAbsent(context.Background(), slot)
	require.NoError(t, err)
	assert.False(t, inserted)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryUpdateAssignments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	subjectID := "s1"
	slot := &models.TimetableSlot{ID: "slot1", Semester: 3, Day: models.Monday, TimeSlot: "09:00-09:50", Division: "A", SubjectID: &subjectID}

	mock.ExpectExec("UPDATE timetable_slots SET subject_id").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateAssignments(context.Background(), slot))
	assert.False(t, slot.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryClearAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_slots SET subject_id = NULL, teacher_id = NULL")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 42))

	require.NoError(t, repo.ClearAll(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListBySemesterDivision(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	subjectName := "Data Structures"
	rows := sqlmock.NewRows([]string{"id", "semester", "day", "time_slot", "division", "subject_id", "teacher_id", "subject_name", "teacher_name"}).
		AddRow("slot1", 3, "Monday", "09:00-09:50", "A", "s1", nil, subjectName, nil)
	mock.ExpectQuery("LEFT JOIN subjects").
		WithArgs(3, models.Division("A")).
		WillReturnRows(rows)

	entries, err := repo.ListBySemesterDivision(context.Background(), 3, "A")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].SubjectName)
	assert.Equal(t, subjectName, *entries[0].SubjectName)
	assert.Nil(t, entries[0].TeacherName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListMissingAssignment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows([]string{"id", "semester", "day", "time_slot", "division", "subject_id", "teacher_id", "created_at", "updated_at"}).
		AddRow("slot1", 3, "Monday", "09:00-09:50", "A", nil, "t1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("subject_id IS NULL OR teacher_id IS NULL")).
		WithArgs(3).
		WillReturnRows(rows)

	slots, err := repo.ListMissingAssignment(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Nil(t, slots[0].SubjectID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
