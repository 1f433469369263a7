package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func TestTeacherSubjectRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherSubjectRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "subject_id", "assigned_date", "created_at", "teacher_name", "subject_name", "subject_code", "semester"}).
		AddRow("p1", "t1", "s1", time.Now(), time.Now(), "Asha Sharma", "Data Structures", "CS301", 3)
	mock.ExpectQuery("JOIN teachers t ON").
		WillReturnRows(rows)

	pairings, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, pairings, 1)
	assert.Equal(t, "Asha Sharma", pairings[0].TeacherName)
	assert.Equal(t, 3, pairings[0].Semester)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherSubjectRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM teacher_subjects WHERE teacher_id = $1 AND subject_id = $2 LIMIT 1")).
		WithArgs("t1", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "t1", "s1")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM teacher_subjects WHERE teacher_id = $1 AND subject_id = $2 LIMIT 1")).
		WithArgs("t1", "s2").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.Exists(context.Background(), "t1", "s2")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherSubjectRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherSubjectRepository(db)

	mock.ExpectExec("INSERT INTO teacher_subjects").
		WillReturnResult(sqlmock.NewResult(0, 1))

	pairing := &models.TeacherSubject{TeacherID: "t1", SubjectID: "s1"}
	require.NoError(t, repo.Create(context.Background(), pairing))
	assert.NotEmpty(t, pairing.ID)
	assert.False(t, pairing.AssignedDate.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherSubjectRepositoryDeleteByPair(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teacher_subjects WHERE teacher_id = $1 AND subject_id = $2")).
		WithArgs("t1", "s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteByPair(context.Background(), "t1", "s1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teacher_subjects WHERE teacher_id = $1 AND subject_id = $2")).
		WithArgs("t1", "s2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteByPair(context.Background(), "t1", "s2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
