package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
)

var teacherRowColumns = []string{"id", "user_id", "first_name", "last_name", "email", "phone", "specialty", "created_at", "updated_at"}

func TestTeacherRepositoryListSearch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	now := sqlmockTime()
	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE 1=1 AND (LOWER(first_name || ' ' || last_name) LIKE $1")).
		WithArgs("%maths%").
		WillReturnRows(sqlmock.NewRows(teacherRowColumns).
			AddRow("t1", "u1", "Emmy", "Noether", "emmy@ecole.fr", "", "Maths", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM teachers")).
		WithArgs("%maths%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	teachers, total, err := repo.List(context.Background(), models.PersonFilter{Search: "Maths"})
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Maths", teachers[0].Specialty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryFindByUserID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	now := sqlmockTime()
	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE user_id = $1 LIMIT 1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(teacherRowColumns).
			AddRow("t1", "u1", "Emmy", "Noether", "emmy@ecole.fr", "", "Maths", now, now))

	teacher, err := repo.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "t1", teacher.ID)
	require.NotNil(t, teacher.UserID)
	assert.Equal(t, "u1", *teacher.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery("FROM teachers WHERE id").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
