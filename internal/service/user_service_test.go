package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type mockUserRepo struct {
	users   map[string]*models.User
	updated *models.User
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.updated = user
	return nil
}

type mockUserDeleter struct {
	calls     []string
	gradesErr error
	deleteErr error
}

func (m *mockUserDeleter) DeleteGradesWithTx(ctx context.Context, tx *sqlx.Tx, userID string) (int64, error) {
	m.calls = append(m.calls, "grades:"+userID)
	return 3, m.gradesErr
}

func (m *mockUserDeleter) DeleteWithTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	m.calls = append(m.calls, "user:"+id)
	return m.deleteErr
}

func TestUserServiceDeleteRemovesGradesThenUser(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	repo := &mockUserRepo{users: map[string]*models.User{"u-1": {ID: "u-1", Role: models.RoleStudent}}}
	deleter := &mockUserDeleter{}
	svc := NewUserService(repo, deleter, tx, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, svc.Delete(context.Background(), "u-1"))
	assert.Equal(t, []string{"grades:u-1", "user:u-1"}, deleter.calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserServiceDeleteRollsBackOnFailure(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	repo := &mockUserRepo{users: map[string]*models.User{"u-1": {ID: "u-1"}}}
	deleter := &mockUserDeleter{deleteErr: errors.New("boom")}
	svc := NewUserService(repo, deleter, tx, nil, nil)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := svc.Delete(context.Background(), "u-1")
	assertAppError(t, err, appErrors.ErrInternal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserServiceDeleteUnknownUser(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	svc := NewUserService(&mockUserRepo{}, &mockUserDeleter{}, tx, nil, nil)

	err := svc.Delete(context.Background(), "missing")
	assertAppError(t, err, appErrors.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserServiceUpdateValidatesRole(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"u-1": {ID: "u-1", Active: true}}}
	svc := NewUserService(repo, &mockUserDeleter{}, nil, nil, nil)

	_, err := svc.Update(context.Background(), "u-1", UpdateUserRequest{FirstName: "A", LastName: "B", Role: "JANITOR"})
	appErr := assertAppError(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErr.Fields, "role")

	inactive := false
	user, err := svc.Update(context.Background(), "u-1", UpdateUserRequest{FirstName: "A", LastName: "B", Role: models.RoleTeacher, Active: &inactive})
	require.NoError(t, err)
	assert.False(t, user.Active)
	assert.Equal(t, models.RoleTeacher, repo.updated.Role)
}
