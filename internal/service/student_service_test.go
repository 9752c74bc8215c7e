package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type mockStudentRepo struct {
	students  map[string]*models.Student
	ownership map[string][]string
	created   *models.Student
	createErr error
	deleteErr error
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	return nil, 0, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) IDsForUser(ctx context.Context, userID string, role models.UserRole) ([]string, error) {
	return m.ownership[userID], nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	m.created = student
	return m.createErr
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error { return nil }

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error { return m.deleteErr }

func TestStudentServiceOwnedBy(t *testing.T) {
	repo := &mockStudentRepo{ownership: map[string][]string{"parent-user": {"s-1", "s-2"}}}
	svc := NewStudentService(repo, nil, nil)
	ctx := context.Background()

	ids, err := svc.OwnedBy(ctx, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Nil(t, ids)

	ids, err = svc.OwnedBy(ctx, &models.JWTClaims{UserID: "parent-user", Role: models.RoleParent})
	require.NoError(t, err)
	assert.Equal(t, []string{"s-1", "s-2"}, ids)

	ids, err = svc.OwnedBy(ctx, &models.JWTClaims{UserID: "lonely", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestStudentServiceVisibleTo(t *testing.T) {
	repo := &mockStudentRepo{ownership: map[string][]string{"parent-user": {"s-1"}}}
	svc := NewStudentService(repo, nil, nil)
	parent := &models.JWTClaims{UserID: "parent-user", Role: models.RoleParent}

	ok, err := svc.VisibleTo(context.Background(), parent, "s-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VisibleTo(context.Background(), parent, "s-9")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.VisibleTo(context.Background(), &models.JWTClaims{Role: models.RoleTeacher}, "s-9")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStudentServiceCreateMapsMissingClass(t *testing.T) {
	repo := &mockStudentRepo{createErr: pqError("23503", "students_class_id_fkey")}
	svc := NewStudentService(repo, nil, nil)
	classID := "8c4a3a9e-8e5b-4c55-9c1f-0c6f4d1f0a11"

	_, err := svc.Create(context.Background(), StudentRequest{FirstName: "Awa", LastName: "Diop", ClassID: &classID})
	assertAppError(t, err, appErrors.ErrReferenced)
}

func TestStudentServiceCreateValidatesNames(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, nil, nil)
	_, err := svc.Create(context.Background(), StudentRequest{FirstName: "   ", LastName: "Diop"})
	appErr := assertAppError(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErr.Fields, "first_name")
}
