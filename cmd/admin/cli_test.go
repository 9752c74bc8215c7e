package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-admin-api/internal/models"
)

type userStoreStub struct {
	existing *models.User
	created  []*models.User
}

func (s *userStoreStub) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if s.existing != nil && s.existing.Email == email {
		return s.existing, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userStoreStub) Create(_ context.Context, user *models.User) error {
	user.ID = "user-1"
	s.created = append(s.created, user)
	return nil
}

func stubPassword(t *testing.T, pwd string) {
	t.Helper()
	previous := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = previous })
}

func TestCreateAdmin(t *testing.T) {
	stubPassword(t, "s3cretpass")
	store := &userStoreStub{}
	out := &bytes.Buffer{}
	cli := &commandLine{users: store, out: out}

	err := cli.run(context.Background(), []string{"admin", "createadmin", "-email", " Root@School.test "})
	require.NoError(t, err)
	require.Len(t, store.created, 1)

	user := store.created[0]
	assert.Equal(t, "root@school.test", user.Email)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.True(t, user.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cretpass")))
	assert.Contains(t, out.String(), "admin root@school.test created")
}

func TestCreateAdminRejectsExistingEmail(t *testing.T) {
	stubPassword(t, "s3cretpass")
	store := &userStoreStub{existing: &models.User{Email: "root@school.test"}}
	cli := &commandLine{users: store, out: &bytes.Buffer{}}

	err := cli.run(context.Background(), []string{"admin", "createadmin", "-email", "root@school.test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	assert.Empty(t, store.created)
}

func TestCreateAdminRejectsShortPassword(t *testing.T) {
	stubPassword(t, "short")
	store := &userStoreStub{}
	cli := &commandLine{users: store, out: &bytes.Buffer{}}

	err := cli.run(context.Background(), []string{"admin", "createadmin", "-email", "root@school.test"})
	require.Error(t, err)
	assert.Empty(t, store.created)
}

func TestRunMigrate(t *testing.T) {
	var gotCommand string
	var gotArgs []string
	cli := &commandLine{
		out: &bytes.Buffer{},
		migrate: func(command string, args ...string) error {
			gotCommand, gotArgs = command, args
			return nil
		},
	}

	require.NoError(t, cli.run(context.Background(), []string{"admin", "migrate", "up-to", "3"}))
	assert.Equal(t, "up-to", gotCommand)
	assert.Equal(t, []string{"3"}, gotArgs)
}

func TestRunPrintsUsage(t *testing.T) {
	out := &bytes.Buffer{}
	cli := &commandLine{out: out}

	for _, args := range [][]string{{"admin"}, {"admin", "unknown"}, {"admin", "migrate"}, {"admin", "createadmin"}} {
		err := cli.run(context.Background(), args)
		assert.True(t, errors.Is(err, errHelp), args)
	}
	assert.Contains(t, out.String(), "createadmin")
}
