package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/validation"
)

type mockAuthRepo struct {
	userByEmail    *models.User
	userByID       *models.User
	findByEmailErr error
	createErr      error
	created        []*models.User
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	if m.userByEmail == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.userByID == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByID, nil
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = "new-user"
	m.created = append(m.created, user)
	return nil
}

func newAuthServiceFixture(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, validation.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "school-admin-api",
	})
}

func hashedUser(t *testing.T, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: "u-1", Email: "prof@ecole.test", PasswordHash: string(hash), Active: active, Role: models.RoleTeacher}
}

func TestAuthServiceLoginIssuesVerifiableToken(t *testing.T) {
	svc := newAuthServiceFixture(&mockAuthRepo{userByEmail: hashedUser(t, true)})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "prof@ecole.test", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, models.RoleTeacher, res.User.Role)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	svc := newAuthServiceFixture(&mockAuthRepo{userByEmail: hashedUser(t, true)})
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "prof@ecole.test", Password: "wrong-password"})
	assertAppError(t, err, appErrors.ErrInvalidCredentials)

	svc = newAuthServiceFixture(&mockAuthRepo{})
	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "nobody@ecole.test", Password: "password123"})
	assertAppError(t, err, appErrors.ErrInvalidCredentials)

	svc = newAuthServiceFixture(&mockAuthRepo{userByEmail: hashedUser(t, false)})
	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "prof@ecole.test", Password: "password123"})
	assertAppError(t, err, appErrors.ErrInactiveAccount)
}

func TestAuthServiceRegisterHashesPassword(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := newAuthServiceFixture(repo)

	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Email: " Parent@Ecole.test ", Password: "password123", FirstName: "Awa", LastName: "Diop", Role: models.RoleParent,
	}, nil)
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "parent@ecole.test", user.Email)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
}

func TestAuthServiceRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: hashedUser(t, true)}
	svc := newAuthServiceFixture(repo)
	req := models.RegisterRequest{Email: "prof@ecole.test", Password: "password123", FirstName: "A", LastName: "B", Role: models.RoleTeacher}

	_, err := svc.Register(context.Background(), req, nil)
	appErr := assertAppError(t, err, appErrors.ErrDuplicate)
	assert.Equal(t, "Cet email est déjà utilisé", appErr.Message)
	assert.Empty(t, repo.created)

	repo = &mockAuthRepo{createErr: pqError("23505", "users_email_key")}
	_, err = newAuthServiceFixture(repo).Register(context.Background(), req, nil)
	appErr = assertAppError(t, err, appErrors.ErrDuplicate)
	assert.Equal(t, "Cet email est déjà utilisé", appErr.Message)
}

func TestAuthServiceRegisterAdminRequiresAdminActor(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := newAuthServiceFixture(repo)
	req := models.RegisterRequest{Email: "root@ecole.test", Password: "password123", FirstName: "A", LastName: "B", Role: models.RoleAdmin}

	_, err := svc.Register(context.Background(), req, nil)
	assertAppError(t, err, appErrors.ErrForbidden)
	_, err = svc.Register(context.Background(), req, &models.JWTClaims{UserID: "t", Role: models.RoleTeacher})
	assertAppError(t, err, appErrors.ErrForbidden)

	_, err = svc.Register(context.Background(), req, &models.JWTClaims{UserID: "a", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, repo.created, 1)
}

func TestAuthServiceValidateTokenRejectsForeignSignature(t *testing.T) {
	svc := newAuthServiceFixture(&mockAuthRepo{userByEmail: hashedUser(t, true)})
	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "prof@ecole.test", Password: "password123"})
	require.NoError(t, err)

	other := NewAuthService(&mockAuthRepo{}, nil, nil, AuthConfig{AccessTokenSecret: "another"})
	_, err = other.ValidateToken(res.AccessToken)
	assertAppError(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceMeNotFound(t *testing.T) {
	_, err := newAuthServiceFixture(&mockAuthRepo{}).Me(context.Background(), "missing")
	assertAppError(t, err, appErrors.ErrNotFound)

	svc := newAuthServiceFixture(&mockAuthRepo{findByEmailErr: errors.New("db down")})
	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "prof@ecole.test", Password: "password123"})
	assertAppError(t, err, appErrors.ErrInternal)
}
