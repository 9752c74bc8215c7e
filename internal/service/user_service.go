package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/validation"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

type userDeleter interface {
	DeleteGradesWithTx(ctx context.Context, tx *sqlx.Tx, userID string) (int64, error)
	DeleteWithTx(ctx context.Context, tx *sqlx.Tx, id string) error
}

// UpdateUserRequest carries admin editable account fields.
type UpdateUserRequest struct {
	FirstName string          `json:"first_name" validate:"required,notblank"`
	LastName  string          `json:"last_name" validate:"required,notblank"`
	Role      models.UserRole `json:"role" validate:"required,oneof=ADMIN TEACHER STUDENT PARENT"`
	Active    *bool           `json:"active"`
}

// UserService manages accounts.
type UserService struct {
	repo      userRepository
	deleter   userDeleter
	tx        txProvider
	validator *validation.Validator
	logger    *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(repo userRepository, deleter userDeleter, tx txProvider, validate *validation.Validator, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, deleter: deleter, tx: tx, validator: validate, logger: logger}
}

// List returns users with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "Impossible de lister les utilisateurs")
	}
	return users, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a user.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Utilisateur introuvable", "Impossible de charger l'utilisateur")
	}
	return user, nil
}

// Update modifies names, role and activation of a user.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Role = req.Role
	if req.Active != nil {
		user.Active = *req.Active
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Internal(err, "Impossible de mettre à jour l'utilisateur")
	}
	return user, nil
}

// Delete removes the grades of the user's student profiles, then the user, in one transaction.
func (s *UserService) Delete(ctx context.Context, id string) (err error) {
	if _, err = s.Get(ctx, id); err != nil {
		return err
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Internal(err, "Impossible de démarrer la transaction")
	}
	defer rollback(tx, &err)

	removed, err := s.deleter.DeleteGradesWithTx(ctx, tx, id)
	if err != nil {
		err = appErrors.Internal(err, "Impossible de supprimer les notes de l'utilisateur")
		return err
	}
	if err = s.deleter.DeleteWithTx(ctx, tx, id); err != nil {
		err = writeError(err, "", "Utilisateur encore référencé", "Impossible de supprimer l'utilisateur")
		return err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Internal(err, "Impossible de valider la suppression")
		return err
	}
	s.logger.Info("user deleted", zap.String("user_id", id), zap.Int64("grades_removed", removed))
	return nil
}
