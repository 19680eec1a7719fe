package services

import (
	"context"
	"errors"
	"time"

	"tourbook_backend/internal/logger"
	"tourbook_backend/internal/models"
	"tourbook_backend/internal/repositories"
	"tourbook_backend/internal/services/dto"
	"tourbook_backend/pkg/apperrors"
)

type UserService interface {
	List(ctx context.Context, opts repositories.QueryOptions) ([]models.User, error)
	Get(ctx context.Context, id string, fields ...string) (*models.User, error)
	Create(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, id string) error
	// Deactivate - мягкое удаление собственного аккаунта
	Deactivate(ctx context.Context, accountID string) error
}

type UserServiceImpl struct {
	users       repositories.ResourceStore[models.User]
	userRepo    repositories.UserRepository
	credentials *CredentialStore
}

func NewUserService(
	users repositories.ResourceStore[models.User],
	userRepo repositories.UserRepository,
	credentials *CredentialStore,
) UserService {
	return &UserServiceImpl{
		users:       users,
		userRepo:    userRepo,
		credentials: credentials,
	}
}

func (s *UserServiceImpl) List(ctx context.Context, opts repositories.QueryOptions) ([]models.User, error) {
	users, err := s.users.List(ctx, opts)
	if err != nil {
		return nil, mapResourceError(err)
	}
	return users, nil
}

func (s *UserServiceImpl) Get(ctx context.Context, id string, fields ...string) (*models.User, error) {
	user, err := s.users.Get(ctx, id, fields...)
	if err != nil {
		return nil, mapResourceError(err)
	}
	return user, nil
}

// Create проводит пароль через CredentialStore, как и регистрация
func (s *UserServiceImpl) Create(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error) {
	user := &models.User{
		Name:  req.Name,
		Email: req.Email,
		Photo: req.Photo,
		Role:  req.Role,
	}
	if err := s.credentials.SetPassword(user, req.Password, req.PasswordConfirm, time.Now()); err != nil {
		return nil, err
	}

	user.PrepareCreate()
	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapResourceError(err)
	}

	logger.CtxInfo(ctx, "Account created", "user_id", user.ID, "role", user.Role)
	return user.Sanitize(), nil
}

func (s *UserServiceImpl) Update(ctx context.Context, id string, req *dto.UpdateUserRequest) (*models.User, error) {
	if req.TouchesPassword() {
		return nil, apperrors.ErrInvalidOperation("user", apperrors.MsgNotForPasswords)
	}

	user, err := s.users.Update(ctx, id, req.Changes())
	if err != nil {
		return nil, mapResourceError(err)
	}
	return user, nil
}

func (s *UserServiceImpl) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return mapResourceError(err)
	}
	logger.CtxInfo(ctx, "Account deleted", "user_id", id)
	return nil
}

func (s *UserServiceImpl) Deactivate(ctx context.Context, accountID string) error {
	if err := s.userRepo.Deactivate(ctx, accountID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrUserGone()
		}
		return apperrors.InternalError(err)
	}
	logger.CtxInfo(ctx, "Account deactivated", "user_id", accountID)
	return nil
}

func mapResourceError(err error) error {
	var queryErr *repositories.QueryError
	switch {
	case errors.Is(err, repositories.ErrRecordNotFound):
		return apperrors.ErrNotFound(err)
	case errors.Is(err, repositories.ErrDuplicateRecord):
		return apperrors.ErrAlreadyExists(err)
	case errors.Is(err, repositories.ErrUnknownField), errors.Is(err, repositories.ErrInvalidValue):
		return apperrors.NewBadRequestError(err.Error())
	case errors.As(err, &queryErr):
		return apperrors.NewBadRequestError(queryErr.Error())
	default:
		return apperrors.InternalError(err)
	}
}
