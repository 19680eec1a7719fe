package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourbook_backend/internal/auth"
	"tourbook_backend/internal/email"
	"tourbook_backend/internal/logger"
	"tourbook_backend/internal/models"
	"tourbook_backend/internal/repositories"
	"tourbook_backend/internal/services/dto"
	"tourbook_backend/pkg/apperrors"
)

const (
	ResetPasswordPath    = "/api/v1/users/reset-password/"
	ResetEmailSubject    = "Your password reset token (valid for 10 min)"
	resetEmailBodyFormat = "Forgot your password? Submit a POST request with your new password and password_confirm to: %s.\nIf you didn't forget your password, please ignore this email!"
)

type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResult, error)
	SignIn(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResult, error)
	// ForgotPassword отправляет ссылку вида baseURL + ResetPasswordPath + token
	ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest, baseURL string) error
	ResetPassword(ctx context.Context, token string, req *dto.ResetPasswordRequest) (*dto.AuthResult, error)
	UpdatePassword(ctx context.Context, accountID string, req *dto.UpdatePasswordRequest) (*dto.AuthResult, error)
	// Authenticate проверяет токен сессии и возвращает актуальный аккаунт
	Authenticate(ctx context.Context, token string) (*auth.Identity, *models.User, error)
}

type AuthServiceImpl struct {
	userRepo    repositories.UserRepository
	credentials *CredentialStore
	issuer      *auth.SessionIssuer
	mailer      email.Provider
	templates   email.TemplateRenderer
	now         func() time.Time
}

type AuthOption func(*AuthServiceImpl)

// WithClock подменяет источник времени
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthServiceImpl) {
		s.now = now
	}
}

func WithTemplates(renderer email.TemplateRenderer) AuthOption {
	return func(s *AuthServiceImpl) {
		s.templates = renderer
	}
}

func NewAuthService(
	userRepo repositories.UserRepository,
	credentials *CredentialStore,
	issuer *auth.SessionIssuer,
	mailer email.Provider,
	opts ...AuthOption,
) AuthService {
	s := &AuthServiceImpl{
		userRepo:    userRepo,
		credentials: credentials,
		issuer:      issuer,
		mailer:      mailer,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register - создание аккаунта с ролью по умолчанию и выпуск сессии
func (s *AuthServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResult, error) {
	now := s.now()

	user := &models.User{
		Name:  req.Name,
		Email: req.Email,
	}
	if err := s.credentials.SetPassword(user, req.Password, req.PasswordConfirm, now); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrAlreadyExists(err)
		}
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Account registered", "user_id", user.ID)
	return s.issue(user, now)
}

// SignIn - вход по email и паролю. Неизвестный email, неактивный аккаунт
// и неверный пароль неразличимы для клиента.
func (s *AuthServiceImpl) SignIn(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResult, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apperrors.ErrEmptyCredentials()
	}

	user, err := s.userRepo.FindByEmailWithPassword(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			s.credentials.VerifyDummy(req.Password)
			return nil, apperrors.ErrIncorrectCredentials()
		}
		return nil, apperrors.InternalError(err)
	}

	if !s.credentials.CheckPassword(user, req.Password) {
		logger.CtxWarn(ctx, "Failed sign-in attempt", "user_id", user.ID)
		return nil, apperrors.ErrIncorrectCredentials()
	}

	return s.issue(user, s.now())
}

func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest, baseURL string) error {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrNoAccountForEmail()
		}
		return apperrors.InternalError(err)
	}

	token, hash, expires, err := auth.GenerateResetToken(s.now())
	if err != nil {
		return apperrors.InternalError(err)
	}

	user.SetResetToken(hash, expires)
	if err := s.userRepo.UpdateResetToken(ctx, user); err != nil {
		return apperrors.InternalError(err)
	}

	msg, err := s.resetMessage(user, baseURL+ResetPasswordPath+token)
	if err != nil {
		return s.rollbackResetToken(ctx, user, err)
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		return s.rollbackResetToken(ctx, user, err)
	}

	logger.CtxInfo(ctx, "Password reset token sent", "user_id", user.ID)
	return nil
}

// rollbackResetToken убирает выданный токен, если письмо не ушло
func (s *AuthServiceImpl) rollbackResetToken(ctx context.Context, user *models.User, cause error) error {
	logger.CtxWithError(ctx, "Failed to deliver password reset email", cause, "user_id", user.ID)

	user.ClearResetToken()
	if err := s.userRepo.UpdateResetToken(ctx, user); err != nil {
		logger.CtxWithError(ctx, "Failed to clear password reset token", err, "user_id", user.ID)
	}
	return apperrors.ErrEmailDelivery(cause)
}

func (s *AuthServiceImpl) resetMessage(user *models.User, resetURL string) (*email.Message, error) {
	msg := &email.Message{
		To:      user.Email,
		Subject: ResetEmailSubject,
		Body:    fmt.Sprintf(resetEmailBodyFormat, resetURL),
	}
	if s.templates == nil {
		return msg, nil
	}

	html, err := s.templates.Render(email.PasswordResetTemplate, email.TemplateData{
		"Name":     user.Name,
		"ResetURL": resetURL,
		"ValidFor": "10 minutes",
	})
	if err != nil {
		return nil, err
	}
	msg.HTMLBody = html
	return msg, nil
}

func (s *AuthServiceImpl) ResetPassword(ctx context.Context, token string, req *dto.ResetPasswordRequest) (*dto.AuthResult, error) {
	now := s.now()

	tokenHash := auth.HashResetToken(token)
	user, err := s.userRepo.FindByResetToken(ctx, tokenHash, now)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrResetTokenInvalid()
		}
		return nil, apperrors.InternalError(err)
	}

	if err := s.credentials.SetPassword(user, req.Password, req.PasswordConfirm, now); err != nil {
		return nil, err
	}

	// Токен гасится тем же UPDATE, что пишет пароль: из двух параллельных
	// запросов с одним токеном проходит только один
	if err := s.userRepo.ConsumeResetToken(ctx, user, tokenHash, now); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrResetTokenInvalid()
		}
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Password reset completed", "user_id", user.ID)
	return s.issue(user, now)
}

func (s *AuthServiceImpl) UpdatePassword(ctx context.Context, accountID string, req *dto.UpdatePasswordRequest) (*dto.AuthResult, error) {
	now := s.now()

	user, err := s.userRepo.FindByIDWithPassword(ctx, accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserGone()
		}
		return nil, apperrors.InternalError(err)
	}

	if !s.credentials.CheckPassword(user, req.CurrentPassword) {
		return nil, apperrors.ErrWrongCurrentPassword()
	}

	if err := s.credentials.SetPassword(user, req.NewPassword, req.NewPasswordConfirm, now); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdatePassword(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserGone()
		}
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Password updated", "user_id", user.ID)
	return s.issue(user, now)
}

func (s *AuthServiceImpl) Authenticate(ctx context.Context, token string) (*auth.Identity, *models.User, error) {
	if token == "" {
		return nil, nil, apperrors.ErrLoginRequired()
	}

	claims, err := s.issuer.Verify(token)
	if err != nil {
		return nil, nil, apperrors.ErrInvalidToken(err)
	}

	user, err := s.userRepo.FindByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, nil, apperrors.ErrUserGone()
		}
		return nil, nil, apperrors.InternalError(err)
	}

	if auth.IsStale(user.PasswordChangedAt, claims.IssuedAt) {
		return nil, nil, apperrors.ErrStaleToken()
	}

	// Роль берется из хранилища, а не из токена
	identity := &auth.Identity{
		AccountID: user.ID,
		Role:      user.Role,
		IssuedAt:  claims.IssuedAt,
	}
	return identity, user.Sanitize(), nil
}

func (s *AuthServiceImpl) issue(user *models.User, now time.Time) (*dto.AuthResult, error) {
	token, err := s.issuer.IssueAt(user.ID, user.Role, now)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.AuthResult{
		Token:         token,
		CookieExpires: s.issuer.CookieExpiry(now),
		CookieMaxAge:  s.issuer.CookieMaxAge(),
		User:          user.Sanitize(),
	}, nil
}
