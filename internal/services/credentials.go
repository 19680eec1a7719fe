package services

import (
	"sync"
	"time"

	"tourbook_backend/internal/auth"
	"tourbook_backend/internal/models"
	"tourbook_backend/pkg/apperrors"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // предел bcrypt в байтах
)

const dummyPassword = "tourbook-missing-account"

// CredentialStore - единственный путь записи пароля в аккаунт
type CredentialStore struct {
	hasher auth.Hasher

	dummyOnce sync.Once
	dummyHash string
}

func NewCredentialStore(hasher auth.Hasher) *CredentialStore {
	return &CredentialStore{hasher: hasher}
}

// SetPassword проверяет подтверждение и длину, хеширует пароль и для уже
// существующих аккаунтов отмечает момент смены (now - 1s), чтобы токен,
// выпущенный в ту же секунду, остался валидным.
func (s *CredentialStore) SetPassword(user *models.User, password, confirm string, now time.Time) error {
	if password != confirm {
		return apperrors.ErrPasswordsMismatch()
	}
	if len(password) < MinPasswordLength {
		return apperrors.ValidationError(map[string]string{
			"password": "Must be at least 8 characters long",
		})
	}
	if len(password) > MaxPasswordLength {
		return apperrors.ValidationError(map[string]string{
			"password": "Must be at most 72 characters long",
		})
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return apperrors.InternalError(err)
	}

	existing := user.ID != ""
	user.PasswordHash = hash
	if existing {
		changedAt := now.Add(-time.Second)
		user.PasswordChangedAt = &changedAt
	}
	return nil
}

// CheckPassword сравнивает кандидата с сохраненным хешем
func (s *CredentialStore) CheckPassword(user *models.User, candidate string) bool {
	if user == nil || user.PasswordHash == "" {
		return false
	}
	return s.hasher.Verify(candidate, user.PasswordHash)
}

// VerifyDummy тратит на проверку столько же, сколько CheckPassword, когда
// аккаунта нет, чтобы время ответа не выдавало существование email
func (s *CredentialStore) VerifyDummy(candidate string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(dummyPassword)
	})
	_ = s.hasher.Verify(candidate, s.dummyHash)
}
