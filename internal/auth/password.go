package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost - фиксированная стоимость bcrypt для паролей
const PasswordCost = 12

// Hasher - односторонний хеш пароля с солью
type Hasher interface {
	Hash(password string) (string, error)
	// Verify возвращает false при несовпадении или битом хеше, без ошибки
	Verify(password, hash string) bool
}

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: PasswordCost}
}

// NewBcryptHasherWithCost нужен тестам, где cost 12 слишком медленный
func NewBcryptHasherWithCost(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

// Hash создает bcrypt хеш пароля
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(bytes), nil
}

// Verify проверяет пароль против хеша (сравнение bcrypt в постоянное время)
func (h *BcryptHasher) Verify(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
