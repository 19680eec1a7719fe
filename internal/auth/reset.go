package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	ResetTokenBytes = 32 // 32 байта = 64 hex символа
	ResetTokenTTL   = 10 * time.Minute
)

// GenerateResetToken возвращает открытый токен (отдается пользователю один раз),
// его sha256-хеш (хранится в БД) и абсолютный срок действия.
func GenerateResetToken(now time.Time) (token, hash string, expires time.Time, err error) {
	buf := make([]byte, ResetTokenBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", time.Time{}, fmt.Errorf("%w: %w", ErrTokenGeneration, err)
	}

	token = hex.EncodeToString(buf)
	return token, HashResetToken(token), now.Add(ResetTokenTTL), nil
}

// HashResetToken - детерминированный sha256 без соли: токен сам по себе
// высокоэнтропийный и одноразовый.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
