package auth

import (
	"fmt"
	"time"

	"tourbook_backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName - имя cookie, в которое дублируется сессионный токен
const CookieName = "Authorization"

// TokenConfig передается в конструктор явно, без глобального состояния
type TokenConfig struct {
	Secret    string
	TTL       time.Duration
	CookieTTL time.Duration
}

// Claims - полезная нагрузка сессионного токена: id, role, iat, exp
type Claims struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity - проверенная личность, извлеченная из токена
type Identity struct {
	AccountID string
	Role      models.UserRole
	IssuedAt  time.Time
}

// SessionIssuer выпускает и проверяет подписанные (HS256) токены
type SessionIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

func NewSessionIssuer(cfg TokenConfig) (*SessionIssuer, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("%w: secret is required", ErrInvalidConfig)
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("%w: ttl must be positive", ErrInvalidConfig)
	}
	if cfg.CookieTTL <= 0 {
		cfg.CookieTTL = 30 * 24 * time.Hour
	}
	return &SessionIssuer{cfg: cfg, now: time.Now}, nil
}

// Issue подписывает токен для аккаунта с текущим временем выпуска
func (s *SessionIssuer) Issue(accountID string, role models.UserRole) (string, error) {
	return s.IssueAt(accountID, role, s.now())
}

func (s *SessionIssuer) IssueAt(accountID string, role models.UserRole, now time.Time) (string, error) {
	claims := Claims{
		ID:   accountID,
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify проверяет подпись и срок действия. Любая ошибка оборачивает ErrInvalidToken.
func (s *SessionIssuer) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(s.cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.ID == "" || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}

	role := models.UserRole(claims.Role)
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	return &Identity{
		AccountID: claims.ID,
		Role:      role,
		IssuedAt:  claims.IssuedAt.Time,
	}, nil
}

// CookieExpiry - срок жизни cookie с токеном
func (s *SessionIssuer) CookieExpiry(now time.Time) time.Time {
	return now.Add(s.cfg.CookieTTL)
}

// CookieMaxAge - то же в секундах, для http.Cookie / gin.SetCookie
func (s *SessionIssuer) CookieMaxAge() int {
	return int(s.cfg.CookieTTL / time.Second)
}

// IsStale сообщает, что токен выпущен до последней смены пароля.
// Сравнение в целых секундах: iat в JWT хранится с точностью до секунды.
func IsStale(passwordChangedAt *time.Time, issuedAt time.Time) bool {
	if passwordChangedAt == nil {
		return false
	}
	return passwordChangedAt.Unix() > issuedAt.Unix()
}
