package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tourbook_backend/internal/auth"
	"tourbook_backend/internal/config"
	"tourbook_backend/internal/metrics"
	"tourbook_backend/internal/middleware"
	"tourbook_backend/internal/models"
	"tourbook_backend/internal/services"
	"tourbook_backend/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newCredentials() *services.CredentialStore {
	return services.NewCredentialStore(auth.NewBcryptHasherWithCost(bcrypt.MinCost))
}

func TestSeedFirstAdmin(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	users := testutil.NewUsers()
	creds := newCredentials()

	// Без email/пароля ничего не создается
	require.NoError(t, seedFirstAdmin(ctx, cfg, users, creds))
	_, err := users.FindByEmail(ctx, "admin@example.com")
	assert.Error(t, err)

	cfg.FirstAdmin.Email = "Admin@Example.com"
	cfg.FirstAdmin.Password = "admin-pass-123"
	require.NoError(t, seedFirstAdmin(ctx, cfg, users, creds))

	admin, err := users.FindByEmailWithPassword(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleAdmin, admin.Role)
	assert.Equal(t, "Administrator", admin.Name)
	assert.True(t, creds.CheckPassword(admin, "admin-pass-123"))

	// Повторный запуск не создает дубликат
	require.NoError(t, seedFirstAdmin(ctx, cfg, users, creds))
}

func TestSeedFirstAdmin_ShortPassword(t *testing.T) {
	cfg := config.Default()
	cfg.FirstAdmin.Email = "admin@example.com"
	cfg.FirstAdmin.Password = "short"

	err := seedFirstAdmin(context.Background(), cfg, testutil.NewUsers(), newCredentials())
	assert.Error(t, err)
}

func TestSetupRouter_FullFlow(t *testing.T) {
	cfg := config.Default()
	cfg.JWT.Secret = "app-secret"

	issuer, err := auth.NewSessionIssuer(auth.TokenConfig{Secret: cfg.JWT.Secret, TTL: cfg.TokenTTL(), CookieTTL: cfg.CookieTTL()})
	require.NoError(t, err)

	users := testutil.NewUsers()
	mailer := &testutil.Mailer{}
	creds := newCredentials()
	container := &services.ServiceContainer{
		AuthService: services.NewAuthService(users, creds, issuer, mailer),
		UserService: services.NewUserService(users.Resources(), users, creds),
	}
	appMetrics := metrics.New()
	router := SetupRouter(cfg, container, appMetrics)

	send := func(method, path, token string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.RequestIDHeader, "req-42")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}
	tokenOf := func(w *httptest.ResponseRecorder) string {
		var body struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.NotEmpty(t, body.Token)
		return body.Token
	}

	w := send(http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"name": "Alice", "email": "alice@example.com",
		"password": "pass1234", "password_confirm": "pass1234",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get(middleware.RequestIDHeader))
	first := tokenOf(w)

	w = send(http.MethodGet, "/api/v1/users/me", first, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Токен выпущен в прошлом, чтобы смена пароля точно была позже iat
	user, err := users.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	old, err := issuer.IssueAt(user.ID, user.Role, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	w = send(http.MethodPost, "/api/v1/users/forgot-password", "", map[string]string{"email": "alice@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	msg := mailer.Last()
	require.NotNil(t, msg)

	prefix := "http://example.com" + services.ResetPasswordPath
	idx := bytes.Index([]byte(msg.Body), []byte(prefix))
	require.GreaterOrEqual(t, idx, 0)
	resetToken := msg.Body[idx+len(prefix) : idx+len(prefix)+2*auth.ResetTokenBytes]

	w = send(http.MethodPost, "/api/v1/users/reset-password/"+resetToken, "", map[string]string{
		"password": "newpass123", "password_confirm": "newpass123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fresh := tokenOf(w)

	w = send(http.MethodGet, "/api/v1/users/me", old, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = send(http.MethodGet, "/api/v1/users/me", fresh, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = send(http.MethodPost, "/api/v1/users/login", "", map[string]string{"email": "alice@example.com", "password": "newpass123"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = send(http.MethodGet, cfg.Metrics.Path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `route="/api/v1/users/login"`)
}

func TestSetupRouter_WithoutMetrics(t *testing.T) {
	cfg := config.Default()
	users := testutil.NewUsers()
	issuer, err := auth.NewSessionIssuer(auth.TokenConfig{Secret: "s", TTL: time.Hour})
	require.NoError(t, err)

	container := &services.ServiceContainer{
		AuthService: services.NewAuthService(users, newCredentials(), issuer, &testutil.Mailer{}),
		UserService: services.NewUserService(users.Resources(), users, newCredentials()),
	}
	router := SetupRouter(cfg, container, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, cfg.Metrics.Path, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
