package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tourbook_backend/internal/auth"
	"tourbook_backend/internal/models"
	"tourbook_backend/internal/services"
	"tourbook_backend/internal/testutil"
	"tourbook_backend/internal/validator"
	"tourbook_backend/pkg/apperrors"
	"tourbook_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type handlerFixture struct {
	users  *testutil.Users
	mailer *testutil.Mailer
	creds  *services.CredentialStore
	router *gin.Engine

	// identity подставляется вместо Protect
	identity *auth.Identity
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	issuer, err := auth.NewSessionIssuer(auth.TokenConfig{Secret: "test-secret", TTL: time.Hour})
	require.NoError(t, err)

	f := &handlerFixture{
		users:  testutil.NewUsers(),
		mailer: &testutil.Mailer{},
		creds:  services.NewCredentialStore(auth.NewBcryptHasherWithCost(bcrypt.MinCost)),
	}

	base := NewBaseHandler(validator.New())
	authHandler := NewAuthHandler(base, services.NewAuthService(f.users, f.creds, issuer, f.mailer), false)
	userHandler := NewUserHandler(base, services.NewUserService(f.users.Resources(), f.users, f.creds))

	r := gin.New()
	users := r.Group("/users")
	authHandler.RegisterPublicRoutes(users)

	protected := users.Group("", func(c *gin.Context) {
		if f.identity != nil {
			c.Set(contextkeys.IdentityKey, f.identity)
		}
		c.Next()
	})
	authHandler.RegisterProtectedRoutes(protected)
	userHandler.RegisterProtectedRoutes(protected)
	userHandler.RegisterAdminRoutes(protected)

	f.router = r
	return f
}

func (f *handlerFixture) seed(t *testing.T, name, mail, password string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: mail}
	require.NoError(t, f.creds.SetPassword(user, password, password, time.Now()))
	return f.users.Put(user)
}

func (f *handlerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRegister_SetsCookieAndReturnsUser(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/users/register", map[string]string{
		"name":             "Alice",
		"email":            "alice@example.com",
		"password":         "pass1234",
		"password_confirm": "pass1234",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	token, _ := body["token"].(string)
	assert.NotEmpty(t, token)

	user := body["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, user, "password_hash")
	assert.NotContains(t, user, "PasswordHash")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.False(t, cookies[0].Secure)
	assert.Equal(t, "/", cookies[0].Path)
	assert.Equal(t, 30*24*60*60, cookies[0].MaxAge)
}

func TestRegister_ValidationErrors(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/users/register", map[string]string{
		"name":  "Alice",
		"email": "not-an-email",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "fail", resp.Status)
	details, ok := resp.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")

	req := httptest.NewRequest(http.MethodPost, "/users/register", strings.NewReader("{broken"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	f := newHandlerFixture(t)
	f.seed(t, "Alice", "alice@example.com", "pass1234")

	w := f.do(t, http.MethodPost, "/users/login", map[string]string{"email": "alice@example.com", "password": "pass1234"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decode(t, w)["token"])

	w = f.do(t, http.MethodPost, "/users/login", map[string]string{"email": "alice@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.MsgIncorrectCredentials, decode(t, w)["message"])

	w = f.do(t, http.MethodPost, "/users/login", map[string]string{"email": "alice@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.MsgEmptyCredentials, decode(t, w)["message"])
}

func TestForgotPassword_SendsEmail(t *testing.T) {
	f := newHandlerFixture(t)
	f.seed(t, "Alice", "alice@example.com", "pass1234")

	w := f.do(t, http.MethodPost, "/users/forgot-password", map[string]string{"email": "alice@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Token sent to email!", body["message"])

	msg := f.mailer.Last()
	require.NotNil(t, msg)
	assert.Contains(t, msg.Body, "http://example.com"+services.ResetPasswordPath)
}

func TestUpdateUser_RejectsPassword(t *testing.T) {
	f := newHandlerFixture(t)
	alice := f.seed(t, "Alice", "alice@example.com", "pass1234")

	w := f.do(t, http.MethodPatch, "/users/"+alice.ID, map[string]string{"password": "newpass123"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.MsgNotForPasswords, decode(t, w)["message"])

	w = f.do(t, http.MethodPatch, "/users/"+alice.ID, map[string]string{"name": "Alice B"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	doc := decode(t, w)["data"].(map[string]interface{})["doc"].(map[string]interface{})
	assert.Equal(t, "Alice B", doc["name"])
}

func TestUpdateUser_RejectsInvalidRole(t *testing.T) {
	f := newHandlerFixture(t)
	bob := f.seed(t, "Bob", "bob@example.com", "pass1234")

	for _, body := range []map[string]interface{}{
		{"role": ""},
		{"role": "superuser"},
		{"name": ""},
	} {
		w := f.do(t, http.MethodPatch, "/users/"+bob.ID, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%v: %s", body, w.Body.String())
	}

	stored := f.users.Stored(bob.ID)
	assert.Equal(t, models.UserRoleUser, stored.Role)
	assert.Equal(t, "Bob", stored.Name)

	w := f.do(t, http.MethodPatch, "/users/"+bob.ID, map[string]string{"role": "guide"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.UserRoleGuide, f.users.Stored(bob.ID).Role)
}

func TestUserCRUD(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/users", map[string]string{
		"name":             "Guide",
		"email":            "guide@example.com",
		"role":             "guide",
		"password":         "pass1234",
		"password_confirm": "pass1234",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	doc := decode(t, w)["data"].(map[string]interface{})["doc"].(map[string]interface{})
	id, _ := doc["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "guide", doc["role"])

	w = f.do(t, http.MethodPost, "/users", map[string]string{
		"name":             "Bad",
		"email":            "bad@example.com",
		"role":             "superuser",
		"password":         "pass1234",
		"password_confirm": "pass1234",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["results"])

	w = f.do(t, http.MethodGet, "/users/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodDelete, "/users/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = f.do(t, http.MethodGet, "/users/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.MsgDocumentNotFound, decode(t, w)["message"])
}

func TestGetAll_InvalidQuery(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/users?page=zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMeAndDeactivate(t *testing.T) {
	f := newHandlerFixture(t)
	alice := f.seed(t, "Alice", "alice@example.com", "pass1234")

	w := f.do(t, http.MethodGet, "/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	f.identity = &auth.Identity{AccountID: alice.ID, Role: models.UserRoleUser, IssuedAt: time.Now()}

	w = f.do(t, http.MethodGet, "/users/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	doc := decode(t, w)["data"].(map[string]interface{})["doc"].(map[string]interface{})
	assert.Equal(t, alice.ID, doc["id"])

	w = f.do(t, http.MethodPost, "/users/deactivate", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, f.users.Stored(alice.ID).Active)
}

func TestUpdatePassword_IssuesNewSession(t *testing.T) {
	f := newHandlerFixture(t)
	alice := f.seed(t, "Alice", "alice@example.com", "pass1234")
	f.identity = &auth.Identity{AccountID: alice.ID, Role: models.UserRoleUser, IssuedAt: time.Now()}

	w := f.do(t, http.MethodPost, "/users/update-password", map[string]string{
		"current_password":     "wrong-pass",
		"new_password":         "newpass123",
		"new_password_confirm": "newpass123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.MsgWrongCurrentPassword, decode(t, w)["message"])

	w = f.do(t, http.MethodPost, "/users/update-password", map[string]string{
		"current_password":     "pass1234",
		"new_password":         "newpass123",
		"new_password_confirm": "newpass123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decode(t, w)["token"])
	assert.Len(t, w.Result().Cookies(), 1)
}

func TestForgotPassword_PublicURLIgnoresRequestHost(t *testing.T) {
	issuer, err := auth.NewSessionIssuer(auth.TokenConfig{Secret: "test-secret", TTL: time.Hour})
	require.NoError(t, err)

	users := testutil.NewUsers()
	mailer := &testutil.Mailer{}
	creds := services.NewCredentialStore(auth.NewBcryptHasherWithCost(bcrypt.MinCost))
	user := &models.User{Name: "Alice", Email: "alice@example.com"}
	require.NoError(t, creds.SetPassword(user, "pass1234", "pass1234", time.Now()))
	users.Put(user)

	h := NewAuthHandler(NewBaseHandler(validator.New()), services.NewAuthService(users, creds, issuer, mailer), false,
		WithPublicURL("https://api.tourbook.io"))
	r := gin.New()
	h.RegisterPublicRoutes(r.Group("/users"))

	req := httptest.NewRequest(http.MethodPost, "http://attacker.example/users/forgot-password",
		strings.NewReader(`{"email":"alice@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-Proto", "http")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	msg := mailer.Last()
	require.NotNil(t, msg)
	assert.Contains(t, msg.Body, "https://api.tourbook.io"+services.ResetPasswordPath)
	assert.NotContains(t, msg.Body, "attacker.example")
}

func TestRequestBaseURL(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "http://api.example.com/users", nil)
	assert.Equal(t, "http://api.example.com", requestBaseURL(c))

	c.Request.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://api.example.com", requestBaseURL(c))
}
