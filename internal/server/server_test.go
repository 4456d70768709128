package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"propelize/internal/testutil"
	"propelize/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type testAPI struct {
	t      *testing.T
	router http.Handler
	users  *testutil.UserStore
	tokens *utils.TokenService
}

func newTestAPI(t *testing.T, pingErr error) *testAPI {
	t.Helper()
	tokens, err := utils.NewTokenService("access-secret", "refresh-secret")
	require.NoError(t, err)
	hasher, err := utils.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	users := testutil.NewUserStore()

	router := NewRouter(Deps{
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		DB:                fakePinger{err: pingErr},
		Users:             users,
		Vehicles:          testutil.NewVehicleStore(),
		Tokens:            tokens,
		Hasher:            hasher,
		InitialAdminEmail: "admin@propelize.com",
	})
	return &testAPI{t: t, router: router, users: users, tokens: tokens}
}

func (a *testAPI) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var decoded map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	return w, decoded
}

// login registers a user and returns an access token.
func (a *testAPI) login(name, email string) (string, map[string]any) {
	a.t.Helper()
	w, _ := a.do(http.MethodPost, "/api/users/register", "", gin.H{"name": name, "email": email, "password": "secret123"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	w, body := a.do(http.MethodPost, "/api/users/login", "", gin.H{"email": email, "password": "secret123"})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	tokens := body["tokens"].(map[string]any)
	return tokens["accessToken"].(string), body
}

func TestRegister(t *testing.T) {
	api := newTestAPI(t, nil)

	w, body := api.do(http.MethodPost, "/api/users/register", "", gin.H{"name": "Jane", "email": "jane@x.com", "password": "secret123"})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "user created successfully", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "jane@x.com", user["email"])
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, w.Body.String(), "$2a$")

	w, body = api.do(http.MethodPost, "/api/users/register", "", gin.H{"name": "Jane", "email": "jane@x.com", "password": "other123"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "a user with this email already exists", body["message"])
}

func TestRegister_InvalidBody(t *testing.T) {
	api := newTestAPI(t, nil)

	w, body := api.do(http.MethodPost, "/api/users/register", "", gin.H{"name": "J", "email": "not-an-email", "password": "123"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request data", body["message"])
	assert.Len(t, body["errors"], 3)
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t, nil)
	_, body := api.login("Jane", "jane@x.com")

	assert.Equal(t, "login successful", body["message"])
	tokens := body["tokens"].(map[string]any)
	assert.Equal(t, float64(900), tokens["expiresIn"])
	assert.NotEmpty(t, tokens["refreshToken"])
}

func TestLogin_GenericFailure(t *testing.T) {
	api := newTestAPI(t, nil)
	api.login("Jane", "jane@x.com")

	wrongPassword, body1 := api.do(http.MethodPost, "/api/users/login", "", gin.H{"email": "jane@x.com", "password": "wrong-password"})
	unknownEmail, body2 := api.do(http.MethodPost, "/api/users/login", "", gin.H{"email": "ghost@x.com", "password": "secret123"})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, "incorrect email or password", body1["message"])
	assert.Equal(t, body1, body2)
}

func TestRefreshToken(t *testing.T) {
	api := newTestAPI(t, nil)
	_, loginBody := api.login("Jane", "jane@x.com")
	refresh := loginBody["tokens"].(map[string]any)["refreshToken"].(string)
	access := loginBody["tokens"].(map[string]any)["accessToken"].(string)

	w, body := api.do(http.MethodPost, "/api/users/refresh-token", "", gin.H{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "token refreshed successfully", body["message"])
	assert.NotEmpty(t, body["tokens"].(map[string]any)["accessToken"])

	w, body = api.do(http.MethodPost, "/api/users/refresh-token", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "refresh token required", body["message"])

	w, body = api.do(http.MethodPost, "/api/users/refresh-token", "", gin.H{"refreshToken": access})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid or expired refresh token", body["message"])
}

func TestAuthentication(t *testing.T) {
	api := newTestAPI(t, nil)
	token, loginBody := api.login("Jane", "jane@x.com")
	id := int(loginBody["user"].(map[string]any)["id"].(float64))

	w, body := api.do(http.MethodGet, "/api/vehicles", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "access token required", body["message"])

	w, body = api.do(http.MethodGet, "/api/vehicles", "garbage", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "invalid or expired token", body["message"])

	w, _ = api.do(http.MethodGet, "/api/vehicles", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	_, err := api.users.Delete(context.Background(), id)
	require.NoError(t, err)
	w, body = api.do(http.MethodGet, "/api/vehicles", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "user not found", body["message"])
}

func TestAdminRoutes(t *testing.T) {
	api := newTestAPI(t, nil)
	adminToken, _ := api.login("Admin", "admin@propelize.com")
	userToken, userBody := api.login("Jane", "jane@x.com")
	userID := int(userBody["user"].(map[string]any)["id"].(float64))

	w, body := api.do(http.MethodGet, "/api/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "access denied: insufficient permissions", body["message"])
	assert.NotContains(t, w.Body.String(), "admin")

	w, _ = api.do(http.MethodGet, "/api/users", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(http.MethodDelete, "/api/users/"+strconv.Itoa(userID), userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = api.do(http.MethodDelete, "/api/users/"+strconv.Itoa(userID), adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, body = api.do(http.MethodDelete, "/api/users/"+strconv.Itoa(userID), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user not found", body["message"])
}

func TestUserSelfService(t *testing.T) {
	api := newTestAPI(t, nil)
	aliceToken, aliceBody := api.login("Alice", "alice@x.com")
	_, bobBody := api.login("Bob", "bob@x.com")
	aliceID := strconv.Itoa(int(aliceBody["user"].(map[string]any)["id"].(float64)))
	bobID := strconv.Itoa(int(bobBody["user"].(map[string]any)["id"].(float64)))

	w, _ := api.do(http.MethodGet, "/api/users/"+aliceID, aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(http.MethodGet, "/api/users/"+bobID, aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := api.do(http.MethodPut, "/api/users/"+aliceID, aliceToken, gin.H{"name": "Alice B."})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Alice B.", body["user"].(map[string]any)["name"])

	w, _ = api.do(http.MethodPut, "/api/users/"+aliceID, aliceToken, gin.H{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = api.do(http.MethodPut, "/api/users/"+aliceID, aliceToken, gin.H{"role": "superuser"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.do(http.MethodPut, "/api/users/"+aliceID, aliceToken, gin.H{"email": "bob@x.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = api.do(http.MethodGet, "/api/users/abc", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVehicles(t *testing.T) {
	api := newTestAPI(t, nil)
	token, _ := api.login("Jane", "jane@x.com")

	vehicle := gin.H{"registrationNumber": "AB-123-CD", "make": "Toyota", "model": "Corolla", "year": 2022, "rentPrice": 49.99}
	w, body := api.do(http.MethodPost, "/api/vehicles", token, vehicle)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := strconv.Itoa(int(body["id"].(float64)))

	w, _ = api.do(http.MethodPost, "/api/vehicles", token, vehicle)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, body = api.do(http.MethodGet, "/api/vehicles/registration/AB-123-CD", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Toyota", body["make"])

	w, _ = api.do(http.MethodGet, "/api/vehicles/"+id, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(http.MethodGet, "/api/vehicles/price/range?min=10&max=50", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "AB-123-CD")

	w, _ = api.do(http.MethodGet, "/api/vehicles/price/range?min=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	vehicle["model"] = "Yaris"
	w, body = api.do(http.MethodPut, "/api/vehicles/"+id, token, vehicle)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Yaris", body["model"])

	w, _ = api.do(http.MethodDelete, "/api/vehicles/"+id, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, body = api.do(http.MethodGet, "/api/vehicles/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "vehicle not found", body["message"])
}

func TestVehicles_Validation(t *testing.T) {
	api := newTestAPI(t, nil)
	token, _ := api.login("Jane", "jane@x.com")

	w, body := api.do(http.MethodPost, "/api/vehicles", token, gin.H{
		"registrationNumber": "123",
		"make":               "T",
		"model":              "Corolla",
		"year":               1850,
		"rentPrice":          10.555,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request data", body["message"])
	assert.ElementsMatch(t, []any{
		"registrationNumber must match the format XX-123-XX",
		"make must be at least 2 characters",
		"year must be at least 1900",
		"rentPrice must have at most two decimal places",
	}, body["errors"])
}

func TestHealth(t *testing.T) {
	w, body := newTestAPI(t, nil).do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	w, _ = newTestAPI(t, errors.New("connection refused")).do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestIDHeader(t *testing.T) {
	w, _ := newTestAPI(t, nil).do(http.MethodGet, "/health", "", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestColumnLimitsAreValidated(t *testing.T) {
	api := newTestAPI(t, nil)
	token, loginBody := api.login("Jane", "jane@x.com")
	id := strconv.Itoa(int(loginBody["user"].(map[string]any)["id"].(float64)))

	w, body := api.do(http.MethodPost, "/api/vehicles", token, gin.H{
		"registrationNumber": "AB-123-CD", "make": "Toyota", "model": "Corolla", "year": 2022, "rentPrice": 1e9,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []any{"rentPrice must be at most 99999999.99"}, body["errors"])

	longEmail := strings.Repeat("a", 250) + "@x.com"
	w, _ = api.do(http.MethodPost, "/api/users/register", "", gin.H{"name": "Long", "email": longEmail, "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.do(http.MethodPut, "/api/users/"+id, token, gin.H{"email": longEmail})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVehicles_LowercaseRegistrationIsNormalized(t *testing.T) {
	api := newTestAPI(t, nil)
	token, _ := api.login("Jane", "jane@x.com")

	w, body := api.do(http.MethodPost, "/api/vehicles", token, gin.H{
		"registrationNumber": "ab-123-cd", "make": "Toyota", "model": "Corolla", "year": 2022, "rentPrice": 49.99,
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "AB-123-CD", body["registrationNumber"])
}
