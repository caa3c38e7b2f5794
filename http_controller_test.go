package signup_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	signup "github.com/goliatone/go-signup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	app      *fiber.App
	store    *memStore
	notifier *recorderNotifier
	tokens   signup.TokenService
}

func newTestServer() *testServer {
	store := newMemStore()
	notifier := &recorderNotifier{}
	tokens := signup.NewTokenService([]byte("test-signing-key"), 24, "test-issuer", nil, nil)

	lifecycle := signup.NewLifecycle(store, tokens).WithNotifier(notifier)

	app := fiber.New()
	signup.RegisterAuthRoutes(app,
		signup.WithLifecycle(lifecycle),
		signup.WithTokenService(tokens),
	)

	return &testServer{
		app:      app,
		store:    store,
		notifier: notifier,
		tokens:   tokens,
	}
}

func (s *testServer) post(t *testing.T, path string, body map[string]any) (*http.Response, map[string]any) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	res, err := s.app.Test(req, -1)
	require.NoError(t, err)

	return res, decodeBody(t, res)
}

func decodeBody(t *testing.T, res *http.Response) map[string]any {
	t.Helper()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	out := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func registerBody() map[string]any {
	return map[string]any{
		"name":     "Jane",
		"email":    "jane@u.edu",
		"password": "secret1",
		"role":     "STUDENT",
	}
}

func TestRegisterEndpoint(t *testing.T) {
	srv := newTestServer()

	res, body := srv.post(t, "/auth/register", registerBody())
	assert.Equal(t, fiber.StatusCreated, res.StatusCode)
	assert.Equal(t, "User registered. Verify OTP.", body["message"])

	// the OTP never shows up in the response
	_, leaked := body["otp"]
	assert.False(t, leaked)

	assert.Equal(t, 1, srv.notifier.calls)
	assert.Equal(t, "jane@u.edu", srv.notifier.address)
	assert.Len(t, srv.notifier.code, signup.OTPDigits)
}

func TestRegisterEndpointDuplicate(t *testing.T) {
	srv := newTestServer()

	res, _ := srv.post(t, "/auth/register", registerBody())
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	res, body := srv.post(t, "/auth/register", registerBody())
	assert.Equal(t, fiber.StatusConflict, res.StatusCode)
	assert.Equal(t, "User already exists", body["message"])
}

func TestRegisterEndpointValidation(t *testing.T) {
	srv := newTestServer()

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing email", map[string]any{"name": "Jane", "password": "secret1", "role": "STUDENT"}},
		{"bad email", map[string]any{"name": "Jane", "email": "nope", "password": "secret1", "role": "STUDENT"}},
		{"bad role", map[string]any{"name": "Jane", "email": "jane@u.edu", "password": "secret1", "role": "WIZARD"}},
		{"short password", map[string]any{"name": "Jane", "email": "jane@u.edu", "password": "abc", "role": "STUDENT"}},
		{"bad phone", map[string]any{"name": "Jane", "email": "jane@u.edu", "password": "secret1", "role": "STUDENT", "phone": "not-a-phone"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, _ := srv.post(t, "/auth/register", tc.body)
			assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
		})
	}

	assert.Equal(t, 0, srv.notifier.calls)
}

func TestVerifyOTPEndpoint(t *testing.T) {
	srv := newTestServer()

	res, _ := srv.post(t, "/auth/register", registerBody())
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	res, body := srv.post(t, "/auth/verify-otp", map[string]any{
		"email": "jane@u.edu",
		"otp":   srv.notifier.code,
	})
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, "Account verified", body["message"])

	// replaying the consumed code is rejected
	res, _ = srv.post(t, "/auth/verify-otp", map[string]any{
		"email": "jane@u.edu",
		"otp":   srv.notifier.code,
	})
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestVerifyOTPEndpointRejections(t *testing.T) {
	srv := newTestServer()

	res, _ := srv.post(t, "/auth/register", registerBody())
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	wrong := "000000"
	if srv.notifier.code == wrong {
		wrong = "000001"
	}

	// unknown email and wrong code surface as the same HTTP class
	res, _ = srv.post(t, "/auth/verify-otp", map[string]any{"email": "ghost@u.edu", "otp": wrong})
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

	res, _ = srv.post(t, "/auth/verify-otp", map[string]any{"email": "jane@u.edu", "otp": wrong})
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

	// malformed codes are rejected before the lifecycle runs
	res, _ = srv.post(t, "/auth/verify-otp", map[string]any{"email": "jane@u.edu", "otp": "12345"})
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func TestLoginEndpoint(t *testing.T) {
	srv := newTestServer()

	res, _ := srv.post(t, "/auth/register", registerBody())
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	// unverified accounts cannot log in
	res, _ = srv.post(t, "/auth/login", map[string]any{"email": "jane@u.edu", "password": "secret1"})
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

	res, _ = srv.post(t, "/auth/verify-otp", map[string]any{"email": "jane@u.edu", "otp": srv.notifier.code})
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	res, body := srv.post(t, "/auth/login", map[string]any{"email": "jane@u.edu", "password": "secret1"})
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)

	claims, err := srv.tokens.Validate(token)
	require.NoError(t, err)

	stored, err := srv.store.GetByEmail(context.Background(), "jane@u.edu")
	require.NoError(t, err)
	assert.Equal(t, stored.ID.String(), claims.Subject())
	assert.Equal(t, signup.RoleStudent, claims.Role())
}

func TestLoginEndpointIndistinguishableFailures(t *testing.T) {
	srv := newTestServer()

	res, _ := srv.post(t, "/auth/register", registerBody())
	require.Equal(t, fiber.StatusCreated, res.StatusCode)
	res, _ = srv.post(t, "/auth/verify-otp", map[string]any{"email": "jane@u.edu", "otp": srv.notifier.code})
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	resWrong, bodyWrong := srv.post(t, "/auth/login", map[string]any{"email": "jane@u.edu", "password": "nope"})
	resGhost, bodyGhost := srv.post(t, "/auth/login", map[string]any{"email": "ghost@u.edu", "password": "secret1"})

	assert.Equal(t, fiber.StatusUnauthorized, resWrong.StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, resGhost.StatusCode)
	assert.Equal(t, bodyWrong, bodyGhost)
}

func TestMeEndpoint(t *testing.T) {
	srv := newTestServer()

	res, _ := srv.post(t, "/auth/register", registerBody())
	require.Equal(t, fiber.StatusCreated, res.StatusCode)
	res, _ = srv.post(t, "/auth/verify-otp", map[string]any{"email": "jane@u.edu", "otp": srv.notifier.code})
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	res, body := srv.post(t, "/auth/login", map[string]any{"email": "jane@u.edu", "password": "secret1"})
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	token := body["access_token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	meRes, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, meRes.StatusCode)

	meBody := decodeBody(t, meRes)
	assert.Equal(t, signup.RoleStudent, meBody["role"])
	assert.NotEmpty(t, meBody["sub"])
}

func TestMeEndpointRejectsMissingOrBadToken(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	res, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer not.a.token")
	res, err = srv.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}
