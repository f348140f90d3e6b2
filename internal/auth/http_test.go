// Copyright (c) 2026 Atelier. All rights reserved.

package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier-api/internal/auth"
	"github.com/atelierhq/atelier-api/internal/platform/middleware"
)

// newTestRouter mounts the auth handler the same way the API server does,
// including the bearer-token middleware guarding the user directory.
func newTestRouter(t *testing.T) (*chi.Mux, *serviceHarness) {
	t.Helper()

	h := newServiceHarness(t)
	handler := auth.NewHandler(h.service, 15*time.Minute)

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(h.jwt))
	router.Mount("/api/v1/auth", handler.Routes())
	router.Mount("/api/v1/users", handler.UsersRoutes())

	return router, h
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

// refreshCookie extracts the refresh_token cookie from a response.
func refreshCookie(t *testing.T, recorder *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == "refresh_token" {
			return cookie
		}
	}
	t.Fatal("refresh_token cookie not set")
	return nil
}

const registerBody = `{"login":"alice","email":"alice@example.com","password":"Sup3rsecret"}`

/*
TestHTTP_Register covers the registration endpoint: payload, cookie, and
error mapping.
*/
func TestHTTP_Register(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("success", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", registerBody)
		require.Equal(t, http.StatusCreated, recorder.Code)

		cookie := refreshCookie(t, recorder)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, "/api/v1/auth", cookie.Path)
		assert.NotEmpty(t, cookie.Value)

		var envelope struct {
			Data struct {
				AccessToken string `json:"access_token"`
				TokenType   string `json:"token_type"`
				ExpiresIn   int64  `json:"expires_in"`
				User        struct {
					Login       string `json:"login"`
					IsActivated bool   `json:"is_activated"`
				} `json:"user"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
		assert.NotEmpty(t, envelope.Data.AccessToken)
		assert.Equal(t, "Bearer", envelope.Data.TokenType)
		assert.Equal(t, int64(900), envelope.Data.ExpiresIn)
		assert.Equal(t, "alice", envelope.Data.User.Login)
		assert.False(t, envelope.Data.User.IsActivated)
	})

	t.Run("malformed_json", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "{not json")
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("validation_failure", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodPost, "/api/v1/auth/register",
			`{"login":"","email":"bad","password":"weak"}`)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("duplicate_email", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", registerBody)
		assert.Equal(t, http.StatusConflict, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "CONFLICT")
	})
}

/*
TestHTTP_Activate covers the activation link endpoint.
*/
func TestHTTP_Activate(t *testing.T) {
	router, h := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", registerBody)
	require.Equal(t, http.StatusCreated, recorder.Code)

	// The dispatched mail carries the activation URL; extract the link.
	require.Len(t, h.mailer.sent, 1)
	url := h.mailer.sent[0]
	link := url[strings.LastIndex(url, "/")+1:]

	t.Run("unknown_link", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodGet, "/api/v1/auth/activate/no-such-link", "")
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("success", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodGet, "/api/v1/auth/activate/"+link, "")
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"is_activated":true`)

		cookie := refreshCookie(t, recorder)
		assert.NotEmpty(t, cookie.Value)
	})
}

/*
TestHTTP_LoginLogout covers the login/logout cycle including cookie clearing.
*/
func TestHTTP_LoginLogout(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", registerBody)
	require.Equal(t, http.StatusCreated, recorder.Code)

	t.Run("unknown_email", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodPost, "/api/v1/auth/login",
			`{"email":"nobody@example.com","password":"Sup3rsecret"}`)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("wrong_password", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodPost, "/api/v1/auth/login",
			`{"email":"alice@example.com","password":"WrongPassword1"}`)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "AUTHENTICATION_FAILED")
	})

	t.Run("login_then_logout", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodPost, "/api/v1/auth/login",
			`{"email":"alice@example.com","password":"Sup3rsecret"}`)
		require.Equal(t, http.StatusOK, recorder.Code)
		cookie := refreshCookie(t, recorder)

		logoutRecorder := doJSON(t, router, http.MethodPost, "/api/v1/auth/logout", "", cookie)
		assert.Equal(t, http.StatusNoContent, logoutRecorder.Code)

		cleared := refreshCookie(t, logoutRecorder)
		assert.Empty(t, cleared.Value)
		assert.Negative(t, cleared.MaxAge)

		// The refresh token is dead after logout.
		refreshRecorder := doJSON(t, router, http.MethodGet, "/api/v1/auth/refresh", "", cookie)
		assert.Equal(t, http.StatusUnauthorized, refreshRecorder.Code)
	})

	t.Run("logout_without_cookie_is_idempotent", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodPost, "/api/v1/auth/logout", "")
		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})
}

/*
TestHTTP_RefreshAndSession covers cookie-driven rotation and the session
projection endpoint.
*/
func TestHTTP_RefreshAndSession(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", registerBody)
	require.Equal(t, http.StatusCreated, recorder.Code)
	cookie := refreshCookie(t, recorder)

	t.Run("session", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodGet, "/api/v1/auth/session", "", cookie)
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"login":"alice"`)
	})

	t.Run("session_without_cookie", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodGet, "/api/v1/auth/session", "")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("refresh_rotates_cookie", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodGet, "/api/v1/auth/refresh", "", cookie)
		require.Equal(t, http.StatusOK, recorder.Code)

		rotated := refreshCookie(t, recorder)
		assert.NotEqual(t, cookie.Value, rotated.Value)

		// The pre-rotation cookie is no longer a session.
		stale := doJSON(t, router, http.MethodGet, "/api/v1/auth/session", "", cookie)
		assert.Equal(t, http.StatusUnauthorized, stale.Code)

		// The rotated one is.
		live := doJSON(t, router, http.MethodGet, "/api/v1/auth/session", "", rotated)
		assert.Equal(t, http.StatusOK, live.Code)
	})
}

/*
TestHTTP_UsersDirectory covers the protected listing endpoint.
*/
func TestHTTP_UsersDirectory(t *testing.T) {
	router, h := newTestRouter(t)

	session, err := h.service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)
	_, err = h.service.Register(context.Background(), auth.RegisterInput{
		Login:    "bob",
		Email:    "bob@example.com",
		Password: "Sup3rsecret",
	})
	require.NoError(t, err)

	t.Run("requires_bearer_token", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodGet, "/api/v1/users", "")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("rejects_garbage_token", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
		request.Header.Set("Authorization", "Bearer not-a-token")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("lists_users", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/api/v1/users?page=1&limit=10", nil)
		request.Header.Set("Authorization", "Bearer "+session.AccessToken)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		require.Equal(t, http.StatusOK, recorder.Code)

		var envelope struct {
			Data []struct {
				Login string `json:"login"`
			} `json:"data"`
			Meta struct {
				Total int `json:"total"`
			} `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
		assert.Len(t, envelope.Data, 2)
		assert.Equal(t, 2, envelope.Meta.Total)

		// No secrets in the projection.
		assert.NotContains(t, recorder.Body.String(), "password")
		assert.NotContains(t, recorder.Body.String(), "activation")
	})
}
