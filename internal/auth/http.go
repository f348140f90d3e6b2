// Copyright (c) 2026 Atelier. All rights reserved.

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atelierhq/atelier-api/internal/platform/constants"
	"github.com/atelierhq/atelier-api/internal/platform/middleware"
	requestutil "github.com/atelierhq/atelier-api/internal/platform/request"
	"github.com/atelierhq/atelier-api/internal/platform/respond"
	"github.com/atelierhq/atelier-api/internal/platform/validate"
	"github.com/atelierhq/atelier-api/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages every credential-lifecycle entry point (registration,
// activation, login, logout, refresh, session check) plus the user directory.
// It is strictly responsible for transport concerns (status codes, cookies,
// JSON); all business rules live in [Service].
type Handler struct {
	authService    *Service
	accessTokenTTL time.Duration
}

// NewHandler constructs a new [Handler] with its service dependency.
// accessTokenTTL is surfaced as expires_in on token responses.
func NewHandler(service *Service, accessTokenTTL time.Duration) *Handler {
	return &Handler{authService: service, accessTokenTTL: accessTokenTTL}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register        : Creates a new account and first session.
//   - GET  /activate/{link} : Consumes an emailed activation link.
//   - POST /login           : Authenticates and returns a token pair.
//   - POST /logout          : Clears the stored session and cookie.
//   - GET  /refresh         : Rotates the pair from the refresh cookie.
//   - GET  /session         : Returns the user behind the refresh cookie.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Get("/activate/{link}", handler.activate)
	router.Post("/login", handler.login)
	router.Post("/logout", handler.logout)
	router.Get("/refresh", handler.refresh)
	router.Get("/session", handler.session)

	return router
}

// UsersRoutes returns the router for the protected user directory.
//
// # Endpoints
//   - GET / : Paginated listing of registered users.
func (handler *Handler) UsersRoutes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", handler.listUsers)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

/*
Register handles the creation of a new user account.

POST /api/v1/auth/register

Description: Validates input, checks for email conflicts, persists a new
account, dispatches the activation email, and establishes the first session.

Request:
  - Body: registerRequest (Login, Email, Password)

Response:
  - 201: Session: Access token and created user profile (refresh cookie set)
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Email already registered
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	session, err := handler.authService.Register(request.Context(), RegisterInput{
		Login:    input.Login,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, session)
	respond.Created(writer, handler.sessionPayload(session))
}

/*
Activate consumes an emailed activation link.

GET /api/v1/auth/activate/{link}

Description: Marks the matching account as activated and issues a fresh
session. Revisiting an already-used link re-issues tokens.

Response:
  - 200: Session: Access token and user profile (refresh cookie set)
  - 404: ErrNotFound: Link matches no account
*/
func (handler *Handler) activate(writer http.ResponseWriter, request *http.Request) {
	link := requestutil.Param(request, "link")
	if link == "" {
		respond.Error(writer, request, validate.RequiredError(FieldLink, "is required"))
		return
	}

	session, err := handler.authService.Activate(request.Context(), link)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, session)
	respond.OK(writer, handler.sessionPayload(session))
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials, generates a JWT token pair, and injects
a secure refresh token cookie into the response.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: Session: Access token and user profile (refresh cookie set)
  - 401: ErrAuthentication: Password mismatch
  - 404: ErrNotFound: No account for this email
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, session)
	respond.OK(writer, handler.sessionPayload(session))
}

/*
Logout terminates the current user session.

POST /api/v1/auth/logout

Description: Removes the stored refresh token (if present) and clears the
security cookie from the client. Idempotent.

Response:
  - 204: No Content: Session terminated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)

	if err == nil && cookie != nil && cookie.Value != "" {
		_, _ = handler.authService.Logout(request.Context(), cookie.Value)
	}

	handler.clearRefreshCookie(writer)
	respond.NoContent(writer)
}

/*
Refresh issues a new token pair using a valid refresh token.

GET /api/v1/auth/refresh

Description: Verifies the refresh token cookie against both signature and
stored record, then rotates the pair and updates the cookie.

Response:
  - 200: Session: New access token credentials (refresh cookie rotated)
  - 401: ErrUnauthorized: Missing, invalid, or revoked refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.authService.Refresh(request.Context(), refreshTokenFromCookie(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, session)
	respond.OK(writer, handler.sessionPayload(session))
}

/*
Session returns the user behind the current refresh token.

GET /api/v1/auth/session

Description: Verifies the refresh token cookie without rotating anything and
returns the safe user projection.

Response:
  - 200: UserView: Authenticated user profile
  - 401: ErrUnauthorized: Missing, invalid, or revoked refresh token
*/
func (handler *Handler) session(writer http.ResponseWriter, request *http.Request) {
	user, err := handler.authService.CheckAuth(request.Context(), refreshTokenFromCookie(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{FieldUser: user})
}

/*
ListUsers returns a paginated directory of registered users.

GET /api/v1/users

Description: Requires an authenticated access token. Users are returned as
safe projections without credentials.

Response:
  - 200: []UserView with pagination metadata
  - 401: ErrUnauthorized: Missing or invalid access token
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	users, meta, err := handler.authService.ListUsers(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, meta)
}

// # Cookie & Payload Helpers

// sessionPayload builds the standard token-response body.
func (handler *Handler) sessionPayload(session *Session) map[string]any {
	return map[string]any{
		FieldAccessToken: session.AccessToken,
		FieldTokenType:   "Bearer",
		FieldExpiresIn:   int64(handler.accessTokenTTL / time.Second),
		FieldUser:        session.User,
	}
}

// setRefreshCookie injects the HttpOnly refresh token cookie scoped to the
// auth path, expiring alongside the token itself.
func (handler *Handler) setRefreshCookie(writer http.ResponseWriter, session *Session) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    session.RefreshToken,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  session.RefreshTokenExpiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearRefreshCookie instructs the client to drop the refresh token cookie.
func (handler *Handler) clearRefreshCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// refreshTokenFromCookie extracts the raw refresh token, or "" when absent.
func refreshTokenFromCookie(request *http.Request) string {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie == nil {
		return ""
	}
	return cookie.Value
}
