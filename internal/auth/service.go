// Copyright (c) 2026 Atelier. All rights reserved.

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/atelierhq/atelier-api/internal/platform/apperr"
	"github.com/atelierhq/atelier-api/internal/platform/ctxutil"
	"github.com/atelierhq/atelier-api/internal/platform/sec"
	"github.com/atelierhq/atelier-api/internal/platform/validate"
	"github.com/atelierhq/atelier-api/pkg/pagination"
	"github.com/atelierhq/atelier-api/pkg/uuid"
)

// # Service

// Limits holds the configurable bounds applied to registration input.
type Limits struct {
	MinLoginLen    int
	MaxLoginLen    int
	MinEmailLen    int
	MaxEmailLen    int
	MinPasswordLen int
	MaxPasswordLen int
}

// Service implements the credential lifecycle use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed carefully.
type Service struct {
	users     UserRepository
	tokens    TokenStore
	provider  TokenProvider
	mailer    ActivationMailer
	passwords *sec.Hasher
	limits    Limits
	baseURL   string
}

// NewService constructs a new [Service] with necessary dependencies.
// baseURL is the externally reachable API origin used to build activation links.
func NewService(
	users UserRepository,
	tokens TokenStore,
	provider TokenProvider,
	mailer ActivationMailer,
	passwords *sec.Hasher,
	limits Limits,
	baseURL string,
) *Service {
	return &Service{
		users:     users,
		tokens:    tokens,
		provider:  provider,
		mailer:    mailer,
		passwords: passwords,
		limits:    limits,
		baseURL:   baseURL,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Login    string
	Email    string
	Password string
}

// Session represents a successfully established user session.
type Session struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	User                  UserView
}

/*
Register validates, hashes, and persists a brand new user account.

Description: Enrolls a new member with a fresh activation link, dispatches the
activation email as a non-fatal side effect, and establishes the first session.
Registration is all-or-nothing: if any step after the insert fails, the
just-created record is deleted before the error propagates.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *Session: Transport-ready session identifiers plus the created user
  - error: ValidationError, Conflict (if email exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*Session, error) {

	// Collect every failing rule before reporting; validation never short-circuits.
	validator := &validate.Validator{}
	validator.
		Required(FieldLogin, input.Login).
		MinLen(FieldLogin, input.Login, service.limits.MinLoginLen).
		MaxLen(FieldLogin, input.Login, service.limits.MaxLoginLen).
		Alphanumeric(FieldLogin, input.Login).
		Required(FieldEmail, input.Email).
		MinLen(FieldEmail, input.Email, service.limits.MinEmailLen).
		MaxLen(FieldEmail, input.Email, service.limits.MaxEmailLen).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, service.limits.MinPasswordLen).
		MaxLen(FieldPassword, input.Password, service.limits.MaxPasswordLen).
		PasswordComplexity(FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// Verify email uniqueness. Return a client-safe Conflict err. The unique
	// index on email remains the final arbiter for racing registrations.
	if _, err := service.users.FindByEmail(context, input.Email); err == nil {
		return nil, apperr.Conflict(fmt.Sprintf("User with email %s already exists", input.Email))
	}

	// Prevent storing plain-text passwords.
	passwordHash, err := service.passwords.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index
	// fragmentation; opaque UUID doubles as the single-purpose activation link.
	user := &User{
		ID:                uuid.New(),
		Login:             input.Login,
		Email:             input.Email,
		PasswordHash:      passwordHash,
		ActivationLink:    uuid.New(),
		IsActivated:       false,
		AvatarData:        []byte{},
		AvatarContentType: "image/png",
	}

	// Persist the user to the database
	if err := service.users.Create(context, user); err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	// Dispatch the activation email. Delivery failure must not undo the
	// registration, so it is downgraded to a warning.
	activationURL := service.baseURL + "/api/v1/auth/activate/" + user.ActivationLink
	if err := service.mailer.SendActivationMail(context, user.Email, activationURL); err != nil {
		ctxutil.GetLogger(context).Warn("activation email delivery failed",
			"email", user.Email,
			"error", err,
		)
	}

	// Establish the first session. Compensate with a hard delete on failure
	// so no account is left without working credentials.
	session, err := service.issueSession(context, user)
	if err != nil {
		_ = service.users.Delete(context, user.ID)
		return nil, err
	}

	return session, nil
}

/*
Activate flips a user account to activated via its emailed link.

Description: Resolves the opaque link to an account, marks it activated, and
issues a fresh session. Re-visiting an already-used link is accepted and
simply re-issues tokens.

Parameters:
  - context: context.Context
  - link: string

Returns:
  - *Session: New session credentials
  - error: apperr.NotFound when the link matches no account
*/
func (service *Service) Activate(context context.Context, link string) (*Session, error) {
	user, err := service.users.FindByActivationLink(context, link)
	if err != nil {
		return nil, apperr.NotFound("Activation link")
	}

	if !user.IsActivated {
		user.IsActivated = true
		if err := service.users.Save(context, user); err != nil {
			return nil, fmt.Errorf("auth_service_activate_failed: %w", err)
		}
	}

	return service.issueSession(context, user)
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

/*
Login validates user credentials and issues security tokens.

Description: Verifies identity, performs constant-time password comparison,
and replaces the user's stored session with a freshly issued one.

NOTE: A missing account and a wrong password yield different errors. That is
the historical contract and it leaks account existence; callers relying on
the distinction keep it until the contract can be broken.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *Session: Transport-ready session identifiers
  - error: NotFound, Authentication, or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*Session, error) {
	// Same shape rules as registration: credentials that could never have
	// been registered are a validation failure, not an authentication one.
	validator := &validate.Validator{}
	validator.
		Required(FieldEmail, input.Email).
		MinLen(FieldEmail, input.Email, service.limits.MinEmailLen).
		MaxLen(FieldEmail, input.Email, service.limits.MaxEmailLen).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, service.limits.MinPasswordLen).
		MaxLen(FieldPassword, input.Password, service.limits.MaxPasswordLen).
		PasswordComplexity(FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	user, err := service.users.FindByEmail(context, input.Email)
	if err != nil {
		return nil, apperr.NotFound("User")
	}

	// Constant-time comparison in bcrypt to prevent timing attacks.
	if !service.passwords.Compare(input.Password, user.PasswordHash) {
		return nil, apperr.Authentication("Incorrect password")
	}

	return service.issueSession(context, user)
}

/*
Logout removes the stored session holding the given refresh token.

Description: Idempotent. An unknown or already-removed token is not an error;
the count simply reports zero.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - int64: Number of sessions removed (0 or 1)
  - error: Storage failures
*/
func (service *Service) Logout(context context.Context, refreshToken string) (int64, error) {
	if refreshToken == "" {
		return 0, nil
	}

	removed, err := service.tokens.Remove(context, refreshToken)
	if err != nil {
		return 0, fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	return removed, nil
}

// # Session Management

/*
Refresh exchanges a valid refresh token for a brand new token pair.

Description: Runs the full CheckAuth verification (signature AND stored
record), then issues and persists a replacement pair. The old refresh token
is overwritten by the upsert, so it cannot be replayed.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *Session: New session credentials
  - error: Unauthorized, Conflict, or storage failures
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (*Session, error) {
	user, err := service.verifySession(context, refreshToken)
	if err != nil {
		return nil, err
	}

	return service.issueSession(context, user)
}

/*
CheckAuth verifies a refresh token against both the signature and the store.

Description: Both conditions are required — a syntactically valid token whose
stored record was revoked or overwritten by a newer login must be rejected.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - UserView: The authenticated user projection
  - error: Unauthorized on any verification failure, Conflict when the
    session refers to a user that no longer exists
*/
func (service *Service) CheckAuth(context context.Context, refreshToken string) (UserView, error) {
	user, err := service.verifySession(context, refreshToken)
	if err != nil {
		return UserView{}, err
	}

	return NewUserView(user), nil
}

// verifySession resolves a refresh token to its account, enforcing that the
// token is signed, unexpired, and still present in the store.
func (service *Service) verifySession(context context.Context, refreshToken string) (*User, error) {
	if refreshToken == "" {
		return nil, apperr.Unauthorized("Missing refresh token")
	}

	claims, err := service.provider.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// The stored record must agree with the signature: an overwritten or
	// logged-out token is no longer a session.
	userID, err := service.tokens.Find(context, refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("Session has been revoked")
	}
	if userID != claims.UserID {
		return nil, apperr.Unauthorized("Session has been revoked")
	}

	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return nil, apperr.Conflict("Session refers to a user that no longer exists")
	}

	return user, nil
}

// issueSession generates a signed token pair for the user and upserts the
// refresh token as the user's single active session.
func (service *Service) issueSession(context context.Context, user *User) (*Session, error) {
	pair, err := service.provider.GeneratePair(user.ID, user.Login, user.Email, user.IsActivated)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	if err := service.tokens.Save(context, user.ID, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("auth_service_session_save_failed: %w", err)
	}

	return &Session{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		User:                  NewUserView(user),
	}, nil
}

// # User Directory

/*
ListUsers returns a page of registered users as safe projections.

Parameters:
  - context: context.Context
  - params: pagination.Params

Returns:
  - []UserView: Page of user projections
  - pagination.Meta: Paging metadata
  - error: Database retrieval failures
*/
func (service *Service) ListUsers(context context.Context, params pagination.Params) ([]UserView, pagination.Meta, error) {
	users, err := service.users.FindAll(context, params.Limit, params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("auth_service_list_users_failed: %w", err)
	}

	total, err := service.users.Count(context)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("auth_service_count_users_failed: %w", err)
	}

	views := make([]UserView, 0, len(users))
	for _, user := range users {
		views = append(views, NewUserView(user))
	}

	return views, pagination.NewMeta(params.Page, params.Limit, total), nil
}
