// Copyright (c) 2026 Atelier. All rights reserved.

package auth

import (
	"context"

	"github.com/atelierhq/atelier-api/internal/platform/sec"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
//
// Absence is a normal result: lookups return an [apperr.AppError] with code
// NOT_FOUND rather than panicking, and the caller must check for it explicitly.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByActivationLink returns the account holding the given opaque
		activation token.

		Parameters:
		  - context: context.Context
		  - link: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByActivationLink(context context.Context, link string) (*User, error)

	/*
		Create persists a brand-new user account to the storage.

		The email unique index is the final arbiter of uniqueness; a duplicate
		surfaces as apperr.Conflict.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.Conflict or persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		Save persists changes to mutable fields (activation state, avatar).

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Save(context context.Context, user *User) error

	/*
		Delete permanently removes the account row.

		Only invoked as the registration compensating action; there is no
		user-facing deletion path.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, id string) error

	/*
		FindAll returns a page of user accounts ordered by creation time.

		Parameters:
		  - context: context.Context
		  - limit: int
		  - offset: int

		Returns:
		  - []*User: Hydrated entities
		  - error: Database retrieval failures
	*/
	FindAll(context context.Context, limit, offset int) ([]*User, error)

	/*
		Count returns the total number of user accounts.

		Parameters:
		  - context: context.Context

		Returns:
		  - int: Total account count
		  - error: Database retrieval failures
	*/
	Count(context context.Context) (int, error)
}

// # Session Token Storage

// TokenStore defines the contract for the server-side refresh-token table,
// keyed by user ID.
//
// # Invariant
//
// At most one stored refresh token exists per user ID: saving a new token
// overwrites the prior one, so concurrent logins from multiple devices
// invalidate each other's refresh token. This is documented current behavior,
// not necessarily desired.
type TokenStore interface {

	/*
		Save upserts the stored token record for userID, overwriting any
		prior token.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - refreshToken: string

		Returns:
		  - error: Persistence failures
	*/
	Save(context context.Context, userID, refreshToken string) error

	/*
		Remove deletes the stored record matching this refresh token value.

		Parameters:
		  - context: context.Context
		  - refreshToken: string

		Returns:
		  - int64: Number of removed records (0 or 1)
		  - error: Persistence failures
	*/
	Remove(context context.Context, refreshToken string) (int64, error)

	/*
		Find resolves a refresh token value to the owning user ID.

		Parameters:
		  - context: context.Context
		  - refreshToken: string

		Returns:
		  - string: Owning user ID
		  - error: apperr.NotFound when absent, or retrieval failures
	*/
	Find(context context.Context, refreshToken string) (string, error)
}

// # External Collaborators

// TokenProvider defines the contract for issuing and verifying signed token pairs.
type TokenProvider interface {
	// GeneratePair produces a signed access/refresh pair carrying the same
	// user-claims payload, signed with two distinct secrets.
	GeneratePair(userID, login, email string, isActivated bool) (sec.TokenPair, error)

	// VerifyRefresh verifies signature and expiry against the refresh-token
	// secret. Any failure means "invalid session", not a system fault.
	VerifyRefresh(token string) (*sec.AuthClaims, error)
}

// ActivationMailer defines the contract for sending the activation email.
//
// Delivery failure is non-fatal to registration.
type ActivationMailer interface {
	SendActivationMail(context context.Context, email, activationURL string) error
}
