// Copyright (c) 2026 Atelier. All rights reserved.

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, UserView) and logic for the
credential lifecycle: registration, email activation, login, logout,
refresh, and session checks.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
*/
package auth

import "time"

// # Domain Entities

// User represents a registered member of the Atelier portfolio.
//
// # Lifecycle
//
// A record is created at registration with IsActivated=false, flipped to true
// by the activation link, and removed only by the registration compensating
// delete. The password hash and activation link are never serialized.
type User struct {
	ID                string    `json:"id"`
	Login             string    `json:"login"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"` // Explicitly omitted from JSON for security.
	ActivationLink    string    `json:"-"` // Opaque single-purpose token. Omitted for security.
	IsActivated       bool      `json:"is_activated"`
	AvatarData        []byte    `json:"-"` // Raw image bytes, never inlined into API payloads.
	AvatarContentType string    `json:"avatar_content_type,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UserView is the read-only projection of a [User] exposed by every
// operation that returns user data. It deliberately carries no secrets.
type UserView struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	Email       string `json:"email"`
	IsActivated bool   `json:"is_activated"`
}

// NewUserView projects a [User] into an immutable [UserView].
//
// Constructed fresh on every operation; never persisted.
func NewUserView(user *User) UserView {
	return UserView{
		ID:          user.ID,
		Login:       user.Login,
		Email:       user.Email,
		IsActivated: user.IsActivated,
	}
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldLogin       = "login"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldLink        = "link"
	FieldAccessToken = "access_token"
	FieldTokenType   = "token_type"
	FieldExpiresIn   = "expires_in"
	FieldUser        = "user"
	FieldMessage     = "message"
)
