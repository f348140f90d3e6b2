// Copyright (c) 2026 Atelier. All rights reserved.

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via the [TokenProvider] interface defined in the domain.
package sec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// minSecretLen is the minimum byte length accepted for an HMAC signing secret.
const minSecretLen = 32

// AuthClaims represents the payload embedded inside both tokens of a pair.
//
// # Why custom claims?
//
// By embedding the user projection (ID, Login, Email, IsActivated) directly
// inside the JWT, the authentication middleware can reconstruct the active
// user context WITHOUT querying the database on every single API request.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID      string `json:"uid"`
	Login       string `json:"lgn"`
	Email       string `json:"eml"`
	IsActivated bool   `json:"act"`
}

// TokenPair is the result of issuing a new session: a short-lived access
// token and a long-lived refresh token, signed with distinct secrets.
type TokenPair struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// TokenService handles generation and verification of JWT token pairs
// using HMAC-SHA256.
//
// # Two Secrets
//
// Access and refresh tokens are signed with distinct secrets so that a
// compromised access-token secret cannot be used to forge refresh tokens.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

// NewTokenService creates a new TokenService.
//
// It rejects secrets shorter than 32 bytes and identical secret pairs.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, issuer string) (*TokenService, error) {
	if len(accessSecret) < minSecretLen || len(refreshSecret) < minSecretLen {
		return nil, fmt.Errorf("sec: token secrets must be at least %d bytes", minSecretLen)
	}

	if accessSecret == refreshSecret {
		return nil, fmt.Errorf("sec: access and refresh secrets must differ")
	}

	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        issuer,
	}, nil
}

// GeneratePair produces a signed access/refresh token pair carrying the same
// user claims payload.
func (service *TokenService) GeneratePair(userID, login, email string, isActivated bool) (TokenPair, error) {
	currentTime := time.Now()

	accessToken, err := service.sign(service.accessSecret, userID, login, email, isActivated, currentTime, service.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sec: failed to sign access token: %w", err)
	}

	refreshToken, err := service.sign(service.refreshSecret, userID, login, email, isActivated, currentTime, service.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sec: failed to sign refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: currentTime.Add(service.refreshTTL),
	}, nil
}

// RefreshTokenTTL exposes the configured refresh-token lifetime.
//
// The Redis session store uses it to expire stored tokens in lockstep with
// the signed expiry.
func (service *TokenService) RefreshTokenTTL() time.Duration {
	return service.refreshTTL
}

// VerifyAccess checks the signature and validity of an access token string.
func (service *TokenService) VerifyAccess(tokenString string) (*AuthClaims, error) {
	return service.verify(service.accessSecret, tokenString)
}

// VerifyRefresh checks the signature and validity of a refresh token string.
//
// Any verification failure (bad signature, expiry, malformed input) is an
// "invalid session" outcome for the caller, not a system fault.
func (service *TokenService) VerifyRefresh(tokenString string) (*AuthClaims, error) {
	return service.verify(service.refreshSecret, tokenString)
}

// sign builds and signs a single token with the given secret and lifetime.
func (service *TokenService) sign(secret []byte, userID, login, email string, isActivated bool, issuedAt time.Time, timeToLive time.Duration) (string, error) {
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(timeToLive)),
		},
		UserID:      userID,
		Login:       login,
		Email:       email,
		IsActivated: isActivated,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// verify parses a token string against the given secret.
func (service *TokenService) verify(secret []byte, tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(service.issuer),
	)

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	return claims, nil
}
