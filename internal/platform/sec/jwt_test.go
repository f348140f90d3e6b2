// Copyright (c) 2026 Atelier. All rights reserved.

package sec_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier-api/internal/platform/sec"
)

const (
	testAccessSecret  = "unit-test-access-secret-0123456789abcdef"
	testRefreshSecret = "unit-test-refresh-secret-0123456789abcdef"
)

func newTestTokenService(t *testing.T, accessTTL, refreshTTL time.Duration) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService(testAccessSecret, testRefreshSecret, accessTTL, refreshTTL, "atelier.dev")
	require.NoError(t, err)
	return service
}

/*
TestNewTokenService_SecretValidation checks the constructor guard rails.
*/
func TestNewTokenService_SecretValidation(t *testing.T) {
	tests := []struct {
		name          string
		accessSecret  string
		refreshSecret string
		wantErr       bool
	}{
		{"valid_pair", testAccessSecret, testRefreshSecret, false},
		{"access_too_short", "short", testRefreshSecret, true},
		{"refresh_too_short", testAccessSecret, "short", true},
		{"identical_secrets", testAccessSecret, testAccessSecret, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sec.NewTokenService(tt.accessSecret, tt.refreshSecret, time.Minute, time.Hour, "atelier.dev")

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

/*
TestTokenService_RoundTrip verifies that a generated pair carries the user
claims through both verification paths.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service := newTestTokenService(t, 15*time.Minute, 720*time.Hour)

	pair, err := service.GeneratePair("user-1", "alice", "alice@example.com", true)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(720*time.Hour), pair.RefreshTokenExpiresAt, time.Minute)

	accessClaims, err := service.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", accessClaims.UserID)
	assert.Equal(t, "alice", accessClaims.Login)
	assert.Equal(t, "alice@example.com", accessClaims.Email)
	assert.True(t, accessClaims.IsActivated)

	refreshClaims, err := service.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", refreshClaims.UserID)
}

/*
TestTokenService_CrossSecretRejection checks that tokens cannot cross roles:
an access token must never verify as a refresh token and vice versa.
*/
func TestTokenService_CrossSecretRejection(t *testing.T) {
	service := newTestTokenService(t, 15*time.Minute, 720*time.Hour)

	pair, err := service.GeneratePair("user-1", "alice", "alice@example.com", false)
	require.NoError(t, err)

	_, err = service.VerifyRefresh(pair.AccessToken)
	assert.Error(t, err)

	_, err = service.VerifyAccess(pair.RefreshToken)
	assert.Error(t, err)
}

/*
TestTokenService_Expiry checks that an expired token is rejected.
*/
func TestTokenService_Expiry(t *testing.T) {
	service := newTestTokenService(t, -time.Minute, -time.Minute)

	pair, err := service.GeneratePair("user-1", "alice", "alice@example.com", false)
	require.NoError(t, err)

	_, err = service.VerifyAccess(pair.AccessToken)
	assert.Error(t, err)

	_, err = service.VerifyRefresh(pair.RefreshToken)
	assert.Error(t, err)
}

/*
TestTokenService_TamperedToken checks that a modified payload fails
signature verification.
*/
func TestTokenService_TamperedToken(t *testing.T) {
	service := newTestTokenService(t, 15*time.Minute, 720*time.Hour)

	pair, err := service.GeneratePair("user-1", "alice", "alice@example.com", false)
	require.NoError(t, err)

	parts := strings.Split(pair.AccessToken, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	_, err = service.VerifyAccess(tampered)
	assert.Error(t, err)

	_, err = service.VerifyAccess("not-a-token")
	assert.Error(t, err)
}

/*
TestTokenService_WrongIssuer checks that tokens minted for another issuer
are rejected.
*/
func TestTokenService_WrongIssuer(t *testing.T) {
	issuerA := newTestTokenService(t, 15*time.Minute, 720*time.Hour)

	issuerB, err := sec.NewTokenService(testAccessSecret, testRefreshSecret, 15*time.Minute, 720*time.Hour, "other.example")
	require.NoError(t, err)

	pair, err := issuerB.GeneratePair("user-1", "alice", "alice@example.com", false)
	require.NoError(t, err)

	_, err = issuerA.VerifyAccess(pair.AccessToken)
	assert.Error(t, err)
}
