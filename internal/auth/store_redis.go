// Copyright (c) 2026 Atelier. All rights reserved.

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atelierhq/atelier-api/internal/platform/apperr"
	"github.com/atelierhq/atelier-api/internal/platform/constants"
	"github.com/atelierhq/atelier-api/internal/platform/sec"
)

// RedisTokenStore implements the TokenStore interface on top of Redis.
//
// Two keys are maintained per session so lookups work in both directions:
//
//	auth:refresh_token:<tokenhash> -> userID
//	auth:user_session:<userID>     -> tokenhash
//
// Saving a new token for a user first removes the token referenced by the
// user_session key, which is what enforces the single-session-per-user rule.
// Only the SHA-256 digest of the refresh token ever touches Redis.
type RedisTokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore creates a Redis-backed refresh token store. The TTL should
// match the refresh token lifetime so Redis expires sessions on its own.
func NewTokenStore(client *redis.Client, ttl time.Duration) *RedisTokenStore {
	return &RedisTokenStore{client: client, ttl: ttl}
}

/*
Save stores a refresh token for a user, replacing any existing session.

Parameters:
  - context: context.Context
  - userID: string
  - refreshToken: string (raw JWT, hashed before storage)

Returns:
  - error: Connectivity failures
*/
func (store *RedisTokenStore) Save(context context.Context, userID, refreshToken string) error {
	tokenHash := sec.HashToken(refreshToken)
	sessionKey := constants.RedisPrefixUserSession + userID

	previousHash, err := store.client.Get(context, sessionKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis_token_store_save_lookup_failed: %w", err)
	}

	pipe := store.client.TxPipeline()
	if previousHash != "" {
		pipe.Del(context, constants.RedisPrefixRefreshToken+previousHash)
	}
	pipe.Set(context, constants.RedisPrefixRefreshToken+tokenHash, userID, store.ttl)
	pipe.Set(context, sessionKey, tokenHash, store.ttl)

	if _, err := pipe.Exec(context); err != nil {
		return fmt.Errorf("redis_token_store_save_failed: %w", err)
	}

	return nil
}

/*
Remove deletes the session holding the given refresh token.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - int64: Number of sessions removed (0 when the token was not stored)
  - error: Connectivity failures
*/
func (store *RedisTokenStore) Remove(context context.Context, refreshToken string) (int64, error) {
	tokenHash := sec.HashToken(refreshToken)
	tokenKey := constants.RedisPrefixRefreshToken + tokenHash

	userID, err := store.client.Get(context, tokenKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis_token_store_remove_lookup_failed: %w", err)
	}

	pipe := store.client.TxPipeline()
	removed := pipe.Del(context, tokenKey)
	pipe.Del(context, constants.RedisPrefixUserSession+userID)

	if _, err := pipe.Exec(context); err != nil {
		return 0, fmt.Errorf("redis_token_store_remove_failed: %w", err)
	}

	return removed.Val(), nil
}

/*
Find resolves a stored refresh token back to its owning user.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - string: Owning user ID
  - error: apperr.NotFound when no session holds the token
*/
func (store *RedisTokenStore) Find(context context.Context, refreshToken string) (string, error) {
	tokenHash := sec.HashToken(refreshToken)

	userID, err := store.client.Get(context, constants.RedisPrefixRefreshToken+tokenHash).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperr.NotFound("Session")
	}
	if err != nil {
		return "", fmt.Errorf("redis_token_store_find_failed: %w", err)
	}

	return userID, nil
}
