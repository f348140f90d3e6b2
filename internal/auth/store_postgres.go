// Copyright (c) 2026 Atelier. All rights reserved.

package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelierhq/atelier-api/internal/platform/dberr"
)

// userColumns is the canonical select list for users.account.
const userColumns = `id, login, email, passwordhash, activationlink, isactivated, avatardata, avatarcontenttype, createdat, updatedat`

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

/*
Create persists a new user record into the users.account table.

Description: Deep-persists account data, initializing timestamps. The unique
index on email converts racing duplicate registrations into apperr.Conflict.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate email, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, login, email, passwordhash, activationlink, isactivated, avatardata, avatarcontenttype, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Login,
		user.Email,
		user.PasswordHash,
		user.ActivationLink,
		user.IsActivated,
		user.AvatarData,
		user.AvatarContentType,
		user.CreatedAt,
		user.UpdatedAt,
	)

	return dberr.Wrap(err, "User")
}

/*
FindByEmail retrieves a user record by their unique email address.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE email = $1`

	return repository.queryOne(context, query, email)
}

/*
FindByID retrieves a user record by their unique ID.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE id = $1`

	return repository.queryOne(context, query, id)
}

/*
FindByActivationLink retrieves a user record by its opaque activation token.

Parameters:
  - context: context.Context
  - link: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByActivationLink(context context.Context, link string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE activationlink = $1`

	return repository.queryOne(context, query, link)
}

/*
Save persists changes to a user's mutable fields.

Description: Synchronizes activation state and avatar metadata with the
database, refreshing the updatedat timestamp.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: Update failures
*/
func (repository *PostgresUserRepository) Save(context context.Context, user *User) error {
	const query = `
		UPDATE users.account
		SET isactivated = $2, avatardata = $3, avatarcontenttype = $4, updatedat = $5
		WHERE id = $1`

	user.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.IsActivated,
		user.AvatarData,
		user.AvatarContentType,
		user.UpdatedAt,
	)

	return dberr.Wrap(err, "User")
}

/*
Delete permanently removes a user account row.

Description: Hard delete. Used only by the registration compensating action,
so the row must actually disappear rather than be soft-deleted.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: Execution failures
*/
func (repository *PostgresUserRepository) Delete(context context.Context, id string) error {
	const query = "DELETE FROM users.account WHERE id = $1"
	_, err := repository.pool.Exec(context, query, id)
	return dberr.Wrap(err, "User")
}

/*
FindAll returns a page of user accounts ordered by creation time.

Parameters:
  - context: context.Context
  - limit: int
  - offset: int

Returns:
  - []*User: Hydrated account entities
  - error: Execution failures
*/
func (repository *PostgresUserRepository) FindAll(context context.Context, limit, offset int) ([]*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users.account
		ORDER BY createdat
		LIMIT $1 OFFSET $2`

	rows, err := repository.pool.Query(context, query, limit, offset)
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user := &User{}
		if err := rows.Scan(
			&user.ID,
			&user.Login,
			&user.Email,
			&user.PasswordHash,
			&user.ActivationLink,
			&user.IsActivated,
			&user.AvatarData,
			&user.AvatarContentType,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, dberr.Wrap(err, "User")
		}
		users = append(users, user)
	}

	return users, dberr.Wrap(rows.Err(), "User")
}

/*
Count returns the total number of user accounts.

Parameters:
  - context: context.Context

Returns:
  - int: Total account count
  - error: Execution failures
*/
func (repository *PostgresUserRepository) Count(context context.Context) (int, error) {
	const query = "SELECT COUNT(*) FROM users.account"

	var total int
	if err := repository.pool.QueryRow(context, query).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "User")
	}

	return total, nil
}

// queryOne runs a single-row lookup and hydrates the entity.
func (repository *PostgresUserRepository) queryOne(context context.Context, query string, arg any) (*User, error) {
	user := &User{}
	err := repository.pool.QueryRow(context, query, arg).Scan(
		&user.ID,
		&user.Login,
		&user.Email,
		&user.PasswordHash,
		&user.ActivationLink,
		&user.IsActivated,
		&user.AvatarData,
		&user.AvatarContentType,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}

	return user, nil
}
