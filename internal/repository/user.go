package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/mtlprog/teamtask/internal/domain"
)

var userColumns = []string{"id", "login", "token_digest", "created_at"}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	var digest *string
	err := row.Scan(&user.ID, &user.Login, &digest, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if digest != nil {
		user.TokenDigest = *digest
	}
	return &user, nil
}

// GetUser retrieves a user by ID.
func (t *pgTx) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return getUser(ctx, t.q, sq.Eq{"id": userID})
}

// GetByTokenDigest finds a user by the SHA-256 digest of their API token.
func (s *Store) GetByTokenDigest(ctx context.Context, digest string) (*domain.User, error) {
	return getUser(ctx, s.pool, sq.Eq{"token_digest": digest})
}

// GetUserByLogin finds a user by login.
func (s *Store) GetUserByLogin(ctx context.Context, login string) (*domain.User, error) {
	return getUser(ctx, s.pool, sq.Eq{"login": login})
}

func getUser(ctx context.Context, q querier, where sq.Eq) (*domain.User, error) {
	query, args, err := psql.
		Select(userColumns...).
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return scanUser(q.QueryRow(ctx, query, args...))
}

// CreateUser inserts a user with the given token digest.
func (s *Store) CreateUser(ctx context.Context, login, tokenDigest string) (*domain.User, error) {
	query, args, err := psql.
		Insert("users").
		Columns("login", "token_digest").
		Values(login, tokenDigest).
		Suffix("RETURNING id, login, token_digest, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build CreateUser query: %w", err)
	}

	return scanUser(s.pool.QueryRow(ctx, query, args...))
}
