package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veridium/idcard-services/internal/idcardsvc/models"
)

type UserStore struct {
	db *pgxpool.Pool
}

func NewUserStore(db *pgxpool.Pool) *UserStore {
	return &UserStore{db: db}
}

func (r *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.db.QueryRow(ctx, `
        SELECT user_id, name, email, phone, avatar, access_level, status, created_at, updated_at
        FROM users
        WHERE user_id = $1
    `, id)

	u := &models.User{}
	err := row.Scan(
		&u.UserId,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.Avatar,
		&u.AccessLevel,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not get user %d: %w", id, err)
	}

	return u, nil
}

func (r *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRow(ctx, `
        SELECT user_id, name, email, phone, avatar, access_level, status, created_at, updated_at
        FROM users
        WHERE lower(email) = $1
    `, strings.ToLower(email))

	u := &models.User{}
	err := row.Scan(
		&u.UserId,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.Avatar,
		&u.AccessLevel,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not get user by email: %w", err)
	}

	return u, nil
}
