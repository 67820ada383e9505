package repository

import (
	"context"
	"fmt"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/domain"
)

func (r *Repos) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u, `SELECT id, username, password_hash, is_active FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *Repos) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u, `SELECT id, username, password_hash, is_active FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *Repos) UserPermissions(ctx context.Context, userID int64) ([]string, error) {
	out := []string{}
	err := r.db.SelectContext(ctx, &out, `SELECT codename FROM user_permissions WHERE user_id = $1 ORDER BY codename`, userID)
	return out, translate(err)
}

// CreateUser stores a user and its permission codenames in one transaction.
func (r *Repos) CreateUser(ctx context.Context, username, passwordHash string, perms []string) (int64, error) {
	var id int64
	err := r.InTx(ctx, func(tx Querier) error {
		err := tx.GetContext(ctx, &id,
			`INSERT INTO users (username, password_hash, is_active) VALUES ($1, $2, true) RETURNING id`,
			username, passwordHash)
		if err != nil {
			return translate(err)
		}
		for _, p := range perms {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO user_permissions (user_id, codename) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, p); err != nil {
				return translate(err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("create user %s: %w", username, err)
	}
	return id, nil
}
