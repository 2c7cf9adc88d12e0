package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	contractx "github.com/tanpawarit/dbchat/agent/contract"
)

// filterable whitelists the columns a read filter or update patch may
// touch; anything else is dropped before it reaches SQL.
var filterable = map[string]struct{}{
	"name":  {},
	"email": {},
	"age":   {},
	"role":  {},
}

// BunRepository stores users in Postgres through bun.
type BunRepository struct {
	db *bun.DB
}

func NewBunRepository(db *bun.DB) (*BunRepository, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	return &BunRepository{db: db}, nil
}

// Init creates the users table when it does not exist yet.
func (r *BunRepository) Init(ctx context.Context) error {
	_, err := r.db.NewCreateTable().Model((*User)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *BunRepository) Create(ctx context.Context, u *User) error {
	if u == nil {
		return errors.New("user is nil")
	}

	exists, err := r.db.NewSelect().Model((*User)(nil)).
		Where("email = ?", u.Email).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("check existing email: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: email=%s", contractx.ErrDuplicate, u.Email)
	}

	if _, err := r.db.NewInsert().Model(u).Exec(ctx); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *BunRepository) List(ctx context.Context, filter map[string]any) ([]User, error) {
	var out []User
	q := r.db.NewSelect().Model(&out).Order("email ASC")
	for key, val := range filter {
		if _, ok := filterable[key]; !ok {
			continue
		}
		if s, isStr := val.(string); isStr {
			q = q.Where("LOWER(?) = LOWER(?)", bun.Ident(key), s)
			continue
		}
		q = q.Where("? = ?", bun.Ident(key), val)
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (r *BunRepository) Update(ctx context.Context, email string, data map[string]any) error {
	q := r.db.NewUpdate().Model((*User)(nil)).Where("email = ?", email)

	touched := 0
	for key, val := range data {
		if _, ok := filterable[key]; !ok || key == "email" {
			continue
		}
		q = q.Set("? = ?", bun.Ident(key), val)
		touched++
	}
	if touched == 0 {
		return fmt.Errorf("%w: no updateable fields", contractx.ErrValidation)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: email=%s", contractx.ErrNotFound, email)
	}
	return nil
}

func (r *BunRepository) Delete(ctx context.Context, email string) error {
	res, err := r.db.NewDelete().Model((*User)(nil)).Where("email = ?", email).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: email=%s", contractx.ErrNotFound, email)
	}
	return nil
}
