package users

import (
	"context"
	"encoding/json"

	"github.com/uptrace/bun"
	contractx "github.com/tanpawarit/dbchat/agent/contract"
)

// User is the single entity type the agent operates on. Email is the
// natural identifier used by update and delete.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u" json:"-"`

	ID    int64  `bun:"id,pk,autoincrement" json:"-"`
	Name  string `bun:"name,notnull" json:"name"`
	Email string `bun:"email,notnull,unique" json:"email"`
	Age   int    `bun:"age" json:"age,omitempty"`
	Role  string `bun:"role" json:"role,omitempty"`
}

// Candidate projects the user into the shape the engine shows during
// disambiguation.
func (u User) Candidate() contractx.Candidate {
	return contractx.Candidate{Name: u.Name, Email: u.Email, Role: u.Role}
}

// Document serializes the user for the retrieval index.
func (u User) Document() string {
	raw, err := json.Marshal(u)
	if err != nil {
		return u.Name + " " + u.Email
	}
	return string(raw)
}

// Repository is the database operation layer beneath the dispatcher.
// Implementations map storage errors onto the contract sentinels so
// the dispatcher can phrase failures without driver knowledge.
type Repository interface {
	Create(ctx context.Context, u *User) error
	List(ctx context.Context, filter map[string]any) ([]User, error)
	Update(ctx context.Context, email string, data map[string]any) error
	Delete(ctx context.Context, email string) error
}
