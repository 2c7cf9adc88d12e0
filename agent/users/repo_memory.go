package users

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	contractx "github.com/tanpawarit/dbchat/agent/contract"
)

// MemoryRepository keeps users in process memory. It backs tests and
// runs the agent without a database connection.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]User
}

func NewMemoryRepository(seed ...User) *MemoryRepository {
	r := &MemoryRepository{byID: make(map[int64]User, len(seed))}
	for _, u := range seed {
		r.nextID++
		u.ID = r.nextID
		r.byID[u.ID] = u
	}
	return r
}

func (r *MemoryRepository) Create(ctx context.Context, u *User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("%w: email=%s", contractx.ErrDuplicate, u.Email)
		}
	}
	r.nextID++
	u.ID = r.nextID
	r.byID[u.ID] = *u
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, filter map[string]any) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]User, 0, len(r.byID))
	for _, u := range r.byID {
		if matches(u, filter) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *MemoryRepository) Update(ctx context.Context, email string, data map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.byID {
		if !strings.EqualFold(u.Email, email) {
			continue
		}
		touched := 0
		for key, val := range data {
			switch key {
			case "name":
				if s, ok := val.(string); ok {
					u.Name = s
					touched++
				}
			case "age":
				if n, ok := asInt(val); ok {
					u.Age = n
					touched++
				}
			case "role":
				if s, ok := val.(string); ok {
					u.Role = s
					touched++
				}
			}
		}
		if touched == 0 {
			return fmt.Errorf("%w: no updateable fields", contractx.ErrValidation)
		}
		r.byID[id] = u
		return nil
	}
	return fmt.Errorf("%w: email=%s", contractx.ErrNotFound, email)
}

func (r *MemoryRepository) Delete(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.byID {
		if strings.EqualFold(u.Email, email) {
			delete(r.byID, id)
			return nil
		}
	}
	return fmt.Errorf("%w: email=%s", contractx.ErrNotFound, email)
}

func matches(u User, filter map[string]any) bool {
	for key, val := range filter {
		switch key {
		case "name":
			if s, ok := val.(string); !ok || !strings.EqualFold(u.Name, s) {
				return false
			}
		case "email":
			if s, ok := val.(string); !ok || !strings.EqualFold(u.Email, s) {
				return false
			}
		case "role":
			if s, ok := val.(string); !ok || !strings.EqualFold(u.Role, s) {
				return false
			}
		case "age":
			if n, ok := asInt(val); !ok || u.Age != n {
				return false
			}
		}
	}
	return true
}

func asInt(val any) (int, bool) {
	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
