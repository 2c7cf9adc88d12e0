package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/dbchat/agent/contract"
	usersx "github.com/tanpawarit/dbchat/agent/users"
)

// DBDispatcher performs exactly one repository call per completed
// operation. Validation happens before the call; a validation error
// never reaches the repository, and a repository failure is surfaced
// as a ToolResult without retrying.
type DBDispatcher struct {
	registry *Registry
	repo     usersx.Repository
}

func NewDBDispatcher(registry *Registry, repo usersx.Repository) (*DBDispatcher, error) {
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if repo == nil {
		return nil, errors.New("user repository is required")
	}
	return &DBDispatcher{registry: registry, repo: repo}, nil
}

func (d *DBDispatcher) Dispatch(ctx context.Context, op contractx.OpKind, fields map[string]any, targetID string) contractx.ToolResult {
	spec, ok := d.registry.Spec(op)
	if !ok {
		return failure(op, fields, fmt.Sprintf("operation %q is not in the tool catalog", op))
	}

	normalized, fieldErrs := spec.Normalize(fields)
	if len(fieldErrs) > 0 {
		return failure(op, fields, fieldErrs[0].Error())
	}
	for _, name := range spec.Required() {
		if _, present := normalized[name]; !present {
			return failure(op, fields, fmt.Sprintf("required field %s is missing", name))
		}
	}

	log.Debug().
		Str("component", "dispatcher").
		Str("op", string(op)).
		Str("target", targetID).
		Msg("dispatching database operation")

	switch op {
	case contractx.OpCreate:
		return d.create(ctx, normalized)
	case contractx.OpRead:
		return d.read(ctx, normalized)
	case contractx.OpUpdate:
		return d.update(ctx, normalized, targetID)
	case contractx.OpDelete:
		return d.delete(ctx, normalized, targetID)
	}
	return failure(op, fields, fmt.Sprintf("operation %q is not dispatchable", op))
}

// Candidates looks up every record matching the identifying fields of
// an update/delete. Ambiguity resolution is the engine's call.
func (d *DBDispatcher) Candidates(ctx context.Context, fields map[string]any, targetID string) ([]contractx.Candidate, error) {
	filter := map[string]any{}
	switch {
	case strings.TrimSpace(targetID) != "":
		filter["email"] = strings.ToLower(strings.TrimSpace(targetID))
	case fields["email"] != nil:
		filter["email"] = fields["email"]
	case fields["name"] != nil:
		filter["name"] = fields["name"]
	default:
		return nil, fmt.Errorf("%w: no identifying field present", contractx.ErrValidation)
	}

	matched, err := d.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]contractx.Candidate, 0, len(matched))
	for _, u := range matched {
		out = append(out, u.Candidate())
	}
	return out, nil
}

func (d *DBDispatcher) create(ctx context.Context, fields map[string]any) contractx.ToolResult {
	u := &usersx.User{
		Name:  asString(fields["name"]),
		Email: asString(fields["email"]),
		Role:  asString(fields["role"]),
	}
	if n, ok := fields["age"].(int); ok {
		u.Age = n
	}

	if err := d.repo.Create(ctx, u); err != nil {
		if errors.Is(err, contractx.ErrDuplicate) {
			return failure(contractx.OpCreate, fields, fmt.Sprintf("a user with email %s already exists", u.Email))
		}
		return failure(contractx.OpCreate, fields, reason("create user", err))
	}
	return contractx.ToolResult{
		Op:      contractx.OpCreate,
		OK:      true,
		Fields:  fields,
		Records: []contractx.Candidate{u.Candidate()},
	}
}

func (d *DBDispatcher) read(ctx context.Context, fields map[string]any) contractx.ToolResult {
	matched, err := d.repo.List(ctx, fields)
	if err != nil {
		return failure(contractx.OpRead, fields, reason("read users", err))
	}
	records := make([]contractx.Candidate, 0, len(matched))
	for _, u := range matched {
		records = append(records, u.Candidate())
	}
	return contractx.ToolResult{Op: contractx.OpRead, OK: true, Fields: fields, Records: records}
}

func (d *DBDispatcher) update(ctx context.Context, fields map[string]any, targetID string) contractx.ToolResult {
	email := identifier(fields, targetID)
	data := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "email" {
			continue
		}
		data[k] = v
	}

	if err := d.repo.Update(ctx, email, data); err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			return failure(contractx.OpUpdate, fields, fmt.Sprintf("no user with email %s was found", email))
		}
		return failure(contractx.OpUpdate, fields, reason("update user", err))
	}
	return contractx.ToolResult{
		Op:      contractx.OpUpdate,
		OK:      true,
		Fields:  fields,
		Records: []contractx.Candidate{{Email: email}},
	}
}

func (d *DBDispatcher) delete(ctx context.Context, fields map[string]any, targetID string) contractx.ToolResult {
	email := identifier(fields, targetID)
	if err := d.repo.Delete(ctx, email); err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			return failure(contractx.OpDelete, fields, fmt.Sprintf("no user with email %s was found", email))
		}
		return failure(contractx.OpDelete, fields, reason("delete user", err))
	}
	return contractx.ToolResult{
		Op:      contractx.OpDelete,
		OK:      true,
		Fields:  fields,
		Records: []contractx.Candidate{{Email: email}},
	}
}

func identifier(fields map[string]any, targetID string) string {
	if trimmed := strings.ToLower(strings.TrimSpace(targetID)); trimmed != "" {
		return trimmed
	}
	return asString(fields["email"])
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func failure(op contractx.OpKind, fields map[string]any, why string) contractx.ToolResult {
	return contractx.ToolResult{Op: op, Fields: fields, Reason: why}
}

func reason(action string, err error) string {
	return fmt.Sprintf("%s failed: %v", action, err)
}
