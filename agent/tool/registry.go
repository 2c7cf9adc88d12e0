package tool

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/dbchat/agent/contract"
)

// FieldType constrains what a slot value may hold.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldInt    FieldType = "int"
	FieldEmail  FieldType = "email"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Field is one declared slot of an operation. Order of declaration is
// the order clarification questions name missing fields.
type Field struct {
	Name     string
	Type     FieldType
	Desc     string
	Required bool
}

// Spec is the declared schema for one operation kind. Immutable after
// registry construction; shared read-only by classifier and dispatcher.
type Spec struct {
	Op     contractx.OpKind
	Desc   string
	Fields []Field

	// MinDataFields is the number of non-identifier fields an update
	// must carry; an update that changes nothing is not dispatchable.
	MinDataFields int
}

// Required returns required field names in declaration order.
func (s Spec) Required() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Optional returns optional field names in declaration order.
func (s Spec) Optional() []string {
	var out []string
	for _, f := range s.Fields {
		if !f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

func (s Spec) field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldError describes one field value that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}

// Normalize coerces and validates the extracted field values against
// the schema. Unknown fields are dropped; offending fields are reported
// one by one so the engine can re-request them individually. A nil
// error slice means every present value is dispatchable.
func (s Spec) Normalize(fields map[string]any) (map[string]any, []FieldError) {
	out := make(map[string]any, len(fields))
	var errs []FieldError

	for name, raw := range fields {
		f, ok := s.field(name)
		if !ok {
			continue
		}
		val, err := coerce(f, raw)
		if err != nil {
			errs = append(errs, FieldError{Field: name, Reason: err.Error()})
			continue
		}
		out[name] = val
	}

	if s.Op == contractx.OpUpdate && s.MinDataFields > 0 {
		data := 0
		for name := range out {
			if f, ok := s.field(name); ok && f.Type != FieldEmail {
				data++
			}
		}
		if data < s.MinDataFields {
			errs = append(errs, FieldError{Field: "updates", Reason: "at least one field to change is required"})
		}
	}

	return out, errs
}

func coerce(f Field, raw any) (any, error) {
	switch f.Type {
	case FieldString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected text, got %T", raw)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, fmt.Errorf("must not be empty")
		}
		return s, nil

	case FieldEmail:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected an email address, got %T", raw)
		}
		s = strings.ToLower(strings.TrimSpace(s))
		if !emailPattern.MatchString(s) {
			return nil, fmt.Errorf("%q is not a valid email address", s)
		}
		return s, nil

	case FieldInt:
		switch v := raw.(type) {
		case int:
			return validInt(v)
		case int64:
			return validInt(int(v))
		case float64:
			if v != float64(int(v)) {
				return nil, fmt.Errorf("expected a whole number, got %v", v)
			}
			return validInt(int(v))
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("%q is not a number", v)
			}
			return validInt(n)
		default:
			return nil, fmt.Errorf("expected a number, got %T", raw)
		}
	}
	return nil, fmt.Errorf("unknown field type %q", f.Type)
}

func validInt(n int) (any, error) {
	if n < 0 {
		return nil, fmt.Errorf("must not be negative")
	}
	return n, nil
}

/* ------------------------------- Registry ------------------------------- */

// Registry is the static catalog of operation specs, loaded once at
// startup and immutable for the process lifetime.
type Registry struct {
	specs map[contractx.OpKind]Spec
	order []contractx.OpKind
}

// NewRegistry builds the default user-entity catalog: create requires
// name and email; update and delete carry optional identifying fields
// whose resolution happens during target planning; read takes optional
// filters only.
func NewRegistry() *Registry {
	return NewRegistryWith(
		Spec{
			Op:   contractx.OpCreate,
			Desc: "Create a new user record.",
			Fields: []Field{
				{Name: "name", Type: FieldString, Desc: "User's full name", Required: true},
				{Name: "email", Type: FieldEmail, Desc: "User's email address", Required: true},
				{Name: "age", Type: FieldInt, Desc: "User's age"},
				{Name: "role", Type: FieldString, Desc: "User's role"},
			},
		},
		Spec{
			Op:   contractx.OpRead,
			Desc: "Read user records, optionally filtered.",
			Fields: []Field{
				{Name: "name", Type: FieldString, Desc: "Filter by name"},
				{Name: "email", Type: FieldEmail, Desc: "Filter by email"},
				{Name: "age", Type: FieldInt, Desc: "Filter by age"},
				{Name: "role", Type: FieldString, Desc: "Filter by role"},
			},
		},
		Spec{
			Op:   contractx.OpUpdate,
			Desc: "Update an existing user, identified by email or name.",
			Fields: []Field{
				{Name: "email", Type: FieldEmail, Desc: "Email of the user to update"},
				{Name: "name", Type: FieldString, Desc: "New name"},
				{Name: "age", Type: FieldInt, Desc: "New age"},
				{Name: "role", Type: FieldString, Desc: "New role"},
			},
			MinDataFields: 1,
		},
		Spec{
			Op:   contractx.OpDelete,
			Desc: "Delete a user, identified by email or name.",
			Fields: []Field{
				{Name: "email", Type: FieldEmail, Desc: "Email of the user to delete"},
				{Name: "name", Type: FieldString, Desc: "Name of the user to delete"},
			},
		},
	)
}

// NewRegistryWith builds a catalog from explicit specs, preserving the
// given order for listing.
func NewRegistryWith(specs ...Spec) *Registry {
	r := &Registry{specs: make(map[contractx.OpKind]Spec, len(specs))}
	for _, s := range specs {
		if _, dup := r.specs[s.Op]; dup {
			continue
		}
		r.specs[s.Op] = s
		r.order = append(r.order, s.Op)
	}
	return r
}

// Spec returns the schema for an operation kind.
func (r *Registry) Spec(op contractx.OpKind) (Spec, bool) {
	s, ok := r.specs[op]
	return s, ok
}

// Specs lists every spec in registration order.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, 0, len(r.order))
	for _, op := range r.order {
		out = append(out, r.specs[op])
	}
	return out
}

// ToolInfos exports the catalog in eino's tool schema, which is how
// the classifier prompt learns what each operation can extract.
func (r *Registry) ToolInfos() []*schema.ToolInfo {
	out := make([]*schema.ToolInfo, 0, len(r.order))
	for _, op := range r.order {
		s := r.specs[op]
		params := make(map[string]*schema.ParameterInfo, len(s.Fields))
		for _, f := range s.Fields {
			params[f.Name] = &schema.ParameterInfo{
				Type:     schemaType(f.Type),
				Desc:     f.Desc,
				Required: f.Required,
			}
		}
		out = append(out, &schema.ToolInfo{
			Name:        "users." + string(op),
			Desc:        s.Desc,
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		})
	}
	return out
}

func schemaType(t FieldType) schema.DataType {
	if t == FieldInt {
		return schema.Integer
	}
	return schema.String
}
