package state

import (
	"errors"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/dbchat/agent/contract"
)

// MaxHistoryTurns bounds the conversation log so classification input
// stays a stable size for long sessions.
const MaxHistoryTurns = 20

// Phase is the engine's position in the per-turn state machine.
type Phase string

const (
	PhaseIdle                  Phase = "idle"
	PhaseClassifying           Phase = "classifying"
	PhaseAwaitingClarification Phase = "awaiting_clarification"
	PhaseDispatching           Phase = "dispatching"
	PhaseResponding            Phase = "responding"
	PhaseExited                Phase = "exited"
)

// Turn is one completed user/agent exchange.
type Turn struct {
	User  string    `json:"user"`
	Agent string    `json:"agent"`
	At    time.Time `json:"at"`
}

// PendingOp is the in-progress operation whose required fields are
// still being collected across turns.
type PendingOp struct {
	Op           contractx.OpKind `json:"op"`
	Fields       map[string]any   `json:"fields,omitempty"`
	Missing      []string         `json:"missing,omitempty"`
	TargetID     string           `json:"target_id,omitempty"`
	AwaitConfirm bool             `json:"await_confirm,omitempty"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Conversation is the per-session state owned exclusively by the
// workflow engine. At most one PendingOp is active at a time.
type Conversation struct {
	SessionID string     `json:"session_id"`
	Phase     Phase      `json:"phase"`
	Turns     []Turn     `json:"turns,omitempty"`
	Pending   *PendingOp `json:"pending,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

var (
	ErrNilConversation = errors.New("conversation is nil")
	ErrInvalidSession  = errors.New("session id is empty")
)

func NewConversation(sessionID string, now time.Time) *Conversation {
	return &Conversation{
		SessionID: sessionID,
		Phase:     PhaseIdle,
		UpdatedAt: now.UTC(),
	}
}

func (c *Conversation) Touch(now time.Time) {
	c.UpdatedAt = now.UTC()
}

// AppendTurn records a completed exchange, evicting the oldest entry
// once the log exceeds MaxHistoryTurns.
func (c *Conversation) AppendTurn(user, agent string, now time.Time) {
	c.Turns = append(c.Turns, Turn{User: user, Agent: agent, At: now.UTC()})
	if len(c.Turns) > MaxHistoryTurns {
		c.Turns = c.Turns[len(c.Turns)-MaxHistoryTurns:]
	}
	c.Touch(now)
}

// History returns the turn log most-recent-first, the order the
// classifier consults when resolving references.
func (c *Conversation) History() []contractx.HistoryTurn {
	if len(c.Turns) == 0 {
		return nil
	}
	out := make([]contractx.HistoryTurn, 0, len(c.Turns))
	for i := len(c.Turns) - 1; i >= 0; i-- {
		out = append(out, contractx.HistoryTurn{User: c.Turns[i].User, Agent: c.Turns[i].Agent})
	}
	return out
}

// BeginPending replaces any prior pending operation. Callers must have
// already decided the replacement is legal; the engine never stacks two.
func (c *Conversation) BeginPending(op contractx.OpKind, now time.Time) *PendingOp {
	p := &PendingOp{
		Op:        op,
		Fields:    make(map[string]any, 8),
		UpdatedAt: now.UTC(),
	}
	c.Pending = p
	return p
}

func (c *Conversation) ClearPending(now time.Time) {
	c.Pending = nil
	c.Touch(now)
}

// Validate checks structural invariants after every engine transition.
func (c *Conversation) Validate() error {
	if c == nil {
		return ErrNilConversation
	}
	if c.SessionID == "" {
		return ErrInvalidSession
	}
	if p := c.Pending; p != nil {
		if !p.Op.Valid() {
			return fmt.Errorf("pending op kind %q is not dispatchable", p.Op)
		}
		if p.AwaitConfirm && len(p.Missing) > 0 {
			return fmt.Errorf("pending %s awaits confirmation with fields still missing", p.Op)
		}
	}
	return nil
}

/* ------------------------------ PendingOp ------------------------------ */

func (p *PendingOp) SetField(key string, val any) {
	if p.Fields == nil {
		p.Fields = make(map[string]any, 8)
	}
	p.Fields[key] = val
}

// DropField removes a collected value, typically after it failed
// validation and must be re-requested.
func (p *PendingOp) DropField(key string) {
	delete(p.Fields, key)
}

// Recompute derives Missing from the required field list, preserving
// declaration order. Missing is never hand-maintained; every mutation
// of Fields is followed by a Recompute.
func (p *PendingOp) Recompute(required []string, now time.Time) {
	missing := make([]string, 0, len(required))
	for _, name := range required {
		v, ok := p.Fields[name]
		if !ok || v == nil {
			missing = append(missing, name)
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		missing = nil
	}
	p.Missing = missing
	p.UpdatedAt = now.UTC()
}

// Summary renders the pending operation for the classifier payload.
func (p *PendingOp) Summary() map[string]any {
	if p == nil {
		return nil
	}
	return map[string]any{
		"op":            string(p.Op),
		"fields":        p.Fields,
		"missing":       p.Missing,
		"target_id":     p.TargetID,
		"await_confirm": p.AwaitConfirm,
	}
}
