package enginenode

import (
	"errors"
	"time"

	contractx "github.com/tanpawarit/dbchat/agent/contract"
	respondx "github.com/tanpawarit/dbchat/agent/respond"
	statex "github.com/tanpawarit/dbchat/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

type GraphInput struct {
	SessionID string
	Text      string
}

type GraphOutput struct {
	Reply string
}

// GraphState is threaded through every node of one turn.
type GraphState struct {
	SessionID string
	Text      string
	Now       time.Time

	Conv     *statex.Conversation
	Snippets []contractx.Snippet
	Decision contractx.IntentDecision

	// Outcome is what the renderer will phrase. Planned marks that an
	// earlier node already decided it, so planning passes through.
	Outcome  respondx.Outcome
	Planned  bool
	Dispatch bool

	Reply string
}
