package enginenode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/dbchat/agent/contract"
	respondx "github.com/tanpawarit/dbchat/agent/respond"
)

var affirmatives = map[string]struct{}{
	"yes":     {},
	"y":       {},
	"yeah":    {},
	"yep":     {},
	"ok":      {},
	"okay":    {},
	"sure":    {},
	"confirm": {},
}

// IsAffirmative reports whether the reply confirms a pending write.
func IsAffirmative(text string) bool {
	_, ok := affirmatives[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// ApplyConfirmation resolves a turn that answers a confirmation
// question. Only an explicit affirmative dispatches; anything else
// cancels the pending operation and returns the session to idle.
func ApplyConfirmation(in *GraphState) (*GraphState, error) {
	if in == nil || in.Conv == nil || in.Conv.Pending == nil {
		return nil, fmt.Errorf("%w: no pending operation awaits confirmation", contractx.ErrValidation)
	}

	pending := in.Conv.Pending
	if IsAffirmative(in.Text) {
		in.Dispatch = true
		in.Planned = true
		return in, nil
	}

	op := pending.Op
	in.Conv.ClearPending(in.Now)
	in.Outcome = respondx.Outcome{Kind: respondx.KindCancelled, Op: op}
	in.Planned = true
	return in, nil
}
