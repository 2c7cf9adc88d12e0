package enginenode

import (
	"fmt"

	contractx "github.com/tanpawarit/dbchat/agent/contract"
	respondx "github.com/tanpawarit/dbchat/agent/respond"
	toolx "github.com/tanpawarit/dbchat/agent/tool"
)

// ApplyIntent folds the classifier decision into the conversation.
// Exactly one pending operation is tracked: a different operation kind
// arriving while one is pending is rejected, never interleaved.
func ApplyIntent(in *GraphState, registry *toolx.Registry) (*GraphState, error) {
	if in == nil || in.Conv == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}
	if in.Planned {
		return in, nil
	}

	decision := in.Decision
	conv := in.Conv
	pending := conv.Pending

	switch {
	case pending == nil:
		if !decision.Op.Valid() {
			in.Outcome = respondx.Outcome{Kind: respondx.KindRephrase}
			in.Planned = true
			return in, nil
		}
		pending = conv.BeginPending(decision.Op, in.Now)

	case decision.Op.Valid() && decision.Op != pending.Op:
		in.Outcome = respondx.Outcome{
			Kind:    respondx.KindReject,
			Op:      pending.Op,
			Missing: append([]string(nil), pending.Missing...),
		}
		in.Planned = true
		return in, nil
	}

	merged := false
	for key, val := range decision.Fields {
		pending.SetField(key, val)
		merged = true
	}
	if decision.TargetID != "" {
		pending.TargetID = decision.TargetID
		merged = true
	}

	if spec, ok := registry.Spec(pending.Op); ok {
		pending.Recompute(spec.Required(), in.Now)
	}

	if !merged && !decision.Op.Valid() {
		// The turn contributed nothing to the pending operation.
		in.Outcome = respondx.Outcome{Kind: respondx.KindRephrase}
		in.Planned = true
	}
	return in, nil
}
