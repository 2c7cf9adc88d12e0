package enginenode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/dbchat/agent/contract"
	respondx "github.com/tanpawarit/dbchat/agent/respond"
	toolx "github.com/tanpawarit/dbchat/agent/tool"
)

// PlanAction decides how the turn ends: clarify, correct, disambiguate,
// confirm, dispatch, or pass through an outcome an earlier node already
// chose. Validation happens here, before any database call; a field
// that fails is re-opened and the database is never touched this turn.
func PlanAction(
	ctx context.Context,
	in *GraphState,
	registry *toolx.Registry,
	dispatcher contractx.Dispatcher,
) (*GraphState, error) {
	if in == nil || in.Conv == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}
	if in.Planned {
		return in, nil
	}

	pending := in.Conv.Pending
	if pending == nil {
		in.Outcome = respondx.Outcome{Kind: respondx.KindRephrase}
		return in, nil
	}

	spec, ok := registry.Spec(pending.Op)
	if !ok {
		in.Conv.ClearPending(in.Now)
		in.Outcome = respondx.Outcome{Kind: respondx.KindRephrase}
		return in, nil
	}

	normalized, fieldErrs := spec.Normalize(pending.Fields)
	if len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Field == "updates" {
			// Identified the record but nothing to change yet.
			in.Outcome = respondx.Outcome{Kind: respondx.KindClarify, Op: pending.Op}
			return in, nil
		}
		pending.DropField(fe.Field)
		pending.Recompute(spec.Required(), in.Now)
		in.Outcome = respondx.Outcome{
			Kind:      respondx.KindCorrect,
			Op:        pending.Op,
			FieldName: fe.Field,
			FieldWhy:  fe.Reason,
		}
		return in, nil
	}

	for key, val := range normalized {
		pending.SetField(key, val)
	}
	pending.Recompute(spec.Required(), in.Now)

	if len(pending.Missing) > 0 {
		in.Outcome = respondx.Outcome{
			Kind:    respondx.KindClarify,
			Op:      pending.Op,
			Missing: append([]string(nil), pending.Missing...),
		}
		return in, nil
	}

	if pending.Op == contractx.OpUpdate || pending.Op == contractx.OpDelete {
		return planTargeted(ctx, in, dispatcher)
	}

	in.Dispatch = true
	return in, nil
}

// planTargeted resolves the target record for update/delete. Zero
// matches ends the operation; multiple matches force disambiguation;
// a delete additionally requires explicit confirmation.
func planTargeted(ctx context.Context, in *GraphState, dispatcher contractx.Dispatcher) (*GraphState, error) {
	pending := in.Conv.Pending

	candidates, err := dispatcher.Candidates(ctx, pending.Fields, pending.TargetID)
	if err != nil {
		if errors.Is(err, contractx.ErrValidation) {
			// No identifying field yet.
			in.Outcome = respondx.Outcome{
				Kind:    respondx.KindClarify,
				Op:      pending.Op,
				Missing: []string{"email"},
			}
			return in, nil
		}
		op := pending.Op
		in.Conv.ClearPending(in.Now)
		in.Outcome = respondx.Outcome{
			Kind:   respondx.KindResult,
			Op:     op,
			Result: contractx.ToolResult{Op: op, Reason: fmt.Sprintf("looking up the record failed: %v", err)},
		}
		return in, nil
	}

	switch {
	case len(candidates) == 0:
		op := pending.Op
		in.Conv.ClearPending(in.Now)
		in.Outcome = respondx.Outcome{
			Kind:   respondx.KindResult,
			Op:     op,
			Result: contractx.ToolResult{Op: op, Reason: "no matching user was found"},
		}

	case len(candidates) > 1:
		in.Outcome = respondx.Outcome{
			Kind:       respondx.KindDisambiguate,
			Op:         pending.Op,
			Candidates: candidates,
		}

	default:
		pending.TargetID = candidates[0].Email
		// A name that served only to identify the target is not data
		// to write.
		if s, ok := pending.Fields["name"].(string); ok && strings.EqualFold(s, candidates[0].Name) {
			pending.DropField("name")
		}
		if pending.Op == contractx.OpDelete && !pending.AwaitConfirm {
			pending.AwaitConfirm = true
			in.Outcome = respondx.Outcome{
				Kind:   respondx.KindConfirm,
				Op:     pending.Op,
				Target: candidates[0],
			}
			return in, nil
		}
		in.Dispatch = true
	}
	return in, nil
}
