package enginenode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/dbchat/agent/contract"
	respondx "github.com/tanpawarit/dbchat/agent/respond"
	statex "github.com/tanpawarit/dbchat/agent/state"
)

// RenderReply turns the outcome into reply text, records the turn in
// the conversation history and moves the phase to where the next turn
// should pick up.
func RenderReply(_ context.Context, in *GraphState) (*GraphState, error) {
	if in == nil || in.Conv == nil {
		return nil, fmt.Errorf("%w: missing conversation", contractx.ErrValidation)
	}

	in.Conv.Phase = statex.PhaseResponding
	in.Reply = respondx.Render(in.Outcome)
	in.Conv.AppendTurn(in.Text, in.Reply, in.Now)

	switch in.Outcome.Kind {
	case respondx.KindClarify, respondx.KindCorrect, respondx.KindDisambiguate,
		respondx.KindConfirm, respondx.KindReject:
		in.Conv.Phase = statex.PhaseAwaitingClarification
	default:
		in.Conv.Phase = statex.PhaseIdle
	}
	return in, nil
}
