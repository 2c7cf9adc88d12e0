package enginenode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/dbchat/agent/contract"
	respondx "github.com/tanpawarit/dbchat/agent/respond"
	statex "github.com/tanpawarit/dbchat/agent/state"
)

// DispatchTool performs the single database call for the completed
// pending operation, clears it regardless of outcome (no automatic
// retries), and refreshes the retrieval index after a write so later
// turns see the data that just changed.
func DispatchTool(
	ctx context.Context,
	in *GraphState,
	dispatcher contractx.Dispatcher,
	retriever contractx.Retriever,
) (*GraphState, error) {
	if in == nil || in.Conv == nil || in.Conv.Pending == nil {
		return nil, fmt.Errorf("%w: nothing to dispatch", contractx.ErrValidation)
	}

	in.Conv.Phase = statex.PhaseDispatching
	pending := in.Conv.Pending

	result := dispatcher.Dispatch(ctx, pending.Op, pending.Fields, pending.TargetID)
	in.Conv.ClearPending(in.Now)
	in.Outcome = respondx.Outcome{Kind: respondx.KindResult, Op: result.Op, Result: result}

	if result.OK && result.Op.IsWrite() {
		if err := retriever.Refresh(ctx); err != nil {
			log.Warn().
				Str("component", "engine").
				Str("session_id", in.SessionID).
				Err(err).
				Msg("retrieval index refresh failed after write")
		}
	}
	return in, nil
}
