package enginenode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/dbchat/agent/contract"
	statex "github.com/tanpawarit/dbchat/agent/state"
)

// SaveState persists the conversation after validating its invariants.
// A conversation that fails validation is never written back.
func SaveState(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil || in.Conv == nil {
		return nil, fmt.Errorf("%w: missing conversation", contractx.ErrValidation)
	}
	if err := in.Conv.Validate(); err != nil {
		return nil, fmt.Errorf("conversation invariant broken: %w", err)
	}
	in.Conv.Touch(in.Now)
	if err := store.Save(ctx, in.Conv); err != nil {
		return nil, fmt.Errorf("save session %s: %w", in.SessionID, err)
	}
	return in, nil
}
