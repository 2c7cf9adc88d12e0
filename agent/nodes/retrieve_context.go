package enginenode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/dbchat/agent/contract"
)

// RetrieveContext fetches snippets for the classifier. Retrieval
// trouble degrades to an empty context; it never fails the turn.
func RetrieveContext(
	ctx context.Context,
	in *GraphState,
	retriever contractx.Retriever,
) (*GraphState, error) {
	if in == nil || in.Conv == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}

	snippets, err := retriever.Retrieve(ctx, in.Text, in.Conv.History())
	if err != nil {
		log.Warn().
			Str("component", "engine").
			Str("session_id", in.SessionID).
			Err(err).
			Msg("context retrieval failed, continuing without context")
		in.Snippets = nil
		return in, nil
	}
	in.Snippets = snippets
	return in, nil
}
