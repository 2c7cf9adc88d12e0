package enginenode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/dbchat/agent/contract"
	statex "github.com/tanpawarit/dbchat/agent/state"
)

// ClassifyIntent asks the classifier for an IntentDecision. A failing
// call is a recoverable condition: the decision degrades to
// unclassified and the user is asked to rephrase downstream.
func ClassifyIntent(
	ctx context.Context,
	in *GraphState,
	classifier contractx.Classifier,
) (*GraphState, error) {
	if in == nil || in.Conv == nil {
		return nil, fmt.Errorf("%w: graph state is incomplete", contractx.ErrValidation)
	}

	in.Conv.Phase = statex.PhaseClassifying

	decision, err := classifier.Classify(ctx, contractx.ClassifyRequest{
		Utterance: in.Text,
		Context:   in.Snippets,
		History:   in.Conv.History(),
		Pending:   in.Conv.Pending.Summary(),
	})
	if err != nil {
		log.Warn().
			Str("component", "engine").
			Str("session_id", in.SessionID).
			Err(err).
			Msg("classification failed, treating turn as unclassified")
		in.Decision = contractx.IntentDecision{Op: contractx.OpUnclassified}
		return in, nil
	}

	in.Decision = decision
	return in, nil
}
