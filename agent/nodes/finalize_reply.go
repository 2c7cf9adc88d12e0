package enginenode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/dbchat/agent/contract"
)

// FinalizeReply projects the graph state onto the engine's output type.
func FinalizeReply(_ context.Context, in *GraphState) (*GraphOutput, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: missing graph state", contractx.ErrValidation)
	}
	return &GraphOutput{Reply: in.Reply}, nil
}
