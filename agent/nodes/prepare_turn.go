package enginenode

import (
	"context"
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/dbchat/agent/contract"
	respondx "github.com/tanpawarit/dbchat/agent/respond"
	statex "github.com/tanpawarit/dbchat/agent/state"
)

var cancelTokens = map[string]struct{}{
	"cancel":     {},
	"nevermind":  {},
	"never mind": {},
	"stop":       {},
}

// IsCancelToken reports whether the message is a request to abandon
// the pending operation.
func IsCancelToken(text string) bool {
	_, ok := cancelTokens[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// PrepareTurn validates the raw input and loads (or creates) the
// conversation. A cancel token short-circuits the rest of the turn.
func PrepareTurn(
	ctx context.Context,
	in GraphInput,
	store statex.Store,
	nowFn func() time.Time,
) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	now := nowFn().UTC()
	conv, err := store.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, statex.ErrStateNotFound) {
			return nil, err
		}
		conv = statex.NewConversation(sessionID, now)
	}

	st := &GraphState{
		SessionID: sessionID,
		Text:      text,
		Now:       now,
		Conv:      conv,
	}

	if IsCancelToken(text) {
		op := contractx.OpUnclassified
		if conv.Pending != nil {
			op = conv.Pending.Op
			conv.ClearPending(now)
		}
		st.Outcome = respondx.Outcome{Kind: respondx.KindCancelled, Op: op}
		st.Planned = true
	}

	return st, nil
}
