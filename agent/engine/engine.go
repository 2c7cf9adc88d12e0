package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/dbchat/agent/contract"
	enginenode "github.com/tanpawarit/dbchat/agent/nodes"
	respondx "github.com/tanpawarit/dbchat/agent/respond"
	statex "github.com/tanpawarit/dbchat/agent/state"
	toolx "github.com/tanpawarit/dbchat/agent/tool"
)

var (
	ErrInvalidMessage = enginenode.ErrInvalidMessage
	ErrInvalidSession = enginenode.ErrInvalidSession
)

var exitTokens = map[string]struct{}{
	"q":    {},
	"quit": {},
	"exit": {},
	"bye":  {},
}

// IsExitToken reports whether the message ends the session.
func IsExitToken(text string) bool {
	_, ok := exitTokens[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// Engine runs the per-turn workflow: every user message enters the same
// compiled graph and leaves as exactly one reply.
type Engine struct {
	store      statex.Store
	classifier contractx.Classifier
	retriever  contractx.Retriever
	dispatcher contractx.Dispatcher
	registry   *toolx.Registry

	graphRunner compose.Runnable[enginenode.GraphInput, *enginenode.GraphOutput]

	now func() time.Time
}

func New(
	store statex.Store,
	classifier contractx.Classifier,
	retriever contractx.Retriever,
	dispatcher contractx.Dispatcher,
	registry *toolx.Registry,
) (*Engine, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if registry == nil {
		registry = toolx.NewRegistry()
	}
	if retriever == nil {
		retriever = noopRetriever{}
	}

	e := &Engine{
		store:      store,
		classifier: classifier,
		retriever:  retriever,
		dispatcher: dispatcher,
		registry:   registry,
		now:        time.Now,
	}

	graphRunner, err := e.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	e.graphRunner = graphRunner

	return e, nil
}

// SubmitTurn processes one user message and returns the reply. done is
// true once the session has ended; later turns for the session start a
// fresh conversation.
func (e *Engine) SubmitTurn(ctx context.Context, sessionID string, text string) (string, bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", false, ErrInvalidSession
	}
	if strings.TrimSpace(text) == "" {
		return "", false, ErrInvalidMessage
	}

	if IsExitToken(text) {
		return e.endSession(ctx, sessionID)
	}

	out, err := e.graphRunner.Invoke(ctx, enginenode.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
	if err != nil {
		return "", false, err
	}
	return out.Reply, false, nil
}

// endSession abandons any pending operation and removes the session
// state. Exit wins over everything, including an open confirmation.
func (e *Engine) endSession(ctx context.Context, sessionID string) (string, bool, error) {
	now := e.now().UTC()
	conv, err := e.store.Load(ctx, sessionID)
	if err != nil && !errors.Is(err, statex.ErrStateNotFound) {
		return "", false, err
	}
	if conv != nil {
		conv.ClearPending(now)
		conv.Phase = statex.PhaseExited
	}
	if err := e.store.Delete(ctx, sessionID); err != nil && !errors.Is(err, statex.ErrStateNotFound) {
		return "", false, err
	}
	return respondx.Render(respondx.Outcome{Kind: respondx.KindExit}), true, nil
}

type noopRetriever struct{}

func (noopRetriever) Retrieve(context.Context, string, []contractx.HistoryTurn) ([]contractx.Snippet, error) {
	return nil, nil
}

func (noopRetriever) Refresh(context.Context) error {
	return nil
}
