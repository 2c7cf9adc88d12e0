package contract

import "context"

// Classifier maps an utterance plus conversational evidence to an
// IntentDecision. Implementations must be stateless per call so the
// engine can re-invoke without side effects.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (IntentDecision, error)
}

// Retriever returns a bounded, score-ordered set of context snippets
// relevant to the query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, history []HistoryTurn) ([]Snippet, error)
	// Refresh rebuilds the underlying index after a completed write.
	Refresh(ctx context.Context) error
}

// Dispatcher validates resolved fields against the tool schema and
// performs exactly one database call per completed operation.
type Dispatcher interface {
	Dispatch(ctx context.Context, op OpKind, fields map[string]any, targetID string) ToolResult
	// Candidates returns every record matching the identifying fields
	// of an update/delete request. The engine decides what to do when
	// more than one comes back.
	Candidates(ctx context.Context, fields map[string]any, targetID string) ([]Candidate, error)
}
