package contract

// OpKind identifies one of the four database operations the agent can
// perform on the users collection.
type OpKind string

const (
	OpCreate OpKind = "create"
	OpRead   OpKind = "read"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"

	// OpUnclassified is returned when the classifier cannot map the
	// utterance to any operation. It never reaches the dispatcher.
	OpUnclassified OpKind = "unclassified"
)

// IsWrite reports whether the operation has database side effects.
func (k OpKind) IsWrite() bool {
	return k == OpCreate || k == OpUpdate || k == OpDelete
}

// Valid reports whether k names a dispatchable operation.
func (k OpKind) Valid() bool {
	switch k {
	case OpCreate, OpRead, OpUpdate, OpDelete:
		return true
	}
	return false
}

// IntentDecision is the classifier output for a single turn. It is
// produced fresh per call and never persisted.
type IntentDecision struct {
	Op       OpKind         `json:"op"`
	Fields   map[string]any `json:"fields,omitempty"`
	TargetID string         `json:"target_id,omitempty"`
	Complete bool           `json:"complete"`
}

// Snippet is one retrieved context item with its relevance score.
type Snippet struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Candidate is one record matching the identifying fields of an
// update/delete request. Email doubles as the record identifier.
type Candidate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// ToolResult is the outcome of exactly one dispatched operation.
type ToolResult struct {
	Op      OpKind         `json:"op"`
	OK      bool           `json:"ok"`
	Records []Candidate    `json:"records,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
	Reason  string         `json:"reason,omitempty"`
}

// ClassifyRequest carries everything the classifier may consult: the
// raw utterance, retrieved context, bounded history (most recent
// first), and a summary of the pending operation, if any.
type ClassifyRequest struct {
	Utterance string         `json:"utterance"`
	Context   []Snippet      `json:"context,omitempty"`
	History   []HistoryTurn  `json:"history,omitempty"`
	Pending   map[string]any `json:"pending,omitempty"`
}

// HistoryTurn is one prior user/agent exchange.
type HistoryTurn struct {
	User  string `json:"user"`
	Agent string `json:"agent"`
}
