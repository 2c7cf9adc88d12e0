package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/dbchat/agent/contract"
	toolx "github.com/tanpawarit/dbchat/agent/tool"
)

// LLMClassifier maps utterances to IntentDecisions through a
// structured-output chat model call. It keeps no state between calls,
// so the engine may re-invoke it freely.
type LLMClassifier struct {
	runner  compose.Runnable[map[string]any, classifierLLMOutput]
	catalog []map[string]any
}

type classifierLLMOutput struct {
	Operation   string         `json:"operation"`
	Fields      map[string]any `json:"fields,omitempty"`
	TargetEmail string         `json:"target_email,omitempty"`
	Complete    bool           `json:"complete"`
}

func New(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	registry *toolx.Registry,
) (*LLMClassifier, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if registry == nil {
		return nil, fmt.Errorf("%w: tool registry is required", contractx.ErrValidation)
	}

	runner, err := compileStructuredLLMGraph[classifierLLMOutput](ctx, chatModel, systemPrompt, "classifier.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile classifier graph: %v", contractx.ErrModelInvoke, err)
	}

	return &LLMClassifier{
		runner:  runner,
		catalog: summarizeCatalog(registry),
	}, nil
}

func (c *LLMClassifier) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.IntentDecision, error) {
	if strings.TrimSpace(req.Utterance) == "" {
		return contractx.IntentDecision{}, fmt.Errorf("%w: utterance is required", contractx.ErrValidation)
	}

	payload := map[string]any{
		"utterance": req.Utterance,
		"context":   req.Context,
		"history":   req.History,
		"pending":   req.Pending,
		"tools":     c.catalog,
	}
	inputBytes, err := json.Marshal(payload)
	if err != nil {
		return contractx.IntentDecision{}, fmt.Errorf("%w: marshal classifier payload: %v", contractx.ErrValidation, err)
	}

	out, err := c.runner.Invoke(ctx, map[string]any{
		"input": string(inputBytes),
	})
	if err != nil {
		return contractx.IntentDecision{}, fmt.Errorf("%w: classifier invoke: %v", contractx.ErrModelInvoke, err)
	}

	op, err := parseOperation(out.Operation)
	if err != nil {
		return contractx.IntentDecision{}, err
	}

	return contractx.IntentDecision{
		Op:       op,
		Fields:   out.Fields,
		TargetID: strings.ToLower(strings.TrimSpace(out.TargetEmail)),
		Complete: out.Complete,
	}, nil
}

func parseOperation(raw string) (contractx.OpKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "create":
		return contractx.OpCreate, nil
	case "read":
		return contractx.OpRead, nil
	case "update":
		return contractx.OpUpdate, nil
	case "delete":
		return contractx.OpDelete, nil
	case "", "unclassified", "none", "unknown":
		return contractx.OpUnclassified, nil
	}
	return contractx.OpUnclassified, fmt.Errorf("%w: operation=%q", contractx.ErrSchemaViolation, raw)
}

func summarizeCatalog(registry *toolx.Registry) []map[string]any {
	specs := registry.Specs()
	out := make([]map[string]any, 0, len(specs))
	for _, s := range specs {
		out = append(out, map[string]any{
			"operation": string(s.Op),
			"desc":      s.Desc,
			"required":  s.Required(),
			"optional":  s.Optional(),
		})
	}
	return out
}
