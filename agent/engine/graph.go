package engine

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/dbchat/agent/contract"
	enginenode "github.com/tanpawarit/dbchat/agent/nodes"
)

func (e *Engine) compileTurnGraph(
	ctx context.Context,
) (compose.Runnable[enginenode.GraphInput, *enginenode.GraphOutput], error) {
	graph := compose.NewGraph[enginenode.GraphInput, *enginenode.GraphOutput]()

	if err := graph.AddLambdaNode("prepare_turn",
		compose.InvokableLambda(func(ctx context.Context, in enginenode.GraphInput) (*enginenode.GraphState, error) {
			return enginenode.PrepareTurn(ctx, in, e.store, e.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node prepare_turn: %w", err)
	}

	if err := graph.AddLambdaNode("apply_confirmation",
		compose.InvokableLambda(func(ctx context.Context, in *enginenode.GraphState) (*enginenode.GraphState, error) {
			return enginenode.ApplyConfirmation(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node apply_confirmation: %w", err)
	}

	if err := graph.AddLambdaNode("retrieve_context",
		compose.InvokableLambda(func(ctx context.Context, in *enginenode.GraphState) (*enginenode.GraphState, error) {
			return enginenode.RetrieveContext(ctx, in, e.retriever)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node retrieve_context: %w", err)
	}

	if err := graph.AddLambdaNode("classify_intent",
		compose.InvokableLambda(func(ctx context.Context, in *enginenode.GraphState) (*enginenode.GraphState, error) {
			return enginenode.ClassifyIntent(ctx, in, e.classifier)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify_intent: %w", err)
	}

	if err := graph.AddLambdaNode("apply_intent",
		compose.InvokableLambda(func(ctx context.Context, in *enginenode.GraphState) (*enginenode.GraphState, error) {
			return enginenode.ApplyIntent(in, e.registry)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node apply_intent: %w", err)
	}

	if err := graph.AddLambdaNode("plan_action",
		compose.InvokableLambda(func(ctx context.Context, in *enginenode.GraphState) (*enginenode.GraphState, error) {
			return enginenode.PlanAction(ctx, in, e.registry, e.dispatcher)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node plan_action: %w", err)
	}

	if err := graph.AddLambdaNode("dispatch_tool",
		compose.InvokableLambda(func(ctx context.Context, in *enginenode.GraphState) (*enginenode.GraphState, error) {
			return enginenode.DispatchTool(ctx, in, e.dispatcher, e.retriever)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node dispatch_tool: %w", err)
	}

	if err := graph.AddLambdaNode("render_reply",
		compose.InvokableLambda(func(ctx context.Context, in *enginenode.GraphState) (*enginenode.GraphState, error) {
			return enginenode.RenderReply(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node render_reply: %w", err)
	}

	if err := graph.AddLambdaNode("save_state",
		compose.InvokableLambda(func(ctx context.Context, in *enginenode.GraphState) (*enginenode.GraphState, error) {
			return enginenode.SaveState(ctx, in, e.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node save_state: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *enginenode.GraphState) (*enginenode.GraphOutput, error) {
			return enginenode.FinalizeReply(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	// A cancelled turn already carries its outcome; a turn answering a
	// confirmation question skips classification entirely.
	entryBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *enginenode.GraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			switch {
			case in.Planned:
				return "plan_action", nil
			case in.Conv != nil && in.Conv.Pending != nil && in.Conv.Pending.AwaitConfirm:
				return "apply_confirmation", nil
			default:
				return "retrieve_context", nil
			}
		},
		map[string]bool{
			"plan_action":        true,
			"apply_confirmation": true,
			"retrieve_context":   true,
		},
	)

	dispatchBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *enginenode.GraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			if in.Dispatch {
				return "dispatch_tool", nil
			}
			return "render_reply", nil
		},
		map[string]bool{
			"dispatch_tool": true,
			"render_reply":  true,
		},
	)

	if err := graph.AddBranch("prepare_turn", entryBranch); err != nil {
		return nil, fmt.Errorf("add entry branch: %w", err)
	}
	if err := graph.AddBranch("plan_action", dispatchBranch); err != nil {
		return nil, fmt.Errorf("add dispatch branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "prepare_turn"},
		{"retrieve_context", "classify_intent"},
		{"classify_intent", "apply_intent"},
		{"apply_intent", "plan_action"},
		{"apply_confirmation", "plan_action"},
		{"dispatch_tool", "render_reply"},
		{"render_reply", "save_state"},
		{"save_state", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("engine.turn_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile turn graph: %w", err)
	}
	return runner, nil
}
