package pipeline

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/supportops/triage-pipeline/agent/contract"
	pipelinenode "github.com/supportops/triage-pipeline/agent/nodes/pipeline"
	statex "github.com/supportops/triage-pipeline/agent/state"
)

// compileRunGraph builds the stage machine:
//
//	START -> validate_request -> classify_intent -> (branch on route)
//	  route=data_then_support -> fetch_context -> resolve
//	  route=support_only      -> resolve
//	resolve -> finalize_response -> END
//
// Each stage runs at most once per execution; there are no retries and no
// backtracking.
func (s *Service) compileRunGraph(
	ctx context.Context,
) (compose.Runnable[statex.Conversation, statex.Conversation], error) {
	graph := compose.NewGraph[statex.Conversation, statex.Conversation]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in statex.Conversation) (statex.Conversation, error) {
			return pipelinenode.ValidateRequest(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("classify_intent",
		compose.InvokableLambda(func(ctx context.Context, in statex.Conversation) (statex.Conversation, error) {
			return pipelinenode.ClassifyIntent(ctx, in, s.router)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify_intent: %w", err)
	}

	if err := graph.AddLambdaNode("fetch_context",
		compose.InvokableLambda(func(ctx context.Context, in statex.Conversation) (statex.Conversation, error) {
			return pipelinenode.FetchContext(ctx, in, s.directory)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node fetch_context: %w", err)
	}

	if err := graph.AddLambdaNode("resolve",
		compose.InvokableLambda(func(ctx context.Context, in statex.Conversation) (statex.Conversation, error) {
			return s.engine.Resolve(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node resolve: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_response",
		compose.InvokableLambda(func(ctx context.Context, in statex.Conversation) (statex.Conversation, error) {
			return pipelinenode.FinalizeResponse(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_response: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in statex.Conversation) (string, error) {
			if in.Route == contractx.RouteSupportOnly {
				return "resolve", nil
			}
			return "fetch_context", nil
		},
		map[string]bool{
			"fetch_context": true,
			"resolve":       true,
		},
	)

	if err := graph.AddEdge(compose.START, "validate_request"); err != nil {
		return nil, fmt.Errorf("add edge start->validate_request: %w", err)
	}
	if err := graph.AddEdge("validate_request", "classify_intent"); err != nil {
		return nil, fmt.Errorf("add edge validate_request->classify_intent: %w", err)
	}
	if err := graph.AddBranch("classify_intent", branch); err != nil {
		return nil, fmt.Errorf("add route branch: %w", err)
	}
	if err := graph.AddEdge("fetch_context", "resolve"); err != nil {
		return nil, fmt.Errorf("add edge fetch_context->resolve: %w", err)
	}
	if err := graph.AddEdge("resolve", "finalize_response"); err != nil {
		return nil, fmt.Errorf("add edge resolve->finalize_response: %w", err)
	}
	if err := graph.AddEdge("finalize_response", compose.END); err != nil {
		return nil, fmt.Errorf("add edge finalize_response->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("triage.run"))
	if err != nil {
		return nil, fmt.Errorf("compile triage graph: %w", err)
	}
	return runner, nil
}
