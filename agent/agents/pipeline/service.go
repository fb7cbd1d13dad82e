// Package pipeline sequences the triage stages: classify, conditionally
// enrich, resolve. The stage-selection state machine is expressed as a
// compiled graph whose single branch keys on the route decision.
package pipeline

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/compose"

	supportx "github.com/supportops/triage-pipeline/agent/agents/support"
	contractx "github.com/supportops/triage-pipeline/agent/contract"
	pipelinenode "github.com/supportops/triage-pipeline/agent/nodes/pipeline"
	routerx "github.com/supportops/triage-pipeline/agent/router"
	statex "github.com/supportops/triage-pipeline/agent/state"
)

var ErrEmptyMessage = pipelinenode.ErrEmptyMessage

type Service struct {
	router    *routerx.Router
	engine    *supportx.Engine
	directory contractx.Directory

	graphRunner compose.Runnable[statex.Conversation, statex.Conversation]
}

// New wires a triage pipeline against a directory collaborator and an
// optional fallback classifier (nil degrades every unmatched request to
// general support).
func New(directory contractx.Directory, fallback contractx.Classifier) (*Service, error) {
	if directory == nil {
		return nil, errors.New("directory client is required")
	}

	engine, err := supportx.NewEngine(directory)
	if err != nil {
		return nil, err
	}

	s := &Service{
		router:    routerx.New(fallback),
		engine:    engine,
		directory: directory,
	}

	graphRunner, err := s.compileRunGraph(context.Background())
	if err != nil {
		return nil, err
	}
	s.graphRunner = graphRunner

	return s, nil
}

// Run executes one pipeline pass over the given conversation and returns the
// final state. The input value is never mutated; concurrent runs need no
// coordination as long as each gets its own Conversation.
func (s *Service) Run(ctx context.Context, in statex.Conversation) (statex.Conversation, error) {
	return s.graphRunner.Invoke(ctx, in)
}

// HandleRequest is the convenience entry for a single user message and an
// optionally known customer id.
func (s *Service) HandleRequest(ctx context.Context, text string, customerID *int64) (statex.Conversation, error) {
	return s.Run(ctx, statex.New(text, customerID))
}
