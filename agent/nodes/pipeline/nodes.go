// Package pipelinenode holds the stage functions wired into the triage
// pipeline graph. Each stage takes a Conversation value and returns a new one;
// a stage that runs appends exactly one audit entry.
package pipelinenode

import (
	"errors"
	"fmt"
	"strings"

	contractx "github.com/supportops/triage-pipeline/agent/contract"
	statex "github.com/supportops/triage-pipeline/agent/state"
)

var (
	ErrEmptyMessage = errors.New("conversation has no user message")
)

// ValidateRequest guards the pipeline entry: a run needs at least one
// user-authored message.
func ValidateRequest(in statex.Conversation) (statex.Conversation, error) {
	if strings.TrimSpace(in.LastUserMessage()) == "" {
		return statex.Conversation{}, ErrEmptyMessage
	}
	return in, nil
}

// FinalizeResponse guards the pipeline exit: every run must terminate with
// user-facing text.
func FinalizeResponse(in statex.Conversation) (statex.Conversation, error) {
	if strings.TrimSpace(in.Response) == "" {
		return statex.Conversation{}, fmt.Errorf("%w: resolution produced no response", contractx.ErrValidation)
	}
	return in, nil
}

func formatCustomerID(id *int64) string {
	if id == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *id)
}
