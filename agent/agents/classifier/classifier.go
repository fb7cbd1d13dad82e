// Package classifier implements the natural-language fallback behind
// contract.Classifier. The rule cascade in agent/router consults it only when
// no rule matched; any error here is degraded by the caller, never surfaced
// to the end user.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/supportops/triage-pipeline/agent/contract"
)

type modelClassifier struct {
	runner compose.Runnable[map[string]any, classifierLLMOutput]
}

type classifierLLMOutput struct {
	Intent  string `json:"intent"`
	Urgency string `json:"urgency"`
}

// New builds a classifier that runs the chat model through a structured-output
// graph (prompt -> model -> JSON parser).
func New(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (contractx.Classifier, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: classifier prompt is empty", contractx.ErrPromptMissing)
	}

	runner, err := compileClassifierGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: compile classifier graph: %v", contractx.ErrModelInvoke, err)
	}
	return &modelClassifier{runner: runner}, nil
}

func (c *modelClassifier) Classify(ctx context.Context, text string) (contractx.ClassifierResult, error) {
	input, err := marshalPayload(text)
	if err != nil {
		return contractx.ClassifierResult{}, err
	}

	out, err := c.runner.Invoke(ctx, map[string]any{
		"input": input,
	})
	if err != nil {
		return contractx.ClassifierResult{}, fmt.Errorf("%w: classifier invoke: %v", contractx.ErrModelInvoke, err)
	}

	return normalizeOutput(out)
}

func marshalPayload(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: user message is required", contractx.ErrValidation)
	}
	payload := map[string]any{
		"user_message": text,
		"intents":      contractx.IntentNames(),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal classifier payload: %v", contractx.ErrValidation, err)
	}
	return string(b), nil
}

func normalizeOutput(out classifierLLMOutput) (contractx.ClassifierResult, error) {
	intent := strings.TrimSpace(out.Intent)
	if intent == "" {
		return contractx.ClassifierResult{}, fmt.Errorf("%w: intent field is empty", contractx.ErrSchemaViolation)
	}

	urgency := contractx.UrgencyLow
	if strings.EqualFold(strings.TrimSpace(out.Urgency), string(contractx.UrgencyHigh)) {
		urgency = contractx.UrgencyHigh
	}

	return contractx.ClassifierResult{
		Intent:  contractx.Intent(intent),
		Urgency: urgency,
	}, nil
}
