package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/supportops/triage-pipeline/agent/contract"
)

type completionClassifier struct {
	client       *openaisdk.Client
	model        string
	systemPrompt string
}

// NewCompletion builds a classifier that calls the chat completions API
// directly through the SDK client instead of an eino graph. Behavior and
// output contract are identical to New.
func NewCompletion(client *openaisdk.Client, model string, systemPrompt string) (contractx.Classifier, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: sdk client is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("%w: classifier model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: classifier prompt is empty", contractx.ErrPromptMissing)
	}

	return &completionClassifier{
		client:       client,
		model:        strings.TrimSpace(model),
		systemPrompt: systemPrompt,
	}, nil
}

func (c *completionClassifier) Classify(ctx context.Context, text string) (contractx.ClassifierResult, error) {
	input, err := marshalPayload(text)
	if err != nil {
		return contractx.ClassifierResult{}, err
	}

	resp, err := c.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(c.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(c.systemPrompt),
			openaisdk.UserMessage(input),
		},
	})
	if err != nil {
		return contractx.ClassifierResult{}, fmt.Errorf("%w: chat completion: %v", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return contractx.ClassifierResult{}, fmt.Errorf("%w: completion returned no choices", contractx.ErrSchemaViolation)
	}

	var out classifierLLMOutput
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return contractx.ClassifierResult{}, fmt.Errorf("%w: decode classifier output: %v", contractx.ErrSchemaViolation, err)
	}

	return normalizeOutput(out)
}
