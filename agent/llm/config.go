package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/supportops/triage-pipeline/agent/contract"
	openrouterx "github.com/supportops/triage-pipeline/pkg/openrouter"
)

// Mode selects how the fallback classifier talks to the model provider.
type Mode string

const (
	// ModeGraph runs the classifier as an eino structured-output graph.
	ModeGraph Mode = "graph"
	// ModeCompletion calls the chat completions API directly via the SDK client.
	ModeCompletion Mode = "completion"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"600"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
	ClassifierMode     Mode          `envconfig:"CLASSIFIER_MODE" split_words:"true" default:"graph"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: classifier model is required", contractx.ErrValidation)
	}
	switch c.ClassifierMode {
	case ModeGraph, ModeCompletion:
	default:
		return fmt.Errorf("%w: unknown classifier mode %q", contractx.ErrValidation, c.ClassifierMode)
	}
	return nil
}

// OpenRouter maps the classifier config onto the shared OpenRouter config.
func (c Config) OpenRouter() openrouterx.Config {
	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              strings.TrimSpace(c.Model),
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        c.Temperature,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
