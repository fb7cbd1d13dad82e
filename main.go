package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/supportops/triage-pipeline/agent/agents/classifier"
	"github.com/supportops/triage-pipeline/agent/agents/pipeline"
	contractx "github.com/supportops/triage-pipeline/agent/contract"
	llmx "github.com/supportops/triage-pipeline/agent/llm"
	promptx "github.com/supportops/triage-pipeline/agent/prompt"
	"github.com/supportops/triage-pipeline/directory"
	configx "github.com/supportops/triage-pipeline/pkg/config"
	_ "github.com/supportops/triage-pipeline/pkg/logger/autoload"
	openrouterx "github.com/supportops/triage-pipeline/pkg/openrouter"
	"github.com/supportops/triage-pipeline/server"
)

type AppConfig struct {
	Port        string `envconfig:"PORT" default:"8080"`
	DirectoryIn string `envconfig:"DIRECTORY" default:"postgres"` // postgres | memory
}

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[AppConfig]("")

	dir, err := buildDirectory(ctx, *appCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize directory")
	}

	fallback, err := buildFallbackClassifier(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize fallback classifier")
	}

	svc, err := pipeline.New(dir, fallback)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize triage pipeline")
	}

	router := server.NewRouter(server.NewHandler(svc))

	log.Info().Str("port", appCfg.Port).Msg("triage pipeline listening")
	if err := http.ListenAndServe(":"+appCfg.Port, router); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}

func buildDirectory(ctx context.Context, cfg AppConfig) (contractx.Directory, error) {
	if strings.EqualFold(cfg.DirectoryIn, "memory") {
		log.Info().Msg("using seeded in-memory directory")
		return directory.NewMemorySeeded(), nil
	}

	dbCfg := configx.MustNew[directory.Config]("DB")
	db, err := directory.Connect(ctx, *dbCfg)
	if err != nil {
		return nil, err
	}

	pg, err := directory.NewPostgres(db)
	if err != nil {
		return nil, err
	}
	if err := pg.InitSchema(ctx); err != nil {
		return nil, err
	}
	return pg, nil
}

// buildFallbackClassifier wires the LLM-backed intent classifier. Without an
// OpenRouter key the pipeline still runs; unmatched requests then degrade to
// general support.
func buildFallbackClassifier(ctx context.Context) (contractx.Classifier, error) {
	llmCfg, err := configx.New[llmx.Config]("OPENROUTER")
	if err != nil {
		log.Warn().Err(err).Msg("no classifier config, rule cascade only")
		return nil, nil
	}
	if err := llmCfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()

	switch llmCfg.ClassifierMode {
	case llmx.ModeCompletion:
		client := openrouterx.NewClient(llmCfg.OpenRouter())
		return classifier.NewCompletion(client, llmCfg.Model, prompts.Classifier)
	default:
		orCfg := llmCfg.OpenRouter()
		chatModel, err := orCfg.New(ctx)
		if err != nil {
			return nil, err
		}
		return classifier.New(ctx, chatModel, prompts.Classifier)
	}
}
