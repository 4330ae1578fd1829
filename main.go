package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	orchestratorx "github.com/hampiwasi/intake/agent/agents/orchestrator"
	corpusx "github.com/hampiwasi/intake/agent/corpus"
	llmx "github.com/hampiwasi/intake/agent/llm"
	statex "github.com/hampiwasi/intake/agent/state"
	"github.com/hampiwasi/intake/api"
	clinicx "github.com/hampiwasi/intake/pkg/clinic"
	configx "github.com/hampiwasi/intake/pkg/config"
	_ "github.com/hampiwasi/intake/pkg/logger/autoload"
)

type AppConfig struct {
	Port            string `envconfig:"PORT" default:"8080"`
	CorpusPath      string `envconfig:"CORPUS_PATH" split_words:"true" default:"corpus_quechua_espanol.json"`
	CorpusExtraPath string `envconfig:"CORPUS_EXTRA_PATH" split_words:"true" default:"corpus_runasimi_ampliado.json"`
	PostgresDSN     string `envconfig:"POSTGRES_DSN" split_words:"true"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")

	model, err := llmx.NewEngine(*configx.MustNew[llmx.Config]("OPENAI"))
	if err != nil {
		log.Fatal().Err(err).Msg("init llm engine")
	}

	clinic, err := clinicx.NewClient(*configx.MustNew[clinicx.Config]("CLINIC"))
	if err != nil {
		log.Fatal().Err(err).Msg("init clinic client")
	}
	// warm the bearer token; the client also refreshes lazily on 401
	if err := clinic.Authenticate(context.Background()); err != nil {
		log.Warn().Err(err).Msg("clinic authentication failed at startup")
	}

	phrases, err := corpusx.Load(appCfg.CorpusPath, appCfg.CorpusExtraPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load bilingual corpus")
	}
	log.Info().Int("pairs", phrases.Len()).Msg("bilingual corpus loaded")

	var store statex.Store = statex.NewMemoryStore()
	if appCfg.PostgresDSN != "" {
		pgStore, err := statex.NewPostgresStore(statex.PostgresConfig{DSN: appCfg.PostgresDSN})
		if err != nil {
			log.Fatal().Err(err).Msg("init postgres session store")
		}
		if err := pgStore.EnsureSchema(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("ensure session schema")
		}
		store = pgStore
		log.Info().Msg("using postgres session store")
	}

	orc, err := orchestratorx.New(store, model, clinic, phrases, orchestratorx.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("init orchestrator")
	}

	server := &http.Server{
		Addr:              ":" + appCfg.Port,
		Handler:           api.NewRouter(orc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().Str("addr", server.Addr).Msg("intake server listening")
	if err := server.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
