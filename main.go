package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/decoderlab/fleetquote/agent/contract"
	memoryx "github.com/decoderlab/fleetquote/agent/memory"
	orchestratorx "github.com/decoderlab/fleetquote/agent/orchestrator"
	pricingx "github.com/decoderlab/fleetquote/agent/pricing"
	toolx "github.com/decoderlab/fleetquote/agent/tool"
	configx "github.com/decoderlab/fleetquote/pkg/config"
	"github.com/decoderlab/fleetquote/pkg/httpx"
	_ "github.com/decoderlab/fleetquote/pkg/logger/autoload"
	openrouterx "github.com/decoderlab/fleetquote/pkg/openrouter"
)

type AppConfig struct {
	TurnTimeout  time.Duration `envconfig:"TURN_TIMEOUT" split_words:"true" default:"45s"`
	MemoryWindow int           `envconfig:"MEMORY_WINDOW" split_words:"true" default:"10"`
	MaxSessions  int           `envconfig:"MAX_SESSIONS" split_words:"true" default:"1024"`
	PostgresDSN  string        `envconfig:"POSTGRES_DSN" split_words:"true"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")

	rates := buildRateTable(appCfg.PostgresDSN)
	calc, err := pricingx.NewCalculator(rates)
	if err != nil {
		log.Fatal().Err(err).Msg("create calculator")
	}
	executor, err := toolx.NewExecutor(calc)
	if err != nil {
		log.Fatal().Err(err).Msg("create tool executor")
	}

	backend, err := openrouterx.NewBackend(*configx.MustNew[openrouterx.Config]("OPENROUTER"))
	if err != nil {
		log.Fatal().Err(err).Msg("create completion backend")
	}

	store := memoryx.NewStore(
		memoryx.WithWindowSize(appCfg.MemoryWindow),
		memoryx.WithMaxSessions(appCfg.MaxSessions),
	)

	agent, err := orchestratorx.New(backend, store, executor, orchestratorx.Config{
		TurnTimeout: appCfg.TurnTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create orchestrator")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpCfg := configx.MustNew[httpx.Config]("HTTP")
	if err := httpx.Serve(ctx, *httpCfg, agent); err != nil {
		log.Fatal().Err(err).Msg("http server")
	}
	log.Info().Msg("shutdown complete")
}

func buildRateTable(dsn string) contractx.RateTable {
	if strings.TrimSpace(dsn) != "" {
		table, err := pricingx.NewPostgresRateTable(pricingx.PostgresConfig{DSN: dsn})
		if err != nil {
			log.Fatal().Err(err).Msg("create postgres rate table")
		}
		log.Info().Msg("using postgres rate table")
		return table
	}

	table, err := pricingx.DefaultRateTable()
	if err != nil {
		log.Fatal().Err(err).Msg("load embedded rate table")
	}
	log.Info().Msg("using embedded rate table")
	return table
}
