package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/projectflow-ai/projectflow/config"
	"github.com/projectflow-ai/projectflow/internal/analysis"
	"github.com/projectflow-ai/projectflow/internal/engine"
	"github.com/projectflow-ai/projectflow/internal/groups"
	srv "github.com/projectflow-ai/projectflow/internal/server"
	"github.com/projectflow-ai/projectflow/internal/stage"
	"github.com/projectflow-ai/projectflow/internal/store"
	"github.com/projectflow-ai/projectflow/internal/telemetry"
	"github.com/projectflow-ai/projectflow/provider"
)

func serveCMD() *cobra.Command {
	var cfgPath string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the mentoring HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}

			settings, err := stage.LoadSettings(cfg.Stages.File)
			if err != nil {
				return err
			}

			st, err := store.New(store.Options{
				Backend:   cfg.Storage.Backend,
				DataDir:   cfg.Storage.DataDir,
				RedisAddr: cfg.Storage.Redis.Addr,
				RedisPass: cfg.Storage.Redis.Password,
				RedisDB:   cfg.Storage.Redis.DB,
			})
			if err != nil {
				return err
			}

			gen, err := provider.NewProvider(provider.Client(cfg.LLM.Provider), provider.Options{
				APIKey:      cfg.LLM.APIKey,
				BaseURL:     cfg.LLM.BaseURL,
				Model:       cfg.LLM.Model,
				Temperature: cfg.LLM.Temperature,
				MaxTokens:   cfg.LLM.MaxTokens,
				Timeout:     cfg.LLM.Timeout,
			})
			if err != nil {
				return err
			}

			engOpts := engine.Options{
				Workers:   cfg.Pipeline.Workers,
				QueueSize: cfg.Pipeline.QueueSize,
			}
			var tele *telemetry.Telemetry
			if cfg.Telemetry.Enabled {
				tele = telemetry.New(prometheus.DefaultRegisterer, cfg.Telemetry.CostPer1KUSD)
				engOpts.WrapStage = tele.WrapStage
			}

			eng := engine.New(st, settings, gen, engOpts)
			defer eng.Close()

			gm, err := groups.NewManager(cfg.Storage.DataDir, st)
			if err != nil {
				return err
			}

			var analyzerGen = gen
			if tele != nil {
				analyzerGen = tele.WrapGenerator(gen, "analysis")
			}
			an := analysis.New(analyzerGen)

			server := srv.New(cfg, eng, gm, an, tele)
			return server.Run()
		},
	}
	serve.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ./config)")
	return serve
}
