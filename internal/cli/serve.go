package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdscourt/canon-core/internal/agent"
	"github.com/nerdscourt/canon-core/internal/server"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket service",
		Long:  "Serve the tribunal API on SERVER_PORT. Requires CUSTOMGPT_API_KEY.",
		Run:   runServe,
	}

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	if err := cfg.ValidateServe(); err != nil {
		exitErr("config", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lore, err := openArchive(ctx)
	if err != nil {
		exitErr("open archive", err)
	}
	defer lore.Store().Close()

	bc := newBackend()
	if !bc.Enabled() {
		logger.Warn("CONVEX_URL not set, threads and agent state are not persisted")
	}

	var responder agent.Responder
	if cfg.LLM.APIKey != "" {
		responder = agent.NewOpenAIResponder(cfg.LLM.APIKey, cfg.LLM.BaseURL)
	} else {
		logger.Warn("LLM_API_KEY not set, agents echo")
	}

	var agentBackend agent.Backend
	if bc.Enabled() {
		agentBackend = bc
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := server.New(cfg.Server.APIKey, cfg.Server.MediaDir, server.Deps{
		Archive:  lore,
		Agents:   agent.NewRegistry(agentBackend, responder, lore, logger),
		Backend:  bc,
		Media:    newMedia(),
		Logger:   logger,
		Registry: reg,
	})

	logger.Info("starting server",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("archive", cfg.Archive.Backend),
		zap.String("media_dir", cfg.Server.MediaDir))
	if err := srv.Run(ctx, cfg.Server.Addr()); err != nil && ctx.Err() == nil {
		exitErr("serve", err)
	}
	logger.Info("server stopped")
	_ = logger.Sync()
}
