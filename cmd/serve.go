package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/webpilot-dev/webpilot/internal/browser"
	"github.com/webpilot-dev/webpilot/internal/executor"
	"github.com/webpilot-dev/webpilot/internal/observability"
	"github.com/webpilot-dev/webpilot/internal/resolver"
	"github.com/webpilot-dev/webpilot/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the browser automation HTTP service",
	Long: `Launches the headless browser and serves the interaction API.
Commands arrive as natural language on POST /interact and are executed
against a single live browser session.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "listen address (overrides server.listen_addr)")
	serveCmd.Flags().Bool("headed", false, "run the browser with a visible window")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()

	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.ListenAddr = listen
	}
	if headed, _ := cmd.Flags().GetBool("headed"); headed {
		cfg.Browser.Headless = false
	}

	// The browser process outlives individual requests; it is torn down
	// explicitly on shutdown rather than tied to the signal context.
	manager, err := browser.NewManager(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := manager.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Browser shutdown reported an error", zap.Error(err))
		}
	}()

	res := resolver.New(logger)
	exec := executor.New(cfg, sessionProvider{manager}, logger)
	srv := server.New(cfg, res, exec, manager, logger)

	return srv.Start(cmd.Context())
}

// sessionProvider adapts the browser manager to the executor's provider
// interface; Session returns a concrete type the interface can't name.
type sessionProvider struct {
	manager *browser.Manager
}

func (p sessionProvider) Session(ctx context.Context) (executor.Session, error) {
	s, err := p.manager.Session(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}
