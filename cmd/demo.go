package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/webpilot-dev/webpilot/internal/browser"
	"github.com/webpilot-dev/webpilot/internal/demo"
	"github.com/webpilot-dev/webpilot/internal/executor"
	"github.com/webpilot-dev/webpilot/internal/observability"
	"github.com/webpilot-dev/webpilot/internal/resolver"
)

var demoCmd = &cobra.Command{
	Use:   "demo [flow]",
	Short: "Run a scripted interaction flow against a live site",
	Long: `Runs one of the built-in demo flows end to end through the command
pipeline. Defaults to the wikipedia flow, which needs no credentials.
The github and reddit flows read GITHUBS_USERNAME/GITHUBS_PASSWORD and
REDDIT_USERNAME/REDDIT_PASSWORD from the environment; without them they
run the anonymous portion only.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().Bool("headed", false, "run the browser with a visible window")
}

func runDemo(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()

	if headed, _ := cmd.Flags().GetBool("headed"); headed {
		cfg.Browser.Headless = false
	}

	name := "wikipedia"
	if len(args) > 0 {
		name = args[0]
	}
	flows := demo.Flows(cfg)
	flow, ok := flows[name]
	if !ok {
		names := make([]string, 0, len(flows))
		for n := range flows {
			names = append(names, n)
		}
		sort.Strings(names)
		return fmt.Errorf("unknown demo flow %q (available: %s)", name, strings.Join(names, ", "))
	}

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
	runner := demo.NewRunner(res, exec, logger)

	return runner.Run(cmd.Context(), flow)
}
