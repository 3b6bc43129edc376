// Package demo runs scripted interaction flows against live sites. The
// flows exercise the full command pipeline end to end and double as a
// smoke test for the natural-language surface.
package demo

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/webpilot-dev/webpilot/internal/config"
	"github.com/webpilot-dev/webpilot/internal/executor"
	"github.com/webpilot-dev/webpilot/internal/resolver"
)

// Step is one natural-language command in a flow. Optional steps log a
// warning on failure instead of aborting the flow; site layouts shift, and
// a missing "click on ..." target should not sink the whole demo.
type Step struct {
	Command  string
	Options  map[string]any
	Optional bool
}

// Flow is a named command sequence.
type Flow struct {
	Name        string
	Description string
	Steps       []Step
}

// Runner drives flows through the resolver and executor.
type Runner struct {
	logger   *zap.Logger
	resolver *resolver.Resolver
	executor *executor.Executor
}

// NewRunner creates a flow runner.
func NewRunner(res *resolver.Resolver, exec *executor.Executor, logger *zap.Logger) *Runner {
	return &Runner{
		logger:   logger.Named("demo"),
		resolver: res,
		executor: exec,
	}
}

// Flows returns the available flows keyed by name. Credentials come from
// the environment-bound demo config; flows that need them degrade to the
// anonymous portion when they are absent.
func Flows(cfg *config.Config) map[string]Flow {
	return map[string]Flow{
		"wikipedia": wikipediaFlow(),
		"github":    githubFlow(cfg),
		"reddit":    redditFlow(cfg),
	}
}

// wikipediaFlow searches a public site, no login required.
func wikipediaFlow() Flow {
	return Flow{
		Name:        "wikipedia",
		Description: "Search Wikipedia and open a result",
		Steps: []Step{
			{Command: "go to wikipedia.org"},
			{Command: `type "browser automation" in search`},
			{Command: "submit"},
			{Command: "wait 2 seconds"},
			{Command: `click on the link "headless browser"`, Optional: true},
			{Command: "wait 2 seconds"},
			{Command: "take a screenshot"},
		},
	}
}

// githubFlow logs into GitHub and runs a search.
func githubFlow(cfg *config.Config) Flow {
	steps := []Step{
		{Command: "go to github.com"},
	}
	if cfg.Demo.GitHubUsername != "" && cfg.Demo.GitHubPassword != "" {
		steps = append(steps, Step{
			Command: "login to github.com",
			Options: map[string]any{
				"username": cfg.Demo.GitHubUsername,
				"password": cfg.Demo.GitHubPassword,
			},
		})
	}
	steps = append(steps,
		Step{Command: `search for "browser automation" on github.com`},
		Step{Command: "wait 2 seconds"},
		Step{Command: "take a screenshot"},
	)
	return Flow{
		Name:        "github",
		Description: "Log into GitHub and search repositories",
		Steps:       steps,
	}
}

// redditFlow logs into Reddit and runs a search.
func redditFlow(cfg *config.Config) Flow {
	steps := []Step{
		{Command: "go to reddit.com"},
	}
	if cfg.Demo.RedditUsername != "" && cfg.Demo.RedditPassword != "" {
		steps = append(steps, Step{
			Command: "login to reddit.com",
			Options: map[string]any{
				"username": cfg.Demo.RedditUsername,
				"password": cfg.Demo.RedditPassword,
			},
		})
	}
	steps = append(steps,
		Step{Command: `search for "golang" on reddit.com`},
		Step{Command: "wait 2 seconds"},
		Step{Command: "take a screenshot"},
	)
	return Flow{
		Name:        "reddit",
		Description: "Log into Reddit and search posts",
		Steps:       steps,
	}
}

// Run executes the flow step by step, stopping at the first failure of a
// required step.
func (r *Runner) Run(ctx context.Context, flow Flow) error {
	r.logger.Info("Starting demo flow",
		zap.String("flow", flow.Name), zap.Int("steps", len(flow.Steps)))

	for i, step := range flow.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		intent, err := r.resolver.Resolve(step.Command, step.Options)
		if err != nil {
			if step.Optional {
				r.logger.Warn("Optional step did not resolve; continuing.",
					zap.Int("step", i+1), zap.String("command", step.Command), zap.Error(err))
				continue
			}
			return fmt.Errorf("step %d (%q): %w", i+1, step.Command, err)
		}

		result := r.executor.Execute(ctx, intent)
		if !result.Success {
			if step.Optional {
				r.logger.Warn("Optional step failed; continuing.",
					zap.Int("step", i+1),
					zap.String("command", step.Command),
					zap.String("message", result.Message))
				continue
			}
			return fmt.Errorf("step %d (%q) failed: %s", i+1, step.Command, result.Message)
		}

		r.logger.Info("Step completed",
			zap.Int("step", i+1),
			zap.String("command", step.Command),
			zap.String("message", result.Message))
	}

	r.logger.Info("Demo flow completed", zap.String("flow", flow.Name))
	return nil
}
