// Package executor drives the browser session according to resolved
// intents and assembles the structured interaction results returned to API
// callers. All failures are converted into results here; nothing escapes as
// a transport-level error.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/webpilot-dev/webpilot/internal/autoerr"
	"github.com/webpilot-dev/webpilot/internal/browser"
	"github.com/webpilot-dev/webpilot/internal/config"
	"github.com/webpilot-dev/webpilot/internal/resolver"
)

// Session is the browser surface the executor drives. Implemented by
// *browser.Session; stubbed in tests.
type Session interface {
	Navigate(ctx context.Context, url string) (finalURL, title string, err error)
	Click(ctx context.Context, target string) error
	Type(ctx context.Context, text, field string) error
	Submit(ctx context.Context) error
	Wait(ctx context.Context, d time.Duration) error
	WaitFor(ctx context.Context, element string) error
	Screenshot(ctx context.Context, label string) (string, error)
	DetectChallenge(ctx context.Context) (*browser.Challenge, error)
	AwaitChallengeCleared(ctx context.Context, budget time.Duration) bool
	Snapshot() browser.Status
	SetBusy(busy bool)
	RecordFailure(err error)
	CurrentURL() string
}

// Provider hands out the live session, creating it on first use.
type Provider interface {
	Session(ctx context.Context) (Session, error)
}

// Result is the outcome of executing one intent.
type Result struct {
	Success bool
	Message string
	Data    map[string]any
}

// Executor maps intents onto browser actions.
type Executor struct {
	cfg      *config.Config
	logger   *zap.Logger
	provider Provider
}

// New creates an Executor backed by the given session provider.
func New(cfg *config.Config, provider Provider, logger *zap.Logger) *Executor {
	return &Executor{
		cfg:      cfg,
		logger:   logger.Named("executor"),
		provider: provider,
	}
}

// Execute runs the intent against the browser and returns a structured
// result. Errors never propagate: they are folded into a failure result
// carrying the taxonomy kind, details, and a screenshot reference when one
// could be captured.
func (e *Executor) Execute(ctx context.Context, intent resolver.Intent) Result {
	session, err := e.provider.Session(ctx)
	if err != nil {
		return e.failure(ctx, nil, err)
	}

	session.SetBusy(true)
	defer session.SetBusy(false)

	data, err := e.dispatch(ctx, session, intent)
	if err != nil {
		return e.failure(ctx, session, err)
	}

	session.RecordFailure(nil)
	return Result{
		Success: true,
		Message: successMessage(intent),
		Data:    data,
	}
}

// dispatch switches exhaustively over the closed intent set.
func (e *Executor) dispatch(ctx context.Context, s Session, intent resolver.Intent) (map[string]any, error) {
	switch it := intent.(type) {
	case resolver.Navigate:
		finalURL, title, err := s.Navigate(ctx, it.URL)
		if err != nil {
			return nil, err
		}
		return map[string]any{"url": finalURL, "title": title}, nil

	case resolver.Click:
		if err := s.Click(ctx, it.Target); err != nil {
			return nil, err
		}
		return map[string]any{"clicked": it.Target}, nil

	case resolver.Type:
		if err := s.Type(ctx, it.Text, it.Field); err != nil {
			return nil, err
		}
		return map[string]any{"field": it.Field, "typed": it.Text}, nil

	case resolver.Submit:
		if err := s.Submit(ctx); err != nil {
			return nil, err
		}
		return map[string]any{"submitted": true}, nil

	case resolver.Wait:
		if err := s.Wait(ctx, it.Duration); err != nil {
			return nil, err
		}
		return map[string]any{"waited_seconds": it.Duration.Seconds()}, nil

	case resolver.WaitFor:
		if err := s.WaitFor(ctx, it.Element); err != nil {
			return nil, err
		}
		return map[string]any{"waited_for": it.Element}, nil

	case resolver.Screenshot:
		path, err := s.Screenshot(ctx, "page")
		if err != nil {
			return nil, err
		}
		return map[string]any{"screenshot": path, "format": "png"}, nil

	case resolver.Login:
		return e.login(ctx, s, it)

	case resolver.Search:
		return e.search(ctx, s, it)

	default:
		// The intent set is closed; reaching this is a programming error.
		return nil, autoerr.Automation(nil, "unsupported intent kind %q", intent.Kind())
	}
}

// failure converts an error into a failure result, capturing a screenshot
// when a session is available.
func (e *Executor) failure(ctx context.Context, s Session, err error) Result {
	ae := autoerr.AsError(err)
	e.logger.Warn("Interaction failed",
		zap.String("kind", string(ae.Kind)), zap.Error(err))

	if s != nil {
		s.RecordFailure(ae)
		if _, hasShot := ae.Details["screenshot"]; !hasShot {
			if path, shotErr := s.Screenshot(ctx, "error"); shotErr == nil {
				ae.WithDetail("screenshot", path)
			}
		}
	}

	return Result{
		Success: false,
		Message: ae.Message,
		Data: map[string]any{
			"error_type":           string(ae.Kind),
			"details":              ae.Details,
			"recovery_suggestions": ae.Suggestions,
		},
	}
}

func successMessage(intent resolver.Intent) string {
	switch it := intent.(type) {
	case resolver.Navigate:
		return fmt.Sprintf("Navigated to %s", it.URL)
	case resolver.Click:
		return fmt.Sprintf("Clicked on %q", it.Target)
	case resolver.Type:
		return fmt.Sprintf("Typed into the %s field", it.Field)
	case resolver.Submit:
		return "Form submitted"
	case resolver.Wait:
		return fmt.Sprintf("Waited %s", it.Duration)
	case resolver.WaitFor:
		return fmt.Sprintf("Element %q appeared", it.Element)
	case resolver.Screenshot:
		return "Screenshot captured"
	case resolver.Login:
		return fmt.Sprintf("Login flow completed for %s", it.Site)
	case resolver.Search:
		return fmt.Sprintf("Searched %s for %q", it.Site, it.Query)
	default:
		return "Command executed"
	}
}

// siteURL prefixes https:// for bare domains extracted from commands.
func siteURL(site string) string {
	if strings.HasPrefix(site, "http://") || strings.HasPrefix(site, "https://") {
		return site
	}
	return "https://" + site
}
