package autoerr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpilot-dev/webpilot/internal/autoerr"
)

func TestIs_MatchesOnKind(t *testing.T) {
	err := autoerr.ElementNotFound("login button")

	// Different message and details, same kind.
	assert.ErrorIs(t, err, autoerr.ElementNotFound("something else"))
	assert.NotErrorIs(t, err, autoerr.NavigationTimeout("https://example.com", nil))
}

func TestIs_ThroughWrapping(t *testing.T) {
	inner := autoerr.NavigationTimeout("https://example.com", errors.New("deadline exceeded"))
	wrapped := fmt.Errorf("login flow: %w", inner)

	assert.ErrorIs(t, wrapped, autoerr.NavigationTimeout("other", nil))
	assert.Equal(t, autoerr.KindNavigationTimeout, autoerr.KindOf(wrapped))
}

func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, autoerr.KindAutomation, autoerr.KindOf(errors.New("boom")))
}

func TestAsError_PassThrough(t *testing.T) {
	orig := autoerr.BrowserNotReady(nil)
	assert.Same(t, orig, autoerr.AsError(orig))
}

func TestAsError_WrapsForeign(t *testing.T) {
	cause := errors.New("connection refused")
	ae := autoerr.AsError(cause)

	assert.Equal(t, autoerr.KindAutomation, ae.Kind)
	assert.Equal(t, "connection refused", ae.Message)
	assert.ErrorIs(t, ae, cause)
}

func TestWithDetail(t *testing.T) {
	err := autoerr.ChallengeDetected("recaptcha").
		WithDetail("screenshot", "screenshots/challenge-x.png")

	assert.Equal(t, "recaptcha", err.Details["challenge_type"])
	assert.Equal(t, "screenshots/challenge-x.png", err.Details["screenshot"])
}

func TestConstructors_CarrySuggestions(t *testing.T) {
	tests := []struct {
		err  *autoerr.Error
		kind autoerr.Kind
	}{
		{autoerr.UnrecognizedCommand("frobnicate"), autoerr.KindUnrecognizedCommand},
		{autoerr.ElementNotFound("search field"), autoerr.KindElementNotFound},
		{autoerr.NavigationTimeout("https://example.com", nil), autoerr.KindNavigationTimeout},
		{autoerr.ChallengeDetected("hcaptcha"), autoerr.KindChallengeDetected},
		{autoerr.BrowserNotReady(nil), autoerr.KindBrowserNotReady},
		{autoerr.Automation(nil, "cdp hiccup"), autoerr.KindAutomation},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, tt.err.Kind)
		assert.NotEmpty(t, tt.err.Suggestions, "kind %s must carry recovery suggestions", tt.kind)
	}
}

func TestError_MessageFormat(t *testing.T) {
	err := autoerr.UnrecognizedCommand("make me a sandwich")
	require.Contains(t, err.Error(), "unrecognized_command")
	require.Contains(t, err.Error(), "make me a sandwich")

	withCause := autoerr.Automation(errors.New("tab crashed"), "click dispatch failed")
	assert.Contains(t, withCause.Error(), "tab crashed")
}
