// Package autoerr defines the error taxonomy shared by the resolver, the
// browser executor, and the HTTP layer. Every failure that crosses the
// executor boundary is one of these kinds; the HTTP layer converts them into
// structured results instead of 5xx responses.
package autoerr

import (
	"errors"
	"fmt"
)

// Kind classifies an automation failure.
type Kind string

const (
	// KindUnrecognizedCommand means the resolver could not map the input
	// text to any known intent.
	KindUnrecognizedCommand Kind = "unrecognized_command"
	// KindElementNotFound means no element on the page matched the target
	// description after exhausting all selector strategies.
	KindElementNotFound Kind = "element_not_found"
	// KindNavigationTimeout means a page load did not complete within the
	// configured navigation timeout.
	KindNavigationTimeout Kind = "navigation_timeout"
	// KindChallengeDetected means a CAPTCHA or 2FA prompt was found. This is
	// an expected, non-retryable outcome requiring manual follow-up.
	KindChallengeDetected Kind = "challenge_detected"
	// KindBrowserNotReady means the browser session is not initialized or
	// has been torn down.
	KindBrowserNotReady Kind = "browser_not_ready"
	// KindAutomation is the catch-all for failures surfaced by the
	// underlying CDP layer.
	KindAutomation Kind = "automation_error"
)

// Error is the structured automation error. Details carries kind-specific
// context (target description, URL, screenshot path) and Suggestions carries
// human-readable recovery hints surfaced to the API caller.
type Error struct {
	Kind        Kind
	Message     string
	Details     map[string]any
	Suggestions []string
	cause       error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is makes errors.Is match on kind, so callers can compare against the
// sentinel constructors below without caring about message or details.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// WithDetail attaches a detail entry and returns the error for chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// KindOf extracts the Kind from any error in the chain, or KindAutomation if
// the error is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindAutomation
}

// AsError returns the *Error in the chain, wrapping foreign errors as
// KindAutomation so the HTTP layer always has structure to serialize.
func AsError(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Kind: KindAutomation, Message: err.Error(), cause: err}
}

func newError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:        kind,
		Message:     fmt.Sprintf(format, args...),
		Suggestions: suggestions[kind],
		cause:       cause,
	}
}

// UnrecognizedCommand reports that no command pattern matched the input.
func UnrecognizedCommand(command string) *Error {
	return newError(KindUnrecognizedCommand, nil, "could not understand command: %q", command).
		WithDetail("command", command)
}

// ElementNotFound reports that the target description matched nothing.
func ElementNotFound(target string) *Error {
	return newError(KindElementNotFound, nil, "could not find element: %q", target).
		WithDetail("target", target)
}

// NavigationTimeout reports that a page load exceeded its deadline.
func NavigationTimeout(url string, cause error) *Error {
	return newError(KindNavigationTimeout, cause, "navigation to %s timed out", url).
		WithDetail("url", url)
}

// ChallengeDetected reports a CAPTCHA/2FA prompt. challengeType is one of
// "recaptcha", "hcaptcha", "text_captcha", "two_factor" or "unknown".
func ChallengeDetected(challengeType string) *Error {
	return newError(KindChallengeDetected, nil,
		"%s challenge detected; manual intervention required", challengeType).
		WithDetail("challenge_type", challengeType)
}

// BrowserNotReady reports that the session is unavailable.
func BrowserNotReady(cause error) *Error {
	return newError(KindBrowserNotReady, cause, "browser session is not ready")
}

// Automation wraps an arbitrary failure from the CDP layer.
func Automation(cause error, format string, args ...any) *Error {
	return newError(KindAutomation, cause, format, args...)
}

// suggestions maps each kind to its recovery hints, surfaced verbatim in the
// error payload of the HTTP response.
var suggestions = map[Kind][]string{
	KindUnrecognizedCommand: {
		"Check the command syntax",
		"See the documentation for supported commands",
		"Try rephrasing the command",
	},
	KindElementNotFound: {
		"Check if the element description is correct",
		"Try waiting longer for the element to appear",
		"The page structure might have changed",
	},
	KindNavigationTimeout: {
		"Check if the URL is correct and accessible",
		"Try increasing the navigation timeout",
		"The website might be down or blocking automated access",
	},
	KindChallengeDetected: {
		"Solve the challenge manually using the captured screenshot",
		"The website may require two-factor authentication",
	},
	KindBrowserNotReady: {
		"Reset the browser via POST /reset",
		"Check that Chrome is installed and reachable",
	},
	KindAutomation: {
		"Retry the command",
		"Reset the browser via POST /reset if the failure persists",
	},
}
