package executor

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/webpilot-dev/webpilot/internal/autoerr"
	"github.com/webpilot-dev/webpilot/internal/resolver"
)

// loginLinkTexts are the labels tried when looking for the login entry
// point on a site's landing page.
var loginLinkTexts = []string{
	"Log in", "Login", "Sign in", "Signin", "Sign In", "Account", "My Account",
}

// usernameFields and passwordFields are the field descriptions tried, in
// order, when filling the login form.
var (
	usernameFields = []string{"username", "email", "user", "login"}
	passwordFields = []string{"password", "pass"}
)

// searchFields are the field descriptions tried when locating a search box.
var searchFields = []string{"search", "q", "query", "find"}

// login runs the composite login flow: open the site, reach the login
// form, fill credentials, submit, and check for challenges. A detected
// challenge is given a manual-intervention window before the flow fails
// with a ChallengeDetected result carrying the screenshot reference.
func (e *Executor) login(ctx context.Context, s Session, it resolver.Login) (map[string]any, error) {
	if _, _, err := s.Navigate(ctx, siteURL(it.Site)); err != nil {
		return nil, err
	}

	// Reach the login form. Sites differ on whether the landing page shows
	// the form directly, so a missing link is not an error.
	for _, label := range loginLinkTexts {
		if err := s.Click(ctx, label); err == nil {
			break
		} else if ctx.Err() != nil {
			return nil, autoerr.Automation(ctx.Err(), "login flow canceled")
		}
	}

	// Some sites front the form itself with a challenge.
	if err := e.checkChallenge(ctx, s); err != nil {
		return nil, err
	}

	credentialed := it.Username != "" && it.Password != ""
	if credentialed {
		if err := typeIntoFirst(ctx, s, it.Username, usernameFields); err != nil {
			return nil, describeFieldError(err, "username field")
		}
		if err := typeIntoFirst(ctx, s, it.Password, passwordFields); err != nil {
			return nil, describeFieldError(err, "password field")
		}
		if err := s.Submit(ctx); err != nil {
			return nil, err
		}
		if err := e.checkChallenge(ctx, s); err != nil {
			return nil, err
		}
	}

	return map[string]any{
		"logged_in":   credentialed,
		"website":     it.Site,
		"current_url": s.CurrentURL(),
	}, nil
}

// search runs the composite search flow: open the site, fill the search
// box, submit, and wait for the page to settle.
func (e *Executor) search(ctx context.Context, s Session, it resolver.Search) (map[string]any, error) {
	if _, _, err := s.Navigate(ctx, siteURL(it.Site)); err != nil {
		return nil, err
	}

	if err := typeIntoFirst(ctx, s, it.Query, searchFields); err != nil {
		return nil, describeFieldError(err, "search field")
	}

	if err := s.Submit(ctx); err != nil {
		return nil, err
	}

	return map[string]any{
		"search_query": it.Query,
		"website":      it.Site,
		"current_url":  s.CurrentURL(),
	}, nil
}

// checkChallenge fails the flow with a ChallengeDetected error when a
// CAPTCHA or 2FA prompt is on the page and it is not cleared manually
// within the configured window. The screenshot is captured before waiting
// so the caller sees the challenge even if it later disappears.
func (e *Executor) checkChallenge(ctx context.Context, s Session) error {
	challenge, err := s.DetectChallenge(ctx)
	if err != nil {
		e.logger.Warn("Challenge detection failed; continuing.", zap.Error(err))
		return nil
	}
	if challenge == nil {
		return nil
	}

	shot, shotErr := s.Screenshot(ctx, "challenge")
	if shotErr != nil {
		e.logger.Warn("Failed to capture challenge screenshot.", zap.Error(shotErr))
	}

	if s.AwaitChallengeCleared(ctx, e.cfg.Network.ChallengeWait) {
		return nil
	}

	ae := autoerr.ChallengeDetected(challenge.Type)
	if shot != "" {
		ae.WithDetail("screenshot", shot)
	}
	return ae
}

// describeFieldError rewrites exhausted-candidate misses in terms of the
// logical field being filled. Hard failures pass through unchanged.
func describeFieldError(err error, field string) error {
	if autoerr.KindOf(err) == autoerr.KindElementNotFound {
		return autoerr.ElementNotFound(field)
	}
	return err
}

// typeIntoFirst tries each field description until one accepts the text.
// Only ElementNotFound moves on to the next candidate; other failures
// abort immediately.
func typeIntoFirst(ctx context.Context, s Session, text string, fields []string) error {
	var lastErr error
	for _, field := range fields {
		err := s.Type(ctx, text, field)
		if err == nil {
			return nil
		}
		lastErr = err
		if !errors.Is(err, autoerr.ElementNotFound(field)) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	if lastErr == nil {
		lastErr = autoerr.ElementNotFound("input field")
	}
	return lastErr
}
