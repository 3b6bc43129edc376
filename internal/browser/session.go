package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/webpilot-dev/webpilot/internal/autoerr"
	"github.com/webpilot-dev/webpilot/internal/config"
)

// Status is the session snapshot served by the status endpoint.
type Status struct {
	State      string `json:"status"`
	CurrentURL string `json:"current_url"`
	Title      string `json:"title"`
	LastError  string `json:"last_error,omitempty"`
}

// Session wraps the single browser tab the service operates on. All actions
// run against the tab's chromedp context; state mutations are serialized by
// the caller (one interact at a time), but snapshot reads may be concurrent,
// so the tracked fields are guarded.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    *config.Config
	shots  *ScreenshotStore

	mu         sync.RWMutex
	currentURL string
	title      string
	lastError  string
	busy       bool
	closed     bool
}

// newSession creates the tab and confirms the target is attached.
func newSession(allocatorCtx context.Context, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	sessionID := uuid.New().String()

	tabCtx, cancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(tabCtx, chromedp.Navigate("about:blank")); err != nil {
		cancel()
		return nil, autoerr.BrowserNotReady(fmt.Errorf("failed to open tab: %w", err))
	}

	s := &Session{
		id:     sessionID,
		ctx:    tabCtx,
		cancel: cancel,
		logger: logger.Named("session").With(zap.String("session_id", sessionID)),
		cfg:    cfg,
		shots:  NewScreenshotStore(cfg.Screenshot.Dir, logger),
	}
	s.logger.Info("Browser session created.")
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Close tears down the tab.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.logger.Info("Closing browser session.")
	s.cancel()
}

// Snapshot returns the current tracker state.
func (s *Session) Snapshot() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := "ready"
	switch {
	case s.closed:
		state = "closed"
	case s.busy:
		state = "busy"
	case s.lastError != "":
		state = "error"
	}
	return Status{
		State:      state,
		CurrentURL: s.currentURL,
		Title:      s.title,
		LastError:  s.lastError,
	}
}

// SetBusy marks the session as processing an interaction. A successful
// action clears any previous error when the busy flag drops.
func (s *Session) SetBusy(busy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = busy
}

// RecordFailure stores the error surfaced to the status endpoint.
func (s *Session) RecordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
}

// CurrentURL returns the last observed page URL.
func (s *Session) CurrentURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentURL
}

// -- Primitives --

// Navigate loads the URL, waits for the document to become ready, and
// reports the final URL and title after any redirects.
func (s *Session) Navigate(ctx context.Context, url string) (finalURL, title string, err error) {
	s.logger.Info("Navigating", zap.String("url", url))

	opCtx, opCancel := s.combineContext(ctx)
	defer opCancel()
	navCtx, navCancel := context.WithTimeout(opCtx, s.cfg.Network.NavigationTimeout)
	defer navCancel()

	err = chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(navCtx.Err(), context.DeadlineExceeded) {
			return "", "", autoerr.NavigationTimeout(url, err)
		}
		return "", "", autoerr.Automation(err, "failed to navigate to %s", url)
	}

	s.settle(opCtx)
	finalURL, title = s.updateState(opCtx)
	return finalURL, title, nil
}

// Click resolves the target description to an element and clicks it. When
// direct interaction fails, a JavaScript-dispatched click is attempted
// before giving up.
func (s *Session) Click(ctx context.Context, target string) error {
	s.logger.Debug("Clicking", zap.String("target", target))

	opCtx, opCancel := s.combineContext(ctx)
	defer opCancel()

	candidate, err := s.findTarget(opCtx, target)
	if err == nil {
		clickCtx, clickCancel := context.WithTimeout(opCtx, s.cfg.Network.ElementTimeout)
		err = chromedp.Run(clickCtx, chromedp.Tasks{
			chromedp.ScrollIntoView(candidate.Selector, candidate.queryOption()),
			chromedp.Click(candidate.Selector, candidate.queryOption()),
		})
		clickCancel()
		if err == nil {
			s.settle(opCtx)
			s.updateState(opCtx)
			return nil
		}
		s.logger.Debug("Direct click failed, trying JavaScript dispatch.",
			zap.String("selector", candidate.Selector), zap.Error(err))
	}

	// Fallback: locate by visible text in page context and dispatch the
	// click there.
	if jsErr := s.clickByScript(opCtx, target); jsErr == nil {
		s.settle(opCtx)
		s.updateState(opCtx)
		return nil
	}

	if err != nil && autoerr.KindOf(err) != autoerr.KindElementNotFound {
		return autoerr.Automation(err, "failed to click on %q", target)
	}
	return autoerr.ElementNotFound(target)
}

// clickByScript dispatches a click on the first clickable element whose
// visible text contains the target description.
func (s *Session) clickByScript(ctx context.Context, target string) error {
	script := fmt.Sprintf(`(() => {
		const needle = %q.trim().toLowerCase();
		const nodes = document.querySelectorAll(
			'a, button, input[type="submit"], input[type="button"], [role="button"], [onclick]');
		for (const el of nodes) {
			const text = ((el.innerText || el.value || '') + '').trim().toLowerCase();
			if (text && (text === needle || text.includes(needle))) {
				el.scrollIntoView({block: 'center'});
				el.click();
				return true;
			}
		}
		return false;
	})()`, target)

	jsCtx, cancel := context.WithTimeout(ctx, s.cfg.Network.ElementTimeout)
	defer cancel()

	var clicked bool
	if err := chromedp.Run(jsCtx, chromedp.Evaluate(script, &clicked)); err != nil {
		return autoerr.Automation(err, "script click failed for %q", target)
	}
	if !clicked {
		return autoerr.ElementNotFound(target)
	}
	return nil
}

// Type focuses the field matching the description, clears it, and enters
// the text with a per-keystroke delay.
func (s *Session) Type(ctx context.Context, text, field string) error {
	s.logger.Debug("Typing", zap.String("field", field), zap.Int("text_length", len(text)))

	opCtx, opCancel := s.combineContext(ctx)
	defer opCancel()

	candidate, err := s.findTarget(opCtx, field)
	if err != nil {
		return err
	}

	// Budget grows with the text length at the configured typing delay.
	budget := s.cfg.Network.ElementTimeout + time.Duration(len(text))*s.cfg.Browser.TypingDelay*2
	typeCtx, cancel := context.WithTimeout(opCtx, budget)
	defer cancel()

	tasks := chromedp.Tasks{
		chromedp.ScrollIntoView(candidate.Selector, candidate.queryOption()),
		chromedp.Focus(candidate.Selector, candidate.queryOption()),
		chromedp.Clear(candidate.Selector, candidate.queryOption()),
	}
	for _, r := range text {
		tasks = append(tasks,
			chromedp.KeyEvent(string(r)),
			chromedp.Sleep(s.cfg.Browser.TypingDelay),
		)
	}
	if err := chromedp.Run(typeCtx, tasks); err != nil {
		return autoerr.Automation(err, "failed to type into field %q", field)
	}
	return nil
}

// submitSelectors are tried in order before falling back to the Enter key.
var submitSelectors = []targetCandidate{
	{Selector: `input[type='submit']`},
	{Selector: `button[type='submit']`},
	{Selector: `//button[contains(., 'Submit')]`, XPath: true},
	{Selector: `//button[contains(., 'Login')]`, XPath: true},
	{Selector: `//button[contains(., 'Sign in')]`, XPath: true},
	{Selector: `//button[contains(., 'Search')]`, XPath: true},
	{Selector: `//button[contains(., 'Send')]`, XPath: true},
}

// Submit triggers form submission: first via a submit control, then by
// pressing Enter on the focused element.
func (s *Session) Submit(ctx context.Context) error {
	s.logger.Debug("Submitting form")

	opCtx, opCancel := s.combineContext(ctx)
	defer opCancel()

	for _, candidate := range submitSelectors {
		tryCtx, cancel := context.WithTimeout(opCtx, s.cfg.Network.CandidateTimeout)
		err := chromedp.Run(tryCtx, chromedp.Tasks{
			chromedp.WaitVisible(candidate.Selector, candidate.queryOption()),
			chromedp.Click(candidate.Selector, candidate.queryOption()),
		})
		cancel()
		if err == nil {
			s.settle(opCtx)
			s.updateState(opCtx)
			return nil
		}
		if opCtx.Err() != nil {
			return autoerr.Automation(opCtx.Err(), "form submission canceled")
		}
	}

	// No submit control found; dispatch Enter to whatever has focus.
	enterCtx, cancel := context.WithTimeout(opCtx, s.cfg.Network.CandidateTimeout)
	defer cancel()
	if err := chromedp.Run(enterCtx, chromedp.KeyEvent(kb.Enter)); err != nil {
		return autoerr.Automation(err, "failed to submit form")
	}
	s.settle(opCtx)
	s.updateState(opCtx)
	return nil
}

// Wait blocks for the duration or until the context is done.
func (s *Session) Wait(ctx context.Context, d time.Duration) error {
	opCtx, opCancel := s.combineContext(ctx)
	defer opCancel()

	select {
	case <-time.After(d):
		return nil
	case <-opCtx.Done():
		return autoerr.Automation(opCtx.Err(), "wait interrupted")
	}
}

// WaitFor blocks until an element matching the description becomes visible,
// bounded by the element-wait timeout.
func (s *Session) WaitFor(ctx context.Context, element string) error {
	s.logger.Debug("Waiting for element", zap.String("element", element))

	opCtx, opCancel := s.combineContext(ctx)
	defer opCancel()

	if _, err := s.findTarget(opCtx, element); err != nil {
		return err
	}
	return nil
}

// Screenshot captures the page to a PNG artifact and returns its path.
func (s *Session) Screenshot(ctx context.Context, label string) (string, error) {
	opCtx, opCancel := s.combineContext(ctx)
	defer opCancel()
	return s.shots.Capture(opCtx, label)
}

// -- State tracking --

// updateState refreshes the tracked URL and title from the live page.
func (s *Session) updateState(ctx context.Context) (url, title string) {
	readCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := chromedp.Run(readCtx,
		chromedp.Location(&url),
		chromedp.Title(&title),
	); err != nil {
		s.logger.Warn("Failed to read page state.", zap.Error(err))
		return "", ""
	}

	s.mu.Lock()
	s.currentURL = url
	s.title = title
	s.mu.Unlock()

	s.logger.Debug("Session state updated",
		zap.String("url", url), zap.String("title", title))
	return url, title
}

// settle applies the post-load quiet period after state-changing actions.
func (s *Session) settle(ctx context.Context) {
	if s.cfg.Network.PostLoadWait <= 0 {
		return
	}
	select {
	case <-time.After(s.cfg.Network.PostLoadWait):
	case <-ctx.Done():
	}
}

// findTarget walks the selector-strategy ladder for a target description,
// returning the first candidate with a visible match.
func (s *Session) findTarget(ctx context.Context, target string) (targetCandidate, error) {
	ladderCtx, cancel := context.WithTimeout(ctx, s.cfg.Network.ElementTimeout)
	defer cancel()

	for _, candidate := range targetCandidates(target) {
		tryCtx, tryCancel := context.WithTimeout(ladderCtx, s.cfg.Network.CandidateTimeout)
		err := chromedp.Run(tryCtx, chromedp.WaitVisible(candidate.Selector, candidate.queryOption()))
		tryCancel()
		if err == nil {
			return candidate, nil
		}
		if ladderCtx.Err() != nil {
			break
		}
	}
	return targetCandidate{}, autoerr.ElementNotFound(target)
}

// combineContext derives an operation context from the session lifecycle
// that is also canceled when the caller's context is done.
func (s *Session) combineContext(ctx context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(s.ctx)
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-combined.Done():
		}
	}()
	return combined, cancel
}

// sanitizeTarget strips characters that would break selector quoting.
func sanitizeTarget(target string) string {
	return strings.NewReplacer(`'`, ``, `"`, ``, "`", ``).Replace(strings.TrimSpace(target))
}
