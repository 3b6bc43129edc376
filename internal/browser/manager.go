// Package browser drives a single live Chrome instance over the DevTools
// protocol. The Manager owns the browser process; the Session wraps the one
// tab the service operates on.
package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/webpilot-dev/webpilot/internal/autoerr"
	"github.com/webpilot-dev/webpilot/internal/config"
)

// Manager handles the lifecycle of the headless browser process and the
// single session derived from it.
type Manager struct {
	logger *zap.Logger
	cfg    *config.Config

	// allocatorCtx manages the browser process. The session context is
	// derived from it.
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc

	mu      sync.Mutex
	session *Session
}

// NewManager launches the browser process and verifies it is responsive.
func NewManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Manager, error) {
	m := &Manager{
		logger: logger.Named("browser_manager"),
		cfg:    cfg,
	}
	if err := m.launchBrowser(ctx); err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return m, nil
}

// launchBrowser prepares allocator options and starts the browser process.
func (m *Manager) launchBrowser(ctx context.Context) error {
	m.logger.Info("Initializing browser allocator...")

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, m.buildAllocatorOptions()...)
	m.allocatorCtx = allocCtx
	m.allocatorCancel = cancel

	// Confirm the browser starts and responds before accepting work.
	testCtx, cancelTest := context.WithTimeout(allocCtx, 30*time.Second)
	defer cancelTest()
	probeCtx, cancelProbe := chromedp.NewContext(testCtx)
	defer cancelProbe()

	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		m.allocatorCancel()
		return fmt.Errorf("browser failed to start or respond: %w", err)
	}

	m.logger.Info("Browser launched successfully and is responsive.")
	return nil
}

// buildAllocatorOptions assembles the flags for the browser instance.
func (m *Manager) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	// Start from the defaults. Later flags override earlier ones, and a
	// false bool flag is omitted from the command line, which drops the
	// default flag that advertises automation.
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	opts = append(opts,
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("headless", m.cfg.Browser.Headless),
		chromedp.Flag("ignore-certificate-errors", m.cfg.Browser.IgnoreTLSErrors),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", m.cfg.Browser.Headless),
		chromedp.WindowSize(m.cfg.Browser.WindowWidth, m.cfg.Browser.WindowHeight),
		chromedp.UserAgent(m.cfg.Browser.UserAgent),
	)

	// Custom arguments from the config file, "--name=value" or "--name".
	for _, arg := range m.cfg.Browser.Args {
		parts := strings.SplitN(arg, "=", 2)
		flagName := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(flagName, parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(flagName, true))
		}
	}

	// Flags required when running inside containers.
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}

	return opts
}

// Session returns the live session, creating the tab on first use.
func (m *Manager) Session(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		return m.session, nil
	}
	if m.allocatorCtx == nil {
		return nil, autoerr.BrowserNotReady(nil)
	}

	session, err := newSession(m.allocatorCtx, m.cfg, m.logger)
	if err != nil {
		return nil, err
	}
	m.session = session
	return session, nil
}

// Status reports the live session snapshot. The second return is false
// when no session has been created yet; status queries must not spin up a
// browser tab as a side effect.
func (m *Manager) Status() (Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Status{}, false
	}
	return m.session.Snapshot(), true
}

// Reset tears down the current tab and creates a fresh one. The browser
// process itself keeps running.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		m.session.Close()
		m.session = nil
	}
	if m.allocatorCtx == nil {
		return autoerr.BrowserNotReady(nil)
	}

	session, err := newSession(m.allocatorCtx, m.cfg, m.logger)
	if err != nil {
		return err
	}
	m.session = session
	m.logger.Info("Browser session reset.")
	return nil
}

// Shutdown closes the session and terminates the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		m.session.Close()
		m.session = nil
	}
	if m.allocatorCancel != nil {
		m.logger.Info("Shutting down browser process...")
		m.allocatorCancel()
		select {
		case <-m.allocatorCtx.Done():
		case <-ctx.Done():
			m.logger.Warn("Shutdown deadline exceeded while waiting for browser termination.",
				zap.Error(ctx.Err()))
		}
		m.allocatorCancel = nil
	}
	return nil
}
