// Package browser gives the agent a semantic view of the web: one
// shared headless Chromium tab, snapshots of the page as a numbered
// outline of interactive elements, and actions addressed by those
// numbers.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"spaceblack/internal/logging"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// userAgent avoids the trivial headless-Chrome blocks.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Config holds browser configuration.
type Config struct {
	Headless            bool
	ViewportWidth       int
	ViewportHeight      int
	NavigationTimeoutMs int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:            true,
		ViewportWidth:       1280,
		ViewportHeight:      900,
		NavigationTimeoutMs: 30000,
	}
}

// NavigationTimeout returns the navigation timeout.
func (c Config) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// Session owns the lazily launched browser and its single tab. All
// agent browsing flows through the one tab, mirroring what a human at
// the keyboard would see.
type Session struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	page    *rod.Page

	// snapshot state: ref number -> tagged element selector
	lastSnapshot *Snapshot
}

// NewSession creates a session. The browser is not launched until the
// first action needs it.
func NewSession(cfg Config) *Session {
	return &Session{cfg: cfg}
}

// ensureStartedLocked launches or revives the browser. Callers hold mu.
func (s *Session) ensureStartedLocked(ctx context.Context) error {
	if s.browser != nil {
		if _, err := s.browser.Version(); err == nil {
			return nil
		}
		logging.Browser("stale browser connection, relaunching")
		_ = s.browser.Close()
		s.browser = nil
		s.page = nil
		s.lastSnapshot = nil
	}

	url, err := launcher.New().Headless(s.cfg.Headless).Launch()
	if err != nil {
		return fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(url).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chromium: %w", err)
	}
	s.browser = browser
	logging.Browser("browser launched")
	return nil
}

// tab returns the shared page, creating it on first use.
func (s *Session) tab(ctx context.Context) (*rod.Page, error) {
	if err := s.ensureStartedLocked(ctx); err != nil {
		return nil, err
	}
	if s.page != nil {
		return s.page, nil
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create tab: %w", err)
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent}); err != nil {
		return nil, fmt.Errorf("set user agent: %w", err)
	}
	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             s.cfg.ViewportWidth,
		Height:            s.cfg.ViewportHeight,
		DeviceScaleFactor: 1.0,
	}).Call(page); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	s.page = page
	return page, nil
}

// IsOpen reports whether a browser is currently running.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.browser != nil
}

// Shutdown closes the tab and the browser.
func (s *Session) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	var err error
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
	}
	s.lastSnapshot = nil
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	logging.Browser("browser closed")
	return nil
}

// smartWait waits for the page to settle after navigation or an
// action that may trigger one: load event first, then a bounded
// network-quiet window.
func (s *Session) smartWait(page *rod.Page) {
	_ = page.Timeout(s.cfg.NavigationTimeout()).WaitLoad()
	wait := page.Timeout(5*time.Second).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)
	wait()
}

var errNoPage = errors.New("no page open; navigate somewhere first")

// currentPage returns the tab only if one already exists. Used by
// actions that make no sense before the first navigation.
func (s *Session) currentPage() (*rod.Page, error) {
	if s.page == nil {
		return nil, errNoPage
	}
	return s.page, nil
}
