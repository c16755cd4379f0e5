// Package browser adapts a Chrome tab driven over the DevTools protocol to
// the surface the collectors work on.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"engage/pkg/config"
	errs "engage/pkg/errors"
	"engage/pkg/extract"
	"engage/pkg/identity"
	"engage/pkg/logger"
)

// Session owns the browser connection.
type Session struct {
	cfg      config.BrowserConfig
	browser  *rod.Browser
	launched *launcher.Launcher
	logger   logger.Logger
}

// Connect attaches to the browser at cfg.DebuggerURL, or launches one when
// no debugger URL is configured. Attaching reuses the signed-in profile of
// the running browser.
func Connect(ctx context.Context, cfg config.BrowserConfig, log logger.Logger) (*Session, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	s := &Session{cfg: cfg, logger: log}

	controlURL := cfg.DebuggerURL
	if controlURL != "" {
		resolved, err := launcher.ResolveURL(controlURL)
		if err != nil {
			return nil, errs.Wrap(errs.ErrorTypeNetwork, "resolve debugger url", err)
		}
		controlURL = resolved
	} else {
		l := launcher.New().Headless(cfg.Headless)
		if cfg.Binary != "" {
			l = l.Bin(cfg.Binary)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		s.launched = l
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		s.cleanup()
		return nil, errs.Wrap(errs.ErrorTypeNetwork, "connect to chrome", err)
	}
	s.browser = browser

	log.InfoWithFields("Browser connected", map[string]interface{}{
		"launched": s.launched != nil,
		"headless": cfg.Headless,
	})
	return s, nil
}

// Open navigates a new tab to postURL and waits for it to load and settle.
func (s *Session) Open(ctx context.Context, postURL string) (*Page, error) {
	page, err := s.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: postURL})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	timeout := s.cfg.NavigationTimeout.Std()
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if err := page.Context(ctx).Timeout(timeout).WaitLoad(); err != nil {
		_ = page.Close()
		return nil, errs.Wrap(errs.ErrorTypeTimeout, "wait for post to load", err)
	}

	s.logger.DebugWithFields("Post loaded", map[string]interface{}{
		"url": postURL,
	})
	return newPage(page, postURL, s.logger)
}

// Close disconnects, and stops the browser when it was launched here.
func (s *Session) Close() error {
	var err error
	if s.browser != nil && s.launched != nil {
		err = s.browser.Close()
	}
	s.cleanup()
	return err
}

func (s *Session) cleanup() {
	if s.launched != nil {
		s.launched.Kill()
		s.launched = nil
	}
}

// newPage wraps a loaded tab.
func newPage(page *rod.Page, postURL string, log logger.Logger) (*Page, error) {
	p := &Page{
		page:   page,
		source: postURL,
		logger: log,
		panels: make(map[identity.Category]*Panel),
	}
	for _, def := range linkedInPanels() {
		ex, err := extract.New(def.rules)
		if err != nil {
			return nil, fmt.Errorf("%s rules: %w", def.cat, err)
		}
		p.panels[def.cat] = &Panel{page: p, def: def, extractor: ex}
	}
	return p, nil
}
