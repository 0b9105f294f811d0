// Package browser drives a stealth-patched Chromium instance and layers
// the element resolution and navigation policies the scraper relies on.
package browser

import (
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"xscraper/pkg/config"
	errs "xscraper/pkg/errors"
	"xscraper/pkg/logger"
)

// Browser owns the Chromium process and the devtools connection.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      *config.BrowserConfig
	log      logger.Logger
}

// Launch starts Chromium with automation fingerprints suppressed and
// connects to it.
func Launch(cfg *config.BrowserConfig, log logger.Logger) (*Browser, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-web-security").
		Set("disable-features", "VizDisplayCompositor")
	if cfg.ChromePath != "" {
		l = l.Bin(cfg.ChromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNavigation, "failed to launch browser", err)
	}

	b := rod.New().ControlURL(controlURL)
	if cfg.SlowMotion > 0 {
		b = b.SlowMotion(cfg.SlowMotion)
	}
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, errs.Wrap(errs.ErrorTypeNavigation, "failed to connect to browser", err)
	}

	log.InfoWithFields("browser launched", map[string]interface{}{
		"headless": cfg.Headless,
	})

	return &Browser{browser: b, launcher: l, cfg: cfg, log: log}, nil
}

// NewPage opens a stealth page with the configured viewport, user agent
// and locale applied.
func (b *Browser) NewPage() (*Page, error) {
	page, err := stealth.Page(b.browser)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNavigation, "failed to open stealth page", err)
	}

	p := &Page{page: page, log: b.log}
	if err := p.configure(b.cfg); err != nil {
		return nil, err
	}
	return p, nil
}

// Close shuts the browser down and cleans up the launched process.
func (b *Browser) Close() error {
	err := b.browser.Close()
	b.launcher.Cleanup()
	return err
}
