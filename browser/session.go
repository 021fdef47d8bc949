// Package browser owns the Playwright session: driver install, browser
// launch, page creation, and the adapter that exposes the page through the
// dom capability interfaces.
package browser

import (
	"fmt"
	"time"

	pw "github.com/playwright-community/playwright-go"

	"vizactor/dom"
	"vizactor/engine"
)

// stealthScript masks the automation fingerprint and disables WebGL, which
// the target app probes in ways that break headless Firefox.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', {get: () => false});
Object.defineProperty(window, 'WebGLRenderingContext', {get: () => null});
Object.defineProperty(window, 'WebGL2RenderingContext', {get: () => null});
`

const firefoxUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0"

// Options configures a browser session.
type Options struct {
	Headless bool
	// SkipInstall skips the one-time Playwright driver/browser download,
	// for environments where it is baked into the image.
	SkipInstall bool
	// ActionTimeout bounds individual element interactions.
	ActionTimeout time.Duration
}

// Session is the exclusively-owned browser page for one workflow run.
type Session struct {
	pw      *pw.Playwright
	browser pw.Browser
	context pw.BrowserContext
	page    pw.Page
	log     engine.Logger
}

// Launch installs the driver if needed, starts Firefox, and opens a single
// page configured the way the target app tolerates best.
func Launch(opts Options, logger engine.Logger) (*Session, error) {
	if logger == nil {
		logger = &engine.SimpleLogger{}
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 5 * time.Second
	}

	if !opts.SkipInstall {
		logger.Printf("🔧 Installing Playwright Firefox (one-time setup)...")
		if err := pw.Install(&pw.RunOptions{Browsers: []string{"firefox"}}); err != nil {
			logger.Printf("⚠️  Playwright installation warning: %v (continuing anyway)", err)
		}
	}

	instance, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start Playwright: %w", err)
	}

	browser, err := instance.Firefox.Launch(pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(opts.Headless),
		Args:     []string{"--start-maximized", "--disable-dev-shm-usage"},
	})
	if err != nil {
		instance.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	context, err := browser.NewContext(pw.BrowserNewContextOptions{
		Viewport:          &pw.Size{Width: 1280, Height: 800},
		UserAgent:         pw.String(firefoxUserAgent),
		IgnoreHttpsErrors: pw.Bool(true),
		AcceptDownloads:   pw.Bool(true),
	})
	if err != nil {
		browser.Close()
		instance.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	if err := context.AddInitScript(pw.Script{Content: pw.String(stealthScript)}); err != nil {
		logger.Printf("⚠️  Failed to add init script: %v", err)
	}

	page, err := context.NewPage()
	if err != nil {
		browser.Close()
		instance.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(opts.ActionTimeout.Milliseconds()))

	page.OnConsole(func(msg pw.ConsoleMessage) {
		logger.Printf("BROWSER CONSOLE: %s", msg.Text())
	})
	page.OnPageError(func(err error) {
		logger.Errorf("BROWSER ERROR: %v", err)
	})

	logger.Printf("✅ Browser session ready (headless=%v)", opts.Headless)
	return &Session{pw: instance, browser: browser, context: context, page: page, log: logger}, nil
}

// Page exposes the session's single page through the dom capability surface.
func (s *Session) Page() dom.Page {
	return NewPage(s.page)
}

// Goto navigates the page and waits for the DOM to be parsed. The target app
// renders almost everything client-side, so full load states are not waited
// for here.
func (s *Session) Goto(url string) error {
	s.log.Printf("📄 Navigating to %s...", url)
	resp, err := s.page.Goto(url, pw.PageGotoOptions{
		Timeout:   pw.Float(60000),
		WaitUntil: pw.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return dom.ClassifyDriverError("goto", err)
	}
	if resp != nil {
		s.log.Printf("✅ Page loaded with status %d", resp.Status())
	}
	return nil
}

// Close tears the whole session down.
func (s *Session) Close() {
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.context != nil {
		_ = s.context.Close()
	}
	if s.browser != nil {
		_ = s.browser.Close()
	}
	if s.pw != nil {
		_ = s.pw.Stop()
	}
	s.log.Printf("Browser closed")
}
