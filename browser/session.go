package browser

import (
	"context"
	"os"
	"os/exec"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"

	"realty-automation/config"
	"realty-automation/utils"
)

// Session owns one Chrome process and the chromedp context driving its
// first tab. All browser actions of a pipeline run on Context() or a
// context derived from it.
type Session struct {
	logger *utils.Logger

	ctx         context.Context
	cancel      context.CancelFunc
	cancelAlloc context.CancelFunc
}

// NewSession launches Chrome with the configured flags and opens a tab.
func NewSession(parent context.Context, cfg config.BrowserConfig, logger *utils.Logger) (*Session, error) {
	chromeBin := cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[browser] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)

	// Suppress chromedp log noise
	ctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// An empty Run starts the browser and attaches the first tab.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		cancelAlloc()
		return nil, eris.Wrap(err, "browser: start chrome")
	}

	return &Session{
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		cancelAlloc: cancelAlloc,
	}, nil
}

// Context returns the tab context.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Alive reports whether the browser is still attached.
func (s *Session) Alive() bool {
	if s.ctx.Err() != nil {
		return false
	}
	c := chromedp.FromContext(s.ctx)
	return c != nil && c.Browser != nil
}

// Close tears the browser down. It never fails: a browser that is already
// gone is only logged.
func (s *Session) Close() {
	if !s.Alive() {
		s.logger.Info("[browser] Browser already disconnected")
		s.cancel()
		s.cancelAlloc()
		return
	}

	s.logger.Info("[browser] Closing browser...")
	if err := chromedp.Cancel(s.ctx); err != nil {
		s.logger.Warn("[browser] Browser close error (ignored): %v", err)
	}
	s.cancel()
	s.cancelAlloc()
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
