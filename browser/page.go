package browser

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
)

// Page is the small set of browser operations the pipelines need.
// Selectors are CSS or XPath; the chromedp implementation resolves both
// through DOM search. Contexts must derive from Session.Context().
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, sel string, timeout time.Duration) error
	Click(ctx context.Context, sel string) error
	Fill(ctx context.Context, sel, value string) error
	Press(ctx context.Context, key string, mods ...input.Modifier) error
	Sleep(ctx context.Context, d time.Duration) error
	Back(ctx context.Context) error
	// HTML returns the outer HTML of the first element matching a CSS selector.
	HTML(ctx context.Context, sel string) (string, error)
	Exists(ctx context.Context, sel string) (bool, error)
	Eval(ctx context.Context, js string, out interface{}) error
}

// ChromePage implements Page on top of chromedp.
type ChromePage struct {
	// StepTimeout bounds every action that waits on the DOM.
	StepTimeout time.Duration
}

// NewPage returns a chromedp-backed Page.
func NewPage(stepTimeout time.Duration) *ChromePage {
	if stepTimeout <= 0 {
		stepTimeout = 60 * time.Second
	}
	return &ChromePage{StepTimeout: stepTimeout}
}

func (p *ChromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if timeout <= 0 {
		timeout = p.StepTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

func (p *ChromePage) Navigate(ctx context.Context, url string) error {
	return eris.Wrapf(p.run(ctx, 0, chromedp.Navigate(url)), "browser: navigate %s", url)
}

func (p *ChromePage) WaitVisible(ctx context.Context, sel string, timeout time.Duration) error {
	return p.run(ctx, timeout, chromedp.WaitVisible(sel, chromedp.BySearch))
}

func (p *ChromePage) Click(ctx context.Context, sel string) error {
	return p.run(ctx, 0, chromedp.Click(sel, chromedp.BySearch, chromedp.NodeVisible))
}

// Fill focuses the element and types value into it. Works for inputs and
// contenteditable regions alike.
func (p *ChromePage) Fill(ctx context.Context, sel, value string) error {
	return p.run(ctx, 0,
		chromedp.Focus(sel, chromedp.BySearch),
		chromedp.SendKeys(sel, value, chromedp.BySearch),
	)
}

func (p *ChromePage) Press(ctx context.Context, key string, mods ...input.Modifier) error {
	return p.run(ctx, 0, chromedp.KeyEvent(key, chromedp.KeyModifiers(mods...)))
}

func (p *ChromePage) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (p *ChromePage) Back(ctx context.Context) error {
	return eris.Wrap(p.run(ctx, 0, chromedp.NavigateBack()), "browser: navigate back")
}

func (p *ChromePage) HTML(ctx context.Context, sel string) (string, error) {
	var html string
	if err := p.run(ctx, 0, chromedp.OuterHTML(sel, &html, chromedp.ByQuery)); err != nil {
		return "", eris.Wrapf(err, "browser: outer html of %s", sel)
	}
	return html, nil
}

func (p *ChromePage) Exists(ctx context.Context, sel string) (bool, error) {
	var nodes []*cdp.Node
	if err := p.run(ctx, 0, chromedp.Nodes(sel, &nodes, chromedp.BySearch, chromedp.AtLeast(0))); err != nil {
		return false, eris.Wrapf(err, "browser: query %s", sel)
	}
	return len(nodes) > 0, nil
}

func (p *ChromePage) Eval(ctx context.Context, js string, out interface{}) error {
	return eris.Wrap(p.run(ctx, 0, chromedp.Evaluate(js, out)), "browser: evaluate script")
}
