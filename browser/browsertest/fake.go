// Package browsertest provides an in-memory browser.Page for tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/rotisserie/eris"
)

// Call records one operation performed against a FakePage.
type Call struct {
	Op       string
	Selector string
	Value    string
}

func (c Call) String() string {
	return fmt.Sprintf("%s(%s,%s)", c.Op, c.Selector, c.Value)
}

// FakePage is a scriptable browser.Page. Selectors listed in Visible
// resolve; everything else times out immediately.
type FakePage struct {
	mu sync.Mutex

	Visible  map[string]bool
	ClickErr map[string]error
	FillErr  map[string]error
	HTMLs    map[string]string
	// OnClick hooks run after a successful click on the selector.
	OnClick map[string]func(p *FakePage)
	OnBack  func(p *FakePage)
	EvalFn  func(js string, out interface{}) error

	Calls []Call
}

// New returns a FakePage with the given selectors visible.
func New(visible ...string) *FakePage {
	p := &FakePage{
		Visible:  map[string]bool{},
		ClickErr: map[string]error{},
		FillErr:  map[string]error{},
		HTMLs:    map[string]string{},
		OnClick:  map[string]func(p *FakePage){},
	}
	for _, sel := range visible {
		p.Visible[sel] = true
	}
	return p
}

// Show marks selectors visible.
func (p *FakePage) Show(sels ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range sels {
		p.Visible[s] = true
	}
}

// Hide marks selectors invisible.
func (p *FakePage) Hide(sels ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range sels {
		delete(p.Visible, s)
	}
}

// Ops returns the recorded calls filtered by operation name.
func (p *FakePage) Ops(op string) []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Call
	for _, c := range p.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (p *FakePage) record(op, sel, value string) {
	p.mu.Lock()
	p.Calls = append(p.Calls, Call{Op: op, Selector: sel, Value: value})
	p.mu.Unlock()
}

func (p *FakePage) visible(sel string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Visible[sel]
}

func (p *FakePage) Navigate(ctx context.Context, url string) error {
	p.record("navigate", "", url)
	return ctx.Err()
}

func (p *FakePage) WaitVisible(ctx context.Context, sel string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.visible(sel) {
		return context.DeadlineExceeded
	}
	return nil
}

func (p *FakePage) Click(ctx context.Context, sel string) error {
	p.record("click", sel, "")
	if !p.visible(sel) {
		return context.DeadlineExceeded
	}
	p.mu.Lock()
	err := p.ClickErr[sel]
	hook := p.OnClick[sel]
	p.mu.Unlock()
	if err != nil {
		return err
	}
	if hook != nil {
		hook(p)
	}
	return ctx.Err()
}

func (p *FakePage) Fill(ctx context.Context, sel, value string) error {
	p.record("fill", sel, value)
	if !p.visible(sel) {
		return context.DeadlineExceeded
	}
	p.mu.Lock()
	err := p.FillErr[sel]
	p.mu.Unlock()
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (p *FakePage) Press(ctx context.Context, key string, mods ...input.Modifier) error {
	value := key
	if len(mods) > 0 {
		value = fmt.Sprintf("%s+%d", key, mods[0])
	}
	p.record("press", "", value)
	return ctx.Err()
}

func (p *FakePage) Sleep(ctx context.Context, d time.Duration) error {
	p.record("sleep", "", d.String())
	return ctx.Err()
}

func (p *FakePage) Back(ctx context.Context) error {
	p.record("back", "", "")
	p.mu.Lock()
	hook := p.OnBack
	p.mu.Unlock()
	if hook != nil {
		hook(p)
	}
	return ctx.Err()
}

func (p *FakePage) HTML(ctx context.Context, sel string) (string, error) {
	p.mu.Lock()
	html, ok := p.HTMLs[sel]
	p.mu.Unlock()
	if !ok {
		return "", eris.Errorf("browsertest: no html for %s", sel)
	}
	return html, ctx.Err()
}

func (p *FakePage) Exists(ctx context.Context, sel string) (bool, error) {
	return p.visible(sel), ctx.Err()
}

func (p *FakePage) Eval(ctx context.Context, js string, out interface{}) error {
	p.record("eval", "", js)
	p.mu.Lock()
	fn := p.EvalFn
	p.mu.Unlock()
	if fn != nil {
		return fn(js, out)
	}
	return ctx.Err()
}
