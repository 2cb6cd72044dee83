// Package gmail drives the Gmail web UI to compose and send messages from
// an operator's logged-in browser session.
package gmail

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp/kb"
	"github.com/rotisserie/eris"

	"realty-automation/browser"
	"realty-automation/config"
	"realty-automation/models"
	"realty-automation/utils"
)

// SessionStore persists the browser's authenticated state.
type SessionStore interface {
	Load(ctx context.Context) (bool, error)
	Save(ctx context.Context) error
}

// Timings are the fixed pauses between compose steps.
type Timings struct {
	InboxSettle  time.Duration
	ComposeOpen  time.Duration
	FieldSettle  time.Duration
	BeforeSend   time.Duration
	AfterSend    time.Duration
	LoginRecheck time.Duration
	ComposeWait  time.Duration
	InitialProbe time.Duration
}

// DefaultTimings mirrors the pacing of a human operator.
var DefaultTimings = Timings{
	InboxSettle:  5 * time.Second,
	ComposeOpen:  3 * time.Second,
	FieldSettle:  time.Second,
	BeforeSend:   2 * time.Second,
	AfterSend:    3 * time.Second,
	LoginRecheck: 3 * time.Second,
	ComposeWait:  10 * time.Second,
	InitialProbe: 3 * time.Second,
}

// Client sends mail through the Gmail compose window.
type Client struct {
	page     browser.Page
	session  SessionStore
	prompter utils.Prompter
	logger   *utils.Logger

	inboxURL      string
	probeTimeout  time.Duration
	loginAttempts int
	timings       Timings

	// compose is the probe that last located the Compose button.
	compose *browser.Probe
}

// New returns a Client bound to page.
func New(page browser.Page, session SessionStore, prompter utils.Prompter, cfg config.OutreachConfig, logger *utils.Logger) *Client {
	attempts := cfg.LoginAttempts
	if attempts <= 0 {
		attempts = 3
	}
	return &Client{
		page:          page,
		session:       session,
		prompter:      prompter,
		logger:        logger,
		inboxURL:      cfg.InboxURL,
		probeTimeout:  cfg.ProbeTimeout(),
		loginAttempts: attempts,
		timings:       DefaultTimings,
	}
}

// WithTimings overrides the step pauses.
func (c *Client) WithTimings(t Timings) *Client {
	c.timings = t
	return c
}

// Load restores a previously saved session. A missing or unreadable
// session only costs a manual login, so failures are logged and reported
// as false.
func (c *Client) Load(ctx context.Context) bool {
	ok, err := c.session.Load(ctx)
	if err != nil {
		c.logger.Warn("[gmail] Could not load session: %v", err)
		return false
	}
	if ok {
		c.logger.Info("[gmail] Previous session loaded")
	}
	return ok
}

// Save persists the current session.
func (c *Client) Save(ctx context.Context) error {
	if err := c.session.Save(ctx); err != nil {
		return eris.Wrap(err, "gmail: save session")
	}
	c.logger.Info("[gmail] Session saved")
	return nil
}

// InteractiveLogin opens the inbox and checks for the Compose button. When
// it is missing the operator is asked to log in by hand, after which the
// button is probed again a bounded number of times.
func (c *Client) InteractiveLogin(ctx context.Context) bool {
	c.logger.Info("[gmail] Opening Gmail...")
	if err := c.page.Navigate(ctx, c.inboxURL); err != nil {
		c.logger.Error("[gmail] %v", err)
		return false
	}
	if err := c.page.Sleep(ctx, c.timings.InboxSettle); err != nil {
		return false
	}

	if res := composeChain.WithTimeout(c.timings.InitialProbe).Find(ctx, c.page); res.Found {
		c.logger.Info("[gmail] Already logged in, found compose button: %s", res.Probe.Name)
		c.remember(res.Probe)
		return true
	}

	c.logger.Warn("[gmail] Manual login required: log in to Gmail in the browser window, including any 2FA")
	if err := c.prompter.Confirm("MANUAL LOGIN REQUIRED\nAfter logging in successfully"); err != nil {
		c.logger.Error("[gmail] Prompt failed: %v", err)
		return false
	}

	for attempt := 1; attempt <= c.loginAttempts; attempt++ {
		c.logger.Info("[gmail] Checking login, attempt %d/%d", attempt, c.loginAttempts)
		if res := composeChain.WithTimeout(c.probeTimeout).Find(ctx, c.page); res.Found {
			c.logger.Info("[gmail] Login successful, found compose button: %s", res.Probe.Name)
			c.remember(res.Probe)
			if err := c.Save(ctx); err != nil {
				c.logger.Warn("[gmail] %v", err)
			}
			return true
		}
		if attempt < c.loginAttempts {
			c.logger.Info("[gmail] Compose button not found, waiting a bit more...")
			if err := c.page.Sleep(ctx, c.timings.LoginRecheck); err != nil {
				return false
			}
		}
	}

	c.logger.Error("[gmail] Could not detect a successful login; make sure the inbox is fully loaded and Compose is visible")
	return false
}

func (c *Client) remember(p browser.Probe) {
	c.compose = &p
}

// Send composes and sends one message. Any step failure closes the draft
// with Escape and returns an error wrapping browser.ErrNotFound.
func (c *Client) Send(ctx context.Context, email models.Email) error {
	if c.compose == nil {
		return eris.Wrap(browser.ErrNotFound, "gmail: no compose button located, log in first")
	}

	if err := c.composeAndSend(ctx, email); err != nil {
		if perr := c.page.Press(ctx, kb.Escape); perr == nil {
			_ = c.page.Sleep(ctx, c.timings.FieldSettle)
		}
		return err
	}
	return nil
}

func (c *Client) composeAndSend(ctx context.Context, email models.Email) error {
	if err := c.page.WaitVisible(ctx, c.compose.Selector, c.timings.ComposeWait); err != nil {
		return eris.Wrapf(browser.ErrNotFound, "gmail: compose button %s: %v", c.compose.Name, err)
	}
	if err := c.page.Click(ctx, c.compose.Selector); err != nil {
		return eris.Wrapf(browser.ErrNotFound, "gmail: click compose: %v", err)
	}
	if err := c.page.Sleep(ctx, c.timings.ComposeOpen); err != nil {
		return err
	}

	to := strings.Join(email.To, ", ")
	if _, err := toChain.WithTimeout(c.probeTimeout).Do(ctx, c.page, func(p browser.Probe) error {
		if err := c.page.Fill(ctx, p.Selector, to); err != nil {
			return err
		}
		if err := c.page.Press(ctx, kb.Tab); err != nil {
			return err
		}
		return c.page.Sleep(ctx, c.timings.FieldSettle)
	}); err != nil {
		return eris.Wrap(err, "gmail: to field")
	}
	c.logger.Debug("[gmail] Added TO recipients: %s", to)

	if len(email.Cc) > 0 {
		if err := c.addCc(ctx, email.Cc); err != nil {
			c.logger.Warn("[gmail] Could not add CC recipients (continuing without CC): %v", err)
		}
	}

	if _, err := subjectChain.WithTimeout(c.probeTimeout).Do(ctx, c.page, func(p browser.Probe) error {
		return c.page.Fill(ctx, p.Selector, email.Subject)
	}); err != nil {
		return eris.Wrap(err, "gmail: subject field")
	}

	if _, err := bodyChain.WithTimeout(c.probeTimeout).Do(ctx, c.page, func(p browser.Probe) error {
		if err := c.page.Click(ctx, p.Selector); err != nil {
			return err
		}
		return c.page.Fill(ctx, p.Selector, email.Body)
	}); err != nil {
		return eris.Wrap(err, "gmail: body field")
	}

	if err := c.page.Sleep(ctx, c.timings.BeforeSend); err != nil {
		return err
	}

	if _, err := sendChain.WithTimeout(c.probeTimeout).Do(ctx, c.page, func(p browser.Probe) error {
		return c.page.Click(ctx, p.Selector)
	}); err != nil {
		c.logger.Info("[gmail] Send button not found, trying Ctrl+Enter")
		if err := c.page.Press(ctx, kb.Enter, input.ModifierCtrl); err != nil {
			return eris.Wrap(err, "gmail: send shortcut")
		}
	}

	return c.page.Sleep(ctx, c.timings.AfterSend)
}

func (c *Client) addCc(ctx context.Context, cc []string) error {
	value := strings.Join(cc, ", ")
	_, err := ccButtonChain.WithTimeout(c.probeTimeout).Do(ctx, c.page, func(p browser.Probe) error {
		if err := c.page.Click(ctx, p.Selector); err != nil {
			return err
		}
		if err := c.page.Sleep(ctx, c.timings.FieldSettle); err != nil {
			return err
		}
		_, err := ccInputChain.WithTimeout(c.probeTimeout).Do(ctx, c.page, func(in browser.Probe) error {
			if err := c.page.Fill(ctx, in.Selector, value); err != nil {
				return err
			}
			return c.page.Press(ctx, kb.Tab)
		})
		return err
	})
	return err
}
