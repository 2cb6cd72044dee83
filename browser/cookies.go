package browser

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
)

// CookieJar persists browser cookies to a JSON file so an authenticated
// session survives between runs.
type CookieJar struct {
	path string
}

// NewCookieJar returns a jar backed by path.
func NewCookieJar(path string) *CookieJar {
	return &CookieJar{path: path}
}

// Path returns the backing file.
func (j *CookieJar) Path() string {
	return j.path
}

// Save writes every cookie the browser holds.
func (j *CookieJar) Save(ctx context.Context) error {
	var cookies []*network.Cookie
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return eris.Wrap(err, "cookies: read from browser")
	}
	return j.write(cookies)
}

// Load installs the saved cookies into the browser. It reports false
// without error when no jar file exists yet.
func (j *CookieJar) Load(ctx context.Context) (bool, error) {
	cookies, err := j.read()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	params := CookieParams(cookies, time.Now())
	if len(params) == 0 {
		return false, nil
	}
	err = chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookies(params).Do(ctx)
	}))
	if err != nil {
		return false, eris.Wrap(err, "cookies: install into browser")
	}
	return true, nil
}

func (j *CookieJar) write(cookies []*network.Cookie) error {
	data, err := json.Marshal(cookies)
	if err != nil {
		return eris.Wrap(err, "cookies: marshal")
	}
	if dir := filepath.Dir(j.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "cookies: create directory")
		}
	}
	if err := os.WriteFile(j.path, data, 0o600); err != nil {
		return eris.Wrapf(err, "cookies: write %s", j.path)
	}
	return nil
}

func (j *CookieJar) read() ([]*network.Cookie, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		return nil, eris.Wrapf(err, "cookies: read %s", j.path)
	}
	var cookies []*network.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, eris.Wrapf(err, "cookies: decode %s", j.path)
	}
	return cookies, nil
}

// CookieParams converts stored cookies into SetCookies parameters, dropping
// cookies that expired before now. Session cookies (no expiry) are kept.
func CookieParams(cookies []*network.Cookie, now time.Time) []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}

		var expires *cdp.TimeSinceEpoch
		if c.Expires > 0 && !c.Session {
			sec, frac := math.Modf(c.Expires)
			at := time.Unix(int64(sec), int64(frac*float64(time.Second)))
			if !at.After(now) {
				continue
			}
			ts := cdp.TimeSinceEpoch(at)
			expires = &ts
		}

		params = append(params, &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: c.SameSite,
			Expires:  expires,
		})
	}
	return params
}
