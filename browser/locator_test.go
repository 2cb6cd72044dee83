package browser_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty-automation/browser"
	"realty-automation/browser/browsertest"
)

var chain = browser.Chain{
	{Name: "primary", Selector: "#primary"},
	{Name: "secondary", Selector: "#secondary"},
	{Name: "fallback", Selector: "//div[text()='x']"},
}

func TestChain_FindFirstVisible(t *testing.T) {
	page := browsertest.New("#secondary", "//div[text()='x']")

	res := chain.Find(context.Background(), page)
	require.True(t, res.Found)
	assert.Equal(t, "secondary", res.Probe.Name)
}

func TestChain_FindNothing(t *testing.T) {
	res := chain.Find(context.Background(), browsertest.New())
	assert.False(t, res.Found)
	assert.Empty(t, res.Probe.Selector)
}

func TestChain_FindStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := chain.Find(ctx, browsertest.New("#primary"))
	assert.False(t, res.Found)
}

func TestChain_DoFallsThroughFailingAction(t *testing.T) {
	page := browsertest.New("#primary", "#secondary")
	page.FillErr["#primary"] = errors.New("not editable")

	p, err := chain.Do(context.Background(), page, func(p browser.Probe) error {
		return page.Fill(context.Background(), p.Selector, "hello")
	})
	require.NoError(t, err)
	assert.Equal(t, "secondary", p.Name)

	fills := page.Ops("fill")
	require.Len(t, fills, 2)
	assert.Equal(t, "#primary", fills[0].Selector)
	assert.Equal(t, "#secondary", fills[1].Selector)
}

func TestChain_DoReturnsNotFound(t *testing.T) {
	page := browsertest.New("#primary")
	page.ClickErr["#primary"] = errors.New("detached")

	_, err := chain.Do(context.Background(), page, func(p browser.Probe) error {
		return page.Click(context.Background(), p.Selector)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, browser.ErrNotFound))

	_, err = chain.Do(context.Background(), browsertest.New(), func(browser.Probe) error { return nil })
	assert.True(t, errors.Is(err, browser.ErrNotFound))
}

func TestChain_WithTimeout(t *testing.T) {
	c := chain.WithTimeout(3 * time.Second)
	for _, p := range c {
		assert.Equal(t, 3*time.Second, p.Timeout)
	}
	assert.Zero(t, chain[0].Timeout, "original chain untouched")
}
