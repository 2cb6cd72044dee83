package rera

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty-automation/browser"
	"realty-automation/browser/browsertest"
	"realty-automation/config"
	"realty-automation/models"
	"realty-automation/utils"
)

func testMonitorConfig() config.MonitorConfig {
	return config.MonitorConfig{
		PortalURL:       "https://portal.example/viewAllProjects",
		District:        "Bengaluru Urban",
		WaitTimeoutSecs: 1,
		SettleMs:        10,
		DetailSettleMs:  10,
		BackSettleMs:    10,
	}
}

// boolEval answers every script with the given boolean.
func boolEval(v bool) func(string, interface{}) error {
	return func(_ string, out interface{}) error {
		if b, ok := out.(*bool); ok {
			*b = v
		}
		return nil
	}
}

func TestChromePortal_ApplyFilters(t *testing.T) {
	page := browsertest.New(selDistrict, selSearch, selStatusHeader, selApprovedOn)
	page.EvalFn = boolEval(true)
	page.OnClick[selSearch] = func(p *browsertest.FakePage) { p.Show(selTable) }

	portal := NewChromePortal(page, testMonitorConfig(), utils.NewNopLogger())
	require.NoError(t, portal.ApplyFilters(context.Background()))

	evals := page.Ops("eval")
	require.Len(t, evals, 1)
	assert.Contains(t, evals[0].Value, `"Bengaluru Urban"`)

	var clicked []string
	for _, c := range page.Ops("click") {
		clicked = append(clicked, c.Selector)
	}
	assert.Equal(t, []string{selSearch, selStatusHeader, selApprovedOn, selApprovedOn}, clicked)

	state, err := portal.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateListing, state)
}

func TestChromePortal_ApplyFiltersWithoutTable(t *testing.T) {
	page := browsertest.New(selDistrict, selSearch)
	page.EvalFn = boolEval(true)

	err := NewChromePortal(page, testMonitorConfig(), utils.NewNopLogger()).ApplyFilters(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, browser.ErrNotFound))
}

func TestChromePortal_State(t *testing.T) {
	page := browsertest.New()
	portal := NewChromePortal(page, testMonitorConfig(), utils.NewNopLogger())
	ctx := context.Background()

	state, _ := portal.State(ctx)
	assert.Equal(t, StateSearching, state)

	page.Show(selDetailsTab)
	state, _ = portal.State(ctx)
	assert.Equal(t, StateDetail, state)

	page.Show(selTable)
	state, _ = portal.State(ctx)
	assert.Equal(t, StateListing, state)
}

func TestChromePortal_RowsAndDetail(t *testing.T) {
	page := browsertest.New(selDetailsTab)
	page.HTMLs[selTable] = listingHTML
	page.HTMLs["body"] = detailHTML
	page.EvalFn = boolEval(true)
	portal := NewChromePortal(page, testMonitorConfig(), utils.NewNopLogger())
	ctx := context.Background()

	rows, err := portal.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, portal.OpenDetail(ctx, rows[1]))
	evals := page.Ops("eval")
	require.Len(t, evals, 2)
	assert.True(t, strings.HasSuffix(evals[0].Value, "})(2)"), "row index passed to the script")

	p, err := portal.Detail(ctx, rows[1])
	require.NoError(t, err)
	assert.Equal(t, rows[1].RegistrationID, p.RegistrationID)
	assert.Equal(t, "Residential", p.ProjectType)
}

func TestChromePortal_OpenDetailMissingLink(t *testing.T) {
	page := browsertest.New(selDetailsTab)
	page.EvalFn = boolEval(false)
	portal := NewChromePortal(page, testMonitorConfig(), utils.NewNopLogger())

	err := portal.OpenDetail(context.Background(), models.ListingRow{RegistrationID: "R-1"})
	assert.True(t, errors.Is(err, browser.ErrNotFound))
}

func TestChromePortal_NextPage(t *testing.T) {
	page := browsertest.New()
	portal := NewChromePortal(page, testMonitorConfig(), utils.NewNopLogger())

	page.EvalFn = boolEval(true)
	more, err := portal.NextPage(context.Background())
	require.NoError(t, err)
	assert.True(t, more)

	page.EvalFn = boolEval(false)
	more, err = portal.NextPage(context.Background())
	require.NoError(t, err)
	assert.False(t, more)
}

func TestChromePortal_BackSettles(t *testing.T) {
	page := browsertest.New()
	portal := NewChromePortal(page, testMonitorConfig(), utils.NewNopLogger())

	require.NoError(t, portal.Back(context.Background()))
	assert.Len(t, page.Ops("back"), 1)
	assert.Len(t, page.Ops("sleep"), 1)
}
