// Package rera scrapes the Karnataka RERA portal for newly approved
// projects.
package rera

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"

	"realty-automation/browser"
	"realty-automation/config"
	"realty-automation/models"
	"realty-automation/utils"
)

// State is where the portal UI currently is.
type State int

const (
	StateSearching State = iota
	StateListing
	StateDetail
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "SEARCHING"
	case StateListing:
		return "LISTING"
	case StateDetail:
		return "DETAIL"
	case StateTerminal:
		return "TERMINAL"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Portal is the set of UI transitions the monitor drives.
type Portal interface {
	Open(ctx context.Context) error
	State(ctx context.Context) (State, error)
	ApplyFilters(ctx context.Context) error
	Rows(ctx context.Context) ([]models.ListingRow, error)
	NextPage(ctx context.Context) (bool, error)
	OpenDetail(ctx context.Context, row models.ListingRow) error
	Detail(ctx context.Context, row models.ListingRow) (*models.Project, error)
	Back(ctx context.Context) error
}

const (
	selDistrict     = "#projectDist"
	selSearch       = ".btn-style"
	selTable        = "#approvedTable"
	selStatusHeader = `//th[contains(text(), 'STATUS')]`
	selApprovedOn   = `//th[contains(text(), 'APPROVED ON')]`
	selDetailsTab   = `a[data-toggle='tab'][href='#menu2']`
)

const nextPageScript = `(function() {
	var li = document.querySelector('#approvedTable_next');
	if (!li || li.classList.contains('disabled')) { return false; }
	var a = li.querySelector('a') || li;
	a.click();
	return true;
})()`

const openDetailScript = `(function(i) {
	var rows = document.querySelectorAll('#approvedTable tbody tr');
	if (i >= rows.length) { return false; }
	var link = rows[i].querySelector("a[onclick*='showFileApplicationPreview']");
	if (!link) { return false; }
	link.click();
	return true;
})(%d)`

const openTabScript = `(function() {
	var tab = document.querySelector("a[data-toggle='tab'][href='#menu2']");
	if (!tab) { return false; }
	tab.click();
	return true;
})()`

// District inputs are sometimes readonly, so the value is assigned directly
// and change events are fired for the page's listeners.
const setDistrictScript = `(function(v) {
	var el = document.getElementById('projectDist');
	if (!el) { return false; }
	el.value = v;
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})(%s)`

// ChromePortal drives the live portal through a browser.Page.
type ChromePortal struct {
	page   browser.Page
	cfg    config.MonitorConfig
	logger *utils.Logger
}

// NewChromePortal returns a Portal bound to page.
func NewChromePortal(page browser.Page, cfg config.MonitorConfig, logger *utils.Logger) *ChromePortal {
	return &ChromePortal{page: page, cfg: cfg, logger: logger}
}

func (p *ChromePortal) Open(ctx context.Context) error {
	if err := p.page.Navigate(ctx, p.cfg.PortalURL); err != nil {
		return err
	}
	p.logger.Info("[rera] Navigated to %s", p.cfg.PortalURL)
	return nil
}

func (p *ChromePortal) State(ctx context.Context) (State, error) {
	ok, err := p.page.Exists(ctx, selTable)
	if err != nil {
		return StateSearching, err
	}
	if ok {
		return StateListing, nil
	}
	ok, err = p.page.Exists(ctx, selDetailsTab)
	if err != nil {
		return StateSearching, err
	}
	if ok {
		return StateDetail, nil
	}
	return StateSearching, nil
}

// ApplyFilters enters the district, searches, and sorts the results by
// STATUS once and APPROVED ON twice so the newest approvals come first.
func (p *ChromePortal) ApplyFilters(ctx context.Context) error {
	wait := p.cfg.WaitTimeout()

	if err := p.page.WaitVisible(ctx, selDistrict, wait); err != nil {
		return eris.Wrapf(browser.ErrNotFound, "rera: district input: %v", err)
	}
	district, err := json.Marshal(p.cfg.District)
	if err != nil {
		return eris.Wrap(err, "rera: encode district")
	}
	var set bool
	if err := p.page.Eval(ctx, fmt.Sprintf(setDistrictScript, district), &set); err != nil {
		return eris.Wrap(err, "rera: set district")
	}
	if !set {
		return eris.Wrap(browser.ErrNotFound, "rera: district input vanished")
	}
	p.logger.Info("[rera] Entered district: %s", p.cfg.District)

	if err := p.waitAndClick(ctx, selSearch, "search button"); err != nil {
		return err
	}
	if err := p.page.WaitVisible(ctx, selTable, wait); err != nil {
		return eris.Wrapf(browser.ErrNotFound, "rera: results table: %v", err)
	}
	p.logger.Info("[rera] Approved projects table loaded")

	if err := p.waitAndClick(ctx, selStatusHeader, "STATUS header"); err != nil {
		return err
	}
	if err := p.page.Sleep(ctx, p.cfg.Settle()); err != nil {
		return err
	}
	for i := 0; i < 2; i++ {
		if err := p.waitAndClick(ctx, selApprovedOn, "APPROVED ON header"); err != nil {
			return err
		}
		if err := p.page.Sleep(ctx, p.cfg.Settle()); err != nil {
			return err
		}
	}
	p.logger.Info("[rera] Sorted by STATUS once and APPROVED ON twice")
	return nil
}

func (p *ChromePortal) waitAndClick(ctx context.Context, sel, what string) error {
	if err := p.page.WaitVisible(ctx, sel, p.cfg.WaitTimeout()); err != nil {
		return eris.Wrapf(browser.ErrNotFound, "rera: %s: %v", what, err)
	}
	if err := p.page.Click(ctx, sel); err != nil {
		return eris.Wrapf(err, "rera: click %s", what)
	}
	return nil
}

func (p *ChromePortal) Rows(ctx context.Context) ([]models.ListingRow, error) {
	html, err := p.page.HTML(ctx, selTable)
	if err != nil {
		return nil, err
	}
	return ParseListing(html)
}

// NextPage clicks the table's "next" pager. It reports false on the last page.
func (p *ChromePortal) NextPage(ctx context.Context) (bool, error) {
	var moved bool
	if err := p.page.Eval(ctx, nextPageScript, &moved); err != nil {
		return false, eris.Wrap(err, "rera: next page")
	}
	if !moved {
		return false, nil
	}
	return true, p.page.Sleep(ctx, p.cfg.Settle())
}

func (p *ChromePortal) OpenDetail(ctx context.Context, row models.ListingRow) error {
	var clicked bool
	if err := p.page.Eval(ctx, fmt.Sprintf(openDetailScript, row.Index), &clicked); err != nil {
		return eris.Wrapf(err, "rera: open details of %s", row.RegistrationID)
	}
	if !clicked {
		return eris.Wrapf(browser.ErrNotFound, "rera: details link of %s", row.RegistrationID)
	}
	p.logger.Debug("[rera] Clicked 'View Project Details' for %s", row.RegistrationID)

	if err := p.page.WaitVisible(ctx, selDetailsTab, p.cfg.WaitTimeout()); err != nil {
		return eris.Wrapf(browser.ErrNotFound, "rera: project details tab of %s: %v", row.RegistrationID, err)
	}
	if err := p.page.Eval(ctx, openTabScript, &clicked); err != nil {
		return eris.Wrapf(err, "rera: open details tab of %s", row.RegistrationID)
	}
	if !clicked {
		return eris.Wrapf(browser.ErrNotFound, "rera: project details tab of %s", row.RegistrationID)
	}
	return p.page.Sleep(ctx, p.cfg.DetailSettle())
}

func (p *ChromePortal) Detail(ctx context.Context, row models.ListingRow) (*models.Project, error) {
	html, err := p.page.HTML(ctx, "body")
	if err != nil {
		return nil, err
	}
	return ParseDetail(html, row)
}

func (p *ChromePortal) Back(ctx context.Context) error {
	if err := p.page.Back(ctx); err != nil {
		return err
	}
	return p.page.Sleep(ctx, p.cfg.BackSettle())
}

var _ Portal = (*ChromePortal)(nil)

