package rera

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"realty-automation/models"
	"realty-automation/utils"
)

// Listing table column positions.
const (
	minListingCells = 6
	colRegistration = 2
	colPromoter     = 4
	colProjectName  = 5
)

const minInventoryCells = 6

func newDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "rera: parse html")
	}
	return doc, nil
}

func cellText(s *goquery.Selection) string {
	return utils.NormaliseText(s.Text())
}

// ParseListing extracts the rows of the approved-projects table. Rows with
// fewer than six cells (spacers, "no data" rows) are skipped; Index keeps
// each row's position among all table rows.
func ParseListing(html string) ([]models.ListingRow, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, err
	}

	var rows []models.ListingRow
	doc.Find("#approvedTable tbody tr").Each(func(i int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td")
		if cells.Length() < minListingCells {
			return
		}
		rows = append(rows, models.ListingRow{
			Index:          i,
			RegistrationID: cellText(cells.Eq(colRegistration)),
			PromoterName:   cellText(cells.Eq(colPromoter)),
			ProjectName:    cellText(cells.Eq(colProjectName)),
		})
	})
	return rows, nil
}

// labelMatcher reports whether a label text names the wanted field.
type labelMatcher func(label string) bool

func exactly(want string) labelMatcher {
	return func(label string) bool { return label == want }
}

func containing(subs ...string) labelMatcher {
	return func(label string) bool {
		for _, s := range subs {
			if strings.Contains(label, s) {
				return true
			}
		}
		return false
	}
}

func containingExcept(sub, except string) labelMatcher {
	return func(label string) bool {
		return strings.Contains(label, sub) && !strings.Contains(label, except)
	}
}

// labelValue finds the first label paragraph matching m and returns the
// paragraph in the next sibling column, laid out as
// <div><p>Label</p></div><div><p>Value</p></div>. A missing or blank value
// yields models.NotAvailable.
func labelValue(doc *goquery.Document, m labelMatcher) string {
	value := models.NotAvailable
	doc.Find("p, label").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !m(cellText(s)) {
			return true
		}
		v := s.Parent().NextAllFiltered("div").ChildrenFiltered("p").First()
		if v.Length() == 0 {
			return true
		}
		if text := cellText(v); text != "" {
			value = text
		}
		return false
	})
	return value
}

// ParseDetail extracts the project fields from the "Project Details" tab.
// Registration id and names come from the listing row.
func ParseDetail(html string, row models.ListingRow) (*models.Project, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, err
	}

	unitsLabel := containing("Total Number of Inventories", "Total Number of Flats", "Total Number of Villas")

	return &models.Project{
		RegistrationID: row.RegistrationID,
		PromoterName:   row.PromoterName,
		ProjectName:    row.ProjectName,
		Address:        labelValue(doc, containing("Project Address")),
		ProjectType:    labelValue(doc, containing("Project Type")),
		ProjectSubtype: labelValue(doc, containing("Project Sub Type")),
		TotalArea:      labelValue(doc, containingExcept("Total Area", "Of Land")),
		TotalUnits:     labelValue(doc, unitsLabel),
		CompletionDate: labelValue(doc, exactly("Proposed Completion Date")),
		Latitude:       labelValue(doc, exactly("Latitude")),
		Longitude:      labelValue(doc, exactly("Longitude")),
		CoveredParking: labelValue(doc, containing("No. of Covered Parking")),
		TotalOpenArea:  labelValue(doc, containing("Total Open Area")),
		TotalLandArea:  labelValue(doc, containing("Total Area Of Land")),
		TowerCount:     labelValue(doc, containing("Number of Towers")),
		Inventory:      parseInventory(doc),
	}, nil
}

// ParseInventory extracts the inventory table of a detail page.
func ParseInventory(html string) ([]models.InventoryRow, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, err
	}
	return parseInventory(doc), nil
}

// parseInventory walks the bordered tables' rows. The portal renders the
// inventory block more than once; the second appearance of serial number
// "1" marks the wraparound and ends the table. Rows lacking a type or a
// count are dropped.
func parseInventory(doc *goquery.Document) []models.InventoryRow {
	inventory := []models.InventoryRow{}
	seenFirst := false

	doc.Find(`table[class*="table-bordered"] tbody tr`).EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cols := tr.ChildrenFiltered("td")
		if cols.Length() < minInventoryCells {
			return true
		}

		texts := make([]string, cols.Length())
		blank := true
		cols.Each(func(i int, td *goquery.Selection) {
			texts[i] = cellText(td)
			if texts[i] != "" {
				blank = false
			}
		})
		if blank {
			return true
		}

		if texts[0] == "1" {
			if seenFirst {
				return false
			}
			seenFirst = true
		}

		if texts[1] == "" || texts[2] == "" {
			return true
		}
		inventory = append(inventory, models.InventoryRow{
			UnitType:    texts[1],
			Count:       texts[2],
			CarpetArea:  texts[3],
			BalconyArea: texts[4],
			TerraceArea: texts[5],
		})
		return true
	})
	return inventory
}
