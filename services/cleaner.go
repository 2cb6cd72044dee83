package services

import (
	"regexp"
	"strconv"
	"strings"

	"realty-automation/models"
	"realty-automation/utils"
)

var (
	// countRegexp captures the first integer, allowing thousands separators
	countRegexp = regexp.MustCompile(`\d[\d,]*`)
	// areaRegexp captures the first decimal number
	areaRegexp = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
)

// Cleaner normalises extracted projects before they are archived and
// reported.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean collapses whitespace in every field, fills blanks with
// models.NotAvailable, and drops records without a registration id or
// repeating one already seen. Order is preserved.
func (c *Cleaner) Clean(raw []*models.Project) []*models.Project {
	seen := make(map[string]struct{})
	result := make([]*models.Project, 0, len(raw))

	for _, r := range raw {
		id := utils.NormaliseText(r.RegistrationID)
		if id == "" {
			c.logger.Warn("[cleaner] Dropping project with empty registration id: %s", r.ProjectName)
			continue
		}
		if _, dup := seen[id]; dup {
			c.logger.Debug("[cleaner] Duplicate registration id skipped: %s", id)
			continue
		}
		seen[id] = struct{}{}

		p := &models.Project{
			RegistrationID: id,
			PromoterName:   orNA(r.PromoterName),
			ProjectName:    orNA(r.ProjectName),
			Address:        orNA(r.Address),
			ProjectType:    orNA(r.ProjectType),
			ProjectSubtype: orNA(r.ProjectSubtype),
			TotalArea:      orNA(r.TotalArea),
			TotalUnits:     orNA(r.TotalUnits),
			CompletionDate: orNA(r.CompletionDate),
			Latitude:       orNA(r.Latitude),
			Longitude:      orNA(r.Longitude),
			CoveredParking: orNA(r.CoveredParking),
			TotalOpenArea:  orNA(r.TotalOpenArea),
			TotalLandArea:  orNA(r.TotalLandArea),
			TowerCount:     orNA(r.TowerCount),
			Inventory:      make([]models.InventoryRow, 0, len(r.Inventory)),
			DiscoveredAt:   r.DiscoveredAt,
		}
		for _, inv := range r.Inventory {
			p.Inventory = append(p.Inventory, models.InventoryRow{
				UnitType:    utils.NormaliseText(inv.UnitType),
				Count:       utils.NormaliseText(inv.Count),
				CarpetArea:  utils.NormaliseText(inv.CarpetArea),
				BalconyArea: utils.NormaliseText(inv.BalconyArea),
				TerraceArea: utils.NormaliseText(inv.TerraceArea),
			})
		}
		result = append(result, p)
	}

	if dropped := len(raw) - len(result); dropped > 0 {
		c.logger.Info("[cleaner] Cleaned %d → %d projects (dropped %d)", len(raw), len(result), dropped)
	}
	return result
}

func orNA(s string) string {
	s = utils.NormaliseText(s)
	if s == "" {
		return models.NotAvailable
	}
	return s
}

// parseCount extracts a whole number such as a unit or tower count.
// Examples:
//
//	"120" → 120
//	"1,204 Flats" → 1204
//	"N/A" → 0
func parseCount(raw string) int {
	match := countRegexp.FindString(raw)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return 0
	}
	return n
}

// parseArea extracts an area figure, ignoring the unit suffix.
func parseArea(raw string) float64 {
	match := areaRegexp.FindString(raw)
	if match == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0
	}
	return f
}
