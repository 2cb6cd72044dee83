package services

import (
	"fmt"
	"html"
	"strings"

	"realty-automation/models"
)

// NoNewProjects is the whole digest body when a run found nothing.
const NoNewProjects = "No new projects updated."

// BuildDigest renders the monitor digest. Registration ids whose details
// could not be extracted are listed after the projects so they are not
// lost once the checkpoint moves past them.
func BuildDigest(subject string, projects []*models.Project, failed []string) models.Digest {
	var text string
	if len(projects) == 0 {
		text = NoNewProjects
	} else {
		text = projectsText(subject, projects)
	}

	if len(failed) > 0 {
		lines := []string{"", "", "Could not extract:"}
		for _, id := range failed {
			lines = append(lines, "- "+id)
		}
		text += strings.Join(lines, "\n")
	}

	return models.Digest{
		Subject:  subject,
		Text:     text,
		HTML:     "<pre>" + html.EscapeString(text) + "</pre>",
		Projects: len(projects),
	}
}

func projectsText(subject string, projects []*models.Project) string {
	lines := []string{subject + ":\n"}
	for _, p := range projects {
		lines = append(lines,
			"Registration No:      "+na(p.RegistrationID),
			"Promoter Name:        "+na(p.PromoterName),
			"Project Name:         "+na(p.ProjectName),
			"Address:              "+na(p.Address),
			"Project Type:         "+na(p.ProjectType),
			"Project Sub Type:     "+na(p.ProjectSubtype),
			"Total Inventories:    "+na(p.TotalUnits),
			"Completion Date:      "+na(p.CompletionDate),
			"Latitude:             "+na(p.Latitude),
			"Longitude:            "+na(p.Longitude),
			"Covered Parking:      "+na(p.CoveredParking),
			"Total Open Area:      "+na(p.TotalOpenArea),
			"Total Land Area:      "+na(p.TotalLandArea),
			"Number of Towers:     "+na(p.TowerCount),
		)

		if len(p.Inventory) > 0 {
			lines = append(lines,
				"\nInventory Details:",
				"Type | Count | Carpet Area | Balcony Area | Terrace Area",
				strings.Repeat("-", 70),
			)
			for _, inv := range p.Inventory {
				lines = append(lines, fmt.Sprintf("%s | %s | %s | %s | %s",
					inv.UnitType, inv.Count, inv.CarpetArea, inv.BalconyArea, inv.TerraceArea))
			}
		}

		lines = append(lines, strings.Repeat("-", 40))
	}
	return strings.Join(lines, "\n")
}

func na(s string) string {
	if s == "" {
		return models.NotAvailable
	}
	return s
}
