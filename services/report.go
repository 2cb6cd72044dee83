package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"realty-automation/models"
	"realty-automation/utils"
)

// ReportService aggregates and prints run reports.
type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

// Generate fills the project statistics of report from the run's projects.
func (s *ReportService) Generate(report *models.MonitorReport, projects []*models.Project) *models.MonitorReport {
	report.ProjectsByType = make(map[string]int)
	report.NewProjects = len(projects)

	largest := 0
	for _, p := range projects {
		kind := p.ProjectType
		if kind == "" || kind == models.NotAvailable {
			kind = "Unknown"
		}
		report.ProjectsByType[kind]++

		units := parseCount(p.TotalUnits)
		report.TotalUnits += units
		report.TotalLandArea += parseArea(p.TotalLandArea)
		if units > largest {
			largest = units
			report.Largest = p
		}
	}
	report.TotalLandArea = round2(report.TotalLandArea)
	return report
}

// PrintMonitorReport writes the monitor run summary to w.
func (s *ReportService) PrintMonitorReport(w io.Writer, r *models.MonitorReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  RERA MONITOR RUN\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Run id              : %s\n", r.RunID)
	fmt.Fprintf(w, "  Stopped because     : %s\n", r.Reason)
	fmt.Fprintf(w, "  Listing passes      : %d\n", r.Passes)
	fmt.Fprintf(w, "  New projects        : \033[1m%d\033[0m\n", r.NewProjects)
	fmt.Fprintf(w, "  Extraction failures : \033[1m%d\033[0m\n", len(r.Failed))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Checkpoint\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Previous : %s\n", r.PreviousCheckpoint)
	switch {
	case r.NewCheckpoint == "":
		fmt.Fprintf(w, "  New      : unchanged (no rows seen)\n")
	case r.CheckpointSaved:
		fmt.Fprintf(w, "  New      : \033[1;32m%s\033[0m\n", r.NewCheckpoint)
	default:
		fmt.Fprintf(w, "  New      : %s (not saved)\n", r.NewCheckpoint)
	}
	fmt.Fprintln(w)

	if r.NewProjects > 0 {
		fmt.Fprintf(w, "\033[1;33m  Projects by Type\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		type typeCount struct {
			kind  string
			count int
		}
		var kinds []typeCount
		for kind, cnt := range r.ProjectsByType {
			kinds = append(kinds, typeCount{kind, cnt})
		}
		sort.Slice(kinds, func(i, j int) bool {
			if kinds[i].count != kinds[j].count {
				return kinds[i].count > kinds[j].count
			}
			return kinds[i].kind < kinds[j].kind
		})
		for _, tc := range kinds {
			bar := strings.Repeat("█", tc.count)
			fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(tc.kind, 28), bar, tc.count)
		}
		fmt.Fprintf(w, "  Total units     : %d\n", r.TotalUnits)
		fmt.Fprintf(w, "  Total land area : %.2f\n", r.TotalLandArea)
		if r.Largest != nil {
			fmt.Fprintf(w, "  Largest project : %s (%s units)\n", truncate(r.Largest.ProjectName, 36), r.Largest.TotalUnits)
		}
		fmt.Fprintln(w)
	}

	if len(r.Failed) > 0 {
		fmt.Fprintf(w, "\033[1;31m  Could not extract\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		for _, id := range r.Failed {
			fmt.Fprintf(w, "  - %s\n", id)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)
}

// PrintCampaignSummary writes the outreach totals to w.
func PrintCampaignSummary(w io.Writer, s *models.CampaignSummary) {
	sep := strings.Repeat("=", 50)
	fmt.Fprintf(w, "\n%s\nEMAIL CAMPAIGN SUMMARY\n%s\n", sep, sep)
	fmt.Fprintf(w, "Total rows processed: %d\n", s.Total)
	fmt.Fprintf(w, "Emails sent successfully: %d\n", s.Sent)
	fmt.Fprintf(w, "Failed sends: %d\n", s.Failed)
	if s.Total > 0 {
		fmt.Fprintf(w, "Success rate: %.1f%%\n", s.SuccessRate())
	} else {
		fmt.Fprintln(w, "Success rate: 0%")
	}
	fmt.Fprintln(w, sep)
}

// PrintHistory lists archived projects, newest first.
func PrintHistory(w io.Writer, projects []*models.ArchivedProject) {
	if len(projects) == 0 {
		fmt.Fprintln(w, "No archived projects.")
		return
	}
	fmt.Fprintf(w, "%-40s %-36s %-20s %s\n", "REGISTRATION NO", "PROJECT", "DISCOVERED", "RUN")
	for _, p := range projects {
		fmt.Fprintf(w, "%-40s %-36s %-20s %s\n",
			truncate(p.RegistrationID, 40), truncate(p.ProjectName, 36),
			p.DiscoveredAt.Local().Format("2006-01-02 15:04"), shortID(p.RunID))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
