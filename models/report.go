package models

// MonitorReport summarises one monitor run for the console.
type MonitorReport struct {
	RunID              string
	Reason             string
	PreviousCheckpoint string
	NewCheckpoint      string
	CheckpointSaved    bool
	NewProjects        int
	Failed             []string
	Passes             int

	ProjectsByType map[string]int
	TotalUnits     int
	TotalLandArea  float64
	Largest        *Project
}
