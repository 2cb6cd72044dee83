package models

import "time"

// NotAvailable is the sentinel stored in a project field the detail page
// did not provide.
const NotAvailable = "N/A"

// ListingRow is one row of the approved-projects results table.
type ListingRow struct {
	Index          int
	RegistrationID string
	PromoterName   string
	ProjectName    string
}

// InventoryRow is one line of a project's inventory table.
type InventoryRow struct {
	UnitType    string `json:"type"`
	Count       string `json:"count"`
	CarpetArea  string `json:"carpet_area"`
	BalconyArea string `json:"balcony_area"`
	TerraceArea string `json:"terrace_area"`
}

// Project is a newly approved project discovered during one monitor run.
type Project struct {
	RegistrationID string         `json:"reg_no"`
	PromoterName   string         `json:"promoter_name"`
	ProjectName    string         `json:"project_name"`
	Address        string         `json:"address"`
	ProjectType    string         `json:"project_type"`
	ProjectSubtype string         `json:"project_sub_type"`
	TotalArea      string         `json:"total_area"`
	TotalUnits     string         `json:"total_units"`
	CompletionDate string         `json:"proposed_completion_date"`
	Latitude       string         `json:"latitude"`
	Longitude      string         `json:"longitude"`
	CoveredParking string         `json:"covered_parking"`
	TotalOpenArea  string         `json:"total_open_area"`
	TotalLandArea  string         `json:"total_land_area"`
	TowerCount     string         `json:"number_of_towers"`
	Inventory      []InventoryRow `json:"inventory_details"`
	DiscoveredAt   time.Time      `json:"discovered_at"`
}

// ArchivedProject is a project read back from the run archive.
type ArchivedProject struct {
	Project
	RunID string
}
