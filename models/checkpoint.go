package models

// Checkpoint is the persisted high-water mark of the monitor.
type Checkpoint struct {
	StoredIdentifier string `json:"stored_identifier"`
}

// Digest is the rendered summary sent after a monitor run.
type Digest struct {
	Subject  string
	Text     string
	HTML     string
	Projects int
}
