package model

// Update is one row of updates.csv: a dated note against a region/route.
type Update struct {
	Date        string // YYYY-MM-DD
	Region      string // <=8
	Route       string // <=16
	Description string // <=255
}

// SystemUpdate is one row of systemupdates.csv: a dated status change
// against a region/system.
type SystemUpdate struct {
	Date         string // YYYY-MM-DD
	Region       string // <=8
	SystemName   string // <=10
	StatusChange string // <=255
}
