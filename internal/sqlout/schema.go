// Package sqlout is the SQL emitter (component L): it renders a single
// load script covering every table spec §4.L names, in an order that
// satisfies foreign-key dependencies on drop then create, grounded on
// the teacher's GormSystemGraphRepository — repurposed here from a
// cache table to a batch load script. Field widths are declared as
// gorm struct tags (so a real ORM, not a hand-rolled schema table,
// governs column widths) even though production use only ever renders
// text; internal/sqlout/sqlout_test.go exercises those tags against a live
// gorm+sqlite database to prove the rendered script actually runs.
package sqlout

// Continent mirrors continents.csv.
type Continent struct {
	Code string `gorm:"column:code;size:3;primaryKey"`
	Name string `gorm:"column:name;size:15"`
}

// Country mirrors countries.csv.
type Country struct {
	Code string `gorm:"column:code;size:3;primaryKey"`
	Name string `gorm:"column:name;size:32"`
}

// Region mirrors regions.csv.
type Region struct {
	Code      string `gorm:"column:code;size:8;primaryKey"`
	Name      string `gorm:"column:name;size:48"`
	Country   string `gorm:"column:country;size:3"`
	Continent string `gorm:"column:continent;size:3"`
	Type      string `gorm:"column:regionType;size:32"`
}

// System mirrors systems.csv.
type System struct {
	Name     string `gorm:"column:systemName;size:10;primaryKey"`
	Country  string `gorm:"column:countryCode;size:3"`
	FullName string `gorm:"column:fullName;size:60"`
	Color    string `gorm:"column:color;size:16"`
	Tier     int    `gorm:"column:tier"`
	Level    string `gorm:"column:level;size:16"`
}

// Route mirrors one chopped route.
type Route struct {
	SystemName    string `gorm:"column:systemName;size:10"`
	Region        string `gorm:"column:region;size:8"`
	Route         string `gorm:"column:route;size:16"`
	Banner        string `gorm:"column:banner;size:6"`
	Abbrev        string `gorm:"column:abbrev;size:3"`
	City          string `gorm:"column:city;size:100"`
	Root          string `gorm:"column:root;size:32;primaryKey"`
	AltRouteNames string `gorm:"column:altRouteNames;size:255"`
}

// ConnectedRoute mirrors one connected-route group.
type ConnectedRoute struct {
	ID        int    `gorm:"column:connectedRouteId;primaryKey;autoIncrement"`
	SystemName string `gorm:"column:systemName;size:10"`
	Route     string `gorm:"column:route;size:16"`
	Banner    string `gorm:"column:banner;size:6"`
	GroupName string `gorm:"column:groupName;size:100"`
	FirstRoot string `gorm:"column:firstRoot;size:32"`
}

// ConnectedRouteRoot is one (connected route, member root) pair in order.
type ConnectedRouteRoot struct {
	ConnectedRouteID int    `gorm:"column:connectedRouteId"`
	Root             string `gorm:"column:root;size:32"`
	RootOrder        int    `gorm:"column:rootOrder"`
}

// Waypoint mirrors one parsed WPT point.
type Waypoint struct {
	ID    int     `gorm:"column:pointId;primaryKey;autoIncrement"`
	Root  string  `gorm:"column:root;size:32"`
	Label string  `gorm:"column:label;size:100"`
	Lat   float64 `gorm:"column:latitude"`
	Lng   float64 `gorm:"column:longitude"`
}

// Segment mirrors one route segment between two waypoint rows.
type Segment struct {
	ID        int    `gorm:"column:segmentId;primaryKey;autoIncrement"`
	Root      string `gorm:"column:root;size:32"`
	Waypoint1 int    `gorm:"column:waypoint1"`
	Waypoint2 int    `gorm:"column:waypoint2"`
}

// Clinched is one (segment, traveler) clinch record.
type Clinched struct {
	SegmentID int    `gorm:"column:segmentId"`
	Traveler  string `gorm:"column:traveler;size:48"`
}

// OverallMileageByRegion is one region's three stats-engine rollups.
type OverallMileageByRegion struct {
	Region        string  `gorm:"column:region;size:8;primaryKey"`
	ActiveOnly    float64 `gorm:"column:activeOnly"`
	ActivePreview float64 `gorm:"column:activePreview"`
	Overall       float64 `gorm:"column:overall"`
}

// SystemMileageByRegion is one (system, region) mileage rollup.
type SystemMileageByRegion struct {
	SystemName string  `gorm:"column:systemName;size:10"`
	Region     string  `gorm:"column:region;size:8"`
	Mileage    float64 `gorm:"column:mileage"`
}

// ClinchedOverallMileageByRegion is recovered from ClinchedDBValues
// (see SPEC_FULL.md): one traveler's region rollup.
type ClinchedOverallMileageByRegion struct {
	Traveler      string  `gorm:"column:traveler;size:48"`
	Region        string  `gorm:"column:region;size:8"`
	ActiveOnly    float64 `gorm:"column:activeOnly"`
	ActivePreview float64 `gorm:"column:activePreview"`
}

// ClinchedSystemMileageByRegion is one traveler's (system, region) rollup.
type ClinchedSystemMileageByRegion struct {
	Traveler   string  `gorm:"column:traveler;size:48"`
	SystemName string  `gorm:"column:systemName;size:10"`
	Region     string  `gorm:"column:region;size:8"`
	Mileage    float64 `gorm:"column:mileage"`
}

// ClinchedConnectedRoute records whether a traveler has fully clinched
// one connected route, and their mileage toward it.
type ClinchedConnectedRoute struct {
	Traveler         string  `gorm:"column:traveler;size:48"`
	ConnectedRouteID int     `gorm:"column:connectedRouteId"`
	Mileage          float64 `gorm:"column:mileage"`
	Clinched         bool    `gorm:"column:clinched"`
}

// ClinchedRoute is the per-chopped-route analogue of ClinchedConnectedRoute.
type ClinchedRoute struct {
	Traveler string  `gorm:"column:traveler;size:48"`
	Root     string  `gorm:"column:root;size:32"`
	Mileage  float64 `gorm:"column:mileage"`
	Clinched bool    `gorm:"column:clinched"`
}

// Update mirrors one updates.csv row.
type Update struct {
	Date        string `gorm:"column:date;size:10"`
	Region      string `gorm:"column:region;size:8"`
	Route       string `gorm:"column:route;size:16"`
	Description string `gorm:"column:description;size:255"`
}

// SystemUpdate mirrors one systemupdates.csv row.
type SystemUpdate struct {
	Date         string `gorm:"column:date;size:10"`
	Region       string `gorm:"column:region;size:8"`
	SystemName   string `gorm:"column:systemName;size:10"`
	StatusChange string `gorm:"column:statusChange;size:255"`
}

// DatacheckError is one (possibly FP-marked) datacheck finding.
type DatacheckError struct {
	Root   string `gorm:"column:root;size:32"`
	Label1 string `gorm:"column:label1;size:100"`
	Label2 string `gorm:"column:label2;size:100"`
	Label3 string `gorm:"column:label3;size:100"`
	Code   string `gorm:"column:code;size:32"`
	Info   string `gorm:"column:info;size:255"`
	FP     bool   `gorm:"column:fp"`
}

// Graph is one subgraph descriptor's row (internal/subgraph.Row).
type Graph struct {
	Filename    string `gorm:"column:filename;size:64;primaryKey"`
	Descr       string `gorm:"column:descr;size:255"`
	VertexCount int    `gorm:"column:vertices"`
	EdgeCount   int    `gorm:"column:edges"`
	Category    string `gorm:"column:category;size:16"`
}

// GraphType is one row per subgraph category actually emitted.
type GraphType struct {
	Category string `gorm:"column:category;size:16;primaryKey"`
	Descr    string `gorm:"column:descr;size:255"`
}
