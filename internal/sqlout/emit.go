package sqlout

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ChunkSize is the maximum row count per rendered INSERT, per spec
// §4.L's 10,000-row bulk-insert chunking.
const ChunkSize = 10000

// Data is every table's rows for one run. Tables are emitted in the
// field order below, which is also the FK-safe drop-then-create order
// spec §4.L specifies.
type Data struct {
	Continents                      []Continent
	Countries                       []Country
	Regions                         []Region
	Systems                         []System
	Routes                         []Route
	ConnectedRoutes                 []ConnectedRoute
	ConnectedRouteRoots             []ConnectedRouteRoot
	Waypoints                       []Waypoint
	Segments                        []Segment
	Clinched                        []Clinched
	OverallMileageByRegion          []OverallMileageByRegion
	SystemMileageByRegion           []SystemMileageByRegion
	ClinchedOverallMileageByRegion  []ClinchedOverallMileageByRegion
	ClinchedSystemMileageByRegion   []ClinchedSystemMileageByRegion
	ClinchedConnectedRoutes         []ClinchedConnectedRoute
	ClinchedRoutes                  []ClinchedRoute
	Updates                         []Update
	SystemUpdates                   []SystemUpdate
	DatacheckErrors                 []DatacheckError
	Graphs                          []Graph
	GraphTypes                      []GraphType
}

type table struct {
	name string
	rows interface{}
}

func (d *Data) tables() []table {
	return []table{
		{"continents", d.Continents},
		{"countries", d.Countries},
		{"regions", d.Regions},
		{"systems", d.Systems},
		{"routes", d.Routes},
		{"connectedRoutes", d.ConnectedRoutes},
		{"connectedRouteRoots", d.ConnectedRouteRoots},
		{"waypoints", d.Waypoints},
		{"segments", d.Segments},
		{"clinched", d.Clinched},
		{"overallMileageByRegion", d.OverallMileageByRegion},
		{"systemMileageByRegion", d.SystemMileageByRegion},
		{"clinchedOverallMileageByRegion", d.ClinchedOverallMileageByRegion},
		{"clinchedSystemMileageByRegion", d.ClinchedSystemMileageByRegion},
		{"clinchedConnectedRoutes", d.ClinchedConnectedRoutes},
		{"clinchedRoutes", d.ClinchedRoutes},
		{"updates", d.Updates},
		{"systemUpdates", d.SystemUpdates},
		{"datacheckErrors", d.DatacheckErrors},
		{"graphs", d.Graphs},
		{"graphTypes", d.GraphTypes},
	}
}

// Generate renders the full load script: one DROP+CREATE per table,
// dropped in reverse dependency order first so re-running against an
// existing database is idempotent, then created and populated in
// dependency order.
func Generate(d *Data) (string, error) {
	tables := d.tables()
	var sb strings.Builder

	for i := len(tables) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "DROP TABLE IF EXISTS %s;\n", tables[i].name)
	}
	sb.WriteString("\n")

	for _, t := range tables {
		ddl, err := createTableSQL(t.name, t.rows)
		if err != nil {
			return "", fmt.Errorf("table %s: %w", t.name, err)
		}
		sb.WriteString(ddl)
		sb.WriteString("\n")

		stmts, err := insertSQL(t.name, t.rows)
		if err != nil {
			return "", fmt.Errorf("table %s: %w", t.name, err)
		}
		for _, stmt := range stmts {
			sb.WriteString(stmt)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

type column struct {
	name       string
	size       int
	primaryKey bool
	autoIncr   bool
	kind       reflect.Kind
}

func columnsOf(t reflect.Type) ([]column, error) {
	if t.Kind() != reflect.Slice {
		return nil, fmt.Errorf("expected a slice, got %s", t.Kind())
	}
	elem := t.Elem()
	cols := make([]column, 0, elem.NumField())
	for i := 0; i < elem.NumField(); i++ {
		f := elem.Field(i)
		tag := f.Tag.Get("gorm")
		col := column{name: strings.ToLower(f.Name[:1]) + f.Name[1:], kind: f.Type.Kind()}
		for _, part := range strings.Split(tag, ";") {
			switch {
			case strings.HasPrefix(part, "column:"):
				col.name = strings.TrimPrefix(part, "column:")
			case strings.HasPrefix(part, "size:"):
				col.size, _ = strconv.Atoi(strings.TrimPrefix(part, "size:"))
			case part == "primaryKey":
				col.primaryKey = true
			case part == "autoIncrement":
				col.autoIncr = true
			}
		}
		cols = append(cols, col)
	}
	return cols, nil
}

func sqlType(c column) string {
	switch c.kind {
	case reflect.Int, reflect.Int32, reflect.Int64:
		if c.autoIncr {
			return "INTEGER PRIMARY KEY AUTOINCREMENT"
		}
		return "INTEGER"
	case reflect.Float64, reflect.Float32:
		return "REAL"
	case reflect.Bool:
		return "BOOLEAN"
	default: // string
		if c.size > 0 {
			return fmt.Sprintf("VARCHAR(%d)", c.size)
		}
		return "TEXT"
	}
}

func createTableSQL(name string, rows interface{}) (string, error) {
	cols, err := columnsOf(reflect.TypeOf(rows))
	if err != nil {
		return "", err
	}
	var parts []string
	var pkCols []string
	for _, c := range cols {
		def := fmt.Sprintf("%s %s", c.name, sqlType(c))
		parts = append(parts, def)
		if c.primaryKey && !c.autoIncr {
			pkCols = append(pkCols, c.name)
		}
	}
	if len(pkCols) > 0 {
		parts = append(parts, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pkCols, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);\n", name, strings.Join(parts, ",\n  ")), nil
}

// insertSQL renders one multi-row INSERT per ChunkSize-row slice of
// rows, each value formatted per spec §4.L (%.15g for numeric columns,
// single-quoted/escaped text, 0/1 for booleans).
func insertSQL(name string, rows interface{}) ([]string, error) {
	v := reflect.ValueOf(rows)
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("expected a slice, got %s", v.Kind())
	}
	if v.Len() == 0 {
		return nil, nil
	}
	cols, err := columnsOf(v.Type())
	if err != nil {
		return nil, err
	}
	colNames := make([]string, len(cols))
	for i, c := range cols {
		colNames[i] = c.name
	}

	var stmts []string
	for start := 0; start < v.Len(); start += ChunkSize {
		end := start + ChunkSize
		if end > v.Len() {
			end = v.Len()
		}
		var valueRows []string
		for i := start; i < end; i++ {
			row := v.Index(i)
			vals := make([]string, row.NumField())
			for f := 0; f < row.NumField(); f++ {
				vals[f] = literal(row.Field(f))
			}
			valueRows = append(valueRows, "("+strings.Join(vals, ", ")+")")
		}
		stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES\n  %s;",
			name, strings.Join(colNames, ", "), strings.Join(valueRows, ",\n  "))
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func literal(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return "'" + strings.ReplaceAll(v.String(), "'", "''") + "'"
	case reflect.Float64, reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', 15, 64)
	case reflect.Bool:
		if v.Bool() {
			return "1"
		}
		return "0"
	default:
		return strconv.FormatInt(v.Int(), 10)
	}
}
