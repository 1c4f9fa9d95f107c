package csvload

import (
	"bufio"
	"os"
	"strings"

	"github.com/travelmapping/siteupdate-go/internal/model"
	"github.com/travelmapping/siteupdate-go/internal/perr"
)

// LoadContinents parses continents.csv ("code;name" per row, header
// first) into a code-indexed map.
func LoadContinents(path string, errs *perr.ErrorList) map[string]*model.Continent {
	out := make(map[string]*model.Continent)
	forEachRow(path, 2, errs, func(lineNo int, fields []string) {
		code, name := strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1])
		if len(code) > 3 || len(name) > 15 {
			errs.Add("%s line %d: field length overflow", path, lineNo)
			return
		}
		out[code] = &model.Continent{Code: code, Name: name}
	})
	return out
}

// LoadCountries parses countries.csv ("code;name" per row, header
// first) into a code-indexed map.
func LoadCountries(path string, errs *perr.ErrorList) map[string]*model.Country {
	out := make(map[string]*model.Country)
	forEachRow(path, 2, errs, func(lineNo int, fields []string) {
		code, name := strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1])
		if len(code) > 3 || len(name) > 32 {
			errs.Add("%s line %d: field length overflow", path, lineNo)
			return
		}
		out[code] = &model.Country{Code: code, Name: name}
	})
	return out
}

// LoadRegions parses regions.csv ("code;name;country;continent;regionType"
// per row, header first) into a code-indexed map, populating every
// field model.Region carries so downstream stats/SQL output no longer
// has to fabricate bare {Code: code} shells.
func LoadRegions(path string, errs *perr.ErrorList) map[string]*model.Region {
	out := make(map[string]*model.Region)
	forEachRow(path, 5, errs, func(lineNo int, fields []string) {
		code, name := strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1])
		country, continent, regionType := strings.TrimSpace(fields[2]), strings.TrimSpace(fields[3]), strings.TrimSpace(fields[4])
		if len(code) > 8 || len(name) > 48 || len(country) > 3 || len(continent) > 3 || len(regionType) > 32 {
			errs.Add("%s line %d: field length overflow", path, lineNo)
			return
		}
		out[code] = &model.Region{Code: code, Name: name, Country: country, Continent: continent, Type: regionType}
	})
	return out
}

// LoadUpdates parses updates.csv ("date;region;route;root;description"
// per row, header first) into a slice in file order.
func LoadUpdates(path string, errs *perr.ErrorList) []model.Update {
	var out []model.Update
	forEachRow(path, 5, errs, func(lineNo int, fields []string) {
		out = append(out, model.Update{
			Date:        strings.TrimSpace(fields[0]),
			Region:      strings.TrimSpace(fields[1]),
			Route:       strings.TrimSpace(fields[2]),
			Description: strings.TrimSpace(fields[4]),
		})
	})
	return out
}

// LoadSystemUpdates parses systemupdates.csv
// ("date;region;systemName;description;statusChange" per row, header
// first) into a slice in file order.
func LoadSystemUpdates(path string, errs *perr.ErrorList) []model.SystemUpdate {
	var out []model.SystemUpdate
	forEachRow(path, 5, errs, func(lineNo int, fields []string) {
		out = append(out, model.SystemUpdate{
			Date:         strings.TrimSpace(fields[0]),
			Region:       strings.TrimSpace(fields[1]),
			SystemName:   strings.TrimSpace(fields[2]),
			StatusChange: strings.TrimSpace(fields[4]),
		})
	})
	return out
}

// forEachRow is the shared semicolon-CSV-with-header scan used by every
// reference-table loader in this file: skip the header and blank lines,
// split on ';', and report (rather than abort on) a field-count
// mismatch the way LoadChoppedRoutes/LoadConnectedRoutes do.
func forEachRow(path string, wantFields int, errs *perr.ErrorList, fn func(lineNo int, fields []string)) {
	f, err := os.Open(path)
	if err != nil {
		errs.Add("could not open %s: %v", path, err)
		return
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if lineNo == 1 || strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ";")
		if len(fields) != wantFields {
			errs.Add("%s line %d: expected %d fields, got %d", path, lineNo, wantFields, len(fields))
			continue
		}
		fn(lineNo, fields)
	}
}
