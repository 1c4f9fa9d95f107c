package subgraph

import (
	"bufio"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/travelmapping/siteupdate-go/internal/model"
	"github.com/travelmapping/siteupdate-go/internal/perr"
)

// Implicit builds the one-descriptor-per-code subgraphs that spec §4.K
// names without a graph-list CSV: one region graph per region actually
// carrying a route, and one country/continent graph per code
// referenced by a loaded region, grounded on HighwayGraph.cpp's
// per-region iteration over the corpus rather than an explicit list
// file. System graphs are NOT implicit here: graphs/systemgraphs.csv
// (LoadSystemGraphsList) is the list of which systems get one.
func Implicit(systems []*model.HighwaySystem, regions map[string]*model.Region, countries map[string]*model.Country, continents map[string]*model.Continent) []Descriptor {
	var out []Descriptor

	regionCodes := make(map[string]bool)
	for _, h := range systems {
		for _, r := range h.Routes {
			regionCodes[r.Region] = true
		}
	}
	for _, code := range sortedStringSet(regionCodes) {
		out = append(out, Descriptor{
			Category: CategoryRegion,
			Root:     code,
			Descr:    "Region " + code,
			Regions:  map[string]bool{code: true},
		})
	}

	countryCodes := make(map[string]bool)
	continentCodes := make(map[string]bool)
	for code := range regionCodes {
		if r, ok := regions[code]; ok {
			if r.Country != "" {
				countryCodes[r.Country] = true
			}
			if r.Continent != "" {
				continentCodes[r.Continent] = true
			}
		}
	}

	for _, code := range sortedStringSet(countryCodes) {
		members := map[string]bool{}
		for rc, r := range regions {
			if r.Country == code {
				members[rc] = true
			}
		}
		descr := code
		if c, ok := countries[code]; ok {
			descr = c.Name
		}
		out = append(out, Descriptor{Category: CategoryCountry, Root: "country-" + code, Descr: descr, Regions: members})
	}

	for _, code := range sortedStringSet(continentCodes) {
		members := map[string]bool{}
		for rc, r := range regions {
			if r.Continent == code {
				members[rc] = true
			}
		}
		descr := code
		if c, ok := continents[code]; ok {
			descr = c.Name
		}
		out = append(out, Descriptor{Category: CategoryContinent, Root: "continent-" + code, Descr: descr, Regions: members})
	}

	return out
}

// LoadAreaGraphs parses graphs/areagraphs.csv
// ("title;descr;lat;lng;radius_mi" per row, header first) into one
// place-radius Descriptor per row.
func LoadAreaGraphs(path string, errs *perr.ErrorList) []Descriptor {
	var out []Descriptor
	scanSemicolonCSV(path, 5, errs, func(lineNo int, f []string) {
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(f[2]), 64)
		lng, err2 := strconv.ParseFloat(strings.TrimSpace(f[3]), 64)
		radius, err3 := strconv.ParseFloat(strings.TrimSpace(f[4]), 64)
		if err1 != nil || err2 != nil || err3 != nil {
			errs.Add("%s line %d: malformed lat/lng/radius", path, lineNo)
			return
		}
		title := strings.TrimSpace(f[0])
		out = append(out, Descriptor{
			Category: CategoryArea,
			Root:     title,
			Title:    title,
			Descr:    strings.TrimSpace(f[1]),
			Place:    &PlaceRadius{Lat: lat, Lng: lng, Radius: radius},
		})
	})
	return out
}

// LoadMultiRegion parses graphs/multiregion.csv
// ("descr;title;comma-separated-region-codes" per row, header first).
func LoadMultiRegion(path string, errs *perr.ErrorList) []Descriptor {
	return loadMultiCode(path, CategoryMultiRegion, errs, func(codes []string) (map[string]bool, map[*model.HighwaySystem]bool) {
		regions := make(map[string]bool, len(codes))
		for _, c := range codes {
			regions[c] = true
		}
		return regions, nil
	})
}

// LoadMultiSystem parses graphs/multisystem.csv
// ("descr;title;comma-separated-system-codes" per row, header first).
// Unknown system codes are reported and the row's remaining, known
// members are still used.
func LoadMultiSystem(path string, systemsByCode map[string]*model.HighwaySystem, errs *perr.ErrorList) []Descriptor {
	return loadMultiCode(path, CategoryMultiSystem, errs, func(codes []string) (map[string]bool, map[*model.HighwaySystem]bool) {
		systems := make(map[*model.HighwaySystem]bool, len(codes))
		for _, c := range codes {
			if h, ok := systemsByCode[c]; ok {
				systems[h] = true
			} else {
				errs.Add("%s: unknown system code %q", path, c)
			}
		}
		return nil, systems
	})
}

func loadMultiCode(path string, cat Category, errs *perr.ErrorList, resolve func([]string) (map[string]bool, map[*model.HighwaySystem]bool)) []Descriptor {
	var out []Descriptor
	scanSemicolonCSV(path, 3, errs, func(lineNo int, f []string) {
		descr, title := strings.TrimSpace(f[0]), strings.TrimSpace(f[1])
		var codes []string
		for _, c := range strings.Split(f[2], ",") {
			if c = strings.TrimSpace(c); c != "" {
				codes = append(codes, c)
			}
		}
		regions, systems := resolve(codes)
		out = append(out, Descriptor{Category: cat, Root: title, Title: title, Descr: descr, Regions: regions, Systems: systems})
	})
	return out
}

// LoadSystemGraphsList parses graphs/systemgraphs.csv ("systemName" per
// row, header first) into one system Descriptor per listed code.
// Implicit builds no system graphs, so a system gets its own graph
// only through this list.
func LoadSystemGraphsList(path string, systemsByCode map[string]*model.HighwaySystem, errs *perr.ErrorList) []Descriptor {
	var out []Descriptor
	scanSemicolonCSV(path, 1, errs, func(lineNo int, f []string) {
		code := strings.TrimSpace(f[0])
		h, ok := systemsByCode[code]
		if !ok {
			errs.Add("%s line %d: unknown system %q", path, lineNo, code)
			return
		}
		out = append(out, Descriptor{Category: CategorySystem, Root: h.Code, Descr: h.FullName, Systems: map[*model.HighwaySystem]bool{h: true}})
	})
	return out
}

// LoadFullCustom parses graphs/fullcustom.csv
// ("descr;root;lat;lng;radius;regionList;systemList" per row, header
// first). lat/lng/radius are all-or-none: if all three are blank the
// descriptor carries no place restriction.
func LoadFullCustom(path string, systemsByCode map[string]*model.HighwaySystem, errs *perr.ErrorList) []Descriptor {
	var out []Descriptor
	scanSemicolonCSV(path, 7, errs, func(lineNo int, f []string) {
		descr, root := strings.TrimSpace(f[0]), strings.TrimSpace(f[1])
		latS, lngS, radS := strings.TrimSpace(f[2]), strings.TrimSpace(f[3]), strings.TrimSpace(f[4])
		var place *PlaceRadius
		if latS != "" || lngS != "" || radS != "" {
			lat, err1 := strconv.ParseFloat(latS, 64)
			lng, err2 := strconv.ParseFloat(lngS, 64)
			radius, err3 := strconv.ParseFloat(radS, 64)
			if err1 != nil || err2 != nil || err3 != nil {
				errs.Add("%s line %d: malformed lat/lng/radius", path, lineNo)
				return
			}
			place = &PlaceRadius{Lat: lat, Lng: lng, Radius: radius}
		}
		regions := map[string]bool{}
		for _, c := range strings.Split(f[5], ",") {
			if c = strings.TrimSpace(c); c != "" {
				regions[c] = true
			}
		}
		systems := map[*model.HighwaySystem]bool{}
		for _, c := range strings.Split(f[6], ",") {
			if c = strings.TrimSpace(c); c == "" {
				continue
			} else if h, ok := systemsByCode[c]; ok {
				systems[h] = true
			} else {
				errs.Add("%s line %d: unknown system %q", path, lineNo, c)
			}
		}
		if len(regions) == 0 {
			regions = nil
		}
		if len(systems) == 0 {
			systems = nil
		}
		out = append(out, Descriptor{Category: CategoryFullCustom, Root: root, Descr: descr, Regions: regions, Systems: systems, Place: place})
	})
	return out
}

// categoryDescriptions gives the graph-types table's one row per
// category a human-readable description (spec §4.K).
var categoryDescriptions = map[Category]string{
	CategoryMaster:      "entire system of highways",
	CategoryArea:        "highways within a given radius of a place",
	CategoryRegion:      "highways within a single region",
	CategorySystem:      "highways within a single highway system",
	CategoryMultiSystem: "highways within several highway systems",
	CategoryMultiRegion: "highways within several regions",
	CategoryCountry:     "highways within a single country",
	CategoryContinent:   "highways within a single continent",
	CategoryFullCustom:  "custom combination of regions/systems/placeradius",
}

// CategoryDescription returns the graph-types description for cat.
func CategoryDescription(cat Category) string {
	return categoryDescriptions[cat]
}

func scanSemicolonCSV(path string, wantFields int, errs *perr.ErrorList, fn func(lineNo int, fields []string)) {
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

func sortedStringSet(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
