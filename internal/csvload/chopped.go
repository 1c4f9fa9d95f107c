package csvload

import (
	"bufio"
	"os"
	"strings"

	"github.com/travelmapping/siteupdate-go/internal/model"
	"github.com/travelmapping/siteupdate-go/internal/perr"
)

// LoadChoppedRoutes parses a <sys>.csv file ("systemName;region;route;
// banner;abbrev;city;root;altRouteNames" per row, header first),
// appending each parsed Route to sys.Routes and returning a root->Route
// index used to cross-reference the connected-route CSV afterward.
func LoadChoppedRoutes(path string, sys *model.HighwaySystem, errs *perr.ErrorList) map[string]*model.Route {
	byRoot := make(map[string]*model.Route)

	f, err := os.Open(path)
	if err != nil {
		errs.Add("could not open chopped-route file %s: %v", path, err)
		return byRoot
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
		if len(fields) != 8 {
			errs.Add("%s line %d: expected 8 fields, got %d", path, lineNo, len(fields))
			continue
		}
		routeName, banner, abbrev, city, root := strings.TrimSpace(fields[2]), strings.TrimSpace(fields[3]), strings.TrimSpace(fields[4]), strings.TrimSpace(fields[5]), strings.TrimSpace(fields[6])
		if len(routeName) > 16 || len(banner) > 6 || len(abbrev) > 3 || len(city) > 100 || len(root) > 32 {
			errs.Add("%s line %d: field length overflow", path, lineNo)
			continue
		}
		if root == "" {
			errs.Add("%s line %d: empty root", path, lineNo)
			continue
		}
		if _, dup := byRoot[root]; dup {
			errs.Add("%s line %d: duplicate root %q", path, lineNo, root)
			continue
		}

		var altNames []string
		if alt := strings.TrimSpace(fields[7]); alt != "" {
			altNames = strings.Split(alt, ",")
		}

		r := model.NewRoute(sys, strings.TrimSpace(fields[1]), routeName, banner, abbrev, city, root, altNames)
		sys.Routes = append(sys.Routes, r)
		byRoot[root] = r
	}
	return byRoot
}
