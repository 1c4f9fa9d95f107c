package csvload

import (
	"bufio"
	"os"
	"strings"

	"github.com/travelmapping/siteupdate-go/internal/datacheck"
	"github.com/travelmapping/siteupdate-go/internal/model"
	"github.com/travelmapping/siteupdate-go/internal/perr"
)

// LoadConnectedRoutes parses a <sys>_con.csv file ("systemName;route;
// banner;groupName;roots" per row, header first), resolving each
// comma-joined root against byRoot (built by LoadChoppedRoutes for the
// same system) and recording every root's owning connected route in
// rootOwner so the caller can detect orphans/duplicates across the
// whole corpus afterward.
func LoadConnectedRoutes(path string, sys *model.HighwaySystem, byRoot map[string]*model.Route, rootOwner map[string]*model.ConnectedRoute, dc *datacheck.Engine, errs *perr.ErrorList) []*model.ConnectedRoute {
	var out []*model.ConnectedRoute

	f, err := os.Open(path)
	if err != nil {
		errs.Add("could not open connected-route file %s: %v", path, err)
		return out
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
		if len(fields) != 5 {
			errs.Add("%s line %d: expected 5 fields, got %d", path, lineNo, len(fields))
			continue
		}
		roots := strings.Split(strings.TrimSpace(fields[4]), ",")
		cr := model.NewConnectedRoute(sys, strings.TrimSpace(fields[1]), strings.TrimSpace(fields[2]), strings.TrimSpace(fields[3]), roots)

		for i, root := range roots {
			root = strings.TrimSpace(root)
			r, found := byRoot[root]
			if !found {
				errs.Add("%s line %d: root %q not found among chopped routes", path, lineNo, root)
				continue
			}
			if owner, dup := rootOwner[root]; dup {
				errs.Add("%s line %d: root %q already claimed by connected route %s", path, lineNo, root, owner.Name)
				continue
			}
			rootOwner[root] = cr
			r.Connected = cr
			r.RootOrder = i
			cr.Routes = append(cr.Routes, r)

			if r.Banner != cr.Banner {
				dc.Add(r, "", "", "", datacheck.ConBannerMismatch, r.Banner+"/"+cr.Banner)
			}
			if r.Name != cr.Name {
				dc.Add(r, "", "", "", datacheck.ConRouteMismatch, r.Name+"/"+cr.Name)
			}
			// ABBREV_AS_CON_BANNER has no surviving original_source body
			// (Datacheck.h documents only its info-field shape); read as
			// ABBREV_AS_CHOP_BANNER's connected-route counterpart, comparing
			// against the connected route's banner instead of this chopped
			// route's own.
			if r.Abbrev == "" && cr.Banner != "" && cr.Banner != r.Banner && strings.HasPrefix(r.City, cr.Banner) {
				dc.Add(r, "", "", "", datacheck.AbbrevAsConBanner, "")
			}
		}
		sys.ConnectedRoutes = append(sys.ConnectedRoutes, cr)
		out = append(out, cr)
	}
	return out
}
