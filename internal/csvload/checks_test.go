package csvload

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/travelmapping/siteupdate-go/internal/datacheck"
	"github.com/travelmapping/siteupdate-go/internal/geo"
	"github.com/travelmapping/siteupdate-go/internal/model"
)

func hasCode(dc *datacheck.Engine, code datacheck.Code) bool {
	for _, e := range dc.Entries() {
		if e.Code == code {
			return true
		}
	}
	return false
}

func mkSysRoute(name, banner, abbrev, city string) (*model.HighwaySystem, *model.Route) {
	sys := model.NewHighwaySystem("tst", "USA", "Test System", "red", 1, model.LevelActive)
	r := model.NewRoute(sys, "tst", name, banner, abbrev, city, "tst.test"+name, nil)
	return sys, r
}

func TestCheckLabelShapeNewChecks(t *testing.T) {
	_, r := mkSysRoute("40", "", "", "City")
	dc := datacheck.NewEngine()

	checkLabelShape(r, "I-40Bus", dc)
	assert.True(t, hasCode(dc, datacheck.BusWithI))

	dc = datacheck.NewEngine()
	checkLabelShape(r, "X123456", dc)
	assert.True(t, hasCode(dc, datacheck.LabelLooksHidden))

	dc = datacheck.NewEngine()
	checkLabelShape(r, "50a", dc)
	assert.True(t, hasCode(dc, datacheck.LowercaseSuffix))

	dc = datacheck.NewEngine()
	checkLabelShape(r, "abc", dc)
	assert.True(t, hasCode(dc, datacheck.LabelLowercase))

	dc = datacheck.NewEngine()
	long := ""
	for i := 0; i < 101; i++ {
		long += "A"
	}
	checkLabelShape(r, long, dc)
	assert.True(t, hasCode(dc, datacheck.LabelTooLong))
}

func TestCheckLabelSelfref(t *testing.T) {
	_, r := mkSysRoute("5", "", "", "City")
	dc := datacheck.NewEngine()
	checkLabelShape(r, "NY5/5", dc)
	assert.True(t, hasCode(dc, datacheck.LabelSelfref))

	dc = datacheck.NewEngine()
	checkLabelShape(r, "5_1", dc)
	assert.True(t, hasCode(dc, datacheck.LabelSelfref))

	dc = datacheck.NewEngine()
	checkLabelShape(r, "NY50", dc)
	assert.False(t, hasCode(dc, datacheck.LabelSelfref))
}

func TestCheckLacksGeneric(t *testing.T) {
	_, r := mkSysRoute("50", "Bus", "", "City")
	w := model.NewWaypoint("50", nil, geo.Point{Lat: 35, Lng: -106}, r)
	dc := datacheck.NewEngine()
	checkLacksGeneric(r, w, dc)
	assert.True(t, hasCode(dc, datacheck.LacksGeneric))

	_, r2 := mkSysRoute("50", "", "", "City")
	w2 := model.NewWaypoint("50", nil, geo.Point{Lat: 35, Lng: -106}, r2)
	dc = datacheck.NewEngine()
	checkLacksGeneric(r2, w2, dc)
	assert.False(t, hasCode(dc, datacheck.LacksGeneric))
}

func TestRaiseRouteIntegrityChecks(t *testing.T) {
	_, chopBanner := mkSysRoute("1", "Spur", "", "Spurtown")
	_, noCity := mkSysRoute("2", "", "SP", "")
	dc := datacheck.NewEngine()
	raiseRouteIntegrityChecks([]*model.Route{chopBanner, noCity}, dc)
	assert.True(t, hasCode(dc, datacheck.AbbrevAsChopBanner))
	assert.True(t, hasCode(dc, datacheck.AbbrevNoCity))
}

func TestRaiseCombineConRoutes(t *testing.T) {
	sys := model.NewHighwaySystem("tst", "USA", "Test System", "red", 1, model.LevelActive)

	r1 := model.NewRoute(sys, "reg1", "1", "", "", "City A", "tst.reg1one", nil)
	r2 := model.NewRoute(sys, "reg2", "1", "", "", "City B", "tst.reg2one", nil)

	w1b := model.NewWaypoint("Beg", nil, geo.Point{Lat: 36, Lng: -107}, r1)
	w1 := model.NewWaypoint("End", nil, geo.Point{Lat: 35, Lng: -106}, r1)
	r1.Waypoints = []*model.Waypoint{w1b, w1}

	w2 := model.NewWaypoint("Start", nil, geo.Point{Lat: 35, Lng: -106}, r2)
	w2b := model.NewWaypoint("Fin", nil, geo.Point{Lat: 38, Lng: -109}, r2)
	r2.Waypoints = []*model.Waypoint{w2, w2b}

	model.NewColocatedGroup(w1, w2)

	cr1 := model.NewConnectedRoute(sys, "1", "", "", []string{"tst.reg1one"})
	cr1.Routes = []*model.Route{r1}
	cr2 := model.NewConnectedRoute(sys, "1", "", "", []string{"tst.reg2one"})
	cr2.Routes = []*model.Route{r2}
	r1.Connected = cr1
	r2.Connected = cr2

	dc := datacheck.NewEngine()
	raiseCombineConRoutes([]*model.ConnectedRoute{cr1, cr2}, dc)
	assert.True(t, hasCode(dc, datacheck.CombineConRoutes))
}

func TestRaiseMultiRegionOverlap(t *testing.T) {
	sys := model.NewHighwaySystem("tst", "USA", "Test System", "red", 1, model.LevelActive)
	ra := model.NewRoute(sys, "reg1", "1", "", "", "City", "tst.a", nil)
	rb := model.NewRoute(sys, "reg2", "1", "", "", "City", "tst.b", nil)
	rc := model.NewRoute(sys, "reg1", "1", "", "", "City", "tst.c", nil)

	cr := model.NewConnectedRoute(sys, "1", "", "", []string{"tst.a", "tst.b", "tst.c"})
	cr.Routes = []*model.Route{ra, rb, rc}

	dc := datacheck.NewEngine()
	raiseMultiRegionOverlap([]*model.ConnectedRoute{cr}, dc)
	assert.True(t, hasCode(dc, datacheck.MultiRegionOverlap))
}
