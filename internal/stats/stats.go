// Package stats computes region/system/connected-route mileage rollups
// and per-traveler attribution (spec §4.I), grounded on
// original_source's HighwaySegment/compute_stats.cpp and
// Region/compute_stats.cpp: each segment's length is divided by however
// many concurrency-group members count toward a given denominator
// (overall, active+preview, active-only, same-system) before being
// credited to that denominator, so shared pavement is never
// double-counted.
package stats

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/travelmapping/siteupdate-go/internal/model"
	"github.com/travelmapping/siteupdate-go/internal/workpool"
)

// RegionStats aggregates per-region rollups, keyed by region code.
type RegionStats struct {
	mu      sync.Mutex
	regions map[string]*model.Region
}

// NewRegionStats wraps an externally-owned region registry; callers
// build/seed Regions (code -> *model.Region) before calling Compute.
func NewRegionStats(regions map[string]*model.Region) *RegionStats {
	return &RegionStats{regions: regions}
}

// region looks up a pre-loaded Region (populated by csvload.LoadRegions
// from regions.csv, via NewRegionStats) by code. A region referenced by
// a route but absent from regions.csv falls back to a bare
// {Code: code} shell rather than aborting the run — this only happens
// against a corpus with an incomplete regions.csv, and the resulting
// Region still accumulates correct mileage, just without Name/Country/
// Continent/Type.
func (rs *RegionStats) region(code string) *model.Region {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	r, ok := rs.regions[code]
	if !ok {
		r = &model.Region{Code: code}
		rs.regions[code] = r
	}
	return r
}

// Compute walks every system's routes and segments exactly once,
// crediting region mileage and system-by-region mileage (travelers
// are credited separately by CreditAllTravelers), dividing each segment's length by
// its concurrency group's member count for each of the four
// denominators (§4.F/§4.I).
func Compute(systems []*model.HighwaySystem, rs *RegionStats) {
	for _, h := range systems {
		computeOne(h, rs)
	}
}

// ComputeParallel is Compute fanned out across numWorkers goroutines
// sharing one cursor into systems (§4.M): each system's routes only
// ever touch that system's own mileage map and the RegionStats'
// per-region locks, so systems credit concurrently without racing.
func ComputeParallel(ctx context.Context, systems []*model.HighwaySystem, rs *RegionStats, numWorkers int) {
	_ = workpool.Run(ctx, systems, numWorkers, func(_ context.Context, h *model.HighwaySystem) error {
		computeOne(h, rs)
		return nil
	})
}

func computeOne(h *model.HighwaySystem, rs *RegionStats) {
	for _, r := range h.Routes {
		region := rs.region(r.Region)
		for _, s := range r.Segments {
			creditSegment(s, h, r, region)
		}
	}
}

func creditSegment(s *model.Segment, h *model.HighwaySystem, r *model.Route, region *model.Region) {
	overall, ap, ao, sys := model.ConcurrencyCounts(s, h)
	length := s.Length()

	region.AddMileage(length)
	var apMiles, aoMiles float64
	if h.ActiveOrPreview() {
		apMiles = length / float64(ap)
	}
	if h.Level == model.LevelActive {
		aoMiles = length / float64(ao)
	}
	region.AddStats(length/float64(overall), apMiles, aoMiles)
	h.AddMileage(r.Region, length/float64(sys))
}

// CreditTraveler applies the per-traveler share of one segment's
// mileage to tl's accumulators, matching compute_stats_t.cpp. Called
// once per (traveler, clinched segment) pair after Compute has run so
// the concurrency-group sizes are final.
func CreditTraveler(s *model.Segment, h *model.HighwaySystem, tl *model.TravelerList) {
	_, ap, ao, sys := model.ConcurrencyCounts(s, h)
	length := s.Length()
	region := s.Route.Region

	tl.EnsureRegionKeys(region)
	tl.AddActivePreview(region, length/float64(ap))
	if h.Level == model.LevelActive {
		tl.AddActiveOnly(region, length/float64(ao))
	}
	tl.EnsureSystemRegionKey(h.Code, region)
	tl.AddSystemRegion(h.Code, region, length/float64(sys))
}

// CreditAllTravelers runs CreditTraveler for every segment's recorded
// clincher, given a name->TravelerList registry.
func CreditAllTravelers(systems []*model.HighwaySystem, byName map[string]*model.TravelerList) {
	for _, h := range systems {
		for _, r := range h.Routes {
			for _, s := range r.Segments {
				for _, name := range s.Clinchers() {
					if tl, ok := byName[name]; ok {
						CreditTraveler(s, h, tl)
					}
				}
			}
		}
	}
}

// WriteRegionCSVs writes allbyregionactiveonly.csv and
// allbyregionactivepreview.csv into dir: one row per traveler, one
// column per region that carries nonzero mileage of that kind, plus a
// leading Total column and a trailing TOTAL row — grounded on
// allbyregionactiveonly.cpp/allbyregionactivepreview.cpp.
func WriteRegionCSVs(dir string, regions map[string]*model.Region, travelerLists []*model.TravelerList) error {
	if err := writeRegionCSV(filepath.Join(dir, "allbyregionactiveonly.csv"), regions,
		func(r *model.Region) float64 { return r.ActiveOnly },
		func(tl *model.TravelerList) map[string]float64 { return tl.ActiveOnlyByRegion() },
		func(tl *model.TravelerList) float64 { return tl.TotalActiveOnly() },
		travelerLists,
	); err != nil {
		return err
	}
	return writeRegionCSV(filepath.Join(dir, "allbyregionactivepreview.csv"), regions,
		func(r *model.Region) float64 { return r.ActivePreview },
		func(tl *model.TravelerList) map[string]float64 { return tl.ActivePreviewByRegion() },
		func(tl *model.TravelerList) float64 { return tl.TotalActivePreview() },
		travelerLists,
	)
}

func writeRegionCSV(
	path string,
	regions map[string]*model.Region,
	regionTotal func(*model.Region) float64,
	byRegion func(*model.TravelerList) map[string]float64,
	travelerTotal func(*model.TravelerList) float64,
	travelerLists []*model.TravelerList,
) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	var codes []string
	var grandTotal float64
	for _, code := range SortedRegionCodes(regions) {
		if miles := regionTotal(regions[code]); miles != 0 {
			codes = append(codes, code)
			grandTotal += miles
		}
	}

	fmt.Fprint(w, "Traveler,Total")
	for _, code := range codes {
		fmt.Fprintf(w, ",%s", code)
	}
	fmt.Fprintln(w)

	for _, tl := range travelerLists {
		byCode := byRegion(tl)
		fmt.Fprintf(w, "%s,%.2f", tl.Name, travelerTotal(tl))
		for _, code := range codes {
			fmt.Fprintf(w, ",%.2f", byCode[code])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "TOTAL,%.2f", grandTotal)
	for _, code := range codes {
		fmt.Fprintf(w, ",%.2f", regionTotal(regions[code]))
	}
	fmt.Fprintln(w)
	return nil
}

// WriteSystemCSVsParallel writes one stats CSV per highway system into
// dir, fanned out across numWorkers goroutines sharing one cursor into
// systems (§4.M) since each file only touches its own system's mileage
// map. There is no surviving original_source stats_csv() body to port
// from (only its call sites), so the row shape here — one row per
// region the system touches, with its mileage — is authored fresh from
// the same per-system MileageByRegion rollup Write already reports.
func WriteSystemCSVsParallel(ctx context.Context, dir string, systems []*model.HighwaySystem, numWorkers int) error {
	return workpool.Run(ctx, systems, numWorkers, func(_ context.Context, h *model.HighwaySystem) error {
		return writeSystemCSV(filepath.Join(dir, h.Code+".csv"), h)
	})
}

func writeSystemCSV(path string, h *model.HighwaySystem) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	fmt.Fprintln(w, "Region,Mileage")
	byRegion := h.MileageByRegion()
	codes := make([]string, 0, len(byRegion))
	for code := range byRegion {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	var total float64
	for _, code := range codes {
		miles := byRegion[code]
		total += miles
		fmt.Fprintf(w, "%s,%.2f\n", code, miles)
	}
	fmt.Fprintf(w, "TOTAL,%.2f\n", total)
	return nil
}

// SortedRegionCodes returns every region code seen, in sorted order,
// for deterministic report output.
func SortedRegionCodes(regions map[string]*model.Region) []string {
	codes := make([]string, 0, len(regions))
	for c := range regions {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Write produces highwaydatastats.log, the §4.I-mandated rollup: region
// totals, then system totals by region, then connected-route mileage,
// each section sorted for deterministic output.
func Write(path string, regions map[string]*model.Region, systems []*model.HighwaySystem) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	fmt.Fprintln(w, "Region data (overall/active-only/active-preview mileage)")
	for _, code := range SortedRegionCodes(regions) {
		r := regions[code]
		fmt.Fprintf(w, "%s: %.2f %.2f %.2f\n", code, r.Overall, r.ActiveOnly, r.ActivePreview)
	}

	byCode := make(map[string]*model.HighwaySystem, len(systems))
	codes := make([]string, 0, len(systems))
	for _, h := range systems {
		byCode[h.Code] = h
		codes = append(codes, h.Code)
	}
	sort.Strings(codes)

	fmt.Fprintln(w, "System data (mileage by region)")
	for _, code := range codes {
		h := byCode[code]
		byRegion := h.MileageByRegion()
		regionCodes := make([]string, 0, len(byRegion))
		for r := range byRegion {
			regionCodes = append(regionCodes, r)
		}
		sort.Strings(regionCodes)
		var total float64
		fmt.Fprintf(w, "%s:\n", h.Code)
		for _, r := range regionCodes {
			miles := byRegion[r]
			total += miles
			fmt.Fprintf(w, "  %s: %.2f\n", r, miles)
		}
		fmt.Fprintf(w, "  total: %.2f\n", total)
	}

	fmt.Fprintln(w, "Connected route mileage")
	for _, code := range codes {
		h := byCode[code]
		crs := append([]*model.ConnectedRoute(nil), h.ConnectedRoutes...)
		sort.Slice(crs, func(i, j int) bool {
			return crs[i].Name+crs[i].Banner < crs[j].Name+crs[j].Banner
		})
		for _, cr := range crs {
			fmt.Fprintf(w, "%s %s%s: %.2f\n", h.Code, cr.Name, cr.Banner, cr.Mileage())
		}
	}
	return nil
}
