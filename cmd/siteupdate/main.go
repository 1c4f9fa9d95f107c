// Command siteupdate runs the Travel Mapping batch pipeline end to
// end: load the corpus, run the datacheck/concurrency/NMP passes,
// process traveler lists, compute stats, build and write the highway
// graph, and emit the SQL load script — gated by the ErrorList check
// spec §7 requires before the graph and SQL output is written (the
// logs and stats files are written before that check).
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/travelmapping/siteupdate-go/internal/concurrency"
	"github.com/travelmapping/siteupdate-go/internal/config"
	"github.com/travelmapping/siteupdate-go/internal/csvload"
	"github.com/travelmapping/siteupdate-go/internal/datacheck"
	"github.com/travelmapping/siteupdate-go/internal/dbstore"
	"github.com/travelmapping/siteupdate-go/internal/graphbuild"
	"github.com/travelmapping/siteupdate-go/internal/model"
	"github.com/travelmapping/siteupdate-go/internal/nmp"
	"github.com/travelmapping/siteupdate-go/internal/obslog"
	"github.com/travelmapping/siteupdate-go/internal/perr"
	"github.com/travelmapping/siteupdate-go/internal/pidlock"
	"github.com/travelmapping/siteupdate-go/internal/sqlout"
	"github.com/travelmapping/siteupdate-go/internal/stats"
	"github.com/travelmapping/siteupdate-go/internal/subgraph"
	"github.com/travelmapping/siteupdate-go/internal/traveler"
	"github.com/travelmapping/siteupdate-go/internal/workpool"
)

// flags mirrors spec §6's CLI surface; cobra binds each flag into this
// struct, and buildConfig copies the values over the loaded
// config.Config.
type flags struct {
	configFile      string
	dataPath        string
	systemsFile     string
	userListPath    string
	userListExt     string
	databaseName    string
	logFilePath     string
	csvStatFilePath string
	graphFilePath   string
	nmpMergePath    string
	splitRegionPath string
	splitRegionSfx  string
	splitRegionCode string
	users           []string
	numThreads      int
	timePrecision   int
	errorCheck      bool
	skipGraphs      bool
	colocationLimit int
	nmpThreshold    float64
	verifyLoad      bool
}

func main() {
	f := &flags{}
	root := &cobra.Command{
		Use:   "siteupdate",
		Short: "Load, validate, and emit the Travel Mapping highway-data corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f)
		},
	}

	root.Flags().StringVar(&f.configFile, "config", "", "path to siteupdate.yaml (optional)")
	root.Flags().StringVar(&f.dataPath, "data-path", "", "root directory of the highway-data checkout")
	root.Flags().StringVar(&f.systemsFile, "systems-file", "systems.csv", "path to systems.csv, relative to data-path")
	root.Flags().StringVar(&f.userListPath, "user-list-file-path", "", "directory containing .list files")
	root.Flags().StringVar(&f.userListExt, "user-list-extension", ".list", "file extension for traveler list files")
	root.Flags().StringVar(&f.databaseName, "database-name", "", "output SQL filename, or a DSN when --verify-load is set")
	root.Flags().StringVar(&f.logFilePath, "log-file-path", "siteupdate.log", "run log path")
	root.Flags().StringVar(&f.csvStatFilePath, "csv-stat-file-path", "", "directory for per-system stats CSVs")
	root.Flags().StringVar(&f.graphFilePath, "graph-file-path", "", "directory for .tmg output")
	root.Flags().StringVar(&f.nmpMergePath, "nmp-merge-path", "", "nmp-merged WPT directory (accepted and stored; no rewrite is performed)")
	root.Flags().StringVar(&f.splitRegionPath, "split-region-path", "", "when non-empty, runs the split-region check (the file itself is not read)")
	root.Flags().StringVar(&f.splitRegionSfx, "split-region-suffix", "", "split-region chopped-route suffix (accepted and stored; not used)")
	root.Flags().StringVar(&f.splitRegionCode, "split-region-code", "", "split-region region code")
	root.Flags().StringSliceVar(&f.users, "user-list", nil, "restrict traveler processing to these names (repeatable)")
	root.Flags().IntVar(&f.numThreads, "num-threads", 4, "worker pool size")
	root.Flags().IntVar(&f.timePrecision, "time-precision", 0, "decimal digits for timing output (accepted and stored; not used)")
	root.Flags().BoolVar(&f.errorCheck, "error-check", false, "skip DB/graph emission; exit non-zero on any ErrorList entry")
	root.Flags().BoolVar(&f.skipGraphs, "skip-graphs", false, "skip subgraph/TMG emission")
	root.Flags().IntVar(&f.colocationLimit, "colocation-limit", 50, "quadtree leaf-refine threshold (accepted and stored; the quadtree uses a fixed 50)")
	root.Flags().Float64Var(&f.nmpThreshold, "nmp-threshold", 0.0005, "near-miss-point tolerance, in degrees")
	root.Flags().BoolVar(&f.verifyLoad, "verify-load", false, "execute the emitted script against --database-name as a smoke check")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f *flags) error {
	cfg, err := buildConfig(f)
	if err != nil {
		return err
	}

	logFile, err := os.Create(cfg.Paths.LogFilePath)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger := obslog.NewFileLogger(logFile)
	ctx = obslog.WithLogger(ctx, logger)
	metrics := obslog.NewMetrics()

	runID := uuid.New().String()
	logger.Log("INFO", "starting siteupdate run", map[string]any{"run_id": runID})

	lock := pidlock.New(filepath.Join(cfg.Paths.DataPath, ".siteupdate.lock"))
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer lock.Release()

	errs := perr.New()
	dc := datacheck.NewEngine()

	start := time.Now()
	systemsFile := cfg.Paths.SystemsFile
	if !filepath.IsAbs(systemsFile) {
		systemsFile = filepath.Join(cfg.Paths.DataPath, systemsFile)
	}
	corpus := csvload.LoadAll(cfg.Paths.DataPath, systemsFile, cfg.Run.NumThreads, dc, errs, cfg.Run.NMPThreshold)
	logger.Log("INFO", "corpus loaded", map[string]any{"routes": len(corpus.Routes), "elapsed": time.Since(start).String()})
	for range corpus.Routes {
		metrics.RoutesLoaded.Inc()
	}

	var systems []*model.HighwaySystem
	for _, h := range corpus.Systems {
		systems = append(systems, h)
	}

	concurrencyLog := filepath.Join(filepath.Dir(cfg.Paths.LogFilePath), "concurrencies.log")
	if err := concurrency.Detect(systems, concurrencyLog); err != nil {
		errs.AddErr(err)
	}
	if cfg.Run.SplitRegion.Path != "" {
		if err := concurrency.CheckSplitRegion(systems, cfg.Run.SplitRegion.RegionCode, filepath.Dir(cfg.Paths.LogFilePath)); err != nil {
			errs.AddErr(err)
		}
	}

	dc.ReadFPs(filepath.Join(cfg.Paths.DataPath, "datacheckfps.csv"), errs)

	fps, _ := nmp.ReadFPList(filepath.Join(cfg.Paths.DataPath, "nmpfps.log"))
	nmpReport := nmp.BuildParallel(ctx, allWaypoints(corpus), fps, cfg.Run.NumThreads)
	logDir := filepath.Dir(cfg.Paths.LogFilePath)
	_ = nmp.WriteNearMissPoints(filepath.Join(logDir, "nearmisspoints.log"), nmpReport)
	_ = nmp.WriteTMMaster(filepath.Join(logDir, "tm-master.nmp"), nmpReport)
	_ = nmp.WriteUnmatchedFPs(filepath.Join(logDir, "nmpfpsunmatched.log"), nmpReport)

	usage := traveler.NewUsage(corpus.Routes)
	idx := traveler.BuildRouteIndex(corpus.Routes)
	travelerLists := loadTravelers(ctx, cfg, idx, usage, errs)

	continents := csvload.LoadContinents(filepath.Join(cfg.Paths.DataPath, "continents.csv"), errs)
	countries := csvload.LoadCountries(filepath.Join(cfg.Paths.DataPath, "countries.csv"), errs)
	regions := csvload.LoadRegions(filepath.Join(cfg.Paths.DataPath, "regions.csv"), errs)
	updates := csvload.LoadUpdates(filepath.Join(cfg.Paths.DataPath, "updates.csv"), errs)
	systemUpdates := csvload.LoadSystemUpdates(filepath.Join(cfg.Paths.DataPath, "systemupdates.csv"), errs)

	rs := stats.NewRegionStats(regions)
	stats.ComputeParallel(ctx, systems, rs, cfg.Run.NumThreads)
	byName := make(map[string]*model.TravelerList, len(travelerLists))
	for _, tl := range travelerLists {
		byName[tl.Name] = tl
	}
	stats.CreditAllTravelers(systems, byName)
	_ = stats.Write(filepath.Join(logDir, "highwaydatastats.log"), regions, systems)
	if cfg.Paths.CSVStatFilePath != "" {
		_ = stats.WriteRegionCSVs(cfg.Paths.CSVStatFilePath, regions, travelerLists)
		_ = stats.WriteSystemCSVsParallel(ctx, cfg.Paths.CSVStatFilePath, systems, cfg.Run.NumThreads)
	}

	_ = usage.WritePointsInUse(filepath.Join(logDir, "pointsinuse.log"))
	_ = usage.WriteUnusedAltLabels(filepath.Join(logDir, "unusedaltlabels.log"))
	_ = usage.WriteListNamesInUse(filepath.Join(logDir, "listnamesinuse.log"))
	_ = usage.WriteUnusedAltRouteNames(filepath.Join(logDir, "unusedaltroutenames.log"))
	_ = traveler.WriteFlippedRoutes(filepath.Join(logDir, "flippedroutes.log"), corpus.Routes)

	nearMatches, unmatched := dc.MarkFPs()
	_ = datacheck.WriteNearMatchFPs(filepath.Join(logDir, "nearmatchfps.log"), nearMatches)
	_ = datacheck.WriteUnmatchedFPs(filepath.Join(logDir, "unmatchedfps.log"), unmatched)
	_ = dc.WriteLog(filepath.Join(logDir, "datacheck.log"))
	for _, e := range dc.Entries() {
		metrics.DatacheckByCode.WithLabelValues(string(e.Code)).Inc()
	}
	for _, h := range systems {
		for _, r := range h.Routes {
			metrics.SegmentsBuilt.Add(float64(len(r.Segments)))
		}
	}

	if cfg.Run.ErrorCheck || !errs.Empty() {
		logger.Log("ERROR", "aborting before DB/graph emission", map[string]any{"errors": errs.Len()})
		_ = metrics.WriteTo(cfg.Paths.LogFilePath + ".metrics")
		if !errs.Empty() {
			return errs
		}
		return nil
	}

	var g *graphbuild.Graph
	var graphRows []subgraph.Row
	graphCategories := make(map[subgraph.Category]bool)
	if !cfg.Run.SkipGraphs && cfg.Paths.GraphFilePath != "" {
		writeStart := time.Now()
		corpus.Tree.Sort(cfg.Run.NumThreads)
		g = graphbuild.Build(corpus.Tree.PointList(), systems, dc)
		_ = writeNamingLog(filepath.Join(logDir, "waypointsimplification.log"), g.NamingLog)
		travelerNames := make([]string, 0, len(travelerLists))
		for _, tl := range travelerLists {
			travelerNames = append(travelerNames, tl.Name)
		}

		descriptors := buildGraphDescriptors(cfg, systems, regions, countries, continents, errs)
		perDescriptor := make([][3]subgraph.Row, len(descriptors))
		wrote := make([]bool, len(descriptors))
		_ = workpool.Run(ctx, indices(len(descriptors)), cfg.Run.NumThreads, func(_ context.Context, i int) error {
			rows, err := subgraph.WriteAll(g, descriptors[i], cfg.Paths.GraphFilePath, travelerNames)
			if err != nil {
				errs.AddErr(err)
				return nil
			}
			perDescriptor[i] = rows
			wrote[i] = true
			return nil
		})
		for i, d := range descriptors {
			if !wrote[i] {
				continue
			}
			graphRows = append(graphRows, perDescriptor[i][:]...)
			graphCategories[d.Category] = true
		}
		metrics.GraphWriteSecs.Observe(time.Since(writeStart).Seconds())
	}

	if cfg.Paths.DatabaseName != "" {
		data := buildEmitData(corpus, regions, countries, continents, updates, systemUpdates, systems, dc, graphRows, graphCategories, travelerLists)
		script, err := sqlout.Generate(data)
		if err != nil {
			errs.AddErr(err)
		} else if cfg.Run.VerifyLoad {
			db, err := dbstore.Connect(cfg.Paths.DatabaseName)
			if err != nil {
				errs.AddErr(err)
			} else if err := dbstore.VerifyLoad(ctx, db, script); err != nil {
				errs.AddErr(err)
			}
		} else if err := os.WriteFile(cfg.Paths.DatabaseName, []byte(script), 0644); err != nil {
			errs.AddErr(err)
		}
	}

	_ = metrics.WriteTo(cfg.Paths.LogFilePath + ".metrics")
	logger.Log("INFO", "run complete", map[string]any{"run_id": runID, "elapsed": time.Since(start).String()})
	if !errs.Empty() {
		return errs
	}
	return nil
}

func buildConfig(f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return nil, err
	}
	if f.dataPath != "" {
		cfg.Paths.DataPath = f.dataPath
	}
	if f.systemsFile != "" {
		cfg.Paths.SystemsFile = f.systemsFile
	}
	cfg.Paths.UserListPath = f.userListPath
	cfg.Paths.UserListExt = f.userListExt
	cfg.Paths.DatabaseName = f.databaseName
	if f.logFilePath != "" {
		cfg.Paths.LogFilePath = f.logFilePath
	}
	cfg.Paths.CSVStatFilePath = f.csvStatFilePath
	cfg.Paths.GraphFilePath = f.graphFilePath
	cfg.Paths.NMPMergePath = f.nmpMergePath
	cfg.Run.SplitRegion = config.SplitRegion{Path: f.splitRegionPath, Suffix: f.splitRegionSfx, RegionCode: f.splitRegionCode}
	cfg.Run.Users = f.users
	if f.numThreads > 0 {
		cfg.Run.NumThreads = f.numThreads
	}
	cfg.Run.TimePrecision = f.timePrecision
	cfg.Run.ErrorCheck = f.errorCheck
	cfg.Run.SkipGraphs = f.skipGraphs
	if f.colocationLimit > 0 {
		cfg.Run.ColocationLimit = f.colocationLimit
	}
	if f.nmpThreshold > 0 {
		cfg.Run.NMPThreshold = f.nmpThreshold
	}
	cfg.Run.VerifyLoad = f.verifyLoad

	config.SetDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// writeNamingLog writes the graph builder's vertex-naming fallback
// narration (graphbuild.Graph.NamingLog) to path, one line per entry in
// the order names were resolved.
func writeNamingLog(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	return nil
}

// buildGraphDescriptors resolves every subgraph §4.K names: the master
// graph, the implicit per-region/country/continent graphs, and every
// graphs/*.csv-listed area/system/multisystem/multiregion/fullcustom
// graph. Missing graph-list CSVs are skipped by the os.Stat checks below
// and nothing is recorded for them; only files that exist contribute rows.
func buildGraphDescriptors(cfg *config.Config, systems []*model.HighwaySystem, regions map[string]*model.Region, countries map[string]*model.Country, continents map[string]*model.Continent, errs *perr.ErrorList) []subgraph.Descriptor {
	out := []subgraph.Descriptor{{Category: subgraph.CategoryMaster, Root: "tm-master", Descr: "Master graph"}}
	out = append(out, subgraph.Implicit(systems, regions, countries, continents)...)

	byCode := make(map[string]*model.HighwaySystem, len(systems))
	for _, h := range systems {
		byCode[h.Code] = h
	}

	graphsDir := filepath.Join(cfg.Paths.DataPath, "graphs")
	if _, err := os.Stat(filepath.Join(graphsDir, "systemgraphs.csv")); err == nil {
		out = append(out, subgraph.LoadSystemGraphsList(filepath.Join(graphsDir, "systemgraphs.csv"), byCode, errs)...)
	}
	if _, err := os.Stat(filepath.Join(graphsDir, "areagraphs.csv")); err == nil {
		out = append(out, subgraph.LoadAreaGraphs(filepath.Join(graphsDir, "areagraphs.csv"), errs)...)
	}
	if _, err := os.Stat(filepath.Join(graphsDir, "multiregion.csv")); err == nil {
		out = append(out, subgraph.LoadMultiRegion(filepath.Join(graphsDir, "multiregion.csv"), errs)...)
	}
	if _, err := os.Stat(filepath.Join(graphsDir, "multisystem.csv")); err == nil {
		out = append(out, subgraph.LoadMultiSystem(filepath.Join(graphsDir, "multisystem.csv"), byCode, errs)...)
	}
	if _, err := os.Stat(filepath.Join(graphsDir, "fullcustom.csv")); err == nil {
		out = append(out, subgraph.LoadFullCustom(filepath.Join(graphsDir, "fullcustom.csv"), byCode, errs)...)
	}
	return out
}

func allWaypoints(c *csvload.Corpus) []*model.Waypoint {
	var out []*model.Waypoint
	for _, r := range c.Routes {
		out = append(out, r.Waypoints...)
	}
	return out
}

// loadTravelers fans traveler-list parsing out across cfg.Run.NumThreads
// workers sharing one cursor into the matched directory entries (§4.M):
// each .list file only ever mutates its own TravelerList and writes its
// own per-user log, so the only shared state workers touch is the
// RouteIndex map, which is only read, plus the segment clincher sets
// and Usage accumulator, which lock internally.
func loadTravelers(ctx context.Context, cfg *config.Config, idx traveler.RouteIndex, usage *traveler.Usage, errs *perr.ErrorList) []*model.TravelerList {
	if cfg.Paths.UserListPath == "" {
		return nil
	}
	entries, err := os.ReadDir(cfg.Paths.UserListPath)
	if err != nil {
		errs.AddErr(err)
		return nil
	}
	names := cfg.Run.Users
	restrict := make(map[string]bool, len(names))
	for _, n := range names {
		restrict[n] = true
	}

	var matched []os.DirEntry
	for _, ent := range entries {
		if ent.IsDir() || filepath.Ext(ent.Name()) != cfg.Paths.UserListExt {
			continue
		}
		name := ent.Name()[:len(ent.Name())-len(cfg.Paths.UserListExt)]
		if len(restrict) > 0 && !restrict[name] {
			continue
		}
		matched = append(matched, ent)
	}

	userLogDir := filepath.Join(filepath.Dir(cfg.Paths.LogFilePath), "users")
	results := make([]*model.TravelerList, len(matched))
	_ = workpool.Run(ctx, indices(len(matched)), cfg.Run.NumThreads, func(_ context.Context, i int) error {
		ent := matched[i]
		name := ent.Name()[:len(ent.Name())-len(cfg.Paths.UserListExt)]
		tl := model.NewTravelerList(name)
		out, err := traveler.LoadFile(filepath.Join(cfg.Paths.UserListPath, ent.Name()), idx, tl, usage)
		if err != nil {
			errs.AddErr(err)
			return nil
		}
		_ = traveler.WriteUserLog(userLogDir, name, out)
		results[i] = tl
		return nil
	})

	lists := make([]*model.TravelerList, 0, len(results))
	for _, tl := range results {
		if tl != nil {
			lists = append(lists, tl)
		}
	}
	return lists
}

// indices returns [0, n).
func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// buildEmitData assembles every table spec §4.L names from the loaded
// corpus, reference CSVs, stats rollups, datacheck findings, and
// subgraph-write results.
func buildEmitData(
	corpus *csvload.Corpus,
	regions map[string]*model.Region,
	countries map[string]*model.Country,
	continents map[string]*model.Continent,
	updates []model.Update,
	systemUpdates []model.SystemUpdate,
	systems []*model.HighwaySystem,
	dc *datacheck.Engine,
	graphRows []subgraph.Row,
	graphCategories map[subgraph.Category]bool,
	travelerLists []*model.TravelerList,
) *sqlout.Data {
	data := &sqlout.Data{}

	for code, c := range continents {
		data.Continents = append(data.Continents, sqlout.Continent{Code: code, Name: c.Name})
	}
	for code, c := range countries {
		data.Countries = append(data.Countries, sqlout.Country{Code: code, Name: c.Name})
	}
	for code, r := range regions {
		data.Regions = append(data.Regions, sqlout.Region{Code: code, Name: r.Name, Country: r.Country, Continent: r.Continent, Type: r.Type})
		data.OverallMileageByRegion = append(data.OverallMileageByRegion, sqlout.OverallMileageByRegion{
			Region: code, ActiveOnly: r.ActiveOnly, ActivePreview: r.ActivePreview, Overall: r.Overall,
		})
	}
	for _, u := range updates {
		data.Updates = append(data.Updates, sqlout.Update{Date: u.Date, Region: u.Region, Route: u.Route, Description: u.Description})
	}
	for _, su := range systemUpdates {
		data.SystemUpdates = append(data.SystemUpdates, sqlout.SystemUpdate{
			Date: su.Date, Region: su.Region, SystemName: su.SystemName, StatusChange: su.StatusChange,
		})
	}

	connectedRouteID := 1
	crID := make(map[*model.ConnectedRoute]int)
	for _, h := range systems {
		data.Systems = append(data.Systems, sqlout.System{
			Name: h.Code, Country: h.Country, FullName: h.FullName, Color: h.Color, Tier: h.Tier, Level: string(h.Level),
		})
		for region, miles := range h.MileageByRegion() {
			data.SystemMileageByRegion = append(data.SystemMileageByRegion, sqlout.SystemMileageByRegion{
				SystemName: h.Code, Region: region, Mileage: miles,
			})
		}
		for _, r := range h.Routes {
			data.Routes = append(data.Routes, sqlout.Route{
				SystemName: h.Code, Region: r.Region, Route: r.Name, Banner: r.Banner,
				Abbrev: r.Abbrev, City: r.City, Root: r.Root,
			})
		}
		for _, cr := range h.ConnectedRoutes {
			id := connectedRouteID
			connectedRouteID++
			crID[cr] = id
			firstRoot := ""
			if len(cr.Roots) > 0 {
				firstRoot = cr.Roots[0]
			}
			data.ConnectedRoutes = append(data.ConnectedRoutes, sqlout.ConnectedRoute{
				ID: id, SystemName: h.Code, Route: cr.Name, Banner: cr.Banner, GroupName: cr.GroupName, FirstRoot: firstRoot,
			})
			for order, root := range cr.Roots {
				data.ConnectedRouteRoots = append(data.ConnectedRouteRoots, sqlout.ConnectedRouteRoot{
					ConnectedRouteID: id, Root: root, RootOrder: order,
				})
			}
		}
	}

	nextID := 1
	for _, r := range corpus.Routes {
		waypointID := make(map[*model.Waypoint]int, len(r.Waypoints))
		for _, w := range r.Waypoints {
			waypointID[w] = nextID
			data.Waypoints = append(data.Waypoints, sqlout.Waypoint{ID: nextID, Root: r.Root, Label: w.Label, Lat: w.Point.Lat, Lng: w.Point.Lng})
			nextID++
		}
		for _, s := range r.Segments {
			data.Segments = append(data.Segments, sqlout.Segment{Root: r.Root, Waypoint1: waypointID[s.W1], Waypoint2: waypointID[s.W2]})
			for _, name := range s.Clinchers() {
				data.Clinched = append(data.Clinched, sqlout.Clinched{Traveler: name})
			}
		}
	}

	for _, e := range dc.Entries() {
		root := ""
		if e.Route != nil {
			root = e.Route.Root
		}
		data.DatacheckErrors = append(data.DatacheckErrors, sqlout.DatacheckError{
			Root: root, Label1: e.Label1, Label2: e.Label2, Label3: e.Label3,
			Code: string(e.Code), Info: e.Info, FP: e.FP,
		})
	}

	for _, row := range graphRows {
		data.Graphs = append(data.Graphs, sqlout.Graph{
			Filename: row.Filename, Descr: row.Descr, VertexCount: row.VertexCount, EdgeCount: row.EdgeCount, Category: string(row.Category),
		})
	}
	cats := make([]string, 0, len(graphCategories))
	for cat := range graphCategories {
		cats = append(cats, string(cat))
	}
	sort.Strings(cats)
	for _, cat := range cats {
		data.GraphTypes = append(data.GraphTypes, sqlout.GraphType{Category: cat, Descr: subgraph.CategoryDescription(subgraph.Category(cat))})
	}

	for _, tl := range travelerLists {
		for region, miles := range tl.ActiveOnlyByRegion() {
			data.ClinchedOverallMileageByRegion = append(data.ClinchedOverallMileageByRegion, sqlout.ClinchedOverallMileageByRegion{
				Traveler: tl.Name, Region: region, ActiveOnly: miles, ActivePreview: tl.ActivePreviewByRegion()[region],
			})
		}
		for sysCode, byRegion := range tl.SystemRegion() {
			for region, miles := range byRegion {
				data.ClinchedSystemMileageByRegion = append(data.ClinchedSystemMileageByRegion, sqlout.ClinchedSystemMileageByRegion{
					Traveler: tl.Name, SystemName: sysCode, Region: region, Mileage: miles,
				})
			}
		}

		for _, r := range corpus.Routes {
			mileage, clinched := routeClinchedMileage(r, tl)
			if mileage > 0 {
				data.ClinchedRoutes = append(data.ClinchedRoutes, sqlout.ClinchedRoute{
					Traveler: tl.Name, Root: r.Root, Mileage: mileage, Clinched: clinched,
				})
			}
		}
		for _, h := range systems {
			for _, cr := range h.ConnectedRoutes {
				var total float64
				allClinched := true
				for _, r := range cr.Routes {
					miles, done := routeClinchedMileage(r, tl)
					total += miles
					allClinched = allClinched && done
				}
				if total > 0 {
					data.ClinchedConnectedRoutes = append(data.ClinchedConnectedRoutes, sqlout.ClinchedConnectedRoute{
						Traveler: tl.Name, ConnectedRouteID: crID[cr], Mileage: total, Clinched: allClinched && len(cr.Routes) > 0,
					})
				}
			}
		}
	}

	return data
}

// routeClinchedMileage sums r's segment lengths clinched by tl, and
// reports whether every segment in r was clinched.
func routeClinchedMileage(r *model.Route, tl *model.TravelerList) (mileage float64, clinched bool) {
	clinched = len(r.Segments) > 0
	for _, s := range r.Segments {
		if s.ClinchedBy(tl.Name) {
			mileage += s.Length()
		} else {
			clinched = false
		}
	}
	return mileage, clinched
}
