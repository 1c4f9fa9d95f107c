package csvload

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/travelmapping/siteupdate-go/internal/model"
	"github.com/travelmapping/siteupdate-go/internal/perr"
)

// LoadSystems parses systems.csv ("name;country;fullname;color;tier;level"
// per row, header first) into a code-indexed map of HighwaySystem shells
// (no routes yet).
func LoadSystems(path string, errs *perr.ErrorList) map[string]*model.HighwaySystem {
	systems := make(map[string]*model.HighwaySystem)

	f, err := os.Open(path)
	if err != nil {
		errs.Add("could not open systems file %s: %v", path, err)
		return systems
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
		if len(fields) != 6 {
			errs.Add("systems.csv line %d: expected 6 fields, got %d", lineNo, len(fields))
			continue
		}
		tier, err := strconv.Atoi(strings.TrimSpace(fields[4]))
		if err != nil || tier < 1 {
			errs.Add("systems.csv line %d: invalid tier %q", lineNo, fields[4])
			continue
		}
		level := model.Level(strings.TrimSpace(fields[5]))
		if level != model.LevelActive && level != model.LevelPreview && level != model.LevelDevel {
			errs.Add("systems.csv line %d: invalid level %q", lineNo, fields[5])
			continue
		}
		code := strings.TrimSpace(fields[0])
		if len(code) > 10 {
			errs.Add("systems.csv line %d: system code %q exceeds 10 characters", lineNo, code)
			continue
		}
		if _, dup := systems[code]; dup {
			errs.Add("systems.csv line %d: duplicate system code %q", lineNo, code)
			continue
		}
		systems[code] = model.NewHighwaySystem(code, strings.TrimSpace(fields[1]), strings.TrimSpace(fields[2]), strings.TrimSpace(fields[3]), tier, level)
	}
	return systems
}
