package datacheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelmapping/siteupdate-go/internal/model"
	"github.com/travelmapping/siteupdate-go/internal/perr"
)

func mkRoute(root string) *model.Route {
	sys := model.NewHighwaySystem("tst", "USA", "Test", "red", 1, model.LevelActive)
	return model.NewRoute(sys, "reg", "1", "", "", "City", root, nil)
}

func TestEntriesSortedDeterministically(t *testing.T) {
	e := NewEngine()
	rb := mkRoute("tst.b")
	ra := mkRoute("tst.a")
	e.Add(rb, "Z", "", "", LabelParens, "")
	e.Add(ra, "A", "", "", LabelParens, "")

	entries := e.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "tst.a", entries[0].Route.Root)
	assert.Equal(t, "tst.b", entries[1].Route.Root)
}

func TestMarkFPsSuppressesExactMatch(t *testing.T) {
	e := NewEngine()
	r := mkRoute("tst.a")
	e.Add(r, "A", "", "", LabelSelfref, "info")

	dir := t.TempDir()
	fpPath := filepath.Join(dir, "datacheckfps.csv")
	require.NoError(t, os.WriteFile(fpPath, []byte(
		"root;label1;label2;label3;code;info\n"+
			"tst.a;A;;;LABEL_SELFREF;info\n",
	), 0644))

	errs := perr.New()
	e.ReadFPs(fpPath, errs)
	require.True(t, errs.Empty(), errs.Error())

	near, unmatched := e.MarkFPs()
	assert.Empty(t, near)
	assert.Empty(t, unmatched)

	entries := e.Entries()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].FP)
}

func TestMarkFPsReportsNearMatchAndUnmatched(t *testing.T) {
	e := NewEngine()
	r := mkRoute("tst.a")
	e.Add(r, "A", "", "", LabelSelfref, "actual-info")

	dir := t.TempDir()
	fpPath := filepath.Join(dir, "datacheckfps.csv")
	require.NoError(t, os.WriteFile(fpPath, []byte(
		"root;label1;label2;label3;code;info\n"+
			"tst.a;A;;;LABEL_SELFREF;stale-info\n"+
			"tst.b;Q;;;LABEL_SELFREF;never-matched\n",
	), 0644))

	errs := perr.New()
	e.ReadFPs(fpPath, errs)
	require.True(t, errs.Empty(), errs.Error())

	near, unmatched := e.MarkFPs()
	assert.Len(t, near, 1)
	assert.Len(t, unmatched, 1)
	assert.False(t, e.Entries()[0].FP, "near-match info mismatch should not suppress the entry")
}

func TestReadFPsRejectsAlwaysErrorCode(t *testing.T) {
	e := NewEngine()
	dir := t.TempDir()
	fpPath := filepath.Join(dir, "datacheckfps.csv")
	require.NoError(t, os.WriteFile(fpPath, []byte(
		"root;label1;label2;label3;code;info\n"+
			"tst.a;A;;;BAD_ANGLE;\n",
	), 0644))

	errs := perr.New()
	e.ReadFPs(fpPath, errs)
	assert.False(t, errs.Empty(), "BAD_ANGLE cannot be suppressed as a false positive")
}

func TestWriteLogSkipsFPEntries(t *testing.T) {
	e := NewEngine()
	r := mkRoute("tst.a")
	e.Add(r, "A", "", "", LabelParens, "")
	e.entries[0].FP = true

	dir := t.TempDir()
	logPath := filepath.Join(dir, "datacheck.log")
	require.NoError(t, e.WriteLog(logPath))

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Empty(t, string(data))
}
