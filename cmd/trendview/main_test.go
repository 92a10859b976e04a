package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plantCSV = `time,PT-101,FT-300,TT-200,PT-900
unit,bar,kPa,degC,Pa
0,5.0,5000,6.0,500000
1,5.5,5100,6.5,501000
2,4.5,4900,5.5,499000
3,5.2,5050,6.2,500500
`

func writeCSV(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "plant.csv")
	require.NoError(t, os.WriteFile(path, []byte(plantCSV), 0o644))
	return path
}

func TestRun_ImportPlotExport(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	err := run(options{
		DB:     filepath.Join(dir, "samples.db"),
		Import: writeCSV(t, dir),
		Out:    filepath.Join(dir, "charts", "plant.html"),
	}, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "plotted FT-300 on primary axis")
	assert.Contains(t, text, "plotted PT-101 on secondary axis")
	assert.Contains(t, text, "plotted TT-200 on secondary axis")
	assert.Contains(t, text, "warning: PT-900 does not fit")

	html, err := os.ReadFile(filepath.Join(dir, "charts", "plant.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "Value (kPa)")
	assert.Contains(t, string(html), "Value (bar, degC)")
}

func TestRun_CompareModePNG(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "samples.db")
	var out bytes.Buffer

	require.NoError(t, run(options{DB: db, Import: writeCSV(t, dir), Out: filepath.Join(dir, "a.png")}, &out))

	// the second run reads the stored samples without importing again
	out.Reset()
	err := run(options{
		DB:      db,
		Signals: []string{"PT-101", "PT-900"},
		Compare: true,
		Method:  "robust_minmax",
		Out:     filepath.Join(dir, "b.png"),
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "compare mode: robust_minmax over entire_series")

	png, err := os.ReadFile(filepath.Join(dir, "b.png"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "samples.db")

	err := run(options{DB: db, Out: filepath.Join(dir, "x.png")}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "no signals to plot")

	err = run(options{DB: db, Import: writeCSV(t, dir), Method: "zscore", Out: filepath.Join(dir, "x.png")}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "zscore")

	err = run(options{DB: db, Signals: []string{"PT-101"}, Out: filepath.Join(dir, "x.svg")}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unsupported extension")
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
}
