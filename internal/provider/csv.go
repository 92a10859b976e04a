package provider

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrEmptyCSV is returned for input without a header or data rows.
var ErrEmptyCSV = errors.New("csv has no data")

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// ReadCSV reads a wide table: the first row holds a timestamp heading
// followed by one signal name per column. An optional second row whose
// first cell is not a timestamp holds units. Timestamps are unix seconds
// or one of the accepted date-time layouts (UTC unless zoned). Empty and
// "NaN" cells are gaps. Rows are sorted by timestamp.
func ReadCSV(r io.Reader) ([]Series, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, ErrEmptyCSV
	}

	header := records[0]
	if len(header) < 2 {
		return nil, fmt.Errorf("read csv: header needs a timestamp column and at least one signal")
	}
	series := make([]Series, len(header)-1)
	for i, name := range header[1:] {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("read csv: column %d has no name", i+2)
		}
		series[i].Name = name
	}

	rows := records[1:]
	if _, err := parseTimestamp(rows[0][0]); err != nil {
		for i := range series {
			if i+1 < len(rows[0]) {
				series[i].Unit = strings.TrimSpace(rows[0][i+1])
			}
		}
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, ErrEmptyCSV
	}

	type row struct {
		ts     float64
		values []float64
	}
	parsed := make([]row, 0, len(rows))
	for n, rec := range rows {
		line := n + len(records) - len(rows) + 1
		ts, err := parseTimestamp(rec[0])
		if err != nil {
			return nil, fmt.Errorf("read csv: line %d: %w", line, err)
		}
		values := make([]float64, len(series))
		for i := range series {
			cell := ""
			if i+1 < len(rec) {
				cell = strings.TrimSpace(rec[i+1])
			}
			if values[i], err = parseValue(cell); err != nil {
				return nil, fmt.Errorf("read csv: line %d column %s: %w", line, series[i].Name, err)
			}
		}
		parsed = append(parsed, row{ts: ts, values: values})
	}
	sort.SliceStable(parsed, func(a, b int) bool { return parsed[a].ts < parsed[b].ts })

	for i := range series {
		series[i].TS = make([]float64, len(parsed))
		series[i].Values = make([]float64, len(parsed))
		for j, p := range parsed {
			series[i].TS[j] = p.ts
			series[i].Values[j] = p.values[i]
		}
	}
	return series, nil
}

func parseTimestamp(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		return v, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return float64(t.UnixNano()) / 1e9, nil
		}
	}
	return 0, fmt.Errorf("invalid timestamp %q", s)
}

func parseValue(s string) (float64, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
