// internal/data/reference.go

// Package data loads the two input files of a run: the master reference
// table mapping each distribution-point code to its filter attributes, and
// the daily work list of codes to create tickets for. Both readers take an
// afero filesystem so tests run against an in-memory fs.
package data

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ReferenceEntry is one master-table row: the attributes needed to filter
// the board for a code. Line is the 1-based source row, kept for operator
// diagnostics.
type ReferenceEntry struct {
	Code       string
	City       string
	RegionCode string
	Line       int
}

// Required master-table columns, matched after trimming the header cells.
const (
	colCode   = "Kode_DP"
	colCity   = "City"
	colRegion = "RK"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// LoadReference reads the master table at path. The file may carry a UTF-8
// BOM and may be comma, semicolon or tab separated; the delimiter is sniffed
// from the header line. Rows missing any required value are skipped with a
// warning naming the row; a later row for the same code overwrites the
// earlier one.
func LoadReference(fsys afero.Fs, path string, logger *zap.Logger) (map[string]ReferenceEntry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("data")

	content, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read master table %s: %w", path, err)
	}
	content = bytes.TrimPrefix(content, utf8BOM)

	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = sniffDelimiter(content)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("master table %s is empty or invalid: %w", path, err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range []string{colCode, colCity, colRegion} {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("master table %s is missing required columns: %s",
			path, strings.Join(missing, ", "))
	}

	entries := make(map[string]ReferenceEntry)
	// Row numbering matches spreadsheet intuition: header is row 1.
	for row := 2; ; row++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Warn("Skipping unreadable master row.", zap.Int("row", row), zap.Error(err))
			continue
		}
		code := cell(rec, idx[colCode])
		city := cell(rec, idx[colCity])
		region := cell(rec, idx[colRegion])
		if code == "" || city == "" || region == "" {
			log.Warn("Skipping incomplete master row.", zap.Int("row", row), zap.String("code", code))
			continue
		}
		entries[code] = ReferenceEntry{Code: code, City: city, RegionCode: region, Line: row}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("master table %s holds no usable rows", path)
	}
	log.Info("Master table loaded.", zap.Int("entries", len(entries)), zap.String("path", path))
	return entries, nil
}

// cell reads rec[i] trimmed, tolerating short rows.
func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// sniffDelimiter picks the separator that splits the header line into the
// most cells. Comma wins ties, matching the common export format.
func sniffDelimiter(content []byte) rune {
	line := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		line = content[:i]
	}
	best, cells := ',', 0
	for _, cand := range []rune{',', ';', '\t'} {
		if n := bytes.Count(line, []byte(string(cand))); n > cells {
			best, cells = cand, n
		}
	}
	return best
}
