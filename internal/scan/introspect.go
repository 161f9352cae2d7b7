package scan

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/psych-ds/psychds-r-sub001/internal/dataset"
)

// TableInfo is the introspection result for one tabular file.
type TableInfo struct {
	File     string               `json:"file"`
	Encoding string               `json:"encoding"`
	Rows     int                  `json:"rows"`
	Columns  []dataset.ColumnInfo `json:"columns"`
}

// naTokens are the cell values treated as missing data.
var naTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"null": {},
}

func isNA(value string) bool {
	_, ok := naTokens[strings.TrimSpace(value)]
	return ok
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func isDate(value string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

func isBool(value string) bool {
	switch value {
	case "true", "false", "TRUE", "FALSE", "True", "False":
		return true
	}
	return false
}

// IntrospectCSV reads a tabular file and builds its column dictionary. The
// delimiter follows the extension (tab for .tsv, comma otherwise). Short rows
// pad missing cells as NA; cells beyond the header width are ignored.
func IntrospectCSV(path string) (*TableInfo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	text, encoding, err := decodeTable(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		reader.Comma = '\t'
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parsing %s: no header row", filepath.Base(path))
	}

	header := records[0]
	cols := make([]*columnStats, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		cols[i] = newColumnStats(name)
	}
	for _, row := range records[1:] {
		for i, col := range cols {
			value := ""
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			col.observe(value)
		}
	}

	info := &TableInfo{
		File:     filepath.ToSlash(filepath.Base(path)),
		Encoding: encoding,
		Rows:     len(records) - 1,
		Columns:  make([]dataset.ColumnInfo, len(cols)),
	}
	for i, col := range cols {
		info.Columns[i] = col.summarize()
	}
	return info, nil
}

// decodeTable converts raw file bytes to a UTF-8 string. A UTF-8 BOM is
// stripped; invalid UTF-8 is decoded as Windows-1252.
func decodeTable(raw []byte) (string, string, error) {
	if bytes.HasPrefix(raw, utf8BOM) {
		return string(raw[len(utf8BOM):]), "utf-8", nil
	}
	if utf8.Valid(raw) {
		return string(raw), "utf-8", nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", "", err
	}
	return string(decoded), "windows-1252", nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type columnStats struct {
	name    string
	seen    map[string]struct{}
	naCount int

	allInt   bool
	allFloat bool
	allBool  bool
	allDate  bool
	hasValue bool

	min float64
	max float64
}

func newColumnStats(name string) *columnStats {
	return &columnStats{
		name:     name,
		seen:     make(map[string]struct{}),
		allInt:   true,
		allFloat: true,
		allBool:  true,
		allDate:  true,
	}
}

func (c *columnStats) observe(value string) {
	if isNA(value) {
		c.naCount++
		return
	}
	c.seen[value] = struct{}{}

	if _, err := strconv.ParseInt(value, 10, 64); err != nil {
		c.allInt = false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		c.allFloat = false
	} else {
		if !c.hasValue || f < c.min {
			c.min = f
		}
		if !c.hasValue || f > c.max {
			c.max = f
		}
	}
	if !isBool(value) {
		c.allBool = false
	}
	if !isDate(value) {
		c.allDate = false
	}
	c.hasValue = true
}

func (c *columnStats) summarize() dataset.ColumnInfo {
	info := dataset.ColumnInfo{
		Name:        c.name,
		Type:        c.columnType(),
		UniqueCount: len(c.seen),
		NACount:     c.naCount,
	}
	if info.Numeric() && c.hasValue {
		minValue, maxValue := c.min, c.max
		info.Min = &minValue
		info.Max = &maxValue
	}
	return info
}

func (c *columnStats) columnType() string {
	if !c.hasValue {
		return dataset.TypeString
	}
	switch {
	case c.allBool:
		return dataset.TypeBoolean
	case c.allInt:
		return dataset.TypeInteger
	case c.allFloat:
		return dataset.TypeNumber
	case c.allDate:
		return dataset.TypeDate
	default:
		return dataset.TypeString
	}
}
