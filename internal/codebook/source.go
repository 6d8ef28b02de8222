package codebook

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"filing-service/internal/models"
)

//go:embed data/offices.json
var embeddedFS embed.FS

// Column aliases accepted in raw codebook files. The regulator's exports use the
// c_pracufo/c_ufo attribute names; hand-maintained files tend to use the English ones.
var (
	localCodeKeys    = []string{"localcode", "local_code", "c_pracufo", "kod_pracoviste"}
	regionalCodeKeys = []string{"regionalcode", "regional_code", "c_ufo", "kod_ufo"}
	nameKeys         = []string{"name", "nazev", "naz_pracufo"}
	supersededKeys   = []string{"superseded", "zruseno", "inactive", "neplatny"}
)

// ParseRows converts loosely shaped rows into office records. Rows without a numeric
// local code are rejected with their 1-based row number.
func ParseRows(rows []map[string]interface{}) ([]models.OfficeRecord, error) {
	records := make([]models.OfficeRecord, 0, len(rows))
	for i, raw := range rows {
		row := make(map[string]interface{}, len(raw))
		for k, v := range raw {
			row[strings.ToLower(strings.TrimSpace(k))] = v
		}

		local := padCode(pick(row, localCodeKeys), 4)
		if !isDigits(local) {
			return nil, fmt.Errorf("row %d: invalid local office code %q", i+1, pick(row, localCodeKeys))
		}
		regional := padCode(pick(row, regionalCodeKeys), 3)
		if regional != "" && !isDigits(regional) {
			return nil, fmt.Errorf("row %d: invalid regional office code %q", i+1, regional)
		}

		records = append(records, models.OfficeRecord{
			LocalCode:    local,
			RegionalCode: regional,
			Name:         pick(row, nameKeys),
			Superseded:   parseFlag(pick(row, supersededKeys)),
		})
	}
	return records, nil
}

func pick(row map[string]interface{}, keys []string) string {
	for _, k := range keys {
		v, ok := row[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			return strings.TrimSpace(t)
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(t)
		case json.Number:
			return t.String()
		default:
			return strings.TrimSpace(fmt.Sprint(t))
		}
	}
	return ""
}

func padCode(code string, width int) string {
	if code == "" || len(code) >= width || !isDigits(code) {
		return code
	}
	return strings.Repeat("0", width-len(code)) + code
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseFlag(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "a", "ano", "y", "yes":
		return true
	}
	return false
}

// EmbeddedSource serves the codebook bundled with the binary.
type EmbeddedSource struct{}

// Name implements Source
func (EmbeddedSource) Name() string { return "embedded:data/offices.json" }

// Load implements Source
func (EmbeddedSource) Load(ctx context.Context) ([]models.OfficeRecord, error) {
	content, err := embeddedFS.ReadFile("data/offices.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded codebook: %w", err)
	}
	return parseJSON(bytes.NewReader(content))
}

// FileSource reads a codebook file; the format follows the extension (.json or .xlsx).
type FileSource struct {
	Path string
}

// Name implements Source
func (s FileSource) Name() string { return "file:" + s.Path }

// Load implements Source
func (s FileSource) Load(ctx context.Context) ([]models.OfficeRecord, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open codebook: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".json":
		return parseJSON(f)
	case ".xlsx":
		return parseXLSX(f)
	default:
		return nil, fmt.Errorf("unsupported codebook format %q", filepath.Ext(s.Path))
	}
}

// NewSource returns the file source for path, or the embedded codebook when path is empty.
func NewSource(path string) Source {
	if strings.TrimSpace(path) == "" {
		return EmbeddedSource{}
	}
	return FileSource{Path: path}
}

func parseJSON(r io.Reader) ([]models.OfficeRecord, error) {
	var rows []map[string]interface{}
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode codebook JSON: %w", err)
	}
	return ParseRows(rows)
}

func parseXLSX(r io.Reader) ([]models.OfficeRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open codebook workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in codebook workbook")
	}

	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, "offices") || strings.EqualFold(name, "c_ufo") {
			sheetName = name
			break
		}
	}

	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, fmt.Errorf("codebook sheet must have a header row and at least one data row")
	}

	headers := excelRows[0]
	rows := make([]map[string]interface{}, 0, len(excelRows)-1)
	for _, excelRow := range excelRows[1:] {
		if strings.TrimSpace(strings.Join(excelRow, "")) == "" {
			continue
		}
		row := make(map[string]interface{}, len(headers))
		for i, value := range excelRow {
			if i < len(headers) {
				row[headers[i]] = value
			}
		}
		rows = append(rows, row)
	}

	return ParseRows(rows)
}
