package importer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// DetectedField is one raw key/value pair extracted from an uploaded file,
// before any mapping against the parameter dictionary.
type DetectedField struct {
	OriginalName string `json:"original_name"`
	Value        any    `json:"value"`
	Unit         string `json:"unit,omitempty"`
	Context      string `json:"context,omitempty"`
}

// Analysis is the outcome of extracting fields from an uploaded file.
// Confidence reflects how trustworthy the extraction itself is; per-field
// mapping confidence is computed later against the dictionary.
type Analysis struct {
	FileName       string          `json:"file_name"`
	DetectedFields []DetectedField `json:"detected_fields"`
	Confidence     int             `json:"confidence"`
	Warnings       []string        `json:"warnings,omitempty"`
	Suggestions    []string        `json:"suggestions,omitempty"`
}

// paramLine matches "Parámetro: X, Valor: Y" style lines from text exports.
var paramLine = regexp.MustCompile(`(?i)par[áa]metro\s*:\s*([^,]+),\s*valor\s*:\s*([^,\n]+)(?:,\s*unidad\s*:\s*(\S+))?`)

// keyValueLine matches loose "name: value [unit]" lines.
var keyValueLine = regexp.MustCompile(`^\s*([^:]{2,60}):\s+(\S+)\s*(\S*)\s*$`)

// Analyze extracts raw fields from an uploaded file. CSV and JSON are
// parsed structurally; anything else goes through line-pattern extraction.
func Analyze(fileName string, rawContent []byte) (*Analysis, error) {
	if len(rawContent) == 0 {
		return nil, fmt.Errorf("file %q is empty", fileName)
	}

	a := &Analysis{FileName: fileName}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		if err := analyzeCSV(a, rawContent); err != nil {
			return nil, err
		}
		a.Confidence = 90
	case ".json":
		if err := analyzeJSON(a, rawContent); err != nil {
			return nil, err
		}
		a.Confidence = 90
	default:
		analyzeText(a, rawContent)
		a.Confidence = 60
		a.Suggestions = append(a.Suggestions, "structured CSV or JSON input gives more reliable extraction")
	}

	if len(a.DetectedFields) == 0 {
		a.Confidence = 0
		a.Warnings = append(a.Warnings, "no parameters could be extracted from the file")
	}

	return a, nil
}

func analyzeCSV(a *Analysis, raw []byte) error {
	r := csv.NewReader(strings.NewReader(string(raw)))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}

	for i, rec := range records {
		if len(rec) < 2 {
			a.Warnings = append(a.Warnings, fmt.Sprintf("row %d has no value column", i+1))
			continue
		}
		name := strings.TrimSpace(rec[0])
		value := strings.TrimSpace(rec[1])
		if name == "" || value == "" {
			continue
		}
		// Skip a header row like "parametro,valor"
		if i == 0 && looksLikeHeader(name, value) {
			continue
		}
		f := DetectedField{OriginalName: name, Value: coerceValue(value)}
		if len(rec) >= 3 {
			f.Unit = strings.TrimSpace(rec[2])
		}
		a.DetectedFields = append(a.DetectedFields, f)
	}
	return nil
}

func looksLikeHeader(name, value string) bool {
	n := Normalize(name)
	v := Normalize(value)
	return (n == "parametro" || n == "nombre" || n == "parameter" || n == "name") &&
		(v == "valor" || v == "value")
}

func analyzeJSON(a *Analysis, raw []byte) error {
	// Object form: {"pH": 7.2, "DQO": "450 mg/L"}. Keys are sorted so the
	// preview order does not depend on map iteration.
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			a.DetectedFields = append(a.DetectedFields, DetectedField{OriginalName: k, Value: obj[k]})
		}
		return nil
	}

	// Array form: [{"name": "pH", "value": 7.2, "unit": ""}]
	var arr []map[string]any
	if err := json.Unmarshal(raw, &arr); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	for _, item := range arr {
		f := DetectedField{}
		for _, key := range []string{"name", "nombre", "parametro", "parameter"} {
			if s, ok := item[key].(string); ok && s != "" {
				f.OriginalName = s
				break
			}
		}
		for _, key := range []string{"value", "valor"} {
			if v, ok := item[key]; ok {
				f.Value = v
				break
			}
		}
		for _, key := range []string{"unit", "unidad"} {
			if s, ok := item[key].(string); ok {
				f.Unit = s
				break
			}
		}
		if f.OriginalName == "" || f.Value == nil {
			a.Warnings = append(a.Warnings, "skipped an entry without name or value")
			continue
		}
		a.DetectedFields = append(a.DetectedFields, f)
	}
	return nil
}

func analyzeText(a *Analysis, raw []byte) {
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := paramLine.FindStringSubmatch(line); m != nil {
			f := DetectedField{
				OriginalName: strings.TrimSpace(m[1]),
				Value:        coerceValue(strings.TrimSpace(m[2])),
				Context:      line,
			}
			if len(m) > 3 {
				f.Unit = strings.TrimSpace(m[3])
			}
			a.DetectedFields = append(a.DetectedFields, f)
			continue
		}

		if m := keyValueLine.FindStringSubmatch(line); m != nil {
			a.DetectedFields = append(a.DetectedFields, DetectedField{
				OriginalName: strings.TrimSpace(m[1]),
				Value:        coerceValue(strings.TrimSpace(m[2])),
				Unit:         strings.TrimSpace(m[3]),
				Context:      line,
			})
		}
	}
}

// coerceValue turns numeric-looking strings into numbers, accepting the
// Spanish decimal comma. Everything else stays a string.
func coerceValue(s string) any {
	if n, ok := ParseNumeric(s); ok {
		return n
	}
	return s
}
