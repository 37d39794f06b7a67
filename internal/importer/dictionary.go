package importer

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/domain"
)

// Parameter is one entry in the known-parameter library: a target field on
// the technical data sheet plus the names and keywords it is known by.
type Parameter struct {
	FieldID   string           `yaml:"field_id" json:"field_id"`
	SectionID string           `yaml:"section_id" json:"section_id"`
	Label     string           `yaml:"label" json:"label"`
	Keywords  []string         `yaml:"keywords" json:"keywords"`
	Unit      string           `yaml:"unit,omitempty" json:"unit,omitempty"`
	Type      domain.FieldType `yaml:"type,omitempty" json:"type,omitempty"`
}

// Dictionary is the parameter library detected fields are matched against.
type Dictionary struct {
	Parameters []Parameter `yaml:"parameters"`
}

// LoadDictionary reads a parameter library from a YAML file.
func LoadDictionary(path string) (*Dictionary, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	var d Dictionary
	if err := yaml.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("parse dictionary: %w", err)
	}
	if len(d.Parameters) == 0 {
		return nil, fmt.Errorf("dictionary %q has no parameters", path)
	}
	return &d, nil
}

// DefaultDictionary covers the wastewater parameters the sheet template
// ships with, under their common Spanish and English names.
func DefaultDictionary() *Dictionary {
	return &Dictionary{Parameters: []Parameter{
		{FieldID: "flow", SectionID: "general", Label: "Caudal de diseño", Unit: "m3/d", Type: domain.FieldTypeUnit,
			Keywords: []string{"caudal", "flow", "caudal medio", "flow rate", "q"}},
		{FieldID: "peak_flow", SectionID: "general", Label: "Caudal punta", Unit: "m3/h", Type: domain.FieldTypeUnit,
			Keywords: []string{"caudal punta", "peak flow", "qmax", "caudal maximo"}},
		{FieldID: "ph", SectionID: "influent", Label: "pH", Type: domain.FieldTypeNumber,
			Keywords: []string{"ph", "acidez"}},
		{FieldID: "cod", SectionID: "influent", Label: "DQO", Unit: "mg/L", Type: domain.FieldTypeUnit,
			Keywords: []string{"dqo", "cod", "demanda quimica de oxigeno", "chemical oxygen demand"}},
		{FieldID: "bod", SectionID: "influent", Label: "DBO5", Unit: "mg/L", Type: domain.FieldTypeUnit,
			Keywords: []string{"dbo", "dbo5", "bod", "bod5", "demanda biologica de oxigeno"}},
		{FieldID: "tss", SectionID: "influent", Label: "Sólidos en suspensión", Unit: "mg/L", Type: domain.FieldTypeUnit,
			Keywords: []string{"sst", "tss", "solidos en suspension", "solidos suspendidos", "suspended solids"}},
		{FieldID: "conductivity", SectionID: "influent", Label: "Conductividad", Unit: "uS/cm", Type: domain.FieldTypeUnit,
			Keywords: []string{"conductividad", "conductivity", "ce"}},
		{FieldID: "turbidity", SectionID: "influent", Label: "Turbidez", Unit: "NTU", Type: domain.FieldTypeUnit,
			Keywords: []string{"turbidez", "turbidity", "ntu"}},
		{FieldID: "total_nitrogen", SectionID: "influent", Label: "Nitrógeno total", Unit: "mg/L", Type: domain.FieldTypeUnit,
			Keywords: []string{"nitrogeno total", "nitrogeno", "total nitrogen", "nt", "tn"}},
		{FieldID: "total_phosphorus", SectionID: "influent", Label: "Fósforo total", Unit: "mg/L", Type: domain.FieldTypeUnit,
			Keywords: []string{"fosforo total", "fosforo", "total phosphorus", "pt", "tp"}},
		{FieldID: "oils_greases", SectionID: "influent", Label: "Aceites y grasas", Unit: "mg/L", Type: domain.FieldTypeUnit,
			Keywords: []string{"aceites y grasas", "aceites", "grasas", "oils and greases", "fog"}},
		{FieldID: "temperature", SectionID: "influent", Label: "Temperatura", Unit: "C", Type: domain.FieldTypeUnit,
			Keywords: []string{"temperatura", "temperature", "temp"}},
	}}
}

var diacritics = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"à", "a", "è", "e", "ì", "i", "ò", "o", "ù", "u",
	"ä", "a", "ë", "e", "ï", "i", "ö", "o", "ü", "u",
	"ñ", "n", "ç", "c",
)

// Normalize lowercases, strips diacritics and collapses whitespace so
// "Sólidos  en Suspensión" and "solidos en suspension" compare equal.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = diacritics.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// ParseNumeric parses number-typed values out of the loose inputs imports
// carry: float64/int from JSON, or strings with a decimal comma.
func ParseNumeric(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		s = strings.ReplaceAll(s, ",", ".")
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
