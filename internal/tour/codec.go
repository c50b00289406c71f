package tour

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"codetour/internal/errors"
	"codetour/internal/paths"
)

// Format identifies the on-disk encoding of a tour file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath derives the encoding from a file extension. ".tour" files are JSON.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tour", ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".toml":
		return FormatTOML, true
	default:
		return "", false
	}
}

// fileStep and fileTour are the persisted shapes used when writing.
type fileStep struct {
	Path               string   `json:"path" yaml:"path" toml:"path"`
	LineRange          [2]int   `json:"lineRange" yaml:"lineRange,flow" toml:"lineRange"`
	SymbolName         string   `json:"symbolName,omitempty" yaml:"symbolName,omitempty" toml:"symbolName,omitempty"`
	ContentFingerprint string   `json:"contentFingerprint,omitempty" yaml:"contentFingerprint,omitempty" toml:"contentFingerprint,omitempty"`
	Annotation         string   `json:"annotation" yaml:"annotation" toml:"annotation"`
	DisplayDuration    *float64 `json:"displayDuration,omitempty" yaml:"displayDuration,omitempty" toml:"displayDuration,omitempty"`
}

type fileTour struct {
	Title            string     `json:"title" yaml:"title" toml:"title"`
	Description      string     `json:"description" yaml:"description" toml:"description"`
	BaselineRevision string     `json:"baselineRevision,omitempty" yaml:"baselineRevision,omitempty" toml:"baselineRevision,omitempty"`
	Steps            []fileStep `json:"steps" yaml:"steps" toml:"steps"`
}

// Load reads and validates a tour file.
func Load(path string) (*Tour, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return nil, errors.InvalidFormatf("unrecognized tour file extension: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewTourError(
			errors.TourNotFound,
			fmt.Sprintf("cannot read tour %s", path),
			err,
			nil,
		)
	}

	return Parse(data, format)
}

// Parse decodes data into a generic document, checks every structural rule, and only
// then builds the typed Tour. All violations surface as a single INVALID_FORMAT error.
func Parse(data []byte, format Format) (*Tour, error) {
	var doc map[string]interface{}

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.InvalidFormatf("tour is not a valid JSON object: %v", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.InvalidFormatf("tour is not a valid YAML mapping: %v", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, errors.InvalidFormatf("tour is not a valid TOML document: %v", err)
		}
	default:
		return nil, errors.InvalidFormatf("unsupported tour format %q", format)
	}

	if doc == nil {
		return nil, errors.InvalidFormatf("tour document is empty")
	}

	return fromDocument(doc)
}

func fromDocument(doc map[string]interface{}) (*Tour, error) {
	t := &Tour{}

	var ok bool
	if t.Title, ok = doc["title"].(string); !ok {
		return nil, errors.InvalidFormatf("title must be a string")
	}
	if t.Description, ok = doc["description"].(string); !ok {
		return nil, errors.InvalidFormatf("description must be a string")
	}
	if raw, present := doc["baselineRevision"]; present && raw != nil {
		if t.BaselineRevision, ok = raw.(string); !ok {
			return nil, errors.InvalidFormatf("baselineRevision must be a string")
		}
	}

	rawSteps, ok := doc["steps"].([]interface{})
	if !ok {
		return nil, errors.InvalidFormatf("steps must be a list")
	}
	if len(rawSteps) == 0 {
		return nil, errors.InvalidFormatf("steps must not be empty")
	}

	t.Steps = make([]Step, 0, len(rawSteps))
	for i, raw := range rawSteps {
		step, err := stepFromDocument(i, raw)
		if err != nil {
			return nil, err
		}
		t.Steps = append(t.Steps, step)
	}

	return t, nil
}

func stepFromDocument(i int, raw interface{}) (Step, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return Step{}, errors.InvalidFormatf("steps[%d] must be an object", i)
	}

	var s Step
	if s.Path, ok = m["path"].(string); !ok || s.Path == "" {
		return Step{}, errors.InvalidFormatf("steps[%d].path must be a non-empty string", i)
	}
	if !paths.IsRepoRelative(s.Path) {
		return Step{}, errors.InvalidFormatf("steps[%d].path %q must be relative to the repository root", i, s.Path)
	}

	pair, ok := m["lineRange"].([]interface{})
	if !ok || len(pair) != 2 {
		return Step{}, errors.InvalidFormatf("steps[%d].lineRange must be a 2-element numeric pair", i)
	}
	start, okStart := asLine(pair[0])
	end, okEnd := asLine(pair[1])
	if !okStart || !okEnd {
		return Step{}, errors.InvalidFormatf("steps[%d].lineRange must be a 2-element numeric pair", i)
	}
	s.Lines = LineRange{Start: start, End: end}
	if s.Lines.Validate() != nil {
		return Step{}, errors.InvalidFormatf("steps[%d].lineRange %d-%d must satisfy 1 <= start <= end", i, start, end)
	}

	if s.Annotation, ok = m["annotation"].(string); !ok {
		return Step{}, errors.InvalidFormatf("steps[%d].annotation must be a string", i)
	}

	if v, present := m["symbolName"]; present && v != nil {
		if s.SymbolName, ok = v.(string); !ok {
			return Step{}, errors.InvalidFormatf("steps[%d].symbolName must be a string", i)
		}
	}
	if v, present := m["contentFingerprint"]; present && v != nil {
		if s.ContentFingerprint, ok = v.(string); !ok {
			return Step{}, errors.InvalidFormatf("steps[%d].contentFingerprint must be a string", i)
		}
	}
	if v, present := m["displayDuration"]; present && v != nil {
		d, ok := asNumber(v)
		if !ok {
			return Step{}, errors.InvalidFormatf("steps[%d].displayDuration must be a number", i)
		}
		s.DisplayDuration = &d
	}

	return s, nil
}

// asNumber accepts the numeric kinds produced by the JSON, YAML and TOML decoders.
func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func asLine(v interface{}) (int, bool) {
	f, ok := asNumber(v)
	if !ok || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// Encode renders a tour in the given format.
func Encode(t *Tour, format Format) ([]byte, error) {
	ft := fileTour{
		Title:            t.Title,
		Description:      t.Description,
		BaselineRevision: t.BaselineRevision,
		Steps:            make([]fileStep, len(t.Steps)),
	}
	for i, s := range t.Steps {
		ft.Steps[i] = fileStep{
			Path:               s.Path,
			LineRange:          [2]int{s.Lines.Start, s.Lines.End},
			SymbolName:         s.SymbolName,
			ContentFingerprint: s.ContentFingerprint,
			Annotation:         s.Annotation,
			DisplayDuration:    s.DisplayDuration,
		}
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(ft, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(ft); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatTOML:
		return toml.Marshal(ft)
	default:
		return nil, fmt.Errorf("unsupported tour format %q", format)
	}
}

// Save writes a tour to path using the format implied by its extension.
func Save(path string, t *Tour) error {
	format, ok := FormatFromPath(path)
	if !ok {
		return errors.InvalidFormatf("unrecognized tour file extension: %s", path)
	}

	data, err := Encode(t, format)
	if err != nil {
		return fmt.Errorf("failed to encode tour: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write tour: %w", err)
	}
	return os.Rename(tmp, path)
}
