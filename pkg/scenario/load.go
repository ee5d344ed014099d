package scenario

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON string

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("scenario.schema.json", schemaJSON)
})

// LoadScenario reads a scenario file. Files ending in .gcfg or .ini are read
// as gcfg, everything else as JSON checked against the embedded schema.
// Either way the result has passed Validate.
func LoadScenario(path string) (*Scenario, error) {
	var (
		s   *Scenario
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gcfg", ".ini":
		s, err = loadGcfgFile(path)
	default:
		var b []byte
		b, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open scenario file: %w", err)
		}
		s, err = ParseJSON(b)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseJSON validates b against the schema, decodes it and checks the result.
func ParseJSON(b []byte) (*Scenario, error) {
	sch, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode scenario json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("scenario validation failed: %w", err)
	}

	var s Scenario
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// WriteJSON writes s indented, in the format ParseJSON reads.
func (s *Scenario) WriteJSON(path string) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
