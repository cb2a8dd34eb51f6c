package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tesseract/internal/request"
)

// Scenario defines one resolution test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the CUE schema directory.
	// Relative paths are resolved against the scenario file location.
	Schema string `yaml:"schema"`

	// Request is the request document, decoded with request.Decode.
	Request yaml.Node `yaml:"request"`

	// Assertions validate the resolution.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a resolution.
type Assertion struct {
	// Type selects the assertion; see the Assert* constants.
	Type string `yaml:"type"`

	// Code is the expected outcome (outcome).
	Code string `yaml:"code,omitempty"`

	// Dimension and Hierarchy select a hierarchy field (hierarchy).
	Dimension string `yaml:"dimension,omitempty"`
	Hierarchy string `yaml:"hierarchy,omitempty"`

	// Level names a level field (level). Drilldown, Include and Exclude are
	// checked when set.
	Level     string   `yaml:"level,omitempty"`
	Drilldown *bool    `yaml:"drilldown,omitempty"`
	Include   []string `yaml:"include,omitempty"`
	Exclude   []string `yaml:"exclude,omitempty"`

	// Names are the expected output measures (measures).
	Names []string `yaml:"names,omitempty"`

	// Measure and Direction describe a ranked measure (ranking).
	Measure   string `yaml:"measure,omitempty"`
	Direction string `yaml:"direction,omitempty"`

	// Name is an entity map key (entity).
	Name string `yaml:"name,omitempty"`

	// Text is a SQL fragment (sql_contains).
	Text string `yaml:"text,omitempty"`
}

// Assertion type constants.
const (
	AssertOutcome     = "outcome"
	AssertHierarchy   = "hierarchy"
	AssertLevel       = "level"
	AssertMeasures    = "measures"
	AssertRanking     = "ranking"
	AssertEntity      = "entity"
	AssertSQLContains = "sql_contains"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// The schema path is resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml file of dir, ordered by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	scenarios := make([]*Scenario, 0, len(files))
	for _, f := range files {
		s, err := LoadScenario(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(f), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// DecodeRequest decodes the scenario's request document.
func (s *Scenario) DecodeRequest() (request.Request, error) {
	data, err := yaml.Marshal(&s.Request)
	if err != nil {
		return nil, fmt.Errorf("encode request node: %w", err)
	}
	return request.Decode(data)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if info, err := os.Stat(s.Schema); err != nil || !info.IsDir() {
		return fmt.Errorf("schema directory not found: %s", s.Schema)
	}

	if s.Request.Kind != yaml.MappingNode {
		return fmt.Errorf("request is required and must be a mapping")
	}
	if _, err := s.DecodeRequest(); err != nil {
		return fmt.Errorf("request: %w", err)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOutcome:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for outcome", index)
		}
	case AssertHierarchy:
		if a.Dimension == "" || a.Hierarchy == "" {
			return fmt.Errorf("assertions[%d]: dimension and hierarchy are required for hierarchy", index)
		}
	case AssertLevel:
		if a.Level == "" {
			return fmt.Errorf("assertions[%d]: level is required for level", index)
		}
	case AssertMeasures:
		if a.Names == nil {
			return fmt.Errorf("assertions[%d]: names list is required for measures", index)
		}
	case AssertRanking:
		if a.Measure == "" || a.Direction == "" {
			return fmt.Errorf("assertions[%d]: measure and direction are required for ranking", index)
		}
	case AssertEntity:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for entity", index)
		}
	case AssertSQLContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for sql_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
