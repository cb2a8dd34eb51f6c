package compiler

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/roach88/tesseract/internal/schema"
)

// Validation error codes (E200-E299)
const (
	// Schema-level errors (E200-E209)
	ErrNoCubes              = "E200" // schema declares no cube
	ErrInvalidLocale        = "E201" // default locale is not a valid language tag
	ErrDuplicateName        = "E202" // duplicate cube/dimension/level/property/measure name
	ErrCubeNoTable          = "E203" // cube must name its fact table
	ErrInvalidDimensionType = "E204" // dimension type is neither standard nor time

	// Hierarchy errors (E210-E219)
	ErrDimensionNoHierarchy    = "E210" // dimension declares no hierarchy
	ErrUnknownDefaultHierarchy = "E211" // default_hierarchy names no hierarchy
	ErrEmptyHierarchy          = "E212" // hierarchy has no levels
	ErrDefaultMemberOutside    = "E213" // default member level is not in its hierarchy
	ErrMissingForeignKey       = "E214" // joined hierarchy without dimension foreign key
	ErrLevelNoKey              = "E215" // level must name its key column
	ErrInvalidGranularity      = "E216" // unknown granularity
	ErrGranularityNotTime      = "E217" // granularity on a level of a standard dimension

	// Measure errors (E220-E229)
	ErrUnknownAggregator = "E220" // unknown aggregator
	ErrMeasureNoColumn   = "E221" // measure must name its column
	ErrNestedSubmeasure  = "E222" // submeasures are one level deep only
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// JoinValidationErrors combines validation errors into one error.
func JoinValidationErrors(verrs []ValidationError) error {
	errs := make([]error, len(verrs))
	for i, e := range verrs {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Validate checks a definition against the schema rules.
// Returns all errors found (does not fail-fast), in declaration order.
func Validate(def *Definition) []ValidationError {
	v := &validator{def: def}

	if len(def.Cubes) == 0 {
		v.add("cube", ErrNoCubes, "at least one cube is required")
	}
	if def.DefaultLocale != "" {
		if _, err := language.Parse(def.DefaultLocale); err != nil {
			v.add("default_locale", ErrInvalidLocale, "invalid language tag %q", def.DefaultLocale)
		}
	}

	cubes := make(map[string]bool)
	for _, cube := range def.Cubes {
		path := "cube." + cube.Name
		if cubes[cube.Name] {
			v.add(path, ErrDuplicateName, "duplicate cube name %q", cube.Name)
		}
		cubes[cube.Name] = true
		v.validateCube(path, cube)
	}
	return v.errs
}

type validator struct {
	def  *Definition
	errs []ValidationError
}

func (v *validator) add(path, code, format string, args ...any) {
	e := ValidationError{Field: path, Message: fmt.Sprintf(format, args...), Code: code}
	if v.def != nil {
		if pos := v.def.Pos(path); pos.IsValid() {
			e.Line = pos.Line()
		}
	}
	v.errs = append(v.errs, e)
}

func (v *validator) validateCube(path string, cube *schema.Cube) {
	if strings.TrimSpace(cube.Table) == "" {
		v.add(path, ErrCubeNoTable, "cube %q must name its fact table", cube.Name)
	}

	dims := make(map[string]bool)
	levels := make(map[string]bool)
	props := make(map[string]bool)
	for _, dim := range cube.Dimensions {
		dpath := path + ".dimension." + dim.Name
		if dims[dim.Name] {
			v.add(dpath, ErrDuplicateName, "duplicate dimension name %q", dim.Name)
		}
		dims[dim.Name] = true
		v.validateDimension(dpath, dim, levels, props)
	}

	measures := make(map[string]bool)
	for i, msr := range cube.Measures {
		v.validateMeasure(fmt.Sprintf("%s.measures[%d]", path, i), msr, measures, 0)
	}
}

func (v *validator) validateDimension(path string, dim *schema.Dimension, levels, props map[string]bool) {
	if dim.Type != schema.DimensionStandard && dim.Type != schema.DimensionTime {
		v.add(path, ErrInvalidDimensionType, "dimension %q has invalid type %q", dim.Name, dim.Type)
	}
	if len(dim.Hierarchies) == 0 {
		v.add(path, ErrDimensionNoHierarchy, "dimension %q declares no hierarchy", dim.Name)
	}
	if dim.DefaultHierarchyName != "" {
		if _, ok := dim.Hierarchy(dim.DefaultHierarchyName); !ok {
			v.add(path, ErrUnknownDefaultHierarchy, "default hierarchy %q is not declared by dimension %q", dim.DefaultHierarchyName, dim.Name)
		}
	}

	for _, hie := range dim.Hierarchies {
		hpath := path + ".hierarchy." + hie.Name
		if len(hie.Levels) == 0 {
			v.add(hpath, ErrEmptyHierarchy, "hierarchy %q has no levels", hie.Name)
		}
		if hie.Table != "" && dim.ForeignKey == "" {
			v.add(hpath, ErrMissingForeignKey, "hierarchy %q joins table %q but dimension %q has no foreign key", hie.Name, hie.Table, dim.Name)
		}
		if dm := hie.DefaultMember; dm != nil {
			if _, ok := hie.Level(dm.Level); !ok {
				v.add(hpath+".default_member", ErrDefaultMemberOutside, "default member level %q is not part of hierarchy %q", dm.Level, hie.Name)
			}
		}

		for i, lvl := range hie.Levels {
			lpath := fmt.Sprintf("%s.levels[%d]", hpath, i)
			if levels[lvl.Name] {
				v.add(lpath, ErrDuplicateName, "duplicate level name %q", lvl.Name)
			}
			levels[lvl.Name] = true

			if lvl.KeyColumn == "" {
				v.add(lpath, ErrLevelNoKey, "level %q must name its key column", lvl.Name)
			}
			if lvl.Granularity != "" {
				if !schema.ValidGranularities[lvl.Granularity] {
					v.add(lpath, ErrInvalidGranularity, "level %q has unknown granularity %q", lvl.Name, lvl.Granularity)
				} else if dim.Type != schema.DimensionTime {
					v.add(lpath, ErrGranularityNotTime, "level %q has a granularity but dimension %q is not a time dimension", lvl.Name, dim.Name)
				}
			}

			for j, prop := range lvl.Properties {
				if props[prop.Name] {
					v.add(fmt.Sprintf("%s.properties[%d]", lpath, j), ErrDuplicateName, "duplicate property name %q", prop.Name)
				}
				props[prop.Name] = true
			}
		}
	}
}

func (v *validator) validateMeasure(path string, msr *schema.Measure, seen map[string]bool, depth int) {
	if seen[msr.Name] {
		v.add(path, ErrDuplicateName, "duplicate measure name %q", msr.Name)
	}
	seen[msr.Name] = true

	if msr.Column == "" {
		v.add(path, ErrMeasureNoColumn, "measure %q must name its column", msr.Name)
	}
	if !schema.ValidAggregators[msr.Aggregator] {
		v.add(path, ErrUnknownAggregator, "measure %q has unknown aggregator %q", msr.Name, msr.Aggregator)
	}
	if depth > 0 && len(msr.Submeasures) > 0 {
		v.add(path, ErrNestedSubmeasure, "submeasure %q declares submeasures", msr.Name)
	}

	for i, sub := range msr.Submeasures {
		v.validateMeasure(fmt.Sprintf("%s.submeasures[%d]", path, i), sub, seen, depth+1)
	}
}
