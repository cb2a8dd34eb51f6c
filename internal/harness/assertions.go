package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/tesseract/internal/engine"
	"github.com/roach88/tesseract/internal/queryir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("Assertion failed: %s\n  Expected: %s\n  Actual: %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion against a resolution and its
// compiled SQL. Returns one message per failed assertion, in order.
func EvaluateAssertions(res *engine.Result, sql string, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(res, sql, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(res *engine.Result, sql string, a Assertion) error {
	if a.Type == AssertOutcome {
		if got := res.Outcome(); got != a.Code {
			return &AssertionError{Type: a.Type, Expected: a.Code, Actual: got}
		}
		return nil
	}

	if res.Query == nil {
		return &AssertionError{Type: a.Type, Expected: "a resolved query", Actual: res.Outcome()}
	}

	switch a.Type {
	case AssertHierarchy:
		return assertHierarchy(res.Query, a)
	case AssertLevel:
		return assertLevel(res.Query, a)
	case AssertMeasures:
		return assertMeasures(res.Query, a)
	case AssertRanking:
		return assertRanking(res.Query, a)
	case AssertEntity:
		if _, ok := res.Query.EntityMap()[a.Name]; !ok {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("entity %q", a.Name), Actual: "absent"}
		}
	case AssertSQLContains:
		if !strings.Contains(sql, a.Text) {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("SQL containing %q", a.Text), Actual: sql}
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func hierarchyFields(q queryir.Query) []queryir.HierarchyField {
	switch q := q.(type) {
	case *queryir.DataQuery:
		return q.FieldsQualitative
	case *queryir.MembersQuery:
		return []queryir.HierarchyField{q.Hierarchy}
	}
	return nil
}

func assertHierarchy(q queryir.Query, a Assertion) error {
	for _, hf := range hierarchyFields(q) {
		if hf.Dimension.Name != a.Dimension {
			continue
		}
		if hf.Hierarchy.Name != a.Hierarchy {
			return &AssertionError{Type: a.Type, Expected: a.Hierarchy, Actual: hf.Hierarchy.Name}
		}
		return nil
	}
	return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("dimension %q selected", a.Dimension), Actual: "absent"}
}

func assertLevel(q queryir.Query, a Assertion) error {
	for _, hf := range hierarchyFields(q) {
		lf, ok := hf.Level(a.Level)
		if !ok {
			continue
		}
		if a.Drilldown != nil && lf.IsDrilldown != *a.Drilldown {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s drilldown=%t", a.Level, *a.Drilldown),
				Actual:   fmt.Sprintf("drilldown=%t", lf.IsDrilldown),
			}
		}
		if a.Include != nil && !slices.Equal(lf.MembersInclude, a.Include) {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s include %v", a.Level, a.Include), Actual: fmt.Sprint(lf.MembersInclude)}
		}
		if a.Exclude != nil && !slices.Equal(lf.MembersExclude, a.Exclude) {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s exclude %v", a.Level, a.Exclude), Actual: fmt.Sprint(lf.MembersExclude)}
		}
		return nil
	}
	return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("level %q selected", a.Level), Actual: "absent"}
}

func assertMeasures(q queryir.Query, a Assertion) error {
	dq, ok := q.(*queryir.DataQuery)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: "a data query", Actual: fmt.Sprintf("%T", q)}
	}
	names := []string{}
	for _, mf := range dq.Measures() {
		names = append(names, mf.Name())
	}
	if !slices.Equal(names, a.Names) {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprint(a.Names), Actual: fmt.Sprint(names)}
	}
	return nil
}

func assertRanking(q queryir.Query, a Assertion) error {
	dq, ok := q.(*queryir.DataQuery)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: "a data query", Actual: fmt.Sprintf("%T", q)}
	}
	for _, mf := range dq.FieldsQuantitative {
		if mf.Name() != a.Measure {
			continue
		}
		if string(mf.WithRanking) != a.Direction {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s ranked %s", a.Measure, a.Direction), Actual: fmt.Sprintf("%q", mf.WithRanking)}
		}
		return nil
	}
	return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("measure %q in query", a.Measure), Actual: "absent"}
}
