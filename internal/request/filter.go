package request

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Comparison is a numeric comparison operator of a filter constraint.
type Comparison string

const (
	OpEq  Comparison = "eq"
	OpNeq Comparison = "neq"
	OpGt  Comparison = "gt"
	OpGte Comparison = "gte"
	OpLt  Comparison = "lt"
	OpLte Comparison = "lte"
)

var comparisons = map[Comparison]bool{
	OpEq: true, OpNeq: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true,
}

// Valid reports whether c is a known operator.
func (c Comparison) Valid() bool { return comparisons[c] }

// Joint combines two constraints of a filter.
type Joint string

const (
	JointAnd Joint = "and"
	JointOr  Joint = "or"
)

// Constraint is a single numeric bound.
type Constraint struct {
	Operator Comparison
	Value    float64
}

// Validate checks the operator and that the value is finite.
func (c Constraint) Validate() error {
	if !c.Operator.Valid() {
		return fmt.Errorf("unknown operator %q", c.Operator)
	}
	if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
		return fmt.Errorf("value must be finite, got %v", c.Value)
	}
	return nil
}

func (c Constraint) String() string {
	return string(c.Operator) + "." + strconv.FormatFloat(c.Value, 'f', -1, 64)
}

// Filter restricts a measure by one bound, or two bounds joined by and/or.
// Joint is set if and only if Constraint2 is set.
type Filter struct {
	Constraint1 Constraint
	Constraint2 *Constraint
	Joint       Joint
}

// Single builds a one-bound filter.
func Single(op Comparison, value float64) Filter {
	return Filter{Constraint1: Constraint{Operator: op, Value: value}}
}

// Pair builds a two-bound filter.
func Pair(c1 Constraint, joint Joint, c2 Constraint) Filter {
	return Filter{Constraint1: c1, Constraint2: &c2, Joint: joint}
}

func (f Filter) String() string {
	if f.Constraint2 == nil {
		return f.Constraint1.String()
	}
	return f.Constraint1.String() + "." + string(f.Joint) + "." + f.Constraint2.String()
}

// ParseFilter parses the compact filter syntax:
//
//	gt.100
//	gte.10.and.lt.20
//	eq.5.or.eq.7
//	lt.-1.5
func ParseFilter(s string) (Filter, error) {
	tokens := strings.Split(strings.TrimSpace(s), ".")

	split := -1
	for i := 2; i < len(tokens)-1; i++ {
		j := Joint(tokens[i])
		if (j == JointAnd || j == JointOr) && comparisons[Comparison(tokens[i+1])] {
			split = i
			break
		}
	}

	if split < 0 {
		c, err := parseConstraint(tokens)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid filter %q: %w", s, err)
		}
		return Filter{Constraint1: c}, nil
	}

	c1, err := parseConstraint(tokens[:split])
	if err != nil {
		return Filter{}, fmt.Errorf("invalid filter %q: %w", s, err)
	}
	c2, err := parseConstraint(tokens[split+1:])
	if err != nil {
		return Filter{}, fmt.Errorf("invalid filter %q: %w", s, err)
	}
	return Pair(c1, Joint(tokens[split]), c2), nil
}

func parseConstraint(tokens []string) (Constraint, error) {
	if len(tokens) < 2 {
		return Constraint{}, fmt.Errorf("expected <operator>.<value>")
	}
	op := Comparison(tokens[0])
	if !comparisons[op] {
		return Constraint{}, fmt.Errorf("unknown operator %q", tokens[0])
	}
	v, err := strconv.ParseFloat(strings.Join(tokens[1:], "."), 64)
	if err != nil {
		return Constraint{}, fmt.Errorf("invalid value: %w", err)
	}
	c := Constraint{Operator: op, Value: v}
	if err := c.Validate(); err != nil {
		return Constraint{}, err
	}
	return c, nil
}
