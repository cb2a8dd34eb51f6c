package schema

import (
	"errors"
	"fmt"
	"slices"
)

// ErrCubeNotFound is returned by GetCube when no cube has the requested name.
var ErrCubeNotFound = errors.New("cube not found")

// AccessRequest is the view of a request that the authorization predicate needs.
// Both data and members requests implement it.
type AccessRequest interface {
	CubeName() string
	RoleNames() []string
}

// Schema is the root of the dimensional schema graph.
type Schema struct {
	// DefaultLocale is used when a request does not specify a locale and as the
	// last localized-column fallback before the locale-neutral column.
	DefaultLocale string

	cubes     []*Cube
	cubeIndex map[string]*Cube
}

// New links the given cubes into a schema and builds the per-cube entity
// indexes. It rejects duplicate cube names and, within a cube, duplicate
// level, property or measure names (submeasures included), because the
// indexes are keyed by name.
//
// The cubes are owned by the returned Schema and must not be modified afterwards.
func New(defaultLocale string, cubes ...*Cube) (*Schema, error) {
	s := &Schema{
		DefaultLocale: defaultLocale,
		cubes:         make([]*Cube, 0, len(cubes)),
		cubeIndex:     make(map[string]*Cube, len(cubes)),
	}

	for _, cube := range cubes {
		if cube == nil {
			return nil, fmt.Errorf("schema: nil cube")
		}
		if cube.Name == "" {
			return nil, fmt.Errorf("schema: cube without name")
		}
		if _, dup := s.cubeIndex[cube.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate cube name %q", cube.Name)
		}
		if err := cube.link(s); err != nil {
			return nil, err
		}
		s.cubes = append(s.cubes, cube)
		s.cubeIndex[cube.Name] = cube
	}

	return s, nil
}

// Cubes returns the cubes in declaration order.
func (s *Schema) Cubes() []*Cube {
	return slices.Clone(s.cubes)
}

// GetCube returns the cube with the given name.
// The error wraps ErrCubeNotFound when there is none.
func (s *Schema) GetCube(name string) (*Cube, error) {
	cube, ok := s.cubeIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCubeNotFound, name)
	}
	return cube, nil
}

// IsAuthorized reports whether the request may read its cube.
//
// Public cubes are readable by everyone. Restricted cubes require at least one
// of the request roles to appear in the cube's role list. Requests for unknown
// cubes are authorized here so that the caller reports CubeNotFound instead.
func (s *Schema) IsAuthorized(r AccessRequest) bool {
	cube, ok := s.cubeIndex[r.CubeName()]
	if !ok {
		return true
	}
	if cube.Public {
		return true
	}
	for _, role := range r.RoleNames() {
		if slices.Contains(cube.Roles, role) {
			return true
		}
	}
	return false
}
