package resolver

import "github.com/roach88/tesseract/internal/schema"

// resolveEntities looks every name up with lookup and fails on the first miss.
// Either all names resolve or the call fails; no partial map is returned.
func resolveEntities[T schema.Entity](names []string, kind schema.EntityKind, lookup func(string) (T, bool)) (map[string]T, error) {
	out := make(map[string]T, len(names))
	for _, name := range names {
		entity, ok := lookup(name)
		if !ok {
			return nil, NewInvalidEntityName(kind, name)
		}
		out[name] = entity
	}
	return out, nil
}

// ResolveLevels resolves level names against the cube's entity index.
func ResolveLevels(cube *schema.Cube, names []string) (map[string]*schema.Level, error) {
	return resolveEntities(names, schema.KindLevel, cube.Level)
}

// ResolveMeasures resolves measure and submeasure names against the cube's entity index.
func ResolveMeasures(cube *schema.Cube, names []string) (map[string]*schema.Measure, error) {
	return resolveEntities(names, schema.KindMeasure, cube.Measure)
}

// ResolveProperties resolves property names against the cube's entity index.
func ResolveProperties(cube *schema.Cube, names []string) (map[string]*schema.Property, error) {
	return resolveEntities(names, schema.KindProperty, cube.Property)
}

// resolveTimeLevel maps a granularity to the cube's time level.
func resolveTimeLevel(cube *schema.Cube, g schema.Granularity) (*schema.Level, error) {
	if !schema.ValidGranularities[g] {
		return nil, NewInvalidEntityName(schema.KindTimeScale, string(g))
	}
	lvl, ok := cube.TimeLevel(g)
	if !ok {
		return nil, NewInvalidEntityName(schema.KindTimeScale, string(g))
	}
	return lvl, nil
}
