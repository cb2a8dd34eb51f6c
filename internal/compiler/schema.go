package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tesseract/internal/ir"
	"github.com/roach88/tesseract/internal/schema"
)

// Definition is a compiled but not yet linked schema.
//
// Cubes are plain structs with no back-pointers. Validate inspects a
// Definition; Build links it into an immutable *schema.Schema.
type Definition struct {
	DefaultLocale string
	Cubes         []*schema.Cube

	positions map[string]token.Pos
}

// Pos returns the CUE source position recorded for a definition path such as
// "cube.sales.dimension.time".
func (d *Definition) Pos(path string) token.Pos {
	return d.positions[path]
}

// Build links the definition into a schema.
func (d *Definition) Build() (*schema.Schema, error) {
	return schema.New(d.DefaultLocale, d.Cubes...)
}

// LoadDir loads every CUE file of a directory as one instance.
func LoadDir(dir string) (cue.Value, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return cue.Value{}, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return cue.Value{}, fmt.Errorf("not a directory: %s", dir)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return cue.Value{}, err
	}
	if len(files) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, formatCUEError(inst.Err)
	}

	v := ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return v, nil
}

// SourceHash hashes the CUE sources of dir in file-name order.
// Log entries record it so replay can tell which schema produced them.
func SourceHash(dir string) (string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no CUE files found in %s", dir)
	}
	sort.Strings(files)

	var source []byte
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return "", fmt.Errorf("schema source: %w", err)
		}
		source = append(source, filepath.Base(f)...)
		source = append(source, 0)
		source = append(source, data...)
		source = append(source, 0)
	}
	return ir.SchemaHash(source), nil
}

// LoadSchema loads, validates and links the schema in dir.
func LoadSchema(dir string) (*schema.Schema, error) {
	v, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	return CompileSchema(v)
}

// CompileSchema compiles a CUE value into a linked schema. Validation errors
// are joined into the returned error.
func CompileSchema(v cue.Value) (*schema.Schema, error) {
	def, err := CompileDefinition(v)
	if err != nil {
		return nil, err
	}
	if verrs := Validate(def); len(verrs) > 0 {
		return nil, JoinValidationErrors(verrs)
	}
	return def.Build()
}

// CompileDefinition parses a CUE value into a Definition. It fails on the
// first structural error (missing or mistyped field); semantic checks are
// left to Validate.
//
// Expected layout:
//
//	default_locale: "en"
//	cube: sales: {
//		table:  "sales_fact"
//		public: true
//		dimension: geography: {
//			foreign_key:       "city_id"
//			default_hierarchy: "standard"
//			hierarchy: standard: {
//				table:       "dim_geography"
//				primary_key: "city_id"
//				levels: [{name: "Country", key: "country_id", name_column: {en: "country_name"}}]
//			}
//		}
//		measures: [{name: "sales_amount", column: "amount", aggregator: "sum"}]
//	}
func CompileDefinition(v cue.Value) (*Definition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def := &Definition{positions: make(map[string]token.Pos)}

	locale, err := optionalString(v, "default_locale")
	if err != nil {
		return nil, err
	}
	def.DefaultLocale = locale

	cubesVal := v.LookupPath(cue.ParsePath("cube"))
	if !cubesVal.Exists() {
		return nil, &CompileError{Field: "cube", Message: "at least one cube is required", Pos: v.Pos()}
	}
	err = eachField(cubesVal, func(name string, cv cue.Value) error {
		cube, err := def.compileCube(name, cv)
		if err != nil {
			return err
		}
		def.Cubes = append(def.Cubes, cube)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return def, nil
}

func (d *Definition) compileCube(name string, v cue.Value) (*schema.Cube, error) {
	path := "cube." + name
	d.positions[path] = v.Pos()

	cube := &schema.Cube{Name: name}
	var err error
	if cube.Table, err = optionalString(v, "table"); err != nil {
		return nil, err
	}
	if cube.Public, err = optionalBool(v, "public"); err != nil {
		return nil, err
	}
	if cube.Roles, err = optionalStrings(v, "roles"); err != nil {
		return nil, err
	}
	if cube.Annotations, err = optionalStringMap(v, "annotations"); err != nil {
		return nil, err
	}

	if dims := v.LookupPath(cue.ParsePath("dimension")); dims.Exists() {
		err = eachField(dims, func(name string, dv cue.Value) error {
			dim, err := d.compileDimension(path+".dimension."+name, name, dv)
			if err != nil {
				return err
			}
			cube.Dimensions = append(cube.Dimensions, dim)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	err = eachElem(v, "measures", func(i int, mv cue.Value) error {
		msr, err := d.compileMeasure(fmt.Sprintf("%s.measures[%d]", path, i), mv)
		if err != nil {
			return err
		}
		cube.Measures = append(cube.Measures, msr)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cube, nil
}

func (d *Definition) compileDimension(path, name string, v cue.Value) (*schema.Dimension, error) {
	d.positions[path] = v.Pos()

	dim := &schema.Dimension{Name: name, Type: schema.DimensionStandard}
	typ, err := optionalString(v, "type")
	if err != nil {
		return nil, err
	}
	if typ != "" {
		dim.Type = schema.DimensionType(typ)
	}
	if dim.ForeignKey, err = optionalString(v, "foreign_key"); err != nil {
		return nil, err
	}
	if dim.DefaultHierarchyName, err = optionalString(v, "default_hierarchy"); err != nil {
		return nil, err
	}

	if hies := v.LookupPath(cue.ParsePath("hierarchy")); hies.Exists() {
		err = eachField(hies, func(name string, hv cue.Value) error {
			hie, err := d.compileHierarchy(path+".hierarchy."+name, name, hv)
			if err != nil {
				return err
			}
			dim.Hierarchies = append(dim.Hierarchies, hie)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return dim, nil
}

func (d *Definition) compileHierarchy(path, name string, v cue.Value) (*schema.Hierarchy, error) {
	d.positions[path] = v.Pos()

	hie := &schema.Hierarchy{Name: name}
	var err error
	if hie.Table, err = optionalString(v, "table"); err != nil {
		return nil, err
	}
	if hie.PrimaryKey, err = optionalString(v, "primary_key"); err != nil {
		return nil, err
	}

	if dm := v.LookupPath(cue.ParsePath("default_member")); dm.Exists() {
		level, err := requiredString(dm, "level")
		if err != nil {
			return nil, err
		}
		key, err := requiredString(dm, "key")
		if err != nil {
			return nil, err
		}
		hie.DefaultMember = &schema.MemberRef{Level: level, Key: key}
		d.positions[path+".default_member"] = dm.Pos()
	}

	err = eachElem(v, "levels", func(i int, lv cue.Value) error {
		lvl, err := d.compileLevel(fmt.Sprintf("%s.levels[%d]", path, i), lv)
		if err != nil {
			return err
		}
		hie.Levels = append(hie.Levels, lvl)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hie, nil
}

func (d *Definition) compileLevel(path string, v cue.Value) (*schema.Level, error) {
	d.positions[path] = v.Pos()

	lvl := &schema.Level{}
	var err error
	if lvl.Name, err = requiredString(v, "name"); err != nil {
		return nil, err
	}
	if lvl.KeyColumn, err = optionalString(v, "key"); err != nil {
		return nil, err
	}
	if lvl.NameColumns, err = localizedColumns(v, "name_column"); err != nil {
		return nil, err
	}
	g, err := optionalString(v, "granularity")
	if err != nil {
		return nil, err
	}
	lvl.Granularity = schema.Granularity(g)

	err = eachElem(v, "properties", func(i int, pv cue.Value) error {
		d.positions[fmt.Sprintf("%s.properties[%d]", path, i)] = pv.Pos()
		name, err := requiredString(pv, "name")
		if err != nil {
			return err
		}
		cols, err := localizedColumns(pv, "column")
		if err != nil {
			return err
		}
		if cols == nil {
			return &CompileError{Field: "column", Message: fmt.Sprintf("property %q needs a column", name), Pos: pv.Pos()}
		}
		lvl.Properties = append(lvl.Properties, &schema.Property{Name: name, Columns: cols})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lvl, nil
}

func (d *Definition) compileMeasure(path string, v cue.Value) (*schema.Measure, error) {
	d.positions[path] = v.Pos()

	msr := &schema.Measure{}
	var err error
	if msr.Name, err = requiredString(v, "name"); err != nil {
		return nil, err
	}
	if msr.Column, err = optionalString(v, "column"); err != nil {
		return nil, err
	}
	agg, err := optionalString(v, "aggregator")
	if err != nil {
		return nil, err
	}
	msr.Aggregator = schema.Aggregator(agg)
	if msr.Annotations, err = optionalStringMap(v, "annotations"); err != nil {
		return nil, err
	}

	err = eachElem(v, "submeasures", func(i int, sv cue.Value) error {
		sub, err := d.compileMeasure(fmt.Sprintf("%s.submeasures[%d]", path, i), sv)
		if err != nil {
			return err
		}
		msr.Submeasures = append(msr.Submeasures, sub)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msr, nil
}

// localizedColumns accepts a plain string (locale-neutral column) or a struct
// of locale -> column.
func localizedColumns(v cue.Value, field string) (map[string]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	if fv.IncompleteKind() == cue.StringKind {
		col, err := fv.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return map[string]string{"": col}, nil
	}
	return optionalStringMap(v, field)
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalBool(v cue.Value, field string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

func optionalStrings(v cue.Value, field string) ([]string, error) {
	var out []string
	err := eachElem(v, field, func(_ int, ev cue.Value) error {
		s, err := ev.String()
		if err != nil {
			return formatCUEError(err)
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

func optionalStringMap(v cue.Value, field string) (map[string]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	out := make(map[string]string)
	err := eachField(fv, func(key string, ev cue.Value) error {
		s, err := ev.String()
		if err != nil {
			return formatCUEError(err)
		}
		out[key] = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// eachField calls fn for every regular field of a struct, in declaration order.
func eachField(v cue.Value, fn func(label string, fv cue.Value) error) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := fn(iter.Selector().Unquoted(), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

// eachElem calls fn for every element of an optional list field.
func eachElem(v cue.Value, field string, fn func(i int, ev cue.Value) error) error {
	lv := v.LookupPath(cue.ParsePath(field))
	if !lv.Exists() {
		return nil
	}
	iter, err := lv.List()
	if err != nil {
		return formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		if err := fn(i, iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Field: "cue", Message: err.Error()}
	}

	first := errs[0]
	ce := &CompileError{Field: "cue", Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
