package request

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tesseract/internal/schema"
)

type dataDoc struct {
	Kind        Kind `yaml:"kind,omitempty"`
	DataRequest `yaml:",inline"`
}

type membersDoc struct {
	Kind           Kind `yaml:"kind"`
	MembersRequest `yaml:",inline"`
}

// Decode parses a YAML request document. The optional top-level "kind" key
// selects the request type ("data" when absent). Unknown keys are rejected.
func Decode(data []byte) (Request, error) {
	var head struct {
		Kind Kind `yaml:"kind"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}

	switch head.Kind {
	case "", KindData:
		req, err := DecodeData(data)
		if err != nil {
			return nil, err
		}
		return req, nil
	case KindMembers:
		req, err := DecodeMembers(data)
		if err != nil {
			return nil, err
		}
		return req, nil
	}
	return nil, fmt.Errorf("parse request: unknown kind %q", head.Kind)
}

// DecodeData strictly parses a data request document and normalizes it.
func DecodeData(data []byte) (DataRequest, error) {
	var doc dataDoc
	if err := decodeStrict(data, &doc); err != nil {
		return DataRequest{}, err
	}
	if doc.Kind != "" && doc.Kind != KindData {
		return DataRequest{}, fmt.Errorf("parse request: kind %q is not a data request", doc.Kind)
	}
	return doc.DataRequest.Normalize(), nil
}

// DecodeMembers strictly parses a members request document and normalizes it.
func DecodeMembers(data []byte) (MembersRequest, error) {
	var doc membersDoc
	if err := decodeStrict(data, &doc); err != nil {
		return MembersRequest{}, err
	}
	return doc.MembersRequest.Normalize(), nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("parse request: %w", err)
	}
	return nil
}

// Encode renders a request as YAML including its kind.
// Map keys are emitted sorted, so equal requests encode to equal bytes.
func Encode(r Request) ([]byte, error) {
	var doc any
	switch r := r.(type) {
	case DataRequest:
		doc = dataDoc{Kind: KindData, DataRequest: r}
	case *DataRequest:
		doc = dataDoc{Kind: KindData, DataRequest: *r}
	case MembersRequest:
		doc = membersDoc{Kind: KindMembers, MembersRequest: r}
	case *MembersRequest:
		doc = membersDoc{Kind: KindMembers, MembersRequest: *r}
	default:
		return nil, fmt.Errorf("encode request: unsupported type %T", r)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalYAML accepts a bool or a list of level names.
func (p *Parents) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var all bool
		if err := node.Decode(&all); err != nil {
			return fmt.Errorf("line %d: parents must be a bool or a list of levels", node.Line)
		}
		if all {
			*p = ParentsAll()
		} else {
			*p = ParentsNone()
		}
		return nil
	case yaml.SequenceNode:
		var levels []string
		if err := node.Decode(&levels); err != nil {
			return err
		}
		*p = ParentsOf(levels...)
		return nil
	}
	return fmt.Errorf("line %d: parents must be a bool or a list of levels", node.Line)
}

func (p Parents) MarshalYAML() (any, error) {
	switch p.mode {
	case parentsAll:
		return true, nil
	case parentsOf:
		return p.levels, nil
	}
	return false, nil
}

// UnmarshalYAML accepts a bool, a single direction applied to every measure,
// or a map of measure name to direction.
func (r *Ranking) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!bool" {
			var on bool
			if err := node.Decode(&on); err != nil {
				return err
			}
			if on {
				*r = RankingAll(DirectionDesc)
			} else {
				*r = RankingNone()
			}
			return nil
		}
		dir, err := ParseDirection(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: ranking: %w", node.Line, err)
		}
		*r = RankingAll(dir)
		return nil
	case yaml.MappingNode:
		var raw map[string]string
		if err := node.Decode(&raw); err != nil {
			return err
		}
		m := make(map[string]Direction, len(raw))
		for name, d := range raw {
			dir, err := ParseDirection(d)
			if err != nil {
				return fmt.Errorf("line %d: ranking %q: %w", node.Line, name, err)
			}
			m[name] = dir
		}
		*r = RankingPerMeasure(m)
		return nil
	}
	return fmt.Errorf("line %d: ranking must be a bool, a direction or a map", node.Line)
}

func (r Ranking) MarshalYAML() (any, error) {
	switch r.mode {
	case RankingModeAll:
		if r.direction == DirectionDesc {
			return true, nil
		}
		return string(r.direction), nil
	case RankingModePerMeasure:
		return r.perMeasure, nil
	}
	return false, nil
}

// UnmarshalYAML accepts the compact filter syntax, see ParseFilter.
func (f *Filter) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: filter must be a string like gt.100", node.Line)
	}
	parsed, err := ParseFilter(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*f = parsed
	return nil
}

func (f Filter) MarshalYAML() (any, error) {
	return f.String(), nil
}

// UnmarshalYAML accepts a list of member keys (include) or an include/exclude mapping.
func (c *Cut) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var include []string
		if err := node.Decode(&include); err != nil {
			return err
		}
		*c = Cut{Include: include}
		return nil
	}
	type plain Cut
	var v plain
	if err := decodeNodeStrict(node, &v); err != nil {
		return err
	}
	*c = Cut(v)
	return nil
}

// UnmarshalYAML accepts "field.direction" or a field/direction mapping.
func (s *Sorting) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		field, dir := node.Value, Direction("")
		if i := strings.LastIndex(node.Value, "."); i > 0 {
			if d, err := ParseDirection(node.Value[i+1:]); err == nil {
				field, dir = node.Value[:i], d
			}
		}
		*s = Sorting{Field: field, Direction: dir}
		return nil
	}
	type plain Sorting
	var v plain
	if err := decodeNodeStrict(node, &v); err != nil {
		return err
	}
	if v.Direction != "" {
		dir, err := ParseDirection(string(v.Direction))
		if err != nil {
			return fmt.Errorf("line %d: sorting: %w", node.Line, err)
		}
		v.Direction = dir
	}
	*s = Sorting(v)
	return nil
}

type timeDoc struct {
	Granularity schema.Granularity `yaml:"granularity"`
	Latest      int                `yaml:"latest,omitempty"`
	Oldest      int                `yaml:"oldest,omitempty"`
	Range       []string           `yaml:"range,omitempty,flow"`
}

// UnmarshalYAML accepts {granularity, latest: n | oldest: n | range: [from, to]}.
func (t *TimeRestriction) UnmarshalYAML(node *yaml.Node) error {
	var doc timeDoc
	if err := decodeNodeStrict(node, &doc); err != nil {
		return err
	}

	bounds := 0
	for _, set := range []bool{doc.Latest != 0, doc.Oldest != 0, doc.Range != nil} {
		if set {
			bounds++
		}
	}
	if bounds != 1 {
		return fmt.Errorf("line %d: time restriction needs exactly one of latest, oldest, range", node.Line)
	}

	switch {
	case doc.Latest != 0:
		*t = *Latest(doc.Granularity, doc.Latest)
	case doc.Oldest != 0:
		*t = *Oldest(doc.Granularity, doc.Oldest)
	default:
		if len(doc.Range) != 2 {
			return fmt.Errorf("line %d: time range needs exactly two keys", node.Line)
		}
		*t = *Between(doc.Granularity, doc.Range[0], doc.Range[1])
	}
	return nil
}

func (t TimeRestriction) MarshalYAML() (any, error) {
	doc := timeDoc{Granularity: t.Granularity}
	switch t.Bound {
	case TimeLatest:
		doc.Latest = t.N
	case TimeOldest:
		doc.Oldest = t.N
	case TimeRange:
		doc.Range = []string{t.From, t.To}
	default:
		return nil, errors.New("time restriction without bound")
	}
	return doc, nil
}

// decodeNodeStrict decodes a mapping node rejecting unknown keys.
// yaml.Node.Decode does not honor KnownFields, so the node is re-encoded.
func decodeNodeStrict(node *yaml.Node, out any) error {
	raw, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	return nil
}
