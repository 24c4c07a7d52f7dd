package model

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ResourcePath identifies a resource by exporter name, group name and
// resource name.
type ResourcePath struct {
	ExporterName string `json:"exporter"`
	GroupName    string `json:"group"`
	ResourceName string `json:"name"`
}

// String returns the path in "exporter/group/name" form.
func (p ResourcePath) String() string {
	return p.ExporterName + "/" + p.GroupName + "/" + p.ResourceName
}

// ParseResourcePath parses a path in "exporter/group/name" form.
func ParseResourcePath(input string) (ResourcePath, error) {
	parts := strings.Split(input, "/")
	if len(parts) != 3 {
		return ResourcePath{}, maskAny(errors.Wrapf(ValidationError, "invalid resource path '%s'", input))
	}
	p := ResourcePath{
		ExporterName: parts[0],
		GroupName:    parts[1],
		ResourceName: parts[2],
	}
	if err := p.Validate(); err != nil {
		return ResourcePath{}, maskAny(err)
	}
	return p, nil
}

// Validate the given path, returning nil on ok,
// or an error upon validation issues.
func (p ResourcePath) Validate() error {
	if p.ExporterName == "" {
		return maskAny(errors.Wrap(ValidationError, "exporter name empty"))
	}
	if p.GroupName == "" {
		return maskAny(errors.Wrap(ValidationError, "group name empty"))
	}
	if p.ResourceName == "" {
		return maskAny(errors.Wrap(ValidationError, "resource name empty"))
	}
	return nil
}

// Compare orders paths by exporter, group and resource name, using
// natural ordering per component.
func (p ResourcePath) Compare(other ResourcePath) int {
	if c := CompareNatural(p.ExporterName, other.ExporterName); c != 0 {
		return c
	}
	if c := CompareNatural(p.GroupName, other.GroupName); c != 0 {
		return c
	}
	return CompareNatural(p.ResourceName, other.ResourceName)
}

// Resource is a single piece of lab equipment announced by an exporter.
type Resource struct {
	Path     ResourcePath          `json:"path"`
	Class    string                `json:"cls"`
	Params   map[string]ParamValue `json:"params,omitempty"`
	Extra    map[string]ParamValue `json:"extra,omitempty"`
	Acquired string                `json:"acquired,omitempty"`
	Avail    bool                  `json:"avail"`
}

// Param returns the parameter with given name.
func (r Resource) Param(name string) (ParamValue, bool) {
	v, found := r.Params[name]
	return v, found
}

// IsAcquired returns true when the resource is held by a place.
func (r Resource) IsAcquired() bool {
	return r.Acquired != ""
}

// Validate the given resource, returning nil on ok,
// or an error upon validation issues.
func (r Resource) Validate() error {
	if err := r.Path.Validate(); err != nil {
		return maskAny(err)
	}
	if r.Class == "" {
		return maskAny(errors.Wrapf(ValidationError, "resource '%s' has no class", r.Path))
	}
	return nil
}

// SortResources sorts the given list in place by path.
func SortResources(list []Resource) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].Path.Compare(list[j].Path) < 0
	})
}

// CompareNatural compares two strings such that embedded runs of digits
// are ordered by numeric value. "board2" sorts before "board10".
func CompareNatural(a, b string) int {
	for a != "" && b != "" {
		if isDigit(a[0]) && isDigit(b[0]) {
			da, ra := splitDigitRun(a)
			db, rb := splitDigitRun(b)
			if c := compareDigitRuns(da, db); c != 0 {
				return c
			}
			a, b = ra, rb
			continue
		}
		if a[0] != b[0] {
			if a[0] < b[0] {
				return -1
			}
			return 1
		}
		a, b = a[1:], b[1:]
	}
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	}
	return 1
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func splitDigitRun(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func compareDigitRuns(a, b string) int {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")
	if len(ta) != len(tb) {
		if len(ta) < len(tb) {
			return -1
		}
		return 1
	}
	if c := strings.Compare(ta, tb); c != 0 {
		return c
	}
	// Same numeric value, order on zero padding.
	return strings.Compare(a, b)
}

type paramKind uint8

const (
	paramKindNil paramKind = iota
	paramKindBool
	paramKindInt
	paramKindUint
	paramKindFloat
	paramKindString
	paramKindArray
)

// ParamValue holds a single resource parameter.
// It is one of bool, int64, uint64, float64, string or an array of those.
type ParamValue struct {
	kind paramKind
	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	a    []ParamValue
}

// BoolParam creates a boolean parameter value.
func BoolParam(v bool) ParamValue {
	return ParamValue{kind: paramKindBool, b: v}
}

// IntParam creates a signed integer parameter value.
func IntParam(v int64) ParamValue {
	return ParamValue{kind: paramKindInt, i: v}
}

// UintParam creates an unsigned integer parameter value.
func UintParam(v uint64) ParamValue {
	return ParamValue{kind: paramKindUint, u: v}
}

// FloatParam creates a floating point parameter value.
func FloatParam(v float64) ParamValue {
	return ParamValue{kind: paramKindFloat, f: v}
}

// StringParam creates a string parameter value.
func StringParam(v string) ParamValue {
	return ParamValue{kind: paramKindString, s: v}
}

// ArrayParam creates an array parameter value.
func ArrayParam(values ...ParamValue) ParamValue {
	return ParamValue{kind: paramKindArray, a: values}
}

// IsZero returns true when the value holds nothing.
func (v ParamValue) IsZero() bool {
	return v.kind == paramKindNil
}

// AsBool returns the boolean value and true when the value holds a bool.
func (v ParamValue) AsBool() (bool, bool) {
	return v.b, v.kind == paramKindBool
}

// AsInt returns the value as int64.
// Unsigned values that fit are converted.
func (v ParamValue) AsInt() (int64, bool) {
	switch v.kind {
	case paramKindInt:
		return v.i, true
	case paramKindUint:
		if v.u <= math.MaxInt64 {
			return int64(v.u), true
		}
	}
	return 0, false
}

// AsUint returns the value as uint64.
// Signed values that fit are converted.
func (v ParamValue) AsUint() (uint64, bool) {
	switch v.kind {
	case paramKindUint:
		return v.u, true
	case paramKindInt:
		if v.i >= 0 {
			return uint64(v.i), true
		}
	}
	return 0, false
}

// AsFloat returns the value as float64.
// Integer values are converted.
func (v ParamValue) AsFloat() (float64, bool) {
	switch v.kind {
	case paramKindFloat:
		return v.f, true
	case paramKindInt:
		return float64(v.i), true
	case paramKindUint:
		return float64(v.u), true
	}
	return 0, false
}

// AsString returns the string value and true when the value holds a string.
func (v ParamValue) AsString() (string, bool) {
	return v.s, v.kind == paramKindString
}

// AsArray returns the array elements and true when the value holds an array.
func (v ParamValue) AsArray() ([]ParamValue, bool) {
	return v.a, v.kind == paramKindArray
}

// String returns a display form of the value.
func (v ParamValue) String() string {
	switch v.kind {
	case paramKindBool:
		return strconv.FormatBool(v.b)
	case paramKindInt:
		return strconv.FormatInt(v.i, 10)
	case paramKindUint:
		return strconv.FormatUint(v.u, 10)
	case paramKindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case paramKindString:
		return v.s
	case paramKindArray:
		parts := make([]string, 0, len(v.a))
		for _, x := range v.a {
			parts = append(parts, x.String())
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	return ""
}

// MarshalJSON encodes the value as its native JSON form.
func (v ParamValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case paramKindBool:
		return json.Marshal(v.b)
	case paramKindInt:
		return json.Marshal(v.i)
	case paramKindUint:
		return json.Marshal(v.u)
	case paramKindFloat:
		return json.Marshal(v.f)
	case paramKindString:
		return json.Marshal(v.s)
	case paramKindArray:
		return json.Marshal(v.a)
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes the value from its native JSON form.
// Numbers without fraction or exponent become int64 (uint64 when too
// large), everything else float64.
func (v *ParamValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return maskAny(err)
	}
	parsed, err := paramFromInterface(raw)
	if err != nil {
		return maskAny(err)
	}
	*v = parsed
	return nil
}

func paramFromInterface(raw interface{}) (ParamValue, error) {
	switch x := raw.(type) {
	case nil:
		return ParamValue{}, nil
	case bool:
		return BoolParam(x), nil
	case string:
		return StringParam(x), nil
	case json.Number:
		return paramFromNumber(x.String())
	case []interface{}:
		values := make([]ParamValue, 0, len(x))
		for _, el := range x {
			pv, err := paramFromInterface(el)
			if err != nil {
				return ParamValue{}, maskAny(err)
			}
			values = append(values, pv)
		}
		return ArrayParam(values...), nil
	}
	return ParamValue{}, maskAny(errors.Wrapf(ValidationError, "unsupported parameter type %T", raw))
}

func paramFromNumber(s string) (ParamValue, error) {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntParam(i), nil
		}
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return UintParam(u), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return ParamValue{}, maskAny(errors.Wrapf(ValidationError, "invalid number '%s'", s))
	}
	return FloatParam(f), nil
}

// MarshalYAML encodes the value as its native YAML form.
func (v ParamValue) MarshalYAML() (interface{}, error) {
	switch v.kind {
	case paramKindBool:
		return v.b, nil
	case paramKindInt:
		return v.i, nil
	case paramKindUint:
		return v.u, nil
	case paramKindFloat:
		return v.f, nil
	case paramKindString:
		return v.s, nil
	case paramKindArray:
		return v.a, nil
	}
	return nil, nil
}

// UnmarshalYAML decodes the value from its native YAML form.
func (v *ParamValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Tag {
	case "!!null":
		*v = ParamValue{}
		return nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return maskAny(err)
		}
		*v = BoolParam(b)
		return nil
	case "!!int":
		if i, err := strconv.ParseInt(node.Value, 0, 64); err == nil {
			*v = IntParam(i)
			return nil
		}
		if u, err := strconv.ParseUint(node.Value, 0, 64); err == nil {
			*v = UintParam(u)
			return nil
		}
		return maskAny(errors.Wrapf(ValidationError, "invalid integer '%s'", node.Value))
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return maskAny(err)
		}
		*v = FloatParam(f)
		return nil
	case "!!str":
		*v = StringParam(node.Value)
		return nil
	case "!!seq":
		var list []ParamValue
		if err := node.Decode(&list); err != nil {
			return maskAny(err)
		}
		*v = ArrayParam(list...)
		return nil
	}
	return maskAny(errors.Wrapf(ValidationError, "unsupported parameter type '%s'", node.Tag))
}
