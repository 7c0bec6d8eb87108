package spec

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Api is the in-memory model of a complete REST API specification, assembled
// from one spec file per endpoint plus the optional shared _common.json.
// It is built once by Load and never mutated afterwards.
type Api struct {
	// Commit is the branch or commit tag the specs were taken from.
	Commit string
	// CommonParams are query parameters accepted by every endpoint.
	CommonParams map[string]Type
	// Root holds endpoints whose qualified name has no namespace, e.g. "search".
	Root map[string]ApiEndpoint
	// Namespaces holds endpoints keyed by namespace then method name,
	// e.g. Namespaces["indices"]["create"].
	Namespaces map[string]map[string]ApiEndpoint
	// Enums are the distinct enum parameters found across all endpoints,
	// sorted by name.
	Enums []ApiEnum
}

// HttpMethod is an HTTP verb accepted by an endpoint. The declaration order
// is the canonical sort order for ApiEndpoint.Methods.
type HttpMethod int

const (
	Head HttpMethod = iota
	Get
	Post
	Put
	Patch
	Delete
)

var methodNames = [...]string{"HEAD", "GET", "POST", "PUT", "PATCH", "DELETE"}

func (m HttpMethod) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("HttpMethod(%d)", int(m))
	}
	return methodNames[m]
}

func (m *HttpMethod) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, name := range methodNames {
		if s == name {
			*m = HttpMethod(i)
			return nil
		}
	}
	return fmt.Errorf("unknown http method %q", s)
}

func (m HttpMethod) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// TypeKind tags the kind of a parameter or part type. The zero value is
// KindNone, matching specs that omit the "type" field.
type TypeKind string

const (
	KindNone    TypeKind = ""
	KindList    TypeKind = "list"
	KindEnum    TypeKind = "enum"
	KindString  TypeKind = "string"
	KindText    TypeKind = "text"
	KindBoolean TypeKind = "boolean"
	KindNumber  TypeKind = "number"
	KindFloat   TypeKind = "float"
	KindDouble  TypeKind = "double"
	KindInteger TypeKind = "int"
	KindLong    TypeKind = "long"
	KindDate    TypeKind = "date"
	KindTime    TypeKind = "time"
)

// Type describes a parameter or url part type as declared in a spec file.
type Type struct {
	Kind        TypeKind `json:"type"`
	Description string   `json:"description,omitempty"`
	Options     []any    `json:"options,omitempty"`
	Default     any      `json:"default,omitempty"`
}

// Path is one URL template variant of an endpoint together with the ordered
// parameter names appearing in it. Spec files write paths either as plain
// template strings or as {template, params} objects; both forms are accepted,
// and the parameter list is derived from {name} occurrences in the template
// when not given explicitly.
type Path struct {
	Template string
	Params   []string
}

func (p *Path) UnmarshalJSON(data []byte) error {
	var tmpl string
	if err := json.Unmarshal(data, &tmpl); err == nil {
		p.Template = tmpl
		p.Params = templateParams(tmpl)
		return nil
	}
	var obj struct {
		Template string   `json:"template"`
		Params   []string `json:"params"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	p.Template = obj.Template
	p.Params = obj.Params
	if obj.Params == nil {
		p.Params = templateParams(obj.Template)
	}
	return nil
}

// templateParams extracts {name} placeholders from a URL template, in order.
func templateParams(template string) []string {
	var params []string
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			return params
		}
		rest = rest[open+1:]
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return params
		}
		params = append(params, rest[:end])
		rest = rest[end+1:]
	}
}

// Url is the URL surface of an endpoint: its path variants, the typed path
// parts, and the typed query parameters.
type Url struct {
	Paths  []Path          `json:"paths"`
	Parts  map[string]Type `json:"parts"`
	Params map[string]Type `json:"params"`
}

// Part pairs a url part name with its declared type.
type Part struct {
	Name string
	Type Type
}

// RequiredPartNames returns the path parameter names present in every path
// variant of the endpoint, preserving the order of the first variant.
// It panics when the endpoint has no path variants; callers must not invoke
// the path analyzer on such an endpoint.
func (u *Url) RequiredPartNames() []string {
	if len(u.Paths) == 0 {
		panic("spec: url has no path variants")
	}
	names := append([]string(nil), u.Paths[0].Params...)
	for _, p := range u.Paths[1:] {
		names = intersect(names, p.Params)
	}
	return names
}

// RequiredParts returns the subset of Parts whose names are required in every
// path variant, ordered for generated method signatures: "index" leads,
// "ty" and "id" trail in that order, everything else sorts lexicographically.
func (u *Url) RequiredParts() []Part {
	required := make(map[string]struct{})
	for _, name := range u.RequiredPartNames() {
		required[name] = struct{}{}
	}

	parts := make([]Part, 0, len(required))
	for name, t := range u.Parts {
		if _, ok := required[name]; ok {
			parts = append(parts, Part{Name: name, Type: t})
		}
	}
	sort.Slice(parts, func(i, j int) bool {
		return partLess(parts[i].Name, parts[j].Name)
	})
	return parts
}

// partRank encodes the signature ordering convention: "index" is the
// canonical leading argument and the document identity parts trail.
func partRank(name string) int {
	switch name {
	case "index":
		return 0
	case "ty":
		return 2
	case "id":
		return 3
	default:
		return 1
	}
}

func partLess(a, b string) bool {
	ra, rb := partRank(a), partRank(b)
	if ra != rb {
		return ra < rb
	}
	return a < b
}

// intersect keeps the elements of a that also occur in b, preserving a's order.
func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, item := range b {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range a {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}

// Body marks that an endpoint accepts a request body; only its presence is
// significant to the generator.
type Body struct {
	Description string `json:"description"`
}

// ApiEndpoint is one REST operation as described by a single spec file.
type ApiEndpoint struct {
	Documentation string       `json:"documentation,omitempty"`
	Stability     string       `json:"stability"`
	Methods       []HttpMethod `json:"methods"`
	Url           Url          `json:"url"`
	Body          *Body        `json:"body,omitempty"`
}

// SupportsBody reports whether the generated surface for this endpoint should
// accept a request body: true when the endpoint answers POST or PUT, or when
// a body descriptor is present.
func (e *ApiEndpoint) SupportsBody() bool {
	for _, m := range e.Methods {
		if m == Post || m == Put {
			return true
		}
	}
	return e.Body != nil
}

// Common is the shared parameter document (_common.json). Only Params
// survives into the Api.
type Common struct {
	Description   string          `json:"description"`
	Documentation string          `json:"documentation"`
	Params        map[string]Type `json:"params"`
}

// ApiEnum is a named enumeration harvested from an enum-kinded parameter.
// Identity is by name: the spec domain assumes a given parameter name carries
// the same option set across the whole API.
type ApiEnum struct {
	Name   string
	Values []string
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
