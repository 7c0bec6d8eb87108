package spec

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// commonFile is the shared parameter document; every other file starting
// with an underscore is ignored.
const commonFile = "_common.json"

// rootNamespace is the synthetic namespace for endpoints whose qualified
// name carries no dot.
const rootNamespace = "root"

// Load reads a flat directory of REST API spec files and assembles the Api.
//
// Each non-underscore file must be an endpoint document: a JSON object with a
// single top-level key (the qualified endpoint name, e.g. "indices.create")
// mapping to the endpoint description. _common.json, when present, supplies
// the parameters shared by every endpoint. Directory traversal order is not
// observable in the result; all mappings and sequences come out in canonical
// order so two runs over the same directory produce structurally equal values.
func Load(ctx context.Context, dir, branch string) (*Api, error) {
	_ = ctx
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &SpecError{Code: IoError, Message: fmt.Sprintf("read spec directory %s: %v", dir, err), Location: dir, Cause: err}
	}

	namespaces := make(map[string]map[string]ApiEndpoint)
	commonParams := make(map[string]Type)
	var enums []ApiEnum
	enumSeen := make(map[string]struct{})
	// qualified name -> declaring file, to fail fast on collisions
	declared := make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(dir, name)

		if strings.HasPrefix(name, "_") {
			if name != commonFile {
				continue
			}
			common, err := readCommon(path, name)
			if err != nil {
				return nil, err
			}
			if common.Params != nil {
				commonParams = common.Params
			}
			continue
		}

		qualified, endpoint, err := readEndpoint(path, name)
		if err != nil {
			return nil, err
		}
		if prev, ok := declared[qualified]; ok {
			return nil, &SpecError{
				Code:     ParseError,
				Message:  fmt.Sprintf("parse %s: endpoint %q already declared by %s", name, qualified, prev),
				Location: path,
			}
		}
		declared[qualified] = name

		namespace, method := splitQualified(qualified)
		methods := namespaces[namespace]
		if methods == nil {
			methods = make(map[string]ApiEndpoint)
			namespaces[namespace] = methods
		}
		methods[method] = endpoint

		// Harvest enum parameters. Params are scanned in sorted key order and
		// files arrive in sorted directory order, so first-wins is stable.
		for _, paramName := range sortedKeys(endpoint.Url.Params) {
			t := endpoint.Url.Params[paramName]
			if t.Kind != KindEnum {
				continue
			}
			if _, ok := enumSeen[paramName]; ok {
				continue
			}
			enumSeen[paramName] = struct{}{}
			enums = append(enums, ApiEnum{Name: paramName, Values: stringOptions(t.Options)})
		}
	}

	root := namespaces[rootNamespace]
	delete(namespaces, rootNamespace)
	if root == nil {
		root = make(map[string]ApiEndpoint)
	}

	sort.Slice(enums, func(i, j int) bool { return enums[i].Name < enums[j].Name })

	return &Api{
		Commit:       branch,
		CommonParams: commonParams,
		Root:         root,
		Namespaces:   namespaces,
		Enums:        enums,
	}, nil
}

// splitQualified splits a qualified endpoint name on the first dot into its
// namespace and method name. Undotted names land in the root namespace.
func splitQualified(qualified string) (namespace, method string) {
	if ns, rest, ok := strings.Cut(qualified, "."); ok {
		return ns, rest
	}
	return rootNamespace, qualified
}

func readEndpoint(path, name string) (string, ApiEndpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", ApiEndpoint{}, &SpecError{Code: IoError, Message: fmt.Sprintf("open %s: %v", name, err), Location: path, Cause: err}
	}
	defer f.Close()
	return EndpointFromReader(name, f)
}

func readCommon(path, name string) (Common, error) {
	f, err := os.Open(path)
	if err != nil {
		return Common{}, &SpecError{Code: IoError, Message: fmt.Sprintf("open %s: %v", name, err), Location: path, Cause: err}
	}
	defer f.Close()
	return CommonFromReader(name, f)
}

// EndpointFromReader deserializes one endpoint document. The document must be
// a JSON object whose first key names the endpoint; the value is the
// ApiEndpoint. Methods are sorted into canonical order so downstream matching
// can rely on a single shape per method set.
func EndpointFromReader(name string, r io.Reader) (string, ApiEndpoint, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return "", ApiEndpoint{}, parseError(name, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return "", ApiEndpoint{}, parseError(name, fmt.Errorf("expected a JSON object, got %v", tok))
	}

	tok, err = dec.Token()
	if err != nil {
		return "", ApiEndpoint{}, parseError(name, err)
	}
	qualified, ok := tok.(string)
	if !ok {
		// The only other legal token here is the closing brace.
		return "", ApiEndpoint{}, parseError(name, fmt.Errorf("endpoint document has no top-level key"))
	}

	var endpoint ApiEndpoint
	if err := dec.Decode(&endpoint); err != nil {
		return "", ApiEndpoint{}, parseError(name, err)
	}

	// Keys after the first are ignored; well-formed documents have exactly one.

	sort.Slice(endpoint.Methods, func(i, j int) bool {
		return endpoint.Methods[i] < endpoint.Methods[j]
	})

	return qualified, endpoint, nil
}

// CommonFromReader deserializes the shared parameter document.
func CommonFromReader(name string, r io.Reader) (Common, error) {
	var common Common
	if err := json.NewDecoder(r).Decode(&common); err != nil {
		return Common{}, parseError(name, err)
	}
	return common, nil
}

func parseError(name string, err error) error {
	return &SpecError{
		Code:     ParseError,
		Message:  fmt.Sprintf("parse %s: %v", name, err),
		Location: name,
		Cause:    err,
	}
}

// stringOptions projects enum option literals into their string values.
// Options are expected to be JSON strings; anything else is dropped.
func stringOptions(options []any) []string {
	values := make([]string, 0, len(options))
	for _, opt := range options {
		if s, ok := opt.(string); ok {
			values = append(values, s)
		}
	}
	return values
}
