package goemitter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	genspec "github.com/restkit/spec2client/internal/spec"
)

// Options controls how the Go client library is rendered.
type Options struct {
	OutDir      string // required; target directory to write the package
	PackageName string // generated package name; defaults to "client"
	Force       bool   // overwrite a non-empty output directory
	DryRun      bool   // don't write, only plan
	Verbose     bool
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result returns the planned files and the resolved package name.
type Result struct {
	PackageName string
	Planned     []PlannedFile
}

// Emit renders a typed Go client package from the assembled Api: client.go
// with the transport contract and namespace accessors, enums.go with one
// string-typed enumeration per harvested enum, root.go with the top-level
// operations, and one file per namespace.
func Emit(ctx context.Context, api *genspec.Api, opts Options) (*Result, error) {
	_ = ctx
	if api == nil {
		return nil, fmt.Errorf("goemitter: nil Api")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("goemitter: OutDir is required")
	}
	pkg := strings.TrimSpace(opts.PackageName)
	if pkg == "" {
		pkg = "client"
	}

	header := renderHeader(api.Commit)

	files := map[string][]byte{}
	files["client.go"] = []byte(renderClient(api, pkg, header))
	files["enums.go"] = []byte(renderEnums(api, pkg, header))
	files["root.go"] = []byte(renderRoot(api, pkg, header))
	for _, ns := range namespaceNames(api) {
		files[ns+".go"] = []byte(renderNamespace(api, pkg, header, ns))
	}

	// Plan in deterministic order
	rels := make([]string, 0, len(files))
	for p := range files {
		rels = append(rels, filepath.ToSlash(p))
	}
	sort.Strings(rels)

	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		planned = append(planned, PlannedFile{RelPath: rel, Size: len(files[rel]), Mode: 0o644})
	}

	if !opts.DryRun {
		if err := writeFiles(opts.OutDir, files, opts.Force); err != nil {
			return nil, err
		}
		if opts.Verbose {
			fmt.Fprintf(os.Stderr, "wrote %d files to %s\n", len(planned), opts.OutDir)
		}
	}

	return &Result{PackageName: pkg, Planned: planned}, nil
}

func writeFiles(outDir string, files map[string][]byte, force bool) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve out dir: %w", err)
	}
	if st, err := os.Stat(abs); err == nil && st.IsDir() && !force {
		entries, rerr := os.ReadDir(abs)
		if rerr == nil && len(entries) > 0 {
			return fmt.Errorf("goemitter: output directory %q is not empty (use --force to overwrite)", abs)
		}
	}
	for rel, content := range files {
		p := filepath.Join(abs, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
		// atomic write via temp file + rename
		tmp := p + ".tmp-" + time.Now().Format("20060102150405")
		if err := os.WriteFile(tmp, content, 0o644); err != nil {
			return fmt.Errorf("write temp %s: %w", rel, err)
		}
		if err := os.Rename(tmp, p); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("rename %s: %w", rel, err)
		}
	}
	return nil
}

func renderHeader(commit string) string {
	return fmt.Sprintf("// Code generated by spec2client from the REST API specs (%s). DO NOT EDIT.\n\n", commit)
}

func renderClient(api *genspec.Api, pkg, header string) string {
	var b strings.Builder
	b.WriteString(header)
	fmt.Fprintf(&b, "package %s\n\n", pkg)
	b.WriteString("import (\n\t\"io\"\n\t\"net/http\"\n\t\"net/url\"\n)\n\n")
	b.WriteString("// Transport sends a prepared API request and returns the raw response.\n")
	b.WriteString("type Transport interface {\n")
	b.WriteString("\tPerform(method, path string, params url.Values, body io.Reader) (*http.Response, error)\n")
	b.WriteString("}\n\n")
	b.WriteString("// Client exposes the top-level API operations and the namespace clients.\n")
	b.WriteString("type Client struct {\n\ttransport Transport\n}\n\n")
	b.WriteString("// NewClient returns a Client that performs requests through transport.\n")
	b.WriteString("func NewClient(transport Transport) *Client {\n\treturn &Client{transport: transport}\n}\n")
	for _, ns := range namespaceNames(api) {
		typeName := exportedIdent(ns) + "Client"
		fmt.Fprintf(&b, "\n// %s returns a client for the %s namespace operations.\n", exportedIdent(ns), ns)
		fmt.Fprintf(&b, "func (c *Client) %s() *%s {\n\treturn &%s{transport: c.transport}\n}\n", exportedIdent(ns), typeName, typeName)
	}
	return b.String()
}

func renderEnums(api *genspec.Api, pkg, header string) string {
	var b strings.Builder
	b.WriteString(header)
	fmt.Fprintf(&b, "package %s\n", pkg)
	for _, e := range api.Enums {
		typeName := exportedIdent(e.Name)
		fmt.Fprintf(&b, "\n// %s is the set of accepted values for the %q parameter.\n", typeName, e.Name)
		fmt.Fprintf(&b, "type %s string\n", typeName)
		if len(e.Values) == 0 {
			continue
		}
		b.WriteString("\nconst (\n")
		for _, v := range e.Values {
			fmt.Fprintf(&b, "\t%s%s %s = %q\n", typeName, exportedIdent(v), typeName, v)
		}
		b.WriteString(")\n")
	}
	return b.String()
}

func renderRoot(api *genspec.Api, pkg, header string) string {
	var b strings.Builder
	b.WriteString(header)
	fmt.Fprintf(&b, "package %s\n\n", pkg)
	writeImports(&b, api.Root)
	for _, name := range sortedKeys(api.Root) {
		ep := api.Root[name]
		writeMethod(&b, "c", "Client", name, &ep)
	}
	return b.String()
}

func renderNamespace(api *genspec.Api, pkg, header, ns string) string {
	endpoints := api.Namespaces[ns]
	typeName := exportedIdent(ns) + "Client"

	var b strings.Builder
	b.WriteString(header)
	fmt.Fprintf(&b, "package %s\n\n", pkg)
	writeImports(&b, endpoints)
	fmt.Fprintf(&b, "// %s groups the %s namespace operations.\n", typeName, ns)
	fmt.Fprintf(&b, "type %s struct {\n\ttransport Transport\n}\n", typeName)
	for _, name := range sortedKeys(endpoints) {
		ep := endpoints[name]
		writeMethod(&b, "n", typeName, name, &ep)
	}
	return b.String()
}

// writeImports emits the import block a generated file needs for the given
// endpoints: net/http and net/url always, io when any endpoint takes a body,
// fmt when any path has parameters to substitute.
func writeImports(b *strings.Builder, endpoints map[string]genspec.ApiEndpoint) {
	needsIO := false
	needsFmt := false
	for _, ep := range endpoints {
		if ep.SupportsBody() {
			needsIO = true
		}
		if len(pathArgs(&ep)) > 0 {
			needsFmt = true
		}
	}
	b.WriteString("import (\n")
	if needsFmt {
		b.WriteString("\t\"fmt\"\n")
	}
	if needsIO {
		b.WriteString("\t\"io\"\n")
	}
	b.WriteString("\t\"net/http\"\n")
	b.WriteString("\t\"net/url\"\n")
	b.WriteString(")\n\n")
}

// writeMethod emits one generated operation. The signature takes the
// endpoint's required parts in canonical order, a body reader when the
// endpoint supports one, and the query parameters.
func writeMethod(b *strings.Builder, recv, recvType, name string, ep *genspec.ApiEndpoint) {
	methodName := exportedIdent(name)

	args := make([]string, 0, 4)
	if len(ep.Url.Paths) > 0 {
		for _, part := range ep.Url.RequiredParts() {
			args = append(args, argIdent(part.Name)+" string")
		}
	}
	if ep.SupportsBody() {
		args = append(args, "body io.Reader")
	}
	args = append(args, "params url.Values")

	doc := strings.TrimSpace(ep.Documentation)
	b.WriteString("\n")
	if doc != "" {
		fmt.Fprintf(b, "// %s %s\n", methodName, doc)
	} else {
		fmt.Fprintf(b, "// %s executes the %s operation.\n", methodName, name)
	}
	fmt.Fprintf(b, "func (%s *%s) %s(%s) (*http.Response, error) {\n", recv, recvType, methodName, strings.Join(args, ", "))

	template, templateArgs := pathExpr(ep)
	if len(templateArgs) == 0 {
		fmt.Fprintf(b, "\tpath := %q\n", template)
	} else {
		fmt.Fprintf(b, "\tpath := fmt.Sprintf(%q, %s)\n", template, strings.Join(templateArgs, ", "))
	}

	bodyExpr := "nil"
	if ep.SupportsBody() {
		bodyExpr = "body"
	}
	verb := "GET"
	if len(ep.Methods) > 0 {
		verb = ep.Methods[0].String()
	}
	fmt.Fprintf(b, "\treturn %s.transport.Perform(%q, path, params, %s)\n", recv, verb, bodyExpr)
	b.WriteString("}\n")
}

// pathArgs returns the parameter names of the path variant a generated method
// uses, in template order.
func pathArgs(ep *genspec.ApiEndpoint) []string {
	_, args := pathExpr(ep)
	return args
}

// pathExpr picks the path variant buildable from the required parts alone and
// returns it as a Sprintf template plus the argument identifiers in template
// order. Falls back to the first variant when none qualifies.
func pathExpr(ep *genspec.ApiEndpoint) (string, []string) {
	required := make(map[string]struct{})
	if len(ep.Url.Paths) > 0 {
		for _, name := range ep.Url.RequiredPartNames() {
			required[name] = struct{}{}
		}
	}

	variant := genspec.Path{Template: "/"}
	if len(ep.Url.Paths) > 0 {
		variant = ep.Url.Paths[0]
		for _, p := range ep.Url.Paths {
			ok := true
			for _, name := range p.Params {
				if _, found := required[name]; !found {
					ok = false
					break
				}
			}
			if ok {
				variant = p
				break
			}
		}
	}

	template := variant.Template
	args := make([]string, 0, len(variant.Params))
	for _, name := range variant.Params {
		template = strings.Replace(template, "{"+name+"}", "%s", 1)
		args = append(args, argIdent(name))
	}
	return template, args
}

func namespaceNames(api *genspec.Api) []string {
	return sortedKeys(api.Namespaces)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// exportedIdent turns a spec name like "expand_wildcards" or "indices.create"
// into an exported Go identifier.
func exportedIdent(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == '.' || r == ' ':
			upper = true
		case upper:
			b.WriteRune(toUpper(r))
			upper = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// argIdent turns a part name into a local argument name, steering clear of
// Go keywords.
func argIdent(name string) string {
	switch name {
	case "type":
		return "typ"
	case "func", "var", "map", "range", "select", "case", "if", "for", "return":
		return name + "Arg"
	}
	var b strings.Builder
	upper := false
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == '.':
			upper = true
		case upper:
			b.WriteRune(toUpper(r))
			upper = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}
