package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	genspec "github.com/restkit/spec2client/internal/spec"
)

// Document projects an assembled Api into an OpenAPI 3 document: one
// operation per endpoint, method, and path variant, with url parts as path
// parameters, url params as query parameters, and the common params attached
// to every operation. The projection is deterministic: endpoints, methods,
// variants, and parameters are all emitted in canonical order.
func Document(api *genspec.Api) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   "REST API",
			Version: api.Commit,
		},
		Paths: openapi3.Paths{},
	}

	for _, name := range sortedKeys(api.Root) {
		ep := api.Root[name]
		addEndpoint(doc, api, name, &ep)
	}
	for _, ns := range sortedKeys(api.Namespaces) {
		methods := api.Namespaces[ns]
		for _, method := range sortedKeys(methods) {
			ep := methods[method]
			addEndpoint(doc, api, ns+"."+method, &ep)
		}
	}

	return doc
}

func addEndpoint(doc *openapi3.T, api *genspec.Api, qualified string, ep *genspec.ApiEndpoint) {
	multiVariant := len(ep.Url.Paths) > 1
	multiMethod := len(ep.Methods) > 1

	for vi, variant := range ep.Url.Paths {
		item := doc.Paths[variant.Template]
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths[variant.Template] = item
		}

		for _, method := range ep.Methods {
			op := &openapi3.Operation{
				OperationID: operationID(qualified, method, vi, multiMethod, multiVariant),
				Summary:     strings.TrimSpace(ep.Documentation),
				Description: strings.TrimSpace(ep.Documentation),
				Parameters:  parameters(api, ep, variant),
				Responses: openapi3.Responses{
					"200": &openapi3.ResponseRef{Value: okResponse()},
				},
			}
			if ep.SupportsBody() {
				op.RequestBody = requestBody(ep.Body)
			}
			setOperation(item, method, op)
		}
	}
}

func operationID(qualified string, method genspec.HttpMethod, variant int, multiMethod, multiVariant bool) string {
	id := qualified
	if multiMethod {
		id += "_" + strings.ToLower(method.String())
	}
	if multiVariant {
		id += fmt.Sprintf("_%d", variant)
	}
	return id
}

func setOperation(item *openapi3.PathItem, method genspec.HttpMethod, op *openapi3.Operation) {
	switch method {
	case genspec.Head:
		item.Head = op
	case genspec.Get:
		item.Get = op
	case genspec.Post:
		item.Post = op
	case genspec.Put:
		item.Put = op
	case genspec.Patch:
		item.Patch = op
	case genspec.Delete:
		item.Delete = op
	}
}

// parameters renders the variant's path parts (in template order) followed by
// the endpoint's query params and the common params, both in sorted key
// order. An endpoint param shadows a common param of the same name.
func parameters(api *genspec.Api, ep *genspec.ApiEndpoint, variant genspec.Path) openapi3.Parameters {
	var params openapi3.Parameters

	for _, name := range variant.Params {
		t := ep.Url.Parts[name]
		params = append(params, &openapi3.ParameterRef{Value: &openapi3.Parameter{
			Name:        name,
			In:          openapi3.ParameterInPath,
			Required:    true,
			Description: t.Description,
			Schema:      schemaRef(t),
		}})
	}

	for _, name := range sortedKeys(ep.Url.Params) {
		t := ep.Url.Params[name]
		params = append(params, queryParameter(name, t))
	}
	for _, name := range sortedKeys(api.CommonParams) {
		if _, shadowed := ep.Url.Params[name]; shadowed {
			continue
		}
		params = append(params, queryParameter(name, api.CommonParams[name]))
	}

	return params
}

func queryParameter(name string, t genspec.Type) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{Value: &openapi3.Parameter{
		Name:        name,
		In:          openapi3.ParameterInQuery,
		Description: t.Description,
		Schema:      schemaRef(t),
	}}
}

func schemaRef(t genspec.Type) *openapi3.SchemaRef {
	s := &openapi3.Schema{Description: t.Description}
	switch t.Kind {
	case genspec.KindBoolean:
		s.Type = openapi3.TypeBoolean
	case genspec.KindNumber, genspec.KindFloat, genspec.KindDouble:
		s.Type = openapi3.TypeNumber
	case genspec.KindInteger, genspec.KindLong:
		s.Type = openapi3.TypeInteger
	case genspec.KindList:
		s.Type = openapi3.TypeArray
		s.Items = openapi3.NewSchemaRef("", openapi3.NewStringSchema())
	case genspec.KindEnum:
		s.Type = openapi3.TypeString
		s.Enum = append([]any(nil), t.Options...)
	default:
		s.Type = openapi3.TypeString
	}
	if t.Default != nil {
		s.Default = t.Default
	}
	return openapi3.NewSchemaRef("", s)
}

func requestBody(body *genspec.Body) *openapi3.RequestBodyRef {
	description := ""
	if body != nil {
		description = body.Description
	}
	return &openapi3.RequestBodyRef{Value: &openapi3.RequestBody{
		Description: description,
		Content: openapi3.Content{
			"application/json": &openapi3.MediaType{
				Schema: openapi3.NewSchemaRef("", openapi3.NewObjectSchema()),
			},
		},
	}}
}

func okResponse() *openapi3.Response {
	description := "The operation response."
	return &openapi3.Response{Description: &description}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
