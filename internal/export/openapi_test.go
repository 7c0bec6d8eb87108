package export

import (
	"context"
	"testing"

	genspec "github.com/restkit/spec2client/internal/spec"
)

func sampleApi() *genspec.Api {
	return &genspec.Api{
		Commit: "main",
		CommonParams: map[string]genspec.Type{
			"pretty": {Kind: genspec.KindBoolean, Description: "Pretty-print the response"},
		},
		Root: map[string]genspec.ApiEndpoint{
			"search": {
				Documentation: "Runs a search.",
				Stability:     "stable",
				Methods:       []genspec.HttpMethod{genspec.Get, genspec.Post},
				Url: genspec.Url{
					Paths: []genspec.Path{
						{Template: "/_search"},
						{Template: "/{index}/_search", Params: []string{"index"}},
					},
					Parts: map[string]genspec.Type{"index": {Kind: genspec.KindList}},
					Params: map[string]genspec.Type{
						"expand_wildcards": {Kind: genspec.KindEnum, Options: []any{"open", "closed"}},
					},
				},
				Body: &genspec.Body{Description: "The search definition"},
			},
		},
		Namespaces: map[string]map[string]genspec.ApiEndpoint{
			"indices": {
				"create": {
					Stability: "stable",
					Methods:   []genspec.HttpMethod{genspec.Put},
					Url: genspec.Url{
						Paths: []genspec.Path{{Template: "/{index}", Params: []string{"index"}}},
						Parts: map[string]genspec.Type{"index": {Kind: genspec.KindString}},
					},
				},
			},
		},
	}
}

func TestDocument_OneOperationPerMethodAndVariant(t *testing.T) {
	t.Parallel()
	doc := Document(sampleApi())

	item := doc.Paths["/_search"]
	if item == nil {
		t.Fatalf("missing /_search path item")
	}
	if item.Get == nil || item.Post == nil {
		t.Fatalf("expected GET and POST operations on /_search")
	}
	if item.Get.OperationID == item.Post.OperationID {
		t.Fatalf("operation ids must be unique, both are %q", item.Get.OperationID)
	}

	variant := doc.Paths["/{index}/_search"]
	if variant == nil || variant.Get == nil {
		t.Fatalf("missing second path variant operation")
	}

	create := doc.Paths["/{index}"]
	if create == nil || create.Put == nil {
		t.Fatalf("missing indices.create operation")
	}
	if create.Put.OperationID != "indices.create" {
		t.Fatalf("operation id = %q", create.Put.OperationID)
	}
}

func TestDocument_Parameters(t *testing.T) {
	t.Parallel()
	doc := Document(sampleApi())

	op := doc.Paths["/{index}/_search"].Get
	var names []string
	for _, ref := range op.Parameters {
		names = append(names, ref.Value.In+":"+ref.Value.Name)
	}
	want := []string{"path:index", "query:expand_wildcards", "query:pretty"}
	if len(names) != len(want) {
		t.Fatalf("parameters = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("parameters = %v, want %v", names, want)
		}
	}

	index := op.Parameters[0].Value
	if !index.Required {
		t.Fatalf("path parameter must be required")
	}
	enum := op.Parameters[1].Value
	if len(enum.Schema.Value.Enum) != 2 {
		t.Fatalf("expected enum options on schema, got %v", enum.Schema.Value.Enum)
	}
}

func TestDocument_BodyProjection(t *testing.T) {
	t.Parallel()
	doc := Document(sampleApi())

	if doc.Paths["/_search"].Post.RequestBody == nil {
		t.Fatalf("search supports a body, request body missing")
	}
	if doc.Paths["/{index}"].Put.RequestBody == nil {
		t.Fatalf("PUT endpoints support a body, request body missing")
	}
}

func TestDocument_Validates(t *testing.T) {
	t.Parallel()
	doc := Document(sampleApi())
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("document does not validate: %v", err)
	}
}
