package catalog

import (
	"encoding/json"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/igorsal/iam-dashboard/internal/models"
)

// OpenAPI renders the catalog as an OpenAPI 3 document
func (c *Catalog) OpenAPI(title, version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   title,
			Version: version,
		},
		Servers: openapi3.Servers{{URL: c.baseURL}},
		Paths:   openapi3.NewPaths(),
	}

	for _, ep := range c.endpoints {
		item := doc.Paths.Value(ep.Path)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(ep.Path, item)
		}
		item.SetOperation(ep.Method, buildOperation(ep))
	}

	return doc
}

func buildOperation(ep models.EndpointDescriptor) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = operationID(ep)
	op.Summary = ep.Summary
	op.Description = ep.Description
	op.Tags = ep.Tags

	for _, p := range ep.Parameters {
		if p.In == models.InBody {
			body := openapi3.NewRequestBody().
				WithDescription(p.Description).
				WithRequired(p.Required).
				WithJSONSchema(exampleSchema(p.Schema))
			op.RequestBody = &openapi3.RequestBodyRef{Value: body}
			continue
		}

		var param *openapi3.Parameter
		switch p.In {
		case models.InHeader:
			param = openapi3.NewHeaderParameter(p.Name)
		case models.InQuery:
			param = openapi3.NewQueryParameter(p.Name)
		default:
			param = openapi3.NewPathParameter(p.Name)
		}
		param = param.
			WithDescription(p.Description).
			WithRequired(p.Required || p.In == models.InPath).
			WithSchema(scalarSchema(p.Type))
		op.AddParameter(param)
	}

	responses := openapi3.NewResponses()
	responses.Delete("default")
	for status, r := range ep.Responses {
		resp := openapi3.NewResponse().WithDescription(r.Description)
		if r.Schema != nil {
			resp = resp.WithJSONSchema(documentedSchema(r.Schema))
		}
		responses.Set(status, &openapi3.ResponseRef{Value: resp})
	}
	op.Responses = responses

	return op
}

// documentedSchema converts a JSON-schema-like map from the catalog. Shapes
// that do not decode fall back to an untyped example.
func documentedSchema(raw interface{}) *openapi3.Schema {
	data, err := json.Marshal(raw)
	if err != nil {
		return exampleSchema(raw)
	}
	var schema openapi3.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return exampleSchema(raw)
	}
	return &schema
}

func exampleSchema(example interface{}) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	schema.Example = example
	return schema
}

func scalarSchema(typ string) *openapi3.Schema {
	switch typ {
	case "integer":
		return openapi3.NewIntegerSchema()
	case "boolean":
		return openapi3.NewBoolSchema()
	default:
		return openapi3.NewStringSchema()
	}
}

func operationID(ep models.EndpointDescriptor) string {
	replacer := strings.NewReplacer("/", "_", "{", "", "}", "", "-", "_")
	return strings.ToLower(ep.Method) + replacer.Replace(ep.Path)
}
