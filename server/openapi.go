// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"net/http"
	"reflect"

	"github.com/z5labs/typedapi/apierr"
	"github.com/z5labs/typedapi/codec"
	"github.com/z5labs/typedapi/concurrent"
	"github.com/z5labs/typedapi/route"
	"github.com/z5labs/typedapi/router"

	"github.com/bytedance/sonic"
	kin "github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/z5labs/sdk-go/ptr"
)

// documentedMethods are the operations an ALL handler is documented as.
var documentedMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

func (ao *ApiOptions) document(method, path string, e router.Endpoint, d route.Description) error {
	var op openapi3.Operation
	if meta := d.Meta; meta != nil {
		if meta.Summary != "" {
			op.Summary = ptr.Ref(meta.Summary)
		}
		if meta.Description != "" {
			op.Description = ptr.Ref(meta.Description)
		}
		if meta.Deprecated {
			op.Deprecated = ptr.Ref(true)
		}
		if meta.ExternalDocs != nil {
			op.ExternalDocs = &openapi3.ExternalDocumentation{
				URL: meta.ExternalDocs.URL,
			}
			if meta.ExternalDocs.Description != "" {
				op.ExternalDocs.Description = ptr.Ref(meta.ExternalDocs.Description)
			}
		}
		op.Tags = meta.Tags
	}

	for _, name := range e.Params() {
		op.Parameters = append(op.Parameters, openapi3.ParameterOrRef{
			Parameter: &openapi3.Parameter{
				Name:     name,
				In:       openapi3.ParameterInPath,
				Required: ptr.Ref(true),
				Schema:   stringSchema(),
			},
		})
	}

	for _, h := range d.Headers {
		var def any = map[string]any{"type": "string"}
		if h.Schema != nil {
			def = h.Schema
		}
		s, err := toSchemaOrRef(def, h.Meta.Example)
		if err != nil {
			return err
		}

		p := &openapi3.Parameter{
			Name:     h.Name,
			In:       openapi3.ParameterInHeader,
			Required: ptr.Ref(true),
			Schema:   s,
		}
		if h.Meta.Description != "" {
			p.Description = ptr.Ref(h.Meta.Description)
		}
		if h.Meta.Deprecated {
			p.Deprecated = ptr.Ref(true)
		}
		op.Parameters = append(op.Parameters, openapi3.ParameterOrRef{Parameter: p})
	}

	if !d.NoInput && method != http.MethodGet {
		s, err := schemaOf(d.InputSchema, d.InputType)
		if err != nil {
			return err
		}
		op.RequestBody = &openapi3.RequestBodyOrRef{
			RequestBody: &openapi3.RequestBody{
				Required: ptr.Ref(true),
				Content:  content(s),
			},
		}
	}

	out, err := schemaOf(d.OutputSchema, d.OutputType)
	if err != nil {
		return err
	}
	errBody, err := schemaOf(nil, reflect.TypeFor[apierr.Body]())
	if err != nil {
		return err
	}

	op.Responses = openapi3.Responses{
		MapOfResponseOrRefValues: map[string]openapi3.ResponseOrRef{
			"200": {
				Response: &openapi3.Response{
					Description: "OK",
					Content:     content(out),
				},
			},
			"4XX": {
				Response: &openapi3.Response{
					Description: "The request was rejected.",
					Content:     errorContent(errBody),
				},
			},
			"5XX": {
				Response: &openapi3.Response{
					Description: "The request could not be processed.",
					Content:     errorContent(errBody),
				},
			},
		},
	}

	return ao.def.AddOperation(method, path, op)
}

func content(s *openapi3.SchemaOrRef) map[string]openapi3.MediaType {
	return map[string]openapi3.MediaType{
		codec.MediaTypeJSON:       {Schema: s},
		codec.MediaTypeStructured: {Schema: s},
	}
}

func errorContent(s *openapi3.SchemaOrRef) map[string]openapi3.MediaType {
	return map[string]openapi3.MediaType{
		codec.MediaTypeJSON: {Schema: s},
	}
}

func stringSchema() *openapi3.SchemaOrRef {
	schemaType := openapi3.SchemaTypeString
	return &openapi3.SchemaOrRef{
		Schema: &openapi3.Schema{
			Type: &schemaType,
		},
	}
}

// reflected holds the JSON schema of every Go type documented so far.
var reflected = concurrent.NewCache[reflect.Type, jsonschema.Schema]()

// schemaOf prefers the declared schema of a route and falls back to
// reflecting its Go type.
func schemaOf(def *kin.Schema, t reflect.Type) (*openapi3.SchemaOrRef, error) {
	if def != nil {
		return toSchemaOrRef(def, "")
	}
	if t == nil || t.Kind() == reflect.Interface {
		return &openapi3.SchemaOrRef{Schema: &openapi3.Schema{}}, nil
	}

	jsonSchema, err := reflected.GetOr(t, func() (jsonschema.Schema, error) {
		var reflector jsonschema.Reflector
		return reflector.Reflect(reflect.New(t).Elem().Interface(), jsonschema.InlineRefs)
	})
	if err != nil {
		return nil, err
	}

	var schemaOrRef openapi3.SchemaOrRef
	schemaOrRef.FromJSONSchema(jsonSchema.ToSchemaOrBool())
	return &schemaOrRef, nil
}

// toSchemaOrRef converts a JSON schema document, e.g. one built with
// kin-openapi, through its JSON form.
func toSchemaOrRef(def any, example string) (*openapi3.SchemaOrRef, error) {
	b, err := sonic.Marshal(def)
	if err != nil {
		return nil, err
	}
	if example != "" {
		var m map[string]any
		err = sonic.Unmarshal(b, &m)
		if err != nil {
			return nil, err
		}
		m["example"] = example
		b, err = sonic.Marshal(m)
		if err != nil {
			return nil, err
		}
	}

	var s openapi3.SchemaOrRef
	err = sonic.Unmarshal(b, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
