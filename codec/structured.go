// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package codec

import (
	"bytes"
	"fmt"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Structured is the application/escodec codec. Values are carried as BSON
// inside a single field envelope document so that scalars and arrays can be
// sent at the top level. Struct fields use their json tags.
var Structured Codec = structuredCodec{}

const envelopeKey = "v"

type structuredCodec struct{}

func (structuredCodec) MediaType() string {
	return MediaTypeStructured
}

func (structuredCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := bson.NewEncoder(bson.NewDocumentWriter(&buf))
	enc.UseJSONStructTags()

	err := enc.Encode(bson.D{{Key: envelopeKey, Value: v}})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (structuredCodec) Unmarshal(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("codec: unmarshal target must be a non-nil pointer, got %T", v)
	}

	dec := bson.NewDecoder(bson.NewDocumentReader(bytes.NewReader(data)))
	dec.DefaultDocumentM()
	dec.UseJSONStructTags()

	if dst, ok := v.(*any); ok {
		var env struct {
			V any `bson:"v"`
		}
		err := dec.Decode(&env)
		if err != nil {
			return err
		}
		*dst = Normalize(env.V)
		return nil
	}

	envType := reflect.StructOf([]reflect.StructField{
		{
			Name: "V",
			Type: rv.Elem().Type(),
			Tag:  reflect.StructTag(`bson:"` + envelopeKey + `"`),
		},
	})
	env := reflect.New(envType)
	err := dec.Decode(env.Interface())
	if err != nil {
		return err
	}
	rv.Elem().Set(env.Elem().Field(0))
	return nil
}

// Normalize converts BSON specific values produced by the structured codec
// into plain Go values.
func Normalize(v any) any {
	switch x := v.(type) {
	case bson.M:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[k] = Normalize(e)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, e := range x {
			m[k] = Normalize(e)
		}
		return m
	case bson.D:
		m := make(map[string]any, len(x))
		for _, e := range x {
			m[e.Key] = Normalize(e.Value)
		}
		return m
	case bson.A:
		return normalizeSlice(x)
	case []any:
		return normalizeSlice(x)
	case bson.DateTime:
		return x.Time().UTC()
	case time.Time:
		return x.UTC()
	case bson.Binary:
		return x.Data
	case bson.ObjectID:
		return x.Hex()
	case bson.Decimal128:
		return x.String()
	case bson.Null, bson.Undefined:
		return nil
	default:
		return v
	}
}

func normalizeSlice(xs []any) []any {
	s := make([]any, len(xs))
	for i, e := range xs {
		s[i] = Normalize(e)
	}
	return s
}
