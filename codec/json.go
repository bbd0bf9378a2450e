// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package codec

import (
	"github.com/bytedance/sonic"
)

// JSON is the application/json codec. Numbers decoded into an interface
// value are kept as [encoding/json.Number] so no precision is lost before a
// schema converts them.
var JSON Codec = jsonCodec{
	api: sonic.Config{
		EscapeHTML:       true,
		SortMapKeys:      true,
		CompactMarshaler: true,
		CopyString:       true,
		ValidateString:   true,
		UseNumber:        true,
	}.Froze(),
}

type jsonCodec struct {
	api sonic.API
}

func (jsonCodec) MediaType() string {
	return MediaTypeJSON
}

func (c jsonCodec) Marshal(v any) ([]byte, error) {
	return c.api.Marshal(v)
}

func (c jsonCodec) Unmarshal(data []byte, v any) error {
	return c.api.Unmarshal(data, v)
}
