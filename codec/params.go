// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package codec

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

// ParamsToData converts a raw query string into the input of a GET request.
// A key that occurs once maps to its string value and a key that occurs
// more than once maps to a []string holding every value in order. An empty
// query yields nil.
//
// Keys are grouped by first occurrence. Malformed pairs are skipped.
func ParamsToData(rawQuery string) map[string]any {
	if rawQuery == "" {
		return nil
	}

	var order []string
	groups := make(map[string][]string)
	for pair := range strings.SplitSeq(rawQuery, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			continue
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], value)
	}
	if len(order) == 0 {
		return nil
	}

	data := make(map[string]any, len(order))
	for _, key := range order {
		values := groups[key]
		if len(values) == 1 {
			data[key] = values[0]
			continue
		}
		data[key] = values
	}
	return data
}

// DataToParams is the inverse of [ParamsToData] used by clients to send GET
// input. Slices become repeated keys and nested objects are sent as JSON.
// Structs are converted through their JSON form.
func DataToParams(data any) (url.Values, error) {
	values := url.Values{}
	if data == nil {
		return values, nil
	}

	switch d := data.(type) {
	case url.Values:
		return d, nil
	case map[string][]string:
		return url.Values(d), nil
	case map[string]string:
		for k, v := range d {
			values.Set(k, v)
		}
		return values, nil
	}

	m, err := toMap(data)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		err := addParam(values, k, m[k])
		if err != nil {
			return nil, err
		}
	}
	return values, nil
}

func toMap(data any) (map[string]any, error) {
	if m, ok := data.(map[string]any); ok {
		return m, nil
	}

	rv := reflect.Indirect(reflect.ValueOf(data))
	switch rv.Kind() {
	case reflect.Struct, reflect.Map:
	default:
		return nil, fmt.Errorf("codec: query input must be an object, got %T", data)
	}

	b, err := sonic.ConfigStd.Marshal(data)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	err = sonic.ConfigStd.Unmarshal(b, &m)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func addParam(values url.Values, key string, v any) error {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		values.Add(key, x)
	case []string:
		for _, s := range x {
			values.Add(key, s)
		}
	case []any:
		for _, e := range x {
			err := addParam(values, key, e)
			if err != nil {
				return err
			}
		}
	case map[string]any:
		b, err := sonic.ConfigStd.Marshal(x)
		if err != nil {
			return err
		}
		values.Add(key, string(b))
	default:
		values.Add(key, fmt.Sprint(x))
	}
	return nil
}
