// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package router

import (
	"fmt"
	"path"
	"strings"
)

// SegmentKind classifies a segment of an endpoint identifier.
type SegmentKind int

const (
	Static SegmentKind = iota
	Param
	CatchAll
)

// Segment is one slash separated element of an endpoint identifier.
type Segment struct {
	Kind SegmentKind
	Name string
}

// Key returns the key of the segment in the router shape. Parameter keys
// are prefixed so they cannot collide with static segments.
func (s Segment) Key() string {
	switch s.Kind {
	case Param:
		return "_" + s.Name
	case CatchAll:
		return "_" + s.Name + "_"
	default:
		return s.Name
	}
}

// String returns the segment as written in an endpoint identifier.
func (s Segment) String() string {
	switch s.Kind {
	case Param:
		return "[" + s.Name + "]"
	case CatchAll:
		return "[..." + s.Name + "]"
	default:
		return s.Name
	}
}

// Endpoint is a parsed endpoint identifier.
type Endpoint struct {
	Segments []Segment
}

// ParseError reports a malformed endpoint identifier.
type ParseError struct {
	Endpoint string
	Reason   string
}

// Error implements the [error] interface.
func (e ParseError) Error() string {
	return fmt.Sprintf("router: invalid endpoint %q: %s", e.Endpoint, e.Reason)
}

// ParseEndpoint parses an endpoint identifier. Leading and trailing slashes
// are ignored and the empty identifier is the root endpoint.
func ParseEndpoint(id string) (Endpoint, error) {
	trimmed := strings.Trim(id, "/")
	if trimmed == "" {
		return Endpoint{}, nil
	}

	parts := strings.Split(trimmed, "/")
	e := Endpoint{Segments: make([]Segment, 0, len(parts))}
	seen := make(map[string]bool)
	for i, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return Endpoint{}, ParseError{Endpoint: id, Reason: err.Error()}
		}
		if seg.Kind == Static {
			e.Segments = append(e.Segments, seg)
			continue
		}
		if seg.Kind == CatchAll && i != len(parts)-1 {
			return Endpoint{}, ParseError{Endpoint: id, Reason: fmt.Sprintf("catch-all segment %s must be last", seg)}
		}
		if seen[seg.Name] {
			return Endpoint{}, ParseError{Endpoint: id, Reason: fmt.Sprintf("duplicate parameter %q", seg.Name)}
		}
		seen[seg.Name] = true
		e.Segments = append(e.Segments, seg)
	}
	return e, nil
}

// MustParseEndpoint is like [ParseEndpoint] but panics on error.
func MustParseEndpoint(id string) Endpoint {
	e, err := ParseEndpoint(id)
	if err != nil {
		panic(err)
	}
	return e
}

func parseSegment(s string) (Segment, error) {
	if s == "" {
		return Segment{}, fmt.Errorf("empty segment")
	}
	if !strings.HasPrefix(s, "[") {
		if strings.ContainsAny(s, "[]") {
			return Segment{}, fmt.Errorf("segment %q mixes brackets with text", s)
		}
		return Segment{Kind: Static, Name: s}, nil
	}
	if !strings.HasSuffix(s, "]") {
		return Segment{}, fmt.Errorf("unterminated parameter %q", s)
	}

	name := s[1 : len(s)-1]
	kind := Param
	if rest, ok := strings.CutPrefix(name, "..."); ok {
		kind = CatchAll
		name = rest
	}
	if !isParamName(name) {
		return Segment{}, fmt.Errorf("invalid parameter name %q", name)
	}
	return Segment{Kind: kind, Name: name}, nil
}

func isParamName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r == '-' || r >= '0' && r <= '9'):
		default:
			return false
		}
	}
	return true
}

// String returns the canonical identifier of the endpoint.
func (e Endpoint) String() string {
	ss := make([]string, len(e.Segments))
	for i, seg := range e.Segments {
		ss[i] = seg.String()
	}
	return strings.Join(ss, "/")
}

// Params returns the names of the endpoint's path parameters in order.
func (e Endpoint) Params() []string {
	var params []string
	for _, seg := range e.Segments {
		if seg.Kind != Static {
			params = append(params, seg.Name)
		}
	}
	return params
}

// EndpointFromFile derives an endpoint identifier from the location of a
// route file relative to the routes directory, e.g. `users/[id]/index.go`
// becomes `users/[id]`.
func EndpointFromFile(file string) string {
	p := path.Clean(strings.ReplaceAll(file, "\\", "/"))
	if ext := path.Ext(p); !strings.Contains(ext, "]") {
		p = strings.TrimSuffix(p, ext)
	}
	p = strings.TrimSuffix(p, "/index")
	if p == "index" || p == "." {
		return ""
	}
	return strings.Trim(p, "/")
}
