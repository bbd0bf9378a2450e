// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package router

import (
	"fmt"
	"slices"
)

// Node is one level of the router shape. It holds either further nested
// nodes keyed by segment key, verb leaves, or both.
type Node struct {
	Segment  Segment
	Children map[string]*Node
	Verbs    map[string]*Leaf

	// Params are the path parameters required by every leaf in the subtree.
	Params []string
}

// Leaf is the call signature of one verb of one endpoint.
type Leaf struct {
	Endpoint Endpoint
	Spec     VerbSpec
}

// Verb returns the leaf's verb.
func (l *Leaf) Verb() string {
	return l.Spec.Verb
}

// RequiresParams reports whether calls must supply path parameters.
func (l *Leaf) RequiresParams() bool {
	return len(l.Endpoint.Params()) > 0
}

// RequiresMethod reports whether calls must supply the HTTP method.
func (l *Leaf) RequiresMethod() bool {
	return l.Spec.Verb == All
}

// RequiresInput reports whether calls must supply an input value.
func (l *Leaf) RequiresInput() bool {
	return !l.Spec.NoInput
}

// Tree is the merged router shape of a [Manifest].
type Tree struct {
	Root *Node
}

// CollisionError is returned when two endpoints claim the same leaf.
type CollisionError struct {
	Key    string
	First  string
	Second string
}

// Error implements the [error] interface.
func (e CollisionError) Error() string {
	return fmt.Sprintf("router: %s is declared by both %q and %q", e.Key, e.First, e.Second)
}

// Build derives the router shape of m. Endpoints are deep merged by
// segment key. Two endpoints declaring the same verb for the same path, a
// static segment named like a verb, or two different segments sharing a
// key (e.g. "_id" and "[id]") are reported as a [CollisionError].
func Build(m Manifest) (*Tree, error) {
	root := &Node{
		Children: make(map[string]*Node),
		Verbs:    make(map[string]*Leaf),
	}
	declaredBy := make(map[*Node]string)

	for _, spec := range m.Endpoints {
		e, err := ParseEndpoint(spec.Endpoint)
		if err != nil {
			return nil, err
		}

		n := root
		var params []string
		for _, seg := range e.Segments {
			if seg.Kind != Static {
				params = append(params, seg.Name)
			}
			if leaf, ok := n.Verbs[seg.Key()]; ok {
				return nil, CollisionError{Key: seg.Key(), First: leaf.Endpoint.String(), Second: e.String()}
			}

			child, ok := n.Children[seg.Key()]
			if ok && child.Segment != seg {
				return nil, CollisionError{Key: seg.Key(), First: declaredBy[child], Second: e.String()}
			}
			if !ok {
				child = &Node{
					Segment:  seg,
					Children: make(map[string]*Node),
					Verbs:    make(map[string]*Leaf),
					Params:   slices.Clone(params),
				}
				n.Children[seg.Key()] = child
				declaredBy[child] = e.String()
			}
			n = child
		}

		for _, vs := range spec.Verbs {
			if !IsVerb(vs.Verb) {
				return nil, InvalidVerbError{Verb: vs.Verb}
			}
			if existing, ok := n.Verbs[vs.Verb]; ok {
				return nil, CollisionError{Key: vs.Verb, First: existing.Endpoint.String(), Second: e.String()}
			}
			if _, ok := n.Children[vs.Verb]; ok {
				return nil, CollisionError{Key: vs.Verb, First: e.String() + "/" + vs.Verb, Second: e.String()}
			}
			n.Verbs[vs.Verb] = &Leaf{Endpoint: e, Spec: vs}
		}
	}
	return &Tree{Root: root}, nil
}

// Leaves returns every leaf of the tree ordered by endpoint then verb.
func (t *Tree) Leaves() []*Leaf {
	var leaves []*Leaf
	var walk func(*Node)
	walk = func(n *Node) {
		for _, verb := range sortedKeys(n.Verbs) {
			leaves = append(leaves, n.Verbs[verb])
		}
		for _, key := range sortedKeys(n.Children) {
			walk(n.Children[key])
		}
	}
	walk(t.Root)
	return leaves
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
