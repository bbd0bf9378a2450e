// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package router

import (
	"bytes"
	_ "embed"
	"fmt"
	"go/format"
	"go/token"
	"path"
	"slices"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"
)

// DefaultClientImport is the import path of the runtime package generated
// clients call into.
const DefaultClientImport = "github.com/z5labs/typedapi/client"

// GenerateOptions configures [Generate].
type GenerateOptions struct {
	// Package is the package name of the generated file. Defaults to "api".
	Package string

	// ClientImport overrides [DefaultClientImport].
	ClientImport string
}

// GenerateError reports a router shape which cannot be rendered as Go.
type GenerateError struct {
	Endpoint string
	Reason   string
}

// Error implements the [error] interface.
func (e GenerateError) Error() string {
	if e.Endpoint == "" {
		return "router: generate: " + e.Reason
	}
	return fmt.Sprintf("router: generate %q: %s", "/"+e.Endpoint, e.Reason)
}

//go:embed client.go.tmpl
var clientTemplate string

var clientTmpl = template.Must(template.New("client").Parse(clientTemplate))

// Generate renders t as a typed Go client.
//
// Every static segment becomes a field named after the segment, every
// parameter segment `[id]` becomes a field named `WithID` and every
// catch-all segment `[...rest]` becomes a field named `WithAllRest`. Verbs
// are leaves named after the verb, exposing Fetch and FetchRaw.
func Generate(t *Tree, opts GenerateOptions) ([]byte, error) {
	if opts.Package == "" {
		opts.Package = "api"
	}
	if opts.ClientImport == "" {
		opts.ClientImport = DefaultClientImport
	}
	if !token.IsIdentifier(opts.Package) {
		return nil, GenerateError{Reason: fmt.Sprintf("invalid package name %q", opts.Package)}
	}

	g := &generator{
		file: genFile{
			Package: opts.Package,
		},
		types:   make(map[string]string),
		imports: make(map[string]Import),
	}
	g.addImport(Import{Path: "context", Name: "context"}, "")
	g.addImport(Import{Path: "net/http", Name: "http"}, "")
	g.addImport(Import{Path: opts.ClientImport, Name: "client"}, "")

	err := g.node(t.Root, "", "")
	if err != nil {
		return nil, err
	}
	if len(g.file.Leaves) == 0 {
		delete(g.imports, "context")
		delete(g.imports, "http")
	}

	for _, imp := range g.imports {
		g.file.Imports = append(g.file.Imports, genImport{
			Path:  imp.Path,
			Alias: importAlias(imp),
		})
	}
	slices.SortFunc(g.file.Imports, func(a, b genImport) int {
		return strings.Compare(a.Path, b.Path)
	})

	var buf bytes.Buffer
	err = clientTmpl.Execute(&buf, g.file)
	if err != nil {
		return nil, err
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("router: generated client does not parse: %w", err)
	}
	return src, nil
}

type genFile struct {
	Package string
	Imports []genImport
	Nodes   []genNode
	Params  []genParams
	Leaves  []genLeaf
}

type genImport struct {
	Path  string
	Alias string
}

type genNode struct {
	Type        string
	Constructor string
	Endpoint    string
	Root        bool
	Fields      []genField
}

type genField struct {
	Name string
	Type string
	Leaf bool
}

type genParams struct {
	Type     string
	Endpoint string
	Fields   []genParam
}

type genParam struct {
	Name  string
	Field string
}

type genLeaf struct {
	Type       string
	Endpoint   string
	Verb       string
	Output     string
	Args       string
	CallArgs   string
	CallParams string
	InputArg   string
	Method     bool
	NoInput    bool
	Params     []genParam
}

// reserved holds identifiers the generated methods declare locally.
var reserved = map[string]bool{
	"ctx":    true,
	"method": true,
	"params": true,
	"input":  true,
	"opts":   true,
	"r":      true,
	"c":      true,
}

type generator struct {
	file    genFile
	types   map[string]string
	imports map[string]Import
}

func (g *generator) declare(typ, endpoint string) error {
	if other, ok := g.types[typ]; ok {
		return GenerateError{
			Endpoint: endpoint,
			Reason:   fmt.Sprintf("type %s is also generated for %q", typ, "/"+other),
		}
	}
	g.types[typ] = endpoint
	return nil
}

func (g *generator) addImport(imp Import, endpoint string) error {
	if reserved[imp.Name] {
		return GenerateError{
			Endpoint: endpoint,
			Reason:   fmt.Sprintf("package name %s of %s is shadowed by the generated code", imp.Name, imp.Path),
		}
	}
	existing, ok := g.imports[imp.Name]
	if ok && existing.Path != imp.Path {
		return GenerateError{
			Endpoint: endpoint,
			Reason:   fmt.Sprintf("package name %s refers to both %s and %s", imp.Name, existing.Path, imp.Path),
		}
	}
	g.imports[imp.Name] = imp
	return nil
}

// node renders n. prefix is the joined field path of n, which is empty for
// the root.
func (g *generator) node(n *Node, prefix, endpoint string) error {
	root := prefix == ""
	gn := genNode{
		Type:        prefix + "Routes",
		Constructor: "new" + prefix + "Routes",
		Endpoint:    endpoint,
		Root:        root,
	}
	if root {
		gn.Type = "Client"
		gn.Constructor = "New"
	}
	err := g.declare(gn.Type, endpoint)
	if err != nil {
		return err
	}
	idx := len(g.file.Nodes)
	g.file.Nodes = append(g.file.Nodes, gn)

	fields := make(map[string]string)
	addField := func(f genField, key string) error {
		if other, ok := fields[f.Name]; ok {
			return GenerateError{
				Endpoint: endpoint,
				Reason:   fmt.Sprintf("segments %q and %q both map to field %s", other, key, f.Name),
			}
		}
		fields[f.Name] = key
		gn.Fields = append(gn.Fields, f)
		return nil
	}

	if len(n.Verbs) > 0 && len(n.Params) > 0 {
		err = g.params(n, prefix, endpoint)
		if err != nil {
			return err
		}
	}

	leafPrefix := prefix
	if root {
		leafPrefix = "Root"
	}
	for _, verb := range sortedKeys(n.Verbs) {
		leaf := n.Verbs[verb]
		typ := leafPrefix + verb
		err = g.leaf(leaf, typ, prefix+"Params")
		if err != nil {
			return err
		}
		err = addField(genField{Name: verb, Type: typ, Leaf: true}, verb)
		if err != nil {
			return err
		}
	}

	for _, key := range sortedKeys(n.Children) {
		child := n.Children[key]
		name, err := fieldName(child.Segment)
		if err != nil {
			return GenerateError{Endpoint: endpoint, Reason: err.Error()}
		}
		err = addField(genField{Name: name, Type: prefix + name + "Routes"}, child.Segment.String())
		if err != nil {
			return err
		}

		childEndpoint := path.Join(endpoint, child.Segment.String())
		err = g.node(child, prefix+name, childEndpoint)
		if err != nil {
			return err
		}
	}

	g.file.Nodes[idx] = gn
	return nil
}

func (g *generator) params(n *Node, prefix, endpoint string) error {
	gp := genParams{
		Type:     prefix + "Params",
		Endpoint: endpoint,
	}
	err := g.declare(gp.Type, endpoint)
	if err != nil {
		return err
	}

	seen := make(map[string]string)
	for _, name := range n.Params {
		field := pascal(name)
		if other, ok := seen[field]; ok {
			return GenerateError{
				Endpoint: endpoint,
				Reason:   fmt.Sprintf("parameters %q and %q both map to field %s", other, name, field),
			}
		}
		seen[field] = name
		gp.Fields = append(gp.Fields, genParam{Name: name, Field: field})
	}
	g.file.Params = append(g.file.Params, gp)
	return nil
}

func (g *generator) leaf(l *Leaf, typ, paramsType string) error {
	endpoint := l.Endpoint.String()
	err := g.declare(typ, endpoint)
	if err != nil {
		return err
	}

	for _, ref := range []TypeRef{l.Spec.Input, l.Spec.Output} {
		for _, imp := range ref.Imports {
			err = g.addImport(imp, endpoint)
			if err != nil {
				return err
			}
		}
	}

	gl := genLeaf{
		Type:     typ,
		Endpoint: endpoint,
		Verb:     l.Verb(),
		Output:   exprOrAny(l.Spec.Output),
		Method:   l.RequiresMethod(),
		NoInput:  !l.RequiresInput(),
		InputArg: "nil",
	}

	args := []string{"ctx context.Context"}
	var callArgs, callParams []string
	if l.RequiresMethod() {
		args = append(args, "method string")
		callArgs = append(callArgs, "method")
		callParams = append(callParams, "method string")
	}
	if l.RequiresParams() {
		args = append(args, "params "+paramsType)
		callArgs = append(callArgs, "params")
		callParams = append(callParams, "params "+paramsType)
		for _, name := range l.Endpoint.Params() {
			gl.Params = append(gl.Params, genParam{Name: name, Field: pascal(name)})
		}
	}
	if l.RequiresInput() {
		args = append(args, "input "+exprOrAny(l.Spec.Input))
		gl.InputArg = "input"
	}
	args = append(args, "opts ...client.Option")

	gl.Args = strings.Join(args, ", ")
	gl.CallArgs = strings.Join(callArgs, ", ")
	gl.CallParams = strings.Join(callParams, ", ")
	g.file.Leaves = append(g.file.Leaves, gl)
	return nil
}

func exprOrAny(ref TypeRef) string {
	if ref.IsZero() {
		return "any"
	}
	return ref.Expr
}

func importAlias(imp Import) string {
	if path.Base(imp.Path) == imp.Name {
		return ""
	}
	return imp.Name
}

func fieldName(seg Segment) (string, error) {
	name := pascal(seg.Name)
	switch seg.Kind {
	case Param:
		name = "With" + name
	case CatchAll:
		name = "WithAll" + name
	}
	if name == "" || !token.IsIdentifier(name) || !token.IsExported(name) {
		return "", fmt.Errorf("segment %s cannot be named in Go", seg)
	}
	return name, nil
}

var initialisms = map[string]string{
	"api":  "API",
	"http": "HTTP",
	"id":   "ID",
	"ip":   "IP",
	"json": "JSON",
	"uri":  "URI",
	"url":  "URL",
	"uuid": "UUID",
}

// pascal converts a segment or parameter name into an exported Go
// identifier, e.g. "user-id" becomes "UserID".
func pascal(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var b strings.Builder
	for _, p := range parts {
		if up, ok := initialisms[strings.ToLower(p)]; ok {
			b.WriteString(up)
			continue
		}
		r, size := utf8.DecodeRuneInString(p)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(p[size:])
	}

	out := b.String()
	if r, _ := utf8.DecodeRuneInString(out); unicode.IsDigit(r) {
		out = "N" + out
	}
	return out
}
