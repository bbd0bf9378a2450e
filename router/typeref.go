// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package router

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Import is a package a [TypeRef] depends on.
type Import struct {
	Path string `yaml:"path" json:"path"`
	Name string `yaml:"name" json:"name"`
}

// TypeRef is a Go type expression together with the packages it refers to,
// e.g. `[]api.User` importing `example.com/app/api` as `api`.
type TypeRef struct {
	Expr    string   `yaml:"expr,omitempty" json:"expr,omitempty"`
	Imports []Import `yaml:"imports,omitempty" json:"imports,omitempty"`
}

// IsZero reports whether the reference is empty.
func (t TypeRef) IsZero() bool {
	return t.Expr == ""
}

// TypeRefError is returned for Go types which cannot be referenced from
// generated code.
type TypeRefError struct {
	Type   string
	Reason string
}

// Error implements the [error] interface.
func (e TypeRefError) Error() string {
	return fmt.Sprintf("router: cannot reference type %s: %s", e.Type, e.Reason)
}

// TypeOf returns a reference to t. A nil type yields the zero [TypeRef].
func TypeOf(t reflect.Type) (TypeRef, error) {
	if t == nil {
		return TypeRef{}, nil
	}

	imports := make(map[string]Import)
	err := collectImports(t, imports, make(map[reflect.Type]bool))
	if err != nil {
		return TypeRef{}, err
	}

	ref := TypeRef{Expr: t.String()}
	for _, imp := range imports {
		ref.Imports = append(ref.Imports, imp)
	}
	slices.SortFunc(ref.Imports, func(a, b Import) int {
		return strings.Compare(a.Path, b.Path)
	})
	return ref, nil
}

func collectImports(t reflect.Type, imports map[string]Import, seen map[reflect.Type]bool) error {
	if seen[t] {
		return nil
	}
	seen[t] = true

	if t.Name() != "" {
		if strings.Contains(t.Name(), "[") {
			return TypeRefError{Type: t.String(), Reason: "generic types are not supported"}
		}
		if t.PkgPath() == "" {
			return nil
		}
		if strings.HasSuffix(t.PkgPath(), "/main") || t.PkgPath() == "main" {
			return TypeRefError{Type: t.String(), Reason: "types declared in package main cannot be imported"}
		}
		if !isExported(t.Name()) {
			return TypeRefError{Type: t.String(), Reason: "type is not exported"}
		}
		name := strings.TrimSuffix(t.String(), "."+t.Name())
		imports[t.PkgPath()] = Import{Path: t.PkgPath(), Name: name}
		return nil
	}

	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Chan:
		return collectImports(t.Elem(), imports, seen)
	case reflect.Map:
		err := collectImports(t.Key(), imports, seen)
		if err != nil {
			return err
		}
		return collectImports(t.Elem(), imports, seen)
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				return TypeRefError{Type: t.String(), Reason: fmt.Sprintf("field %s is not exported", f.Name)}
			}
			err := collectImports(f.Type, imports, seen)
			if err != nil {
				return err
			}
		}
	case reflect.Func:
		return TypeRefError{Type: t.String(), Reason: "func types cannot be transported"}
	case reflect.Interface:
		if t.NumMethod() > 0 {
			return TypeRefError{Type: t.String(), Reason: "unnamed interfaces with methods are not supported"}
		}
	}
	return nil
}

func isExported(name string) bool {
	return name != "" && strings.ToUpper(name[:1]) == name[:1] && strings.ToLower(name[:1]) != name[:1]
}
