// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package router

import (
	"fmt"
	"io"
	"os"

	"github.com/z5labs/sdk-go/try"
	"gopkg.in/yaml.v3"
)

// Manifest lists the endpoints of an API and the contract of every verb
// they export.
type Manifest struct {
	Endpoints []EndpointSpec `yaml:"endpoints" json:"endpoints"`
}

// EndpointSpec describes one endpoint.
type EndpointSpec struct {
	Endpoint string     `yaml:"endpoint" json:"endpoint"`
	Verbs    []VerbSpec `yaml:"verbs" json:"verbs"`
}

// VerbSpec describes the handler of one verb.
type VerbSpec struct {
	Verb    string   `yaml:"verb" json:"verb"`
	Input   TypeRef  `yaml:"input,omitempty" json:"input,omitempty"`
	Output  TypeRef  `yaml:"output,omitempty" json:"output,omitempty"`
	NoInput bool     `yaml:"noInput,omitempty" json:"noInput,omitempty"`
	Headers []string `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// DecodeManifest reads a YAML (or JSON) manifest.
func DecodeManifest(r io.Reader) (Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(&m)
	if err == io.EOF {
		return m, nil
	}
	if err != nil {
		return m, fmt.Errorf("router: failed to decode manifest: %w", err)
	}
	return m, nil
}

// LoadManifest reads the manifest stored at path.
func LoadManifest(path string) (m Manifest, err error) {
	f, err := os.Open(path)
	if err != nil {
		return m, err
	}
	defer try.Close(&err, f)

	return DecodeManifest(f)
}

// Encode writes m as YAML.
func (m Manifest) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	err := enc.Encode(m)
	if err != nil {
		return err
	}
	return enc.Close()
}

// Merge appends the endpoints of other manifests to m.
func (m Manifest) Merge(others ...Manifest) Manifest {
	out := Manifest{Endpoints: append([]EndpointSpec(nil), m.Endpoints...)}
	for _, o := range others {
		out.Endpoints = append(out.Endpoints, o.Endpoints...)
	}
	return out
}
