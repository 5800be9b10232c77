// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pipewright/pipewright/policy"
)

// DefaultManifestName is the manifest filename looked up in the project root.
const DefaultManifestName = "pipewright.yaml"

// Manifest defines the pipewright.yaml schema.
type Manifest struct {
	Stack struct {
		Name string `yaml:"name"`
	} `yaml:"stack"`
	AWS struct {
		Region  string `yaml:"region"`
		Profile string `yaml:"profile"`
	} `yaml:"aws"`
	Source struct {
		Provider      string `yaml:"provider"`
		Owner         string `yaml:"owner"`
		Repository    string `yaml:"repository"`
		Branch        string `yaml:"branch"`
		ConnectionARN string `yaml:"connection_arn"`
		Bucket        string `yaml:"bucket"`
		ObjectKey     string `yaml:"object_key"`
	} `yaml:"source"`
	Build struct {
		SpecPath string `yaml:"spec"`
	} `yaml:"build"`
	Lambdas        bool               `yaml:"lambdas"`
	ArtifactBucket string             `yaml:"artifact_bucket"`
	Policies       []policy.Statement `yaml:"policies"`
}

// LoadManifest reads pipewright.yaml from the given path. If missing, it
// returns defaults.
func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			m.applyDefaults()
			return m, nil
		}
		return m, err
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	m.applyDefaults()
	return m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Stack.Name == "" {
		m.Stack.Name = "pipewright-app"
	}
	if m.Source.Provider == "" {
		m.Source.Provider = "codecommit"
	}
	if m.Source.Branch == "" {
		m.Source.Branch = "main"
	}
	if m.Build.SpecPath == "" {
		m.Build.SpecPath = "buildspec.yml"
	}
}
