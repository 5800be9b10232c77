// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package buildspec models a CodeBuild build specification with just enough
// structure for the pipeline assembler to validate artifact declarations.
package buildspec

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Well-known secondary artifact identifiers the assembler looks for.
const (
	TemplateArtifactID = "cfn_template"
	PackageArtifactID  = "lambda_package"
)

// Spec is a declarative description of a build job and its outputs.
type Spec struct {
	Version   string     `yaml:"version"`
	Env       *Env       `yaml:"env,omitempty"`
	Phases    *Phases    `yaml:"phases,omitempty"`
	Artifacts *Artifacts `yaml:"artifacts,omitempty"`
}

// Env holds build-time environment variables.
type Env struct {
	Variables map[string]string `yaml:"variables,omitempty"`
}

// Phases groups the build phases in execution order.
type Phases struct {
	Install   *Phase `yaml:"install,omitempty"`
	PreBuild  *Phase `yaml:"pre_build,omitempty"`
	Build     *Phase `yaml:"build,omitempty"`
	PostBuild *Phase `yaml:"post_build,omitempty"`
}

// Phase is a single build phase.
type Phase struct {
	RuntimeVersions map[string]string `yaml:"runtime-versions,omitempty"`
	Commands        []string          `yaml:"commands,omitempty"`
}

// Artifacts declares the build outputs.
type Artifacts struct {
	Files     []string                      `yaml:"files,omitempty"`
	Secondary map[string]*SecondaryArtifact `yaml:"secondary-artifacts,omitempty"`
}

// SecondaryArtifact is one named entry under secondary-artifacts.
type SecondaryArtifact struct {
	Files         []string `yaml:"files,omitempty"`
	BaseDirectory string   `yaml:"base-directory,omitempty"`
	Name          string   `yaml:"name,omitempty"`
}

// Parse decodes a YAML buildspec document.
func Parse(data []byte) (*Spec, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse buildspec: %w", err)
	}
	return &s, nil
}

// Marshal encodes the spec back to YAML, suitable for embedding in a
// CodeBuild project definition.
func (s *Spec) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal buildspec: %w", err)
	}
	return data, nil
}

// SecondaryArtifact returns the named secondary artifact, or nil.
func (s *Spec) SecondaryArtifact(id string) *SecondaryArtifact {
	if s == nil || s.Artifacts == nil || s.Artifacts.Secondary == nil {
		return nil
	}
	return s.Artifacts.Secondary[id]
}

// Default returns a buildspec for a Go project that packages a
// CloudFormation template and, when hasLambdas is set, a function bundle.
func Default(hasLambdas bool) *Spec {
	spec := &Spec{
		Version: "0.2",
		Phases: &Phases{
			Install: &Phase{
				RuntimeVersions: map[string]string{"golang": "1.25"},
			},
			Build: &Phase{
				Commands: []string{
					"go build ./...",
					"go test ./...",
					"make template",
				},
			},
		},
		Artifacts: &Artifacts{
			Secondary: map[string]*SecondaryArtifact{
				TemplateArtifactID: {
					Files: []string{"template.yaml"},
				},
			},
		},
	}
	if hasLambdas {
		spec.Phases.Build.Commands = append(spec.Phases.Build.Commands, "make package")
		spec.Artifacts.Secondary[PackageArtifactID] = &SecondaryArtifact{
			Files:         []string{"lambda_package.zip"},
			BaseDirectory: "dist",
		}
	}
	return spec
}
