// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package buildspec

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	doc := `
version: "0.2"
phases:
  build:
    commands:
      - make template
artifacts:
  secondary-artifacts:
    cfn_template:
      files:
        - template.yaml
    lambda_package:
      files:
        - lambda_package.zip
      base-directory: dist
`
	spec, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Version != "0.2" {
		t.Errorf("version = %q, want 0.2", spec.Version)
	}
	tmpl := spec.SecondaryArtifact(TemplateArtifactID)
	if tmpl == nil || len(tmpl.Files) != 1 || tmpl.Files[0] != "template.yaml" {
		t.Fatalf("cfn_template artifact not parsed: %+v", tmpl)
	}
	pkg := spec.SecondaryArtifact(PackageArtifactID)
	if pkg == nil || pkg.BaseDirectory != "dist" {
		t.Fatalf("lambda_package artifact not parsed: %+v", pkg)
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("version: [")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSecondaryArtifactMissingSections(t *testing.T) {
	var nilSpec *Spec
	if nilSpec.SecondaryArtifact(TemplateArtifactID) != nil {
		t.Errorf("nil spec should have no artifacts")
	}
	if (&Spec{}).SecondaryArtifact(TemplateArtifactID) != nil {
		t.Errorf("spec without artifacts section should have no artifacts")
	}
}

func TestDefault(t *testing.T) {
	spec := Default(false)
	if spec.SecondaryArtifact(TemplateArtifactID) == nil {
		t.Fatalf("default spec must declare cfn_template")
	}
	if spec.SecondaryArtifact(PackageArtifactID) != nil {
		t.Fatalf("default spec must not declare lambda_package without packaging")
	}

	spec = Default(true)
	pkg := spec.SecondaryArtifact(PackageArtifactID)
	if pkg == nil || len(pkg.Files) == 0 {
		t.Fatalf("packaging default must declare lambda_package files")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Default(true).Marshal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), "secondary-artifacts") {
		t.Errorf("marshaled spec missing secondary-artifacts section:\n%s", data)
	}
	reparsed, err := Parse(data)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if reparsed.SecondaryArtifact(PackageArtifactID) == nil {
		t.Errorf("lambda_package lost in round trip")
	}
}
