// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package pipewright

import (
	"errors"
	"testing"

	"github.com/pipewright/pipewright/buildspec"
	"github.com/pipewright/pipewright/policy"
)

func wellFormedSpec(hasLambdas bool) *buildspec.Spec {
	return buildspec.Default(hasLambdas)
}

func testSource() SourceFactory {
	return CodeCommitSource(CodeCommitSourceProps{Repository: "app", Branch: "main"})
}

func testOptions(hasLambdas bool) Options {
	return Options{
		StackName:       "demo",
		Source:          testSource(),
		CreateBuildSpec: func() *buildspec.Spec { return wellFormedSpec(hasLambdas) },
		HasLambdas:      hasLambdas,
		ArtifactBucket:  "demo-artifacts",
	}
}

func TestAssembleValidatesBuildSpec(t *testing.T) {
	tests := []struct {
		name       string
		hasLambdas bool
		mutate     func(*buildspec.Spec)
		want       error
	}{
		{
			name:   "no artifacts section",
			mutate: func(s *buildspec.Spec) { s.Artifacts = nil },
			want:   ErrMissingSecondaryArtifacts,
		},
		{
			name:   "no secondary artifacts",
			mutate: func(s *buildspec.Spec) { s.Artifacts.Secondary = nil },
			want:   ErrMissingSecondaryArtifacts,
		},
		{
			name: "empty secondary artifacts section",
			mutate: func(s *buildspec.Spec) {
				s.Artifacts.Secondary = map[string]*buildspec.SecondaryArtifact{}
			},
			want: ErrMissingTemplateArtifact,
		},
		{
			name: "no cfn_template",
			mutate: func(s *buildspec.Spec) {
				delete(s.Artifacts.Secondary, buildspec.TemplateArtifactID)
				s.Artifacts.Secondary["other"] = &buildspec.SecondaryArtifact{Files: []string{"x"}}
			},
			want: ErrMissingTemplateArtifact,
		},
		{
			name: "no cfn_template files",
			mutate: func(s *buildspec.Spec) {
				s.Artifacts.Secondary[buildspec.TemplateArtifactID].Files = nil
			},
			want: ErrMissingTemplateFiles,
		},
		{
			name:       "packaging enabled, no lambda_package",
			hasLambdas: true,
			mutate: func(s *buildspec.Spec) {
				delete(s.Artifacts.Secondary, buildspec.PackageArtifactID)
			},
			want: ErrMissingPackageArtifact,
		},
		{
			name:       "packaging enabled, no lambda_package files",
			hasLambdas: true,
			mutate: func(s *buildspec.Spec) {
				s.Artifacts.Secondary[buildspec.PackageArtifactID].Files = nil
			},
			want: ErrMissingPackageFiles,
		},
		{
			name: "packaging disabled but lambda_package declared",
			mutate: func(s *buildspec.Spec) {
				s.Artifacts.Secondary[buildspec.PackageArtifactID] = &buildspec.SecondaryArtifact{Files: []string{"z.zip"}}
			},
			want: ErrUnexpectedPackage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(tt.hasLambdas)
			opts.CreateBuildSpec = func() *buildspec.Spec {
				s := wellFormedSpec(tt.hasLambdas)
				tt.mutate(s)
				return s
			}
			_, err := Assemble(opts)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Assemble() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidationShortCircuits(t *testing.T) {
	// Several fields missing at once: the first check in order wins.
	opts := testOptions(true)
	opts.CreateBuildSpec = func() *buildspec.Spec {
		return &buildspec.Spec{Version: "0.2"}
	}
	if _, err := Assemble(opts); !errors.Is(err, ErrMissingSecondaryArtifacts) {
		t.Fatalf("Assemble() error = %v, want %v", err, ErrMissingSecondaryArtifacts)
	}

	opts.CreateBuildSpec = func() *buildspec.Spec {
		return &buildspec.Spec{
			Artifacts: &buildspec.Artifacts{
				Secondary: map[string]*buildspec.SecondaryArtifact{
					buildspec.TemplateArtifactID: {},
				},
			},
		}
	}
	if _, err := Assemble(opts); !errors.Is(err, ErrMissingTemplateFiles) {
		t.Fatalf("Assemble() error = %v, want %v", err, ErrMissingTemplateFiles)
	}
}

func TestAssembleWithoutLambdas(t *testing.T) {
	def, err := Assemble(testOptions(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(def.Stages) != 3 {
		t.Fatalf("stage count = %d, want 3", len(def.Stages))
	}
	for i, name := range []string{"Source", "Build", "Deploy"} {
		if def.Stages[i].Name != name {
			t.Errorf("stage %d = %q, want %q", i, def.Stages[i].Name, name)
		}
	}

	build := def.Stage("Build").Actions[0]
	if got := len(build.Outputs()); got != 1 {
		t.Fatalf("build outputs = %d, want 1", got)
	}
	if build.Outputs()[0].Name() != buildspec.TemplateArtifactID {
		t.Errorf("build output = %q, want %q", build.Outputs()[0].Name(), buildspec.TemplateArtifactID)
	}

	deploy := def.Stage("Deploy")
	if len(deploy.Actions) != 1 {
		t.Fatalf("deploy actions = %d, want 1", len(deploy.Actions))
	}
	if deploy.Actions[0].Provider() != "CloudFormation" {
		t.Errorf("deploy provider = %q, want CloudFormation", deploy.Actions[0].Provider())
	}

	if _, ok := def.Build.Environment.Variables[ArtifactBucketEnvVar]; ok {
		t.Errorf("artifact bucket variable set without packaging")
	}
}

func TestAssembleWithLambdas(t *testing.T) {
	def, err := Assemble(testOptions(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	build := def.Stage("Build").Actions[0]
	if got := len(build.Outputs()); got != 2 {
		t.Fatalf("build outputs = %d, want 2", got)
	}

	deploy := def.Stage("Deploy")
	if len(deploy.Actions) != 2 {
		t.Fatalf("deploy actions = %d, want 2", len(deploy.Actions))
	}
	if deploy.Actions[0].ActionName() != "DeployTemplate" || deploy.Actions[1].ActionName() != "DeployPackage" {
		t.Errorf("deploy order = %q, %q", deploy.Actions[0].ActionName(), deploy.Actions[1].ActionName())
	}
	if deploy.Actions[0].RunOrder() >= deploy.Actions[1].RunOrder() {
		t.Errorf("template action must run before package action")
	}
	if deploy.Actions[1].Inputs()[0].Name() != buildspec.PackageArtifactID {
		t.Errorf("package action input = %q", deploy.Actions[1].Inputs()[0].Name())
	}

	if got := def.Build.Environment.Variables[ArtifactBucketEnvVar]; got != "demo-artifacts" {
		t.Errorf("artifact bucket variable = %q, want demo-artifacts", got)
	}
}

func TestAssembleBuildEnvironmentDefaults(t *testing.T) {
	def, err := Assemble(testOptions(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env := def.Build.Environment
	if env.Image != DefaultBuildImage {
		t.Errorf("image = %q, want %q", env.Image, DefaultBuildImage)
	}
	if env.ComputeType != DefaultComputeType {
		t.Errorf("compute type = %q, want %q", env.ComputeType, DefaultComputeType)
	}
	if !env.PrivilegedMode {
		t.Errorf("privileged mode must stay enabled")
	}
}

func TestAssembleSourceBinding(t *testing.T) {
	opts := testOptions(false)
	opts.Source = func(output *Artifact) Action { return nil }
	if _, err := Assemble(opts); !errors.Is(err, ErrMissingSourceAction) {
		t.Fatalf("Assemble() error = %v, want %v", err, ErrMissingSourceAction)
	}

	// A factory that binds its own artifact instead of the provided slot.
	opts.Source = func(output *Artifact) Action {
		other := NewArtifact(output.Name())
		return &sourceAction{
			name:     "Source",
			provider: "CodeCommit",
			outputs:  []*Artifact{other},
		}
	}
	if _, err := Assemble(opts); !errors.Is(err, ErrSourceArtifactMismatch) {
		t.Fatalf("Assemble() error = %v, want %v", err, ErrSourceArtifactMismatch)
	}

	// Extra unrelated outputs are fine as long as the provided slot is used.
	opts.Source = func(output *Artifact) Action {
		return &sourceAction{
			name:     "Source",
			provider: "CodeCommit",
			outputs:  []*Artifact{NewArtifact("metadata"), output},
		}
	}
	if _, err := Assemble(opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAssembleRequiresFactories(t *testing.T) {
	opts := testOptions(false)
	opts.CreateBuildSpec = nil
	if _, err := Assemble(opts); err == nil {
		t.Fatalf("expected error for nil CreateBuildSpec")
	}

	opts = testOptions(false)
	opts.Source = nil
	if _, err := Assemble(opts); err == nil {
		t.Fatalf("expected error for nil Source")
	}
}

func TestAssemblePreservesPolicyStatements(t *testing.T) {
	statements := []policy.Statement{
		policy.Allow([]string{"s3:GetObject"}, []string{"arn:aws:s3:::bucket-a/*"}),
		policy.Allow([]string{"ssm:GetParameter"}, []string{"*"}),
	}
	opts := testOptions(false)
	opts.AdditionalPolicyStatements = statements

	def, err := Assemble(opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(def.PolicyStatements) != 2 {
		t.Fatalf("policy statements = %d, want 2", len(def.PolicyStatements))
	}
	if def.PolicyStatements[0].Actions[0] != "s3:GetObject" || def.PolicyStatements[1].Actions[0] != "ssm:GetParameter" {
		t.Errorf("policy statement order not preserved: %+v", def.PolicyStatements)
	}

	// The definition holds its own copy; caller mutations after assembly
	// must not reach it.
	statements[0] = policy.Allow([]string{"s3:DeleteObject"}, []string{"*"})
	if def.PolicyStatements[0].Actions[0] != "s3:GetObject" {
		t.Errorf("definition aliases the caller's statement slice")
	}
}

func TestTemplateDeployActionConfiguration(t *testing.T) {
	def, err := Assemble(testOptions(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg := def.Stage("Deploy").Actions[0].Configuration()
	if cfg["StackName"] != "demo" {
		t.Errorf("StackName = %q, want demo", cfg["StackName"])
	}
	if cfg["TemplatePath"] != "cfn_template::template.yaml" {
		t.Errorf("TemplatePath = %q", cfg["TemplatePath"])
	}
}
