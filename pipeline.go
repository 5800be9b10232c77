// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package pipewright assembles AWS CodePipeline definitions from a source
// action, a buildspec, and a deploy target. Assembly is synchronous and
// fails fast: the first precondition violation aborts construction before
// any stage is created.
package pipewright

import (
	"errors"
	"fmt"

	"github.com/pipewright/pipewright/buildspec"
	"github.com/pipewright/pipewright/policy"
)

// Assembly precondition violations. Every failure is a configuration defect
// to fix before retrying; none is transient.
var (
	ErrMissingSecondaryArtifacts = errors.New("pipewright: buildspec missing artifacts.secondary-artifacts")
	ErrMissingTemplateArtifact   = errors.New("pipewright: buildspec missing cfn_template")
	ErrMissingTemplateFiles      = errors.New("pipewright: buildspec missing cfn_template.files")
	ErrMissingPackageArtifact    = errors.New("pipewright: buildspec missing lambda_package (packaging enabled)")
	ErrMissingPackageFiles       = errors.New("pipewright: buildspec missing lambda_package.files (packaging enabled)")
	ErrUnexpectedPackage         = errors.New("pipewright: buildspec declares lambda_package but packaging is disabled")
	ErrMissingSourceAction       = errors.New("pipewright: missing sourceAction result")
	ErrSourceArtifactMismatch    = errors.New("pipewright: sourceAction does not use the provided artifact")
)

// Name of the environment variable exposing the deploy artifact bucket to
// the build when packaging is enabled.
const ArtifactBucketEnvVar = "ARTIFACT_STORE_BUCKET"

// Default CodeBuild environment. Privileged mode stays on so builds can run
// containers.
const (
	DefaultBuildImage   = "aws/codebuild/standard:7.0"
	DefaultComputeType  = "BUILD_GENERAL1_SMALL"
	sourceArtifactName  = "SourceOutput"
	sourceStageName     = "Source"
	buildStageName      = "Build"
	deployStageName     = "Deploy"
	deployTemplateName  = "DeployTemplate"
	deployPackageName   = "DeployPackage"
	changeSetCapability = "CAPABILITY_NAMED_IAM"
)

// BuildSpecFactory supplies the build specification to validate and embed.
type BuildSpecFactory func() *buildspec.Spec

// Options configures one pipeline assembly.
type Options struct {
	// StackName identifies the deployment target. Passed through unvalidated.
	StackName string
	// Source produces the source-stage action bound to the slot it receives.
	Source SourceFactory
	// CreateBuildSpec supplies the build specification.
	CreateBuildSpec BuildSpecFactory
	// HasLambdas enables the packaged-function artifact and deploy action.
	HasLambdas bool
	// AdditionalPolicyStatements are attached verbatim to the build role.
	AdditionalPolicyStatements []policy.Statement
	// ArtifactBucket references the deploy artifact store. When empty the
	// synthesizer provisions a bucket of its own.
	ArtifactBucket string
}

// BuildEnvironment describes the CodeBuild container configuration.
type BuildEnvironment struct {
	Image          string
	ComputeType    string
	PrivilegedMode bool
	Variables      map[string]string
}

// BuildProject is the CodeBuild project backing the build stage.
type BuildProject struct {
	Name        string
	Spec        *buildspec.Spec
	Environment BuildEnvironment
}

// Definition is a fully assembled pipeline. It is built once by Assemble and
// not mutated afterwards.
type Definition struct {
	StackName        string
	Stages           []Stage
	Build            BuildProject
	PolicyStatements []policy.Statement
	ArtifactBucket   string
	HasLambdas       bool
}

// Stage returns the named stage, or nil.
func (d *Definition) Stage(name string) *Stage {
	for i := range d.Stages {
		if d.Stages[i].Name == name {
			return &d.Stages[i]
		}
	}
	return nil
}

// Assemble validates the inputs and wires the three-stage pipeline:
// validate buildspec, bind source, configure build, assemble deploy.
func Assemble(opts Options) (*Definition, error) {
	if opts.CreateBuildSpec == nil {
		return nil, fmt.Errorf("pipewright: CreateBuildSpec is required")
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("pipewright: Source is required")
	}

	spec := opts.CreateBuildSpec()
	if err := validateBuildSpec(spec, opts.HasLambdas); err != nil {
		return nil, err
	}

	source, sourceOutput, err := bindSource(opts.Source)
	if err != nil {
		return nil, err
	}

	templateOutput := NewArtifact(buildspec.TemplateArtifactID)
	outputs := []*Artifact{templateOutput}
	env := map[string]string{}
	var packageOutput *Artifact
	if opts.HasLambdas {
		packageOutput = NewArtifact(buildspec.PackageArtifactID)
		outputs = append(outputs, packageOutput)
		env[ArtifactBucketEnvVar] = opts.ArtifactBucket
	}

	build := &buildAction{
		name:    "Build",
		input:   sourceOutput,
		outputs: outputs,
	}

	deploy := []Action{newTemplateDeployAction(opts.StackName, spec, templateOutput)}
	if opts.HasLambdas {
		deploy = append(deploy, newPackageDeployAction(opts.StackName, opts.ArtifactBucket, packageOutput))
	}

	return &Definition{
		StackName: opts.StackName,
		Stages: []Stage{
			{Name: sourceStageName, Actions: []Action{source}},
			{Name: buildStageName, Actions: []Action{build}},
			{Name: deployStageName, Actions: deploy},
		},
		Build: BuildProject{
			Name: opts.StackName + "-build",
			Spec: spec,
			Environment: BuildEnvironment{
				Image:          DefaultBuildImage,
				ComputeType:    DefaultComputeType,
				PrivilegedMode: true,
				Variables:      env,
			},
		},
		PolicyStatements: append([]policy.Statement(nil), opts.AdditionalPolicyStatements...),
		ArtifactBucket:   opts.ArtifactBucket,
		HasLambdas:       opts.HasLambdas,
	}, nil
}

// validateBuildSpec checks the artifact declarations the pipeline depends
// on. Checks are ordered and short-circuiting: the first failure is the
// error returned.
func validateBuildSpec(spec *buildspec.Spec, hasLambdas bool) error {
	if spec == nil || spec.Artifacts == nil || spec.Artifacts.Secondary == nil {
		return ErrMissingSecondaryArtifacts
	}
	template := spec.Artifacts.Secondary[buildspec.TemplateArtifactID]
	if template == nil {
		return ErrMissingTemplateArtifact
	}
	if len(template.Files) == 0 {
		return ErrMissingTemplateFiles
	}
	pkg := spec.Artifacts.Secondary[buildspec.PackageArtifactID]
	if hasLambdas {
		if pkg == nil {
			return ErrMissingPackageArtifact
		}
		if len(pkg.Files) == 0 {
			return ErrMissingPackageFiles
		}
		return nil
	}
	// The packaging flag and the buildspec must agree, otherwise the number
	// of deploy actions would be ambiguous.
	if pkg != nil {
		return ErrUnexpectedPackage
	}
	return nil
}

// bindSource allocates the source output slot, invokes the factory, and
// verifies the returned action actually targets that slot.
func bindSource(factory SourceFactory) (Action, *Artifact, error) {
	output := NewArtifact(sourceArtifactName)
	action := factory(output)
	if action == nil {
		return nil, nil, ErrMissingSourceAction
	}
	if !usesArtifact(action, output) {
		return nil, nil, ErrSourceArtifactMismatch
	}
	return action, output, nil
}

// usesArtifact reports whether the action declares the exact slot (by
// identity, not name) among its outputs.
func usesArtifact(action Action, slot *Artifact) bool {
	for _, out := range action.Outputs() {
		if out == slot {
			return true
		}
	}
	return false
}

// buildAction is the single CodeBuild action in the build stage.
type buildAction struct {
	name    string
	input   *Artifact
	outputs []*Artifact
}

func (b *buildAction) ActionName() string  { return b.name }
func (b *buildAction) Category() Category  { return CategoryBuild }
func (b *buildAction) Provider() string    { return "CodeBuild" }
func (b *buildAction) Inputs() []*Artifact { return []*Artifact{b.input} }
func (b *buildAction) Outputs() []*Artifact {
	return b.outputs
}
func (b *buildAction) RunOrder() int { return 1 }

// Configuration is completed by the synthesizer, which substitutes the
// CodeBuild project reference once the project resource exists.
func (b *buildAction) Configuration() map[string]string {
	return map[string]string{}
}

// deployAction covers both deploy-stage actions.
type deployAction struct {
	name     string
	provider string
	config   map[string]string
	input    *Artifact
	runOrder int
}

func (d *deployAction) ActionName() string               { return d.name }
func (d *deployAction) Category() Category               { return CategoryDeploy }
func (d *deployAction) Provider() string                 { return d.provider }
func (d *deployAction) Configuration() map[string]string { return d.config }
func (d *deployAction) Inputs() []*Artifact              { return []*Artifact{d.input} }
func (d *deployAction) Outputs() []*Artifact             { return nil }
func (d *deployAction) RunOrder() int                    { return d.runOrder }

// newTemplateDeployAction deploys the CloudFormation template produced by
// the build. The template path points at the first declared file of the
// cfn_template artifact.
func newTemplateDeployAction(stackName string, spec *buildspec.Spec, input *Artifact) Action {
	templateFile := spec.SecondaryArtifact(buildspec.TemplateArtifactID).Files[0]
	return &deployAction{
		name:     deployTemplateName,
		provider: "CloudFormation",
		config: map[string]string{
			"ActionMode":   "CREATE_UPDATE",
			"StackName":    stackName,
			"TemplatePath": fmt.Sprintf("%s::%s", input.Name(), templateFile),
			"Capabilities": changeSetCapability,
		},
		input:    input,
		runOrder: 1,
	}
}

// newPackageDeployAction publishes the packaged function bundle to the
// artifact store, after the template action.
func newPackageDeployAction(stackName, bucket string, input *Artifact) Action {
	return &deployAction{
		name:     deployPackageName,
		provider: "S3",
		config: map[string]string{
			"BucketName": bucket,
			"ObjectKey":  stackName + "/lambda_package.zip",
			"Extract":    "false",
		},
		input:    input,
		runOrder: 2,
	}
}
