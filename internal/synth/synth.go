// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package synth turns an assembled pipeline definition into a
// CloudFormation template for the provisioning side to deploy.
package synth

import (
	"encoding/json"
	"fmt"

	"github.com/pipewright/pipewright"
	"github.com/pipewright/pipewright/policy"
)

// Logical resource IDs used in the synthesized template.
const (
	artifactBucketID = "ArtifactStoreBucket"
	pipelineRoleID   = "PipelineRole"
	buildRoleID      = "BuildRole"
	buildProjectID   = "BuildProject"
	pipelineID       = "Pipeline"
)

// Template is a CloudFormation template document.
type Template struct {
	AWSTemplateFormatVersion string              `json:"AWSTemplateFormatVersion"`
	Description              string              `json:"Description,omitempty"`
	Resources                map[string]Resource `json:"Resources"`
	Outputs                  map[string]Output   `json:"Outputs,omitempty"`
}

// Resource is a single template resource.
type Resource struct {
	Type       string         `json:"Type"`
	Properties map[string]any `json:"Properties,omitempty"`
	DependsOn  []string       `json:"DependsOn,omitempty"`
}

// Output is a template output.
type Output struct {
	Value       any    `json:"Value"`
	Description string `json:"Description,omitempty"`
}

// JSON renders the template.
func (t *Template) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	return data, nil
}

func ref(id string) map[string]any {
	return map[string]any{"Ref": id}
}

func getAtt(id, attr string) map[string]any {
	return map[string]any{"Fn::GetAtt": []string{id, attr}}
}

// Synthesize produces the CloudFormation template provisioning the pipeline:
// artifact store, roles, CodeBuild project, and the pipeline itself.
func Synthesize(def *pipewright.Definition) (*Template, error) {
	specYAML, err := def.Build.Spec.Marshal()
	if err != nil {
		return nil, err
	}

	resources := map[string]Resource{}

	// Artifact store: provision a bucket unless the caller supplied one.
	var bucketValue any = def.ArtifactBucket
	if def.ArtifactBucket == "" {
		resources[artifactBucketID] = Resource{
			Type: "AWS::S3::Bucket",
			Properties: map[string]any{
				"VersioningConfiguration": map[string]any{"Status": "Enabled"},
			},
		}
		bucketValue = ref(artifactBucketID)
	}

	resources[pipelineRoleID] = serviceRole("codepipeline.amazonaws.com", "pipeline", []policy.Statement{
		policy.Allow(
			[]string{"s3:GetObject", "s3:GetObjectVersion", "s3:PutObject", "s3:GetBucketVersioning"},
			[]string{"*"},
		),
		policy.Allow(
			[]string{"codebuild:StartBuild", "codebuild:BatchGetBuilds"},
			[]string{"*"},
		),
		policy.Allow(
			[]string{"cloudformation:*", "iam:PassRole"},
			[]string{"*"},
		),
	})

	buildStatements := []policy.Statement{
		policy.Allow(
			[]string{"logs:CreateLogGroup", "logs:CreateLogStream", "logs:PutLogEvents"},
			[]string{"*"},
		),
		policy.Allow(
			[]string{"s3:GetObject", "s3:GetObjectVersion", "s3:PutObject"},
			[]string{"*"},
		),
	}
	// Caller statements go last, untouched, in the order supplied.
	buildStatements = append(buildStatements, def.PolicyStatements...)
	resources[buildRoleID] = serviceRole("codebuild.amazonaws.com", "build", buildStatements)

	resources[buildProjectID] = Resource{
		Type: "AWS::CodeBuild::Project",
		Properties: map[string]any{
			"Name":        def.Build.Name,
			"ServiceRole": getAtt(buildRoleID, "Arn"),
			"Source": map[string]any{
				"Type":      "CODEPIPELINE",
				"BuildSpec": string(specYAML),
			},
			"Artifacts": map[string]any{"Type": "CODEPIPELINE"},
			"Environment": map[string]any{
				"Type":                 "LINUX_CONTAINER",
				"Image":                def.Build.Environment.Image,
				"ComputeType":          def.Build.Environment.ComputeType,
				"PrivilegedMode":       def.Build.Environment.PrivilegedMode,
				"EnvironmentVariables": environmentVariables(def, bucketValue),
			},
		},
	}

	resources[pipelineID] = Resource{
		Type: "AWS::CodePipeline::Pipeline",
		Properties: map[string]any{
			"Name":    def.StackName + "-pipeline",
			"RoleArn": getAtt(pipelineRoleID, "Arn"),
			"ArtifactStore": map[string]any{
				"Type":     "S3",
				"Location": bucketValue,
			},
			"Stages": pipelineStages(def, bucketValue),
		},
		DependsOn: []string{buildProjectID},
	}

	return &Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              fmt.Sprintf("Delivery pipeline for %s", def.StackName),
		Resources:                resources,
		Outputs: map[string]Output{
			"PipelineName": {
				Value:       ref(pipelineID),
				Description: "Name of the delivery pipeline",
			},
		},
	}, nil
}

// serviceRole builds an IAM role assumable by the given service with one
// inline policy document.
func serviceRole(service, policyName string, statements []policy.Statement) Resource {
	return Resource{
		Type: "AWS::IAM::Role",
		Properties: map[string]any{
			"AssumeRolePolicyDocument": map[string]any{
				"Version": "2012-10-17",
				"Statement": []map[string]any{{
					"Effect":    "Allow",
					"Principal": map[string]any{"Service": service},
					"Action":    "sts:AssumeRole",
				}},
			},
			"Policies": []map[string]any{{
				"PolicyName":     policyName,
				"PolicyDocument": policy.NewDocument(statements...),
			}},
		},
	}
}

// environmentVariables renders the build environment, substituting the
// bucket reference for the artifact-store variable when the bucket is
// provisioned by this template.
func environmentVariables(def *pipewright.Definition, bucketValue any) []map[string]any {
	vars := []map[string]any{}
	for name, value := range def.Build.Environment.Variables {
		entry := map[string]any{"Name": name, "Value": value}
		if name == pipewright.ArtifactBucketEnvVar && value == "" {
			entry["Value"] = bucketValue
		}
		vars = append(vars, entry)
	}
	return vars
}

// pipelineStages maps the definition's stages onto the CodePipeline
// resource shape.
func pipelineStages(def *pipewright.Definition, bucketValue any) []map[string]any {
	stages := make([]map[string]any, 0, len(def.Stages))
	for _, stage := range def.Stages {
		actions := make([]map[string]any, 0, len(stage.Actions))
		for _, action := range stage.Actions {
			actions = append(actions, renderAction(action, bucketValue))
		}
		stages = append(stages, map[string]any{
			"Name":    stage.Name,
			"Actions": actions,
		})
	}
	return stages
}

func renderAction(action pipewright.Action, bucketValue any) map[string]any {
	configuration := map[string]any{}
	for k, v := range action.Configuration() {
		configuration[k] = v
	}
	switch {
	case action.Category() == pipewright.CategoryBuild && action.Provider() == "CodeBuild":
		configuration["ProjectName"] = ref(buildProjectID)
	case action.Category() == pipewright.CategoryDeploy && action.Provider() == "CloudFormation":
		configuration["RoleArn"] = getAtt(pipelineRoleID, "Arn")
	case action.Category() == pipewright.CategoryDeploy && action.Provider() == "S3":
		if bucket, _ := configuration["BucketName"].(string); bucket == "" {
			configuration["BucketName"] = bucketValue
		}
	}

	rendered := map[string]any{
		"Name": action.ActionName(),
		"ActionTypeId": map[string]any{
			"Category": string(action.Category()),
			"Owner":    "AWS",
			"Provider": action.Provider(),
			"Version":  "1",
		},
		"Configuration": configuration,
		"RunOrder":      action.RunOrder(),
	}
	if inputs := artifactList(action.Inputs()); len(inputs) > 0 {
		rendered["InputArtifacts"] = inputs
	}
	if outputs := artifactList(action.Outputs()); len(outputs) > 0 {
		rendered["OutputArtifacts"] = outputs
	}
	return rendered
}

func artifactList(artifacts []*pipewright.Artifact) []map[string]any {
	list := make([]map[string]any, 0, len(artifacts))
	for _, artifact := range artifacts {
		list = append(list, map[string]any{"Name": artifact.Name()})
	}
	return list
}
