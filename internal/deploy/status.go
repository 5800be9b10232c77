// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package deploy

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codepipeline"
)

type pipelineAPI interface {
	GetPipelineState(context.Context, *codepipeline.GetPipelineStateInput, ...func(*codepipeline.Options)) (*codepipeline.GetPipelineStateOutput, error)
}

// StageState is the latest execution status of one pipeline stage.
type StageState struct {
	Name    string
	Status  string
	Actions []ActionState
}

// ActionState is the latest execution status of one action.
type ActionState struct {
	Name   string
	Status string
}

// StatusClient reads execution state from a deployed pipeline.
type StatusClient struct {
	api pipelineAPI
}

// NewStatusClient builds a StatusClient from an AWS config.
func NewStatusClient(cfg aws.Config) *StatusClient {
	return &StatusClient{api: codepipeline.NewFromConfig(cfg)}
}

// FetchState returns per-stage state for the named pipeline.
func (c *StatusClient) FetchState(ctx context.Context, pipelineName string) ([]StageState, error) {
	resp, err := c.api.GetPipelineState(ctx, &codepipeline.GetPipelineStateInput{
		Name: aws.String(pipelineName),
	})
	if err != nil {
		return nil, fmt.Errorf("get pipeline state %s: %w", pipelineName, err)
	}

	stages := make([]StageState, 0, len(resp.StageStates))
	for _, s := range resp.StageStates {
		stage := StageState{Status: "Unknown"}
		if s.StageName != nil {
			stage.Name = *s.StageName
		}
		if s.LatestExecution != nil {
			stage.Status = string(s.LatestExecution.Status)
		}
		for _, a := range s.ActionStates {
			action := ActionState{Status: "Unknown"}
			if a.ActionName != nil {
				action.Name = *a.ActionName
			}
			if a.LatestExecution != nil {
				action.Status = string(a.LatestExecution.Status)
			}
			stage.Actions = append(stage.Actions, action)
		}
		stages = append(stages, stage)
	}
	return stages, nil
}
