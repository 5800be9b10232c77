// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package deploy pushes synthesized pipeline templates through
// CloudFormation and reports pipeline state.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/google/uuid"
)

type cfnAPI interface {
	CreateStack(context.Context, *cloudformation.CreateStackInput, ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStack(context.Context, *cloudformation.UpdateStackInput, ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
	DescribeStacks(context.Context, *cloudformation.DescribeStacksInput, ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

// ErrStackFailed reports a terminal non-success stack status.
var ErrStackFailed = errors.New("deploy: stack reached a failure state")

// Deployer creates or updates the CloudFormation stack holding the pipeline.
type Deployer struct {
	cfn  cfnAPI
	poll time.Duration
}

// New builds a Deployer from an AWS config.
func New(cfg aws.Config) *Deployer {
	return &Deployer{
		cfn:  cloudformation.NewFromConfig(cfg),
		poll: 5 * time.Second,
	}
}

// Deploy creates the stack, or updates it when it already exists, then
// waits for a terminal status. A no-op update is not an error.
func (d *Deployer) Deploy(ctx context.Context, stackName string, templateBody []byte) error {
	token := uuid.NewString()
	capabilities := []cfntypes.Capability{cfntypes.CapabilityCapabilityNamedIam}

	_, err := d.cfn.CreateStack(ctx, &cloudformation.CreateStackInput{
		StackName:          aws.String(stackName),
		TemplateBody:       aws.String(string(templateBody)),
		Capabilities:       capabilities,
		ClientRequestToken: aws.String(token),
	})
	if err != nil {
		if !stackExists(err) {
			return fmt.Errorf("create stack %s: %w", stackName, err)
		}
		_, err = d.cfn.UpdateStack(ctx, &cloudformation.UpdateStackInput{
			StackName:          aws.String(stackName),
			TemplateBody:       aws.String(string(templateBody)),
			Capabilities:       capabilities,
			ClientRequestToken: aws.String(token),
		})
		if err != nil {
			if noUpdates(err) {
				return nil
			}
			return fmt.Errorf("update stack %s: %w", stackName, err)
		}
	}

	return d.waitForStack(ctx, stackName)
}

// waitForStack polls until the stack reaches a terminal status.
func (d *Deployer) waitForStack(ctx context.Context, stackName string) error {
	ticker := time.NewTicker(d.poll)
	defer ticker.Stop()

	for {
		resp, err := d.cfn.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
			StackName: aws.String(stackName),
		})
		if err != nil {
			return fmt.Errorf("describe stack %s: %w", stackName, err)
		}
		if len(resp.Stacks) == 0 {
			return fmt.Errorf("stack %s not found", stackName)
		}

		status := resp.Stacks[0].StackStatus
		switch status {
		case cfntypes.StackStatusCreateComplete, cfntypes.StackStatusUpdateComplete:
			return nil
		case cfntypes.StackStatusCreateFailed,
			cfntypes.StackStatusRollbackComplete,
			cfntypes.StackStatusRollbackFailed,
			cfntypes.StackStatusUpdateRollbackComplete,
			cfntypes.StackStatusUpdateRollbackFailed:
			return fmt.Errorf("%w: %s is %s", ErrStackFailed, stackName, status)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// stackExists reports whether the create failed because the stack is
// already there.
func stackExists(err error) bool {
	var exists *cfntypes.AlreadyExistsException
	return errors.As(err, &exists)
}

// noUpdates matches CloudFormation's update rejection when the template is
// unchanged. The service reports it as a generic validation error, so the
// message text is the only signal.
func noUpdates(err error) bool {
	return err != nil && strings.Contains(err.Error(), "No updates are to be performed")
}
