// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package pipewright

// Category identifies which kind of pipeline stage an action belongs to.
type Category string

const (
	CategorySource Category = "Source"
	CategoryBuild  Category = "Build"
	CategoryDeploy Category = "Deploy"
)

// Action is a single unit of work inside a pipeline stage.
type Action interface {
	// ActionName is the action's name within its stage.
	ActionName() string
	// Category reports the stage kind the action runs in.
	Category() Category
	// Provider names the service executing the action (CodeBuild, CloudFormation, ...).
	Provider() string
	// Configuration returns the provider-specific settings.
	Configuration() map[string]string
	// Inputs lists the artifact slots the action consumes.
	Inputs() []*Artifact
	// Outputs lists the artifact slots the action produces.
	Outputs() []*Artifact
	// RunOrder controls ordering of actions within a stage (1-based).
	RunOrder() int
}

// Stage is an ordered group of actions executed together.
type Stage struct {
	Name    string
	Actions []Action
}
