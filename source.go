// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package pipewright

// SourceFactory produces the pipeline's source-stage action. The assembler
// allocates the output slot and passes it in; the returned action must
// declare that slot among its outputs.
type SourceFactory func(output *Artifact) Action

// sourceAction is the common shape of the built-in source actions.
type sourceAction struct {
	name     string
	provider string
	config   map[string]string
	outputs  []*Artifact
}

func (s *sourceAction) ActionName() string               { return s.name }
func (s *sourceAction) Category() Category               { return CategorySource }
func (s *sourceAction) Provider() string                 { return s.provider }
func (s *sourceAction) Configuration() map[string]string { return s.config }
func (s *sourceAction) Inputs() []*Artifact              { return nil }
func (s *sourceAction) Outputs() []*Artifact             { return s.outputs }
func (s *sourceAction) RunOrder() int                    { return 1 }

// GitHubSourceProps configures a CodeStar-connection backed GitHub source.
type GitHubSourceProps struct {
	Owner         string
	Repository    string
	Branch        string
	ConnectionARN string
}

// GitHubSource returns a factory producing a GitHub source action.
func GitHubSource(props GitHubSourceProps) SourceFactory {
	return func(output *Artifact) Action {
		return &sourceAction{
			name:     "Source",
			provider: "CodeStarSourceConnection",
			config: map[string]string{
				"ConnectionArn":    props.ConnectionARN,
				"FullRepositoryId": props.Owner + "/" + props.Repository,
				"BranchName":       props.Branch,
			},
			outputs: []*Artifact{output},
		}
	}
}

// CodeCommitSourceProps configures a CodeCommit source.
type CodeCommitSourceProps struct {
	Repository string
	Branch     string
}

// CodeCommitSource returns a factory producing a CodeCommit source action.
func CodeCommitSource(props CodeCommitSourceProps) SourceFactory {
	return func(output *Artifact) Action {
		return &sourceAction{
			name:     "Source",
			provider: "CodeCommit",
			config: map[string]string{
				"RepositoryName": props.Repository,
				"BranchName":     props.Branch,
			},
			outputs: []*Artifact{output},
		}
	}
}

// S3SourceProps configures an S3 object source.
type S3SourceProps struct {
	Bucket    string
	ObjectKey string
}

// S3Source returns a factory producing an S3 source action.
func S3Source(props S3SourceProps) SourceFactory {
	return func(output *Artifact) Action {
		return &sourceAction{
			name:     "Source",
			provider: "S3",
			config: map[string]string{
				"S3Bucket":    props.Bucket,
				"S3ObjectKey": props.ObjectKey,
			},
			outputs: []*Artifact{output},
		}
	}
}
