// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pipewright/pipewright"
	"github.com/pipewright/pipewright/buildspec"
	"github.com/pipewright/pipewright/internal/config"
)

// manifestPath resolves the --manifest flag, defaulting to pipewright.yaml
// in the working directory.
func manifestPath(cmd *cobra.Command) (string, error) {
	path, err := cmd.Flags().GetString("manifest")
	if err != nil {
		return "", err
	}
	if path != "" {
		return path, nil
	}
	root, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, config.DefaultManifestName), nil
}

// sourceFromManifest maps the manifest's source section onto a factory.
func sourceFromManifest(m config.Manifest) (pipewright.SourceFactory, error) {
	switch m.Source.Provider {
	case "github":
		return pipewright.GitHubSource(pipewright.GitHubSourceProps{
			Owner:         m.Source.Owner,
			Repository:    m.Source.Repository,
			Branch:        m.Source.Branch,
			ConnectionARN: m.Source.ConnectionARN,
		}), nil
	case "codecommit":
		return pipewright.CodeCommitSource(pipewright.CodeCommitSourceProps{
			Repository: m.Source.Repository,
			Branch:     m.Source.Branch,
		}), nil
	case "s3":
		return pipewright.S3Source(pipewright.S3SourceProps{
			Bucket:    m.Source.Bucket,
			ObjectKey: m.Source.ObjectKey,
		}), nil
	default:
		return nil, fmt.Errorf("unknown source provider %q", m.Source.Provider)
	}
}

// specFactory reads the project's buildspec file, falling back to the
// generated default when the file is absent.
func specFactory(m config.Manifest) (pipewright.BuildSpecFactory, error) {
	data, err := os.ReadFile(m.Build.SpecPath)
	if err != nil {
		if os.IsNotExist(err) {
			return func() *buildspec.Spec { return buildspec.Default(m.Lambdas) }, nil
		}
		return nil, err
	}
	spec, err := buildspec.Parse(data)
	if err != nil {
		return nil, err
	}
	return func() *buildspec.Spec { return spec }, nil
}

// assembleFromManifest runs the full assembly for the given manifest.
func assembleFromManifest(m config.Manifest) (*pipewright.Definition, error) {
	source, err := sourceFromManifest(m)
	if err != nil {
		return nil, err
	}
	createSpec, err := specFactory(m)
	if err != nil {
		return nil, err
	}
	return pipewright.Assemble(pipewright.Options{
		StackName:                  m.Stack.Name,
		Source:                     source,
		CreateBuildSpec:            createSpec,
		HasLambdas:                 m.Lambdas,
		AdditionalPolicyStatements: m.Policies,
		ArtifactBucket:             m.ArtifactBucket,
	})
}

// loadAndAssemble loads the manifest named by the command flags and
// assembles the pipeline.
func loadAndAssemble(cmd *cobra.Command) (config.Manifest, *pipewright.Definition, error) {
	path, err := manifestPath(cmd)
	if err != nil {
		return config.Manifest{}, nil, err
	}
	m, err := config.LoadManifest(path)
	if err != nil {
		return config.Manifest{}, nil, err
	}
	def, err := assembleFromManifest(m)
	if err != nil {
		return m, nil, err
	}
	return m, def, nil
}
