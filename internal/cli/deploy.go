// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pipewright/pipewright/internal/deploy"
	"github.com/pipewright/pipewright/internal/synth"
)

func newDeployCmd() *cobra.Command {
	var profile string
	var region string
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Synthesize the pipeline and deploy it through CloudFormation",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, def, err := loadAndAssemble(cmd)
			if err != nil {
				return err
			}
			tmpl, err := synth.Synthesize(def)
			if err != nil {
				return err
			}
			data, err := tmpl.JSON()
			if err != nil {
				return err
			}

			if profile == "" {
				profile = m.AWS.Profile
			}
			if region == "" {
				region = m.AWS.Region
			}
			cfg, err := awsConfig(cmd.Context(), profile, region)
			if err != nil {
				return fmt.Errorf("load AWS config: %w", err)
			}

			stack := m.Stack.Name + "-pipeline"
			fmt.Fprintf(cmd.OutOrStdout(), "Deploying stack %s...\n", stack)
			if err := deploy.New(cfg).Deploy(cmd.Context(), stack, data); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deploy complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile (defaults to manifest aws.profile)")
	cmd.Flags().StringVar(&region, "region", "", "AWS region (defaults to manifest aws.region)")
	return cmd
}
