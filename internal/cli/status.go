// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pipewright/pipewright/internal/config"
	"github.com/pipewright/pipewright/internal/deploy"
)

func newStatusCmd() *cobra.Command {
	var profile string
	var region string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the latest execution state of the deployed pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := manifestPath(cmd)
			if err != nil {
				return err
			}
			m, err := config.LoadManifest(path)
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

			stages, err := deploy.NewStatusClient(cfg).FetchState(cmd.Context(), m.Stack.Name+"-pipeline")
			if err != nil {
				return err
			}
			for _, stage := range stages {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", stage.Name, stage.Status)
				for _, action := range stage.Actions {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", action.Name, action.Status)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile (defaults to manifest aws.profile)")
	cmd.Flags().StringVar(&region, "region", "", "AWS region (defaults to manifest aws.region)")
	return cmd
}
