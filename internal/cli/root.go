// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipewright",
		Short: "Pipewright assembles and deploys CodePipeline delivery pipelines",
	}
	cmd.PersistentFlags().String("manifest", "", "path to pipewright.yaml (defaults to ./pipewright.yaml)")

	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newSynthCmd())
	cmd.AddCommand(newDeployCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})
	return cmd
}
