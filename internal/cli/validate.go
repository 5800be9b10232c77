// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the manifest and buildspec without synthesizing",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, def, err := loadAndAssemble(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pipeline for stack %s is valid: %d stages, %d deploy actions\n",
				m.Stack.Name, len(def.Stages), len(def.Stage("Deploy").Actions))
			return nil
		},
	}
}
