// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pipewright/pipewright/internal/synth"
)

func newSynthCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize the pipeline into a CloudFormation template",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, def, err := loadAndAssemble(cmd)
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
			if outPath == "-" {
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", filepath.Join("dist", "template.json"), "output path, or - for stdout")
	return cmd
}
