// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pipewright/pipewright/internal/config"
	"github.com/pipewright/pipewright/internal/synth"
	"github.com/pipewright/pipewright/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-validate and re-synthesize whenever the manifest or buildspec change",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := os.Getwd()
			if err != nil {
				return err
			}
			path, err := manifestPath(cmd)
			if err != nil {
				return err
			}

			resynthesize := func() {
				if err := synthOnce(path, outPath); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "synth failed: %v\n", err)
					return
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
			}
			resynthesize()

			w, err := watch.NewWatcher(root, resynthesize)
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				return err
			}
			defer w.Stop()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			select {
			case <-stop:
			case <-cmd.Context().Done():
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", filepath.Join("dist", "template.json"), "output path for the synthesized template")
	return cmd
}

// synthOnce runs one load → assemble → synthesize → write pass.
func synthOnce(manifestPath, outPath string) error {
	m, err := config.LoadManifest(manifestPath)
	if err != nil {
		return err
	}
	def, err := assembleFromManifest(m)
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
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}
