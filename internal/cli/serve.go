// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cli

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/pipewright/pipewright"
	"github.com/pipewright/pipewright/internal/synth"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the synthesized template and pipeline graph for local inspection",
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

			r := chi.NewRouter()
			r.Use(middleware.Logger)
			r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				fmt.Fprintln(w, "ok")
			})
			r.Get("/template", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write(data)
			})
			r.Get("/pipeline", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(pipelineGraph(def))
			})

			fmt.Fprintf(cmd.OutOrStdout(), "Serving pipeline preview on %s\n", addr)
			return http.ListenAndServe(addr, r)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8089", "listen address")
	return cmd
}

// pipelineGraph is the JSON shape served at /pipeline.
func pipelineGraph(def *pipewright.Definition) map[string]any {
	stages := make([]map[string]any, 0, len(def.Stages))
	for _, stage := range def.Stages {
		actions := make([]map[string]any, 0, len(stage.Actions))
		for _, action := range stage.Actions {
			actions = append(actions, map[string]any{
				"name":     action.ActionName(),
				"provider": action.Provider(),
				"inputs":   artifactNames(action.Inputs()),
				"outputs":  artifactNames(action.Outputs()),
				"runOrder": action.RunOrder(),
			})
		}
		stages = append(stages, map[string]any{
			"name":    stage.Name,
			"actions": actions,
		})
	}
	return map[string]any{
		"stackName": def.StackName,
		"stages":    stages,
	}
}

func artifactNames(artifacts []*pipewright.Artifact) []string {
	names := make([]string, 0, len(artifacts))
	for _, artifact := range artifacts {
		names = append(names, artifact.Name())
	}
	return names
}
