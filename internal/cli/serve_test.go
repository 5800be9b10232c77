// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cli

import (
	"testing"
)

func TestPipelineGraph(t *testing.T) {
	def, err := assembleFromManifest(manifestWithSource("codecommit"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	graph := pipelineGraph(def)
	if graph["stackName"] != "demo" {
		t.Errorf("stackName = %v", graph["stackName"])
	}
	stages := graph["stages"].([]map[string]any)
	if len(stages) != 3 {
		t.Fatalf("stage count = %d, want 3", len(stages))
	}
	buildActions := stages[1]["actions"].([]map[string]any)
	outputs := buildActions[0]["outputs"].([]string)
	if len(outputs) != 1 || outputs[0] != "cfn_template" {
		t.Errorf("build outputs = %v", outputs)
	}
}
