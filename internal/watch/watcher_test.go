// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package watch

import "testing"

func TestShouldIgnore(t *testing.T) {
	w := &Watcher{}
	tests := []struct {
		path   string
		ignore bool
	}{
		{"pipewright.yaml", false},
		{"buildspec.yml", false},
		{"./buildspec.yml", false},
		{"main.go", true},
		{"dist/template.json", true},
		{".git/config.yaml", true},
		{"project/.hidden/spec.yaml", true},
		{".hidden.yaml", true},
	}
	for _, tt := range tests {
		if got := w.shouldIgnore(tt.path); got != tt.ignore {
			t.Errorf("shouldIgnore(%q) = %v, want %v", tt.path, got, tt.ignore)
		}
	}
}
