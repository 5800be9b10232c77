// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package pipewright

// Artifact is a named slot for data flowing between pipeline stages.
// Slots are compared by identity: two artifacts with the same name are
// still distinct slots.
type Artifact struct {
	name string
}

// NewArtifact allocates a fresh artifact slot with the given name.
func NewArtifact(name string) *Artifact {
	return &Artifact{name: name}
}

// Name returns the slot's name as it appears in the pipeline definition.
func (a *Artifact) Name() string {
	return a.name
}
