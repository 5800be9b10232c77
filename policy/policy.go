// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package policy models IAM policy statements as plain values that marshal
// to the documents CloudFormation expects.
package policy

// Statement is a single IAM policy statement. Statements supplied by callers
// are attached to the build role verbatim; nothing here validates them.
type Statement struct {
	Sid       string   `json:"Sid,omitempty" yaml:"sid,omitempty"`
	Effect    string   `json:"Effect" yaml:"effect"`
	Actions   []string `json:"Action" yaml:"actions"`
	Resources []string `json:"Resource" yaml:"resources"`
}

// Document is an IAM policy document.
type Document struct {
	Version    string      `json:"Version"`
	Statements []Statement `json:"Statement"`
}

// NewDocument wraps statements in a policy document with the standard version.
func NewDocument(statements ...Statement) Document {
	return Document{
		Version:    "2012-10-17",
		Statements: statements,
	}
}

// Allow builds an Allow statement over the given actions and resources.
func Allow(actions []string, resources []string) Statement {
	return Statement{
		Effect:    "Allow",
		Actions:   actions,
		Resources: resources,
	}
}
