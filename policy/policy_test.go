// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package policy

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDocumentJSON(t *testing.T) {
	doc := NewDocument(
		Allow([]string{"s3:GetObject"}, []string{"arn:aws:s3:::bucket/*"}),
	)
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"Version":"2012-10-17"`, `"Effect":"Allow"`, `"Action":["s3:GetObject"]`, `"Resource":["arn:aws:s3:::bucket/*"]`} {
		if !strings.Contains(out, want) {
			t.Errorf("document JSON missing %s:\n%s", want, out)
		}
	}
}

func TestStatementOrderPreserved(t *testing.T) {
	doc := NewDocument(
		Statement{Sid: "First", Effect: "Allow", Actions: []string{"a:One"}, Resources: []string{"*"}},
		Statement{Sid: "Second", Effect: "Deny", Actions: []string{"a:Two"}, Resources: []string{"*"}},
	)
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(data)
	if strings.Index(out, "First") > strings.Index(out, "Second") {
		t.Errorf("statement order not preserved:\n%s", out)
	}
}
