// Copyright 2020 CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const cliFixture = `
current_module: App
variables:
  x: "42"
expression: "x"
`

func runExpand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.yaml")
	if err := os.WriteFile(path, []byte(cliFixture), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{path}, args...))

	err := cmd.Execute()
	return out.String(), err
}

// TestExpandPrintsFixtureExpression covers the plain case: no --expr
// override, the fixture's own expression resolves the bound variable.
func TestExpandPrintsFixtureExpression(t *testing.T) {
	out, err := runExpand(t)
	assert.NoError(t, err)
	assert.Equal(t, "42", strings.TrimSpace(out))
}

// TestExpandExprOverridesFixtureExpression covers --expr taking
// precedence over the fixture's own expression field.
func TestExpandExprOverridesFixtureExpression(t *testing.T) {
	out, err := runExpand(t, "--expr", ":hello")
	assert.NoError(t, err)
	assert.Equal(t, ":hello", strings.TrimSpace(out))
}
