// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const blinker = `
circuits:
  - name: blinker
    components:
      - {kind: clock, name: clk}
      - {kind: input, name: en}
      - {kind: counter, name: cnt, width: 2, connections: "clk=clk, en=en, out=n"}
      - {kind: output, name: n, width: 2}
`

const mismatch = `
circuits:
  - name: bad
    components:
      - {kind: constant, name: one, value: "1", loc: x}
      - {kind: output, name: wide, width: 8, loc: x}
`

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return out.String(), err
}

func TestRun(t *testing.T) {
	design := writeFile(t, "blinker.yaml", blinker)
	out, err := execute(t, "run", design, "--set", "en=1", "--ticks", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "in en = 1\n")
	assert.Contains(t, out, "out n = 11\n")
	assert.Contains(t, out, "tick rate:")
}

func TestRunConfig(t *testing.T) {
	design := writeFile(t, "blinker.yaml", blinker)
	cfg := writeFile(t, "sim.yaml", "tick_frequency: 500\n")
	out, err := execute(t, "run", design, "-c", cfg, "-s", "en=1", "-n", "4", "--realtime")
	require.NoError(t, err)
	assert.Contains(t, out, "out n = ")
}

func TestRunErrors(t *testing.T) {
	design := writeFile(t, "blinker.yaml", blinker)
	_, err := execute(t, "run", design, "--set", "nope=1")
	assert.Error(t, err)
	_, err = execute(t, "run", design, "--set", "en=2")
	assert.Error(t, err)
	_, err = execute(t, "run", design, "--set", "en")
	assert.Error(t, err)
	_, err = execute(t, "run", design, "--log-level", "loud")
	assert.Error(t, err)
	_, err = execute(t, "run", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	noclk := writeFile(t, "noclk.yaml", mismatch)
	_, err = execute(t, "run", noclk, "--ticks", "1")
	assert.EqualError(t, err, "design has no clock")
}

func TestCheck(t *testing.T) {
	out, err := execute(t, "check", writeFile(t, "bad.yaml", mismatch))
	assert.EqualError(t, err, "1 incompatible nets")
	assert.Equal(t, "bad: x: widths 1, 8\n", out)

	_, err = execute(t, "check", writeFile(t, "ok.yaml", blinker))
	assert.NoError(t, err)
}

func TestKinds(t *testing.T) {
	out, err := execute(t, "kinds")
	require.NoError(t, err)
	assert.Contains(t, out, "register\n")
}
