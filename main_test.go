package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakangs/panoramix/analysis"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"panoramix", "--verbosity", "0"}, args...))
	return out.String(), err
}

func TestExploreHex(t *testing.T) {
	out, err := run(t, "--hex", "0x5f5f01")
	require.NoError(t, err)

	var rep analysis.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Paths, 1)
	assert.Equal(t, "end-of-code", rep.Paths[0].Reason)
	require.Len(t, rep.Paths[0].Stack, 1)
	assert.Equal(t, &analysis.TermNode{Kind: "literal", Value: "0x0"}, rep.Paths[0].Stack[0])
}

func TestExploreNoFold(t *testing.T) {
	out, err := run(t, "--hex", "5f5f01", "--no-fold")
	require.NoError(t, err)

	var rep analysis.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Paths, 1)
	assert.Equal(t, "op", rep.Paths[0].Stack[0].Kind)
	assert.Equal(t, "add", rep.Paths[0].Stack[0].Name)
}

func TestExploreCBOR(t *testing.T) {
	out, err := run(t, "--hex", "5f3560065700", "--format", "cbor")
	require.NoError(t, err)

	rep, err := analysis.DecodeReport([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rep.NumPaths)
	assert.Equal(t, uint64(1), rep.NumFailed)
}

func TestExploreFileAndOut(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "code.hex")
	require.NoError(t, os.WriteFile(in, []byte("5f\n5f\n  01\n"), 0o644))
	dst := filepath.Join(dir, "report.json")

	out, err := run(t, "--file", in, "--out", dst)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	var rep analysis.Report
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, uint64(1), rep.NumPaths)
}

func TestExploreErrors(t *testing.T) {
	_, err := run(t)
	assert.ErrorContains(t, err, "--hex or --file")

	_, err = run(t, "--hex", "5f", "--format", "yaml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = run(t, "--hex", "5f", "--fork", "paris")
	assert.ErrorContains(t, err, "invalid configuration")

	_, err = run(t, "--hex", "5f", "--max-paths", "0")
	assert.ErrorContains(t, err, "invalid configuration")

	_, err = run(t, "--file", filepath.Join(t.TempDir(), "missing.hex"))
	assert.ErrorContains(t, err, "open bytecode file")
}

func TestDisassemble(t *testing.T) {
	out, err := run(t, "--hex", "600456005b00", "--disasm")
	require.NoError(t, err)
	assert.Equal(t, "00000: push1 0x4\n00002: jump\n\n00003: stop\n\n00004: jumpdest <\n00005: stop\n", out)

	// PUSH0 does not end a block, and is only known from shanghai on.
	out, err = run(t, "--hex", "5f5ff3", "--disasm")
	require.NoError(t, err)
	assert.Equal(t, "00000: push0 0x0\n00001: push0 0x0\n00002: return\n", out)

	_, err = run(t, "--hex", "00", "--disasm", "--fork", "paris")
	assert.ErrorContains(t, err, "unknown fork")
}

func TestMetrics(t *testing.T) {
	before := analysis.Counters()
	dst := filepath.Join(t.TempDir(), "report.json")
	out, err := run(t, "--hex", "5f3560065700", "--out", dst, "--metrics")
	require.NoError(t, err)

	after := analysis.Counters()
	assert.Equal(t, before["paths"]+2, after["paths"])
	assert.Equal(t, before["failed"]+1, after["failed"])
	assert.Greater(t, after["steps"], before["steps"])
	assert.Contains(t, out, fmt.Sprintf("symexec/paths %d\n", after["paths"]))
	assert.Contains(t, out, fmt.Sprintf("symexec/steps %d\n", after["steps"]))
}

func TestDecodeHexString(t *testing.T) {
	for _, s := range []string{"0x6001", "6001", "0X6001", " 60\n01\t", "0x60 01"} {
		code, err := decodeHexString(s)
		require.NoError(t, err, s)
		assert.Equal(t, []byte{0x60, 0x01}, code, s)
	}
	code, err := decodeHexString("")
	require.NoError(t, err)
	assert.Empty(t, code)

	_, err = decodeHexString("600")
	assert.Error(t, err)
	_, err = decodeHexString("zz")
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(file, []byte("max_paths = 3\nfold_constants = false\nfork = \"shanghai\"\n"), 0o644))

	cfg := analysis.DefaultConfig()
	require.NoError(t, loadConfig(file, &cfg))
	assert.Equal(t, 3, cfg.MaxPaths)
	assert.False(t, cfg.FoldConstants)
	assert.Equal(t, "shanghai", cfg.Fork)
	assert.Equal(t, analysis.DefaultConfig().MaxSteps, cfg.MaxSteps)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("max_paths = 3\nmax_depth = 2\n"), 0o644))
	cfg = analysis.DefaultConfig()
	assert.ErrorContains(t, loadConfig(bad, &cfg), "max_depth")
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(file, []byte("max_paths = 3\nworkers = 2\n"), 0o644))

	out, err := run(t, "dumpconfig", "--config", file, "--max-paths", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "max_paths = 7")
	assert.Contains(t, out, "workers = 2")
	assert.Contains(t, out, "fork = \"cancun\"")
}
