package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCheck(t *testing.T) {
	out, _, err := execute(t, "check", "testdata/signup.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "testdata/signup.yaml: 3 fields")
	assert.Contains(t, out, "  date [date.day, date.month] optional")
}

func TestCheck_Submit(t *testing.T) {
	out, _, err := execute(t, "check", "--submit", "testdata/signup.yaml")
	require.Error(t, err)
	assert.Contains(t, out, "  email: Email is required")
	assert.Contains(t, out, "  terms: Please accept the terms")
}

func TestCheck_NoDefinition(t *testing.T) {
	_, _, err := execute(t, "check")
	require.ErrorContains(t, err, "no form definition")
}

func TestReplay(t *testing.T) {
	out, _, err := execute(t, "replay", "-d", "testdata/signup.yaml", "testdata/submit.yaml")
	require.NoError(t, err)

	var res struct {
		Frames      []map[string]any `json:"frames"`
		Submissions []struct {
			Errors map[string]any `json:"errors"`
			Values map[string]any `json:"values"`
		} `json:"submissions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Frames, 1)
	require.Len(t, res.Submissions, 1)
	assert.Equal(t, "a@b.c", res.Submissions[0].Values["email"])
	assert.Equal(t, []any{"Please accept the terms"}, res.Submissions[0].Errors["terms"])
}

func TestReplay_IssuesFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "goform.yml")
	def, err := filepath.Abs("testdata/signup.yaml")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg, []byte("definition: "+def+"\nlog:\n  level: error\n"), 0o644))

	out, _, err := execute(t, "--config", cfg, "replay", "--issues", "testdata/submit.yaml")
	require.NoError(t, err)
	assert.Equal(t, "terms: Please accept the terms\n", out)
}

func TestConfig_Invalid(t *testing.T) {
	_, _, err := execute(t, "--log-format", "xml", "check", "testdata/signup.yaml")
	require.ErrorContains(t, err, "invalid configuration")

	_, _, err = execute(t, "--config", filepath.Join(t.TempDir(), "missing.yml"), "check", "testdata/signup.yaml")
	require.ErrorContains(t, err, "read config")
}
