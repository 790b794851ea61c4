package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBenchmarkSmallGraph(t *testing.T) {
	var out bytes.Buffer
	cmd := newBenchCmd(&out)
	cmd.SetArgs([]string{"--nodes", "500", "--degree", "3", "--workers", "3", "--rounds", "2"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Created 500 nodes")
	assert.Contains(t, out.String(), "Testing parallel sum (3 workers)")
	assert.Contains(t, out.String(), "Best Speedup")
}

func TestBenchmarkRejectsArgs(t *testing.T) {
	var out bytes.Buffer
	cmd := newBenchCmd(&out)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"extra"})

	assert.Error(t, cmd.Execute())
}

func TestBenchmarkBadFlagValues(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"negative nodes", []string{"--nodes", "-1", "--rounds", "1"}, "--nodes must be at least 1"},
		{"zero nodes", []string{"--nodes", "0", "--rounds", "1"}, "--nodes must be at least 1"},
		{"negative degree", []string{"--nodes", "10", "--degree", "-2"}, "--degree must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			cmd := newBenchCmd(&out)
			cmd.SetErr(&errOut)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Empty(t, out.String(), "nothing should run")
			// main prints the error; cobra must not print it too
			assert.Empty(t, errOut.String())
		})
	}
}
