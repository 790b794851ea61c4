package graph

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const triangleText = `3 3
10 20 30
0 1
1 2
2 0
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadText(t *testing.T) {
	g, err := Load(strings.NewReader(triangleText), FormatText)
	require.NoError(t, err)

	assert.Equal(t, 3, g.NodeCount())
	// Undirected edges are recorded in both directions.
	assert.Equal(t, 6, g.EdgeCount())

	nb, _ := g.Neighbors(0)
	assert.ElementsMatch(t, []int{1, 2}, nb)

	sum, err := g.SequentialSum(0)
	require.NoError(t, err)
	assert.Equal(t, int64(60), sum)
}

func TestLoadText_LineBreaksNotSignificant(t *testing.T) {
	g, err := Load(strings.NewReader("2 1 5\n7 0\n1"), FormatText)
	require.NoError(t, err)

	v, _ := g.Value(1)
	assert.Equal(t, int64(7), v)
	nb, _ := g.Neighbors(1)
	assert.Equal(t, []int{0}, nb)
}

func TestLoadText_SelfLoopRecordedOnce(t *testing.T) {
	g, err := Load(strings.NewReader("1 1\n4\n0 0\n"), FormatText)
	require.NoError(t, err)

	nb, _ := g.Neighbors(0)
	assert.Equal(t, []int{0}, nb)
}

func TestLoadText_Empty(t *testing.T) {
	g, err := Load(strings.NewReader("0 0"), FormatText)
	require.NoError(t, err)
	assert.Equal(t, 0, g.NodeCount())
}

func TestLoadText_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		target error
		line   int
	}{
		{"empty input", "", ErrMalformedInput, 0},
		{"missing edge count", "3", ErrMalformedInput, 1},
		{"not an integer", "2 x", ErrMalformedInput, 1},
		{"negative count", "-1 0", ErrMalformedInput, 1},
		{"missing values", "3 0\n1 2", ErrMalformedInput, 2},
		{"missing edge endpoint", "2 1\n1 2\n0", ErrMalformedInput, 3},
		{"edge out of range", "2 1\n1 2\n0 5", ErrIndexOutOfRange, 3},
		{"negative endpoint", "2 1\n1 2\n-1 0", ErrIndexOutOfRange, 3},
		{"trailing garbage", "1 0\n1\nextra", ErrMalformedInput, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input), FormatText)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)

			var inErr *InputError
			require.True(t, errors.As(err, &inErr))
			assert.Equal(t, tt.line, inErr.Line)
		})
	}
}

func TestLoadYAML(t *testing.T) {
	doc := `
nodes:
  - value: 10
    neighbors: [1, 2]
  - value: 20
    neighbors: [2]
  - value: 30
    neighbors: [1]
`
	g, err := Load(strings.NewReader(doc), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 4, g.EdgeCount())

	nb, _ := g.Neighbors(1)
	assert.Equal(t, []int{2}, nb, "YAML edges are directed")
}

func TestLoadYAML_Errors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		target error
	}{
		{"empty", "", ErrMalformedInput},
		{"unknown key", "nodes:\n  - value: 1\n    weight: 2\n", ErrMalformedInput},
		{"bad neighbor", "nodes:\n  - value: 1\n    neighbors: [3]\n", ErrIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc), FormatYAML)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	_, err := Load(strings.NewReader(""), Format(42))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path       string
		format     Format
		compressed bool
	}{
		{"graph.in", FormatText, false},
		{"graph.txt", FormatText, false},
		{"graph", FormatText, false},
		{"graph.yaml", FormatYAML, false},
		{"graph.YML", FormatYAML, false},
		{"graph.txt.sz", FormatText, true},
		{"graph.yaml.snappy", FormatYAML, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, compressed := DetectFormat(tt.path)
			assert.Equal(t, tt.format, format)
			assert.Equal(t, tt.compressed, compressed)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "triangle.in", triangleText)

	g, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, g.NodeCount())
}

func TestLoadFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.in")

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	var inErr *InputError
	require.True(t, errors.As(err, &inErr))
	assert.Equal(t, path, inErr.Path)
}

func TestLoadFile_ErrorCarriesPath(t *testing.T) {
	path := writeFile(t, "bad.in", "2 1\n1 2\n0 9\n")

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path+":3:")
}

func TestLoadFile_Snappy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triangle.txt.sz")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := snappy.NewBufferedWriter(f)
	_, err = w.Write([]byte(triangleText))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	g, err := LoadFile(path)
	require.NoError(t, err)

	sum, err := g.SequentialSum(0)
	require.NoError(t, err)
	assert.Equal(t, int64(60), sum)
}

func TestLoadFile_SnappyCorrupt(t *testing.T) {
	path := writeFile(t, "broken.txt.sz", triangleText)

	_, err := LoadFile(path)
	require.Error(t, err)

	var inErr *InputError
	assert.True(t, errors.As(err, &inErr))
}
