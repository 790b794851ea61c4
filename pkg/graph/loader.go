package graph

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/snappy"
	"gopkg.in/yaml.v3"
)

// Format identifies an on-disk graph encoding.
type Format int

const (
	// FormatText is the reference format: "N M", N node values, then M
	// undirected edges as index pairs.
	FormatText Format = iota
	// FormatYAML is a directed adjacency list under a top-level "nodes" key.
	FormatYAML
)

// String returns the string representation of a format
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

const (
	maxLineBytes   = 64 << 20
	preallocNodes  = 1 << 16
	snappySuffixSz = ".sz"
	snappySuffix   = ".snappy"
)

// DetectFormat derives the encoding and compression of path from its
// extensions, e.g. "g.txt", "g.yaml", "g.txt.sz".
func DetectFormat(path string) (format Format, compressed bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == snappySuffixSz || ext == snappySuffix {
		compressed = true
		path = strings.TrimSuffix(path, filepath.Ext(path))
		ext = strings.ToLower(filepath.Ext(path))
	}

	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, compressed
	default:
		return FormatText, compressed
	}
}

// LoadFile reads a graph from path, choosing the decoder from the file name.
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	defer f.Close()

	format, compressed := DetectFormat(path)

	var r io.Reader = f
	if compressed {
		r = snappy.NewReader(f)
	}

	g, err := Load(r, format)
	if err != nil {
		var inErr *InputError
		if errors.As(err, &inErr) {
			inErr.Path = path
			return nil, inErr
		}
		return nil, &InputError{Path: path, Err: err}
	}
	return g, nil
}

// Load decodes a graph from r in the given format.
func Load(r io.Reader, format Format) (*Graph, error) {
	switch format {
	case FormatText:
		return loadText(r)
	case FormatYAML:
		return loadYAML(r)
	default:
		return nil, &InputError{Err: fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)}
	}
}

// tokenReader yields whitespace-separated tokens while tracking line numbers.
type tokenReader struct {
	sc     *bufio.Scanner
	line   int
	fields []string
}

func newTokenReader(r io.Reader) *tokenReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &tokenReader{sc: sc}
}

func (t *tokenReader) next() (string, error) {
	for len(t.fields) == 0 {
		if !t.sc.Scan() {
			if err := t.sc.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		t.line++
		t.fields = strings.Fields(t.sc.Text())
	}
	tok := t.fields[0]
	t.fields = t.fields[1:]
	return tok, nil
}

func (t *tokenReader) nextInt(what string) (int64, error) {
	tok, err := t.next()
	if errors.Is(err, io.EOF) {
		return 0, t.fail(fmt.Errorf("%w: unexpected end of input reading %s", ErrMalformedInput, what))
	}
	if err != nil {
		return 0, t.fail(err)
	}
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, t.fail(fmt.Errorf("%w: %s %q is not an integer", ErrMalformedInput, what, tok))
	}
	return v, nil
}

func (t *tokenReader) fail(err error) error {
	return &InputError{Line: t.line, Err: err}
}

func loadText(r io.Reader) (*Graph, error) {
	tr := newTokenReader(r)

	n, err := tr.nextInt("node count")
	if err != nil {
		return nil, err
	}
	m, err := tr.nextInt("edge count")
	if err != nil {
		return nil, err
	}
	if n < 0 || m < 0 {
		return nil, tr.fail(fmt.Errorf("%w: negative counts %d %d", ErrMalformedInput, n, m))
	}

	values := make([]int64, 0, min(n, preallocNodes))
	for i := int64(0); i < n; i++ {
		v, err := tr.nextInt(fmt.Sprintf("value of node %d", i))
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	adjacency := make([][]int, len(values))
	for i := int64(0); i < m; i++ {
		u, err := tr.nextInt(fmt.Sprintf("edge %d source", i))
		if err != nil {
			return nil, err
		}
		v, err := tr.nextInt(fmt.Sprintf("edge %d target", i))
		if err != nil {
			return nil, err
		}
		if u < 0 || u >= n || v < 0 || v >= n {
			bad := u
			if u >= 0 && u < n {
				bad = v
			}
			return nil, tr.fail(outOfRange("Load", int(bad), int(n)))
		}
		adjacency[u] = append(adjacency[u], int(v))
		if u != v {
			adjacency[v] = append(adjacency[v], int(u))
		}
	}

	if tok, err := tr.next(); err == nil {
		return nil, tr.fail(fmt.Errorf("%w: unexpected trailing token %q", ErrMalformedInput, tok))
	} else if !errors.Is(err, io.EOF) {
		return nil, tr.fail(err)
	}

	g, err := NewGraph(values, adjacency)
	if err != nil {
		return nil, &InputError{Err: err}
	}
	return g, nil
}

type yamlDocument struct {
	Nodes []yamlNode `yaml:"nodes"`
}

type yamlNode struct {
	Value     int64 `yaml:"value"`
	Neighbors []int `yaml:"neighbors"`
}

func loadYAML(r io.Reader) (*Graph, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc yamlDocument
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &InputError{Err: fmt.Errorf("%w: empty document", ErrMalformedInput)}
		}
		return nil, &InputError{Err: fmt.Errorf("%w: %v", ErrMalformedInput, err)}
	}

	values := make([]int64, len(doc.Nodes))
	adjacency := make([][]int, len(doc.Nodes))
	for i, node := range doc.Nodes {
		values[i] = node.Value
		adjacency[i] = node.Neighbors
	}

	g, err := NewGraph(values, adjacency)
	if err != nil {
		return nil, &InputError{Err: err}
	}
	return g, nil
}
