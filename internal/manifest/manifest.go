// Package manifest loads batches of tensors described in YAML.
//
// A manifest lists arrays by name. Each array has a dtype and a shape, and its
// data comes from exactly one of: inline values, a raw file of the same dtype,
// or a raw file of source_dtype converted on load. An array with no data is
// created lazily.
//
//	arrays:
//	  - name: mask
//	    dtype: bool
//	    shape: [2, 3]
//	    values: [1, 0, 1, 1, 0, 0]
//	  - name: weights
//	    dtype: float32
//	    shape: [128, 64]
//	    file: weights.bin
//	  - name: ids
//	    dtype: int64
//	    shape: [1000]
//	    file: ids_int32.bin
//	    source_dtype: int32
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/tensordata/internal/tensor"
)

// ErrInvalidManifest is returned for structurally invalid manifests.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest is the YAML document.
type Manifest struct {
	Arrays []Array `yaml:"arrays"`
}

// Array describes one tensor.
type Array struct {
	Name        string    `yaml:"name"`
	DType       string    `yaml:"dtype"`
	Shape       []int     `yaml:"shape"`
	Values      []float64 `yaml:"values,omitempty"`
	File        string    `yaml:"file,omitempty"`
	SourceDType string    `yaml:"source_dtype,omitempty"`
}

// Entry is a loaded array.
type Entry struct {
	Name   string
	Tensor *tensor.Tensor
}

// Parse decodes a manifest from YAML.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	seen := make(map[string]bool, len(m.Arrays))
	for i, a := range m.Arrays {
		if a.Name == "" {
			return nil, fmt.Errorf("%w: array %d has no name", ErrInvalidManifest, i)
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("%w: duplicate array %q", ErrInvalidManifest, a.Name)
		}
		seen[a.Name] = true
		if a.Values != nil && a.File != "" {
			return nil, fmt.Errorf("%w: array %q has both values and file", ErrInvalidManifest, a.Name)
		}
		if a.SourceDType != "" && a.File == "" {
			return nil, fmt.Errorf("%w: array %q sets source_dtype without file", ErrInvalidManifest, a.Name)
		}
	}
	return &m, nil
}

// LoadFile parses the manifest at path and builds its tensors. Relative data
// files are resolved against the manifest directory.
func LoadFile(path string) ([]Entry, error) {
	//nolint:gosec // G304: manifest path comes from the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return m.Build(filepath.Dir(path))
}

// Build creates the tensors of m in order, reading files relative to dir.
func (m *Manifest) Build(dir string) ([]Entry, error) {
	entries := make([]Entry, 0, len(m.Arrays))
	for _, a := range m.Arrays {
		t, err := a.build(dir)
		if err != nil {
			return nil, fmt.Errorf("array %q: %w", a.Name, err)
		}
		entries = append(entries, Entry{Name: a.Name, Tensor: t})
	}
	return entries, nil
}

func (a *Array) build(dir string) (*tensor.Tensor, error) {
	dtype, err := tensor.ParseDataType(a.DType)
	if err != nil {
		return nil, err
	}
	shape := tensor.Shape(a.Shape)

	switch {
	case a.Values != nil:
		return tensor.FromSlice(a.Values, shape, dtype)
	case a.File != "":
		path := a.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		//nolint:gosec // G304: data file path comes from the user's manifest
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read data: %w", err)
		}
		if a.SourceDType == "" {
			return tensor.NewFromBytes(dtype, shape, raw)
		}
		srcType, err := tensor.ParseDataType(a.SourceDType)
		if err != nil {
			return nil, err
		}
		if err := shape.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", tensor.ErrInvalidShape, err)
		}
		if want := shape.NumElements() * srcType.Size(); len(raw) != want {
			return nil, fmt.Errorf("%w %d, expect %d for %s", tensor.ErrLengthMismatch, len(raw), want, srcType)
		}
		return tensor.NewFromData(dtype, shape, raw, srcType)
	default:
		return tensor.New(dtype, shape)
	}
}
