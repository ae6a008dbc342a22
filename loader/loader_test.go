// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package loader_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/born-ml/tensordata/loader"
	"github.com/born-ml/tensordata/tensor"
)

func TestSaveAndOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.Float32)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	if err := loader.Save(path, map[string]*tensor.Tensor{"x": x}, nil); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	for name, open := range map[string]func(string) (loader.Reader, error){
		"buffered": loader.Open,
		"mapped":   loader.OpenMapped,
	} {
		t.Run(name, func(t *testing.T) {
			r, err := open(path)
			if err != nil {
				t.Fatalf("open failed: %v", err)
			}
			defer r.Close()

			got, err := r.LoadTensor("x")
			if err != nil {
				t.Fatalf("LoadTensor failed: %v", err)
			}
			if !got.ValueEqual(x) {
				t.Errorf("loaded %s, want %s", got, x)
			}

			half, err := r.LoadTensorAs("x", tensor.Float16)
			if err != nil {
				t.Fatalf("LoadTensorAs failed: %v", err)
			}
			if half.DType() != tensor.Float16 {
				t.Errorf("dtype = %v, want float16", half.DType())
			}

			if _, err := r.LoadTensor("y"); !errors.Is(err, loader.ErrTensorNotFound) {
				t.Errorf("missing tensor error = %v", err)
			}
		})
	}
}
