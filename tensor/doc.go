// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides typed, shape-aware tensor storage for tensordata.
//
// # Overview
//
// A Tensor pairs metadata (data type and shape) with a Storage holding the
// flat element buffer. This package provides:
//   - Twelve element types, Bool through Float64, dispatched at runtime
//   - Lazy allocation: buffers are zeroed and allocated on first access
//   - Shared storage between cloned handles
//   - Element conversion between any two data types
//   - Summary rendering with elided long dimensions
//   - Optional device-resident copies synced on demand
//
// # Basic Usage
//
//	x, err := tensor.FromSlice([]int32{0, 1, 2, 3, 4, 5, 6, 7}, tensor.Shape{1, 8}, tensor.Int32)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(x.StringRepr())
//	// Tensor shape:[1 8] dtype:int32
//	// value:[[ 0  1  2 ...  5  6  7]]
//
// # Identity and Equality
//
// Clone returns a handle that shares storage and identifier with its source.
// Equal reports identity (same storage); ValueEqual compares contents.
// SetDataType and CloneAs build a new storage, so aliases keep observing the
// old values.
//
// # Device Sync
//
// A tensor may carry a DeviceAddress. DataSync copies the device bytes into
// the host buffer; Inspect syncs before rendering. The tensor never releases
// the device memory.
//
// # Thread Safety
//
// A Tensor and its Storage are not safe for concurrent mutation, and lazy
// allocation counts as mutation. MakeID is safe for concurrent use.
package tensor
