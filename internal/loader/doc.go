// Package loader reads and writes tensors in the SafeTensors format.
//
// SafeTensors layout:
//
//	[8 bytes: header_size (uint64 LE)]
//	[header_size bytes: JSON header]
//	[tensor data: raw little-endian bytes]
//
// Every dtype of the tensor package has a SafeTensors name, so loading builds
// tensors directly from the raw bytes and checks the byte length against the
// declared shape.
//
// Example:
//
//	r, err := loader.NewSafeTensorsReader("weights.safetensors")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	t, err := r.LoadTensor("layer0.weight")
//
// NewMmapReader serves the same reads from a read-only memory mapping, which
// avoids a read syscall per tensor on large files.
package loader
