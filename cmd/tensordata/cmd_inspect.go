package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/born-ml/tensordata/internal/tensor"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.safetensors>",
	Short: "List tensor headers without reading data",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	reader, err := openReader(args[0])
	if err != nil {
		return err
	}
	defer reader.Close()

	out := cmd.OutOrStdout()

	meta := reader.Metadata()
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "# %s: %s\n", k, meta[k])
	}

	var total int64
	for _, name := range reader.TensorNames() {
		info, err := reader.TensorInfo(name)
		if err != nil {
			return err
		}
		size := info.DataOffsets[1] - info.DataOffsets[0]
		total += size

		dtype := string(info.DType)
		if dt, err := info.DType.DataType(); err == nil {
			dtype = dt.String()
		}
		fmt.Fprintf(out, "%s\tshape:[%v]\tdtype:%s\tbytes:%d\n", name, tensor.Shape(info.Shape), dtype, size)
	}
	fmt.Fprintf(out, "%d tensors, %d bytes\n", len(reader.TensorNames()), total)
	return nil
}
