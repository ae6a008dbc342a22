package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/born-ml/tensordata/internal/loader"
	"github.com/born-ml/tensordata/internal/tensor"
)

var convertDType string

var convertCmd = &cobra.Command{
	Use:   "convert <in.safetensors> <out.safetensors>",
	Short: "Convert every tensor of a file to one data type",
	Args:  cobra.ExactArgs(2),
	RunE:  runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertDType, "dtype", "float32", "Target data type")
}

func runConvert(cmd *cobra.Command, args []string) error {
	dtype, err := tensor.ParseDataType(convertDType)
	if err != nil {
		return err
	}

	reader, err := openReader(args[0])
	if err != nil {
		return err
	}
	defer reader.Close()

	names := reader.TensorNames()
	tensors := make(map[string]*tensor.Tensor, len(names))
	for _, name := range names {
		t, err := reader.LoadTensorAs(name, dtype)
		if err != nil {
			return err
		}
		tensors[name] = t
	}

	if err := loader.WriteSafeTensors(args[1], tensors, reader.Metadata()); err != nil {
		return err
	}
	logger.Info("converted",
		zap.String("input", args[0]),
		zap.String("output", args[1]),
		zap.Stringer("dtype", dtype),
		zap.Int("tensors", len(names)))
	return nil
}
