package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/born-ml/tensordata/internal/tensor"
)

var (
	renderFull   bool
	renderDType  string
	renderDevice string
)

var renderCmd = &cobra.Command{
	Use:   "render <file.safetensors> [name...]",
	Short: "Print tensor values",
	Long: `Render prints each tensor of a SafeTensors file, or only the named ones.

By default only tensors under 30 elements show their values. With --full every
tensor is printed, large dimensions elided around "...".

With --device each tensor is uploaded to a device buffer (host or webgpu) and
printed from the copy synced back to the host.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().BoolVar(&renderFull, "full", false, "Print values of large tensors too")
	renderCmd.Flags().StringVar(&renderDType, "dtype", "", "Convert to this data type before printing")
	renderCmd.Flags().StringVar(&renderDevice, "device", "", "Round-trip tensors through a device buffer (host, webgpu)")
}

func runRender(cmd *cobra.Command, args []string) error {
	reader, err := openReader(args[0])
	if err != nil {
		return err
	}
	defer reader.Close()

	names := args[1:]
	if len(names) == 0 {
		names = reader.TensorNames()
	}

	var dtype tensor.DataType
	if renderDType != "" {
		if dtype, err = tensor.ParseDataType(renderDType); err != nil {
			return err
		}
	}

	upload, release, err := openDevice(renderDevice)
	if err != nil {
		return err
	}
	defer release()

	out := cmd.OutOrStdout()
	for _, name := range names {
		var t *tensor.Tensor
		if renderDType != "" {
			t, err = reader.LoadTensorAs(name, dtype)
		} else {
			t, err = reader.LoadTensor(name)
		}
		if err != nil {
			return err
		}
		if upload != nil {
			var buf deviceBuffer
			if t, buf, err = throughDevice(t, upload); err != nil {
				return err
			}
			defer buf.Release()
		}
		logger.Debug("rendering tensor", zap.String("name", name), zap.String("id", t.ID()))

		text, err := t.Inspect(renderFull)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", name, text)
	}
	return nil
}
