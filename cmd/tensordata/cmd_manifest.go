package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/born-ml/tensordata/internal/loader"
	"github.com/born-ml/tensordata/internal/manifest"
	"github.com/born-ml/tensordata/internal/tensor"
)

var manifestOutput string

var manifestCmd = &cobra.Command{
	Use:   "manifest <arrays.yaml>",
	Short: "Build tensors from a YAML manifest",
	Long: `Manifest builds every array listed in a YAML manifest and prints it.

With --output the arrays are written to a SafeTensors file instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runManifest,
}

func init() {
	manifestCmd.Flags().StringVarP(&manifestOutput, "output", "o", "", "Write a SafeTensors file instead of printing")
}

func runManifest(cmd *cobra.Command, args []string) error {
	entries, err := manifest.LoadFile(args[0])
	if err != nil {
		return err
	}

	if manifestOutput == "" {
		out := cmd.OutOrStdout()
		for _, e := range entries {
			fmt.Fprintf(out, "%s: %s\n", e.Name, e.Tensor.StringRepr())
		}
		return nil
	}

	tensors := make(map[string]*tensor.Tensor, len(entries))
	for _, e := range entries {
		tensors[e.Name] = e.Tensor
	}
	if err := loader.WriteSafeTensors(manifestOutput, tensors, map[string]string{"source": args[0]}); err != nil {
		return err
	}
	logger.Info("manifest written",
		zap.String("manifest", args[0]),
		zap.String("output", manifestOutput),
		zap.Int("tensors", len(tensors)))
	return nil
}
