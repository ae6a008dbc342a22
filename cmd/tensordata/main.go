// Package main provides the tensordata CLI for inspecting, rendering and
// converting tensor files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/born-ml/tensordata/internal/loader"
	"github.com/born-ml/tensordata/internal/tensor"
)

const version = "v0.1.0-dev"

var (
	// Global flags
	verbose bool
	useMmap bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "tensordata",
	Short: "Inspect, render and convert typed tensor files",
	Long: `tensordata reads SafeTensors files and YAML tensor manifests.

It prints array summaries in the same bracketed form the library renders,
lists tensor headers, and converts files between element types.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		tensor.SetLogger(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tensordata %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&useMmap, "mmap", false, "Memory-map input files instead of reading them")

	rootCmd.AddCommand(versionCmd, renderCmd, inspectCmd, manifestCmd, convertCmd)
}

// tensorReader is implemented by both SafeTensors readers.
type tensorReader interface {
	Metadata() map[string]string
	TensorNames() []string
	TensorInfo(name string) (*loader.SafeTensorInfo, error)
	LoadTensor(name string) (*tensor.Tensor, error)
	LoadTensorAs(name string, dtype tensor.DataType) (*tensor.Tensor, error)
	Close() error
}

func openReader(path string) (tensorReader, error) {
	if useMmap {
		logger.Debug("mapping input", zap.String("path", path))
		return loader.NewMmapReader(path)
	}
	return loader.NewSafeTensorsReader(path)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
