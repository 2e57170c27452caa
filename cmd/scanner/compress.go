package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/marketdata"
)

func compressCmd() *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "compress SNAPSHOT.json...",
		Short: "Compress market data snapshots with zstd",
		Long: `Validate JSON market data snapshots and write a zstd compressed copy
next to each one (SNAPSHOT.json.zst). Snapshots ending in .zst are read
transparently by the file source.

Examples:
  # Compress a snapshot and keep the original
  spy-fly compress testdata/snapshot.json

  # Compress and delete the originals
  spy-fly compress --remove recordings/*.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return compressSnapshots(args, remove)
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "delete the original after a successful compression")

	return cmd
}

func compressSnapshots(paths []string, remove bool) error {
	var compressed, skipped, failed int

	for _, path := range paths {
		if strings.HasSuffix(path, ".zst") {
			logger.Debug("skipping, already compressed", zap.String("file", path))
			skipped++
			continue
		}

		zstPath := path + ".zst"
		if _, err := os.Stat(zstPath); err == nil {
			logger.Debug("skipping, compressed copy exists", zap.String("file", path))
			skipped++
			continue
		}

		logger.Info("compressing", zap.String("file", path))

		if err := compressFile(path, zstPath); err != nil {
			logger.Error("compression failed", zap.String("file", path), zap.Error(err))
			_ = os.Remove(zstPath)
			failed++
			continue
		}

		if remove {
			if err := os.Remove(path); err != nil {
				logger.Warn("failed to delete original", zap.String("file", path), zap.Error(err))
			}
		}

		compressed++
	}

	logger.Info("compression complete",
		zap.Int("compressed", compressed),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)

	if failed > 0 {
		return fmt.Errorf("%d snapshots failed to compress", failed)
	}

	return nil
}

func compressFile(jsonPath, zstPath string) error {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	// Refuse to compress something the file source could not load.
	var snap marketdata.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parsing snapshot: %w", err)
	}

	outFile, err := os.Create(zstPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() { _ = outFile.Close() }()

	enc, err := zstd.NewWriter(outFile)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return fmt.Errorf("writing compressed data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flushing compressed data: %w", err)
	}

	return outFile.Sync()
}
