package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/ulikunitz/xz"

	"github.com/cring-electronics/acceleratorinator/pkg/accessory"
)

var sendChunkSize int

var sendCmd = &cobra.Command{
	Use:   "send [input] [output]",
	Short: "Process a bitmap on the accelerator",
	Long: `Sends a BMP image to a connected acceleratorinator and writes the processed
image back to disk. Inputs ending in .xz are decompressed first. When no
output path is given, the result lands under the XDG data directory.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		image, err := readBitmap(args[0])
		if err != nil {
			return err
		}

		outPath := ""
		if len(args) == 2 {
			outPath = args[1]
		} else {
			outPath = defaultOutputPath(args[0])
			if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
				return fmt.Errorf("could not create output directory: %w", err)
			}
		}

		var opts []accessory.Option
		if sendChunkSize != 0 {
			opts = append(opts, accessory.WithChunkSize(sendChunkSize))
		}
		conn, acc, err := dialAccessory(opts...)
		if err != nil {
			return err
		}
		defer conn.Close()

		slog.Info("Sending image", "bytes", len(image))
		start := time.Now()
		processed, err := acc.Process(image)
		if err != nil {
			return fmt.Errorf("processing failed: %w", err)
		}

		if err := os.WriteFile(outPath, processed, 0600); err != nil {
			return fmt.Errorf("could not write result: %w", err)
		}
		slog.Info("Done!", "output", outPath, "seconds", time.Since(start).Seconds())

		return nil
	},
}

func readBitmap(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open input: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		if r, err = xz.NewReader(f); err != nil {
			return nil, fmt.Errorf("could not read xz input: %w", err)
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read input: %w", err)
	}
	return data, nil
}

func defaultOutputPath(input string) string {
	name := strings.TrimSuffix(filepath.Base(input), ".xz")
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(xdg.DataHome, "accctl", name+"-processed.bmp")
}
