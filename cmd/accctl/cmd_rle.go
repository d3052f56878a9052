package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cring-electronics/acceleratorinator/pkg/rle"
)

var rleCmd = &cobra.Command{
	Use:   "rle",
	Short: "Offline tools for the accessory's RLE codec",
}

var rleEncodeCmd = &cobra.Command{
	Use:   "encode [input] [output]",
	Short: "RLE-encode a file",
	Long:  "Encodes a file into the accessory's RLE wire format without involving a device.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("could not read input: %w", err)
		}
		encoded := rle.Encode(data)
		if err := os.WriteFile(args[1], encoded, 0600); err != nil {
			return fmt.Errorf("could not write output: %w", err)
		}
		slog.Info("Done!", "raw", len(data), "encoded", len(encoded))
		return nil
	},
}

var rleDecodeCmd = &cobra.Command{
	Use:   "decode [input] [output]",
	Short: "Decode an RLE-encoded file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("could not read input: %w", err)
		}
		decoded, err := rle.Decode(data)
		if err != nil {
			return fmt.Errorf("could not decode input: %w", err)
		}
		if err := os.WriteFile(args[1], decoded, 0600); err != nil {
			return fmt.Errorf("could not write output: %w", err)
		}
		slog.Info("Done!", "encoded", len(data), "raw", len(decoded))
		return nil
	},
}
