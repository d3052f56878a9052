package main

import (
	"flag"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:   "accctl",
	Short: "accctl drives the Cring Electronics video acceleratorinator",
	Long: `Sends bitmap images to a USB-attached acceleratorinator for processing and
retrieves the results. Also bundles offline tools for the accessory's RLE
wire codec.`,
	SilenceUsage: true,
}

var verboseLog bool

func main() {
	cobra.OnInitialize(func() {
		if verboseLog {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	})

	sendCmd.Flags().IntVarP(&sendChunkSize, "chunk-size", "c", 0, "Override the per-frame chunk size (default: the accessory's 64 byte max packet size)")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolVarP(&verboseLog, "verbose", "v", false, "Enable verbose debug logging")
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(probeCmd)
	rleCmd.AddCommand(rleEncodeCmd)
	rleCmd.AddCommand(rleDecodeCmd)
	rootCmd.AddCommand(rleCmd)
	rootCmd.Execute()
}

func init() {
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
}
