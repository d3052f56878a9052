package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cring-electronics/acceleratorinator/pkg/accessory"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check for a connected accelerator",
	Long:  "Opens the acceleratorinator and reports whether it is present and claimable.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, _, err := dialAccessory()
		if err != nil {
			return err
		}
		defer conn.Close()

		slog.Info("Accelerator present",
			"vid", fmt.Sprintf("%04x", accessory.VendorID),
			"pid", fmt.Sprintf("%04x", accessory.ProductID))
		return nil
	},
}
