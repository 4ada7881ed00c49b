package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/gridpipe/internal/transport"
)

func newDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List attached grid controllers",
		RunE: func(cmd *cobra.Command, args []string) error {
			devs, err := transport.Discover()
			if err != nil {
				return err
			}
			if len(devs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no grid controllers found")
				return nil
			}
			for _, d := range devs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (vendor %#04x, product %#04x)\n",
					d.Name, d.VendorID, d.ProductID)
			}
			return nil
		},
	}
}
