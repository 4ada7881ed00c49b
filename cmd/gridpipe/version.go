package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gridpipe version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gridpipe %s\n", version)
		},
	}
}

// appVersion returns the version as the three 7-bit bytes announced in
// the device handshake.
func appVersion() (uint8, uint8, uint8) {
	parts := strings.SplitN(strings.TrimPrefix(version, "v"), ".", 3)
	out := [3]uint8{}
	for i := 0; i < len(parts) && i < 3; i++ {
		n, err := strconv.Atoi(strings.SplitN(parts[i], "-", 2)[0])
		if err == nil {
			out[i] = uint8(n) & 0x7F
		}
	}
	return out[0], out[1], out[2]
}
