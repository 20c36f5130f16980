package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/menta2k/snipper"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "snipper %s\n", snipper.GetVersion())
		fmt.Fprintf(cmd.OutOrStdout(), "  Go: %s\n", runtime.Version())
	},
}
