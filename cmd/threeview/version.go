package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/threeview"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of threeview",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("threeview version %s\n", strings.TrimSpace(threeview.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
