package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tinyfs",
	Short: "manage tinyfs disk images",
}

func init() {
	rootCmd.AddCommand(mkfsCmd)
	rootCmd.AddCommand(infoCmd)
}
