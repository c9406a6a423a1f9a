package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "botflow",
	Short: "botflow runs the conversational bot-flow engine",
	Long:  `botflow executes editor-authored conversation flows: it serves the inbound-message webhook, validates flow exports and simulates flows locally.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
