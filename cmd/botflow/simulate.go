package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/enderxdxd/botflow/internal/cli"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <flow-file>",
	Short: "Run a flow interactively in the terminal",
	Long:  `Loads a single flow definition and drives it from stdin, printing every action the engine emits. Useful for trying a flow before publishing it.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.Simulate(args[0]); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}
