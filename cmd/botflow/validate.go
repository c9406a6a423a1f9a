package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/enderxdxd/botflow/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Compile every flow definition in a directory",
	Long:  `Loads every YAML or JSON flow definition from the directory and compiles it, reporting structural errors such as dangling edges or unlabeled condition branches.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := "./flows"
		if len(args) == 1 {
			dir = args[0]
		}
		if err := cli.Validate(dir); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
