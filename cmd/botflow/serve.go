package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/enderxdxd/botflow/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the inbound-message webhook",
	Long:  `Loads the flow definitions, wires the session store (memory or Redis) and serves the HTTP API the messaging bridge calls for every inbound message.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := cli.LoadConfig(configPath)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if flowsDir, _ := cmd.Flags().GetString("flows"); cmd.Flags().Changed("flows") {
			cfg.FlowsDir = flowsDir
		}
		if listen, _ := cmd.Flags().GetString("listen"); cmd.Flags().Changed("listen") {
			cfg.Listen = listen
		}

		if err := cli.Serve(cfg); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "Path to the YAML config file")
	serveCmd.Flags().String("flows", "./flows", "Directory containing exported flow definitions")
	serveCmd.Flags().String("listen", ":8080", "Listen address")
}
