package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configInitPath string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and scaffold configuration",
}

// -- config show --

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  "Prints the merged configuration after defaults, config file, and MINIGRID_* environment overrides.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return eris.Wrap(err, "config show: marshal")
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

// -- config init --

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the current effective settings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := os.Stat(configInitPath); err == nil {
			return eris.Errorf("config init: %s already exists", configInitPath)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return eris.Wrap(err, "config init: marshal")
		}
		if err := os.WriteFile(configInitPath, data, 0o644); err != nil {
			return eris.Wrap(err, "config init: write file")
		}

		fmt.Fprintf(os.Stderr, "Wrote %s\n", configInitPath)
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&configInitPath, "path", "config.yaml", "where to write the config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
