package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/docstash/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config.yaml with all defaults",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := os.Stat("config.yaml"); err == nil {
			return eris.New("config.yaml already exists")
		}

		v := viper.New()
		config.SetDefaults(v)

		var defaults config.Config
		if err := v.Unmarshal(&defaults); err != nil {
			return eris.Wrap(err, "unmarshal defaults")
		}

		data, err := yaml.Marshal(defaults)
		if err != nil {
			return eris.Wrap(err, "marshal config")
		}

		if err := os.WriteFile("config.yaml", data, 0o644); err != nil {
			return eris.Wrap(err, "write config.yaml")
		}

		fmt.Println("Wrote config.yaml")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
