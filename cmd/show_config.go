package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suitepulse/suitepulse/internal/config"
)

var showConfigCmd = &cobra.Command{
	Use:   "show-config",
	Short: "Display current pipeline configuration",
	Long:  `Shows the configuration resolved from defaults, the optional YAML config file, environment variables and .env.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		fmt.Println(cfg.String())

		return nil
	},
}

func init() {
	rootCmd.AddCommand(showConfigCmd)
}
