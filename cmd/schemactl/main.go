package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/schema-cache/internal/client"
	"github.com/user/schema-cache/pkg/config"
)

var (
	cfg *config.Config
	log = zap.NewNop()

	verbose        bool
	apiBaseURLFlag string
	apiKeyFlag     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "schemactl",
	Short:        "Operate the schema cache: migrations, tenants, drift and schemas",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			log, err = zap.NewDevelopment()
		} else {
			log, err = zap.NewProduction()
		}
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}

		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if apiBaseURLFlag != "" {
			cfg.APIBaseURL = apiBaseURLFlag
		}
		if apiKeyFlag != "" {
			cfg.APIKey = apiKeyFlag
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "development logging")
	rootCmd.PersistentFlags().StringVar(&apiBaseURLFlag, "api-url", "", "functions API base URL (overrides API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "organization API key (overrides API_KEY)")

	rootCmd.AddCommand(migrateCmd, orgCmd, driftCmd, schemaCmd, probeCmd)
}

func apiClient() *client.Client {
	return client.New(cfg.APIBaseURL, cfg.APIKey, cfg.ProbeTimeout())
}
