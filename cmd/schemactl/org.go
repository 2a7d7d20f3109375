package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/schema-cache/internal/adapter/postgres"
	"github.com/user/schema-cache/internal/usecase"
)

var orgCmd = &cobra.Command{
	Use:   "org",
	Short: "Manage organizations",
}

var (
	orgName     string
	orgDomain   string
	orgBaseURL  string
	orgSettings string
)

var orgCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register an organization, or refresh the one owning --domain",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, err := postgres.Connect(ctx, cfg.PostgresConnString())
		if err != nil {
			return err
		}
		defer pool.Close()

		onboarding := usecase.NewOnboarding(postgres.NewOrganizationRepo(pool))
		org, err := onboarding.Register(ctx, usecase.RegisterOrganizationInput{
			Name:     orgName,
			Domain:   orgDomain,
			BaseURL:  orgBaseURL,
			Settings: json.RawMessage(orgSettings),
		})
		if err != nil {
			return fmt.Errorf("registering organization: %w", err)
		}
		log.Info("organization registered", zap.String("organization_id", org.ID), zap.String("domain", org.Domain))

		fmt.Printf("Organization: %s\n", org.ID)
		fmt.Printf("Domain:       %s\n", org.Domain)
		fmt.Printf("Base URL:     %s\n", org.BaseURL)
		fmt.Printf("API key:      %s\n", org.APIKey)
		return nil
	},
}

func init() {
	orgCreateCmd.Flags().StringVar(&orgName, "name", "", "display name")
	orgCreateCmd.Flags().StringVar(&orgDomain, "domain", "", "site domain, unique per organization")
	orgCreateCmd.Flags().StringVar(&orgBaseURL, "base-url", "", "site base URL (default https://<domain>)")
	orgCreateCmd.Flags().StringVar(&orgSettings, "settings", "", "settings as a JSON object")
	_ = orgCreateCmd.MarkFlagRequired("domain")

	orgCmd.AddCommand(orgCreateCmd)
}
