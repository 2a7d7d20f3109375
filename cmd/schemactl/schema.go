package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/schema-cache/internal/client"
	"github.com/user/schema-cache/internal/entity"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Publish and read page schemas",
}

var (
	schemaOrg         string
	schemaURL         string
	schemaFile        string
	schemaContentHash string
	schemaSourceMode  string
)

var schemaPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Publish a JSON-LD file as the schema of a page",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := os.ReadFile(schemaFile)
		if err != nil {
			return fmt.Errorf("reading schema file: %w", err)
		}
		if !json.Valid(doc) {
			return fmt.Errorf("%s is not valid JSON", schemaFile)
		}

		version, err := apiClient().UpdateSchema(cmd.Context(), client.PushSchemaInput{
			OrganizationID: schemaOrg,
			PageURL:        schemaURL,
			SchemaJSON:     doc,
			ContentHash:    schemaContentHash,
			SourceMode:     entity.SourceMode(schemaSourceMode),
		})
		if err != nil {
			return fmt.Errorf("publishing schema: %w", err)
		}
		log.Info("schema published", zap.String("page_url", schemaURL), zap.Int("cache_version", version))
		fmt.Printf("Published %s (cache version %d)\n", schemaURL, version)
		return nil
	},
}

var schemaGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the schema served for a page",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, etag, err := apiClient().GetSchema(cmd.Context(), schemaOrg, schemaURL)
		if err != nil {
			return fmt.Errorf("fetching schema: %w", err)
		}
		if etag != "" {
			fmt.Fprintf(os.Stderr, "ETag: %s\n", etag)
		}
		fmt.Println(string(doc))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{schemaPushCmd, schemaGetCmd} {
		c.Flags().StringVar(&schemaOrg, "org", "", "organization id")
		c.Flags().StringVar(&schemaURL, "url", "", "page URL")
		_ = c.MarkFlagRequired("org")
		_ = c.MarkFlagRequired("url")
	}
	schemaPushCmd.Flags().StringVarP(&schemaFile, "file", "f", "", "JSON-LD document to publish")
	schemaPushCmd.Flags().StringVar(&schemaContentHash, "content-hash", "", "content hash the schema was generated from")
	schemaPushCmd.Flags().StringVar(&schemaSourceMode, "source-mode", "", "generation, projection or external (default external)")
	_ = schemaPushCmd.MarkFlagRequired("file")

	schemaCmd.AddCommand(schemaPushCmd, schemaGetCmd)
}
