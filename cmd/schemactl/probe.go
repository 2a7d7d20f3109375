package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/schema-cache/internal/adapter/chromedp_fingerprint"
	"github.com/user/schema-cache/internal/usecase"
)

var (
	probeOrg string
	probeURL string
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Fingerprint a live page in headless Chrome and report drift",
	RunE: func(cmd *cobra.Command, args []string) error {
		prober := usecase.NewProber(chromedp_fingerprint.NewFingerprinter(cfg.ProbeTimeout()), apiClient())

		res, err := prober.Probe(cmd.Context(), probeOrg, probeURL)
		if err != nil {
			return fmt.Errorf("probing %s: %w", probeURL, err)
		}
		log.Info("probe complete",
			zap.String("page_url", res.PageURL),
			zap.String("content_hash", res.Signals.ContentHash),
			zap.Int("http_status", res.Signals.HTTPStatusCode),
			zap.Bool("drift_detected", res.DriftDetected),
		)

		fmt.Printf("Page:          %s\n", res.PageURL)
		fmt.Printf("Title:         %s\n", res.Signals.Title)
		fmt.Printf("Words:         %d\n", res.Signals.WordCount)
		fmt.Printf("Content hash:  %s\n", res.Signals.ContentHash)
		fmt.Printf("Drift:         %t\n", res.DriftDetected)
		return nil
	},
}

func init() {
	probeCmd.Flags().StringVar(&probeOrg, "org", "", "organization id")
	probeCmd.Flags().StringVar(&probeURL, "url", "", "page URL to fingerprint")
	_ = probeCmd.MarkFlagRequired("org")
	_ = probeCmd.MarkFlagRequired("url")
}
