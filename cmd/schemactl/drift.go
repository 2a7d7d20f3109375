package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var driftCmd = &cobra.Command{
	Use:   "drift",
	Short: "Inspect content drift",
}

var (
	driftOrg   string
	driftLimit int
	driftJSON  bool
)

var driftListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pages whose content changed since their schema was published",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := apiClient().ListDrift(cmd.Context(), driftOrg, driftLimit)
		if err != nil {
			return fmt.Errorf("listing drift: %w", err)
		}

		if driftJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}

		if resp.DriftCount == 0 {
			fmt.Println("No drift detected")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PAGE\tPREVIOUS\tCURRENT\tDETECTED")
		for _, p := range resp.Pages {
			previous := "-"
			if p.PreviousHash != nil {
				previous = *p.PreviousHash
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.PageURL, previous, p.CurrentHash, p.FirstDetected.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

func init() {
	driftListCmd.Flags().StringVar(&driftOrg, "org", "", "organization id")
	driftListCmd.Flags().IntVar(&driftLimit, "limit", 0, "maximum number of pages (0 for all)")
	driftListCmd.Flags().BoolVar(&driftJSON, "json", false, "print the raw API response")
	_ = driftListCmd.MarkFlagRequired("org")

	driftCmd.AddCommand(driftListCmd)
}
