package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/varoOP/kinoshelf/internal/app"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch the full top films catalog",
	Long: `Sync fetches every page of the top films listing and stores the
aggregate as a local catalog snapshot. Pages that fail are reported and
skipped; a failure of the first page fails the whole sync.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		posters, _ := cmd.Flags().GetBool("posters")
		asJSON, _ := cmd.Flags().GetBool("json")

		return withApp(func(a *app.App) error {
			report, err := a.Sync(cmd.Context(), posters)
			if err != nil {
				return err
			}

			res := report.Result
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res.Movies)
			}

			fmt.Printf("Fetched %d movies from %d of %d pages\n", len(res.Movies), len(res.Fetched), res.TotalPages)
			for _, pe := range res.Failed {
				fmt.Printf("  page %d failed: %v\n", pe.Page, pe.Err)
			}
			if report.Posters != nil {
				fmt.Printf("Posters: %d already cached, %d fetched, %d failed\n",
					report.Posters.Cached, report.Posters.Fetched, report.Posters.Failed)
			}
			fmt.Printf("Snapshot: %s\n", report.Snapshot)
			return nil
		})
	},
}

func init() {
	syncCmd.Flags().Bool("posters", false, "prefetch every poster into the image cache")
	syncCmd.Flags().Bool("json", false, "print the aggregated catalog as JSON")
	syncCmd.Flags().Int("poster-concurrency", 8, "poster prefetch workers")
	viper.BindPFlag("poster_concurrency", syncCmd.Flags().Lookup("poster-concurrency"))
	rootCmd.AddCommand(syncCmd)
}
