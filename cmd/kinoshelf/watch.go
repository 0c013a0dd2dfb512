package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/varoOP/kinoshelf/internal/app"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the catalog snapshot fresh on a schedule",
	Long: `Watch runs a sync immediately and then on the configured cron schedule
(sync_schedule, default every six hours) until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		posters, _ := cmd.Flags().GetBool("posters")

		return withApp(func(a *app.App) error {
			return a.Watch(cmd.Context(), posters)
		})
	},
}

func init() {
	watchCmd.Flags().Bool("posters", false, "prefetch posters after every sync")
	watchCmd.Flags().String("schedule", "", "cron schedule, e.g. \"0 */6 * * *\" or \"@every 1h\"")
	viper.BindPFlag("sync_schedule", watchCmd.Flags().Lookup("schedule"))
	rootCmd.AddCommand(watchCmd)
}
