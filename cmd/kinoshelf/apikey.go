package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/varoOP/kinoshelf/internal/app"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage the catalog API key",
}

var apikeySetCmd = &cobra.Command{
	Use:   "set <key>",
	Short: "Store the API key (an empty key removes it)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			if err := a.SetAPIKey(args[0]); err != nil {
				return err
			}
			if args[0] == "" {
				fmt.Println("API key removed from the credentials file")
				if a.HasAPIKey() {
					fmt.Println("A key configured through api_key is still in use")
				}
				return nil
			}
			fmt.Printf("API key saved to %s\n", a.Paths().CredentialsPath)
			return nil
		})
	},
}

var apikeyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether an API key is configured",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			if source := a.APIKeySource(); source != app.KeySourceNone {
				fmt.Printf("API key is set (from %s)\n", source)
				return nil
			}
			fmt.Println("API key is not set; run 'kinoshelf apikey set <key>'")
			return nil
		})
	},
}

func init() {
	apikeyCmd.AddCommand(apikeySetCmd, apikeyStatusCmd)
	rootCmd.AddCommand(apikeyCmd)
}
