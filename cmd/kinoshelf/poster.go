package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/varoOP/kinoshelf/internal/app"
)

var posterCmd = &cobra.Command{
	Use:   "poster",
	Short: "Manage the poster image cache",
}

var posterGetCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Fetch a poster through the image cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")

		return withApp(func(a *app.App) error {
			data, hit, err := a.Poster(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			source := "network"
			if hit {
				source = "cache"
			}

			if out != "" {
				if err := os.WriteFile(out, data, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", out, err)
				}
			}
			fmt.Printf("%d bytes from %s\n", len(data), source)
			return nil
		})
	},
}

var posterStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print image cache usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			s, err := a.PosterStats()
			if err != nil {
				return err
			}
			fmt.Printf("%d posters, %d bytes in %s\n", s.Entries, s.Bytes, a.Paths().ImageCacheDir)
			return nil
		})
	},
}

var posterClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached poster",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			if err := a.ClearPosters(); err != nil {
				return err
			}
			fmt.Println("Image cache cleared")
			return nil
		})
	},
}

func init() {
	posterGetCmd.Flags().StringP("output", "o", "", "write the poster to this file")
	posterCmd.AddCommand(posterGetCmd, posterStatsCmd, posterClearCmd)
	rootCmd.AddCommand(posterCmd)
}
