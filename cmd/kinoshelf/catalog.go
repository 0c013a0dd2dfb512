package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/varoOP/kinoshelf/internal/app"
	"github.com/varoOP/kinoshelf/internal/domain"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse the catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the catalog snapshot of the last sync",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			movies, err := a.Catalog(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE")
			for _, m := range movies {
				fmt.Fprintf(w, "%d\t%s\n", m.ID, m.Title)
			}
			return w.Flush()
		})
	},
}

var catalogDetailCmd = &cobra.Command{
	Use:   "detail <id>",
	Short: "Fetch and print the detail of one movie",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		return withApp(func(a *app.App) error {
			detail, offline, err := a.Detail(cmd.Context(), id)
			if err != nil {
				return err
			}

			favorite, err := a.IsFavorite(cmd.Context(), id)
			if err != nil {
				return err
			}

			printDetail(detail, favorite)
			if offline {
				fmt.Println("(catalog unavailable, showing stored favorite)")
			}
			return nil
		})
	},
}

func printDetail(d *domain.MovieDetail, favorite bool) {
	fmt.Printf("%s (%d)\n", d.Title, d.Year)
	fmt.Printf("ID:       %d\n", d.ID)
	fmt.Printf("Rating:   %.1f\n", d.Rating)
	fmt.Printf("Genres:   %s\n", strings.Join(d.Genres, ", "))
	fmt.Printf("Poster:   %s\n", d.PosterURL)
	fmt.Printf("Favorite: %t\n", favorite)
	if d.Description != "" {
		fmt.Printf("\n%s\n", d.Description)
	}
}

func init() {
	catalogCmd.AddCommand(catalogListCmd, catalogDetailCmd)
	rootCmd.AddCommand(catalogCmd)
}
