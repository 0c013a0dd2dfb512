package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/varoOP/kinoshelf/internal/app"
)

var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "Manage local favorites",
}

func favoriteIDCommand(use, short string, run func(cmd *cobra.Command, a *app.App, id int) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(func(a *app.App) error {
				return run(cmd, a, id)
			})
		},
	}
}

var favoritesAddCmd = favoriteIDCommand("add", "Fetch a movie and add it to favorites", func(cmd *cobra.Command, a *app.App, id int) error {
	added, detail, err := a.AddFavorite(cmd.Context(), id)
	if err != nil {
		return err
	}
	if !added {
		fmt.Printf("%q is already a favorite\n", detail.Title)
		return nil
	}
	fmt.Printf("Added %q to favorites\n", detail.Title)
	return nil
})

var favoritesRemoveCmd = favoriteIDCommand("remove", "Remove a movie from favorites", func(cmd *cobra.Command, a *app.App, id int) error {
	n, err := a.RemoveFavorite(cmd.Context(), id)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Printf("%d is not a favorite\n", id)
		return nil
	}
	fmt.Printf("Removed %d from favorites\n", id)
	return nil
})

var favoritesCheckCmd = favoriteIDCommand("check", "Report whether a movie is a favorite", func(cmd *cobra.Command, a *app.App, id int) error {
	ok, err := a.IsFavorite(cmd.Context(), id)
	if err != nil {
		return err
	}
	fmt.Println(ok)
	return nil
})

var favoritesShowCmd = favoriteIDCommand("show", "Print a stored favorite", func(cmd *cobra.Command, a *app.App, id int) error {
	fav, err := a.Favorite(cmd.Context(), id)
	if err != nil {
		return err
	}
	printDetail(fav.Detail(), true)
	fmt.Printf("\nAdded: %s\n", fav.CreatedAt.Local().Format("2006-01-02 15:04"))
	return nil
})

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorites sorted by title",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			favs, err := a.Favorites(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tYEAR\tRATING")
			for _, f := range favs {
				fmt.Fprintf(w, "%d\t%s\t%d\t%.1f\n", f.ID, f.Title, f.Year, f.Rating)
			}
			return w.Flush()
		})
	},
}

var favoritesExportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Export favorites as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		if len(args) == 1 {
			path = args[0]
		}

		return withApp(func(a *app.App) error {
			written, n, err := a.ExportFavorites(cmd.Context(), path)
			if err != nil {
				return err
			}
			fmt.Printf("Exported %d favorites to %s\n", n, written)
			return nil
		})
	},
}

var favoritesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every favorite",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			n, err := a.ClearFavorites(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d favorites\n", n)
			return nil
		})
	},
}

func init() {
	favoritesCmd.AddCommand(
		favoritesAddCmd,
		favoritesRemoveCmd,
		favoritesCheckCmd,
		favoritesShowCmd,
		favoritesListCmd,
		favoritesExportCmd,
		favoritesClearCmd,
	)
	rootCmd.AddCommand(favoritesCmd)
}
