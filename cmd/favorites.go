package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/marquee/movies"
)

// favoritesCmd groups the favorites subcommands
var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "Manage favorite movies",
	Long: `Manage the local set of favorite movies, identified by IMDb ID
(for example tt0372784). Favorites are kept in a local database unless
--no-persist is given.`,
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorite IDs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(cmd.OutOrStdout(), movies.NewConsoleFormatter().FormatFavoriteIDs(favoriteStore.IDs()))
		return nil
	},
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add ID...",
	Short: "Add movies to favorites",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			favoriteStore.Add(id)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s added\n", movies.FavoriteMark, id)
		}
		return nil
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:     "remove ID...",
	Aliases: []string{"rm"},
	Short:   "Remove movies from favorites",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			favoriteStore.Remove(id)
			fmt.Fprintf(cmd.OutOrStdout(), "%s removed\n", id)
		}
		return nil
	},
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle ID...",
	Short: "Toggle movies in favorites",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			if favoriteStore.Toggle(id) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s added\n", movies.FavoriteMark, id)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s removed\n", id)
			}
		}
		return nil
	},
}

var favoritesCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of favorites",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), favoriteStore.Count())
		return nil
	},
}

var favoritesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all favorites",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n := favoriteStore.Count()
		favoriteStore.Clear()
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d favorites\n", n)
		return nil
	},
}

func init() {
	favoritesCmd.AddCommand(favoritesListCmd)
	favoritesCmd.AddCommand(favoritesAddCmd)
	favoritesCmd.AddCommand(favoritesRemoveCmd)
	favoritesCmd.AddCommand(favoritesToggleCmd)
	favoritesCmd.AddCommand(favoritesCountCmd)
	favoritesCmd.AddCommand(favoritesClearCmd)
}
