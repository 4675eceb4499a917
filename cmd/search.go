package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/marquee/filter"
	"github.com/s0up4200/marquee/movies"
)

var (
	searchPage   int
	searchAll    bool
	searchIDs    bool
	searchFilter string
	searchPreset string
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search TITLE",
	Short: "Search movies by title",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchPage, "page", 0, "page of results to show")
	searchCmd.Flags().BoolVar(&searchAll, "all", false, "load every page of results")
	searchCmd.Flags().BoolVar(&searchIDs, "ids", false, "show IMDb IDs")
	searchCmd.Flags().StringVarP(&searchFilter, "filter", "f", "", "filter expression")
	searchCmd.Flags().StringVarP(&searchPreset, "preset", "p", "", "use a preset filter from config")
}

func runSearch(cmd *cobra.Command, args []string) error {
	title := strings.Join(args, " ")

	f, err := resolveFilter(searchFilter, searchPreset)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger.Debug().Str("title", title).Msg("Searching movies")

	if searchAll {
		pager := movies.NewSearchPager(movieService, title)
		items, err := pager.All(ctx)
		if err != nil {
			return err
		}
		printMovies(cmd, filter.Apply(f, items), pager.Last(), printOptions{showIDs: searchIDs})
		return nil
	}

	var opts []movies.SearchOption
	if cmd.Flags().Changed("page") {
		opts = append(opts, movies.WithPage(searchPage))
	}

	resp, err := movieService.SearchMovies(ctx, title, opts...)
	if err != nil {
		return err
	}

	printMovies(cmd, filter.Apply(f, resp.Data), resp, printOptions{footer: true, showIDs: searchIDs})
	return nil
}
