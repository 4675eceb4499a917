package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/marquee/filter"
	"github.com/s0up4200/marquee/movies"
)

var (
	listPage   int
	listAll    bool
	listIDs    bool
	listFilter string
	listPreset string
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List movies page by page",
	Long: `List one page of the movie catalog, or every page with --all.
Favorites are marked with ★.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVar(&listPage, "page", 1, "page to show")
	listCmd.Flags().BoolVar(&listAll, "all", false, "load every page")
	listCmd.Flags().BoolVar(&listIDs, "ids", false, "show IMDb IDs")
	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "", "filter expression")
	listCmd.Flags().StringVarP(&listPreset, "preset", "p", "", "use a preset filter from config")
}

func runList(cmd *cobra.Command, args []string) error {
	f, err := resolveFilter(listFilter, listPreset)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		items []movies.MovieItem
		last  *movies.MoviesResponse
	)

	if listAll {
		items, last, err = loadAllMovies(ctx)
	} else {
		last, err = movieService.ListMovies(ctx, listPage)
		if last != nil {
			items = last.Data
		}
	}
	if err != nil {
		return err
	}

	printMovies(cmd, filter.Apply(f, items), last, printOptions{footer: !listAll, showIDs: listIDs})
	return nil
}

// loadAllMovies reads the first page, warms the rest concurrently and then
// walks them in order from the cache
func loadAllMovies(ctx context.Context) ([]movies.MovieItem, *movies.MoviesResponse, error) {
	first, err := movieService.ListMovies(ctx, 1)
	if err != nil {
		return nil, nil, err
	}

	if first.TotalPages > 1 {
		pages := make([]int, 0, first.TotalPages-1)
		for p := 2; p <= first.TotalPages; p++ {
			pages = append(pages, p)
		}
		// The pager retries anything that failed here
		if err := movieService.Prefetch(ctx, pages); err != nil {
			logger.Debug().Err(err).Msg("Prefetch incomplete")
		}
	}

	pager := movies.NewListPager(movieService)
	items, err := pager.All(ctx)
	return items, pager.Last(), err
}

// printOptions carries the calling command's display flags
type printOptions struct {
	footer  bool
	showIDs bool
}

func printMovies(cmd *cobra.Command, items []movies.MovieItem, last *movies.MoviesResponse, opts printOptions) {
	formatter := movies.NewConsoleFormatter()
	out := cmd.OutOrStdout()

	fmt.Fprint(out, formatter.FormatMovieList(items, movies.FormatOptions{
		ShowIDs:    opts.showIDs,
		IsFavorite: favoriteStore.IsFavorite,
	}))
	if opts.footer && last != nil {
		fmt.Fprintln(out, formatter.FormatPageFooter(last))
	}
}
