package movies

import (
	"fmt"
	"strings"
)

// FavoriteMark is printed next to favorited movies
const FavoriteMark = "★"

// FormatOptions controls console output
type FormatOptions struct {
	ShowIDs bool
	// IsFavorite marks favorites when set
	IsFavorite func(imdbID string) bool
}

// ConsoleFormatter provides console output formatting for movies
type ConsoleFormatter struct{}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{}
}

// FormatMovieList formats a list of movies for console display
func (f *ConsoleFormatter) FormatMovieList(movies []MovieItem, options FormatOptions) string {
	if len(movies) == 0 {
		return "No movies found"
	}

	var sb strings.Builder

	sb.WriteString("\nMovie")
	if len(movies) != 1 {
		sb.WriteString("s")
	}
	fmt.Fprintf(&sb, " (%d):\n\n", len(movies))

	for i, movie := range movies {
		isLast := i == len(movies)-1
		f.formatMovie(&sb, movie, isLast, options)
	}

	sb.WriteString("\n")
	return sb.String()
}

// FormatPageFooter describes where resp sits in the listing
func (f *ConsoleFormatter) FormatPageFooter(resp *MoviesResponse) string {
	if resp == nil {
		return ""
	}
	footer := fmt.Sprintf("Page %d of %d (%d total)", resp.Page, resp.TotalPages, resp.Total)
	if next, err := resp.NextPage(); err == nil {
		footer += fmt.Sprintf(", next: --page %d", next)
	}
	return footer
}

// FormatFavoriteIDs formats the stored favorite IDs
func (f *ConsoleFormatter) FormatFavoriteIDs(ids []string) string {
	if len(ids) == 0 {
		return "No favorites yet"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\nFavorites (%d):\n\n", len(ids))
	for i, id := range ids {
		prefix := "├"
		if i == len(ids)-1 {
			prefix = "╰"
		}
		fmt.Fprintf(&sb, "%s── %s %s\n", prefix, FavoriteMark, id)
	}
	sb.WriteString("\n")
	return sb.String()
}

func (f *ConsoleFormatter) formatMovie(sb *strings.Builder, movie MovieItem, isLast bool, options FormatOptions) {
	prefix := "├"
	if isLast {
		prefix = "╰"
	}

	mark := ""
	if options.IsFavorite != nil && options.IsFavorite(movie.ImdbID) {
		mark = " " + FavoriteMark
	}

	fmt.Fprintf(sb, "%s── %s%s\n", prefix, movie, mark)

	if options.ShowIDs {
		indent := "│   "
		if isLast {
			indent = "    "
		}
		fmt.Fprintf(sb, "%s%s\n", indent, movie.ImdbID)
	}
}
