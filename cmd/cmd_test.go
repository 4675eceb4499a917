package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/marquee/api"
	"github.com/s0up4200/marquee/movies"
)

// runCLI executes the root command against a throwaway home directory
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T, apiURL string) {
	t.Helper()

	home := t.TempDir()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", home)
	t.Setenv("MARQUEE_API_URL", apiURL)
	t.Setenv("MARQUEE_LOGGING_LEVEL", "error")
	t.Setenv("MARQUEE_FAVORITES_PATH", filepath.Join(home, "favorites.db"))
}

func TestDisplayVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "1.2.3", want: "v1.2.3"},
		{in: "v1.2.3", want: "v1.2.3"},
		{in: "1.2", want: "v1.2.0"},
		{in: "dev", want: "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, displayVersion(tt.in))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := &api.Error{Message: api.MessageSessionExpired, Status: http.StatusUnauthorized}
	assert.Equal(t, api.MessageSessionExpired, errorMessage(err))
	assert.Equal(t, "plain", errorMessage(errors.New("plain")))
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "marquee ")
}

func TestFavoritesCommands(t *testing.T) {
	setupEnv(t, "http://127.0.0.1:1")

	_, err := runCLI(t, "fav", "add", "tt2", "tt1")
	require.NoError(t, err)

	out, err := runCLI(t, "favorites", "count")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = runCLI(t, "favorites", "toggle", "tt2")
	require.NoError(t, err)
	assert.Equal(t, "tt2 removed\n", out)

	out, err = runCLI(t, "favorites", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Favorites (1):")
	assert.Contains(t, out, "★ tt1")

	out, err = runCLI(t, "favorites", "clear")
	require.NoError(t, err)
	assert.Equal(t, "Cleared 1 favorites\n", out)

	out, err = runCLI(t, "favorites", "count")
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)
}

func TestListCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(movies.MoviesResponse{
			Page:       2,
			PerPage:    2,
			Total:      6,
			TotalPages: 3,
			Data: []movies.MovieItem{
				{ImdbID: "tt0372784", Title: "Batman Begins", Year: 2005},
				{ImdbID: "tt0468569", Title: "The Dark Knight", Year: 2008},
			},
		})
	}))
	defer srv.Close()
	setupEnv(t, srv.URL)

	_, err := runCLI(t, "fav", "add", "tt0468569")
	require.NoError(t, err)

	out, err := runCLI(t, "list", "--page", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "├── Batman Begins (2005)\n")
	assert.Contains(t, out, "╰── The Dark Knight (2008) ★\n")
	assert.Contains(t, out, "Page 2 of 3 (6 total), next: --page 3")

	out, err = runCLI(t, "list", "--page", "2", "--filter", "Favorite")
	require.NoError(t, err)
	assert.NotContains(t, out, "Batman Begins")
	assert.Contains(t, out, "The Dark Knight")
	listFilter = ""

	_, err = runCLI(t, "list", "--filter", "Year >")
	assert.ErrorContains(t, err, "invalid filter expression")
	listFilter = ""
}

func TestListCommandPresetNameCase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(movies.MoviesResponse{
			Page:       1,
			TotalPages: 1,
			Data: []movies.MovieItem{
				{ImdbID: "tt0096895", Title: "Batman", Year: 1989},
				{ImdbID: "tt0468569", Title: "The Dark Knight", Year: 2008},
			},
		})
	}))
	defer srv.Close()
	setupEnv(t, srv.URL)

	require.NoError(t, os.WriteFile("config.yaml", []byte("filter:\n  presets:\n    Recent: Year > 2000\n"), 0o600))
	t.Cleanup(func() { listPreset = "" })

	out, err := runCLI(t, "list", "--page", "1", "--preset", "Recent")
	require.NoError(t, err)
	assert.Contains(t, out, "The Dark Knight")
	assert.NotContains(t, out, "Batman (1989)")
}

func TestIDsFlagIsPerCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(movies.MoviesResponse{
			Page:       1,
			TotalPages: 1,
			Data:       []movies.MovieItem{{ImdbID: "tt0372784", Title: "Batman Begins", Year: 2005}},
		})
	}))
	defer srv.Close()
	setupEnv(t, srv.URL)
	t.Cleanup(func() { listIDs = false })

	out, err := runCLI(t, "list", "--page", "1", "--ids")
	require.NoError(t, err)
	assert.Contains(t, out, "tt0372784")

	out, err = runCLI(t, "search", "Batman")
	require.NoError(t, err)
	assert.Contains(t, out, "Batman Begins (2005)")
	assert.NotContains(t, out, "tt0372784")
}

func TestListCommandBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	setupEnv(t, srv.URL)

	_, err := runCLI(t, "list")
	require.Error(t, err)
	assert.Equal(t, api.MessageSessionExpired, errorMessage(err))
}
