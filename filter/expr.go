package filter

import (
	"maps"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/marquee/movies"
)

// DefaultCacheSize is how many compiled expressions a caching compiler keeps
const DefaultCacheSize = 100

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*ExprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *ExprCompiler) {
		if size > 0 {
			c.cache = newLRUCache[CompiledFilter](size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *ExprCompiler) {
		maps.Copy(c.helpers, funcs)
	}
}

// WithFavorites sets the lookup behind Favorite and isFavorite(id)
func WithFavorites(lookup FavoriteLookup) ExprCompilerOption {
	return func(c *ExprCompiler) {
		c.favorites = lookup
	}
}

// WithClock overrides the time source used by yearsAgo
func WithClock(now func() time.Time) ExprCompilerOption {
	return func(c *ExprCompiler) {
		c.now = now
	}
}

// ExprCompiler compiles expr-language filters over movie items
type ExprCompiler struct {
	helpers   map[string]any
	favorites FavoriteLookup
	now       func() time.Time
	cache     *lruCache[CompiledFilter]
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) *ExprCompiler {
	c := &ExprCompiler{
		helpers: make(map[string]any, 16),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.favorites == nil {
		c.favorites = func(string) bool { return false }
	}

	addHelperFunctions(c.helpers, c.favorites, c.now)

	return c
}

// Compile compiles an expression into an executable filter. An empty
// expression matches every movie.
func (c *ExprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return matchAll{}, nil
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(c.environment(movies.MovieItem{})),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		compiler:   c,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *ExprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *ExprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// environment returns the variables and helpers visible to an expression
func (c *ExprCompiler) environment(movie movies.MovieItem) map[string]any {
	env := make(map[string]any, len(c.helpers)+4)
	maps.Copy(env, c.helpers)

	env["Title"] = movie.Title
	env["Year"] = movie.Year
	env["ImdbID"] = movie.ImdbID
	env["Favorite"] = movie.ImdbID != "" && c.favorites(movie.ImdbID)

	return env
}

// exprFilter is a compiled expression bound to its compiler's helpers
type exprFilter struct {
	expression string
	program    *vm.Program
	compiler   *ExprCompiler
}

// Evaluate runs the filter against movie. Runtime errors count as no match.
func (f *exprFilter) Evaluate(movie movies.MovieItem) bool {
	result, err := expr.Run(f.program, f.compiler.environment(movie))
	if err != nil {
		return false
	}

	// AsBool guarantees the type
	return result.(bool)
}

func (f *exprFilter) Expression() string {
	return f.expression
}

type matchAll struct{}

func (matchAll) Evaluate(movies.MovieItem) bool { return true }

func (matchAll) Expression() string { return "" }

func addHelperFunctions(env map[string]any, favorites FavoriteLookup, now func() time.Time) {
	// Case-insensitive string helpers. contains, startsWith and endsWith
	// are case-sensitive operators in expr; lower and upper are builtins.
	env["icontains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["istartsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["iendsWith"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}

	// Year helpers
	env["yearsAgo"] = func(years int) int {
		return now().Year() - years
	}
	env["between"] = func(year, lo, hi int) bool {
		return year >= lo && year <= hi
	}

	env["isFavorite"] = func(id string) bool {
		return favorites(id)
	}
}
