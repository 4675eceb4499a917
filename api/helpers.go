package api

import (
	"context"
	"fmt"
	"regexp"
)

var pathParamPattern = regexp.MustCompile(`:([a-zA-Z_]+)`)

// FillPathParams replaces ":name" segments in a path template with values
// from params. A placeholder without a value is an error.
func FillPathParams(template string, params map[string]string) (string, error) {
	var missing string
	filled := pathParamPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1:]
		value, ok := params[key]
		if !ok {
			if missing == "" {
				missing = key
			}
			return match
		}
		return value
	})

	if missing != "" {
		return "", fmt.Errorf("%w: %s", ErrMissingParam, missing)
	}
	return filled, nil
}

// OptimisticUpdate applies updated locally before sending it with PUT.
// If the request fails the local state is rolled back to current and the
// failure is logged; the caller never sees the error.
func OptimisticUpdate[T any](ctx context.Context, c *Client, path string, updated, current T, setLocal func(T)) {
	setLocal(updated)

	if err := c.Put(ctx, path, &RequestOptions{Data: updated}, nil); err != nil {
		setLocal(current)
		message := err.Error()
		if apiErr := AsError(err); apiErr != nil {
			message = apiErr.Message
		}
		c.logger.Error().Str("path", path).Str("message", message).Msg("Optimistic update failed, rolled back")
	}
}
