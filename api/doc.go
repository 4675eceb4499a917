// Package api provides the HTTP client used to talk to the movie backend.
//
// The client is deliberately small: it builds a URL from a base, a path and
// query params, sends an optional JSON body and decodes a JSON response.
// Its main job is error normalization. Every failure, whatever the verb,
// comes back as an *Error with one of three shapes:
//
//   - 401 responses: Message "Session expired. Please log in again."
//   - other non-503 errors whose body has an "error" field: the body's
//     message and error plus the HTTP status
//   - everything else (network failures, 503, unknown bodies): the generic
//     INTERNAL_ERROR fallback with status 503
//
// # Usage
//
//	client := api.NewClient("http://localhost:8000", logger,
//		api.WithTimeout(10*time.Second),
//	)
//
//	var resp movies.MoviesResponse
//	err := client.Get(ctx, "/movies", &api.RequestOptions{
//		Params: map[string]string{"page": "2"},
//	}, &resp)
//	if apiErr := api.AsError(err); apiErr != nil && apiErr.IsUnauthorized() {
//		// prompt for credentials
//	}
package api
