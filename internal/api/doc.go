// Package api provides the HTTP client for the storefront REST API.
//
// # Overview
//
// Every request to the storefront backend goes through Client.Do. It attaches
// the session token, decodes JSON, extracts the server's error message and
// classifies each failure into a Kind so callers can react without looking
// at status codes.
//
// # Architecture
//
//   - client.go: transport, token attachment, response handling
//   - errors.go: Error, Kind and the failure classification table
//   - guard.go: AuthGuard, the session teardown run on rejected tokens
//   - types.go: data structures mirroring the API schema
//   - auth.go, catalog.go, commerce.go: one function per endpoint
//
// # Client Usage
//
//	client, err := api.NewClient(cfg.APIBase,
//		api.WithTimeout(cfg.RequestTimeout),
//		api.WithTokenSource(sess),
//		api.WithUnauthorizedHandler(guard.HandleUnauthorized),
//	)
//	if err != nil {
//		return fmt.Errorf("create api client: %w", err)
//	}
//	resp, err := client.GetCart(ctx)
//
// # Failure Kinds
//
//   - KindNetwork: no response arrived (refused, DNS, timeout)
//   - KindAuthRejected: the token was rejected; the unauthorized handler has run
//   - KindEmpty: a collection that does not exist yet; absorbed by list reads
//   - KindValidation: the server refused the input, including bad credentials
//   - KindServer: anything else
//
// A 401 from the auth endpoints means wrong credentials and is reported as
// KindValidation so signing in with a bad password never tears down state.
//
// # Empty Collections
//
// The backend answers a collection read with 500 (and 404 for orders) when
// the user has no cart, wishlist or orders yet. The table in errors.go maps
// these to KindEmpty for GETs on collection paths only, and the read helpers
// return an empty result. Mutations and item reads with the same status
// remain errors. Empty results are not logged.
//
// # Logging
//
// Failures other than KindEmpty are logged at WARN through the slog.Logger
// passed with WithLogger. The default logger discards output.
package api
