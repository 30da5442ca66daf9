// Package app implements the application handler that requests reach
// after the dispatcher authenticates them.
//
// It serves the JSON note API under /api/ and the static HTML/JS client
// everywhere else. The handler assumes authentication already happened:
// it never inspects tokens, and reads the device identity from the
// request context only for log attribution.
package app
