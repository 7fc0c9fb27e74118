// Package server provides HTTP routing, middleware and the OAuth callback handler for spm.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally and dispatches on the request method, so one
// path may carry a handler per method. Unknown methods answer 405 with an Allow header.
//
// # Middleware
//
// [Logging] records method, path, status and duration of every request with charmbracelet/log.
// [Recover] turns a handler panic into a 500 response and logs the stack.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the authorization code callback used by `spm auth`. It validates the state
// parameter, exchanges the code through an [Exchanger] and sends the result through a channel. Only the
// first callback is processed.
//
// The web dashboard (internal/web) registers its own callback because it persists the token and redirects
// back to the grid instead of handing the token to a waiting terminal.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
