// Package server runs the short-lived local HTTP server used to authorise Spotify.
//
// # Router
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first).
// [BasicRouter] uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the authorization code callback. It validates the state parameter,
// exchanges the code for a token through an [Exchanger] and sends the result through a channel.
// Only the first callback is processed.
//
// # Callback Server
//
// [Callback] starts a server on the configured host and port, waits for the handler's result
// or the context to end, and shuts the server down.
package server
