// Package resolver turns an access token into the session the route guard
// evaluates.
//
// A [Provider] is constructed explicitly and handed to whatever needs it;
// there is no package-level state. It starts pending, resolves once per
// sign-in on its own goroutine, and notifies subscribers of every change.
// Resolution failures are logged and degrade to an unauthenticated session.
//
// [ResolveOnce] is the synchronous form used by request-scoped middleware.
package resolver
