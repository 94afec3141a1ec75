// Package middleware applies the HRive route guard to HTTP handlers.
//
// [Guard] (net/http) and [GinGuard] (gin) resolve the caller's session from
// a bearer token or the portal access cookie, evaluate the route's guard,
// and then render, serve a loading placeholder, or redirect. Browsers get a
// 303 redirect; JSON clients get the decision as a JSON body.
//
// This package translates guard decisions into HTTP. It does not validate
// tokens itself; that is delegated to the RequestResolver.
package middleware
