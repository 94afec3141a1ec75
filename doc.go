// Package hriveauth is the HRive access boundary: it signs staff in against
// a Redis-backed user directory, issues short-lived access tokens with
// rotating opaque refresh tokens, and seeds the portal test accounts.
//
// Route protection lives in the guard package and the session resolver in
// the resolver package; this package supplies the identity they consume
// through [Engine.Resolve].
//
// # Architecture boundaries
//
// hriveauth is the public surface. It exposes [Engine], [Builder], [Config],
// and value types ([LoginResult], [Identity], [SeedResult]). Session
// encoding, rate limiting, and audit dispatch live under internal/ or in
// their own packages and are never exposed through Engine.
//
// # Concurrency
//
// Engine methods are safe to call from multiple goroutines after
// [Builder.Build]. Login, Refresh, and Logout each make a small, bounded
// number of Redis round-trips; Resolve in ModeJWTOnly makes none.
package hriveauth
