// Package audit carries HRive security events (logins, refreshes, logouts,
// guard redirects, seeding) from request paths to a sink without blocking
// them. The root package re-exports the sink types.
package audit
