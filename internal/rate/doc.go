// Package rate throttles HRive login attempts with Redis fixed-window
// counters keyed by email and, optionally, client IP.
package rate
