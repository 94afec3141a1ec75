// Package session provides the Redis-backed store for HRive login sessions
// and their compact binary encoding.
//
// # Binary encoding
//
// A session blob is a fixed 49-byte header (version, refresh hash, created
// and expiry timestamps) followed by the role byte and length-prefixed user
// ID and email. The refresh hash sits at a fixed offset so the rotation
// script can swap it without decoding the whole record.
//
// # What this package must NOT do
//
//   - Parse or sign access tokens.
//   - Decide whether a role may see a route.
//   - Store plaintext refresh secrets.
package session
