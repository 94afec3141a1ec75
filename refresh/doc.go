// Package refresh encodes and decodes the opaque rotating refresh tokens
// handed to portal clients.
//
// # Token format
//
// A token is the unpadded base64url encoding of 48 bytes: the 16-byte
// session UUID followed by a 32-byte random secret. The session store keeps
// only the SHA-256 of the secret, so a leaked store does not yield usable
// tokens.
//
// # Architecture boundaries
//
// This package owns token encoding, decoding, and secret hashing. Rotation,
// reuse detection, and session revocation are handled by the Engine and the
// session store.
//
// # What this package must NOT do
//
//   - Access Redis or any I/O.
//   - Import hriveauth, jwt, or session.
//   - Implement rotation or replay logic.
package refresh
