// Package jwt issues and verifies the short-lived HRive access tokens.
//
// Tokens carry the user ID, session ID, portal role, and email. Ed25519 is
// the default signing method; HS256 is accepted for single-service setups.
// Verification pins the algorithm and optionally issuer, audience, and key ID.
package jwt
