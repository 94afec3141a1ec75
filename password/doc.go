// Package password hashes and verifies HRive account passwords with
// argon2id, encoded in the PHC string format
// ($argon2id$v=19$m=...,t=...,p=...$salt$hash).
package password
