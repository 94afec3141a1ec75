// Package directory stores HRive user accounts in Redis: credentials, the
// top-level role, and the two free-form metadata maps (user metadata, edited
// by the user; app metadata, edited by administrators).
//
// Records are JSON under "<prefix>:user:<id>"; the lower-cased email is a
// unique index under "<prefix>:email:<email>" claimed with SETNX.
package directory
