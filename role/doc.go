// Package role defines the closed set of HRive portal roles, the immutable
// role set used by route definitions, and the fixed role → home-path table.
//
// # Roles
//
// [Role] is a closed enumeration. The zero value [None] means "absent or not
// yet resolved"; it is never a member of a [Set] and always maps to
// [SignInPath].
//
// # Home paths
//
// [HomePath] is an exhaustive switch over the enumeration. Adding a role
// without extending the table trips TestHomePathCoversEveryRole.
//
// # What this package must NOT do
//
//   - Access Redis, the network, or request state.
//   - Import the guard, resolver, or engine packages.
package role
