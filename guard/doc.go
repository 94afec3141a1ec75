// Package guard decides what a role-protected view shows for the current
// session: the protected content, a loading placeholder, or a replace
// redirect to sign-in or to the role's own portal.
//
// # Evaluation
//
// [Evaluate] is a pure function of (session, allowed roles, current path).
// It performs no I/O, holds no state, and cannot fail. The decision order is:
//
//  1. session still loading → loading placeholder;
//  2. no user → redirect to sign-in carrying the current path;
//  3. role known and not allowed → redirect to that role's home path;
//  4. otherwise → render.
//
// A user without a resolved role is rendered: the role check fails open,
// the authentication check never does.
//
// # Mounted views
//
// [Mount] binds a [Guard] to a session [Source] for the lifetime of a view.
// Every session change and every [Mounted.Navigate] re-evaluates. After
// [Mounted.Unmount] returns no further decision is delivered.
package guard
