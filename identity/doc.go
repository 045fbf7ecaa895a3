// Package identity provides the authenticated user model consumed by the
// circulation core: user identifiers, roles, and credential hashing.
//
// The lifecycle rules themselves are role-agnostic; roles only gate
// administrative overrides such as waiving fines.
package identity
