// Package security holds the credential primitives of the auth core: the
// bcrypt password hasher, the HMAC-signed JWT issuer/verifier and email
// case-folding. Everything here is stateless apart from read-only keys and is
// safe for concurrent use.
package security
