// Package gate holds the authentication logic that sits in front of
// the notes page.
//
// The scheme is intentionally small: a single process-wide salt, a table
// of users mapped to hex(sha256(salt || password)) and one HMAC-SHA256 key.
//
// A successful login produces a token made of 32 random bytes (the nonce)
// and the HMAC of those bytes, both hex encoded and joined by a dot.
// There is no session table anywhere, the token itself is the session, so
// any process holding the same key can validate it.
//
// Tokens do not expire. They are valid for as long as the key is the same,
// rotating the root secret is the only way to log everyone out.
//
// Everything that fails to parse or verify results in a deny, there is no
// path where an error turns into an allow.
package gate
