// Package auth implements the shared-secret access gate and the per-browser
// session that carries the gate flag and the session's reference table.
package auth

import "crypto/subtle"

// Gate compares operator input against the configured shared secret
type Gate struct {
	secret string
}

// NewGate creates a gate for secret
func NewGate(secret string) *Gate {
	return &Gate{secret: secret}
}

// Check reports whether input equals the secret. There is no lockout or rate limit.
func (g *Gate) Check(input string) bool {
	return subtle.ConstantTimeCompare([]byte(input), []byte(g.secret)) == 1
}
