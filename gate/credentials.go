package gate

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"

	"github.com/andrebq/mindgate/internal/logutil"
)

type (
	// Credentials maps a username to hex(sha256(salt || password))
	Credentials map[string]string

	// Verifier checks passwords against a read-only Credentials table
	Verifier struct {
		salt   string
		logins Credentials
	}
)

// HashPassword returns sha256(salt || password)
func HashPassword(salt, password string) []byte {
	h := sha256.New()
	h.Write([]byte(salt))
	h.Write([]byte(password))
	return h.Sum(nil)
}

// NewVerifier copies logins, later changes to the map are not observed
func NewVerifier(salt string, logins Credentials) *Verifier {
	cp := make(Credentials, len(logins))
	for k, v := range logins {
		cp[k] = v
	}
	return &Verifier{salt: salt, logins: cp}
}

// Verify returns true only if user exists and the password hashes to the
// stored value. Unknown users and wrong passwords look the same to callers.
func (v *Verifier) Verify(ctx context.Context, user, password string) bool {
	log := logutil.GetOrDefault(ctx)
	stored, ok := v.logins[user]
	// hash anyway, unknown users should cost the same as known ones
	actual := ToHex(HashPassword(v.salt, password))
	if !ok {
		log.Info().Msg("Login attempt for unknown user")
		return false
	}
	if subtle.ConstantTimeCompare([]byte(actual), []byte(stored)) != 1 {
		log.Info().Str("user", user).Msg("Login attempt with bad password")
		return false
	}
	return true
}
