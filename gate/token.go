package gate

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"strings"
)

const (
	NonceSize = 32
)

func sign(key *Key, nonce []byte) []byte {
	mac := hmac.New(sha256.New, key[:])
	mac.Write(nonce)
	return mac.Sum(nil)
}

// IssueToken returns hex(nonce) + "." + hex(hmac(key, nonce)) where
// nonce is NonceSize bytes read from rnd (crypto/rand.Reader when nil).
func IssueToken(rnd io.Reader, key *Key) (string, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rnd, nonce); err != nil {
		return "", fmt.Errorf("gate: unable to read token nonce, cause %w", err)
	}
	return ToHex(nonce) + "." + ToHex(sign(key, nonce)), nil
}

// VerifyToken returns nil only when token carries a valid signature for key.
func VerifyToken(key *Key, token string) error {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return MalformedToken{Reason: "expecting exactly two parts"}
	}
	if len(parts[0]) == 0 || len(parts[1]) == 0 {
		return MalformedToken{Reason: "empty part"}
	}
	nonce, err := FromHex(parts[0])
	if err != nil {
		return MalformedToken{Reason: "invalid nonce", cause: err}
	}
	sig, err := FromHex(parts[1])
	if err != nil {
		return MalformedToken{Reason: "invalid signature", cause: err}
	}
	if !hmac.Equal(sign(key, nonce), sig) {
		return InvalidSignature{}
	}
	return nil
}
