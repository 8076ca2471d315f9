package gate

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/hkdf"
)

const (
	RootKeyEnvVar = "MINDGATE_ROOTKEY"
	SaltEnvVar    = "MINDGATE_SALT"

	signingKeyInfo = "mindgate session token v1"
)

type (
	Key [32]byte
)

func (k *Key) Zero() {
	for i := range k {
		k[i] = 0
	}
}

// DeriveSigningKey expands the root secret into the key used to sign tokens
func DeriveSigningKey(root *Key) (*Key, error) {
	var signing Key
	r := hkdf.New(sha256.New, root[:], nil, []byte(signingKeyInfo))
	if _, err := io.ReadFull(r, signing[:]); err != nil {
		return nil, fmt.Errorf("gate: unable to derive signing key, cause %w", err)
	}
	return &signing, nil
}

// KeyFromEnv reads a base64 encoded 32 byte root secret from varname,
// clears the variable and returns the derived signing key.
//
// getfn and setfn default to os.Getenv and os.Setenv
func KeyFromEnv(varname string, getfn func(string) string, setfn func(string, string) error) (*Key, error) {
	if getfn == nil {
		getfn = os.Getenv
	}
	if setfn == nil {
		setfn = os.Setenv
	}
	val := getfn(varname)
	if err := setfn(varname, ""); err != nil {
		return nil, fmt.Errorf("gate: unable to clear environment variable %v, cause %w", varname, err)
	}
	if len(val) == 0 {
		return nil, fmt.Errorf("gate: environment variable %v is empty", varname)
	}
	raw, err := base64.StdEncoding.DecodeString(val)
	if err != nil {
		return nil, fmt.Errorf("gate: cannot decode string to valid key, cause %v", err)
	}
	var root Key
	defer root.Zero()
	if len(raw) != len(root) {
		return nil, fmt.Errorf("gate: decoded key has %v bytes expecting %v bytes", len(raw), len(root))
	}
	copy(root[:], raw)
	for i := range raw {
		raw[i] = 0
	}
	return DeriveSigningKey(&root)
}

// SaltFromEnv reads the salt from varname and clears the variable,
// the salt is not returned if the variable cannot be cleared
func SaltFromEnv(varname string, getfn func(string) string, setfn func(string, string) error) (string, error) {
	if getfn == nil {
		getfn = os.Getenv
	}
	if setfn == nil {
		setfn = os.Setenv
	}
	val := getfn(varname)
	if err := setfn(varname, ""); err != nil {
		return "", fmt.Errorf("gate: unable to clear environment variable %v, cause %w", varname, err)
	}
	return val, nil
}
