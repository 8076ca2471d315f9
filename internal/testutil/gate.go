package testutil

import (
	"crypto/rand"
	"net/url"

	"github.com/andrebq/mindgate/gate"
)

const (
	TestUser     = "bob"
	TestPassword = "bob-super-secret"
	TestSalt     = "5f8c1e0b2d9a4c7e8f6b3a1d0e2c4b6a"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

// GateConfig returns a valid configuration with a random key and a single
// user (TestUser, TestPassword) protecting upstream
func GateConfig(t TestLog, upstream string) *gate.Config {
	cfg := gate.DefaultConfig()
	var err error
	cfg.Upstream, err = url.Parse(upstream)
	if err != nil {
		t.Fatal(err)
	}
	var root gate.Key
	if _, err := rand.Read(root[:]); err != nil {
		t.Fatal(err)
	}
	cfg.Key, err = gate.DeriveSigningKey(&root)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Salt = TestSalt
	cfg.Logins = gate.Credentials{
		TestUser: gate.ToHex(gate.HashPassword(TestSalt, TestPassword)),
	}
	return cfg
}
