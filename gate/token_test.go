package gate

import (
	"bytes"
	"crypto/rand"
	"errors"
	"regexp"
	"strings"
	"testing"
)

var (
	tokenFormatRE = regexp.MustCompile(`^[0-9a-f]{64}\.[0-9a-f]{64}$`)
)

func randomKey(t *testing.T) *Key {
	var k Key
	if _, err := rand.Read(k[:]); err != nil {
		t.Fatal(err)
	}
	return &k
}

func TestIssueAndVerify(t *testing.T) {
	key := randomKey(t)
	token, err := IssueToken(rand.Reader, key)
	if err != nil {
		t.Fatal(err)
	}
	if !tokenFormatRE.MatchString(token) {
		t.Fatalf("Token %v does not match the wire format", token)
	}
	if err := VerifyToken(key, token); err != nil {
		t.Fatalf("Freshly issued token should verify, got %v", err)
	}
	if err := VerifyToken(randomKey(t), token); !errors.Is(err, InvalidSignature{}) {
		t.Fatalf("Token should not verify under another key, got %v", err)
	}
}

func TestIssueDeterministicReader(t *testing.T) {
	key := randomKey(t)
	nonce := bytes.Repeat([]byte{0xab}, NonceSize)
	token, err := IssueToken(bytes.NewReader(nonce), key)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(token, strings.Repeat("ab", NonceSize)+".") {
		t.Fatalf("Token should start with the hex nonce, got %v", token)
	}
	_, err = IssueToken(bytes.NewReader(nonce[:10]), key)
	if err == nil {
		t.Fatal("A short random source must fail token generation")
	}
}

func TestTokenBitFlips(t *testing.T) {
	key := randomKey(t)
	token, err := IssueToken(nil, key)
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(token, ".")
	for half := range parts {
		raw, err := FromHex(parts[half])
		if err != nil {
			t.Fatal(err)
		}
		for bit := 0; bit < len(raw)*8; bit++ {
			mutated := append([]byte(nil), raw...)
			mutated[bit/8] ^= 1 << (bit % 8)
			forged := []string{parts[0], parts[1]}
			forged[half] = ToHex(mutated)
			if err := VerifyToken(key, strings.Join(forged, ".")); err == nil {
				t.Fatalf("Flipping bit %v of part %v should invalidate the token", bit, half)
			}
		}
	}
}

func TestVerifyMalformed(t *testing.T) {
	key := randomKey(t)
	valid, err := IssueToken(nil, key)
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(valid, ".")
	type testCase struct {
		token  string
		reason string
	}
	for _, tc := range []testCase{
		{"", "expecting exactly two parts"},
		{"abc", "expecting exactly two parts"},
		{valid + ".00", "expecting exactly two parts"},
		{"." + parts[1], "empty part"},
		{parts[0] + ".", "empty part"},
		{"zz" + parts[0][2:] + "." + parts[1], "invalid nonce"},
		{parts[0] + "." + parts[1][1:], "invalid signature"},
	} {
		err := VerifyToken(key, tc.token)
		if !errors.Is(err, MalformedToken{Reason: tc.reason}) {
			t.Errorf("VerifyToken(%q) should fail with %q, got %v", tc.token, tc.reason, err)
		}
	}
	var encErr MalformedEncoding
	if err := VerifyToken(key, parts[0]+".0x"); !errors.As(err, &encErr) {
		t.Errorf("Decode failures should keep the MalformedEncoding cause, got %v", err)
	}
}

func TestNonceUniqueness(t *testing.T) {
	key := randomKey(t)
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		token, err := IssueToken(nil, key)
		if err != nil {
			t.Fatal(err)
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("Token %v issued twice after %v issuances", token, i)
		}
		seen[token] = struct{}{}
	}
}
