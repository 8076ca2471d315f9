package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/andrebq/mindgate/gate"
	"github.com/andrebq/mindgate/internal/logutil"
)

type (
	// Realm decides if a request carries a valid session token
	Realm struct {
		tokens    *gate.TokenCache
		deny      gate.DenyPolicy
		loginPage string
	}
)

func NewRealm(tokens *gate.TokenCache, deny gate.DenyPolicy, loginPage string) *Realm {
	return &Realm{
		tokens:    tokens,
		deny:      deny,
		loginPage: loginPage,
	}
}

// Protect calls sensitive only for requests accepted by Allow
func (s *Realm) Protect(sensitive http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Allow(r) {
			s.denied(w, r)
			return
		}
		sensitive.ServeHTTP(w, r)
	})
}

// Allow checks the session cookie first, then the Authorization header
// (in the form "<name>=<token>"). No token means no access.
func (s *Realm) Allow(r *http.Request) bool {
	log := logutil.GetOrDefault(r.Context())
	cookies := gate.ParseCookies(strings.Join(r.Header.Values("Cookie"), "; "))
	if token, ok := cookies[gate.CookieName]; ok {
		return s.verify(r, "cookie", token)
	}
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		sep := strings.IndexByte(hdr, '=')
		if sep < 0 {
			log.Warn().Str("signal", "header").Msg("Authorization header without token separator")
			return false
		}
		return s.verify(r, "header", strings.TrimSpace(hdr[sep+1:]))
	}
	log.Warn().Str("signal", "none").Str("path", r.URL.Path).Msg("Request without session cookie or authorization header")
	return false
}

func (s *Realm) verify(r *http.Request, signal, token string) bool {
	err := s.tokens.Verify(token)
	if err == nil {
		return true
	}
	log := logutil.GetOrDefault(r.Context())
	evt := log.Warn().Str("signal", signal)
	var malformed gate.MalformedToken
	if errors.As(err, &malformed) {
		evt.Str("reason", malformed.Reason).Msg("Malformed session token")
	} else {
		evt.Msg("Session token with invalid signature")
	}
	return false
}

func (s *Realm) denied(w http.ResponseWriter, r *http.Request) {
	if s.deny == gate.DenyRedirect {
		http.Redirect(w, r, s.loginPage, http.StatusFound)
		return
	}
	http.Error(w, "Invalid credentials", http.StatusUnauthorized)
}
