package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/andrebq/mindgate/gate"
	"github.com/andrebq/mindgate/internal/logutil"
)

const (
	// MirrorHeader repeats the session cookie value, browsers should rely on Set-Cookie
	MirrorHeader = "X-Authorization-Cookie"

	maxLoginBody = 64 * 1024
)

type (
	// Login exchanges a user/password pair for a session cookie
	Login struct {
		verifier   *gate.Verifier
		key        *gate.Key
		rnd        io.Reader
		cookiePath string
		upstream   *Upstream
	}

	loginRequest struct {
		User     string `json:"user"`
		Password string `json:"password"`
	}
)

// NewLogin returns the login handler, rnd is the source of token
// nonces (crypto/rand when nil)
func NewLogin(verifier *gate.Verifier, key *gate.Key, rnd io.Reader, cookiePath string, upstream *Upstream) *Login {
	return &Login{
		verifier:   verifier,
		key:        key,
		rnd:        rnd,
		cookiePath: cookiePath,
		upstream:   upstream,
	}
}

func (l *Login) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logutil.GetOrDefault(r.Context())
	token, err := l.authenticate(r)
	var missing gate.MissingCredentials
	switch {
	case errors.As(err, &missing) || errors.Is(err, gate.InvalidCredentials{}):
		log.Info().Err(err).Msg("Login rejected")
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	case err != nil:
		log.Error().Err(err).Msg("Unable to issue session token")
		http.Error(w, "unable to issue session token", http.StatusInternalServerError)
		return
	}
	res, err := l.upstream.Fetch(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Unable to fetch page after login")
		http.Error(w, "unable to reach upstream, server is mis-behaving", http.StatusBadGateway)
		return
	}
	defer res.Body.Close()
	for k, v := range res.Header {
		w.Header()[k] = v
	}
	cookie := &http.Cookie{
		Name:     gate.CookieName,
		Value:    token,
		Path:     l.cookiePath,
		Secure:   true,
		HttpOnly: true,
	}
	http.SetCookie(w, cookie)
	w.Header().Set(MirrorHeader, cookie.Value)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, res.Body); err != nil {
		log.Warn().Err(err).Msg("Unable to copy upstream body to client")
	}
}

// authenticate returns a fresh token or one of gate.MissingCredentials,
// gate.InvalidCredentials
func (l *Login) authenticate(r *http.Request) (string, error) {
	req, err := readLoginRequest(r)
	if err != nil {
		return "", err
	}
	if !l.verifier.Verify(r.Context(), req.User, req.Password) {
		return "", gate.InvalidCredentials{}
	}
	return gate.IssueToken(l.rnd, l.key)
}

func readLoginRequest(r *http.Request) (loginRequest, error) {
	var req loginRequest
	body := io.LimitReader(r.Body, maxLoginBody)
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/json":
		if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return req, gate.MissingCredentials{Field: "body"}
		}
	case "multipart/form-data":
		r.Body = io.NopCloser(body)
		if err := r.ParseMultipartForm(maxLoginBody); err != nil {
			return req, gate.MissingCredentials{Field: "body"}
		}
		req.User = firstValue(r.MultipartForm.Value["user"])
		req.Password = firstValue(r.MultipartForm.Value["password"])
	default:
		// anything else is read as urlencoded, whatever the declared type
		buf, err := io.ReadAll(body)
		if err != nil {
			return req, gate.MissingCredentials{Field: "body"}
		}
		form, err := url.ParseQuery(string(buf))
		if err != nil {
			return req, gate.MissingCredentials{Field: "body"}
		}
		req.User = form.Get("user")
		req.Password = form.Get("password")
	}
	switch {
	case strings.TrimSpace(req.User) == "":
		return req, gate.MissingCredentials{Field: "user"}
	case req.Password == "":
		return req, gate.MissingCredentials{Field: "password"}
	}
	return req, nil
}

func firstValue(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}
