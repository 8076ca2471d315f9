package api

import (
	"context"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/andrebq/mindgate/gate"
	"github.com/andrebq/mindgate/internal/logutil"
)

type (
	// Upstream is the server holding the protected page
	Upstream struct {
		base    *url.URL
		timeout time.Duration
		client  *http.Client
		proxy   *httputil.ReverseProxy
	}
)

func NewUpstream(base *url.URL, timeout time.Duration) *Upstream {
	u := &Upstream{
		base:    base,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		proxy:   httputil.NewSingleHostReverseProxy(base),
	}
	director := u.proxy.Director
	u.proxy.Director = func(r *http.Request) {
		director(r)
		stripCredentials(r.Header)
	}
	u.proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		err = gate.NewUpstreamFailure(r.URL.String(), err)
		log := logutil.GetOrDefault(r.Context())
		log.Error().Err(err).Msg("Proxy request failed")
		http.Error(w, "unable to reach upstream, server is mis-behaving", http.StatusBadGateway)
	}
	return u
}

// Fetch returns the response for the base page. Transport errors
// are returned as gate.UpstreamFailure, status codes are not inspected.
func (u *Upstream) Fetch(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.base.String(), nil)
	if err != nil {
		return nil, gate.NewUpstreamFailure(u.base.String(), err)
	}
	res, err := u.client.Do(req)
	if err != nil {
		return nil, gate.NewUpstreamFailure(u.base.String(), err)
	}
	return res, nil
}

// ServeHTTP forwards r to the upstream and copies the response back unmodified
func (u *Upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), u.timeout)
	defer cancel()
	u.proxy.ServeHTTP(w, r.WithContext(ctx))
}

// stripCredentials removes the session token from h, other cookies are kept
func stripCredentials(h http.Header) {
	h.Del("Authorization")
	var kept []string
	for _, line := range h.Values("Cookie") {
		for _, pair := range strings.Split(line, ";") {
			name := pair
			if eq := strings.IndexByte(pair, '='); eq >= 0 {
				name = pair[:eq]
			}
			if strings.TrimSpace(name) == gate.CookieName || strings.TrimSpace(pair) == "" {
				continue
			}
			kept = append(kept, strings.TrimSpace(pair))
		}
	}
	h.Del("Cookie")
	if len(kept) > 0 {
		h.Set("Cookie", strings.Join(kept, "; "))
	}
}
