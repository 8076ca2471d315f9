package api

import (
	"context"
	"crypto/rand"
	"net/http"

	"github.com/andrebq/mindgate/gate"
)

type (
	routeKind byte

	route struct {
		method string
		// empty path matches any path
		path string
		kind routeKind
	}

	// Gate is the entry point for every request reaching the gate
	Gate struct {
		routes []route
		tokens *gate.TokenCache
		login  http.Handler
		public http.Handler
		secret http.Handler
	}
)

const (
	routeLogin routeKind = iota + 1
	routePublic
	routeProtected
	routeNotFound
)

// New validates cfg and returns the gate handler. Close releases the
// token cache.
func New(ctx context.Context, cfg *gate.Config) (*Gate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tokens, err := gate.NewTokenCache(cfg.Key, cfg.TokenCacheTTL)
	if err != nil {
		return nil, err
	}
	upstream := NewUpstream(cfg.Upstream, cfg.UpstreamTimeout)
	realm := NewRealm(tokens, cfg.Deny, cfg.LoginPage)
	g := &Gate{
		routes: routeTable(cfg),
		tokens: tokens,
		login:  NewLogin(cfg.Verifier(), cfg.Key, rand.Reader, cfg.CookiePath, upstream),
		public: upstream,
		secret: realm.Protect(upstream),
	}
	return g, nil
}

func routeTable(cfg *gate.Config) []route {
	routes := []route{
		{method: http.MethodPost, path: cfg.LoginPath, kind: routeLogin},
	}
	if cfg.Deny == gate.DenyRedirect {
		// otherwise the redirect would never reach a page
		routes = append(routes, route{method: http.MethodGet, path: cfg.LoginPage, kind: routePublic})
	}
	return append(routes,
		route{method: http.MethodGet, kind: routeProtected},
		route{method: http.MethodPost, kind: routeNotFound},
	)
}

func (g *Gate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for _, rt := range g.routes {
		if rt.method != r.Method || (rt.path != "" && rt.path != r.URL.Path) {
			continue
		}
		switch rt.kind {
		case routeLogin:
			g.login.ServeHTTP(w, r)
		case routePublic:
			g.public.ServeHTTP(w, r)
		case routeProtected:
			g.secret.ServeHTTP(w, r)
		default:
			http.Error(w, "Not found", http.StatusNotFound)
		}
		return
	}
	w.Header().Set("Allow", "GET, POST")
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

func (g *Gate) Close() error {
	return g.tokens.Close()
}
