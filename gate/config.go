package gate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/andrebq/mindgate/internal/lua/luadefaults"
	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"
)

const (
	// CookieName is the cookie (and Authorization header key) that carries the token
	CookieName = "Authorization"

	DenyUnauthorized = DenyPolicy("unauthorized")
	DenyRedirect     = DenyPolicy("redirect")
)

type (
	// DenyPolicy controls what a denied GET receives
	DenyPolicy string

	// Config is built once at startup and shared read-only by every request
	Config struct {
		Upstream        *url.URL
		LoginPath       string
		LoginPage       string
		Deny            DenyPolicy
		CookiePath      string
		UpstreamTimeout time.Duration
		TokenCacheTTL   time.Duration
		Salt            string
		Logins          Credentials
		Key             *Key
	}

	fileConfig struct {
		Upstream        string            `lua:"upstream"`
		LoginPath       string            `lua:"login_path"`
		LoginPage       string            `lua:"login_page"`
		Deny            string            `lua:"deny"`
		CookiePath      string            `lua:"cookie_path"`
		UpstreamTimeout string            `lua:"upstream_timeout"`
		TokenCacheTTL   string            `lua:"token_cache_ttl"`
		Salt            string            `lua:"salt"`
		Login           map[string]string `lua:"login"`
	}
)

var (
	errConfigNotTable = errors.New("configuration must return a table")
)

// DefaultConfig returns a Config without upstream, salt, users or key
func DefaultConfig() *Config {
	return &Config{
		LoginPath:       "/login",
		LoginPage:       "/login",
		Deny:            DenyUnauthorized,
		CookiePath:      "/",
		UpstreamTimeout: 30 * time.Second,
		TokenCacheTTL:   10 * time.Minute,
		Logins:          Credentials{},
	}
}

// LoadConfigFile reads the configuration from a lua file, see ParseConfig
func LoadConfigFile(ctx context.Context, file string) (*Config, error) {
	fd, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("unable to open config %v, cause %w", file, err)
	}
	defer fd.Close()
	return ParseConfig(ctx, file, fd)
}

// ParseConfig evaluates src as lua code which must return a table, eg.:
//
//	return {
//		upstream = "http://localhost:7008/",
//		deny = "redirect",
//		salt = "...",
//		login = { bob = "<hex sha256(salt..password)>" },
//	}
//
// Missing fields keep the values from DefaultConfig. The signing key is
// never read from the file.
func ParseConfig(ctx context.Context, name string, src io.Reader) (*Config, error) {
	L := luadefaults.NewConfigState()
	defer L.Close()
	L.SetContext(ctx)
	fn, err := L.Load(src, name)
	if err != nil {
		return nil, fmt.Errorf("unable to load config %v, cause %w", name, err)
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return nil, fmt.Errorf("unable to evaluate config %v, cause %w", name, err)
	}
	tbl, ok := L.Get(-1).(*lua.LTable)
	if !ok {
		return nil, errConfigNotTable
	}
	var fc fileConfig
	mapper := gluamapper.NewMapper(gluamapper.Option{
		NameFunc: func(s string) string { return s },
		TagName:  "lua",
	})
	if err := mapper.Map(tbl, &fc); err != nil {
		return nil, fmt.Errorf("unable to decode config %v, cause %w", name, err)
	}
	return fc.apply(DefaultConfig())
}

func (fc fileConfig) apply(cfg *Config) (*Config, error) {
	var err error
	if fc.Upstream != "" {
		cfg.Upstream, err = url.Parse(fc.Upstream)
		if err != nil {
			return nil, fmt.Errorf("invalid upstream %v, cause %w", fc.Upstream, err)
		}
	}
	if fc.LoginPath != "" {
		cfg.LoginPath = fc.LoginPath
	}
	if fc.LoginPage != "" {
		cfg.LoginPage = fc.LoginPage
	}
	if fc.Deny != "" {
		cfg.Deny = DenyPolicy(fc.Deny)
	}
	if fc.CookiePath != "" {
		cfg.CookiePath = fc.CookiePath
	}
	if fc.UpstreamTimeout != "" {
		cfg.UpstreamTimeout, err = time.ParseDuration(fc.UpstreamTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid upstream_timeout, cause %w", err)
		}
	}
	if fc.TokenCacheTTL != "" {
		cfg.TokenCacheTTL, err = time.ParseDuration(fc.TokenCacheTTL)
		if err != nil {
			return nil, fmt.Errorf("invalid token_cache_ttl, cause %w", err)
		}
	}
	cfg.Salt = fc.Salt
	for user, hash := range fc.Login {
		cfg.Logins[user] = strings.ToLower(hash)
	}
	return cfg, nil
}

// Validate checks that everything needed to serve requests is present
func (c *Config) Validate() error {
	switch {
	case c.Upstream == nil || c.Upstream.Host == "":
		return errors.New("config: upstream must be an absolute url")
	case c.Key == nil:
		return errors.New("config: missing signing key")
	case c.Salt == "":
		return errors.New("config: missing salt")
	case len(c.Logins) == 0:
		return errors.New("config: no users configured")
	case !isAbsPath(c.LoginPath) || !isAbsPath(c.LoginPage) || !isAbsPath(c.CookiePath):
		return errors.New("config: login_path, login_page and cookie_path must be clean absolute paths")
	case c.Deny != DenyUnauthorized && c.Deny != DenyRedirect:
		return fmt.Errorf("config: unknown deny policy %q", c.Deny)
	case c.UpstreamTimeout <= 0:
		return errors.New("config: upstream_timeout must be positive")
	}
	for user, hash := range c.Logins {
		if raw, err := FromHex(hash); err != nil || len(raw) != 32 {
			return fmt.Errorf("config: hash for user %v is not a hex sha256", user)
		}
	}
	return nil
}

// Verifier returns a credential verifier over the configured users
func (c *Config) Verifier() *Verifier {
	return NewVerifier(c.Salt, c.Logins)
}

func isAbsPath(p string) bool {
	return p != "" && path.IsAbs(p) && path.Clean(p) == p
}
