package gate

import "fmt"

type (
	MalformedToken struct {
		Reason string
		cause  error
	}

	MalformedEncoding struct {
		Length int
		Offset int
	}

	InvalidSignature struct{}

	MissingCredentials struct {
		Field string
	}

	InvalidCredentials struct{}

	UpstreamFailure struct {
		URL   string
		cause error
	}
)

func (m MalformedToken) Error() string {
	if m.cause != nil {
		return fmt.Sprintf("malformed token: %v, cause %v", m.Reason, m.cause)
	}
	return fmt.Sprintf("malformed token: %v", m.Reason)
}

func (m MalformedToken) Unwrap() error {
	return m.cause
}

// Is ignores the cause so callers can match on MalformedToken{Reason: ...}
func (m MalformedToken) Is(target error) bool {
	other, ok := target.(MalformedToken)
	return ok && other.Reason == m.Reason
}

func (m MalformedEncoding) Error() string {
	if m.Offset < 0 {
		return fmt.Sprintf("malformed hex encoding: odd length %v", m.Length)
	}
	return fmt.Sprintf("malformed hex encoding: invalid byte at offset %v", m.Offset)
}

func (InvalidSignature) Error() string {
	return "token signature does not match"
}

func (m MissingCredentials) Error() string {
	return fmt.Sprintf("missing credentials: %v not provided", m.Field)
}

func (InvalidCredentials) Error() string {
	return "invalid credentials"
}

func (u UpstreamFailure) Error() string {
	return fmt.Sprintf("unable to fetch %v from upstream, cause %v", u.URL, u.cause)
}

func (u UpstreamFailure) Unwrap() error {
	return u.cause
}

// Is matches any UpstreamFailure regardless of URL and cause
func (u UpstreamFailure) Is(target error) bool {
	_, ok := target.(UpstreamFailure)
	return ok
}

// NewUpstreamFailure wraps cause as a failure to reach url
func NewUpstreamFailure(url string, cause error) error {
	return UpstreamFailure{URL: url, cause: cause}
}
