// Package middleware provides HTTP middleware for the risk API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	// PrincipalKey is the gin context key holding the resolved Principal.
	PrincipalKey = "principal"

	// APIKeyHeader carries the client's API key.
	APIKeyHeader = "X-API-Key"

	// AnonymousPrincipal names callers without a recognized key when the
	// keyring permits them.
	AnonymousPrincipal = "anonymous"
)

// Principal identifies an authenticated API client and its rate allowance.
type Principal struct {
	Name string

	// RateLimit is the sustained request rate in requests per second.
	RateLimit float64
}

// Keyring resolves API keys to principals. Immutable after construction.
type Keyring struct {
	keys         map[string]Principal
	defaultLimit float64
	denyUnknown  bool
}

// NewKeyring builds a Keyring. defaultLimit applies to principals without an
// explicit limit and to anonymous callers when denyUnknown is false.
func NewKeyring(keys map[string]Principal, defaultLimit float64, denyUnknown bool) *Keyring {
	resolved := make(map[string]Principal, len(keys))

	for key, p := range keys {
		if p.RateLimit <= 0 {
			p.RateLimit = defaultLimit
		}

		resolved[key] = p
	}

	return &Keyring{
		keys:         resolved,
		defaultLimit: defaultLimit,
		denyUnknown:  denyUnknown,
	}
}

// Lookup resolves an API key. The second return is false when the key is
// unknown and the keyring denies unknown callers.
func (k *Keyring) Lookup(apiKey string) (Principal, bool) {
	if p, ok := k.keys[apiKey]; ok {
		return p, true
	}

	if k.denyUnknown {
		return Principal{}, false
	}

	return Principal{Name: AnonymousPrincipal, RateLimit: k.defaultLimit}, true
}

// Authenticate resolves the X-API-Key header to a Principal and stores it in
// the request context. Unknown keys are rejected when the keyring's policy
// says so.
func Authenticate(keyring *Keyring, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := keyring.Lookup(c.GetHeader(APIKeyHeader))
		if !ok {
			log.WithField("path", c.FullPath()).Debug("rejected request with unknown API key")
			respondError(c, http.StatusUnauthorized, "unknown_principal", "unknown or missing API key")

			return
		}

		c.Set(PrincipalKey, p)
		c.Next()
	}
}

// PrincipalFrom extracts the Principal set by Authenticate. The zero value
// is returned on routes that skip authentication.
func PrincipalFrom(c *gin.Context) Principal {
	if v, ok := c.Get(PrincipalKey); ok {
		if p, ok := v.(Principal); ok {
			return p
		}
	}

	return Principal{}
}
