// Package identity resolves the caller identity for agent requests.
// Providers form a small capability set sharing one interface: the dev
// provider accepts everything for local work, while the static-token
// provider gates requests behind a shared secret. Selection happens
// through configuration so deployments can swap providers without code
// changes.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/NirelNemirovsky/open-deep-research/internal/config"
)

// Provider names accepted in configuration.
const (
	// ProviderDev selects the permissive development provider.
	ProviderDev = "dev"
	// ProviderStaticToken selects the shared-token provider.
	ProviderStaticToken = "static-token"
)

// ErrInvalidCredential is returned by providers that reject a credential.
var ErrInvalidCredential = errors.New("invalid credential")

// Identity describes the principal a request runs as. The subject is the
// stable identifier that threads and runs are attributed to.
type Identity struct {
	Subject string `json:"identity"`
}

// Provider resolves a request credential into an identity. Implementations
// decide how much, if anything, of the credential to verify.
type Provider interface {
	// Authenticate resolves the identity for the given credential. The
	// credential is the raw Authorization header value and may be empty.
	Authenticate(ctx context.Context, credential string) (*Identity, error)
	// Name reports the provider name used in configuration and logs.
	Name() string
}

// NewProvider builds the identity provider selected by the configuration.
// An empty provider name falls back to the dev provider.
func NewProvider(cfg *config.IdentityConfig, log *logrus.Logger) (Provider, error) {
	switch cfg.Provider {
	case "", ProviderDev:
		return NewDevProvider(log), nil
	case ProviderStaticToken:
		if cfg.StaticToken == "" {
			return nil, errors.New("static-token identity provider requires a configured token")
		}
		return NewStaticTokenProvider(cfg.StaticToken, cfg.StaticSubject), nil
	default:
		return nil, fmt.Errorf("unknown identity provider: %s", cfg.Provider)
	}
}
