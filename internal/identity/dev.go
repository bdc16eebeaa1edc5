package identity

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

const (
	// EnvDevUserID is the environment variable consulted on every request
	// to the dev provider.
	EnvDevUserID = "DEV_USER_ID"

	// DefaultDevSubject is the identity reported when EnvDevUserID is unset.
	DefaultDevSubject = "dev-user"
)

// DevProvider accepts every request without looking at the credential.
// It exists for local development, where real authentication only gets
// in the way of iterating on agent behavior.
type DevProvider struct {
	logger *logrus.Logger
}

// NewDevProvider creates the permissive development provider.
func NewDevProvider(log *logrus.Logger) *DevProvider {
	return &DevProvider{logger: log}
}

// Authenticate resolves the identity from the DEV_USER_ID environment
// variable, falling back to DefaultDevSubject when the variable is unset.
// The environment is read on every call, so the reported identity can
// change between requests without a restart. The credential is never
// inspected and this method never fails.
func (p *DevProvider) Authenticate(_ context.Context, _ string) (*Identity, error) {
	subject, ok := os.LookupEnv(EnvDevUserID)
	if !ok {
		subject = DefaultDevSubject
	}

	p.logger.WithFields(logrus.Fields{
		"provider": ProviderDev,
		"identity": subject,
	}).Debug("Resolved development identity")

	return &Identity{Subject: subject}, nil
}

// Name reports the provider name used in configuration and logs.
func (p *DevProvider) Name() string {
	return ProviderDev
}
