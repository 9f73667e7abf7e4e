package oci

import (
	"context"
	"os"
	"strings"
)

// EnvAuthProvider reads registry credentials from REGISTRY_USERNAME and
// REGISTRY_PASSWORD. When REGISTRY_HOST is set, credentials are only
// offered to that host.
type EnvAuthProvider struct {
	lookup func(string) string
}

// NewEnvAuthProvider creates a new environment-based auth provider.
func NewEnvAuthProvider() *EnvAuthProvider {
	return &EnvAuthProvider{lookup: os.Getenv}
}

// GetCredentials returns username and password for a registry.
func (p *EnvAuthProvider) GetCredentials(_ context.Context, registry string) (username, password string, err error) {
	if host := p.lookup("REGISTRY_HOST"); host != "" && !strings.EqualFold(host, registry) {
		return "", "", nil
	}
	return p.lookup("REGISTRY_USERNAME"), p.lookup("REGISTRY_PASSWORD"), nil
}
