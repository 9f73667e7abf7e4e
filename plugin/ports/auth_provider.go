package ports

import "context"

// AuthProvider retrieves credentials for OCI registries hosting manifests.
type AuthProvider interface {
	// GetCredentials returns (username, password, error). An empty username
	// means anonymous access.
	GetCredentials(ctx context.Context, registry string) (string, string, error)
}
