package netutil

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net/http"
	"time"
)

// TLSConfig returns the TLS configuration used for manifest downloads:
// TLS 1.2 minimum with AEAD cipher suites only.
func TLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		CipherSuites: []uint16{
			// TLS 1.2 suites; TLS 1.3 suites are not configurable.
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
		},
	}
}

// InsecureTLSConfig returns a TLS configuration that skips certificate verification.
// Only used after the user opted in with --insecure.
func InsecureTLSConfig() *tls.Config {
	cfg := TLSConfig()
	cfg.InsecureSkipVerify = true //nolint:gosec // explicit user opt-in
	return cfg
}

// IsCertificateError reports whether err is a TLS certificate
// verification failure.
func IsCertificateError(err error) bool {
	if err == nil {
		return false
	}
	var (
		verifyErr   *tls.CertificateVerificationError
		unknownAuth x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		invalidCert x509.CertificateInvalidError
		systemRoots x509.SystemRootsError
	)
	return errors.As(err, &verifyErr) ||
		errors.As(err, &unknownAuth) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidCert) ||
		errors.As(err, &systemRoots)
}

// ClientOptions configures NewHTTPClient.
type ClientOptions struct {
	OnRetry    func(attempt int, waitDuration time.Duration, statusCode int)
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	Insecure   bool
}

// NewHTTPClient builds a client with the manifest TLS settings wrapped in
// a RetryTransport. Requests carry UserAgent, or DefaultUserAgent.
func NewHTTPClient(opts ClientOptions) *http.Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Insecure {
		base.TLSClientConfig = InsecureTLSConfig()
	} else {
		base.TLSClientConfig = TLSConfig()
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &UserAgentTransport{
			UserAgent: userAgent,
			Base: &RetryTransport{
				Base:       base,
				MaxRetries: opts.MaxRetries,
				OnRetry:    opts.OnRetry,
			},
		},
	}
}
