package server

import (
	"crypto/tls"
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/smartap-lifecycle/internal/logging"
)

// NewTLSConfig loads a certificate for the local configuration server.
// The network processor's TLS stack stops at 1.2, so the server does too.
func NewTLSConfig(certPath, keyPath string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	logging.Info("TLS configuration created from files",
		zap.String("cert", certPath),
		zap.String("key", keyPath),
		zap.String("tls_version", "1.2 only"),
	)

	return buildTLSConfig(cert), nil
}

// NewTLSConfigFromMemory is NewTLSConfig for PEM data already in memory.
func NewTLSConfigFromMemory(certPEM, keyPEM []byte) (*tls.Config, error) {
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate from memory: %w", err)
	}
	return buildTLSConfig(cert), nil
}

func buildTLSConfig(cert tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		MaxVersion:   tls.VersionTLS12,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA,
			tls.TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA,
		},
		VerifyConnection: func(cs tls.ConnectionState) error {
			logging.Debug("TLS handshake",
				zap.String("server_name", cs.ServerName),
				zap.String("version", tls.VersionName(cs.Version)),
				zap.String("cipher_suite", tls.CipherSuiteName(cs.CipherSuite)),
			)
			return nil
		},
	}
}

// GetTLSInfo returns human-readable TLS configuration information
func GetTLSInfo(config *tls.Config) map[string]interface{} {
	names := make([]string, 0, len(config.CipherSuites))
	for _, id := range config.CipherSuites {
		names = append(names, tls.CipherSuiteName(id))
	}

	return map[string]interface{}{
		"min_version":   tls.VersionName(config.MinVersion),
		"max_version":   tls.VersionName(config.MaxVersion),
		"cipher_suites": names,
		"num_certs":     len(config.Certificates),
	}
}
