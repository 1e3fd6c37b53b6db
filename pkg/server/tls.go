package server

import (
	"crypto/tls"
	_ "embed"
	"fmt"
)

var (
	//go:embed cert/server.crt
	bundledCert []byte
	//go:embed cert/server.key
	bundledKey []byte
)

// TLSConfig returns a TLS configuration using the bundled localhost key pair.
func TLSConfig() (*tls.Config, error) {
	cert, err := tls.X509KeyPair(bundledCert, bundledKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load bundled certificate: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
