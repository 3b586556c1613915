// Package engine ties the record layer, the event bus and the four I/O
// surfaces into per-connection sessions driven entirely by the host's
// socket loop. The engine itself never touches the network.
package engine

import (
	"crypto/tls"
	"crypto/x509"
	"sync"

	"github.com/cloudflare/cfssl/helpers"
	"go.uber.org/zap"

	"go.sablewire.io/engine/pkg/models"
)

// The system trust store is loaded once per process; configurations
// clone it so each stays independently extensible.
var (
	systemPoolOnce sync.Once
	systemPool     *x509.CertPool
	systemPoolErr  error
)

// Conf is app-scoped configuration shared by many sessions. It must be
// fully populated before the first session is created and is treated as
// read-only afterwards; it outlives every session it created.
type Conf struct {
	logger *zap.Logger

	roots           *x509.CertPool
	cipherSuites    []uint16
	protocols       []models.Version
	defaultsApplied bool
}

// NewConf returns an empty configuration logging through logger.
func NewConf(logger *zap.Logger) *Conf {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Conf{
		logger: logger,
		roots:  x509.NewCertPool(),
	}
}

func defaultCipherSuites() []uint16 {
	return []uint16{
		tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
		tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
		tls.TLS_RSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_RSA_WITH_AES_256_GCM_SHA384,
	}
}

// UseReasonableDefaults populates the trust store from the system pool
// and installs the default cipher and protocol preferences. Calling it
// again is a no-op.
func (c *Conf) UseReasonableDefaults() error {
	if c.defaultsApplied {
		return nil
	}

	systemPoolOnce.Do(func() {
		systemPool, systemPoolErr = x509.SystemCertPool()
	})
	if systemPoolErr != nil {
		// An empty trust store is still usable for anchors added by
		// TrustCertPEM.
		c.logger.Warn("system trust store unavailable", zap.Error(systemPoolErr))
	} else {
		c.roots = systemPool.Clone()
	}

	c.cipherSuites = defaultCipherSuites()
	c.protocols = []models.Version{
		models.VersionTLS12,
		models.VersionTLS11,
		models.VersionTLS10,
	}
	c.defaultsApplied = true
	return nil
}

// TrustCertPEM adds every certificate in pemBytes as a trust anchor.
func (c *Conf) TrustCertPEM(pemBytes []byte) error {
	certs, err := helpers.ParseCertificatesPEM(pemBytes)
	if err != nil {
		return models.Errorf(models.KindInval, "failed to parse trust anchor: %v", err)
	}
	for _, crt := range certs {
		c.roots.AddCert(crt)
	}
	c.logger.Debug("added trust anchors", zap.Int("count", len(certs)))
	return nil
}

// CipherSuites returns a copy of the configured cipher preferences.
func (c *Conf) CipherSuites() []uint16 {
	out := make([]uint16, len(c.cipherSuites))
	copy(out, c.cipherSuites)
	return out
}

// Protocols returns a copy of the configured protocol preference list.
func (c *Conf) Protocols() []models.Version {
	out := make([]models.Version, len(c.protocols))
	copy(out, c.protocols)
	return out
}

// Roots returns the configured trust anchors.
func (c *Conf) Roots() *x509.CertPool {
	return c.roots
}

// Close releases the configuration. Sessions created from it must be
// closed first.
func (c *Conf) Close() error {
	c.roots = nil
	c.cipherSuites = nil
	c.protocols = nil
	return nil
}
