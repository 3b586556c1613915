package engine

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func selfSignedPEM(t *testing.T) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(99),
		Subject:               pkix.Name{CommonName: "anchor.test"},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func TestUseReasonableDefaults(t *testing.T) {
	conf := NewConf(zap.NewNop())
	require.NoError(t, conf.UseReasonableDefaults())

	assert.NotEmpty(t, conf.CipherSuites())
	assert.NotEmpty(t, conf.Protocols())
	assert.NotNil(t, conf.Roots())

	// applying defaults again is a no-op
	suites := conf.CipherSuites()
	require.NoError(t, conf.UseReasonableDefaults())
	assert.Equal(t, suites, conf.CipherSuites())
}

func TestCipherSuitesReturnsCopy(t *testing.T) {
	conf := NewConf(zap.NewNop())
	require.NoError(t, conf.UseReasonableDefaults())

	a := conf.CipherSuites()
	a[0] = 0
	assert.NotEqual(t, a[0], conf.CipherSuites()[0])
}

func TestTrustCertPEM(t *testing.T) {
	conf := NewConf(zap.NewNop())
	require.NoError(t, conf.TrustCertPEM(selfSignedPEM(t)))
}

func TestTrustCertPEMRejectsGarbage(t *testing.T) {
	conf := NewConf(zap.NewNop())
	err := conf.TrustCertPEM([]byte("not a pem"))
	require.Error(t, err)
}

func TestConfSharedByManySessions(t *testing.T) {
	conf := NewConf(zap.NewNop())
	require.NoError(t, conf.UseReasonableDefaults())

	a, err := Client(conf)
	require.NoError(t, err)
	b, err := Server(conf)
	require.NoError(t, err)

	require.NoError(t, a.Start())
	require.NoError(t, b.Start())
	require.NoError(t, a.Close())
	require.NoError(t, b.Close())
	require.NoError(t, conf.Close())
}
