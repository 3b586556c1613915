package cert

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeChain(t *testing.T, n int) (*Chain, []*Cert) {
	t.Helper()
	cc := NewChain()
	certs := make([]*Cert, 0, n)
	for depth := 0; depth < n; depth++ {
		crt := makeFixture(t, &x509.Certificate{
			SerialNumber: big.NewInt(int64(depth + 1)),
			Subject:      pkix.Name{CommonName: fmt.Sprintf("depth-%d.test", depth)},
			NotBefore:    time.Now(),
			NotAfter:     time.Now().Add(time.Hour),
		})
		c := New(nil, crt, depth)
		cc.Append(c)
		certs = append(certs, c)
	}
	return cc, certs
}

func TestChainCountAndEntries(t *testing.T) {
	cc, certs := makeChain(t, 3)
	defer cc.Close()

	require.Equal(t, 3, cc.Count())
	for i := 0; i < 3; i++ {
		entry := cc.Entry(i)
		require.NotNil(t, entry, "entry %d", i)
		assert.Equal(t, i, entry.Depth())
		assert.Same(t, certs[i], entry)
	}
	assert.Nil(t, cc.Entry(3))
	assert.Nil(t, cc.Entry(-1))
}

func TestChainEmpty(t *testing.T) {
	cc := NewChain()
	assert.Equal(t, 0, cc.Count())
	assert.Nil(t, cc.Entry(0))
}

func TestChainRemoveHandsOwnershipBack(t *testing.T) {
	cc, certs := makeChain(t, 3)
	defer cc.Close()

	require.True(t, cc.Remove(certs[1]))
	assert.Equal(t, 2, cc.Count())
	assert.Same(t, certs[0], cc.Entry(0))
	assert.Same(t, certs[2], cc.Entry(1))

	// the removed cert is still usable by its new owner
	assert.NotEmpty(t, certs[1].FingerprintSHA1())

	// removing again is a no-op
	assert.False(t, cc.Remove(certs[1]))
}

func TestChainClear(t *testing.T) {
	cc, _ := makeChain(t, 2)
	cc.Clear()
	assert.Equal(t, 0, cc.Count())
	assert.Nil(t, cc.Entry(0))
}
