// Package cert wraps X.509 certificates surfaced during a handshake in
// lazily populated views: fingerprints, validity windows, name records
// and DNS subjectAltNames, plus the leaf-first chain container.
package cert

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/x509"
	"time"

	"go.uber.org/zap"
)

// maxAttrLen caps a single copied name attribute, matching the engine's
// wire-facing bounds on distinguished-name text.
const maxAttrLen = 1024

const timeLayout = "Jan _2 15:04:05 2006"

// Cert wraps one X.509 certificate and its depth within the peer
// chain (0 is the leaf). All derived views are computed on first
// request and cached; accessors never fail. A Cert is not safe for
// concurrent use, matching the per-session threading contract.
type Cert struct {
	logger *zap.Logger
	x509   *x509.Certificate
	depth  int

	// Each cache pairs its value with a computed flag so "absent" is
	// distinguishable from "not yet computed".
	fpSHA1       string
	fpSHA1Done   bool
	fpMD5        string
	fpMD5Done    bool
	notBeforeTS  int64
	notAfterTS   int64
	notBeforeStr string
	notAfterStr  string
	expiresDone  bool
	subject      *Name
	subjectDone  bool
	issuer       *Name
	issuerDone   bool
	altNames     []string
	altNamesDone bool
}

// New wraps x at the given chain depth without copying it. The Cert
// takes ownership of the handle.
func New(logger *zap.Logger, x *x509.Certificate, depth int) *Cert {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cert{logger: logger, x509: x, depth: depth}
}

// Depth returns the certificate's position in its chain; 0 is the leaf.
func (c *Cert) Depth() int {
	return c.depth
}

// Version returns the human certificate version: 3 for an X.509v3
// certificate. The underlying encoding stores version minus one; the
// parsed handle already carries the biased value.
func (c *Cert) Version() int {
	return c.x509.Version
}

// Raw returns the DER encoding of the wrapped certificate.
func (c *Cert) Raw() []byte {
	return c.x509.Raw
}

// FingerprintSHA1 returns the SHA-1 digest of the DER encoding as
// colon-separated uppercase hex.
func (c *Cert) FingerprintSHA1() string {
	if !c.fpSHA1Done {
		sum := sha1.Sum(c.x509.Raw)
		c.fpSHA1 = fingerprintHex(sum[:])
		c.fpSHA1Done = true
	}
	return c.fpSHA1
}

// FingerprintMD5 returns the MD5 digest of the DER encoding as
// colon-separated uppercase hex.
func (c *Cert) FingerprintMD5() string {
	if !c.fpMD5Done {
		sum := md5.Sum(c.x509.Raw)
		c.fpMD5 = fingerprintHex(sum[:])
		c.fpMD5Done = true
	}
	return c.fpMD5
}

const hexDigits = "0123456789ABCDEF"

func fingerprintHex(md []byte) string {
	if len(md) == 0 {
		return ""
	}
	out := make([]byte, 0, 3*len(md)-1)
	for i, b := range md {
		if i > 0 {
			out = append(out, ':')
		}
		out = append(out, hexDigits[b>>4], hexDigits[b&0x0f])
	}
	return string(out)
}

func (c *Cert) generateExpires() {
	c.notBeforeTS = c.x509.NotBefore.Unix()
	c.notAfterTS = c.x509.NotAfter.Unix()
	c.notBeforeStr = formatValidity(c.x509.NotBefore)
	c.notAfterStr = formatValidity(c.x509.NotAfter)
	c.expiresDone = true
}

// formatValidity renders a validity bound the way ASN1_TIME_print
// does, e.g. "Jun  4 11:04:38 2029 GMT".
func formatValidity(t time.Time) string {
	return t.UTC().Format(timeLayout) + " GMT"
}

// NotBefore returns the start of the validity window as POSIX seconds.
func (c *Cert) NotBefore() int64 {
	if !c.expiresDone {
		c.generateExpires()
	}
	return c.notBeforeTS
}

// NotAfter returns the end of the validity window as POSIX seconds.
func (c *Cert) NotAfter() int64 {
	if !c.expiresDone {
		c.generateExpires()
	}
	return c.notAfterTS
}

// NotBeforeStr returns the printable start of the validity window.
func (c *Cert) NotBeforeStr() string {
	if !c.expiresDone {
		c.generateExpires()
	}
	return c.notBeforeStr
}

// NotAfterStr returns the printable end of the validity window.
func (c *Cert) NotAfterStr() string {
	if !c.expiresDone {
		c.generateExpires()
	}
	return c.notAfterStr
}

// Subject returns the subject name record. The same record is returned
// on every call.
func (c *Cert) Subject() *Name {
	if !c.subjectDone {
		c.subject = nameFromPKIX(c.x509.Subject)
		c.subjectDone = true
	}
	return c.subject
}

// Issuer returns the issuer name record. The same record is returned
// on every call.
func (c *Cert) Issuer() *Name {
	if !c.issuerDone {
		c.issuer = nameFromPKIX(c.x509.Issuer)
		c.issuerDone = true
	}
	return c.issuer
}

func (c *Cert) generateAltNames() {
	// DNS entries only; IP, URI and other general-name kinds are
	// skipped at this layer.
	names := make([]string, 0, len(c.x509.DNSNames))
	for _, n := range c.x509.DNSNames {
		names = append(names, n)
	}
	c.altNames = names
	c.altNamesDone = true
	c.logger.Debug("populated subjectAltNames",
		zap.Int("depth", c.depth),
		zap.Int("count", len(names)),
	)
}

// AltNamesCount returns the number of DNS subjectAltName entries.
func (c *Cert) AltNamesCount() int {
	if !c.altNamesDone {
		c.generateAltNames()
	}
	return len(c.altNames)
}

// AltNamesEntry returns the DNS subjectAltName at offset, or "" when
// offset is out of range.
func (c *Cert) AltNamesEntry(offset int) string {
	if !c.altNamesDone {
		c.generateAltNames()
	}
	if offset < 0 || offset >= len(c.altNames) {
		return ""
	}
	return c.altNames[offset]
}

// Close releases the cached views and the wrapped handle.
func (c *Cert) Close() {
	c.fpSHA1, c.fpMD5 = "", ""
	c.fpSHA1Done, c.fpMD5Done = false, false
	c.notBeforeStr, c.notAfterStr = "", ""
	c.notBeforeTS, c.notAfterTS = 0, 0
	c.expiresDone = false
	c.subject, c.issuer = nil, nil
	c.subjectDone, c.issuerDone = false, false
	c.altNames = nil
	c.altNamesDone = false
	c.x509 = nil
}
