package record

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"go.sablewire.io/engine/pkg/brigade"
	"go.sablewire.io/engine/pkg/models"
)

// Handshake message types used by the engine.
const (
	HandshakeClientHello byte = 1
)

// Extension numbers (RFC 6066, RFC 7301).
const (
	extServerName uint16 = 0
	extALPN       uint16 = 16
)

// ClientHello describes the initial handshake message a client session
// emits on start.
type ClientHello struct {
	Version      models.Version
	Random       [32]byte
	CipherSuites []uint16
	// ServerName carries the name indication; empty omits the extension.
	ServerName string
	// Protocols carries the next-protocol names; empty omits the ALPN
	// extension.
	Protocols []string
}

// NewClientHello builds a hello with a fresh random and the given
// cipher preferences.
func NewClientHello(suites []uint16) (*ClientHello, error) {
	h := &ClientHello{
		Version:      models.VersionTLS12,
		CipherSuites: suites,
	}
	if _, err := rand.Read(h.Random[:]); err != nil {
		return nil, fmt.Errorf("failed to draw client random: %w", err)
	}
	return h, nil
}

// Marshal encodes the hello as a handshake message: one type byte, a
// 24-bit length, then the body.
func (h *ClientHello) Marshal() []byte {
	body := h.marshalBody()
	msg := make([]byte, 0, 4+len(body))
	msg = append(msg, HandshakeClientHello)
	msg = append(msg, byte(len(body)>>16), byte(len(body)>>8), byte(len(body)))
	return append(msg, body...)
}

func (h *ClientHello) marshalBody() []byte {
	var b []byte
	b = append(b, h.Version.Major, h.Version.Minor)
	b = append(b, h.Random[:]...)
	// empty session id
	b = append(b, 0)

	b = appendUint16(b, uint16(2*len(h.CipherSuites)))
	for _, cs := range h.CipherSuites {
		b = appendUint16(b, cs)
	}

	// null compression only
	b = append(b, 1, 0)

	exts := h.marshalExtensions()
	if len(exts) > 0 {
		b = appendUint16(b, uint16(len(exts)))
		b = append(b, exts...)
	}
	return b
}

func (h *ClientHello) marshalExtensions() []byte {
	var b []byte

	if h.ServerName != "" {
		name := []byte(h.ServerName)
		// server_name_list: one host_name entry
		entry := make([]byte, 0, 3+len(name))
		entry = append(entry, 0) // name_type host_name
		entry = appendUint16(entry, uint16(len(name)))
		entry = append(entry, name...)

		b = appendUint16(b, extServerName)
		b = appendUint16(b, uint16(2+len(entry)))
		b = appendUint16(b, uint16(len(entry)))
		b = append(b, entry...)
	}

	if len(h.Protocols) > 0 {
		var list []byte
		for _, p := range h.Protocols {
			list = append(list, byte(len(p)))
			list = append(list, p...)
		}
		b = appendUint16(b, extALPN)
		b = appendUint16(b, uint16(2+len(list)))
		b = appendUint16(b, uint16(len(list)))
		b = append(b, list...)
	}

	return b
}

// WriteClientHello frames the hello into handshake records on out.
func WriteClientHello(out *brigade.Brigade, h *ClientHello) {
	Write(out, models.ContentHandshake, models.VersionTLS10, h.Marshal())
}

func appendUint16(b []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(b, v)
}
