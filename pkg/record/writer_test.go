package record

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go.sablewire.io/engine/pkg/brigade"
	"go.sablewire.io/engine/pkg/models"
)

func TestWriteFramesHeaderAndPayload(t *testing.T) {
	out := brigade.New()
	Write(out, models.ContentHandshake, models.VersionTLS10, []byte{0x01, 0x02, 0x03})

	assert.Equal(t, []byte{0x16, 0x03, 0x01, 0x00, 0x03, 0x01, 0x02, 0x03}, out.Bytes())
}

func TestWriteEmptyPayload(t *testing.T) {
	out := brigade.New()
	Write(out, models.ContentApplicationData, models.VersionTLS12, nil)

	assert.Equal(t, []byte{0x17, 0x03, 0x03, 0x00, 0x00}, out.Bytes())
}

func TestWriteFragmentsOversizedPayload(t *testing.T) {
	payload := bytes.Repeat([]byte{0x5A}, models.MaxRecordPayload+10)
	out := brigade.New()
	Write(out, models.ContentApplicationData, models.VersionTLS12, payload)

	// two records: a full one and the 10-byte tail
	assert.Equal(t, 2*models.RecordHeaderLen+len(payload), out.Size())

	hdr, err := out.Consume(models.RecordHeaderLen)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x17, 0x03, 0x03, 0x40, 0x00}, hdr)
	require.NoError(t, out.Skip(models.MaxRecordPayload))

	hdr, err = out.Consume(models.RecordHeaderLen)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x17, 0x03, 0x03, 0x00, 0x0A}, hdr)
}

func TestWriteAlertRoundTrip(t *testing.T) {
	out := brigade.New()
	WriteAlert(out, models.VersionTLS10, models.AlertLevelFatal, models.AlertDecodeError)

	sink := newCollectSink()
	r := NewReader(zap.NewNop(), sink)
	require.NoError(t, r.Read(out))

	assert.Equal(t, [][2]byte{{models.AlertLevelFatal, models.AlertDecodeError}}, sink.alerts)
}

func TestWriteReadRoundTrip(t *testing.T) {
	payload := []byte("attack at dawn")
	out := brigade.New()
	Write(out, models.ContentApplicationData, models.VersionTLS12, payload)

	sink := newCollectSink()
	r := NewReader(zap.NewNop(), sink)
	require.NoError(t, r.Read(out))

	assert.Equal(t, payload, sink.appData.Bytes())
	v, ok := r.PeerVersion()
	require.True(t, ok)
	assert.Equal(t, models.VersionTLS12, v)
}
