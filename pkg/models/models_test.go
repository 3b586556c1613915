package models

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorfCapturesSourceLocation(t *testing.T) {
	err := Errorf(KindInval, "Invalid content type: %d", 255)

	require.NotNil(t, err)
	assert.Equal(t, KindInval, err.Kind)
	assert.Equal(t, "Invalid content type: 255", err.Message)
	assert.True(t, strings.HasSuffix(err.File, "models_test.go"))
	assert.Greater(t, err.Line, 0)
	assert.Contains(t, err.Error(), "EINVAL")
	assert.Contains(t, err.Error(), "models_test.go")
}

func TestIsKind(t *testing.T) {
	err := Errorf(KindBadState, "cannot start a running session")

	assert.True(t, IsKind(err, KindBadState))
	assert.False(t, IsKind(err, KindInval))
	assert.False(t, IsKind(nil, KindBadState))

	wrapped := fmt.Errorf("while starting: %w", err)
	assert.True(t, IsKind(wrapped, KindBadState))
}

func TestContentTypeValid(t *testing.T) {
	for _, ct := range []ContentType{ContentChangeCipherSpec, ContentAlert, ContentHandshake, ContentApplicationData} {
		assert.True(t, ct.Valid(), ct.String())
	}
	assert.False(t, ContentType(0).Valid())
	assert.False(t, ContentType(24).Valid())
	assert.False(t, ContentType(255).Valid())
}

func TestEventStrings(t *testing.T) {
	assert.Equal(t, "IO_OUT_ENC", EventIOOutEnc.String())
	assert.Equal(t, "IO_OUT_CLEAR", EventIOOutClear.String())
	assert.Equal(t, "LOG_MSG", EventLogMsg.String())
	assert.Equal(t, "UNKNOWN", Event(42).String())
}

func TestEventValuesAreStable(t *testing.T) {
	// wire/API compatibility: these values must never be renumbered
	assert.Equal(t, Event(1), EventIOOutEnc)
	assert.Equal(t, Event(2), EventIOOutClear)
	assert.Equal(t, Event(3), EventIOInEnc)
	assert.Equal(t, Event(4), EventIOInClear)
	assert.Equal(t, Event(5), EventLogMsg)
}

func TestVersionString(t *testing.T) {
	assert.Equal(t, "3.1", VersionTLS10.String())
	assert.Equal(t, "3.3", VersionTLS12.String())
}
