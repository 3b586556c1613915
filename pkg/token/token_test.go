package token

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.sablewire.io/engine/pkg/brigade"
)

// lvParser collects length-prefixed values: one length byte, then that
// many payload bytes, until a zero length byte ends the stream.
type lvParser struct {
	sawLen bool
	values [][]byte
}

func (p *lvParser) step(v Value) (Next, error) {
	if !p.sawLen {
		if v.Bytes != nil {
			if v.Bytes[0] == 0 {
				return Next{Op: OpDone}, nil
			}
			p.sawLen = true
			return Next{Op: OpCopyBrigade, Len: int(v.Bytes[0])}, nil
		}
		// initial call
		return Next{Op: OpCopyBytes, Len: 1}, nil
	}
	p.sawLen = false
	p.values = append(p.values, v.Brigade.Bytes())
	return Next{Op: OpCopyBytes, Len: 1}, nil
}

func TestRunParsesWholeInput(t *testing.T) {
	in := brigade.New()
	in.Append([]byte{2, 0xAA, 0xBB, 3, 1, 2, 3, 0})

	p := &lvParser{}
	tok := New(p.step)

	done, err := tok.Run(in)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, [][]byte{{0xAA, 0xBB}, {1, 2, 3}}, p.values)
	assert.Equal(t, 0, in.Size())
}

func TestRunSuspendsAndResumesByteAtATime(t *testing.T) {
	input := []byte{2, 0xAA, 0xBB, 3, 1, 2, 3, 0}

	in := brigade.New()
	p := &lvParser{}
	tok := New(p.step)

	for i, b := range input {
		in.Append([]byte{b})
		done, err := tok.Run(in)
		require.NoError(t, err)
		if i < len(input)-1 {
			assert.False(t, done, "must stay suspended at byte %d", i)
		} else {
			assert.True(t, done)
		}
	}
	assert.Equal(t, [][]byte{{0xAA, 0xBB}, {1, 2, 3}}, p.values)
}

func TestRunDeliversEachByteExactlyOnce(t *testing.T) {
	// feed in two chunks straddling a value boundary
	p := &lvParser{}
	tok := New(p.step)
	in := brigade.New()

	in.Append([]byte{3, 1})
	done, err := tok.Run(in)
	require.NoError(t, err)
	assert.False(t, done)

	in.Append([]byte{2, 3, 0})
	done, err = tok.Run(in)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, [][]byte{{1, 2, 3}}, p.values)
}

func TestRunSkip(t *testing.T) {
	calls := 0
	step := func(v Value) (Next, error) {
		calls++
		switch calls {
		case 1:
			return Next{Op: OpSkip, Len: 4}, nil
		case 2:
			assert.Nil(t, v.Bytes)
			assert.Nil(t, v.Brigade)
			return Next{Op: OpCopyBytes, Len: 1}, nil
		default:
			assert.Equal(t, []byte{5}, v.Bytes)
			return Next{Op: OpDone}, nil
		}
	}

	in := brigade.New()
	in.Append([]byte{1, 2, 3, 4, 5})
	done, err := New(step).Run(in)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 0, in.Size())
}

func TestRunRejectsOversizedCopyBytes(t *testing.T) {
	step := func(v Value) (Next, error) {
		return Next{Op: OpCopyBytes, Len: MaxCopyBytes + 1}, nil
	}
	in := brigade.New()
	in.Append(make([]byte, 512))

	_, err := New(step).Run(in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestRunPropagatesStepError(t *testing.T) {
	boom := errors.New("boom")
	step := func(v Value) (Next, error) {
		if v.Bytes != nil {
			return Next{}, boom
		}
		return Next{Op: OpCopyBytes, Len: 1}, nil
	}
	in := brigade.New()
	in.Append([]byte{1})

	_, err := New(step).Run(in)
	assert.ErrorIs(t, err, boom)
}
