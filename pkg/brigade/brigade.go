// Package brigade implements the engine's universal bytestream
// representation: an ordered sequence of byte buckets with cheap
// concat and consume-from-head operations.
package brigade

import "errors"

// ErrNotEnough indicates the brigade holds fewer bytes than requested.
// It is a wait-for-more condition, not a protocol failure; callers feed
// more bytes and retry.
var ErrNotEnough = errors.New("brigade: not enough bytes buffered")

// Brigade is an ordered sequence of byte buckets. The zero value is not
// usable; call New.
type Brigade struct {
	buckets [][]byte
	size    int
}

// New returns an empty brigade.
func New() *Brigade {
	return &Brigade{}
}

// Append copies p into a new bucket at the tail. The caller keeps
// ownership of p and may reuse it.
func (b *Brigade) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	bucket := make([]byte, len(p))
	copy(bucket, p)
	b.buckets = append(b.buckets, bucket)
	b.size += len(bucket)
}

// Concat moves every bucket of other to the tail of b, preserving
// order. other is empty afterwards.
func (b *Brigade) Concat(other *Brigade) {
	if other == nil || other.size == 0 {
		return
	}
	b.buckets = append(b.buckets, other.buckets...)
	b.size += other.size
	other.buckets = nil
	other.size = 0
}

// Size returns the number of buffered bytes: everything appended minus
// everything consumed.
func (b *Brigade) Size() int {
	return b.size
}

// Consume removes exactly n bytes from the head and returns them as a
// single contiguous slice. If fewer than n bytes are buffered it
// returns ErrNotEnough and consumes nothing. n == 0 is a no-op.
func (b *Brigade) Consume(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if n > b.size {
		return nil, ErrNotEnough
	}
	out := make([]byte, n)
	b.drain(out)
	return out, nil
}

// ConsumeBrigade removes exactly n bytes from the head and returns them
// as a new brigade, moving whole buckets where possible. If fewer than
// n bytes are buffered it returns ErrNotEnough and consumes nothing.
func (b *Brigade) ConsumeBrigade(n int) (*Brigade, error) {
	if n > b.size {
		return nil, ErrNotEnough
	}
	out := New()
	for n > 0 {
		head := b.buckets[0]
		if len(head) <= n {
			out.buckets = append(out.buckets, head)
			out.size += len(head)
			b.buckets = b.buckets[1:]
			b.size -= len(head)
			n -= len(head)
			continue
		}
		// split the head bucket
		out.buckets = append(out.buckets, head[:n:n])
		out.size += n
		b.buckets[0] = head[n:]
		b.size -= n
		n = 0
	}
	return out, nil
}

// Skip discards exactly n bytes from the head. If fewer than n bytes
// are buffered it returns ErrNotEnough and discards nothing.
func (b *Brigade) Skip(n int) error {
	if n > b.size {
		return ErrNotEnough
	}
	_, err := b.ConsumeBrigade(n)
	return err
}

// Peek copies the first n bytes without consuming them. If fewer than n
// bytes are buffered it returns ErrNotEnough.
func (b *Brigade) Peek(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if n > b.size {
		return nil, ErrNotEnough
	}
	out := make([]byte, 0, n)
	for _, bucket := range b.buckets {
		remain := n - len(out)
		if remain <= 0 {
			break
		}
		if len(bucket) > remain {
			bucket = bucket[:remain]
		}
		out = append(out, bucket...)
	}
	return out, nil
}

// Drain copies up to len(dst) bytes from the head into dst, consuming
// them. It returns the number of bytes copied and the number still
// buffered afterwards. Drain never fails; a full brigade is emptied by
// calling it in a tight loop.
func (b *Brigade) Drain(dst []byte) (int, int) {
	return b.drain(dst)
}

func (b *Brigade) drain(dst []byte) (int, int) {
	n := 0
	for n < len(dst) && len(b.buckets) > 0 {
		head := b.buckets[0]
		m := copy(dst[n:], head)
		n += m
		b.size -= m
		if m == len(head) {
			b.buckets = b.buckets[1:]
		} else {
			b.buckets[0] = head[m:]
		}
	}
	return n, b.size
}

// Bytes returns a copy of the full buffered content without consuming it.
func (b *Brigade) Bytes() []byte {
	out, _ := b.Peek(b.size)
	return out
}
