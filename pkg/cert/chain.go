package cert

import (
	"github.com/emirpasic/gods/lists/doublylinkedlist"
)

// Chain holds peer certificates in peer-to-root order: entry 0 is the
// leaf. Certificates are owned by the chain until removed.
type Chain struct {
	list *doublylinkedlist.List
}

// NewChain returns an empty chain.
func NewChain() *Chain {
	return &Chain{list: doublylinkedlist.New()}
}

// Count returns the number of certificates in the chain.
func (cc *Chain) Count() int {
	return cc.list.Size()
}

// Entry returns the certificate at offset, leaf first, or nil when
// offset is out of range.
func (cc *Chain) Entry(offset int) *Cert {
	v, ok := cc.list.Get(offset)
	if !ok {
		return nil
	}
	return v.(*Cert)
}

// Append adds c at the root end of the chain.
func (cc *Chain) Append(c *Cert) {
	cc.list.Add(c)
}

// Remove detaches c from the chain and hands ownership back to the
// caller; the chain remains well-formed. It reports whether c was a
// member.
func (cc *Chain) Remove(c *Cert) bool {
	idx := cc.list.IndexOf(c)
	if idx < 0 {
		return false
	}
	cc.list.Remove(idx)
	return true
}

// Clear destroys every member and empties the chain.
func (cc *Chain) Clear() {
	it := cc.list.Iterator()
	for it.Next() {
		it.Value().(*Cert).Close()
	}
	cc.list.Clear()
}

// Close clears the chain. The chain must not be used afterwards.
func (cc *Chain) Close() {
	cc.Clear()
}
