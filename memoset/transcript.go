package memoset

import (
	"fmt"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/lurk-lab/memoset/store"
)

// Transcript is spec.md §4.B's append-only, content-addressed, right-nested
// list. Records are prepended: Add(item) conses item onto the front, so the
// native-time order of Add calls is reversed in the list's natural
// traversal. That does not affect correctness -- the randomness r is a hash
// of the resulting list, not a traversal of it -- but anything that prints
// or walks the list must account for it.
type Transcript struct {
	s   *store.Store
	acc store.Ptr
}

// NewTranscript returns an empty transcript (the store's nil).
func NewTranscript(s *store.Store) *Transcript {
	return &Transcript{s: s, acc: s.InternNil()}
}

// Add prepends item to the transcript.
func (t *Transcript) Add(item store.Ptr) {
	t.acc = t.s.Cons(item, t.acc)
}

// MakeKV builds an insertion record: (key . value).
func MakeKV(s *store.Store, key, value store.Ptr) store.Ptr {
	return s.Cons(key, value)
}

// MakeKVCount builds a removal record: (kv . count), with count embedded as
// a numeric atom.
func MakeKVCount(s *store.Store, kv store.Ptr, count uint64) store.Ptr {
	var f fr.Element
	f.SetUint64(count)
	return s.Cons(kv, s.NumElement(f))
}

// R returns the Fiat-Shamir randomness: the hash component of the
// transcript's top-level cons. The transcript must be non-empty and its
// head a cons; violating that is a programmer error, matching spec.md
// §4.B's "the implementation asserts this".
func (t *Transcript) R() fr.Element {
	z := t.s.HashPtr(t.acc)
	if z.Tag != store.TagCons {
		panic(fmt.Sprintf("memoset: transcript is empty or malformed (head tag=%s)", z.Tag))
	}
	return z.Value
}

// Ptr exposes the transcript's underlying list pointer, e.g. for debug
// printing or to embed in another cons.
func (t *Transcript) Ptr() store.Ptr { return t.acc }

// Clone returns an independent copy sharing the same store.
func (t *Transcript) Clone() *Transcript {
	return &Transcript{s: t.s, acc: t.acc}
}

// String renders the transcript's list structure for debug logging,
// following the prepend order described in Add's doc comment (i.e. the
// reverse of native-time insertion order). Standing in for the original's
// Transcript::dbg/fmt_to_string_simple (SPEC_FULL.md §4.1).
func (t *Transcript) String() string {
	var b strings.Builder
	b.WriteByte('(')
	p := t.acc
	first := true
	for {
		z := t.s.HashPtr(p)
		if z.Tag != store.TagCons {
			break
		}
		item, rest, err := t.s.CarCdr(p)
		if err != nil {
			break
		}
		if !first {
			b.WriteByte(' ')
		}
		first = false
		fmt.Fprintf(&b, "%v", item)
		p = rest
	}
	b.WriteByte(')')
	return b.String()
}
