package memoset

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/frontend"

	"github.com/lurk-lab/memoset/multiset"
	"github.com/lurk-lab/memoset/store"
)

// MemoSet is spec.md §4.C's native accumulator contract: a LogUp-style
// multiset representative A(M) = Σ 1/(r+x_i), with r derived by hashing the
// finalized transcript.
type MemoSet interface {
	Add(kv store.Ptr)
	Count(kv store.Ptr) uint64
	IsFinalized() bool
	FinalizeTranscript(s *store.Store, t *Transcript)
	R() (fr.Element, bool)
	MapToElement(s *store.Store, x fr.Element) (fr.Element, bool)
	ToCircuit(api frontend.API) (CircuitMemoSet, error)
}

// LogMemo is the concrete MemoSet: a MultiSet of record Ptrs plus the
// once-settable r and finalized Transcript (spec.md §3's "LogMemo state").
type LogMemo struct {
	multiset   *multiset.MultiSet[store.Ptr]
	r          onceCell[fr.Element]
	transcript onceCell[*Transcript]
}

// NewLogMemo returns an empty, unfinalized LogMemo.
func NewLogMemo() *LogMemo {
	return &LogMemo{multiset: multiset.New[store.Ptr]()}
}

// Add records kv in the underlying multiset.
func (m *LogMemo) Add(kv store.Ptr) {
	m.multiset.Add(kv)
}

// Count returns kv's multiplicity, or zero.
func (m *LogMemo) Count(kv store.Ptr) uint64 {
	return m.multiset.Get(kv)
}

// IsFinalized reports whether the transcript (and therefore r) has been set.
func (m *LogMemo) IsFinalized() bool {
	_, ok := m.transcript.Get()
	return ok
}

// FinalizeTranscript sets r = t.R() and stores t. Calling this twice is a
// programmer error and panics (spec.md §4.C, §7).
func (m *LogMemo) FinalizeTranscript(s *store.Store, t *Transcript) {
	r := t.R()
	m.r.Set(r)
	m.transcript.Set(t)
}

// R returns the Fiat-Shamir challenge, if finalized.
func (m *LogMemo) R() (fr.Element, bool) {
	return m.r.Get()
}

// MapToElement computes (r+x)^-1. It returns false if r is not yet set or
// if r+x is zero (the negligible-collision case spec.md §4.C assumes away
// at the protocol level; the circuit instead emits an inversion constraint
// that becomes unsatisfiable on collision).
func (m *LogMemo) MapToElement(s *store.Store, x fr.Element) (fr.Element, bool) {
	r, ok := m.r.Get()
	if !ok {
		return fr.Element{}, false
	}
	var d fr.Element
	d.Add(&r, &x)
	if d.IsZero() {
		return fr.Element{}, false
	}
	var out fr.Element
	out.Inverse(&d)
	return out, true
}

// ToCircuit builds the LogMemoCircuit sharing this LogMemo's multiset and
// allocating its (already-finalized) r as a wire. r is public -- anyone
// holding the finalized transcript can recompute it -- so it is baked in as
// a literal constant rather than routed through a witness hint.
func (m *LogMemo) ToCircuit(api frontend.API) (CircuitMemoSet, error) {
	r, ok := m.r.Get()
	if !ok {
		return nil, fmt.Errorf("memoset: cannot build circuit memoset before the native transcript is finalized")
	}
	var rBig big.Int
	r.BigInt(&rBig)
	return &LogMemoCircuit{
		multiset: m.multiset,
		r:        frontend.Variable(rBig),
	}, nil
}
