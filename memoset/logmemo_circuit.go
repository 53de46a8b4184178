package memoset

import (
	"github.com/consensys/gnark/frontend"

	"github.com/lurk-lab/memoset/multiset"
	"github.com/lurk-lab/memoset/store"
)

// CircuitMemoSet is spec.md §4.C's in-circuit accumulator contract, mirrored
// wire-for-wire against MemoSet: every native operation on the additive
// accumulator A(M) has a synthesize_* counterpart constraining the same
// relation over allocated wires.
type CircuitMemoSet interface {
	// SynthesizeAdd constrains acc' = acc + 1/(r+hash(kv)) and returns acc'.
	SynthesizeAdd(api frontend.API, acc frontend.Variable, kv AllocatedPtr) (frontend.Variable, error)
	// SynthesizeRemoveN constrains acc' = acc - n/(r+hash(kv)) and returns acc'.
	SynthesizeRemoveN(api frontend.API, acc, n frontend.Variable, kv AllocatedPtr) (frontend.Variable, error)
	// SynthesizeMapToElement constrains out*(r+x) == 1 and returns out.
	SynthesizeMapToElement(api frontend.API, x frontend.Variable) (frontend.Variable, error)
	// AllocatedR exposes the wire carrying the finalized Fiat-Shamir challenge.
	AllocatedR() frontend.Variable
	// Count returns kv's native multiplicity, used by the prover to compute
	// the removal counts fed into SynthesizeRemoveN's n argument.
	Count(kv store.Ptr) uint64
}

// LogMemoCircuit is the concrete CircuitMemoSet: the same multiset the
// native LogMemo built (CircuitScope.SynthesizeRemove reads each count from
// it and witnesses it as a hint-derived wire) paired with r as an allocated
// wire.
type LogMemoCircuit struct {
	multiset *multiset.MultiSet[store.Ptr]
	r        frontend.Variable
}

func (m *LogMemoCircuit) AllocatedR() frontend.Variable {
	return m.r
}

func (m *LogMemoCircuit) Count(kv store.Ptr) uint64 {
	return m.multiset.Get(kv)
}

// SynthesizeMapToElement computes out = (r+x)^-1 via api.DivUnchecked, which
// gnark compiles to a single inversion constraint: the circuit is
// unsatisfiable if r+x is zero, matching the native MapToElement's explicit
// zero-collision rejection (spec.md §4.C).
func (m *LogMemoCircuit) SynthesizeMapToElement(api frontend.API, x frontend.Variable) (frontend.Variable, error) {
	d := api.Add(m.r, x)
	return api.DivUnchecked(1, d), nil
}

// SynthesizeAdd constrains acc' = acc + map_to_element(hash(kv)).
func (m *LogMemoCircuit) SynthesizeAdd(api frontend.API, acc frontend.Variable, kv AllocatedPtr) (frontend.Variable, error) {
	elt, err := m.SynthesizeMapToElement(api, kv.Hash)
	if err != nil {
		return nil, err
	}
	return api.Add(acc, elt), nil
}

// SynthesizeRemoveN constrains acc' = acc - n*map_to_element(hash(kv)).
func (m *LogMemoCircuit) SynthesizeRemoveN(api frontend.API, acc, n frontend.Variable, kv AllocatedPtr) (frontend.Variable, error) {
	elt, err := m.SynthesizeMapToElement(api, kv.Hash)
	if err != nil {
		return nil, err
	}
	return api.Sub(acc, api.Mul(n, elt)), nil
}
