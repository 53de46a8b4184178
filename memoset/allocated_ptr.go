package memoset

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/constraint/solver"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"

	"github.com/lurk-lab/memoset/store"
)

// AllocatedPtr is the circuit-side mirror of store.ZPtr: a (tag, hash) pair
// of allocated wires. Unlike the Rust source's AllocatedPtr, it carries no
// additional Lurk/LEM pointer machinery -- here it exists solely so
// cons/content-hash gadgets can be computed tag-aware in-circuit, which is
// the only part of "pointer-ness" this module's invariants actually depend
// on (spec.md §3-§4). The accumulator and r themselves are plain
// frontend.Variable field elements (see CircuitScope), since §3's
// "accumulator equals the additive identity" and "transcript-hash == r" are
// statements about field values, not about tagged pointers.
type AllocatedPtr struct {
	Tag  frontend.Variable
	Hash frontend.Variable
}

// AllocConstPtr allocates z as a pair of constant wires. Use this only for
// genuine protocol constants -- the canonical nil sentinel, a family's
// fixed base-case literal -- which are the same for every instance of this
// circuit and therefore legitimately baked in, the same treatment gnark
// gives any circuit-specific constant computed outside Define(). Real
// deployments would route this through the global-allocator collaborator
// (see package galloc) to dedupe repeated constants. Do not use this for a
// query's key or result: see WitnessPtr.
func AllocConstPtr(api frontend.API, z store.ZPtr) AllocatedPtr {
	var hashBig big.Int
	z.Value.BigInt(&hashBig)
	return AllocatedPtr{
		Tag:  frontend.Variable(int(z.Tag)),
		Hash: frontend.Variable(hashBig),
	}
}

// WitnessPtr allocates z as a pair of hint-derived wires instead of
// constants. z's two field values may already be known to whoever is
// building this particular circuit instance -- same as a Ptr known at
// to_circuit-call time in the Rust source -- but they must still flow
// through the constraint system as witness wires, not coefficients baked
// into the R1CS, so that the same compiled circuit shape is reusable across
// different underlying instances (spec.md §4.G's fold steps; §9's "the same
// constraints must be emitted for dummy and real slots"). api.NewHint is
// gnark's analogue of the Rust source's AllocatedNum::alloc(|| ...): the
// closure runs only when the witness is solved, not when the circuit is
// compiled, and a circuit compiled once can be solved against many
// different hint outputs without changing shape.
func WitnessPtr(api frontend.API, z store.ZPtr) (AllocatedPtr, error) {
	var hashBig big.Int
	z.Value.BigInt(&hashBig)
	tagBig := big.NewInt(int64(z.Tag))
	outs, err := api.NewHint(constPtrHint(tagBig, &hashBig), 2)
	if err != nil {
		return AllocatedPtr{}, fmt.Errorf("memoset: allocating pointer witness: %w", err)
	}
	return AllocatedPtr{Tag: outs[0], Hash: outs[1]}, nil
}

func constPtrHint(tag, hash *big.Int) solver.Hint {
	return func(_ *big.Int, _ []*big.Int, outputs []*big.Int) error {
		outputs[0].Set(tag)
		outputs[1].Set(hash)
		return nil
	}
}

// WitnessCount allocates count as a hint-derived wire, mirroring
// make_kv_count's AllocatedNum::alloc(|| Ok(F::from_u64(count))).
func WitnessCount(api frontend.API, count uint64) (frontend.Variable, error) {
	countBig := new(big.Int).SetUint64(count)
	outs, err := api.NewHint(constCountHint(countBig), 1)
	if err != nil {
		return nil, fmt.Errorf("memoset: allocating count witness: %w", err)
	}
	return outs[0], nil
}

func constCountHint(count *big.Int) solver.Hint {
	return func(_ *big.Int, _ []*big.Int, outputs []*big.Int) error {
		outputs[0].Set(count)
		return nil
	}
}

// SelectPtr multiplexes between two AllocatedPtrs on a boolean (0/1) selector.
func SelectPtr(api frontend.API, selector frontend.Variable, a, b AllocatedPtr) AllocatedPtr {
	return AllocatedPtr{
		Tag:  api.Select(selector, a.Tag, b.Tag),
		Hash: api.Select(selector, a.Hash, b.Hash),
	}
}

// ConstructCons is the circuit half of store.HashCons: given two allocated
// (tag, hash) pairs it computes the content hash of their cons cell using
// the same MiMC construction the native store uses, so the two passes
// agree bit-exactly (spec.md §3 invariant 5). Grounded on the teacher pack's
// own in-circuit MiMC usage (e.g. other_examples' compute_circuit.go /
// result_circuit.go, both of which build a running hash via
// mimc.NewMiMC(api)/.Write/.Sum).
func ConstructCons(api frontend.API, car, cdr AllocatedPtr) (AllocatedPtr, error) {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return AllocatedPtr{}, err
	}
	h.Write(int(store.TagCons), car.Tag, car.Hash, cdr.Tag, cdr.Hash)
	return AllocatedPtr{
		Tag:  frontend.Variable(int(store.TagCons)),
		Hash: h.Sum(),
	}, nil
}
