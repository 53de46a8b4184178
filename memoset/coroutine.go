package memoset

import (
	"fmt"

	"github.com/consensys/gnark/frontend"

	"github.com/lurk-lab/memoset/store"
)

// CoroutineCircuit is a single fixed-width fold step proving up to RC
// queries of one family (spec.md §4.G). Keys may be shorter than RC; the
// remaining slots are padded with dummies that leave (acc, transcript) a
// no-op (spec.md §9 "Fixed-width fold steps with dummy padding").
type CoroutineCircuit struct {
	Keys        []store.Ptr
	FamilyIndex int
	RC          int

	Scope        *Scope
	CircuitScope *CircuitScope

	// NextPC mirrors the source's own open FIXME: selecting the next
	// program counter across families belongs to the enclosing recursive
	// driver, which is out of scope here (spec.md §9 open questions). A nil
	// NextPC distinguishes "not set by this core" from "program counter 0".
	NextPC *int
}

// Synthesize drives this step against the shared CircuitScope already installed on
// the struct (used by Scope.Synthesize's single-pass driver, which threads
// one CircuitScope across every family/chunk directly rather than
// marshalling z in and out -- equivalent to calling Synthesize with z = the
// scope's own last IO() output every time).
func (cc *CoroutineCircuit) Synthesize(api frontend.API, s *store.Store, decoder CircuitQueryDecoder) error {
	if cc.CircuitScope == nil {
		return fmt.Errorf("memoset: CoroutineCircuit.Synthesize requires a CircuitScope")
	}
	keys := make([]*store.Ptr, cc.RC)
	for i := range keys {
		if i < len(cc.Keys) {
			k := cc.Keys[i]
			keys[i] = &k
		}
	}
	for i, k := range keys {
		_ = i // namespace "internal-{i}": gnark's frontend.API has no literal
		// named-subnamespace primitive (unlike bellpepper's cs.namespace);
		// each slot's constraints are simply emitted in sequence.
		if err := cc.CircuitScope.SynthesizeProveKeyQuery(api, s, k, cc.FamilyIndex); err != nil {
			return fmt.Errorf("memoset: slot %d: %w", i, err)
		}
	}
	return nil
}

// FoldStep is the literal IVC fold-step primitive spec.md §4.G describes:
// given z = [c, e, k, memosetAcc, transcriptHash, r] it returns the updated
// z and the next program counter (always nil; see NextPC). c, e, k pass
// through unexamined. Unlike Synthesize, FoldStep builds its own transient
// CircuitScope each call, sharing only the CircuitMemoSet -- the Open
// Questions decision in SPEC_FULL.md §5: only the allocated r wire identity
// must be consistent across steps, not CircuitScope Go-struct identity.
func (cc *CoroutineCircuit) FoldStep(api frontend.API, s *store.Store, decoder CircuitQueryDecoder, cms CircuitMemoSet, z [6]frontend.Variable) ([6]frontend.Variable, *int, error) {
	c, e, k, acc, transcriptHash, r := z[0], z[1], z[2], z[3], z[4], z[5]

	cs := NewCircuitScope(api, s, cc.Scope, cms, decoder, cc.Scope.transcribeInternalInsertions)
	transcriptPtr := AllocatedPtr{Tag: frontend.Variable(int(store.TagCons)), Hash: transcriptHash}
	cs.UpdateFromIO(acc, transcriptPtr, r)
	cc.CircuitScope = cs

	if err := cc.Synthesize(api, s, decoder); err != nil {
		return z, nil, err
	}

	accOut, transcriptOut, rOut := cs.IO()
	return [6]frontend.Variable{c, e, k, accOut, transcriptOut.Hash, rOut}, nil, nil
}
