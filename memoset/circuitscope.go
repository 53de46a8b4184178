package memoset

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/constraint/solver"
	"github.com/consensys/gnark/frontend"

	"github.com/lurk-lab/memoset/galloc"
	"github.com/lurk-lab/memoset/store"
)

// CircuitScope mirrors Scope for synthesis (spec.md §4.F). It is handed the
// native Scope directly -- not just a store -- because the circuit side
// must be able to look a key up in it, but only inside hint closures that
// run at witness-solving time (WitnessPtr, witnessQueryValue): the values
// themselves still reach the constraint system as hint-derived wires, never
// as constants baked into the R1CS, so the compiled circuit shape is
// reusable across different native Scopes (spec.md §9's dummy/real
// multiplexing discipline: every slot emits the same constraint shape and
// only the final result is Select-ed on a not_dummy wire).
type CircuitScope struct {
	store   *store.Store
	native  *Scope
	memoset CircuitMemoSet
	decoder CircuitQueryDecoder

	transcribeInternalInsertions bool
	alloc                        *galloc.Allocator

	Acc        frontend.Variable
	Transcript CircuitTranscript
	R          frontend.Variable
}

// NewCircuitScope performs CircuitScope.init: acc is the additive identity,
// the transcript starts empty, and r is read off the circuit memoset's
// already-allocated wire.
func NewCircuitScope(api frontend.API, s *store.Store, native *Scope, cms CircuitMemoSet, decoder CircuitQueryDecoder, transcribeInternal bool) *CircuitScope {
	return &CircuitScope{
		store:                        s,
		native:                       native,
		memoset:                      cms,
		decoder:                      decoder,
		transcribeInternalInsertions: transcribeInternal,
		alloc:                        galloc.New(),
		Acc:                          frontend.Variable(0),
		Transcript:                   NewCircuitTranscript(api),
		R:                            cms.AllocatedR(),
	}
}

// allocDummyKey returns the (tag, hash) wires for the canonical dummy key
// (store nil), cached across every dummy slot this CircuitScope synthesizes
// via the global-constant allocator (spec.md §6), instead of minting a fresh
// pair of constant wires per padding slot.
func (cs *CircuitScope) allocDummyKey(api frontend.API) AllocatedPtr {
	return AllocatedPtr{
		Tag:  cs.alloc.AllocConst(api, int(store.TagNil)),
		Hash: cs.alloc.AllocConst(api, uint64(0)),
	}
}

// IO exposes (acc, transcript pointer, r wire), the state a CoroutineCircuit
// threads between fold steps.
func (cs *CircuitScope) IO() (frontend.Variable, AllocatedPtr, frontend.Variable) {
	return cs.Acc, cs.Transcript.Acc, cs.R
}

// UpdateFromIO installs externally advanced state, e.g. the z wires handed
// to a later fold step by the enclosing recursive machinery.
func (cs *CircuitScope) UpdateFromIO(acc frontend.Variable, transcriptPtr AllocatedPtr, r frontend.Variable) {
	cs.Acc = acc
	cs.Transcript = CircuitTranscript{Acc: transcriptPtr}
	cs.R = r
}

func (cs *CircuitScope) lookupNativeValue(key store.Ptr) (store.Ptr, bool) {
	v, ok := cs.native.queries[key]
	return v, ok
}

// SynthesizeInsertQuery builds kv = (key . value), appends it to the
// transcript iff isToplevel || transcribeInternalInsertions, and folds it
// into acc via synthesize_add.
func (cs *CircuitScope) SynthesizeInsertQuery(api frontend.API, key, value AllocatedPtr, isToplevel bool) (frontend.Variable, CircuitTranscript, error) {
	kv, err := ConstructCons(api, key, value)
	if err != nil {
		return nil, CircuitTranscript{}, err
	}
	newTranscript := cs.Transcript
	if isToplevel || cs.transcribeInternalInsertions {
		newTranscript, err = cs.Transcript.Add(api, kv)
		if err != nil {
			return nil, CircuitTranscript{}, err
		}
	}
	newAcc, err := cs.memoset.SynthesizeAdd(api, cs.Acc, kv)
	if err != nil {
		return nil, CircuitTranscript{}, err
	}
	cs.Acc, cs.Transcript = newAcc, newTranscript
	return newAcc, newTranscript, nil
}

// SynthesizeRemove builds kv = (key . value), witnesses its multiplicity as
// a hint-derived wire (mirroring make_kv_count's
// AllocatedNum::alloc(|| Ok(F::from_u64(count)))), unconditionally appends
// (kv . count) to the transcript, and folds it out of acc via
// synthesize_remove_n. nativeKV must be the
// native (key . value) record the multiset was actually Add-ed under --
// the multiset is keyed on kv pairs, not on keys alone.
func (cs *CircuitScope) SynthesizeRemove(api frontend.API, key, value AllocatedPtr, nativeKV store.Ptr) (frontend.Variable, CircuitTranscript, error) {
	kv, err := ConstructCons(api, key, value)
	if err != nil {
		return nil, CircuitTranscript{}, err
	}
	count := cs.memoset.Count(nativeKV)
	countVar, err := WitnessCount(api, count)
	if err != nil {
		return nil, CircuitTranscript{}, err
	}

	kvCount, err := MakeKVCountCircuit(api, kv, countVar)
	if err != nil {
		return nil, CircuitTranscript{}, err
	}
	newTranscript, err := cs.Transcript.Add(api, kvCount)
	if err != nil {
		return nil, CircuitTranscript{}, err
	}
	newAcc, err := cs.memoset.SynthesizeRemoveN(api, cs.Acc, countVar, kv)
	if err != nil {
		return nil, CircuitTranscript{}, err
	}
	return newAcc, newTranscript, nil
}

// synthesizeQueryAux allocates key as a witness wire, then non-deterministically
// witnesses value = queries[key] (failing the solve if key was never
// memoized, mirroring mod.rs's synthesize_query_aux /
// SynthesisError::AssignmentMissing -- spec.md §7's Witness-missing error
// category), then inserts (key . value). Every key this is called for is
// one the native Scope already fully evaluated (toplevel reconstruction and
// internal subquery lookups both run after native evaluation completes), so
// the lookup is never expected to miss.
func (cs *CircuitScope) synthesizeQueryAux(api frontend.API, s *store.Store, key store.Ptr, isToplevel bool) (AllocatedPtr, error) {
	allocatedKey, err := WitnessPtr(api, s.HashPtr(key))
	if err != nil {
		return AllocatedPtr{}, err
	}

	allocatedValue, err := cs.witnessQueryValue(api, s, allocatedKey, true)
	if err != nil {
		return AllocatedPtr{}, err
	}

	if _, _, err := cs.SynthesizeInsertQuery(api, allocatedKey, allocatedValue, isToplevel); err != nil {
		return AllocatedPtr{}, err
	}
	return allocatedValue, nil
}

// witnessQueryValue allocates value = queries[key] as hint-derived wires:
// the gnark analogue of AllocatedNum::alloc(|| queries.get(&key).ok_or(...)).
// The lookup runs only at witness-solving time, against key's already-solved
// (tag, hash) values, and fails the solve instead of silently falling back
// to nil when notDummy is true but the key was never memoized.
func (cs *CircuitScope) witnessQueryValue(api frontend.API, s *store.Store, key AllocatedPtr, notDummy bool) (AllocatedPtr, error) {
	outs, err := api.NewHint(queryValueHint(cs.native, s, notDummy), 2, key.Tag, key.Hash)
	if err != nil {
		return AllocatedPtr{}, fmt.Errorf("memoset: witnessing query value: %w", err)
	}
	return AllocatedPtr{Tag: outs[0], Hash: outs[1]}, nil
}

func queryValueHint(native *Scope, s *store.Store, notDummy bool) solver.Hint {
	return func(_ *big.Int, inputs, outputs []*big.Int) error {
		if !notDummy {
			z := s.HashPtr(s.InternNil())
			outputs[0].SetInt64(int64(z.Tag))
			z.Value.BigInt(outputs[1])
			return nil
		}

		var tagElt fr.Element
		tagElt.SetBigInt(inputs[0])
		var tagBig big.Int
		tagElt.BigInt(&tagBig)

		var hashElt fr.Element
		hashElt.SetBigInt(inputs[1])

		key, ok := s.LookupPtr(store.ZPtr{Tag: store.Tag(tagBig.Uint64()), Value: hashElt})
		if !ok {
			return fmt.Errorf("memoset: no Ptr interned for witnessed key")
		}
		value, ok := native.queries[key]
		if !ok {
			return fmt.Errorf("memoset: missing witness: key was never memoized by the native Scope")
		}
		z := s.HashPtr(value)
		outputs[0].SetInt64(int64(z.Tag))
		z.Value.BigInt(outputs[1])
		return nil
	}
}

// SynthesizeQuery is synthesizeQueryAux under the top-level transcription
// rule (always recorded).
func (cs *CircuitScope) SynthesizeQuery(api frontend.API, s *store.Store, key store.Ptr) (AllocatedPtr, error) {
	return cs.synthesizeQueryAux(api, s, key, true)
}

// SynthesizeInternalQuery is synthesizeQueryAux gated by
// transcribeInternalInsertions.
func (cs *CircuitScope) SynthesizeInternalQuery(api frontend.API, s *store.Store, key store.Ptr) (AllocatedPtr, error) {
	return cs.synthesizeQueryAux(api, s, key, false)
}

// SynthesizeInsertToplevelQueries reconstructs and inserts every top-level
// (key . value) record. It always dispatches through the toplevel path
// (SynthesizeQuery), never SynthesizeInternalQuery, even when
// transcribeInternalInsertions is false: top-level records are always
// transcribed regardless of that flag (spec.md §9 open-question note,
// preserved here explicitly rather than left implicit).
func (cs *CircuitScope) SynthesizeInsertToplevelQueries(api frontend.API, s *store.Store) error {
	for _, kv := range cs.native.toplevelInsertions {
		key, _, err := s.CarCdr(kv)
		if err != nil {
			return fmt.Errorf("memoset: malformed toplevel insertion record: %w", err)
		}
		if _, err := cs.SynthesizeQuery(api, s, key); err != nil {
			return err
		}
	}
	return nil
}

// SynthesizeProveKeyQuery allocates key (nil if keyOpt is nil), builds a
// circuit-query from the key or a family dummy, then runs
// SynthesizeProveQuery under notDummy = keyOpt != nil.
func (cs *CircuitScope) SynthesizeProveKeyQuery(api frontend.API, s *store.Store, keyOpt *store.Ptr, familyIndex int) error {
	var (
		key      store.Ptr
		notDummy frontend.Variable
		cq       CircuitQuery
		err      error
	)
	if keyOpt != nil {
		key = *keyOpt
		notDummy = frontend.Variable(1)
		cq, err = cs.decoder.FromKey(api, s, key)
	} else {
		key = s.InternNil()
		notDummy = frontend.Variable(0)
		cq, err = cs.decoder.DummyFromIndex(api, s, familyIndex)
	}
	if err != nil {
		return err
	}

	var allocatedKey AllocatedPtr
	if keyOpt != nil {
		allocatedKey, err = WitnessPtr(api, s.HashPtr(key))
		if err != nil {
			return err
		}
	} else {
		allocatedKey = cs.allocDummyKey(api)
	}
	return cs.SynthesizeProveQuery(api, s, key, allocatedKey, cq, notDummy)
}

// SynthesizeProveQuery runs the circuit-query's eval, removes the resulting
// (key . value) from the accumulator, and multiplexes both acc' and
// transcript' against the pre-call state on notDummy, so a dummy slot is
// observably a no-op (spec.md §4.F, §9 dummy invariance).
func (cs *CircuitScope) SynthesizeProveQuery(api frontend.API, s *store.Store, key store.Ptr, allocatedKey AllocatedPtr, cq CircuitQuery, notDummy frontend.Variable) error {
	prevAcc, prevTranscript := cs.Acc, cs.Transcript

	value, acc1, transcript1, err := cq.SynthesizeEval(api, s, cs, cs.Acc, cs.Transcript)
	if err != nil {
		return err
	}
	cs.Acc, cs.Transcript = acc1, transcript1

	nativeValue, ok := cs.lookupNativeValue(key)
	if !ok {
		nativeValue = s.InternNil()
	}
	nativeKV := MakeKV(s, key, nativeValue)

	accRemoved, transcriptRemoved, err := cs.SynthesizeRemove(api, allocatedKey, value, nativeKV)
	if err != nil {
		return err
	}

	cs.Acc = api.Select(notDummy, accRemoved, prevAcc)
	cs.Transcript = SelectTranscript(api, notDummy, transcriptRemoved, prevTranscript)
	return nil
}

// Finalize enforces the closing conditions: the transcript's hash wire
// equals the memoset's allocated r, and the accumulator equals zero.
func (cs *CircuitScope) Finalize(api frontend.API) error {
	api.AssertIsEqual(cs.Transcript.R(), cs.memoset.AllocatedR())
	api.AssertIsEqual(cs.Acc, 0)
	return nil
}
