package memoset

import (
	"fmt"

	"github.com/consensys/gnark/frontend"

	"github.com/lurk-lab/memoset/store"
)

// CircuitTranscript is the in-circuit mirror of Transcript: it carries the
// allocated pointer to the (possibly empty) right-nested cons list. Every
// Add rebuilds the cons-hash constraints binding the new head to
// (item . previous head), exactly mirroring Transcript.Add's native
// s.Cons(item, t.acc).
type CircuitTranscript struct {
	Acc AllocatedPtr
}

// NewCircuitTranscript allocates the empty transcript (nil).
func NewCircuitTranscript(api frontend.API) CircuitTranscript {
	return CircuitTranscript{Acc: AllocatedPtr{
		Tag:  frontend.Variable(int(store.TagNil)),
		Hash: frontend.Variable(0),
	}}
}

// Add returns a new CircuitTranscript with item prepended.
func (t CircuitTranscript) Add(api frontend.API, item AllocatedPtr) (CircuitTranscript, error) {
	acc, err := ConstructCons(api, item, t.Acc)
	if err != nil {
		return CircuitTranscript{}, err
	}
	return CircuitTranscript{Acc: acc}, nil
}

// MakeKVCircuit builds an insertion record (key . value) as an allocated cons.
func MakeKVCircuit(api frontend.API, key, value AllocatedPtr) (AllocatedPtr, error) {
	return ConstructCons(api, key, value)
}

// MakeKVCountCircuit builds a removal record (kv . count); count is allocated as a
// numeric-tagged pointer from the given field wire.
func MakeKVCountCircuit(api frontend.API, kv AllocatedPtr, count frontend.Variable) (AllocatedPtr, error) {
	countPtr := AllocatedPtr{Tag: frontend.Variable(int(store.TagNum)), Hash: count}
	return ConstructCons(api, kv, countPtr)
}

// R returns the hash wire of the transcript's head -- the allocated
// Fiat-Shamir randomness once finalization constrains it equal to r.
func (t CircuitTranscript) R() frontend.Variable {
	return t.Acc.Hash
}

// SelectTranscript multiplexes two CircuitTranscripts on a boolean selector, used to
// make dummy CoroutineCircuit steps no-ops (spec.md §8 "Dummy invariance").
func SelectTranscript(api frontend.API, selector frontend.Variable, a, b CircuitTranscript) CircuitTranscript {
	return CircuitTranscript{Acc: SelectPtr(api, selector, a.Acc, b.Acc)}
}

// DebugString renders the transcript's allocated head wires for debug
// logging, mirroring CircuitTranscript::dbg in the original source
// (SPEC_FULL.md §4.1).
func (t CircuitTranscript) DebugString() string {
	return fmt.Sprintf("(tag=%v hash=%v)", t.Acc.Tag, t.Acc.Hash)
}
