package memoset

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/test"

	"github.com/lurk-lab/memoset/store"
)

// fakeQuery is a minimal single-family, non-recursive Query used only to
// exercise CircuitScope/CoroutineCircuit plumbing without depending on the
// demo package (kept out of demo since it is not a real exemplar).
type fakeQuery struct{ v uint64 }

func (q fakeQuery) Symbol() string { return "fake" }
func (q fakeQuery) Index() int     { return 0 }
func (q fakeQuery) ToPtr(s *store.Store) store.Ptr {
	return s.Cons(s.InternSymbol("fake"), s.Num(q.v))
}
func (q fakeQuery) Eval(s *store.Store, scope *Scope) (store.Ptr, error) {
	return s.Num(q.v), nil
}
func (q fakeQuery) ToCircuit(api frontend.API, s *store.Store) (CircuitQuery, error) {
	return fakeCircuitQuery{v: q.v}, nil
}

type fakeCircuitQuery struct{ v uint64 }

func (q fakeCircuitQuery) SynthesizeEval(api frontend.API, s *store.Store, scope *CircuitScope, acc frontend.Variable, transcript CircuitTranscript) (AllocatedPtr, frontend.Variable, CircuitTranscript, error) {
	value, err := WitnessPtr(api, s.HashPtr(s.Num(q.v)))
	if err != nil {
		return AllocatedPtr{}, nil, CircuitTranscript{}, err
	}
	return value, acc, transcript, nil
}

type fakeDecoder struct{}

func (fakeDecoder) Count() int { return 1 }
func (fakeDecoder) FromPtr(s *store.Store, ptr store.Ptr) (Query, bool) {
	if ptr.Tag() != store.TagCons {
		return nil, false
	}
	sym, arg, err := s.CarCdr(ptr)
	if err != nil {
		return nil, false
	}
	name, ok := s.FetchSymbol(sym)
	if !ok || name != "fake" {
		return nil, false
	}
	z := s.HashPtr(arg)
	var n big.Int
	z.Value.BigInt(&n)
	return fakeQuery{v: n.Uint64()}, true
}
func (fakeDecoder) DummyFromIndex(s *store.Store, index int) Query { return fakeQuery{v: 0} }
func (fakeDecoder) FromKey(api frontend.API, s *store.Store, key store.Ptr) (CircuitQuery, error) {
	q, ok := fakeDecoder{}.FromPtr(s, key)
	if !ok {
		panic("fakeDecoder: unknown key")
	}
	return q.ToCircuit(api, s)
}
func (fakeDecoder) DummyFromIndexCircuit(api frontend.API, s *store.Store, index int) (CircuitQuery, error) {
	return fakeDecoder{}.DummyFromIndex(s, index).ToCircuit(api, s)
}

var _ QueryDecoder = fakeDecoder{}

// dummyInvarianceCircuit asserts that a fully-dummy SynthesizeProveKeyQuery
// slot leaves (acc, transcript) unchanged (spec.md §8 "Dummy invariance",
// §9 "Fixed-width fold steps with dummy padding").
type dummyInvarianceCircuit struct {
	Store   *store.Store
	Scope   *Scope
	Decoder circuitFakeDecoder
	OK      frontend.Variable `gnark:",public"`
}

// circuitFakeDecoder adapts fakeDecoder to CircuitQueryDecoder's distinct
// DummyFromIndex signature (see the comment above decodeForm in package demo
// for why these must be two types).
type circuitFakeDecoder struct{}

func (circuitFakeDecoder) FromKey(api frontend.API, s *store.Store, key store.Ptr) (CircuitQuery, error) {
	return fakeDecoder{}.FromKey(api, s, key)
}
func (circuitFakeDecoder) DummyFromIndex(api frontend.API, s *store.Store, index int) (CircuitQuery, error) {
	return fakeDecoder{}.DummyFromIndexCircuit(api, s, index)
}

var _ CircuitQueryDecoder = circuitFakeDecoder{}

func (c *dummyInvarianceCircuit) Define(api frontend.API) error {
	c.Scope.FinalizeTranscript(c.Store)
	cms, err := c.Scope.memoset.ToCircuit(api)
	if err != nil {
		return err
	}
	cs := NewCircuitScope(api, c.Store, c.Scope, cms, c.Decoder, false)

	beforeAcc, beforeTranscript, _ := cs.IO()
	if err := cs.SynthesizeProveKeyQuery(api, c.Store, nil, 0); err != nil {
		return err
	}
	afterAcc, afterTranscript, _ := cs.IO()

	api.AssertIsEqual(beforeAcc, afterAcc)
	api.AssertIsEqual(beforeTranscript.Tag, afterTranscript.Tag)
	api.AssertIsEqual(beforeTranscript.Hash, afterTranscript.Hash)
	api.AssertIsEqual(c.OK, 1)
	return nil
}

func TestDummySlotIsNoOp(t *testing.T) {
	assert := test.NewAssert(t)

	s := store.New()
	sc := NewScope(fakeDecoder{}, NewLogMemo())
	_, err := sc.Query(s, fakeQuery{v: 1}.ToPtr(s))
	if err != nil {
		t.Fatal(err)
	}

	circuit := &dummyInvarianceCircuit{Store: s, Scope: sc}
	witness := &dummyInvarianceCircuit{Store: s, Scope: sc, OK: 1}
	assert.ProverSucceeded(circuit, witness, test.WithBackends(backend.GROTH16), test.WithCurves(ecc.BN254))
}
