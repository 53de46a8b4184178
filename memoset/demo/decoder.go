package demo

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"

	"github.com/lurk-lab/memoset/memoset"
	"github.com/lurk-lab/memoset/store"
)

// decodeForm and dummyQuery are the shared per-family table this package's
// two families hang off, standing in for the Rust source's per-family
// `Q::from_ptr`/`Q::dummy_from_index` static dispatch (spec.md §4.D, §6): a
// small table keyed by symbol name / family index, exactly the "tagged
// variant plus a small table keyed by index()" shape spec.md §9 prescribes.
// NativeDecoder and CircuitDecoder both wrap this table; they are two types,
// not one, because memoset.QueryDecoder and memoset.CircuitQueryDecoder both
// name a method DummyFromIndex with different signatures -- Go has no
// overloading, so one struct cannot implement both interfaces directly.

func decodeForm(s *store.Store, ptr store.Ptr) (memoset.Query, bool) {
	if ptr.Tag() != store.TagCons {
		return nil, false
	}
	sym, arg, err := s.CarCdr(ptr)
	if err != nil {
		return nil, false
	}
	name, ok := s.FetchSymbol(sym)
	if !ok {
		return nil, false
	}
	argZ := s.HashPtr(arg)
	if argZ.Tag != store.TagNum {
		return nil, false
	}
	var n big.Int
	argZ.Value.BigInt(&n)

	switch name {
	case "demo.factorial":
		return FactorialQuery{N: n.Uint64()}, true
	case "demo.fib":
		return FibQuery{N: n.Uint64()}, true
	default:
		return nil, false
	}
}

func dummyQuery(index int) memoset.Query {
	switch index {
	case factorialFamilyIndex:
		return FactorialQuery{N: 0}
	case fibFamilyIndex:
		return FibQuery{N: 0}
	default:
		panic(fmt.Sprintf("demo: unknown family index %d", index))
	}
}

// NativeDecoder is this package's memoset.QueryDecoder.
type NativeDecoder struct{}

var _ memoset.QueryDecoder = NativeDecoder{}

func (NativeDecoder) Count() int { return 2 }

func (NativeDecoder) FromPtr(s *store.Store, ptr store.Ptr) (memoset.Query, bool) {
	return decodeForm(s, ptr)
}

func (NativeDecoder) DummyFromIndex(s *store.Store, index int) memoset.Query {
	return dummyQuery(index)
}

// CircuitDecoder is this package's memoset.CircuitQueryDecoder.
type CircuitDecoder struct{}

var _ memoset.CircuitQueryDecoder = CircuitDecoder{}

func (CircuitDecoder) FromKey(api frontend.API, s *store.Store, key store.Ptr) (memoset.CircuitQuery, error) {
	q, ok := decodeForm(s, key)
	if !ok {
		panic("demo: from_ptr failed for a key this Scope already recorded")
	}
	return q.ToCircuit(api, s)
}

func (CircuitDecoder) DummyFromIndex(api frontend.API, s *store.Store, index int) (memoset.CircuitQuery, error) {
	return dummyQuery(index).ToCircuit(api, s)
}
