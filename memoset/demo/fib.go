package demo

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/frontend"

	"github.com/lurk-lab/memoset/memoset"
	"github.com/lurk-lab/memoset/store"
)

const fibFamilyIndex = 1

var (
	_ memoset.Query        = FibQuery{}
	_ memoset.CircuitQuery = CircuitFibQuery{}
)

// FibQuery computes the Nth Fibonacci number by two recursive subqueries.
// It is the second family supplementing the original source's reserved
// Phantom(F) enum arm (SPEC_FULL.md §4.4): it does not implement
// memoset.RecursiveQuery, since combining two subquery results by addition
// needs no extra local state beyond the two results themselves, unlike
// FactorialQuery's single-subquery multiply-by-N.
type FibQuery struct {
	N uint64
}

func (q FibQuery) Symbol() string { return "fib" }
func (q FibQuery) Index() int     { return fibFamilyIndex }

func (q FibQuery) ToPtr(s *store.Store) store.Ptr {
	sym := s.InternSymbol("demo", q.Symbol())
	return s.Cons(sym, s.Num(q.N))
}

func (q FibQuery) Eval(s *store.Store, scope *memoset.Scope) (store.Ptr, error) {
	if q.N == 0 {
		return s.Num(0), nil
	}
	if q.N == 1 {
		return s.Num(1), nil
	}
	a, err := scope.QueryRecursively(s, q, FibQuery{N: q.N - 1})
	if err != nil {
		return store.Ptr{}, err
	}
	b, err := scope.QueryRecursively(s, q, FibQuery{N: q.N - 2})
	if err != nil {
		return store.Ptr{}, err
	}
	az, bz := s.HashPtr(a), s.HashPtr(b)
	var sum fr.Element
	sum.Add(&az.Value, &bz.Value)
	return s.NumElement(sum), nil
}

func (q FibQuery) ToCircuit(api frontend.API, s *store.Store) (memoset.CircuitQuery, error) {
	return CircuitFibQuery{N: q.N}, nil
}

// CircuitFibQuery is FibQuery's circuit-side mirror.
type CircuitFibQuery struct {
	N uint64
}

func (q CircuitFibQuery) SynthesizeEval(api frontend.API, s *store.Store, scope *memoset.CircuitScope, acc frontend.Variable, transcript memoset.CircuitTranscript) (memoset.AllocatedPtr, frontend.Variable, memoset.CircuitTranscript, error) {
	if q.N == 0 {
		return memoset.AllocConstPtr(api, s.HashPtr(s.Num(0))), acc, transcript, nil
	}
	if q.N == 1 {
		return memoset.AllocConstPtr(api, s.HashPtr(s.Num(1))), acc, transcript, nil
	}

	aKey := FibQuery{N: q.N - 1}.ToPtr(s)
	aVal, err := scope.SynthesizeInternalQuery(api, s, aKey)
	if err != nil {
		return memoset.AllocatedPtr{}, nil, memoset.CircuitTranscript{}, err
	}
	bKey := FibQuery{N: q.N - 2}.ToPtr(s)
	bVal, err := scope.SynthesizeInternalQuery(api, s, bKey)
	if err != nil {
		return memoset.AllocatedPtr{}, nil, memoset.CircuitTranscript{}, err
	}

	sum := api.Add(aVal.Hash, bVal.Hash)
	result := memoset.AllocatedPtr{Tag: frontend.Variable(int(store.TagNum)), Hash: sum}

	newAcc, newTranscriptPtr, _ := scope.IO()
	return result, newAcc, memoset.CircuitTranscript{Acc: newTranscriptPtr}, nil
}
