// Package demo holds exemplar Query/CircuitQuery/RecursiveQuery
// implementations: factorial and fibonacci over 64-bit arguments. These are
// not part of the core (spec.md §1 frames Query/CircuitQuery implementations
// as "exemplars ... not part of the core"); they exist so the memoset
// package has something concrete to evaluate and prove in its tests.
package demo

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/frontend"

	"github.com/lurk-lab/memoset/memoset"
	"github.com/lurk-lab/memoset/store"
)

const factorialFamilyIndex = 0

var (
	_ memoset.Query          = FactorialQuery{}
	_ memoset.CircuitQuery   = CircuitFactorialQuery{}
	_ memoset.RecursiveQuery = CircuitFactorialQuery{}
)

// FactorialQuery computes N! by one recursive subquery. Its circuit mirror,
// CircuitFactorialQuery, is the single RecursiveQuery exemplar (spec.md
// §4.D's post_recursion combinator).
type FactorialQuery struct {
	N uint64
}

func (q FactorialQuery) Symbol() string { return "factorial" }
func (q FactorialQuery) Index() int     { return factorialFamilyIndex }

func (q FactorialQuery) ToPtr(s *store.Store) store.Ptr {
	sym := s.InternSymbol("demo", q.Symbol())
	return s.Cons(sym, s.Num(q.N))
}

func (q FactorialQuery) Eval(s *store.Store, scope *memoset.Scope) (store.Ptr, error) {
	if q.N == 0 {
		return s.Num(1), nil
	}
	child, err := scope.QueryRecursively(s, q, FactorialQuery{N: q.N - 1})
	if err != nil {
		return store.Ptr{}, err
	}
	childZ := s.HashPtr(child)
	var n fr.Element
	n.SetUint64(q.N)
	var result fr.Element
	result.Mul(&childZ.Value, &n)
	return s.NumElement(result), nil
}

func (q FactorialQuery) ToCircuit(api frontend.API, s *store.Store) (memoset.CircuitQuery, error) {
	arg, err := memoset.WitnessPtr(api, s.HashPtr(s.Num(q.N)))
	if err != nil {
		return nil, err
	}
	return CircuitFactorialQuery{N: q.N, Arg: arg}, nil
}

// PostRecursion multiplies the recursive subquery's numeric result by N,
// the circuit half of Eval's multiplication by N. It multiplies by q.Arg.Hash --
// N's own witnessed wire, the same treatment Rust's post_recursion gives
// n.hash() -- rather than a Go-level big.Int baked in as a constant
// multiplier, so a compiled instance of this constraint is not tied to one
// particular N.
func (q CircuitFactorialQuery) PostRecursion(api frontend.API, subResult memoset.AllocatedPtr) (memoset.AllocatedPtr, error) {
	product := api.Mul(subResult.Hash, q.Arg.Hash)
	return memoset.AllocatedPtr{Tag: frontend.Variable(int(store.TagNum)), Hash: product}, nil
}

// CircuitFactorialQuery is FactorialQuery's circuit-side mirror. Arg is N
// allocated as a witness wire (memoset.WitnessPtr, built in ToCircuit),
// mirroring the Rust source's DemoCircuitQuery::Factorial(AllocatedPtr<F>):
// N itself is still plain data here, used only to pick the base/recursive
// Go branch and to derive the child's query key, the same non-secret
// "which key/family" role CoroutineCircuit.Keys/FamilyIndex already play.
type CircuitFactorialQuery struct {
	N   uint64
	Arg memoset.AllocatedPtr
}

func (q CircuitFactorialQuery) SynthesizeEval(api frontend.API, s *store.Store, scope *memoset.CircuitScope, acc frontend.Variable, transcript memoset.CircuitTranscript) (memoset.AllocatedPtr, frontend.Variable, memoset.CircuitTranscript, error) {
	if q.N == 0 {
		one := memoset.AllocConstPtr(api, s.HashPtr(s.Num(1)))
		return one, acc, transcript, nil
	}

	childKey := FactorialQuery{N: q.N - 1}.ToPtr(s)
	childValue, err := scope.SynthesizeInternalQuery(api, s, childKey)
	if err != nil {
		return memoset.AllocatedPtr{}, nil, memoset.CircuitTranscript{}, err
	}

	result, err := q.PostRecursion(api, childValue)
	if err != nil {
		return memoset.AllocatedPtr{}, nil, memoset.CircuitTranscript{}, err
	}

	newAcc, newTranscriptPtr, _ := scope.IO()
	return result, newAcc, memoset.CircuitTranscript{Acc: newTranscriptPtr}, nil
}
