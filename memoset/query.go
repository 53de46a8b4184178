package memoset

import (
	"github.com/consensys/gnark/frontend"

	"github.com/lurk-lab/memoset/store"
)

// Query is spec.md §4.D's family interface. Go has no associated/static
// trait methods, so the per-family decode/dummy operations that the Rust
// trait hangs directly off Q are instead gathered into QueryDecoder and
// injected into Scope at construction time (see NewScope).
type Query interface {
	// Eval evaluates the query against store, recording any subqueries via
	// scope.QueryRecursively. Pure with respect to the store itself.
	Eval(s *store.Store, scope *Scope) (store.Ptr, error)
	// Symbol is this family's canonical heap-encoding name.
	Symbol() string
	// ToPtr encodes this query as (symbol . argument).
	ToPtr(s *store.Store) store.Ptr
	// ToCircuit allocates this query's circuit-side representation.
	ToCircuit(api frontend.API, s *store.Store) (CircuitQuery, error)
	// Index is this query's family's dense index.
	Index() int
}

// RecursiveQuery is the subset of circuit queries whose families call back
// into the scope for subqueries and must combine the subquery's result with
// local state.
type RecursiveQuery interface {
	CircuitQuery
	// PostRecursion combines a recursive subquery's result with this
	// query's own locally-held state to produce this query's final value.
	PostRecursion(api frontend.API, subResult AllocatedPtr) (AllocatedPtr, error)
}

// CircuitQuery is the circuit-side mirror of Query, built from an
// already-allocated key.
type CircuitQuery interface {
	// SynthesizeEval returns (value, acc', transcript'), multiplexing
	// base/recursive paths as needed under circuit-computed predicates.
	SynthesizeEval(api frontend.API, s *store.Store, scope *CircuitScope, acc frontend.Variable, transcript CircuitTranscript) (AllocatedPtr, frontend.Variable, CircuitTranscript, error)
}

// QueryDecoder is the native-side decode/dummy table a Scope is built
// with, standing in for the Rust trait's from_ptr/dummy_from_index/count
// static methods (spec.md §4.D, §6).
type QueryDecoder interface {
	// FromPtr decodes a heap form to a Query, or ok=false if ptr does not
	// belong to any family this decoder knows about.
	FromPtr(s *store.Store, ptr store.Ptr) (Query, bool)
	// DummyFromIndex produces a canonical dummy instance for family index.
	DummyFromIndex(s *store.Store, index int) Query
	// Count is the total number of families this decoder recognizes.
	Count() int
}

// CircuitQueryDecoder is the circuit-side counterpart of QueryDecoder. It is
// handed the native key Ptr -- not just its allocated wires -- so a family
// implementation can dispatch on its own argument structure (which Go
// struct to build, which base case applies) and derive a subquery's key,
// all non-secret routing decisions (the same role CoroutineCircuit's own
// Keys/FamilyIndex fields play). It must not use that Ptr to bake a query's
// actual key/result values into the circuit as constants: those still have
// to flow through the constraint system as hint-derived witness wires
// (memoset.WitnessPtr, CircuitScope's witnessQueryValue) so a compiled
// circuit is reusable across different native Scopes.
type CircuitQueryDecoder interface {
	FromKey(api frontend.API, s *store.Store, key store.Ptr) (CircuitQuery, error)
	DummyFromIndex(api frontend.API, s *store.Store, index int) (CircuitQuery, error)
}
