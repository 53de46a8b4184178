package demo_test

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/test"
	"github.com/stretchr/testify/require"

	"github.com/lurk-lab/memoset/memoset"
	"github.com/lurk-lab/memoset/memoset/demo"
	"github.com/lurk-lab/memoset/store"
)

// scopeCircuit wraps an already-evaluated Scope for a single
// test.ProverSucceeded run. Store/Scope/Decoder are plain (untagged) Go
// fields, not frontend.Variable wires -- they are the out-of-band context a
// hint closure reads from at witness-solving time (memoset.WitnessPtr,
// CircuitScope's witnessQueryValue), the same role a Rust ConstraintSystem
// caller's surrounding Rust values play for an AllocatedNum::alloc(|| ...)
// closure. Every query key and result the circuit actually constrains still
// flows through the constraint system as a hint-derived wire, not a
// constant. OK is this test's only directly-tagged wire, asserted equal to
// the public constant 1 so the circuit has at least one conventional public
// I/O wire to solve for.
type scopeCircuit struct {
	Store   *store.Store
	Scope   *memoset.Scope
	Decoder demo.CircuitDecoder
	OK      frontend.Variable `gnark:",public"`
}

func (c *scopeCircuit) Define(api frontend.API) error {
	if err := c.Scope.Synthesize(api, c.Store, c.Decoder); err != nil {
		return err
	}
	api.AssertIsEqual(c.OK, 1)
	return nil
}

func buildFactorialScope(t *testing.T, transcribeInternal bool) (*store.Store, *memoset.Scope) {
	t.Helper()
	s := store.New()
	sc := memoset.NewScope(demo.NativeDecoder{}, memoset.NewLogMemo(),
		memoset.WithTranscribeInternal(transcribeInternal), memoset.WithDefaultRC(1))
	form := demo.FactorialQuery{N: 4}.ToPtr(s)
	_, err := sc.Query(s, form)
	require.NoError(t, err)
	sc.FinalizeTranscript(s)
	return s, sc
}

// Scenario 4 of spec.md §8: transcribeInternalInsertions=true, rc=1, the
// circuit over fact(4) is satisfied.
func TestCircuitFactorialSatisfiedTranscribeInternal(t *testing.T) {
	assert := test.NewAssert(t)
	s, sc := buildFactorialScope(t, true)

	circuit := &scopeCircuit{Store: s, Scope: sc, Decoder: demo.CircuitDecoder{}}
	witness := &scopeCircuit{Store: s, Scope: sc, Decoder: demo.CircuitDecoder{}, OK: 1}
	assert.ProverSucceeded(circuit, witness, test.WithBackends(backend.GROTH16), test.WithCurves(ecc.BN254))
}

// Scenario 5: transcribeInternalInsertions=false, rc=1, still satisfied.
// Fewer dependency insertion records are transcribed than in scenario 4;
// this test checks satisfaction only and does not compare constraint/aux
// counts.
func TestCircuitFactorialSatisfiedNoTranscribeInternal(t *testing.T) {
	assert := test.NewAssert(t)
	s, sc := buildFactorialScope(t, false)

	circuit := &scopeCircuit{Store: s, Scope: sc, Decoder: demo.CircuitDecoder{}}
	witness := &scopeCircuit{Store: s, Scope: sc, Decoder: demo.CircuitDecoder{}, OK: 1}
	assert.ProverSucceeded(circuit, witness, test.WithBackends(backend.GROTH16), test.WithCurves(ecc.BN254))
}

func TestCircuitFibSatisfied(t *testing.T) {
	assert := test.NewAssert(t)
	s := store.New()
	sc := memoset.NewScope(demo.NativeDecoder{}, memoset.NewLogMemo())
	form := demo.FibQuery{N: 7}.ToPtr(s)
	_, err := sc.Query(s, form)
	require.NoError(t, err)
	sc.FinalizeTranscript(s)

	circuit := &scopeCircuit{Store: s, Scope: sc, Decoder: demo.CircuitDecoder{}}
	witness := &scopeCircuit{Store: s, Scope: sc, Decoder: demo.CircuitDecoder{}, OK: 1}
	assert.ProverSucceeded(circuit, witness, test.WithBackends(backend.GROTH16), test.WithCurves(ecc.BN254))
}
