package galloc_test

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/test"
	"github.com/stretchr/testify/require"

	"github.com/lurk-lab/memoset/galloc"
)

// dedupeCircuit asserts that two AllocConst calls for the same value on one
// Allocator yield equal wire values, while a third call for a different
// value does not collide with it.
type dedupeCircuit struct {
	OK frontend.Variable `gnark:",public"`
}

func (c *dedupeCircuit) Define(api frontend.API) error {
	a := galloc.New()
	x1 := a.AllocConst(api, 7)
	x2 := a.AllocConst(api, 7)
	api.AssertIsEqual(x1, x2)

	y := a.AllocConst(api, 8)
	diff := api.Sub(y, x1)
	api.AssertIsDifferent(diff, 0)

	api.AssertIsEqual(c.OK, 1)
	return nil
}

func TestAllocConstDedupesEqualValues(t *testing.T) {
	assert := test.NewAssert(t)
	circuit := &dedupeCircuit{}
	witness := &dedupeCircuit{OK: 1}
	assert.ProverSucceeded(circuit, witness, test.WithBackends(backend.GROTH16), test.WithCurves(ecc.BN254))
}

func TestAllocatorsAreIndependent(t *testing.T) {
	// Two separate Allocators never share cached wires -- each CircuitScope
	// synthesis gets its own Allocator (see circuitscope.go), so this just
	// documents that New() does not leak state across instances.
	a := galloc.New()
	b := galloc.New()
	require.NotNil(t, a)
	require.NotNil(t, b)
}
