package memoset

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"

	"github.com/lurk-lab/memoset/store"
)

func TestLogMemoFinalizeTwicePanics(t *testing.T) {
	s := store.New()
	m := NewLogMemo()
	tr := NewTranscript(s)
	tr.Add(MakeKV(s, s.Num(1), s.Num(1)))

	m.FinalizeTranscript(s, tr)
	require.True(t, m.IsFinalized())
	require.Panics(t, func() { m.FinalizeTranscript(s, tr) })
}

func TestLogMemoMapToElementBeforeFinalize(t *testing.T) {
	m := NewLogMemo()
	_, ok := m.MapToElement(nil, fr.Element{})
	require.False(t, ok)
}

func TestLogMemoMapToElementIsInverseOfRPlusX(t *testing.T) {
	s := store.New()
	m := NewLogMemo()
	tr := NewTranscript(s)
	tr.Add(MakeKV(s, s.Num(1), s.Num(1)))
	m.FinalizeTranscript(s, tr)

	r, ok := m.R()
	require.True(t, ok)

	var x fr.Element
	x.SetUint64(7)
	elt, ok := m.MapToElement(s, x)
	require.True(t, ok)

	var d, one fr.Element
	d.Add(&r, &x)
	one.Mul(&d, &elt)
	require.True(t, one.IsOne())
}

func TestLogMemoToCircuitBeforeFinalizeErrors(t *testing.T) {
	m := NewLogMemo()
	_, err := m.ToCircuit(nil)
	require.Error(t, err)
}

func TestLogMemoCountTracksAdds(t *testing.T) {
	m := NewLogMemo()
	s := store.New()
	kv := MakeKV(s, s.Num(1), s.Num(2))
	require.Equal(t, uint64(0), m.Count(kv))
	m.Add(kv)
	m.Add(kv)
	require.Equal(t, uint64(2), m.Count(kv))
}
