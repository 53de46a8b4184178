package store

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := New()
	n := s.Num(4)
	sym := s.InternSymbol("lurk", "user", "factorial")
	c := s.Cons(sym, n)
	want := s.HashPtr(c)

	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)

	restored := New()
	_, err = restored.ReadFrom(&buf)
	require.NoError(t, err)

	n2 := restored.Num(4)
	sym2 := restored.InternSymbol("lurk", "user", "factorial")
	c2 := restored.Cons(sym2, n2)
	require.Equal(t, want, restored.HashPtr(c2))
}
