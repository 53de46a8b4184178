package memoset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lurk-lab/memoset/store"
)

func TestTranscriptRIsHeadHash(t *testing.T) {
	s := store.New()
	tr := NewTranscript(s)
	kv := MakeKV(s, s.Num(1), s.Num(2))
	tr.Add(kv)

	want := s.HashPtr(tr.Ptr()).Value
	got := tr.R()
	require.True(t, got.Equal(&want))
}

func TestTranscriptRPanicsWhenEmpty(t *testing.T) {
	s := store.New()
	tr := NewTranscript(s)
	require.Panics(t, func() { tr.R() })
}

func TestTranscriptIsPrependOrder(t *testing.T) {
	s := store.New()
	tr := NewTranscript(s)
	first := MakeKV(s, s.Num(1), s.Num(1))
	second := MakeKV(s, s.Num(2), s.Num(2))
	tr.Add(first)
	tr.Add(second)

	car, cdr, err := s.CarCdr(tr.Ptr())
	require.NoError(t, err)
	require.Equal(t, second, car, "most recently Add-ed record is the list head")

	car2, _, err := s.CarCdr(cdr)
	require.NoError(t, err)
	require.Equal(t, first, car2)
}

func TestMakeKVCountEmbedsCount(t *testing.T) {
	s := store.New()
	kv := MakeKV(s, s.Num(1), s.Num(1))
	kvc := MakeKVCount(s, kv, 3)

	_, countPtr, err := s.CarCdr(kvc)
	require.NoError(t, err)
	z := s.HashPtr(countPtr)
	require.Equal(t, store.TagNum, z.Tag)
	require.Equal(t, s.Num(3), countPtr)
}
