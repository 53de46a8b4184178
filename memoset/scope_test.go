package memoset_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lurk-lab/memoset/memoset"
	"github.com/lurk-lab/memoset/memoset/demo"
	"github.com/lurk-lab/memoset/store"
)

func newFactorialScope(transcribeInternal bool) (*store.Store, *memoset.Scope) {
	s := store.New()
	sc := memoset.NewScope(demo.NativeDecoder{}, memoset.NewLogMemo(),
		memoset.WithTranscribeInternal(transcribeInternal), memoset.WithDefaultRC(1))
	return s, sc
}

// Scenario 1 of spec.md §8: Scope::query(fact(0)) -- one query, one
// toplevel insertion, no internal insertions (the base case never recurses).
func TestScopeQueryFactorialBaseCase(t *testing.T) {
	s, sc := newFactorialScope(false)
	form := demo.FactorialQuery{N: 0}.ToPtr(s)

	value, err := sc.Query(s, form)
	require.NoError(t, err)
	require.Equal(t, s.Num(1), value)

	stats := sc.Stats()
	require.Equal(t, 1, stats.Queries)
	require.Equal(t, 1, stats.ToplevelInsertions)
	require.Equal(t, 0, stats.InternalInsertions)
}

// Scenario 2: Scope::query(fact(4)) memoizes fact for {0,1,2,3,4} -- five
// queries, one toplevel insertion, four internal insertions (fact(3)
// through fact(0), recursively reached from fact(4)).
func TestScopeQueryFactorialMemoizesSubqueries(t *testing.T) {
	s, sc := newFactorialScope(false)
	form := demo.FactorialQuery{N: 4}.ToPtr(s)

	value, err := sc.Query(s, form)
	require.NoError(t, err)
	require.Equal(t, s.Num(24), value)

	stats := sc.Stats()
	require.Equal(t, 5, stats.Queries)
	require.Equal(t, 1, stats.ToplevelInsertions)
	require.Equal(t, 4, stats.InternalInsertions)
}

// Scenario 3: a second Query(fact(3)) on the same scope adds a second
// top-level insertion but no new memoized queries or internal insertions,
// since fact(3) was already memoized while evaluating fact(4).
func TestScopeQuerySameScopeReusesMemo(t *testing.T) {
	s, sc := newFactorialScope(false)
	form4 := demo.FactorialQuery{N: 4}.ToPtr(s)
	_, err := sc.Query(s, form4)
	require.NoError(t, err)

	form3 := demo.FactorialQuery{N: 3}.ToPtr(s)
	value, err := sc.Query(s, form3)
	require.NoError(t, err)
	require.Equal(t, s.Num(6), value)

	stats := sc.Stats()
	require.Equal(t, 5, stats.Queries)
	require.Equal(t, 2, stats.ToplevelInsertions)
	require.Equal(t, 4, stats.InternalInsertions)
}

func TestScopeFinalizeTranscriptIsIdempotent(t *testing.T) {
	s, sc := newFactorialScope(false)
	form := demo.FactorialQuery{N: 4}.ToPtr(s)
	_, err := sc.Query(s, form)
	require.NoError(t, err)

	t1 := sc.FinalizeTranscript(s)
	t2 := sc.FinalizeTranscript(s)
	require.Equal(t, t1.Ptr(), t2.Ptr())
	require.Equal(t, t1.R(), t2.R())
}

func TestScopeFibUsesSecondFamily(t *testing.T) {
	s := store.New()
	sc := memoset.NewScope(demo.NativeDecoder{}, memoset.NewLogMemo())
	form := demo.FibQuery{N: 7}.ToPtr(s)

	value, err := sc.Query(s, form)
	require.NoError(t, err)
	require.Equal(t, s.Num(13), value)
}
