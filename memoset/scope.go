package memoset

import (
	"fmt"

	"github.com/consensys/gnark/frontend"

	"github.com/lurk-lab/memoset/store"
)

// DefaultRC and DefaultTranscribeInternalInsertions are spec.md §6's
// defaults for a freshly constructed Scope.
const (
	DefaultRC                          = 1
	DefaultTranscribeInternalInsertions = false
)

// ScopeOption configures NewScope, in place of a config file (§1 AMBIENT
// STACK: Scope takes its tunables as constructor arguments/options, the way
// gnark itself prefers functional options over config structs).
type ScopeOption func(*Scope)

// WithTranscribeInternal sets whether dependency insertion records are
// replayed into the transcript (spec.md §4.E step 3).
func WithTranscribeInternal(v bool) ScopeOption {
	return func(sc *Scope) { sc.transcribeInternalInsertions = v }
}

// WithDefaultRC overrides the fallback fold-step width used by families
// with no per-family override.
func WithDefaultRC(rc int) ScopeOption {
	return func(sc *Scope) { sc.defaultRC = rc }
}

// WithFamilyRC sets the fold-step width for one family index, generalizing
// the source's own comment about evolving default_rc into an explicit map
// (SPEC_FULL.md §4.2).
func WithFamilyRC(index, rc int) ScopeOption {
	return func(sc *Scope) { sc.rcForFamily[index] = rc }
}

// Scope is spec.md §4.E's evaluation-time bookkeeper: queries, subquery
// dependencies, and memoized values.
type Scope struct {
	decoder QueryDecoder
	memoset MemoSet

	transcribeInternalInsertions bool
	defaultRC                    int
	rcForFamily                  map[int]int

	queries map[store.Ptr]store.Ptr // key -> value, memoization table

	toplevelInsertions []store.Ptr // kv Ptrs, discovery order
	internalInsertions []store.Ptr // keys (not kv Ptrs), pre-order, duplicates preserved

	dependencies map[store.Ptr][]store.Ptr // parent key -> child keys, recorded order

	uniqueInsertedKeys [][]store.Ptr // per family index: keys in first-appearance order, set by buildTranscript

	transcript onceCell[*Transcript]
}

// ScopeStats reports the discovery-time bookkeeping sizes spec.md §8's
// end-to-end scenarios check against: the number of distinct memoized
// queries, the number of Query calls, and the number of QueryRecursively
// calls.
type ScopeStats struct {
	Queries            int
	ToplevelInsertions int
	InternalInsertions int
}

// Stats returns the current query/insertion counts.
func (sc *Scope) Stats() ScopeStats {
	return ScopeStats{
		Queries:            len(sc.queries),
		ToplevelInsertions: len(sc.toplevelInsertions),
		InternalInsertions: len(sc.internalInsertions),
	}
}

// NewScope constructs an empty Scope backed by decoder and memoset.
func NewScope(decoder QueryDecoder, memoset MemoSet, opts ...ScopeOption) *Scope {
	sc := &Scope{
		decoder:                      decoder,
		memoset:                      memoset,
		transcribeInternalInsertions: DefaultTranscribeInternalInsertions,
		defaultRC:                    DefaultRC,
		rcForFamily:                  make(map[int]int),
		queries:                      make(map[store.Ptr]store.Ptr),
		dependencies:                 make(map[store.Ptr][]store.Ptr),
		uniqueInsertedKeys:           make([][]store.Ptr, decoder.Count()),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// RCForQuery returns the fold-step width configured for familyIndex,
// falling back to defaultRC.
func (sc *Scope) RCForQuery(familyIndex int) int {
	if rc, ok := sc.rcForFamily[familyIndex]; ok {
		return rc
	}
	return sc.defaultRC
}

func (sc *Scope) evalAndMemoize(s *store.Store, q Query) (store.Ptr, error) {
	key := q.ToPtr(s)
	if v, ok := sc.queries[key]; ok {
		return v, nil
	}
	v, err := q.Eval(s, sc)
	if err != nil {
		return store.Ptr{}, err
	}
	sc.queries[key] = v
	return v, nil
}

// Query decodes form, evaluates it (memoizing), records it as a top-level
// insertion, and adds it to the multiset (spec.md §4.E).
func (sc *Scope) Query(s *store.Store, form store.Ptr) (store.Ptr, error) {
	q, ok := sc.decoder.FromPtr(s, form)
	if !ok {
		return store.Ptr{}, fmt.Errorf("memoset: form does not decode to a known query family")
	}
	key := q.ToPtr(s)
	value, err := sc.evalAndMemoize(s, q)
	if err != nil {
		return store.Ptr{}, err
	}
	kv := MakeKV(s, key, value)
	sc.toplevelInsertions = append(sc.toplevelInsertions, kv)
	sc.memoset.Add(kv)
	return value, nil
}

// QueryRecursively records child's key as an internal insertion before
// recursing into it (pre-order, parent-before-child -- mod.rs's
// query_recursively pushes `form` onto internal_insertions ahead of calling
// query_aux), evaluates it (memoizing), adds it to the multiset, and
// registers it under parent's dependency list in first-use order with
// duplicates (spec.md §4.E). Recording pre-order, rather than after
// evalAndMemoize returns, is what lets buildTranscript's later scan of
// internalInsertions see keys in outer-to-inner discovery order instead of
// inner-to-outer.
func (sc *Scope) QueryRecursively(s *store.Store, parent, child Query) (store.Ptr, error) {
	childKey := child.ToPtr(s)
	sc.internalInsertions = append(sc.internalInsertions, childKey)

	value, err := sc.evalAndMemoize(s, child)
	if err != nil {
		return store.Ptr{}, err
	}
	kv := MakeKV(s, childKey, value)
	sc.memoset.Add(kv)

	parentKey := parent.ToPtr(s)
	sc.dependencies[parentKey] = append(sc.dependencies[parentKey], childKey)
	return value, nil
}

// buildTranscript implements spec.md §4.E's canonical ordering algorithm. It
// is the single pass that populates sc.uniqueInsertedKeys: a key's first
// appearance is recorded by scanning the now-complete toplevelInsertions
// list first, then the now-complete internalInsertions list (mod.rs's
// build_transcript does the same two already-complete passes), rather than
// recording first-appearance inline as Query/QueryRecursively run. Doing it
// here, after evaluation has finished, is what gives "toplevel first, then
// internal in discovery order" instead of whatever order evaluation happens
// to visit keys in.
func (sc *Scope) buildTranscript(s *store.Store) *Transcript {
	t := NewTranscript(s)

	seen := make(map[store.Ptr]bool)
	unique := make([][]store.Ptr, sc.decoder.Count())
	recordUnique := func(key store.Ptr) {
		if seen[key] {
			return
		}
		seen[key] = true
		q, ok := sc.decoder.FromPtr(s, key)
		if !ok {
			return
		}
		unique[q.Index()] = append(unique[q.Index()], key)
	}

	for _, kv := range sc.toplevelInsertions {
		key, _, err := s.CarCdr(kv)
		if err != nil {
			continue
		}
		recordUnique(key)
	}
	for _, key := range sc.internalInsertions {
		recordUnique(key)
	}
	sc.uniqueInsertedKeys = unique

	for _, kv := range sc.toplevelInsertions {
		t.Add(kv)
	}

	for familyIndex := 0; familyIndex < len(sc.uniqueInsertedKeys); familyIndex++ {
		for _, key := range sc.uniqueInsertedKeys[familyIndex] {
			value := sc.queries[key]
			kv := MakeKV(s, key, value)

			for _, dep := range sc.dependencies[key] {
				if !sc.transcribeInternalInsertions {
					continue
				}
				depValue := sc.queries[dep]
				t.Add(MakeKV(s, dep, depValue))
			}

			count := sc.memoset.Count(kv)
			t.Add(MakeKVCount(s, kv, count))
		}
	}

	return t
}

// FinalizeTranscript builds the transcript (idempotently -- a second call
// returns the first-built transcript unchanged, matching
// ensure_transcript_finalized) and finalizes the backing MemoSet.
func (sc *Scope) FinalizeTranscript(s *store.Store) *Transcript {
	if t, ok := sc.transcript.Get(); ok {
		return t
	}
	t := sc.buildTranscript(s)
	sc.memoset.FinalizeTranscript(s, t)
	sc.transcript.Set(t)
	Logger().Debug().
		Int("toplevel", len(sc.toplevelInsertions)).
		Int("internal", len(sc.internalInsertions)).
		Str("transcript", t.String()).
		Msg("finalized transcript")
	return t
}

// Synthesize runs the full circuit pass: it finalizes the transcript if
// needed, builds a CircuitMemoSet and CircuitScope, dispatches every family's
// unique keys through fixed-width CoroutineCircuit fold steps (padding the
// final chunk with dummies), and enforces the closing conditions.
func (sc *Scope) Synthesize(api frontend.API, s *store.Store, decoder CircuitQueryDecoder) error {
	sc.FinalizeTranscript(s)

	cms, err := sc.memoset.ToCircuit(api)
	if err != nil {
		return fmt.Errorf("memoset: building circuit memoset: %w", err)
	}

	cs := NewCircuitScope(api, s, sc, cms, decoder, sc.transcribeInternalInsertions)

	if err := cs.SynthesizeInsertToplevelQueries(api, s); err != nil {
		return fmt.Errorf("memoset: synthesizing toplevel queries: %w", err)
	}

	for familyIndex := 0; familyIndex < len(sc.uniqueInsertedKeys); familyIndex++ {
		rc := sc.RCForQuery(familyIndex)
		keys := sc.uniqueInsertedKeys[familyIndex]
		for start := 0; start < len(keys); start += rc {
			end := start + rc
			if end > len(keys) {
				end = len(keys)
			}
			cc := &CoroutineCircuit{
				Keys:         keys[start:end],
				FamilyIndex:  familyIndex,
				RC:           rc,
				Scope:        sc,
				CircuitScope: cs,
			}
			if err := cc.Synthesize(api, s, decoder); err != nil {
				return fmt.Errorf("memoset: synthesizing family %d: %w", familyIndex, err)
			}
		}
	}

	return cs.Finalize(api)
}
