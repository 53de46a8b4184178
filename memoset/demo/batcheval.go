package demo

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/lurk-lab/memoset/memoset"
	"github.com/lurk-lab/memoset/store"
)

// BatchEval evaluates several independent top-level queries concurrently,
// each against its own throwaway Store and Scope. Scope itself is
// single-threaded and cooperative (spec.md §5): no two goroutines here ever
// touch the same Scope, so this stays within that rule while still fanning
// out the independent native recursion work, the same way
// famouswizard-gnark/backend/fflonk/bn254/prove.go uses
// errgroup.WithContext to run independent prover stages concurrently. It
// is a host-side pretrial convenience (SPEC_FULL.md §2); the real proving
// pass still builds one Scope sequentially so its transcript ordering
// matches spec.md §4.E.
func BatchEval(ctx context.Context, decoder NativeDecoder, queries []memoset.Query) ([]fr.Element, error) {
	results := make([]fr.Element, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			s := store.New()
			scope := memoset.NewScope(decoder, memoset.NewLogMemo())
			form := q.ToPtr(s)
			v, err := scope.Query(s, form)
			if err != nil {
				return err
			}
			results[i] = s.HashPtr(v).Value
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
