// Package galloc is a minimal stand-in for the "global allocator of common
// constants" collaborator named in spec.md §6. The real collaborator caches
// allocations of frequently reused circuit constants (nil, zero, small
// tags) so that repeated synthesis of the same constant does not mint a
// fresh wire every time. It is declared out of scope in spec.md §1, but the
// circuit package needs a concrete implementation of its contract to
// compile and be exercised.
package galloc

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"
)

// Allocator caches constant-wire allocations across a single circuit
// synthesis so CircuitScope/CircuitQuery implementations can request the
// same constant repeatedly without growing the constraint system.
type Allocator struct {
	consts map[constKey]frontend.Variable
}

type constKey struct {
	// value is compared via its decimal string since frontend.Variable may
	// wrap a *big.Int, an int, or another Variable depending on the builder;
	// the string form is stable across all of them for small constants.
	value string
}

// New returns an empty Allocator.
func New() *Allocator {
	return &Allocator{consts: make(map[constKey]frontend.Variable)}
}

// AllocConst returns a constant wire for v, allocating it at most once per
// Allocator. Equivalent to repeatedly passing a go literal to api.Add/
// api.Mul, except that it is memoized.
func (a *Allocator) AllocConst(api frontend.API, v interface{}) frontend.Variable {
	key := constKey{value: fmtKey(v)}
	if w, ok := a.consts[key]; ok {
		return w
	}
	w := api.Mul(v, 1)
	a.consts[key] = w
	return w
}

func fmtKey(v interface{}) string {
	switch x := v.(type) {
	case int:
		return "i:" + itoa(int64(x))
	case int64:
		return "i:" + itoa(x)
	case uint64:
		return "u:" + itoa(int64(x))
	case *big.Int:
		return "i:" + x.String()
	default:
		return fmt.Sprintf("%T:%v", v, v)
	}
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
