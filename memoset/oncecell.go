package memoset

import "fmt"

// onceCell is a single-assignment cell: Set may be called at most once and
// panics otherwise. This is the Go stand-in for the Rust OnceCell used to
// hand off r and the finalized transcript from the native pass to the
// circuit pass (spec.md §3, §9). The allocated r wire is not held in a
// onceCell: LogMemo.ToCircuit builds it afresh on every call. The core is documented
// as single-threaded and cooperative (spec.md §5), so no locking is needed.
type onceCell[T any] struct {
	set   bool
	value T
}

// Set stores v, panicking if the cell was already set.
func (c *onceCell[T]) Set(v T) {
	if c.set {
		panic(fmt.Sprintf("memoset: cell already set to %v, refusing to overwrite with %v", c.value, v))
	}
	c.value = v
	c.set = true
}

// Get returns the stored value and whether one has been set.
func (c *onceCell[T]) Get() (T, bool) {
	return c.value, c.set
}

// MustGet returns the stored value, panicking if unset.
func (c *onceCell[T]) MustGet() T {
	if !c.set {
		panic("memoset: cell read before being set")
	}
	return c.value
}

// IsSet reports whether Set has been called.
func (c *onceCell[T]) IsSet() bool { return c.set }
