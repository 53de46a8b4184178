// Package memoset implements a LogUp-backed memoization multiset for a
// zero-knowledge proving pipeline: whenever a proved computation consumes
// the result of a (possibly mutually recursive) query, the prover supplies
// that result non-deterministically, defers the obligation to prove it, and
// must discharge every deferred obligation before the surrounding proof is
// accepted.
//
// The three load-bearing pieces are Transcript (an append-only,
// content-addressed list whose hash yields Fiat-Shamir randomness),
// LogMemo/LogMemoCircuit (the Σ 1/(r+x) multiset accumulator, native and
// in-circuit), and Scope/CircuitScope (the evaluation-time bookkeeper and
// its circuit mirror). They must agree bit-exactly: the native pass
// observes every query and derives r from a transcript the circuit has not
// yet seen; the circuit pass rebuilds the identical transcript and
// accumulator from allocated wires without ever seeing r in advance.
package memoset
