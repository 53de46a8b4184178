package store

import (
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/fxamacker/cbor/v2"
)

// Snapshot is a serializable image of a Store's interned content, keyed in
// insertion order so that replaying it on an empty Store reproduces the same
// Ptr indices. This gives the Store stand-in a real persistence path,
// following the WriteTo/ReadFrom shape gnark itself generates for
// constraint systems (see internal/backend/.../r1cs_sparse.go in the
// teacher repo), adapted here to cbor-encode conses/numbers/symbols instead
// of R1CS coefficients.
type Snapshot struct {
	Nums  []fr.Element
	Syms  []string
	Conses [][2]uint64 // packed (tag<<32|idx) pairs for car/cdr
}

func packPtr(p Ptr) uint64 {
	return uint64(p.tag)<<32 | uint64(p.idx)
}

func unpackPtr(v uint64) Ptr {
	return Ptr{tag: Tag(v >> 32), idx: uint32(v)}
}

// WriteTo encodes the Store's current content as cbor.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	s.mu.Lock()
	snap := Snapshot{
		Nums: append([]fr.Element(nil), s.nums...),
		Syms: append([]string(nil), s.syms...),
	}
	for _, c := range s.conses {
		snap.Conses = append(snap.Conses, [2]uint64{packPtr(c.car), packPtr(c.cdr)})
	}
	s.mu.Unlock()

	enc := cbor.NewEncoder(w)
	if err := enc.Encode(&snap); err != nil {
		return 0, fmt.Errorf("store: encode snapshot: %w", err)
	}
	Logger().Debug().Int("nums", len(snap.Nums)).Int("syms", len(snap.Syms)).Int("conses", len(snap.Conses)).Msg("wrote snapshot")
	return 0, nil
}

// ReadFrom replays a Snapshot into the (assumed empty) Store, reconstructing
// Ptr indices in the same order they were originally interned so that every
// previously-recorded Ptr remains valid.
func (s *Store) ReadFrom(r io.Reader) (int64, error) {
	dec := cbor.NewDecoder(r)
	var snap Snapshot
	if err := dec.Decode(&snap); err != nil {
		return 0, fmt.Errorf("store: decode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range snap.Nums {
		if _, ok := s.numIdx[n]; ok {
			continue
		}
		p := Ptr{tag: TagNum, idx: uint32(len(s.nums))}
		s.nums = append(s.nums, n)
		s.numIdx[n] = p
	}
	for _, name := range snap.Syms {
		if _, ok := s.symIdx[name]; ok {
			continue
		}
		p := Ptr{tag: TagSym, idx: uint32(len(s.syms))}
		s.syms = append(s.syms, name)
		s.symIdx[name] = p
	}
	for _, pair := range snap.Conses {
		c := consCell{unpackPtr(pair[0]), unpackPtr(pair[1])}
		if _, ok := s.consIdx[c]; ok {
			continue
		}
		p := Ptr{tag: TagCons, idx: uint32(len(s.conses))}
		s.conses = append(s.conses, c)
		s.consIdx[c] = p
	}
	// Drop the hash cache and rebuild the reverse map by hashing every
	// interned atom and cons now.
	s.hashCache = make(map[Ptr]ZPtr)
	s.rev = make(map[ZPtr]Ptr)
	s.rev[s.hashPtrLocked(s.nil)] = s.nil
	for i := range s.nums {
		p := Ptr{tag: TagNum, idx: uint32(i)}
		s.rev[s.hashPtrLocked(p)] = p
	}
	for i := range s.syms {
		p := Ptr{tag: TagSym, idx: uint32(i)}
		s.rev[s.hashPtrLocked(p)] = p
	}
	for i := range s.conses {
		p := Ptr{tag: TagCons, idx: uint32(i)}
		s.rev[s.hashPtrLocked(p)] = p
	}
	return 0, nil
}
