// Package store is a minimal stand-in for the host expression language's
// content-addressed heap. The real collaborator -- a full Lisp-like reader,
// printer and evaluator -- is out of scope for this module (see spec.md §1);
// what memoset needs from it is the narrow contract described in spec.md §6:
// interning of nil/symbols/numbers, cons/car-cdr, and a structural
// Ptr -> ZPtr content hash. This package implements exactly that contract,
// nothing more, so the rest of the module has something real to compile and
// be tested against.
package store

import (
	"fmt"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// Tag identifies the runtime type of a Ptr, mirroring Lurk's ExprTag.
type Tag uint8

const (
	TagNil Tag = iota
	TagCons
	TagNum
	TagSym
)

func (t Tag) String() string {
	switch t {
	case TagNil:
		return "nil"
	case TagCons:
		return "cons"
	case TagNum:
		return "num"
	case TagSym:
		return "sym"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// Ptr is an opaque handle into a Store. Two Ptrs are equal iff they were
// interned from structurally equal content: the Store guarantees this by
// construction (interning always looks up existing content before minting a
// new index), so Ptr itself can be used as a map key wherever the spec calls
// for "structural equality".
type Ptr struct {
	tag Tag
	idx uint32
}

// Tag reports the Ptr's expression tag.
func (p Ptr) Tag() Tag { return p.tag }

// ZPtr is a hashed pointer: a (tag, field-element) pair obtained by
// content-hashing a Ptr. It is what the LogUp accumulator consumes.
type ZPtr struct {
	Tag   Tag
	Value fr.Element
}

type consCell struct {
	car, cdr Ptr
}

// Store is a small, single-threaded, content-addressed heap of conses,
// numbers, symbols and a canonical nil. It is the "external collaborator"
// described in spec.md §6.
type Store struct {
	mu sync.Mutex

	nil Ptr

	conses   []consCell
	consIdx  map[consCell]Ptr
	nums     []fr.Element
	numIdx   map[fr.Element]Ptr
	syms     []string
	symIdx   map[string]Ptr

	hashCache map[Ptr]ZPtr
	rev       map[ZPtr]Ptr
}

// New returns an empty Store with its nil singleton interned.
func New() *Store {
	s := &Store{
		consIdx:   make(map[consCell]Ptr),
		numIdx:    make(map[fr.Element]Ptr),
		symIdx:    make(map[string]Ptr),
		hashCache: make(map[Ptr]ZPtr),
		rev:       make(map[ZPtr]Ptr),
	}
	s.nil = Ptr{tag: TagNil, idx: 0}
	s.rev[s.HashPtr(s.nil)] = s.nil
	return s
}

// InternNil returns the canonical nil Ptr.
func (s *Store) InternNil() Ptr { return s.nil }

// InternSymbol interns a dotted path such as []string{"lurk","user","factorial"}
// as a single symbol Ptr, canonicalized by its joined name.
func (s *Store) InternSymbol(path ...string) Ptr {
	name := joinSymbol(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.symIdx[name]; ok {
		return p
	}
	p := Ptr{tag: TagSym, idx: uint32(len(s.syms))}
	s.syms = append(s.syms, name)
	s.symIdx[name] = p
	s.rev[s.hashPtrLocked(p)] = p
	return p
}

func joinSymbol(path []string) string {
	out := ""
	for i, p := range path {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}

// FetchSymbol returns the dotted name of a symbol Ptr.
func (s *Store) FetchSymbol(p Ptr) (string, bool) {
	if p.tag != TagSym {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(p.idx) >= len(s.syms) {
		return "", false
	}
	return s.syms[p.idx], true
}

// Num interns a u64 as a numeric atom.
func (s *Store) Num(n uint64) Ptr {
	var f fr.Element
	f.SetUint64(n)
	return s.NumElement(f)
}

// NumElement interns a field element as a numeric atom.
func (s *Store) NumElement(f fr.Element) Ptr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.numIdx[f]; ok {
		return p
	}
	p := Ptr{tag: TagNum, idx: uint32(len(s.nums))}
	s.nums = append(s.nums, f)
	s.numIdx[f] = p
	s.rev[s.hashPtrLocked(p)] = p
	return p
}

// Cons interns the pair (car . cdr).
func (s *Store) Cons(car, cdr Ptr) Ptr {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := consCell{car, cdr}
	if p, ok := s.consIdx[c]; ok {
		return p
	}
	p := Ptr{tag: TagCons, idx: uint32(len(s.conses))}
	s.conses = append(s.conses, c)
	s.consIdx[c] = p
	s.rev[s.hashPtrLocked(p)] = p
	return p
}

// CarCdr decomposes a cons Ptr. It errors if p is not a cons.
func (s *Store) CarCdr(p Ptr) (Ptr, Ptr, error) {
	if p.tag != TagCons {
		return Ptr{}, Ptr{}, fmt.Errorf("store: CarCdr on non-cons Ptr (tag=%s)", p.tag)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.conses[p.idx]
	return c.car, c.cdr, nil
}

// HashPtr content-hashes a Ptr into its ZPtr, memoizing the result. Atoms
// (nil, numbers) are self-delimiting and hash to their own value; only
// conses and symbols require an actual hash of their content.
func (s *Store) HashPtr(p Ptr) ZPtr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hashPtrLocked(p)
}

func (s *Store) hashPtrLocked(p Ptr) ZPtr {
	if z, ok := s.hashCache[p]; ok {
		return z
	}
	var z ZPtr
	switch p.tag {
	case TagNil:
		z = ZPtr{Tag: TagNil, Value: fr.Element{}}
	case TagNum:
		z = ZPtr{Tag: TagNum, Value: s.nums[p.idx]}
	case TagSym:
		z = ZPtr{Tag: TagSym, Value: hashBytes([]byte(s.syms[p.idx]))}
	case TagCons:
		c := s.conses[p.idx]
		carZ := s.hashPtrLocked(c.car)
		cdrZ := s.hashPtrLocked(c.cdr)
		z = ZPtr{Tag: TagCons, Value: HashCons(carZ, cdrZ)}
	default:
		panic(fmt.Sprintf("store: unknown tag %d", p.tag))
	}
	s.hashCache[p] = z
	return z
}

// ToPtr reverses a ZPtr back to its interned Ptr. It is a programmer error
// to call this with a ZPtr that was never produced by this Store.
func (s *Store) ToPtr(z ZPtr) Ptr {
	p, ok := s.LookupPtr(z)
	if !ok {
		panic(fmt.Sprintf("store: no Ptr interned for ZPtr (tag=%s)", z.Tag))
	}
	return p
}

// LookupPtr is ToPtr without the panic, for callers (e.g. circuit hint
// closures, run only at witness-solving time against prover-supplied field
// values) that must turn a missing reverse mapping into an ordinary error
// instead of a crash.
func (s *Store) LookupPtr(z ZPtr) (Ptr, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rev[z]
	return p, ok
}

// HashCons computes the content hash of a cons cell from its children's
// ZPtrs. This is the native half of the native/circuit hash pairing: the
// circuit side lives in memoset.ConstructCons and must compute bit-identical
// output given the same (tag, value) inputs. memoset.ConstructCons feeds
// mimc.Write five same-width field elements (TagCons, car.Tag, car.Hash,
// cdr.Tag, cdr.Hash); writeTag must therefore encode a Tag as a full
// canonical fr.Element, the same width writeElem gives a value, not a
// narrower ad hoc byte buffer -- otherwise the two passes hash different
// byte streams for the same logical inputs.
func HashCons(car, cdr ZPtr) fr.Element {
	h := mimc.NewMiMC()
	writeTag := func(t Tag) {
		var f fr.Element
		f.SetUint64(uint64(t))
		writeElem(h, f)
	}
	writeTag(TagCons)
	writeTag(car.Tag)
	writeElem(h, car.Value)
	writeTag(cdr.Tag)
	writeElem(h, cdr.Value)
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out
}

func writeElem(h interface{ Write([]byte) (int, error) }, e fr.Element) {
	b := e.Bytes()
	h.Write(b[:])
}

func hashBytes(b []byte) fr.Element {
	h := mimc.NewMiMC()
	h.Write(b)
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out
}
