// Package alphabet maps between ASCII sequence symbols and small integer
// codes used throughout the dot-plot engine. It follows the table-driven
// encode/decode style of grailbio/bio's fusion package kmer ASCII maps,
// generalized from a fixed 4-letter DNA alphabet to an arbitrary
// caller-supplied symbol set.
package alphabet

import (
	"github.com/grailbio/base/errors"
	gunsafe "github.com/grailbio/base/unsafe"
)

// Code is the 0-based index of a symbol within an Alphabet. A Code equal to
// an Alphabet's Size is the sentinel, standing for any input byte outside
// the configured symbol set.
type Code uint8

// MaxSize is the largest number of real symbols an Alphabet may hold. It is
// bounded well below 256 so that Sentinel (== Size) and tuple-hash overflow
// checks have headroom.
const MaxSize = 32

// Sequence is an encoded, immutable view of a symbol string.
type Sequence []Code

// Alphabet configures the symbol <-> Code mapping and, optionally, a
// complement table (e.g. DNA's A<->T, C<->G) used by extend's reverse-strand
// kernel.
type Alphabet struct {
	symbols    []byte
	toCode     [256]Code
	toSymbol   []byte
	complement []byte // complement[c] is the complement of symbol[c], sized len(symbols); nil if undefined.
	sentinel   Code
	isDNA      bool
}

// DNA is the default nucleotide alphabet {A, C, G, T} with the standard
// Watson-Crick complement.
var DNA = mustNewDNA()

func mustNewDNA() *Alphabet {
	a, err := New("ACGT", map[byte]byte{'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A'})
	if err != nil {
		panic(err)
	}
	a.isDNA = true
	return a
}

// New builds an Alphabet from a set of distinct uppercase symbol bytes. If
// complement is non-nil, it must define a complement for every symbol, and
// the mapping must be an involution (complement of complement is identity).
func New(symbols string, complement map[byte]byte) (*Alphabet, error) {
	if len(symbols) == 0 {
		return nil, errors.E("ParameterError", "alphabet must contain at least one symbol")
	}
	if len(symbols) > MaxSize {
		return nil, errors.E("ParameterError", "alphabet exceeds MaxSize", len(symbols), MaxSize)
	}
	a := &Alphabet{
		symbols:  []byte(symbols),
		toSymbol: []byte(symbols),
		sentinel: Code(len(symbols)),
	}
	for i := range a.toCode {
		a.toCode[i] = a.sentinel
	}
	seen := make(map[byte]bool, len(symbols))
	for i, s := range a.symbols {
		if seen[s] {
			return nil, errors.E("ParameterError", "duplicate alphabet symbol", string(s))
		}
		seen[s] = true
		a.toCode[s] = Code(i)
	}
	if complement != nil {
		a.complement = make([]byte, len(a.symbols))
		for i, s := range a.symbols {
			c, ok := complement[s]
			if !ok {
				return nil, errors.E("ParameterError", "complement not defined for symbol", string(s))
			}
			if _, ok := seen[c]; !ok {
				return nil, errors.E("ParameterError", "complement symbol not in alphabet", string(c))
			}
			a.complement[i] = c
		}
		for i, s := range a.symbols {
			back, ok := complement[a.complement[i]]
			if !ok || back != s {
				return nil, errors.E("ParameterError", "complement mapping is not an involution", string(s))
			}
		}
	}
	return a, nil
}

// Size returns |Σ|, the number of real (non-sentinel) symbols.
func (a *Alphabet) Size() int { return len(a.symbols) }

// Sentinel returns the out-of-band code used for symbols outside Σ.
func (a *Alphabet) Sentinel() Code { return a.sentinel }

// HasComplement reports whether this Alphabet defines a strand complement.
func (a *Alphabet) HasComplement() bool { return a.complement != nil }

// Encode converts an ASCII symbol string to a Sequence, normalizing any byte
// outside Σ to Sentinel(). Unknown symbols never abort the call; they just
// poison any tuple that touches them.
func (a *Alphabet) Encode(ascii string) Sequence {
	out := make(Sequence, len(ascii))
	// Fast path for the default DNA alphabet, mirroring the
	// table-lookup-per-byte shape of biosimd.ASCIIToSeq8's generic fallback,
	// since the SIMD asm variant is hardwired to a different packed layout.
	if a.isDNA {
		src := gunsafe.StringToBytes(ascii)
		for i, ch := range src {
			out[i] = a.toCode[ch]
		}
		return out
	}
	for i := 0; i < len(ascii); i++ {
		out[i] = a.toCode[ascii[i]]
	}
	return out
}

// Decode converts a Sequence back to its ASCII form. Sentinel codes decode
// to 'N', matching the original DotPlot.py convention for the catch-all
// symbol.
func (a *Alphabet) Decode(seq Sequence) string {
	buf := make([]byte, len(seq))
	for i, c := range seq {
		if c == a.sentinel {
			buf[i] = 'N'
			continue
		}
		buf[i] = a.toSymbol[c]
	}
	return string(buf)
}

// Complement returns the complement code of c. It panics if this Alphabet
// has no complement table; callers must check HasComplement first.
func (a *Alphabet) Complement(c Code) Code {
	if a.complement == nil {
		panic("alphabet: Complement called on an alphabet with no complement table")
	}
	if int(c) >= len(a.symbols) {
		return a.sentinel
	}
	return a.toCode[a.complement[c]]
}

// Reverse returns a new Sequence with symbols in reverse order.
func Reverse(seq Sequence) Sequence {
	out := make(Sequence, len(seq))
	n := len(seq)
	for i, c := range seq {
		out[n-1-i] = c
	}
	return out
}

// ReverseComplement returns a new Sequence with symbols reverse-complemented
// according to a's complement table. It panics if a has no complement table.
func (a *Alphabet) ReverseComplement(seq Sequence) Sequence {
	out := make(Sequence, len(seq))
	n := len(seq)
	for i, c := range seq {
		out[n-1-i] = a.Complement(c)
	}
	return out
}

// TupleCount returns |Σ|^k, the number of distinct k-tuples, and an error if
// the value would overflow an int.
func (a *Alphabet) TupleCount(k int) (int, error) {
	if k < 1 {
		return 0, errors.E("ParameterError", "k must be >= 1", k)
	}
	sigma := a.Size()
	count := 1
	for i := 0; i < k; i++ {
		next := count * sigma
		if sigma != 0 && next/sigma != count {
			return 0, errors.E("ParameterError", "tuple_count overflow for k", k)
		}
		count = next
	}
	return count, nil
}

// TupleHash computes t(seq[0:k]) = sum_j code(seq[j]) * |Σ|^(k-1-j). It
// returns ok=false if any symbol in the window is the sentinel (a
// "poisoned" tuple), in which case the indexer must skip the position
// entirely.
func (a *Alphabet) TupleHash(seq Sequence) (hash int, ok bool) {
	sigma := a.Size()
	for _, c := range seq {
		if int(c) >= sigma {
			return 0, false
		}
		hash = hash*sigma + int(c)
	}
	return hash, true
}
