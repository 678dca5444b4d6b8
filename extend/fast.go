package extend

import (
	"github.com/grailbio/base/errors"

	"github.com/grailbio/dotplot/alphabet"
	"github.com/grailbio/dotplot/biosimd"
	"github.com/grailbio/dotplot/ktuple"
	"github.com/grailbio/dotplot/match"
)

// Kind labels which transform of the comparison sequence produced a
// FastResult field. The original DotPlot.py computes dot plots for three
// transformed views of the comparison sequence when an alphabet defines a
// complement (forward, reverse, reverse-complement); Kind threads that
// distinction through rather than collapsing reverse and
// reverse-complement into one case.
type Kind int

const (
	Forward Kind = iota
	Reverse
	ReverseComplement
)

func (k Kind) String() string {
	switch k {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	case ReverseComplement:
		return "reverse-complement"
	default:
		return "unknown"
	}
}

// FastResult holds the stores produced by Fast, one per transform of y
// that was computed. Forward and Reverse are always populated;
// ReverseComplement is populated only when the alphabet defines a
// complement table.
type FastResult struct {
	Stores map[Kind]*match.Store
}

// Fast builds a transient index over table internally and extends against
// the forward and, depending on the alphabet, reverse / reverse-complement
// transforms of y, returning one store per transform computed.
func Fast(table, y alphabet.Sequence, a *alphabet.Alphabet, p Params) (*FastResult, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	index, err := ktuple.Build(table, p.K, a)
	if err != nil {
		return nil, errors.E(err, "extend.Fast: building transient index")
	}

	result := &FastResult{Stores: map[Kind]*match.Store{}}

	forward, err := Extend(index, table, y, a, p)
	if err != nil {
		return nil, err
	}
	result.Stores[Forward] = forward

	rev := alphabet.Reverse(y)
	revStore, err := Extend(index, table, rev, a, p)
	if err != nil {
		return nil, err
	}
	result.Stores[Reverse] = revStore

	if a.HasComplement() {
		revComp := reverseComplement(y, a)
		revCompStore, err := Extend(index, table, revComp, a, p)
		if err != nil {
			return nil, err
		}
		result.Stores[ReverseComplement] = revCompStore
	}

	return result, nil
}

// reverseComplement computes the reverse-complement of y. For the default
// DNA alphabet it round-trips through ASCII and calls
// biosimd.ReverseComp8NoValidate, mirroring fusion/kmer.go's kmerizer.Scan,
// which uses the same function to reverse-complement a k-mer's ASCII form;
// any other alphabet falls back to the generic per-code table lookup.
func reverseComplement(y alphabet.Sequence, a *alphabet.Alphabet) alphabet.Sequence {
	if a != alphabet.DNA {
		return a.ReverseComplement(y)
	}
	ascii := []byte(a.Decode(y))
	out := make([]byte, len(ascii))
	biosimd.ReverseComp8NoValidate(out, ascii)
	return a.Encode(string(out))
}
