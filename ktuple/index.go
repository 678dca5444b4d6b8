// Package ktuple builds and queries a packed {tuple -> sorted position list}
// map over an encoded sequence, using a counting-sort two-array (C, D)
// layout: the same counts-then-scatter shape as grailbio/bio's
// fusion/kmer_index.go shard builder, but dense and unsharded — there's
// no hash table here, so grailbio/bio's farmhash sharding and
// mmap/madvise huge-page tuning have nothing to attach to.
package ktuple

import (
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"

	"github.com/grailbio/dotplot/alphabet"
)

// MinK is the smallest tuple size the engine accepts.
const MinK = 4

// Index is an immutable {k-tuple -> ascending position list} map over one
// encoded sequence. It owns C and D exclusively, and only borrows the
// sequence for the duration of Build.
type Index struct {
	k     int
	sigma int
	// C[t] is the offset into D where tuple t's position list begins; C is of
	// length TupleCount+1 and monotone non-decreasing.
	c []int32
	// D is the concatenation of every tuple's position list, in tuple-value
	// order.
	d []int32
}

// K returns the tuple size this index was built with.
func (idx *Index) K() int { return idx.k }

// Build constructs an Index over seq for the given tuple size k: tally
// clean tuple occurrences, prefix-sum into start offsets, then scatter
// positions into a single flat array.
func Build(seq alphabet.Sequence, k int, a *alphabet.Alphabet) (*Index, error) {
	if k < MinK {
		return nil, errors.E("ParameterError", "k below minimum", k, MinK)
	}
	tupleCount, err := a.TupleCount(k)
	if err != nil {
		return nil, err
	}
	if len(seq) < k {
		return nil, errors.E("ParameterError", "sequence shorter than k", len(seq), k)
	}

	idx := &Index{k: k, sigma: a.Size()}
	// Step 1: allocate C, zero-initialized.
	idx.c = make([]int32, tupleCount+1)

	nPos := len(seq) - k + 1
	tuples := make([]int, nPos) // cached per-position tuple hash; -1 if poisoned.

	// Step 2: first pass, tally clean tuples into C[t+1].
	for i := 0; i < nPos; i++ {
		t, ok := a.TupleHash(seq[i : i+k])
		if !ok {
			tuples[i] = -1
			continue
		}
		tuples[i] = t
		idx.c[t+1]++
	}

	// Step 3: prefix-sum C to obtain starts.
	for t := 1; t < len(idx.c); t++ {
		idx.c[t] += idx.c[t-1]
	}

	// Step 4: allocate D.
	idx.d = make([]int32, idx.c[len(idx.c)-1])

	// Step 5: second pass, scatter positions using a scratch cursor per
	// bucket so the first pass's C is preserved as the queryable start table.
	cursor := make([]int32, tupleCount)
	copy(cursor, idx.c[:tupleCount])
	for i := 0; i < nPos; i++ {
		t := tuples[i]
		if t < 0 {
			continue
		}
		idx.d[cursor[t]] = int32(i)
		cursor[t]++
	}
	// Step 6: ascending order within each bucket falls out of the single
	// left-to-right scatter pass; no sort needed.

	log.Debug.Printf("ktuple: built index for k=%d, %d positions, %d tuples", k, nPos, tupleCount)
	return idx, nil
}

// Positions returns the ascending list of sequence offsets at which the
// given tuple code occurs. O(1).
func (idx *Index) Positions(tupleCode int) []int32 {
	return idx.d[idx.c[tupleCode]:idx.c[tupleCode+1]]
}

// NumPositions returns the total number of indexed (non-poisoned) k-tuple
// occurrences, i.e. len(D).
func (idx *Index) NumPositions() int { return len(idx.d) }
