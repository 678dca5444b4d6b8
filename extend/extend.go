// Package extend implements the seed-and-extend kernel that turns a
// k-tuple index over a table sequence and a comparison sequence into a
// match.Store of maximal ungapped runs, following the fast-path/fallback
// shape of grailbio/bio's fusion/kmer.go kmerizer.Scan.
package extend

import (
	"github.com/grailbio/base/errors"

	"github.com/grailbio/dotplot/alphabet"
	"github.com/grailbio/dotplot/ktuple"
	"github.com/grailbio/dotplot/match"
)

// Params bundles the extension parameters shared by both kernels.
type Params struct {
	K        int
	Window   int32
	Mismatch int32
	MinMatch int32
}

func (p Params) validate() error {
	if p.MinMatch < int32(p.K) {
		return errors.E("ParameterError", "min_match must be >= k", p.MinMatch, p.K)
	}
	if p.Window < int32(p.K) {
		return errors.E("ParameterError", "window must be >= k", p.Window, p.K)
	}
	return nil
}

// extent records, per diagonal, how far the last emitted match reaches so
// later seeds on the same diagonal that fall inside it are suppressed.
type extent struct {
	end int32 // exclusive x-coordinate one past the last emitted match on this diagonal.
}

// Extend runs the indexed kernel: it walks every tuple-aligned seed between
// the pre-built index over table and y, extends each surviving seed into a
// maximal ungapped run, and appends runs passing the min_match filter to
// the returned store, in seed-discovery order.
func Extend(index *ktuple.Index, table, y alphabet.Sequence, a *alphabet.Alphabet, p Params) (*match.Store, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	k := index.K()
	store := match.New()
	store.SetMaxX(int32(len(table)))
	store.SetMaxY(int32(len(y)))

	extents := make(map[int32]extent)
	nJ := len(y) - k + 1
	for j := 0; j < nJ; j++ {
		t, ok := a.TupleHash(y[j : j+k])
		if !ok {
			continue
		}
		for _, i32 := range index.Positions(t) {
			i := int(i32)
			x, yy := int32(i), int32(j)
			d := x - yy
			if e, seen := extents[d]; seen && x < e.end {
				continue
			}
			left, right := extendSeed(table, y, x, yy, p.Window, p.Mismatch, a.Sentinel())
			length := right - left
			leftY := yy - (x - left)
			if length >= p.MinMatch {
				store.Append(left, leftY, length)
				extents[d] = extent{end: left + length}
			}
		}
	}
	return store, nil
}

// extendSeed extends a (x, y) seed both directions along its diagonal,
// returning the inclusive-exclusive [left, right) range on the table axis.
// A trailing window of length `window` must contain at most `mismatch`
// mismatches for the extension to continue; near either end, where fewer
// than `window` positions are available, every available position must
// still match. The sentinel symbol is never treated as equal to itself.
func extendSeed(table, y alphabet.Sequence, x, yy int32, window, mismatch int32, sentinel alphabet.Code) (left, right int32) {
	maxX, maxY := int32(len(table)), int32(len(y))

	right = x
	ry := yy
	for right < maxX && ry < maxY {
		if !symbolsEqual(table[right], y[ry], sentinel) {
			if !windowAdmits(table, y, right-window+1, ry-window+1, right+1, ry+1, mismatch, maxX, maxY, sentinel) {
				break
			}
		}
		right++
		ry++
	}

	left = x
	ly := yy
	for left > 0 && ly > 0 {
		cand := left - 1
		candY := ly - 1
		if !symbolsEqual(table[cand], y[candY], sentinel) {
			if !windowAdmits(table, y, cand, candY, cand+window, candY+window, mismatch, maxX, maxY, sentinel) {
				break
			}
		}
		left = cand
		ly = candY
	}
	return left, right
}

// windowAdmits reports whether the half-open table-axis range [from, to)
// (clipped to the sequence and paired with the corresponding y range)
// contains at most `mismatch` mismatches. Ranges narrower than the
// nominal window (because they run off either sequence's edge) admit no
// mismatch: every position actually available must match.
func windowAdmits(table, y alphabet.Sequence, fromX, fromY, toX, toY, mismatch, maxX, maxY int32, sentinel alphabet.Code) bool {
	nominal := toX - fromX
	if fromX < 0 {
		fromY -= fromX
		fromX = 0
	}
	if fromY < 0 {
		fromX -= fromY
		fromY = 0
	}
	if toX > maxX {
		toX = maxX
	}
	if toY > maxY {
		toY = maxY
	}
	if toX <= fromX || toY <= fromY {
		return true
	}
	n := toX - fromX
	if toY-fromY < n {
		n = toY - fromY
	}
	budget := mismatch
	if n < nominal {
		budget = 0
	}
	var mismatches int32
	for s := int32(0); s < n; s++ {
		if !symbolsEqual(table[fromX+s], y[fromY+s], sentinel) {
			mismatches++
			if mismatches > budget {
				return false
			}
		}
	}
	return true
}

// symbolsEqual reports whether two codes match for extension purposes. The
// sentinel code compares unequal to everything, including itself.
func symbolsEqual(a, b, sentinel alphabet.Code) bool {
	if a == sentinel || b == sentinel {
		return false
	}
	return a == b
}
