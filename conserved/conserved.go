// Package conserved intersects three pairwise match.Stores into the
// segments conserved across all three comparisons. The sweep reuses the
// sorted-endpoint-array-plus-running-count shape of grailbio/bio's
// interval package (EndpointIndex/UnionScanner), generalized from a
// binary (in/out) union of one interval set to a ternary (count reaches
// the number of stores) intersection of three.
package conserved

import (
	"sort"

	"github.com/grailbio/dotplot/match"
)

// Sign is a per-axis strand-direction sign applied to a store before
// projection.
type Sign int

const (
	Plus  Sign = 1
	Minus Sign = -1
)

// Input pairs a store with the sign of its comparison-axis strand.
type Input struct {
	Store *match.Store
	Sign  Sign
}

type event struct {
	pos   int32
	delta int32
}

// Intersect computes the segments where all three inputs' matches overlap
// on the shared diagonal, after applying each input's sign transform.
// Inputs with Sign == Minus are flipped along the comparison axis
// (y <- total - y - L) using the store's own declared max_y before
// projection, matching flip_y's contract.
func Intersect(a, b, c Input) *match.Store {
	out := match.New()

	stores := [3]*match.Store{prepare(a), prepare(b), prepare(c)}

	byDiag := make(map[int32][3][]event)
	for si, s := range stores {
		s.BuildAntiDiagonalIndex()
		for _, d := range s.Diagonals() {
			events := byDiag[d]
			for _, m := range s.OnDiagonal(d) {
				pos := along(d, m.X, m.Y)
				events[si] = append(events[si], event{pos: pos, delta: +1})
				events[si] = append(events[si], event{pos: pos + m.Length, delta: -1})
			}
			byDiag[d] = events
		}
	}

	diagonals := make([]int32, 0, len(byDiag))
	for d := range byDiag {
		diagonals = append(diagonals, d)
	}
	sort.Slice(diagonals, func(i, j int) bool { return diagonals[i] < diagonals[j] })

	for _, d := range diagonals {
		perStore := byDiag[d]
		var merged []event
		for _, evs := range perStore {
			merged = append(merged, evs...)
		}
		sort.Slice(merged, func(i, j int) bool {
			if merged[i].pos != merged[j].pos {
				return merged[i].pos < merged[j].pos
			}
			// Process closing events before opening ones at an equal
			// position so adjacent, non-overlapping runs don't register
			// a spurious one-position overlap.
			return merged[i].delta < merged[j].delta
		})

		var count int32
		var segStart int32
		inSegment := false
		for _, ev := range merged {
			prevCount := count
			count += ev.delta
			if prevCount < 3 && count >= 3 {
				segStart = ev.pos
				inSegment = true
			} else if prevCount >= 3 && count < 3 && inSegment {
				emit(out, d, segStart, ev.pos)
				inSegment = false
			}
		}
	}
	return out
}

// prepare returns s.Store, flipped along the comparison axis if s.Sign is
// Minus. The input store is not mutated.
func prepare(in Input) *match.Store {
	if in.Sign == Plus {
		return in.Store
	}
	flipped := in.Store.Clone()
	flipped.FlipY(in.Store.GetMaxY())
	return flipped
}

// along returns the along-diagonal coordinate of (x, y) on diagonal d,
// inverse to the start_x/start_y projection used by emit.
func along(d, x, y int32) int32 {
	if d >= 0 {
		return y
	}
	return x
}

func emit(out *match.Store, d, start, end int32) {
	length := end - start
	if length <= 0 {
		return
	}
	var x, y int32
	if d >= 0 {
		x, y = d+start, start
	} else {
		x, y = start, start-d
	}
	out.Append(x, y, length)
}
