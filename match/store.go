// Package match implements Store, an append-only container of ungapped
// near-match records. Its anti-diagonal indexing follows the
// sorted-endpoint-array search idiom of grailbio/bio's interval package
// (EndpointIndex/SearchPosTypes), adapted from "one sorted position array"
// to "one bucket per diagonal, each sorted by x". No search within a
// bucket is provided; OnDiagonal returns a bucket's matches whole.
package match

import (
	"sort"
)

// Match is a single ungapped near-match: S_table[X:X+Length] corresponds to
// Y[Y:Y+Length].
type Match struct {
	X, Y, Length int32
}

// End returns the exclusive end of the match's run on the table axis.
func (m Match) End() int32 { return m.X + m.Length }

// Diagonal returns d = X - Y, the anti-diagonal key used throughout this
// package and by grid/conserved.
func (m Match) Diagonal() int32 { return m.X - m.Y }

// Store is an ordered, append-only container of Match records plus declared
// axis bounds. It is single-owner mutable; the anti-diagonal index is built
// lazily and invalidated by any mutation.
type Store struct {
	matches []Match
	maxX    int32
	maxY    int32

	diag *diagonalIndex // nil until BuildAntiDiagonalIndex is called.
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Append adds a match to the store in O(1) amortized time. Invalidates any
// previously built anti-diagonal index.
func (s *Store) Append(x, y, length int32) {
	s.matches = append(s.matches, Match{X: x, Y: y, Length: length})
	s.diag = nil
}

// AppendMatch is Append taking a pre-built Match value.
func (s *Store) AppendMatch(m Match) {
	s.matches = append(s.matches, m)
	s.diag = nil
}

// Len returns the number of matches in the store.
func (s *Store) Len() int { return len(s.matches) }

// Get returns the i'th match in insertion order.
func (s *Store) Get(i int) Match { return s.matches[i] }

// All returns the full slice of matches in insertion order. Callers must
// not mutate the returned slice.
func (s *Store) All() []Match { return s.matches }

// SetMaxX sets the declared table-axis bound.
func (s *Store) SetMaxX(maxX int32) { s.maxX = maxX }

// SetMaxY sets the declared comparison-axis bound.
func (s *Store) SetMaxY(maxY int32) { s.maxY = maxY }

// GetMaxX returns the declared table-axis bound.
func (s *Store) GetMaxX() int32 { return s.maxX }

// GetMaxY returns the declared comparison-axis bound.
func (s *Store) GetMaxY() int32 { return s.maxY }

// Filter returns a new Store containing only matches with Length >=
// minLength; bounds are copied.
func (s *Store) Filter(minLength int32) *Store {
	out := &Store{maxX: s.maxX, maxY: s.maxY}
	for _, m := range s.matches {
		if m.Length >= minLength {
			out.matches = append(out.matches, m)
		}
	}
	return out
}

// Interpolate merges collinear matches in place: two matches (x1,y1,L1) and
// (x2,y2,L2) on the same diagonal with x1+L1+gap >= x2 for gap <= window
// coalesce into (x1, y1, x2+L2-x1), applied transitively, greedily
// left-to-right per diagonal.
func (s *Store) Interpolate(window int32) {
	if len(s.matches) == 0 {
		return
	}
	byDiag := make(map[int32][]int)
	for i, m := range s.matches {
		byDiag[m.Diagonal()] = append(byDiag[m.Diagonal()], i)
	}
	diags := make([]int32, 0, len(byDiag))
	for d := range byDiag {
		diags = append(diags, d)
	}
	sort.Slice(diags, func(i, j int) bool { return diags[i] < diags[j] })

	var merged []Match
	for _, d := range diags {
		idxs := byDiag[d]
		sort.Slice(idxs, func(a, b int) bool { return s.matches[idxs[a]].X < s.matches[idxs[b]].X })
		cur := s.matches[idxs[0]]
		for _, i := range idxs[1:] {
			next := s.matches[i]
			if cur.X+cur.Length+window >= next.X {
				end := next.X + next.Length
				if end > cur.X+cur.Length {
					cur.Length = end - cur.X
				}
				continue
			}
			merged = append(merged, cur)
			cur = next
		}
		merged = append(merged, cur)
	}
	s.matches = merged
	s.diag = nil
}

// FlipY replaces each (x, y, L) with (x, totalHeight-y-L, L), mapping
// reverse-strand matches into the same coordinate frame as forward matches.
// Applying FlipY twice with the same totalHeight is the identity.
func (s *Store) FlipY(totalHeight int32) {
	for i := range s.matches {
		m := &s.matches[i]
		m.Y = totalHeight - m.Y - m.Length
	}
	s.diag = nil
	if s.maxY == totalHeight || s.maxY == 0 {
		s.maxY = totalHeight
	}
}

// Shift returns a new Store with every match's (X, Y) offset by (dx, dy)
// and the axis bounds extended to cover the shifted range, used to place a
// locally-computed store onto a larger shared coordinate frame (for
// example, one sequence's position within a multi-sequence axis).
func (s *Store) Shift(dx, dy int32) *Store {
	out := &Store{maxX: s.maxX + dx, maxY: s.maxY + dy}
	out.matches = make([]Match, len(s.matches))
	for i, m := range s.matches {
		out.matches[i] = Match{X: m.X + dx, Y: m.Y + dy, Length: m.Length}
	}
	return out
}

// Clone returns a deep copy of the store, matches and bounds included, with
// no anti-diagonal index built.
func (s *Store) Clone() *Store {
	out := &Store{maxX: s.maxX, maxY: s.maxY}
	out.matches = make([]Match, len(s.matches))
	copy(out.matches, s.matches)
	return out
}
