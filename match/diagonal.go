package match

import "sort"

// diagonalIndex buckets match indices by diagonal key d = x - y; within each
// bucket, indices are kept sorted by ascending X. This mirrors the
// sorted-array-plus-search shape of interval.EndpointIndex, generalized from
// a single global sorted array to one sorted bucket per diagonal.
type diagonalIndex struct {
	buckets map[int32][]int32 // diagonal -> match indices, sorted by ascending X.
}

// BuildAntiDiagonalIndex computes (or recomputes) the diagonal -> match
// index mapping used by the conserved-region intersector.
func (s *Store) BuildAntiDiagonalIndex() {
	buckets := make(map[int32][]int32)
	for i, m := range s.matches {
		d := m.Diagonal()
		buckets[d] = append(buckets[d], int32(i))
	}
	for d, idxs := range buckets {
		sort.Slice(idxs, func(a, b int) bool {
			return s.matches[idxs[a]].X < s.matches[idxs[b]].X
		})
		buckets[d] = idxs
	}
	s.diag = &diagonalIndex{buckets: buckets}
}

// Diagonals returns the set of diagonal keys present in the store, in
// ascending order. It builds the anti-diagonal index first if none is
// current.
func (s *Store) Diagonals() []int32 {
	if s.diag == nil {
		s.BuildAntiDiagonalIndex()
	}
	out := make([]int32, 0, len(s.diag.buckets))
	for d := range s.diag.buckets {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// OnDiagonal returns the matches on diagonal d, in ascending X order. It
// builds the anti-diagonal index first if none is current.
func (s *Store) OnDiagonal(d int32) []Match {
	if s.diag == nil {
		s.BuildAntiDiagonalIndex()
	}
	idxs := s.diag.buckets[d]
	out := make([]Match, len(idxs))
	for i, idx := range idxs {
		out[i] = s.matches[idx]
	}
	return out
}

// HasAntiDiagonalIndex reports whether an index is currently built (mostly
// useful in tests asserting invalidation-on-mutation).
func (s *Store) HasAntiDiagonalIndex() bool { return s.diag != nil }
