// Package session owns the long-lived lookup state for a multi-file,
// multi-sequence comparison run: per-axis sequence catalogs, global
// offsets, and the comparison pipeline that turns a pair of sub-sequence
// ranges into a match.Store. It generalizes the long-lived-catalog-object
// pattern of grailbio/bio's fusion/stats.go (one mutable state object
// threaded through a pipeline and merged at the end) from gene statistics
// to sequence bookkeeping.
package session

import (
	"sync"

	"github.com/grailbio/base/errors"

	"github.com/grailbio/dotplot/alphabet"
	"github.com/grailbio/dotplot/encoding/fasta"
	"github.com/grailbio/dotplot/extend"
)

// SeqInfo describes one named sequence within a file, plus its global
// offset along its axis.
type SeqInfo struct {
	ID     string
	Length uint64
	Offset uint64 // sum of lengths of all sequences before this one, on this axis.
}

// FileInfo describes one loaded FASTA file's sequences.
type FileInfo struct {
	Path string
	Seqs []SeqInfo
}

// Catalog owns the per-axis sequence bookkeeping for one comparison run:
// which files and sequences make up the table (X) and comparison (Y) axes,
// and their global offsets. Offsets are re-derived from sequence lengths
// rather than stored independently, since they are prefix sums and storing
// both invites drift.
type Catalog struct {
	fastas map[string]fasta.Fasta // path -> loaded FASTA.
	files  map[string][]FileInfo  // axis -> files, in load order.
	total  map[string]uint64      // axis -> total length across all files.

	cacheMu sync.RWMutex
	cache   map[regionKey]*extend.FastResult // region -> cached comparison, dropped on Invalidate.
}

// regionKey identifies one (table sub-range, comparison sub-range, params)
// region, the cache key the orchestrator memoizes comparisons under. A
// plain comparable struct, not a pointer or path into the catalog, per the
// no-back-pointers discipline the cache follows.
type regionKey struct {
	tablePath, tableSeq  string
	tableStart, tableEnd uint64
	compPath, compSeq    string
	compStart, compEnd   uint64
	params               extend.Params
}

func keyFor(job PairJob) regionKey {
	return regionKey{
		tablePath: job.TablePath, tableSeq: job.TableSeq,
		tableStart: job.TableStart, tableEnd: job.TableEnd,
		compPath: job.CompPath, compSeq: job.CompSeq,
		compStart: job.CompStart, compEnd: job.CompEnd,
		params: job.Params,
	}
}

const (
	AxisX = "x"
	AxisY = "y"
)

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		fastas: make(map[string]fasta.Fasta),
		files:  make(map[string][]FileInfo),
		total:  make(map[string]uint64),
		cache:  make(map[regionKey]*extend.FastResult),
	}
}

// AddFile registers f (already parsed) as the next file on the given
// axis, computing per-sequence global offsets from the running total.
func (c *Catalog) AddFile(axis, path string, f fasta.Fasta) error {
	if axis != AxisX && axis != AxisY {
		return errors.E("ParameterError", "unknown axis", axis)
	}
	c.fastas[path] = f
	info := FileInfo{Path: path}
	for _, name := range f.SeqNames() {
		length, err := f.Len(name)
		if err != nil {
			return errors.E(err, "session.AddFile", path, name)
		}
		info.Seqs = append(info.Seqs, SeqInfo{ID: name, Length: length, Offset: c.total[axis]})
		c.total[axis] += length
	}
	c.files[axis] = append(c.files[axis], info)
	return nil
}

// InvalidateRegion drops any cached comparison for the region job
// describes, regardless of the params it was originally computed with.
// Call this when a region is reconfigured (different extension params for
// the same sub-range) so Compare rebuilds it instead of returning a stale
// result.
func (c *Catalog) InvalidateRegion(job PairJob) {
	prefix := regionKey{
		tablePath: job.TablePath, tableSeq: job.TableSeq,
		tableStart: job.TableStart, tableEnd: job.TableEnd,
		compPath: job.CompPath, compSeq: job.CompSeq,
		compStart: job.CompStart, compEnd: job.CompEnd,
	}
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	for k := range c.cache {
		stripped := k
		stripped.params = extend.Params{}
		if stripped == prefix {
			delete(c.cache, k)
		}
	}
}

// TotalLength returns the combined length of every sequence on the given
// axis.
func (c *Catalog) TotalLength(axis string) uint64 { return c.total[axis] }

// Files returns the registered files on the given axis, in load order.
func (c *Catalog) Files(axis string) []FileInfo { return c.files[axis] }

// Extract returns the encoded sub-sequence [start, end) of the named
// sequence, using the file it was registered under. Out-of-range
// coordinates produce a BoundsError.
func (c *Catalog) Extract(path, seqName string, start, end uint64, a *alphabet.Alphabet) (alphabet.Sequence, error) {
	f, ok := c.fastas[path]
	if !ok {
		return nil, errors.E("BoundsError", "no such file registered", path)
	}
	length, err := f.Len(seqName)
	if err != nil {
		return nil, errors.E("BoundsError", err, path, seqName)
	}
	if end <= start || end > length {
		return nil, errors.E("BoundsError", "sub-sequence range out of bounds", path, seqName, start, end, length)
	}
	ascii, err := f.Get(seqName, start, end)
	if err != nil {
		return nil, errors.E("BoundsError", err, path, seqName, start, end)
	}
	return a.Encode(ascii), nil
}
