// Package plotfile persists a completed comparison run (per-axis file and
// sequence metadata, parameters, and the match stores for every region) to
// a single byte stream, optionally gzip-wrapped. Detection of the gzip
// wrapper follows the magic-sniffing idiom of grailbio/bio's BED loader
// (there keyed off fileio.DetermineType on a path; here off the stream's
// own leading bytes, since a plot file is addressed by io.Reader/io.Writer
// rather than a path).
package plotfile

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/klauspost/compress/gzip"

	"github.com/grailbio/dotplot/match"
)

// Magic identifies the start of a plot file stream.
var Magic = [4]byte{'_', 'F', 'D', 'P'}

const (
	MajorVersion = 0
	MinorVersion = 1
)

var gzipMagic = [2]byte{0x1f, 0x8b}

// SeqMeta is one sequence's identifying metadata within a FileMeta.
type SeqMeta struct {
	ID     string
	Length int32
}

// FileMeta is one loaded file's identifying metadata on one axis.
type FileMeta struct {
	Path string
	Seqs []SeqMeta
}

// Region is one compared (table, comparison) sub-range, holding the
// forward and reverse-strand match stores produced for it, plus the
// region's global placement on each axis (the sum of preceding files' and
// sequences' lengths, per session.SeqInfo.Offset) so it can be composited
// back into a single canvas alongside every other region.
type Region struct {
	Forward *match.Store
	Reverse *match.Store

	TableOffset int32
	CompOffset  int32
}

// Plot is a complete persisted comparison run: per-axis file/sequence
// metadata plus one Region per compared pair.
type Plot struct {
	XFiles, YFiles []FileMeta
	Regions        []Region
}

// Write serializes p to w, uncompressed. Use WriteGzip to wrap the stream.
func Write(w io.Writer, p *Plot) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return errors.E(err, "plotfile.Write: magic")
	}
	if err := writeInt32s(w, int32(MajorVersion), int32(MinorVersion)); err != nil {
		return errors.E(err, "plotfile.Write: version")
	}
	if err := writeFileMetas(w, p.XFiles); err != nil {
		return errors.E(err, "plotfile.Write: x metadata")
	}
	if err := writeFileMetas(w, p.YFiles); err != nil {
		return errors.E(err, "plotfile.Write: y metadata")
	}
	if err := writeInt32s(w, int32(len(p.Regions))); err != nil {
		return errors.E(err, "plotfile.Write: region count")
	}
	for i, r := range p.Regions {
		if err := writeInt32s(w, r.TableOffset, r.CompOffset); err != nil {
			return errors.E(err, "plotfile.Write: region offsets", i)
		}
		if err := r.Forward.Serialize(w); err != nil {
			return errors.E(err, "plotfile.Write: region forward store", i)
		}
		if err := r.Reverse.Serialize(w); err != nil {
			return errors.E(err, "plotfile.Write: region reverse store", i)
		}
	}
	return nil
}

// WriteGzip serializes p to w wrapped in a gzip stream.
func WriteGzip(w io.Writer, p *Plot) error {
	gw := gzip.NewWriter(w)
	if err := Write(gw, p); err != nil {
		return err
	}
	return gw.Close()
}

// Read parses a Plot previously written by Write or WriteGzip, detecting
// the gzip wrapper automatically from the stream's leading bytes.
func Read(r io.Reader) (*Plot, error) {
	br := bufio.NewReader(r)
	peek, err := br.Peek(2)
	if err == nil && peek[0] == gzipMagic[0] && peek[1] == gzipMagic[1] {
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.E("FormatError", err, "plotfile.Read: gzip header")
		}
		return readPlot(gr)
	}
	return readPlot(br)
}

func readPlot(r io.Reader) (*Plot, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, errors.E("FormatError", err, "plotfile.Read: magic")
	}
	if magic != Magic {
		return nil, errors.E("FormatError", "plotfile.Read: bad magic", magic)
	}
	var major, minor int32
	if err := readInt32s(r, &major, &minor); err != nil {
		return nil, errors.E("FormatError", err, "plotfile.Read: version")
	}
	if major != MajorVersion {
		return nil, errors.E("FormatError", "plotfile.Read: unsupported major version", major)
	}

	p := &Plot{}
	var err error
	p.XFiles, err = readFileMetas(r)
	if err != nil {
		return nil, errors.E(err, "plotfile.Read: x metadata")
	}
	p.YFiles, err = readFileMetas(r)
	if err != nil {
		return nil, errors.E(err, "plotfile.Read: y metadata")
	}
	var count int32
	if err := readInt32s(r, &count); err != nil {
		return nil, errors.E("FormatError", err, "plotfile.Read: region count")
	}
	if count < 0 {
		return nil, errors.E("FormatError", "plotfile.Read: negative region count", count)
	}
	p.Regions = make([]Region, count)
	for i := range p.Regions {
		var tableOffset, compOffset int32
		if err := readInt32s(r, &tableOffset, &compOffset); err != nil {
			return nil, errors.E("FormatError", err, "plotfile.Read: region offsets", i)
		}
		fwd, err := match.Deserialize(r)
		if err != nil {
			return nil, errors.E(err, "plotfile.Read: region forward store", i)
		}
		rev, err := match.Deserialize(r)
		if err != nil {
			return nil, errors.E(err, "plotfile.Read: region reverse store", i)
		}
		p.Regions[i] = Region{Forward: fwd, Reverse: rev, TableOffset: tableOffset, CompOffset: compOffset}
	}
	return p, nil
}

func writeInt32s(w io.Writer, vs ...int32) error {
	return binary.Write(w, binary.LittleEndian, vs)
}

func readInt32s(r io.Reader, vs ...*int32) error {
	for _, v := range vs {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func writeFileMetas(w io.Writer, files []FileMeta) error {
	if err := writeInt32s(w, int32(len(files))); err != nil {
		return err
	}
	for _, f := range files {
		if err := writeString(w, f.Path); err != nil {
			return err
		}
		if err := writeInt32s(w, int32(len(f.Seqs))); err != nil {
			return err
		}
		for _, s := range f.Seqs {
			if err := writeString(w, s.ID); err != nil {
				return err
			}
			if err := writeInt32s(w, s.Length); err != nil {
				return err
			}
		}
	}
	return nil
}

func readFileMetas(r io.Reader) ([]FileMeta, error) {
	var numFiles int32
	if err := readInt32s(r, &numFiles); err != nil {
		return nil, err
	}
	if numFiles < 0 {
		return nil, errors.E("FormatError", "negative file count", numFiles)
	}
	files := make([]FileMeta, numFiles)
	for i := range files {
		path, err := readString(r)
		if err != nil {
			return nil, err
		}
		files[i].Path = path
		var numSeqs int32
		if err := readInt32s(r, &numSeqs); err != nil {
			return nil, err
		}
		if numSeqs < 0 {
			return nil, errors.E("FormatError", "negative sequence count", numSeqs)
		}
		files[i].Seqs = make([]SeqMeta, numSeqs)
		for j := range files[i].Seqs {
			id, err := readString(r)
			if err != nil {
				return nil, err
			}
			var length int32
			if err := readInt32s(r, &length); err != nil {
				return nil, err
			}
			files[i].Seqs[j] = SeqMeta{ID: id, Length: length}
		}
	}
	return files, nil
}

func writeString(w io.Writer, s string) error {
	if err := writeInt32s(w, int32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n int32
	if err := readInt32s(r, &n); err != nil {
		return "", err
	}
	if n < 0 {
		return "", errors.E("FormatError", "negative string length", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
