// Package format reads and writes modules in the binary .tbm format.
//
// A file starts with a fixed size header: a 12 byte signature, the version of
// the program that wrote it, the format revision and the module metadata.
// The body follows, made of tagged blocks: comments, songs, instruments and
// waveforms. Each table block holds a count and then, per item, its id, its
// nul-terminated name and its payload. The file ends with "END".
//
// Title, artist and copyright are fixed size fields in the header and hold at
// most MaxMetadataLength bytes; longer values are cut at a rune boundary when
// written.
//
// Files from older revisions are upgraded when read. Files from a newer
// major revision are rejected.
package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/stoneface86/trackerboy-sub003"
	"github.com/stoneface86/trackerboy-sub003/version"
)

const (
	// RevisionMajor changes when a file can no longer be read by older
	// versions.
	RevisionMajor = 1
	// RevisionMinor changes when data is added that older versions of the
	// same major revision can ignore.
	RevisionMinor = 0

	metadataSize = 32
	// MaxMetadataLength is the longest title, artist or copyright, in bytes,
	// that survives Write.
	MaxMetadataLength = metadataSize - 1
)

var (
	signature = [12]byte{0, 'T', 'R', 'A', 'C', 'K', 'E', 'R', 'B', 'O', 'Y', 0}
	sentinel  = [3]byte{'E', 'N', 'D'}
)

// header follows the signature.
type header struct {
	VersionMajor    uint32
	VersionMinor    uint32
	VersionPatch    uint32
	RevisionMajor   uint8
	RevisionMinor   uint8
	Title           [metadataSize]byte
	Artist          [metadataSize]byte
	Copyright       [metadataSize]byte
	System          uint8
	CustomFramerate uint16
	Songs           uint16
	Instruments     uint8
	Waveforms       uint8
}

// Read reads a module. The returned module is nil on any error: errors in the
// file contents are *Error, failures of r are *IOError. Input too short to
// hold the signature is not a module file and fails with ErrSignature rather
// than ErrTruncated.
func Read(r io.Reader) (*trackerboy.Module, error) {
	var sig [len(signature)]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		if err := readError(err); err != ErrTruncated {
			return nil, err
		}
		return nil, ErrSignature
	}
	if sig != signature {
		return nil, ErrSignature
	}
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, readError(err)
	}
	if h.RevisionMajor > RevisionMajor {
		return nil, &Error{Kind: KindFutureRevision, Detail: fmt.Sprintf("revision %d.%d", h.RevisionMajor, h.RevisionMinor)}
	}
	m := trackerboy.NewModule()
	m.Title = fromFixed(h.Title[:])
	m.Artist = fromFixed(h.Artist[:])
	m.Copyright = fromFixed(h.Copyright[:])
	if h.System > uint8(trackerboy.Custom) {
		return nil, corrupted("system %d", h.System)
	}
	m.System = trackerboy.System(h.System)
	m.CustomFramerate = h.CustomFramerate
	if h.Songs == 0 || h.Songs > trackerboy.MaxSongs {
		return nil, corrupted("%d songs", h.Songs)
	}

	d := &decoder{r: r, revision: h.RevisionMajor}
	d.expectTag(tagComments)
	m.Comments = string(d.bytes(int(d.u32())))
	m.Songs = m.Songs[:0]
	d.expectTag(tagSongs)
	readItems(d, int(h.Songs), songCodec, func(id uint8, s *trackerboy.Song) error {
		if int(id) != len(m.Songs) {
			return corrupted("song %d out of sequence", id)
		}
		m.Songs = append(m.Songs, s)
		return nil
	})
	d.expectTag(tagInstruments)
	readItems(d, int(h.Instruments), instrumentCodec, m.Instruments.InsertAt)
	d.expectTag(tagWaveforms)
	readItems(d, int(h.Waveforms), waveformCodec, m.Waveforms.InsertAt)
	var end [3]byte
	d.read(end[:])
	if d.err != nil {
		return nil, d.err
	}
	if end != sentinel {
		return nil, corrupted("missing end of file marker")
	}
	return m, nil
}

// Write writes m in the current revision, cutting metadata longer than
// MaxMetadataLength. Errors are *IOError.
func Write(w io.Writer, m *trackerboy.Module) error {
	major, minor, patch := version.Numbers()
	h := header{
		VersionMajor:    major,
		VersionMinor:    minor,
		VersionPatch:    patch,
		RevisionMajor:   RevisionMajor,
		RevisionMinor:   RevisionMinor,
		System:          uint8(m.System),
		CustomFramerate: m.CustomFramerate,
		Songs:           uint16(len(m.Songs)),
		Instruments:     uint8(m.Instruments.Len()),
		Waveforms:       uint8(m.Waveforms.Len()),
	}
	toFixed(h.Title[:], m.Title)
	toFixed(h.Artist[:], m.Artist)
	toFixed(h.Copyright[:], m.Copyright)

	var buf bytes.Buffer
	buf.Write(signature[:])
	binary.Write(&buf, binary.LittleEndian, &h)
	e := &encoder{buf: &buf}
	e.tag(tagComments)
	e.u32(uint32(len(m.Comments)))
	e.buf.WriteString(m.Comments)
	e.tag(tagSongs)
	for i, s := range m.Songs {
		writeItem(e, uint8(i), s, songCodec)
	}
	e.tag(tagInstruments)
	for id, inst := range m.Instruments.All {
		writeItem(e, id, inst, instrumentCodec)
	}
	e.tag(tagWaveforms)
	for id, wave := range m.Waveforms.All {
		writeItem(e, id, wave, waveformCodec)
	}
	buf.Write(sentinel[:])
	if _, err := w.Write(buf.Bytes()); err != nil {
		return &IOError{Err: err}
	}
	return nil
}

func fromFixed(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// toFixed copies s into dst, leaving room for a terminating nul. A long s is
// cut before the first rune that does not fit.
func toFixed(dst []byte, s string) {
	if n := len(dst) - 1; len(s) > n {
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		s = s[:n]
	}
	copy(dst, s)
}
