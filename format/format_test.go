package format_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stoneface86/trackerboy-sub003"
	"github.com/stoneface86/trackerboy-sub003/format"
)

func testModule(t *testing.T) *trackerboy.Module {
	t.Helper()
	m := trackerboy.NewModule()
	m.Title = "Round trip"
	m.Artist = "Someone"
	m.Copyright = "2024 Someone"
	m.Comments = "line 1\nline 2"
	inst := trackerboy.NewInstrument(trackerboy.Ch3)
	inst.Name = "bass"
	inst.SetEnvelope(0x02, true)
	timbre := inst.Sequence(trackerboy.SeqTimbre)
	timbre.SetData([]int8{3, 2, 1, 0})
	timbre.SetLoop(2)
	inst.Sequence(trackerboy.SeqPitch).SetData([]int8{-4, 4})
	if err := m.Instruments.InsertAt(5, inst); err != nil {
		t.Fatal(err)
	}
	w := &trackerboy.Waveform{Name: "triangle"}
	if err := w.SetString("0123456789ABCDEFFEDCBA9876543210"); err != nil {
		t.Fatal(err)
	}
	m.Waveforms.Insert(w)
	song := m.Songs[0]
	song.Name = "first"
	song.Speed = 0x2C
	song.Order.Append(trackerboy.OrderRow{1, 1, 0, 3})
	track := song.Patterns.Track(trackerboy.Ch3, 0)
	track.SetNote(0, trackerboy.NoteC3)
	track.SetInstrument(0, 5)
	track.SetEffect(0, 2, trackerboy.Effect{Type: trackerboy.SetEnvelope, Param: 0})
	song.Patterns.Track(trackerboy.Ch4, 3).SetEffect(63, 0, trackerboy.Effect{Type: trackerboy.PatternHalt})
	second := trackerboy.NewSong()
	second.Name = "second"
	if err := second.Patterns.SetRows(256); err != nil {
		t.Fatal(err)
	}
	second.Patterns.Track(trackerboy.Ch1, 9).SetNote(255, trackerboy.NoteCut)
	m.AddSong(second)
	return m
}

func encode(t *testing.T, m *trackerboy.Module) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := format.Write(&buf, m); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	m := testModule(t)
	data := encode(t, m)
	m2, err := format.Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(encode(t, m2), data) {
		t.Fatal("encoding the decoded module gave different bytes")
	}
	if m2.Title != m.Title || m2.Artist != m.Artist || m2.Copyright != m.Copyright || m2.Comments != m.Comments {
		t.Fatalf("metadata not restored: %q %q %q %q", m2.Title, m2.Artist, m2.Copyright, m2.Comments)
	}
	inst := m2.Instruments.Get(5)
	if inst == nil || inst.Name != "bass" || inst.Channel() != trackerboy.Ch3 {
		t.Fatalf("instrument not restored: %+v", inst)
	}
	if env, ok := inst.Envelope(); !ok || env != 0x02 {
		t.Fatalf("envelope %02X %v", env, ok)
	}
	if loop, ok := inst.Sequence(trackerboy.SeqTimbre).Loop(); !ok || loop != 2 {
		t.Fatalf("timbre loop %d %v", loop, ok)
	}
	if got := inst.Sequence(trackerboy.SeqPitch).Data(); len(got) != 2 || got[0] != -4 || got[1] != 4 {
		t.Fatalf("pitch sequence %v", got)
	}
	if w := m2.Waveforms.Get(0); w == nil || w.Name != "triangle" || w.String() != "0123456789ABCDEFFEDCBA9876543210" {
		t.Fatalf("waveform not restored: %+v", w)
	}
	if len(m2.Songs) != 2 || m2.Songs[0].Name != "first" || m2.Songs[1].Patterns.Rows() != 256 {
		t.Fatal("songs not restored")
	}
	row := m2.Songs[1].Patterns.Track(trackerboy.Ch1, 9).Row(255)
	if note, ok := row.QueryNote(); !ok || note != trackerboy.NoteCut {
		t.Fatalf("last row of song 2: %+v", row)
	}
}

func TestLongMetadataIsTruncated(t *testing.T) {
	m := trackerboy.NewModule()
	m.Title = "0123456789012345678901234567890123456789"
	m2, err := format.Read(bytes.NewReader(encode(t, m)))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if m2.Title != m.Title[:format.MaxMetadataLength] {
		t.Fatalf("title %q", m2.Title)
	}
}

func TestMetadataCutAtRuneBoundary(t *testing.T) {
	m := trackerboy.NewModule()
	m.Artist = strings.Repeat("a", format.MaxMetadataLength-1) + "é" // one byte too long
	m.Copyright = strings.Repeat("b", format.MaxMetadataLength-2) + "é"
	m2, err := format.Read(bytes.NewReader(encode(t, m)))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if want := strings.Repeat("a", format.MaxMetadataLength-1); m2.Artist != want {
		t.Fatalf("artist %q, expected %q", m2.Artist, want)
	}
	if m2.Copyright != m.Copyright {
		t.Fatalf("copyright that fits was changed: %q", m2.Copyright)
	}
	if !utf8.ValidString(m2.Artist) {
		t.Fatalf("artist is not valid UTF-8: %q", m2.Artist)
	}
}

func TestErrorKinds(t *testing.T) {
	data := encode(t, testModule(t))
	patched := func(offset int, b byte) []byte {
		ret := bytes.Clone(data)
		ret[offset] = b
		return ret
	}
	const revisionOffset = 12 + 12
	tests := []struct {
		name string
		data []byte
		want *format.Error
	}{
		{"empty", nil, format.ErrSignature},
		{"shorter than the signature", data[:5], format.ErrSignature},
		{"signature", patched(3, 'X'), format.ErrSignature},
		{"future revision", patched(revisionOffset, format.RevisionMajor+1), format.ErrFutureRevision},
		{"header cut", data[:40], format.ErrTruncated},
		{"body cut", data[:len(data)-10], format.ErrTruncated},
		{"no end marker", data[:len(data)-3], format.ErrTruncated},
		{"bad end marker", patched(len(data)-1, 'X'), format.ErrCorrupted},
		{"bad system", patched(revisionOffset+2+96, 9), format.ErrCorrupted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := format.Read(bytes.NewReader(tt.data))
			if m != nil {
				t.Error("a module was returned with an error")
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("got error %v, expected kind %v", err, tt.want.Kind)
			}
			var ferr *format.Error
			if !errors.As(err, &ferr) || ferr.Kind != tt.want.Kind {
				t.Fatalf("errors.As: %v", err)
			}
		})
	}
	// a minor revision bump is readable
	if _, err := format.Read(bytes.NewReader(patched(revisionOffset+1, format.RevisionMinor+1))); err != nil {
		t.Fatalf("newer minor revision rejected: %v", err)
	}
}

func TestEveryTruncationIsAnError(t *testing.T) {
	data := encode(t, testModule(t))
	for n := range len(data) {
		m, err := format.Read(bytes.NewReader(data[:n]))
		if err == nil || m != nil {
			t.Fatalf("file cut at %d of %d bytes was accepted", n, len(data))
		}
		var ferr *format.Error
		if !errors.As(err, &ferr) {
			t.Fatalf("cut at %d: not a format error: %v", n, err)
		}
	}
}

type failingIO struct{}

var errDisk = errors.New("disk on fire")

func (failingIO) Read([]byte) (int, error)  { return 0, errDisk }
func (failingIO) Write([]byte) (int, error) { return 0, errDisk }

func TestIOErrors(t *testing.T) {
	_, err := format.Read(failingIO{})
	var ioErr *format.IOError
	if !errors.As(err, &ioErr) || !errors.Is(err, errDisk) {
		t.Fatalf("read: expected an IOError, got %v", err)
	}
	if errors.Is(err, format.ErrTruncated) || errors.Is(err, format.ErrSignature) {
		t.Fatalf("read: an i/o failure reported as a format error: %v", err)
	}
	err = format.Write(failingIO{}, trackerboy.NewModule())
	if !errors.As(err, &ioErr) || !errors.Is(err, errDisk) {
		t.Fatalf("write: expected an IOError, got %v", err)
	}
}

func TestRevision0Upgrade(t *testing.T) {
	m := trackerboy.NewModule()
	data := encode(t, m)
	data[12+12] = 0 // revision 0
	// first song: tag, id, empty name, rows per beat, rows per measure, speed
	speedOffset := bytes.Index(data, []byte("SONG")) + 4 + 1 + 1 + 2
	data[speedOffset] = 6
	m2, err := format.Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got := m2.Songs[0].Speed; got != 0x30 {
		t.Fatalf("speed %v, expected 0x30", got)
	}
}
