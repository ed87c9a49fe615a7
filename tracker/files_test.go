package tracker_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stoneface86/trackerboy-sub003"
	"github.com/stoneface86/trackerboy-sub003/tracker"
)

func exampleModule(t *testing.T) *trackerboy.Module {
	t.Helper()
	m := trackerboy.NewModule()
	m.Title, m.Artist, m.Copyright = "Title", "Artist", "2024"
	m.System = trackerboy.Custom
	m.CustomFramerate = 120
	inst := trackerboy.NewInstrument(trackerboy.Ch2)
	inst.Name = "lead"
	inst.SetEnvelope(0x57, true)
	arp := inst.Sequence(trackerboy.SeqArpeggio)
	if err := arp.SetData([]int8{0, 4, 7}); err != nil {
		t.Fatal(err)
	}
	if err := arp.SetLoop(1); err != nil {
		t.Fatal(err)
	}
	if err := m.Instruments.InsertAt(3, inst); err != nil {
		t.Fatal(err)
	}
	w := &trackerboy.Waveform{Name: "saw"}
	if err := w.SetString("0123456789ABCDEFFEDCBA9876543210"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Waveforms.Insert(w); err != nil {
		t.Fatal(err)
	}
	song := m.Songs[0]
	song.Name = "song"
	song.Speed = 0x28
	song.Order.Append(trackerboy.OrderRow{1, 0, 2, 0})
	track := song.Patterns.Track(trackerboy.Ch2, 0)
	track.SetNote(0, trackerboy.NoteC4)
	track.SetInstrument(0, 3)
	track.SetEffect(0, 1, trackerboy.Effect{Type: trackerboy.Vibrato, Param: 0x42})
	track.SetNote(8, trackerboy.NoteCut)
	song.Patterns.Track(trackerboy.Ch4, 7).SetEffect(63, 0, trackerboy.Effect{Type: trackerboy.PatternHalt})
	return m
}

func TestModuleYamlRoundTrip(t *testing.T) {
	m := exampleModule(t)
	var first bytes.Buffer
	if err := tracker.WriteModule(&first, m); err != nil {
		t.Fatalf("WriteModule failed: %v", err)
	}
	m2, err := tracker.ReadModule(bytes.NewReader(first.Bytes()))
	if err != nil {
		t.Fatalf("ReadModule failed: %v\n%s", err, first.String())
	}
	var second bytes.Buffer
	if err := tracker.WriteModule(&second, m2); err != nil {
		t.Fatalf("WriteModule failed: %v", err)
	}
	if first.String() != second.String() {
		t.Fatalf("round trip changed the document:\n%s\n---\n%s", first.String(), second.String())
	}
	inst := m2.Instruments.Get(3)
	if inst == nil || inst.Name != "lead" || inst.Channel() != trackerboy.Ch2 {
		t.Fatalf("instrument 3 not restored: %+v", inst)
	}
	if env, ok := inst.Envelope(); !ok || env != 0x57 {
		t.Fatalf("envelope %02X (%v), expected 57", env, ok)
	}
	if loop, ok := inst.Sequence(trackerboy.SeqArpeggio).Loop(); !ok || loop != 1 {
		t.Fatalf("arpeggio loop %d (%v), expected 1", loop, ok)
	}
	if w := m2.Waveforms.Get(0); w == nil || w.String() != "0123456789ABCDEFFEDCBA9876543210" {
		t.Fatalf("waveform not restored: %v", w)
	}
	song := m2.Songs[0]
	if song.Speed != 0x28 || song.Order.Len() != 2 || song.Order.Get(1) != (trackerboy.OrderRow{1, 0, 2, 0}) {
		t.Fatalf("song header not restored: speed %v order %v", song.Speed, song.Order.Rows())
	}
	row := song.Patterns.Track(trackerboy.Ch2, 0).Row(0)
	if note, _ := row.QueryNote(); note != trackerboy.NoteC4 || row.Effects[1].Param != 0x42 {
		t.Fatalf("row not restored: %+v", row)
	}
	if m2.Framerate() != 120 {
		t.Fatalf("framerate %v, expected 120", m2.Framerate())
	}
}

func TestReadModuleErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"channel":  "instruments:\n  - id: 0\n    channel: 5\nsongs: []\n",
		"system":   "system: nes\nsongs: []\n",
		"waveform": "waveforms:\n  - id: 0\n    data: 12\nsongs: []\n",
		"note":     "songs:\n  - rows: 4\n    tracks:\n      - channel: 1\n        id: 0\n        rows:\n          - row: 0\n            note: H-4\n",
		"row":      "songs:\n  - rows: 4\n    tracks:\n      - channel: 1\n        id: 0\n        rows:\n          - row: 4\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := tracker.ReadModule(strings.NewReader(doc)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
	for _, doc := range []string{
		"instruments:\n  - id: 0\n    channel: 0\nsongs: []\n",
		"songs:\n  - rows: 4\n    tracks:\n      - channel: 9\n        id: 0\n",
	} {
		if _, err := tracker.ReadModule(strings.NewReader(doc)); !errors.Is(err, trackerboy.ErrInvalidChannel) {
			t.Errorf("expected ErrInvalidChannel, got %v", err)
		}
	}
}

func TestFileExtensions(t *testing.T) {
	dir := t.TempDir()
	m := exampleModule(t)
	for _, name := range []string{"song.yml", "song.tbm"} {
		path := filepath.Join(dir, name)
		if err := tracker.WriteFile(path, m); err != nil {
			t.Fatalf("%s: WriteFile failed: %v", name, err)
		}
		m2, err := tracker.ReadFile(path)
		if err != nil {
			t.Fatalf("%s: ReadFile failed: %v", name, err)
		}
		if m2.Title != m.Title || m2.Instruments.Len() != 1 || m2.Waveforms.Len() != 1 {
			t.Fatalf("%s: module not restored", name)
		}
	}
	if err := tracker.WriteFile(filepath.Join(dir, "song.txt"), m); !errors.Is(err, tracker.ErrUnknownExtension) {
		t.Fatalf("expected ErrUnknownExtension, got %v", err)
	}
}

func TestDocumentEditScopes(t *testing.T) {
	doc := tracker.NewDocument(nil)
	release := doc.Edit()
	doc.Module().Title = "x"
	release()
	if doc.Dirty() {
		t.Fatal("Edit marked the document dirty")
	}
	release = doc.PermanentEdit()
	doc.Module().Title = "y"
	release()
	if !doc.Dirty() {
		t.Fatal("PermanentEdit did not mark the document dirty")
	}
	path := filepath.Join(t.TempDir(), "doc.yml")
	if err := doc.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if doc.Dirty() || doc.Path() != path {
		t.Fatalf("after Save: dirty %v path %q", doc.Dirty(), doc.Path())
	}
}

func TestDocumentOpenFailureResets(t *testing.T) {
	doc := tracker.NewDocument(exampleModule(t))
	path := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(path, []byte("system: nes\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := doc.Open(path); err == nil {
		t.Fatal("expected an error")
	}
	release := doc.Edit()
	defer release()
	m := doc.Module()
	if m.Title != "" || m.Instruments.Len() != 0 || len(m.Songs) != 1 {
		t.Fatalf("module not reset after a failed load: %+v", m)
	}
}
