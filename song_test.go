package trackerboy_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stoneface86/trackerboy-sub003"
)

func TestTempo(t *testing.T) {
	song := trackerboy.NewSong()
	song.Speed = trackerboy.SpeedFromFloat(6.0)
	song.RowsPerBeat = 4
	if song.Speed != 0x30 {
		t.Fatalf("speed 6.0: got %#x, expected 0x30", song.Speed)
	}
	if tempo := song.Tempo(60); tempo != 150 {
		t.Fatalf("tempo: got %v, expected 150", tempo)
	}
	if s := trackerboy.EstimateSpeed(150, 4, 60); s != song.Speed {
		t.Fatalf("EstimateSpeed(150): got %#x, expected %#x", s, song.Speed)
	}
}

func TestSpeedRounding(t *testing.T) {
	for _, fpr := range []float64{1, 1.3, 2.5, 6.06, 17.9, 31.875} {
		s := trackerboy.SpeedFromFloat(fpr)
		if d := math.Abs(s.Float() - fpr); d > 1.0/16 {
			t.Errorf("SpeedFromFloat(%v) = %v, off by %v", fpr, s, d)
		}
	}
	if s := trackerboy.SpeedFromFloat(0.25); s != trackerboy.SpeedMin {
		t.Errorf("speed below minimum was not clamped: %#x", s)
	}
	if s := trackerboy.SpeedFromFloat(100); s != trackerboy.SpeedMax {
		t.Errorf("speed above maximum was not clamped: %#x", s)
	}
}

func TestOrderNeverEmpty(t *testing.T) {
	order := trackerboy.NewOrder()
	if order.Len() != 1 {
		t.Fatalf("new order has %d rows", order.Len())
	}
	order.Set(0, trackerboy.OrderRow{1, 2, 3, 4})
	if err := order.Remove(0); !errors.Is(err, trackerboy.ErrOrderEmpty) {
		t.Fatalf("removing the last row: expected ErrOrderEmpty, got %v", err)
	}
	if order.Len() != 1 || order.Get(0) != (trackerboy.OrderRow{1, 2, 3, 4}) {
		t.Fatalf("failed removal changed the order: %v", order.Rows())
	}
	if err := order.Resize(0); !errors.Is(err, trackerboy.ErrOrderEmpty) {
		t.Fatalf("resize to 0: expected ErrOrderEmpty, got %v", err)
	}
	var zero trackerboy.Order
	if zero.Len() != 1 {
		t.Fatalf("zero order has %d rows", zero.Len())
	}
}

func TestOrderEditing(t *testing.T) {
	order := trackerboy.NewOrder()
	order.Append(order.NextUnused())
	order.Append(order.NextUnused())
	if got := order.Get(2); got != (trackerboy.OrderRow{2, 2, 2, 2}) {
		t.Fatalf("NextUnused: got %v", got)
	}
	order.Swap(0, 2)
	if order.Get(0) != (trackerboy.OrderRow{2, 2, 2, 2}) {
		t.Fatalf("swap failed: %v", order.Rows())
	}
	if err := order.Resize(trackerboy.MaxOrderSize); err != nil {
		t.Fatalf("resize to max failed: %v", err)
	}
	if err := order.Insert(0, trackerboy.OrderRow{}); !errors.Is(err, trackerboy.ErrOrderFull) {
		t.Fatalf("expected ErrOrderFull, got %v", err)
	}
}

func TestTrackRowCount(t *testing.T) {
	pm := trackerboy.NewPatternMaster(16)
	track := pm.Track(trackerboy.Ch1, 0)
	if !track.IsEmpty() {
		t.Fatalf("new track is not empty")
	}
	track.SetNote(0, trackerboy.NoteC4)
	track.SetInstrument(0, 1)
	track.SetEffect(5, 2, trackerboy.Effect{Type: trackerboy.PatternHalt})
	track.SetNote(15, trackerboy.NoteCut)
	if track.RowCount() != 3 {
		t.Fatalf("row count: got %d, expected 3", track.RowCount())
	}
	track.ClearNote(0)
	if track.RowCount() != 3 {
		t.Fatalf("row with an instrument became empty")
	}
	track.ClearInstrument(0)
	if track.RowCount() != 2 {
		t.Fatalf("row count after clearing row 0: got %d, expected 2", track.RowCount())
	}
	if err := pm.SetRows(8); err != nil {
		t.Fatalf("SetRows failed: %v", err)
	}
	if track.Len() != 8 || track.RowCount() != 1 {
		t.Fatalf("after shrink: len %d, count %d", track.Len(), track.RowCount())
	}
	if err := pm.SetRows(0); !errors.Is(err, trackerboy.ErrRowCount) {
		t.Fatalf("expected ErrRowCount, got %v", err)
	}
}

func TestPatternSharesTracks(t *testing.T) {
	song := trackerboy.NewSong()
	song.Order.Append(trackerboy.OrderRow{0, 1, 0, 0})
	song.Patterns.Track(trackerboy.Ch1, 0).SetNote(3, trackerboy.NoteC3)
	p0 := song.Patterns.Pattern(song.Order.Get(0))
	p1 := song.Patterns.Pattern(song.Order.Get(1))
	if p0[trackerboy.Ch1] != p1[trackerboy.Ch1] {
		t.Fatalf("order rows naming the same track id got different tracks")
	}
	if p1[trackerboy.Ch2] != nil {
		t.Fatalf("Pattern created a missing track")
	}
	if note, ok := p1.Row(trackerboy.Ch1, 3).QueryNote(); !ok || note != trackerboy.NoteC3 {
		t.Fatalf("shared row: got %d (ok=%v)", note, ok)
	}
	if r := p1.Row(trackerboy.Ch2, 3); !r.IsEmpty() {
		t.Fatalf("missing track returned a non-empty row")
	}
}

func TestModuleSongs(t *testing.T) {
	m := trackerboy.NewModule()
	if err := m.RemoveSong(0); !errors.Is(err, trackerboy.ErrLastSong) {
		t.Fatalf("expected ErrLastSong, got %v", err)
	}
	if _, err := m.AddSong(trackerboy.NewSong()); err != nil {
		t.Fatalf("AddSong failed: %v", err)
	}
	if err := m.RemoveSong(0); err != nil {
		t.Fatalf("RemoveSong failed: %v", err)
	}
	if len(m.Songs) != 1 {
		t.Fatalf("expected one song, got %d", len(m.Songs))
	}
	if f := m.Framerate(); math.Abs(f-59.7275) > 1e-3 {
		t.Fatalf("DMG framerate: got %v", f)
	}
}

func TestNotesAndEffects(t *testing.T) {
	for _, c := range []struct {
		note uint8
		name string
	}{{trackerboy.NoteC2, "C-2"}, {trackerboy.NoteC3 + 1, "C#3"}, {trackerboy.NoteLast, "B-8"}, {trackerboy.NoteCut, "---"}} {
		if got := trackerboy.NoteName(c.note); got != c.name {
			t.Errorf("NoteName(%d) = %s, expected %s", c.note, got, c.name)
		}
		if got, err := trackerboy.ParseNote(c.name); err != nil || got != c.note {
			t.Errorf("ParseNote(%s) = %d, %v", c.name, got, err)
		}
	}
	// A-4 is 440 Hz: 2048 - 131072/440
	if got := trackerboy.NoteFrequency(trackerboy.NoteC4 + 9); got != 1750 {
		t.Errorf("A-4 frequency register: got %d, expected 1750", got)
	}
	e := trackerboy.Effect{Type: trackerboy.SetSpeed, Param: 0x30}
	if e.String() != "F30" {
		t.Errorf("effect string: got %s", e)
	}
	if got, err := trackerboy.ParseEffect("F30"); err != nil || got != e {
		t.Errorf("ParseEffect: got %v, %v", got, err)
	}
}
