package compiler_test

import (
	"reflect"
	"testing"

	"github.com/stoneface86/trackerboy-sub003"
	"github.com/stoneface86/trackerboy-sub003/compiler"
)

func TestTrackReusing(t *testing.T) {
	song := trackerboy.NewSong()
	song.Patterns.SetRows(4)
	song.Order.SetRows([]trackerboy.OrderRow{{0, 0, 0, 0}, {1, 2, 0, 0}})
	song.Patterns.Track(trackerboy.Ch1, 0).SetNote(0, trackerboy.NoteC4)
	song.Patterns.Track(trackerboy.Ch2, 0).SetNote(0, trackerboy.NoteC4)
	song.Patterns.Track(trackerboy.Ch1, 1).SetNote(2, trackerboy.NoteC3)
	song.Patterns.Track(trackerboy.Ch2, 2).SetInstrument(3, 0)
	song.Patterns.Track(trackerboy.Ch2, 2).SetEffect(3, 1, trackerboy.Effect{Type: trackerboy.PatternHalt})
	// never referenced by the order
	song.Patterns.Track(trackerboy.Ch3, 7).SetNote(0, trackerboy.NoteC2)
	encoded, err := compiler.EncodeSong(song)
	if err != nil {
		t.Fatalf("song encoding error: %v", err)
	}
	expected := compiler.EncodedSong{
		Speed: uint8(trackerboy.DefaultSpeed),
		Rows:  4,
		Orders: [][]byte{{0, 0, 1, 1}, {2, 3, 1, 1}},
		Tracks: [][]byte{
			{1, 0, 0, trackerboy.NoteC4 + 1, 0, 0},
			{0, 0},
			{1, 0, 2, trackerboy.NoteC3 + 1, 0, 0},
			{1, 0, 3, 0, 1, 1, byte(trackerboy.PatternHalt), 0},
		},
	}
	if !reflect.DeepEqual(*encoded, expected) {
		t.Fatalf("got different EncodedSong than expected. got: %v expected: %v", *encoded, expected)
	}
	if got := encoded.OrderBytes(); !reflect.DeepEqual(got, []byte{0, 0, 1, 1, 2, 3, 1, 1}) {
		t.Fatalf("order bytes: %v", got)
	}
}

func TestRowSkips(t *testing.T) {
	song := trackerboy.NewSong()
	song.Patterns.SetRows(256)
	track := song.Patterns.Track(trackerboy.Ch4, 0)
	track.SetNote(10, trackerboy.NoteC2)
	track.SetNote(255, trackerboy.NoteCut)
	encoded, err := compiler.EncodeSong(song)
	if err != nil {
		t.Fatalf("song encoding error: %v", err)
	}
	expected := []byte{2, 0, 10, trackerboy.NoteC2 + 1, 0, 0, 244, trackerboy.NoteCut + 1, 0, 0}
	if got := encoded.Tracks[encoded.Orders[0][3]]; !reflect.DeepEqual(got, expected) {
		t.Fatalf("got %v, expected %v", got, expected)
	}
	if encoded.RowsByte() != 0 {
		t.Fatalf("256 rows should be stored as 0, got %d", encoded.RowsByte())
	}
}

func TestInvalidSpeed(t *testing.T) {
	song := trackerboy.NewSong()
	song.Speed = 4
	if _, err := compiler.EncodeSong(song); err == nil {
		t.Fatal("expected an error for a speed below one frame per row")
	}
}
