package compiler

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/stoneface86/trackerboy-sub003"
)

// EncodedSong has a single track table shared by all channels and the order
// refers to it by index. This is in contrast with trackerboy.Song, which has
// one set of tracks per channel. Each order row holds four track indices. Identical tracks are stored once, and tracks
// not used by the order are left out.
type EncodedSong struct {
	Name   string
	Speed  uint8
	Rows   int
	Orders [][]byte
	Tracks [][]byte
}

// Encoded track layout: the number of entries as a little endian word, then
// per non-empty row:
//
//	rows skipped since the previous entry, note, instrument, effect count,
//	effect count * (type, param)
//
// Note and instrument are 0 when unset and value+1 otherwise.
func encodeTrack(track *trackerboy.Track) []byte {
	if track == nil {
		return []byte{0, 0}
	}
	count := track.RowCount()
	ret := []byte{byte(count), byte(count >> 8)}
	last := -1
	for i, row := range track.Rows() {
		if row.IsEmpty() {
			continue
		}
		ret = append(ret, byte(i-last-1), row.Note, row.Instrument)
		n := len(ret)
		ret = append(ret, 0)
		for _, e := range row.Effects {
			if e.Type != trackerboy.NoEffect {
				ret = append(ret, byte(e.Type), e.Param)
				ret[n]++
			}
		}
		last = i
	}
	return ret
}

// addTracksToTable adds the tracks to the table, reusing an identical track
// when there is one. It returns the index of each track in the updated table.
func addTracksToTable(tracks [][]byte, table [][]byte) ([]int, [][]byte) {
	indices := make([]int, len(tracks))
	for i, track := range tracks {
		index := -1
		for j, t := range table {
			if bytes.Equal(t, track) {
				index = j
				break
			}
		}
		if index == -1 {
			index = len(table)
			table = append(table, track)
		}
		indices[i] = index
	}
	return indices, table
}

func EncodeSong(song *trackerboy.Song) (*EncodedSong, error) {
	if !song.Speed.Valid() {
		return nil, fmt.Errorf("song speed %v is below one frame per row", song.Speed)
	}
	ret := &EncodedSong{
		Name:  song.Name,
		Speed: uint8(song.Speed),
		Rows:  song.Patterns.Rows(),
	}
	for _, orderRow := range song.Order.Rows() {
		var tracks [][]byte
		for ch := range trackerboy.NumChannels {
			track, _ := song.Patterns.LookupTrack(trackerboy.ChType(ch), orderRow[ch])
			tracks = append(tracks, encodeTrack(track))
		}
		var indices []int
		indices, ret.Tracks = addTracksToTable(tracks, ret.Tracks)
		row := make([]byte, trackerboy.NumChannels)
		for ch, index := range indices {
			if index > 255 {
				return nil, errors.New("encoding the song would result in more than 256 unique tracks")
			}
			row[ch] = byte(index)
		}
		ret.Orders = append(ret.Orders, row)
	}
	return ret, nil
}

// RowsByte is the row count as stored in a byte, 0 meaning 256.
func (e *EncodedSong) RowsByte() uint8 {
	return uint8(e.Rows)
}

// OrderBytes returns the order flattened, four track indices per row.
func (e *EncodedSong) OrderBytes() []byte {
	ret := make([]byte, 0, len(e.Orders)*trackerboy.NumChannels)
	for _, row := range e.Orders {
		ret = append(ret, row...)
	}
	return ret
}
