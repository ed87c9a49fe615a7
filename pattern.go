package trackerboy

import (
	"maps"
	"slices"
)

// EffectsPerRow is the number of effect columns in a TrackRow.
const EffectsPerRow = 3

const (
	// MaxRows is the maximum number of rows in a track.
	MaxRows = 256
	// DefaultRows is the row count of a new song.
	DefaultRows = 64
)

type (
	// TrackRow is one row of one channel's track. The note and instrument
	// columns are stored offset by one so that zero means "not set".
	TrackRow struct {
		Note       uint8
		Instrument uint8
		Effects    [EffectsPerRow]Effect
	}

	// Track is a fixed-length list of rows for one channel. Tracks are
	// addressed by an 8-bit id and shared by every order row that names that
	// id. The track keeps a count of its non-empty rows.
	Track struct {
		rows     []TrackRow
		rowCount int
	}

	// PatternMaster owns all tracks of a song, one map per channel. Every
	// track has the same number of rows.
	PatternMaster struct {
		rows   int
		tracks [NumChannels]map[uint8]*Track
	}

	// Pattern is a view of the four tracks an order row refers to. A nil
	// entry is a track that was never created and plays as empty rows.
	Pattern [NumChannels]*Track
)

// IsEmpty reports whether no column of the row is set.
func (r TrackRow) IsEmpty() bool {
	if r.Note != 0 || r.Instrument != 0 {
		return false
	}
	for _, e := range r.Effects {
		if e.Type != NoEffect {
			return false
		}
	}
	return true
}

// QueryNote returns the note index of the row, ok is false if not set.
func (r TrackRow) QueryNote() (note uint8, ok bool) {
	if r.Note == 0 {
		return 0, false
	}
	return r.Note - 1, true
}

func (r *TrackRow) SetNote(note uint8) { r.Note = note + 1 }

func (r *TrackRow) ClearNote() { r.Note = 0 }

// QueryInstrument returns the instrument id of the row, ok is false if not set.
func (r TrackRow) QueryInstrument() (id uint8, ok bool) {
	if r.Instrument == 0 {
		return 0, false
	}
	return r.Instrument - 1, true
}

func (r *TrackRow) SetInstrument(id uint8) { r.Instrument = id + 1 }

func (r *TrackRow) ClearInstrument() { r.Instrument = 0 }

// QueryEffect returns the effect in the given column, ok is false if not set.
func (r TrackRow) QueryEffect(column int) (e Effect, ok bool) {
	e = r.Effects[column]
	return e, e.Type != NoEffect
}

func newTrack(rows int) *Track {
	return &Track{rows: make([]TrackRow, rows)}
}

// Len returns the number of rows in the track.
func (t *Track) Len() int { return len(t.rows) }

// RowCount returns the number of non-empty rows.
func (t *Track) RowCount() int { return t.rowCount }

// IsEmpty reports whether every row of the track is empty.
func (t *Track) IsEmpty() bool { return t.rowCount == 0 }

// Rows returns the rows of the track. The slice must not be modified, use
// SetRow or the column setters instead.
func (t *Track) Rows() []TrackRow { return t.rows }

// Row returns the row at index, or an empty row if out of range.
func (t *Track) Row(index int) TrackRow {
	if index < 0 || index >= len(t.rows) {
		return TrackRow{}
	}
	return t.rows[index]
}

// SetRow replaces the row at index. Out-of-range indices are ignored.
func (t *Track) SetRow(index int, row TrackRow) {
	t.edit(index, func(r *TrackRow) { *r = row })
}

func (t *Track) SetNote(index int, note uint8) {
	t.edit(index, func(r *TrackRow) { r.SetNote(note) })
}

func (t *Track) ClearNote(index int) {
	t.edit(index, func(r *TrackRow) { r.ClearNote() })
}

func (t *Track) SetInstrument(index int, id uint8) {
	t.edit(index, func(r *TrackRow) { r.SetInstrument(id) })
}

func (t *Track) ClearInstrument(index int) {
	t.edit(index, func(r *TrackRow) { r.ClearInstrument() })
}

func (t *Track) SetEffect(index, column int, e Effect) {
	if column < 0 || column >= EffectsPerRow {
		return
	}
	t.edit(index, func(r *TrackRow) { r.Effects[column] = e })
}

func (t *Track) ClearEffect(index, column int) {
	t.SetEffect(index, column, Effect{})
}

// ClearRows empties the rows in [start, end).
func (t *Track) ClearRows(start, end int) {
	for i := max(start, 0); i < min(end, len(t.rows)); i++ {
		t.SetRow(i, TrackRow{})
	}
}

func (t *Track) edit(index int, fn func(*TrackRow)) {
	if index < 0 || index >= len(t.rows) {
		return
	}
	r := &t.rows[index]
	wasEmpty := r.IsEmpty()
	fn(r)
	switch isEmpty := r.IsEmpty(); {
	case wasEmpty && !isEmpty:
		t.rowCount++
	case !wasEmpty && isEmpty:
		t.rowCount--
	}
}

func (t *Track) resize(rows int) {
	if rows < len(t.rows) {
		for _, r := range t.rows[rows:] {
			if !r.IsEmpty() {
				t.rowCount--
			}
		}
		t.rows = t.rows[:rows:rows]
		return
	}
	t.rows = append(t.rows, make([]TrackRow, rows-len(t.rows))...)
}

// Copy makes a deep copy of a Track.
func (t *Track) Copy() *Track {
	return &Track{rows: slices.Clone(t.rows), rowCount: t.rowCount}
}

// NewPatternMaster creates an empty PatternMaster with the given row count.
func NewPatternMaster(rows int) PatternMaster {
	rows = min(max(rows, 1), MaxRows)
	pm := PatternMaster{rows: rows}
	for i := range pm.tracks {
		pm.tracks[i] = map[uint8]*Track{}
	}
	return pm
}

// Rows returns the number of rows in every track.
func (pm *PatternMaster) Rows() int { return pm.rows }

// SetRows resizes every track. Rows past the new size are discarded.
func (pm *PatternMaster) SetRows(rows int) error {
	if rows < 1 || rows > MaxRows {
		return ErrRowCount
	}
	pm.rows = rows
	for _, m := range pm.tracks {
		for _, t := range m {
			t.resize(rows)
		}
	}
	return nil
}

// Track returns the track with the given id, creating it if needed.
func (pm *PatternMaster) Track(ch ChType, id uint8) *Track {
	pm.init()
	t, ok := pm.tracks[ch][id]
	if !ok {
		t = newTrack(pm.rows)
		pm.tracks[ch][id] = t
	}
	return t
}

// LookupTrack returns the track with the given id without creating it.
func (pm *PatternMaster) LookupTrack(ch ChType, id uint8) (*Track, bool) {
	t, ok := pm.tracks[ch][id]
	return t, ok
}

// RemoveTrack deletes the track with the given id.
func (pm *PatternMaster) RemoveTrack(ch ChType, id uint8) {
	delete(pm.tracks[ch], id)
}

// TrackIDs returns the ids of the existing tracks of a channel, ascending.
func (pm *PatternMaster) TrackIDs(ch ChType) []uint8 {
	return slices.Sorted(maps.Keys(pm.tracks[ch]))
}

// Pattern returns a view of the tracks named by an order row. Missing tracks
// are not created.
func (pm *PatternMaster) Pattern(row OrderRow) Pattern {
	var p Pattern
	for ch, id := range row {
		p[ch] = pm.tracks[ch][id]
	}
	return p
}

// EditPattern is like Pattern, but creates missing tracks.
func (pm *PatternMaster) EditPattern(row OrderRow) Pattern {
	var p Pattern
	for ch, id := range row {
		p[ch] = pm.Track(ChType(ch), id)
	}
	return p
}

// Clear removes every track.
func (pm *PatternMaster) Clear() {
	for i := range pm.tracks {
		pm.tracks[i] = map[uint8]*Track{}
	}
}

// Copy makes a deep copy of a PatternMaster.
func (pm *PatternMaster) Copy() PatternMaster {
	ret := NewPatternMaster(pm.rows)
	for ch, m := range pm.tracks {
		for id, t := range m {
			ret.tracks[ch][id] = t.Copy()
		}
	}
	return ret
}

func (pm *PatternMaster) init() {
	if pm.rows == 0 {
		pm.rows = DefaultRows
	}
	for i := range pm.tracks {
		if pm.tracks[i] == nil {
			pm.tracks[i] = map[uint8]*Track{}
		}
	}
}

// Row returns the row of a channel, or an empty row for a missing track.
func (p Pattern) Row(ch ChType, index int) TrackRow {
	if t := p[ch]; t != nil {
		return t.Row(index)
	}
	return TrackRow{}
}
