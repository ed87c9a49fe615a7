package format

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/stoneface86/trackerboy-sub003"
)

type tag [4]byte

var (
	tagComments    = tag{'C', 'O', 'M', 'M'}
	tagSongs       = tag{'S', 'O', 'N', 'G'}
	tagInstruments = tag{'I', 'N', 'S', 'T'}
	tagWaveforms   = tag{'W', 'A', 'V', 'E'}
)

const (
	maxNameLength    = 255
	maxCommentLength = 1 << 20
)

// decoder reads little endian values. The first error sticks; once set,
// every read returns zeros.
type decoder struct {
	r        io.Reader
	revision uint8
	err      error
	scratch  [4]byte
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) read(p []byte) {
	if d.err != nil {
		clear(p)
		return
	}
	if _, err := io.ReadFull(d.r, p); err != nil {
		clear(p)
		d.fail(readError(err))
	}
}

func (d *decoder) u8() uint8 {
	d.read(d.scratch[:1])
	return d.scratch[0]
}

func (d *decoder) u16() uint16 {
	d.read(d.scratch[:2])
	return binary.LittleEndian.Uint16(d.scratch[:])
}

func (d *decoder) u32() uint32 {
	d.read(d.scratch[:4])
	return binary.LittleEndian.Uint32(d.scratch[:])
}

func (d *decoder) bytes(n int) []byte {
	if n > maxCommentLength {
		d.fail(corrupted("block of %d bytes", n))
		return nil
	}
	b := make([]byte, n)
	d.read(b)
	return b
}

// name reads a nul-terminated string.
func (d *decoder) name() string {
	var b []byte
	for d.err == nil {
		c := d.u8()
		if c == 0 {
			break
		}
		if len(b) == maxNameLength {
			d.fail(corrupted("unterminated name"))
			break
		}
		b = append(b, c)
	}
	return string(b)
}

func (d *decoder) expectTag(t tag) {
	var got tag
	d.read(got[:])
	if d.err == nil && got != t {
		d.fail(corrupted("expected %s block, found %q", t[:], got[:]))
	}
}

type encoder struct {
	buf *bytes.Buffer
}

func (e *encoder) u8(v uint8) { e.buf.WriteByte(v) }

func (e *encoder) u16(v uint16) {
	e.buf.Write(binary.LittleEndian.AppendUint16(nil, v))
}

func (e *encoder) u32(v uint32) {
	e.buf.Write(binary.LittleEndian.AppendUint32(nil, v))
}

func (e *encoder) bool(v bool) {
	if v {
		e.u8(1)
	} else {
		e.u8(0)
	}
}

func (e *encoder) tag(t tag) { e.buf.Write(t[:]) }

// name writes s nul-terminated. Nuls inside s end the name early.
func (e *encoder) name(s string) {
	if i := bytes.IndexByte([]byte(s), 0); i >= 0 {
		s = s[:i]
	}
	if len(s) > maxNameLength {
		s = s[:maxNameLength]
	}
	e.buf.WriteString(s)
	e.u8(0)
}

// itemCodec is the payload encoding of one kind of table item. Every item is
// stored as [id][name\0][payload]; readItems and writeItem handle the id and
// name and call the codec for the payload.
type itemCodec[T any] struct {
	kind    string
	name    func(*T) string
	setName func(*T, string)
	encode  func(*encoder, *T)
	decode  func(*decoder) *T
}

func writeItem[T any](e *encoder, id uint8, v *T, c itemCodec[T]) {
	e.u8(id)
	e.name(c.name(v))
	c.encode(e, v)
}

func readItems[T any](d *decoder, count int, c itemCodec[T], insert func(uint8, *T) error) {
	for range count {
		id := d.u8()
		name := d.name()
		v := c.decode(d)
		if d.err != nil || v == nil {
			return
		}
		c.setName(v, name)
		if err := insert(id, v); err != nil {
			d.fail(corrupted("%s %d: %v", c.kind, id, err))
			return
		}
	}
}

var songCodec = itemCodec[trackerboy.Song]{
	kind:    "song",
	name:    func(s *trackerboy.Song) string { return s.Name },
	setName: func(s *trackerboy.Song, name string) { s.Name = name },
	encode:  encodeSong,
	decode:  decodeSong,
}

var instrumentCodec = itemCodec[trackerboy.Instrument]{
	kind:    "instrument",
	name:    func(i *trackerboy.Instrument) string { return i.Name },
	setName: func(i *trackerboy.Instrument, name string) { i.Name = name },
	encode:  encodeInstrument,
	decode:  decodeInstrument,
}

var waveformCodec = itemCodec[trackerboy.Waveform]{
	kind:    "waveform",
	name:    func(w *trackerboy.Waveform) string { return w.Name },
	setName: func(w *trackerboy.Waveform, name string) { w.Name = name },
	encode:  func(e *encoder, w *trackerboy.Waveform) { e.buf.Write(w.Data[:]) },
	decode: func(d *decoder) *trackerboy.Waveform {
		w := &trackerboy.Waveform{}
		d.read(w.Data[:])
		return w
	},
}

// Song payload:
//
//	rowsPerBeat u8, rowsPerMeasure u8, speed u8, rows-1 u8
//	orders-1 u8, orders * [4]u8
//	for each channel: tracks u16, tracks * (id u8, rows u16, rows * row)
//	row: index u8, note u8, instrument u8, 3 * (effect type u8, param u8)
//
// Revision 0 stored the speed in whole frames per row.
func encodeSong(e *encoder, s *trackerboy.Song) {
	e.u8(uint8(s.RowsPerBeat))
	e.u8(uint8(s.RowsPerMeasure))
	e.u8(uint8(s.Speed))
	e.u8(uint8(s.Patterns.Rows() - 1))
	orders := s.Order.Rows()
	e.u8(uint8(len(orders) - 1))
	for _, row := range orders {
		e.buf.Write(row[:])
	}
	for ch := range trackerboy.NumChannels {
		ids := s.Patterns.TrackIDs(trackerboy.ChType(ch))
		e.u16(uint16(len(ids)))
		for _, id := range ids {
			track, _ := s.Patterns.LookupTrack(trackerboy.ChType(ch), id)
			e.u8(id)
			count := 0
			for _, row := range track.Rows() {
				if !row.IsEmpty() {
					count++
				}
			}
			e.u16(uint16(count))
			for i, row := range track.Rows() {
				if row.IsEmpty() {
					continue
				}
				e.u8(uint8(i))
				e.u8(row.Note)
				e.u8(row.Instrument)
				for _, effect := range row.Effects {
					e.u8(uint8(effect.Type))
					e.u8(effect.Param)
				}
			}
		}
	}
}

func decodeSong(d *decoder) *trackerboy.Song {
	s := trackerboy.NewSong()
	s.RowsPerBeat = int(d.u8())
	s.RowsPerMeasure = int(d.u8())
	speed := trackerboy.Speed(d.u8())
	if d.revision == 0 {
		speed = trackerboy.Speed(min(int(speed)<<trackerboy.SpeedFractionBits, int(trackerboy.SpeedMax)))
	}
	rows := int(d.u8()) + 1
	orders := make([]trackerboy.OrderRow, int(d.u8())+1)
	for i := range orders {
		d.read(orders[i][:])
	}
	if d.err != nil {
		return nil
	}
	if !speed.Valid() {
		d.fail(corrupted("song speed %02X", uint8(speed)))
		return nil
	}
	s.Speed = speed
	if err := s.Patterns.SetRows(rows); err != nil {
		d.fail(corrupted("song rows: %v", err))
		return nil
	}
	if err := s.Order.SetRows(orders); err != nil {
		d.fail(corrupted("song order: %v", err))
		return nil
	}
	for ch := range trackerboy.NumChannels {
		tracks := int(d.u16())
		for range tracks {
			id := d.u8()
			if _, exists := s.Patterns.LookupTrack(trackerboy.ChType(ch), id); exists {
				d.fail(corrupted("duplicate track %d on channel %d", id, ch+1))
				return nil
			}
			track := s.Patterns.Track(trackerboy.ChType(ch), id)
			count := int(d.u16())
			for range count {
				index := int(d.u8())
				row := trackerboy.TrackRow{Note: d.u8(), Instrument: d.u8()}
				for i := range row.Effects {
					row.Effects[i] = trackerboy.Effect{Type: trackerboy.EffectType(d.u8()), Param: d.u8()}
				}
				if d.err != nil {
					return nil
				}
				if index >= rows {
					d.fail(corrupted("track %d row %d out of range", id, index))
					return nil
				}
				track.SetRow(index, row)
			}
		}
	}
	return s
}

// Instrument payload:
//
//	channel u8, envelope enabled u8, envelope u8
//	for each sequence: length u16, loop enabled u8, loop u8, length * i8
func encodeInstrument(e *encoder, inst *trackerboy.Instrument) {
	e.u8(uint8(inst.Channel()))
	env, ok := inst.Envelope()
	e.bool(ok)
	e.u8(env)
	for kind := range trackerboy.SequenceCount {
		seq := inst.Sequence(kind)
		e.u16(uint16(seq.Len()))
		loop, ok := seq.Loop()
		e.bool(ok)
		e.u8(loop)
		for _, v := range seq.Data() {
			e.u8(uint8(v))
		}
	}
}

func decodeInstrument(d *decoder) *trackerboy.Instrument {
	ch := trackerboy.ChType(d.u8())
	if d.err == nil && !ch.Valid() {
		d.fail(corrupted("instrument channel %d", ch))
	}
	enabled := d.u8() != 0
	env := d.u8()
	if d.err != nil {
		return nil
	}
	inst := trackerboy.NewInstrument(ch)
	inst.SetEnvelope(env, enabled)
	for kind := range trackerboy.SequenceCount {
		n := int(d.u16())
		loopEnabled := d.u8() != 0
		loop := d.u8()
		if n > trackerboy.MaxSequenceSize {
			d.fail(corrupted("%v sequence of %d steps", kind, n))
		}
		if d.err != nil {
			return nil
		}
		data := make([]int8, n)
		for i := range data {
			data[i] = int8(d.u8())
		}
		seq := inst.Sequence(kind)
		seq.SetData(data)
		if loopEnabled {
			if err := seq.SetLoop(loop); err != nil {
				d.fail(corrupted("%v sequence loop: %v", kind, err))
				return nil
			}
		}
	}
	return inst
}
