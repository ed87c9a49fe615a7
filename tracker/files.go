package tracker

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stoneface86/trackerboy-sub003"
	"github.com/stoneface86/trackerboy-sub003/format"
)

// The .yml module document. Ids are written explicitly so that a module
// survives a round trip with gaps in its tables, and only non-empty rows of
// tracks are written.
type (
	moduleDoc struct {
		Title       string          `yaml:",omitempty"`
		Artist      string          `yaml:",omitempty"`
		Copyright   string          `yaml:",omitempty"`
		Comments    string          `yaml:",omitempty"`
		System      string          `yaml:",omitempty"`
		Framerate   int             `yaml:",omitempty"` // custom systems only
		Instruments []instrumentDoc `yaml:",omitempty"`
		Waveforms   []waveformDoc   `yaml:",omitempty"`
		Songs       []songDoc
	}

	instrumentDoc struct {
		ID        uint8
		Name      string                 `yaml:",omitempty"`
		Channel   int                    // 1 to 4
		Envelope  *uint8                 `yaml:",omitempty"`
		Sequences map[string]sequenceDoc `yaml:",omitempty"`
	}

	sequenceDoc struct {
		Data []int8 `yaml:",flow"`
		Loop *uint8 `yaml:",omitempty"`
	}

	waveformDoc struct {
		ID   uint8
		Name string `yaml:",omitempty"`
		Data string
	}

	songDoc struct {
		Name           string `yaml:",omitempty"`
		RowsPerBeat    int
		RowsPerMeasure int
		Speed          uint8
		Rows           int
		Order          [][trackerboy.NumChannels]uint8 `yaml:",flow"`
		Tracks         []trackDoc                     `yaml:",omitempty"`
	}

	trackDoc struct {
		Channel int // 1 to 4
		ID      uint8
		Rows    []rowDoc
	}

	rowDoc struct {
		Row        int
		Note       string   `yaml:",omitempty"`
		Instrument *uint8   `yaml:",omitempty"`
		Effects    []string `yaml:",flow,omitempty"`
	}
)

var ErrUnknownExtension = errors.New("unknown module file extension")

// ReadFile loads a module, .tbm files with the binary format and .yml/.yaml
// files as YAML documents.
func ReadFile(path string) (*trackerboy.Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tbm":
		return format.Read(f)
	case ".yml", ".yaml":
		return ReadModule(f)
	}
	return nil, fmt.Errorf("%s: %w", path, ErrUnknownExtension)
}

// WriteFile saves a module, with the format chosen by the extension like
// ReadFile.
func WriteFile(path string, m *trackerboy.Module) error {
	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tbm":
		if err := format.Write(&buf, m); err != nil {
			return err
		}
	case ".yml", ".yaml":
		if err := WriteModule(&buf, m); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%s: %w", path, ErrUnknownExtension)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// ReadModule decodes a YAML module document.
func ReadModule(r io.Reader) (*trackerboy.Module, error) {
	var doc moduleDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode module: %w", err)
	}
	m, err := doc.module()
	if err != nil {
		return nil, fmt.Errorf("decode module: %w", err)
	}
	return m, nil
}

// WriteModule encodes m as a YAML module document.
func WriteModule(w io.Writer, m *trackerboy.Module) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newModuleDoc(m)); err != nil {
		return fmt.Errorf("encode module: %w", err)
	}
	return enc.Close()
}

func newModuleDoc(m *trackerboy.Module) moduleDoc {
	doc := moduleDoc{
		Title:     m.Title,
		Artist:    m.Artist,
		Copyright: m.Copyright,
		Comments:  m.Comments,
		System:    strings.ToLower(m.System.String()),
	}
	if m.System == trackerboy.Custom {
		doc.Framerate = int(m.CustomFramerate)
	}
	for id, inst := range m.Instruments.All {
		d := instrumentDoc{ID: id, Name: inst.Name, Channel: int(inst.Channel()) + 1}
		if env, ok := inst.Envelope(); ok {
			d.Envelope = &env
		}
		for kind := range trackerboy.SequenceCount {
			seq := inst.Sequence(kind)
			if seq.Len() == 0 {
				continue
			}
			s := sequenceDoc{Data: seq.Data()}
			if loop, ok := seq.Loop(); ok {
				s.Loop = &loop
			}
			if d.Sequences == nil {
				d.Sequences = map[string]sequenceDoc{}
			}
			d.Sequences[kind.String()] = s
		}
		doc.Instruments = append(doc.Instruments, d)
	}
	for id, w := range m.Waveforms.All {
		doc.Waveforms = append(doc.Waveforms, waveformDoc{ID: id, Name: w.Name, Data: w.String()})
	}
	for _, song := range m.Songs {
		doc.Songs = append(doc.Songs, newSongDoc(song))
	}
	return doc
}

func newSongDoc(s *trackerboy.Song) songDoc {
	doc := songDoc{
		Name:           s.Name,
		RowsPerBeat:    s.RowsPerBeat,
		RowsPerMeasure: s.RowsPerMeasure,
		Speed:          uint8(s.Speed),
		Rows:           s.Patterns.Rows(),
	}
	for _, row := range s.Order.Rows() {
		doc.Order = append(doc.Order, row)
	}
	for ch := range trackerboy.NumChannels {
		for _, id := range s.Patterns.TrackIDs(trackerboy.ChType(ch)) {
			track, _ := s.Patterns.LookupTrack(trackerboy.ChType(ch), id)
			t := trackDoc{Channel: ch + 1, ID: id}
			for i, row := range track.Rows() {
				if row.IsEmpty() {
					continue
				}
				t.Rows = append(t.Rows, newRowDoc(i, row))
			}
			doc.Tracks = append(doc.Tracks, t)
		}
	}
	return doc
}

func newRowDoc(index int, row trackerboy.TrackRow) rowDoc {
	d := rowDoc{Row: index}
	if note, ok := row.QueryNote(); ok {
		d.Note = trackerboy.NoteName(note)
	}
	if id, ok := row.QueryInstrument(); ok {
		d.Instrument = &id
	}
	last := -1
	for i, e := range row.Effects {
		if e.Type != trackerboy.NoEffect {
			last = i
		}
	}
	for _, e := range row.Effects[:last+1] {
		d.Effects = append(d.Effects, e.String())
	}
	return d
}

func (doc *moduleDoc) module() (*trackerboy.Module, error) {
	m := trackerboy.NewModule()
	m.Title, m.Artist, m.Copyright, m.Comments = doc.Title, doc.Artist, doc.Copyright, doc.Comments
	switch strings.ToLower(doc.System) {
	case "", "dmg":
		m.System = trackerboy.DMG
	case "sgb":
		m.System = trackerboy.SGB
	case "custom":
		m.System = trackerboy.Custom
		if doc.Framerate > 0 {
			m.CustomFramerate = uint16(doc.Framerate)
		}
	default:
		return nil, fmt.Errorf("unknown system %q", doc.System)
	}
	for _, d := range doc.Instruments {
		if d.Channel < 1 || d.Channel > trackerboy.NumChannels {
			return nil, fmt.Errorf("instrument %d: %w %d", d.ID, trackerboy.ErrInvalidChannel, d.Channel)
		}
		inst := trackerboy.NewInstrument(trackerboy.ChType(d.Channel - 1))
		inst.Name = d.Name
		if d.Envelope != nil {
			inst.SetEnvelope(*d.Envelope, true)
		}
		for name, s := range d.Sequences {
			kind, ok := sequenceKind(name)
			if !ok {
				return nil, fmt.Errorf("instrument %d: unknown sequence %q", d.ID, name)
			}
			seq := inst.Sequence(kind)
			if err := seq.SetData(s.Data); err != nil {
				return nil, fmt.Errorf("instrument %d: %s: %w", d.ID, name, err)
			}
			if s.Loop != nil {
				if err := seq.SetLoop(*s.Loop); err != nil {
					return nil, fmt.Errorf("instrument %d: %s: %w", d.ID, name, err)
				}
			}
		}
		if err := m.Instruments.InsertAt(d.ID, inst); err != nil {
			return nil, fmt.Errorf("instrument %d: %w", d.ID, err)
		}
	}
	for _, d := range doc.Waveforms {
		w := &trackerboy.Waveform{Name: d.Name}
		if err := w.SetString(d.Data); err != nil {
			return nil, fmt.Errorf("waveform %d: %w", d.ID, err)
		}
		if err := m.Waveforms.InsertAt(d.ID, w); err != nil {
			return nil, fmt.Errorf("waveform %d: %w", d.ID, err)
		}
	}
	if len(doc.Songs) > 0 {
		m.Songs = m.Songs[:0]
	}
	for i, d := range doc.Songs {
		song, err := d.song()
		if err != nil {
			return nil, fmt.Errorf("song %d: %w", i, err)
		}
		if _, err := m.AddSong(song); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (doc *songDoc) song() (*trackerboy.Song, error) {
	s := trackerboy.NewSong()
	s.Name = doc.Name
	if doc.RowsPerBeat > 0 {
		s.RowsPerBeat = doc.RowsPerBeat
	}
	if doc.RowsPerMeasure > 0 {
		s.RowsPerMeasure = doc.RowsPerMeasure
	}
	if speed := trackerboy.Speed(doc.Speed); speed.Valid() {
		s.Speed = speed
	}
	if doc.Rows > 0 {
		if err := s.Patterns.SetRows(doc.Rows); err != nil {
			return nil, err
		}
	}
	if len(doc.Order) > 0 {
		rows := make([]trackerboy.OrderRow, len(doc.Order))
		for i, r := range doc.Order {
			rows[i] = r
		}
		if err := s.Order.SetRows(rows); err != nil {
			return nil, err
		}
	}
	for _, t := range doc.Tracks {
		if t.Channel < 1 || t.Channel > trackerboy.NumChannels {
			return nil, fmt.Errorf("track %d: %w %d", t.ID, trackerboy.ErrInvalidChannel, t.Channel)
		}
		track := s.Patterns.Track(trackerboy.ChType(t.Channel-1), t.ID)
		for _, r := range t.Rows {
			if r.Row < 0 || r.Row >= track.Len() {
				return nil, fmt.Errorf("track %d: row %d out of range", t.ID, r.Row)
			}
			row, err := r.trackRow()
			if err != nil {
				return nil, fmt.Errorf("track %d row %d: %w", t.ID, r.Row, err)
			}
			track.SetRow(r.Row, row)
		}
	}
	return s, nil
}

func (r *rowDoc) trackRow() (trackerboy.TrackRow, error) {
	var row trackerboy.TrackRow
	if r.Note != "" {
		note, err := trackerboy.ParseNote(r.Note)
		if err != nil {
			return row, err
		}
		row.SetNote(note)
	}
	if r.Instrument != nil {
		row.SetInstrument(*r.Instrument)
	}
	if len(r.Effects) > trackerboy.EffectsPerRow {
		return row, fmt.Errorf("%d effects, at most %d allowed", len(r.Effects), trackerboy.EffectsPerRow)
	}
	for i, s := range r.Effects {
		e, err := trackerboy.ParseEffect(s)
		if err != nil {
			return row, err
		}
		row.Effects[i] = e
	}
	return row, nil
}

func sequenceKind(name string) (trackerboy.SequenceKind, bool) {
	for kind := range trackerboy.SequenceCount {
		if kind.String() == name {
			return kind, true
		}
	}
	return 0, false
}
