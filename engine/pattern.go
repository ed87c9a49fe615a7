package engine

import "github.com/stoneface86/trackerboy-sub003"

// Status is the result of stepping a PatternRuntime.
type Status int

const (
	// StatusReady means the pattern is still playing.
	StatusReady Status = iota
	// StatusNext means the last row finished, play the next pattern.
	StatusNext
	// StatusJump means a Bxx or Dxx effect requested a jump, see Jump.
	StatusJump
	// StatusHalt means a C00 effect stopped playback.
	StatusHalt
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusNext:
		return "next"
	case StatusJump:
		return "jump"
	case StatusHalt:
		return "halt"
	}
	return "invalid"
}

type command uint8

const (
	cmdNone command = iota
	cmdHalt
	cmdGoto
	cmdSkip
)

// PatternRuntime steps the four tracks of a pattern in lockstep. A fixed
// point frame counter is compared against the speed each frame; whenever it
// reaches the speed a new row is loaded. Pattern effects found in a row (the
// last one found wins, scanning channels 1 to 4 and effect columns left to
// right) take effect when the row is over.
type PatternRuntime struct {
	tracks [trackerboy.NumChannels]TrackRuntime

	speed  trackerboy.Speed
	fc     int
	cursor int // next row to load
	row    int // row loaded last

	command command
	param   int
	newRow  bool
	volume  int // pending Jxy parameter, -1 for none
}

// NewPatternRuntime returns a runtime playing at the given speed.
func NewPatternRuntime(speed trackerboy.Speed) *PatternRuntime {
	p := &PatternRuntime{}
	for ch := range p.tracks {
		p.tracks[ch] = NewTrackRuntime(trackerboy.ChType(ch))
	}
	p.SetSpeed(speed)
	p.Reset(0)
	return p
}

// Reset prepares to play a new pattern from startRow. The first row loads on
// the next Step. Track states carry over.
func (p *PatternRuntime) Reset(startRow int) {
	p.cursor = max(startRow, 0)
	p.row = p.cursor
	p.fc = int(p.speed)
	p.command = cmdNone
	p.volume = -1
}

// ResetTracks stops all tracks.
func (p *PatternRuntime) ResetTracks() {
	for ch := range p.tracks {
		p.tracks[ch].Reset()
	}
}

// Track returns the runtime of a channel.
func (p *PatternRuntime) Track(ch trackerboy.ChType) *TrackRuntime { return &p.tracks[ch] }

func (p *PatternRuntime) Speed() trackerboy.Speed { return p.speed }

// SetSpeed changes the speed, values below SpeedMin are ignored.
func (p *PatternRuntime) SetSpeed(speed trackerboy.Speed) {
	if speed.Valid() {
		p.speed = speed
	}
}

// Row returns the row loaded last.
func (p *PatternRuntime) Row() int { return p.row }

// StartedNewRow reports whether the last Step loaded a row.
func (p *PatternRuntime) StartedNewRow() bool { return p.newRow }

// Jump returns the target of a StatusJump. order is -1 for the next pattern
// in the order.
func (p *PatternRuntime) Jump() (order, row int) {
	if p.command == cmdGoto {
		return p.param, 0
	}
	return -1, p.param
}

// globalVolume returns and clears a pending Jxy parameter.
func (p *PatternRuntime) globalVolume() (uint8, bool) {
	if p.volume < 0 {
		return 0, false
	}
	v := uint8(p.volume)
	p.volume = -1
	return v, true
}

// Step plays one frame of the pattern.
func (p *PatternRuntime) Step(pattern trackerboy.Pattern, rows int, synth Synth, instruments *trackerboy.Table[trackerboy.Instrument], waveforms *trackerboy.Table[trackerboy.Waveform]) Status {
	p.newRow = false
	if p.fc >= int(p.speed) {
		switch p.command {
		case cmdHalt:
			return StatusHalt
		case cmdGoto, cmdSkip:
			return StatusJump
		}
		if p.cursor >= rows {
			return StatusNext
		}
		p.fc -= int(p.speed)
		p.loadRow(pattern, instruments)
	}
	for ch := range p.tracks {
		p.tracks[ch].Step(synth, instruments, waveforms)
	}
	p.fc += int(trackerboy.SpeedUnit)
	return StatusReady
}

func (p *PatternRuntime) loadRow(pattern trackerboy.Pattern, instruments *trackerboy.Table[trackerboy.Instrument]) {
	p.row = p.cursor
	p.cursor++
	p.newRow = true
	for ch := range p.tracks {
		row := pattern.Row(trackerboy.ChType(ch), p.row)
		p.tracks[ch].SetRow(row, instruments)
		for _, e := range row.Effects {
			switch e.Type {
			case trackerboy.PatternHalt:
				p.command, p.param = cmdHalt, 0
			case trackerboy.PatternGoto:
				p.command, p.param = cmdGoto, int(e.Param)
			case trackerboy.PatternSkip:
				p.command, p.param = cmdSkip, int(e.Param)
			case trackerboy.SetSpeed:
				p.SetSpeed(trackerboy.Speed(e.Param))
			case trackerboy.SetGlobalVolume:
				p.volume = int(e.Param)
			}
		}
	}
}
