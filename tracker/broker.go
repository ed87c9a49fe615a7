package tracker

import (
	"sync"
	"time"

	"github.com/stoneface86/trackerboy-sub003"
)

type (
	// Broker is the message broker between the editor (the "model") and the
	// live player goroutine. Communication is many-to-one, with one channel
	// for each recipient. The player never blocks on the broker: everything
	// it sends goes through TrySend, and messages are dropped when the model
	// is not keeping up.
	//
	// For closing the player goroutine, cancel the context given to
	// LivePlayer.Run and wait for FinishedPlayer to be closed, which for
	// avoiding deadlocks can be combined with a timeout:
	//    select {
	//      case <-FinishedPlayer:
	//      case <-time.After(3 * time.Second):
	//    }
	Broker struct {
		ToModel  chan MsgToModel
		ToPlayer chan any // PlayMsg, StopMsg or VolumeMsg

		FinishedPlayer chan struct{}

		bufferPool sync.Pool
	}

	// MsgToModel is a message sent to the model. The status is sent every
	// frame and is not boxed to avoid allocations. Infrequent messages, like
	// alerts, are boxed in Data.
	MsgToModel struct {
		HasStatus bool
		Status    PlayerStatus

		Data any
	}

	// PlayerStatus tells where the live player is.
	PlayerStatus struct {
		Playing     bool
		Order       int
		Row         int
		Speed       trackerboy.Speed
		Progress    int
		ProgressMax int
		Levels      Levels
		Underruns   uint64
	}

	// PlayMsg starts playing a song of the document from the given position.
	// The player stops after Loops visits of any pattern, or after Duration
	// seconds if Duration is positive.
	PlayMsg struct {
		Song     int
		Order    int
		Row      int
		Loops    int
		Duration float64
	}

	// StopMsg stops the live player.
	StopMsg struct{}

	// VolumeMsg sets the master volume of the live player, 0..1.
	VolumeMsg struct {
		Volume float32
	}

	// Alert is a message for the user.
	Alert struct {
		Name     string
		Priority AlertPriority
		Message  string
		Duration time.Duration
	}

	AlertPriority int
)

const (
	None AlertPriority = iota
	Info
	Warning
	Error
)

const defaultAlertDuration = 3 * time.Second

func NewBroker() *Broker {
	return &Broker{
		ToModel:        make(chan MsgToModel, 1024),
		ToPlayer:       make(chan any, 1024),
		FinishedPlayer: make(chan struct{}),
		bufferPool:     sync.Pool{New: func() any { return &trackerboy.AudioBuffer{} }},
	}
}

// GetAudioBuffer returns an audio buffer from the buffer pool. The buffer is
// guaranteed to be empty. After using the buffer, it should be returned to the
// pool with PutAudioBuffer.
func (b *Broker) GetAudioBuffer() *trackerboy.AudioBuffer {
	return b.bufferPool.Get().(*trackerboy.AudioBuffer)
}

// PutAudioBuffer returns an audio buffer to the buffer pool. The length of the
// buffer is reset, but the capacity is kept.
func (b *Broker) PutAudioBuffer(buf *trackerboy.AudioBuffer) {
	if len(*buf) > 0 {
		*buf = (*buf)[:0]
	}
	b.bufferPool.Put(buf)
}

// TrySend is a helper function to send a value to a channel if it is not full.
// It is guaranteed to be non-blocking. Return true if the value was sent, false
// otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive is a helper function to block until a value is received from a
// channel, or timing out after t. ok will be false if the timeout occurred or
// if the channel is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
