package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/stoneface86/trackerboy-sub003"
	"github.com/stoneface86/trackerboy-sub003/oto"
	"github.com/stoneface86/trackerboy-sub003/tracker"
	"github.com/stoneface86/trackerboy-sub003/version"
)

func main() {
	stdout := flag.Bool("s", false, "Do not write files; write to standard output instead.")
	help := flag.Bool("h", false, "Show help.")
	directory := flag.String("o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, everything is placed in the current working directory.")
	play := flag.Bool("p", false, "Play the input modules (default behaviour when no other output is defined).")
	info := flag.Bool("i", false, "Print information about the input modules.")
	songIndex := flag.Int("song", 0, "Index of the song to play or render.")
	rawOut := flag.Bool("r", false, "Output the rendered song as .raw file. By default, saves stereo float32 buffer to disk.")
	wavOut := flag.Bool("w", false, "Output the rendered song as .wav file. By default, saves stereo float32 buffer to disk.")
	midiOut := flag.Bool("m", false, "Output the notes of the song as a .mid file.")
	pcm := flag.Bool("c", false, "Convert audio to 16-bit signed PCM when outputting.")
	versionFlag := flag.Bool("v", false, "Print version.")
	prefs := tracker.MakePreferences()
	if prefs.YmlError != nil {
		log.Printf("preferences.yml: %v, using defaults", prefs.YmlError)
	}
	loops := flag.Int("l", prefs.Playback.Loops, "Number of times to play the song.")
	duration := flag.Float64("d", prefs.Playback.Duration, "Play or render this many seconds instead of a number of loops.")
	sampleRate := flag.Int("rate", prefs.Audio.SampleRate, "Sample rate of the rendered audio.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	if !*rawOut && !*wavOut && !*midiOut && !*info {
		*play = true // if the user gives nothing to output, then the default behaviour is just to play the file
	}
	prefs.Audio.SampleRate = *sampleRate
	prefs.Playback.Loops = *loops
	prefs.Playback.Duration = *duration
	if prefs.Playback.Loops <= 0 && prefs.Playback.Duration <= 0 {
		prefs.Playback.Loops = 1
	}
	if *pcm {
		prefs.Audio.Format = "int16"
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	var audioContext trackerboy.AudioContext
	if *play {
		latency := time.Duration(prefs.Audio.Latency) * time.Millisecond
		var err error
		audioContext, err = oto.NewContext(prefs.Audio.SampleRate, prefs.SampleFormat(), latency/2)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not acquire oto AudioContext: %v\n", err)
			os.Exit(1)
		}
		defer audioContext.Close()
	}
	process := func(filename string) error {
		output := func(extension string, contents []byte) error {
			if *stdout {
				_, err := os.Stdout.Write(contents)
				return err
			}
			_, name := filepath.Split(filename)
			dir := *directory
			if dir == "" {
				var err error
				dir, err = os.Getwd()
				if err != nil {
					return fmt.Errorf("could not get working directory, specify the output directory explicitly: %v", err)
				}
			}
			name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
			f := filepath.Join(dir, name)
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return fmt.Errorf("could not create output directory %v: %v", dir, err)
			}
			if err := os.WriteFile(f, contents, 0644); err != nil {
				return fmt.Errorf("could not write file %v: %v", f, err)
			}
			return nil
		}
		doc := tracker.NewDocument(nil)
		if err := doc.Open(filename); err != nil {
			return err
		}
		if *info {
			printInfo(filename, doc.Module())
		}
		if *rawOut || *wavOut {
			opts := tracker.RenderOptions{
				Song:       *songIndex,
				SampleRate: prefs.Audio.SampleRate,
				Highpass:   prefs.Audio.Highpass,
				Loops:      prefs.Playback.Loops,
				Duration:   prefs.Playback.Duration,
			}
			buffer, err := tracker.Render(ctx, doc, opts, progressLine(filename))
			if err != nil {
				return fmt.Errorf("tracker.Render failed: %v", err)
			}
			if *rawOut {
				raw, err := buffer.Raw(*pcm)
				if err != nil {
					return fmt.Errorf("could not generate .raw file: %v", err)
				}
				if err := output(".raw", raw); err != nil {
					return fmt.Errorf("error outputting .raw file: %v", err)
				}
			}
			if *wavOut {
				wav, err := buffer.Wav(prefs.Audio.SampleRate, *pcm)
				if err != nil {
					return fmt.Errorf("could not generate .wav file: %v", err)
				}
				if err := output(".wav", wav); err != nil {
					return fmt.Errorf("error outputting .wav file: %v", err)
				}
			}
		}
		if *midiOut {
			var buf bytes.Buffer
			if err := tracker.WriteMIDI(&buf, doc.Module(), *songIndex, max(prefs.Playback.Loops, 1)); err != nil {
				return err
			}
			if err := output(".mid", buf.Bytes()); err != nil {
				return fmt.Errorf("error outputting .mid file: %v", err)
			}
		}
		if *play {
			return playLive(ctx, audioContext, doc, prefs, *songIndex)
		}
		return nil
	}
	retval := 0
	for _, param := range flag.Args() {
		if ctx.Err() != nil {
			break
		}
		files := []string{param}
		if info, err := os.Stat(param); err == nil && info.IsDir() {
			var globbed []string
			for _, pattern := range []string{"*.tbm", "*.yml"} {
				matches, err := filepath.Glob(filepath.Join(param, pattern))
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not glob the path %v for %v files: %v\n", param, pattern, err)
					retval = 1
				}
				globbed = append(globbed, matches...)
			}
			files = globbed
		}
		for _, file := range files {
			if err := process(file); err != nil && !errors.Is(err, context.Canceled) {
				fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", file, err)
				retval = 1
			}
		}
	}
	os.Exit(retval)
}

// playLive plays a song through the audio device until it stops or ctx is
// cancelled.
func playLive(ctx context.Context, audioContext trackerboy.AudioContext, doc *tracker.Document, prefs tracker.Preferences, song int) error {
	broker := tracker.NewBroker()
	ring := tracker.NewRingBuffer(prefs.RingBufferSize(), prefs.SampleFormat().BytesPerFrame())
	player := tracker.NewLivePlayer(doc, broker, ring, prefs)
	playerCtx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		<-broker.FinishedPlayer
	}()
	go player.Run(playerCtx)
	output, err := audioContext.Output(ring)
	if err != nil {
		return err
	}
	defer output.Close()
	broker.ToPlayer <- tracker.PlayMsg{Song: song, Loops: prefs.Playback.Loops, Duration: prefs.Playback.Duration}

	started := false
	show := term.IsTerminal(int(os.Stderr.Fd()))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-broker.ToModel:
			if alert, ok := msg.Data.(tracker.Alert); ok {
				log.Printf("%v: %v", alert.Name, alert.Message)
				if alert.Priority >= tracker.Error {
					return errors.New(alert.Message)
				}
			}
			if buf, ok := msg.Data.(*trackerboy.AudioBuffer); ok {
				broker.PutAudioBuffer(buf)
			}
			if !msg.HasStatus {
				continue
			}
			s := msg.Status
			if s.Playing {
				started = true
				if show {
					peak := s.Levels.PeakDecibels(-60)
					fmt.Fprintf(os.Stderr, "\r%02X:%02X speed %v  %6.1f dB %6.1f dB  underruns %d ", s.Order, s.Row, s.Speed, peak[0], peak[1], s.Underruns)
				}
				continue
			}
			if started {
				if show {
					fmt.Fprintln(os.Stderr)
				}
				drain(ctx, ring)
				return nil
			}
		}
	}
}

// drain waits until the device has played what is left in the ring buffer.
func drain(ctx context.Context, ring *tracker.RingBuffer) {
	for ring.Len() > 0 && ctx.Err() == nil {
		time.Sleep(10 * time.Millisecond)
	}
}

// progressLine returns a progress callback that redraws a percentage on
// stderr, or nil when stderr is not a terminal.
func progressLine(filename string) func(float32) {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return func(p float32) {
		fmt.Fprintf(os.Stderr, "\rrendering %v: %3.0f%%", filename, p*100)
		if p >= 1 {
			fmt.Fprintln(os.Stderr)
		}
	}
}

func printInfo(filename string, m *trackerboy.Module) {
	title := cases.Title(language.English)
	orUnknown := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}
	fmt.Printf("%v\n", filename)
	fmt.Printf("  title:      %v\n", orUnknown(m.Title))
	fmt.Printf("  artist:     %v\n", orUnknown(m.Artist))
	fmt.Printf("  copyright:  %v\n", orUnknown(m.Copyright))
	fmt.Printf("  system:     %v (%.2f Hz)\n", m.System, m.Framerate())
	for i, s := range m.Songs {
		fmt.Printf("  song %d: %v, %d rows x %d orders, speed %v, %.1f bpm\n", i, orUnknown(s.Name), s.Patterns.Rows(), s.Order.Len(), s.Speed, s.Tempo(m.Framerate()))
	}
	for id, inst := range m.Instruments.All {
		fmt.Printf("  instrument %02X: %v (%v)\n", id, orUnknown(inst.Name), title.String(inst.Channel().String()))
	}
	for id, w := range m.Waveforms.All {
		fmt.Printf("  waveform %02X: %v %v\n", id, orUnknown(w.Name), w)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Trackerboy command line utility for playing and rendering .tbm/.yml modules.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
