package speech

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrBusy is returned when listening starts while already listening.
	ErrBusy = errors.New("speech recognition already active")

	// ErrUnavailable is returned when the required engine or device is missing.
	ErrUnavailable = errors.New("speech features unavailable")
)

// RecognitionSampleRate is the capture rate used for transcription.
const RecognitionSampleRate = 16000

// Voice is one synthesis voice.
type Voice struct {
	Name    string // engine voice id; empty selects the engine default
	Locale  string // BCP 47 tag such as "hi-IN"
	Default bool
}

// Audio is signed 16-bit little-endian PCM.
type Audio struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// Duration returns the playback length.
func (a *Audio) Duration() time.Duration {
	if a == nil || a.SampleRate <= 0 || a.Channels <= 0 {
		return 0
	}
	frames := len(a.PCM) / (2 * a.Channels)
	return time.Duration(frames) * time.Second / time.Duration(a.SampleRate)
}

// Synthesizer turns text into audio.
type Synthesizer interface {
	Name() string
	Voices() []Voice
	Synthesize(ctx context.Context, text string, voice Voice) (*Audio, error)
}

// Transcriber turns a WAV recording into text. It returns a single best
// transcript and no interim results.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte, locale string) (string, error)
}

// AudioDevice plays and records PCM. Callbacks passed to Play are always
// invoked from another goroutine, never from inside a device method.
type AudioDevice interface {
	// Play replaces anything currently playing. onDone fires once when the
	// audio has been played out; never after Stop.
	Play(audio *Audio, onDone func()) error
	Pause() error
	Resume() error
	Stop() error

	// Record captures mono PCM for at most max.
	Record(ctx context.Context, sampleRate int, max time.Duration) ([]byte, error)

	Close() error
}
