package speech

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultListenDuration bounds a single recognition recording.
const DefaultListenDuration = 6 * time.Second

type narratorState int

const (
	narratorIdle narratorState = iota
	narratorSpeaking
	narratorPaused
)

func (s narratorState) String() string {
	switch s {
	case narratorSpeaking:
		return "speaking"
	case narratorPaused:
		return "paused"
	default:
		return "idle"
	}
}

// BridgeConfig wires engines into a Bridge. Any field may be nil; the
// matching feature is then unavailable.
type BridgeConfig struct {
	Synthesizer Synthesizer
	Transcriber Transcriber
	Device      AudioDevice
	ListenFor   time.Duration
	Logger      logrus.FieldLogger
}

// Bridge is the control surface for listening and narration.
type Bridge struct {
	synth       Synthesizer
	transcriber Transcriber
	device      AudioDevice
	listenFor   time.Duration
	log         logrus.FieldLogger

	mu sync.Mutex

	// narrator
	narrator    narratorState
	playing     bool // audio handed to the device
	utterance   uint64
	cancelSynth context.CancelFunc
	onEnd       func()

	// listener
	listening    bool
	session      uint64
	cancelListen context.CancelFunc
	onTranscript func(string)
	onDone       func()
	locale       string
}

// NewBridge creates a bridge
func NewBridge(config BridgeConfig) *Bridge {
	listenFor := config.ListenFor
	if listenFor <= 0 {
		listenFor = DefaultListenDuration
	}
	log := config.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Bridge{
		synth:       config.Synthesizer,
		transcriber: config.Transcriber,
		device:      config.Device,
		listenFor:   listenFor,
		log:         log,
	}
}

// CanSpeak reports whether narration is possible.
func (b *Bridge) CanSpeak() bool {
	return b.synth != nil && b.device != nil
}

// CanListen reports whether recognition is possible.
func (b *Bridge) CanListen() bool {
	return b.transcriber != nil && b.device != nil
}

// Available reports whether any speech feature works.
func (b *Bridge) Available() bool {
	return b.CanSpeak() || b.CanListen()
}

// Listening reports whether a recognition session is active.
func (b *Bridge) Listening() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listening
}

// Speaking reports whether an utterance is active, paused or not.
func (b *Bridge) Speaking() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.narrator != narratorIdle
}

// Paused reports whether the current utterance is paused.
func (b *Bridge) Paused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.narrator == narratorPaused
}

// Locale returns the locale recognition is bound to.
func (b *Bridge) Locale() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locale
}

// StartListening records once and delivers at most one transcript to
// onTranscript. onDone fires exactly once when the session ends, whether by
// result, error, cancellation or Relocale.
func (b *Bridge) StartListening(ctx context.Context, locale string, onTranscript func(string), onDone func()) error {
	if !b.CanListen() {
		return ErrUnavailable
	}

	b.mu.Lock()
	if b.listening {
		b.mu.Unlock()
		return ErrBusy
	}
	b.session++
	id := b.session
	listenCtx, cancel := context.WithCancel(ctx)
	b.listening = true
	b.cancelListen = cancel
	b.onTranscript = onTranscript
	b.onDone = onDone
	b.locale = locale
	b.mu.Unlock()

	b.log.WithField("locale", locale).Debug("listening")
	go b.listen(listenCtx, id, locale)
	return nil
}

func (b *Bridge) listen(ctx context.Context, id uint64, locale string) {
	defer b.handleRecognitionEnd(id)

	pcm, err := b.device.Record(ctx, RecognitionSampleRate, b.listenFor)
	if err != nil {
		b.handleRecognitionError(id, err)
		return
	}

	text, err := b.transcriber.Transcribe(ctx, EncodeWAV(pcm, RecognitionSampleRate, 1), locale)
	if err != nil {
		b.handleRecognitionError(id, err)
		return
	}
	b.handleResult(id, text)
}

// handleResult delivers a final transcript of session id.
func (b *Bridge) handleResult(id uint64, transcript string) {
	b.mu.Lock()
	if b.session != id || !b.listening {
		b.mu.Unlock()
		return
	}
	deliver := b.onTranscript
	b.mu.Unlock()

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		b.log.Debug("no speech recognized")
		return
	}
	if deliver != nil {
		deliver(transcript)
	}
}

// handleRecognitionError logs a failed session. The session still ends
// through handleRecognitionEnd.
func (b *Bridge) handleRecognitionError(id uint64, err error) {
	if errors.Is(err, context.Canceled) {
		b.log.WithField("session", id).Debug("recognition cancelled")
		return
	}
	b.log.WithError(err).WithField("session", id).Warn("speech recognition failed")
}

// handleRecognitionEnd returns the listener to idle and fires onDone.
func (b *Bridge) handleRecognitionEnd(id uint64) {
	b.mu.Lock()
	if b.session != id || !b.listening {
		b.mu.Unlock()
		return
	}
	done := b.endListeningLocked()
	b.mu.Unlock()

	if done != nil {
		done()
	}
}

func (b *Bridge) endListeningLocked() func() {
	done := b.onDone
	if b.cancelListen != nil {
		b.cancelListen()
	}
	b.listening = false
	b.cancelListen = nil
	b.onTranscript = nil
	b.onDone = nil
	return done
}

// StopListening aborts an active recognition session.
func (b *Bridge) StopListening() {
	b.mu.Lock()
	if !b.listening {
		b.mu.Unlock()
		return
	}
	b.session++ // late results of the old session are dropped
	done := b.endListeningLocked()
	b.mu.Unlock()

	if done != nil {
		done()
	}
}

// Relocale rebinds recognition to locale, ending an active session that was
// started for another locale.
func (b *Bridge) Relocale(locale string) {
	b.mu.Lock()
	active := b.listening && b.locale != locale
	b.locale = locale
	b.mu.Unlock()

	if active {
		b.StopListening()
	}
}

// Speak cancels any current utterance and narrates text with the voice
// matching locale. Synthesis and playback run in the background; onEnd
// fires when narration finishes by itself, never after Stop.
func (b *Bridge) Speak(ctx context.Context, text, locale string, onEnd func()) error {
	if !b.CanSpeak() {
		return ErrUnavailable
	}

	b.Stop()

	voice := SelectVoice(b.synth.Voices(), locale)
	synthCtx, cancel := context.WithCancel(ctx)

	b.mu.Lock()
	b.utterance++
	id := b.utterance
	b.narrator = narratorSpeaking
	b.playing = false
	b.cancelSynth = cancel
	b.onEnd = onEnd
	b.mu.Unlock()

	b.log.WithFields(logrus.Fields{
		"engine": b.synth.Name(),
		"voice":  voice.Name,
		"locale": locale,
	}).Debug("narration requested")

	go b.narrate(synthCtx, id, text, voice)
	return nil
}

func (b *Bridge) narrate(ctx context.Context, id uint64, text string, voice Voice) {
	audio, err := b.synth.Synthesize(ctx, text, voice)
	if err != nil {
		if ctx.Err() == nil {
			b.log.WithError(err).Warn("speech synthesis failed")
		}
		b.handleUtteranceEnd(id)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.utterance != id || b.narrator == narratorIdle {
		return
	}
	if err := b.device.Play(audio, func() { b.handleUtteranceEnd(id) }); err != nil {
		b.log.WithError(err).Warn("audio playback failed")
		b.resetNarratorLocked()
		go b.fireEnd(b.takeOnEnd())
		return
	}
	b.playing = true
	b.log.WithField("duration", audio.Duration().Round(time.Second)).Debug("narration started")
}

// handleUtteranceEnd marks utterance id finished and fires onEnd.
func (b *Bridge) handleUtteranceEnd(id uint64) {
	b.mu.Lock()
	if b.utterance != id || b.narrator == narratorIdle {
		b.mu.Unlock()
		return
	}
	onEnd := b.takeOnEnd()
	b.resetNarratorLocked()
	b.mu.Unlock()

	b.fireEnd(onEnd)
}

func (b *Bridge) takeOnEnd() func() {
	onEnd := b.onEnd
	b.onEnd = nil
	return onEnd
}

func (b *Bridge) fireEnd(onEnd func()) {
	if onEnd != nil {
		onEnd()
	}
}

func (b *Bridge) resetNarratorLocked() {
	if b.cancelSynth != nil {
		b.cancelSynth()
		b.cancelSynth = nil
	}
	b.narrator = narratorIdle
	b.playing = false
}

// Pause suspends playback. It only applies while audio is playing and
// reports whether it did.
func (b *Bridge) Pause() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.narrator != narratorSpeaking || !b.playing {
		return false
	}
	if err := b.device.Pause(); err != nil {
		b.log.WithError(err).Warn("failed to pause narration")
		return false
	}
	b.narrator = narratorPaused
	return true
}

// Resume continues paused playback and reports whether it did.
func (b *Bridge) Resume() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.narrator != narratorPaused {
		return false
	}
	if err := b.device.Resume(); err != nil {
		b.log.WithError(err).Warn("failed to resume narration")
		return false
	}
	b.narrator = narratorSpeaking
	return true
}

// Stop cancels the current utterance, speaking or paused. Idempotent.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.narrator == narratorIdle {
		return
	}
	wasPlaying := b.playing
	b.utterance++
	b.onEnd = nil
	b.resetNarratorLocked()
	if wasPlaying {
		if err := b.device.Stop(); err != nil {
			b.log.WithError(err).Warn("failed to stop narration")
		}
	}
}

// Close stops everything and releases the audio device.
func (b *Bridge) Close() error {
	b.Stop()
	b.StopListening()
	if b.device != nil {
		return b.device.Close()
	}
	return nil
}
