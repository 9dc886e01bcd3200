package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"codeberg.org/snonux/storybuddy/internal/keywords"
	"codeberg.org/snonux/storybuddy/internal/observe"
	"codeberg.org/snonux/storybuddy/internal/speech"
	"codeberg.org/snonux/storybuddy/internal/story"
)

// StoryFileName is the name of the exported story file.
const StoryFileName = "story.txt"

var (
	// ErrBlankTopic is returned when generation is requested without a topic.
	ErrBlankTopic = errors.New("topic is blank")

	// ErrBusy is returned while a generation cycle or recognition session is
	// already running.
	ErrBusy = errors.New("session is busy")

	// ErrInputsLocked is returned for edits the current state does not allow.
	ErrInputsLocked = errors.New("inputs are locked")

	// ErrNoStory is returned when exporting before a story exists.
	ErrNoStory = errors.New("no story to export")
)

// Illustrator finds one image URL per keyword and never fails.
type Illustrator interface {
	Lookup(ctx context.Context, keyword string) string
}

// Narrator is the speech surface the session drives. *speech.Bridge
// implements it.
type Narrator interface {
	Available() bool
	StartListening(ctx context.Context, locale string, onTranscript func(string), onDone func()) error
	StopListening()
	Relocale(locale string)
	Speak(ctx context.Context, text, locale string, onEnd func()) error
	Pause() bool
	Resume() bool
	Stop()
}

// Notifier shows a user-visible message, e.g. a dialog.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Notify calls f(message).
func (f NotifierFunc) Notify(message string) { f(message) }

// Options configures a Session.
type Options struct {
	Stories  story.Generator
	Images   Illustrator
	Speech   Narrator // nil disables listening and narration
	Notifier Notifier
	Logger   logrus.FieldLogger

	Language Language // default English
	Model    string   // default story.DefaultModel
}

// Session is the single owner of the session state.
type Session struct {
	stories  story.Generator
	images   Illustrator
	speech   Narrator
	notifier Notifier
	log      logrus.FieldLogger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc // of the running cycle

	subMu       sync.Mutex
	subscribers map[int]func(State)
	nextSub     int
}

// New creates a session with default state.
func New(opts Options) (*Session, error) {
	if opts.Stories == nil {
		return nil, fmt.Errorf("story generator is required")
	}
	if opts.Images == nil {
		return nil, fmt.Errorf("illustrator is required")
	}

	language := opts.Language
	if language == "" {
		language = English
	}
	if !language.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, language)
	}
	model := opts.Model
	if model == "" {
		model = story.DefaultModel
	}
	if err := story.ValidateModel(model); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(msg string) { log.Warn(msg) })
	}

	s := &Session{
		stories:     opts.Stories,
		images:      opts.Images,
		speech:      opts.Speech,
		notifier:    notifier,
		log:         log,
		subscribers: make(map[int]func(State)),
	}
	s.state = State{Language: language, Model: model, Images: []string{}, Keywords: []string{}}
	return s, nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that made the change and must not block.
func (s *Session) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

// update applies fn under the lock and publishes the result. fn returns
// false to discard the change without publishing.
func (s *Session) update(fn func(st *State) bool) bool {
	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return false
	}
	snap := s.state.clone()
	s.mu.Unlock()

	s.publish(snap)
	return true
}

func (s *Session) publish(snap State) {
	s.subMu.Lock()
	subs := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// SpeechAvailable reports whether listening or narration can work.
func (s *Session) SpeechAvailable() bool {
	return s.speech != nil && s.speech.Available()
}

// SetPrompt replaces the topic text.
func (s *Session) SetPrompt(prompt string) error {
	var err error
	s.update(func(st *State) bool {
		if st.InputsDisabled {
			err = ErrInputsLocked
			return false
		}
		st.Prompt = prompt
		return true
	})
	return err
}

// Generate runs one generation cycle for topic and blocks until the story
// and illustrations are in place. Narration continues in the background.
// A failed story request is reported to the Notifier once and returned.
func (s *Session) Generate(ctx context.Context, topic string) error {
	if strings.TrimSpace(topic) == "" {
		return ErrBlankTopic
	}

	cycleCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var cycle string
	var req story.Request
	var err error
	s.update(func(st *State) bool {
		if st.Loading {
			err = ErrBusy
			return false
		}
		cycle = uuid.NewString()
		req = story.Request{Topic: topic, LanguageLabel: st.Language.Label(), Model: st.Model}

		st.Prompt = topic
		st.InputsDisabled = true
		st.Loading = true
		st.Story = ""
		st.Images = []string{}
		st.Keywords = []string{}
		st.IsStoryGenerated = false
		st.IsPaused = false
		st.Speaking = false
		st.LastError = ""
		st.CycleID = cycle
		s.cancel = cancel
		return true
	})
	if err != nil {
		return err
	}
	if s.speech != nil {
		s.speech.Stop()
		s.speech.StopListening()
	}

	log := s.log.WithFields(logrus.Fields{"cycle": cycle, "model": req.Model})
	cycleCtx, span := observe.Start(cycleCtx, "session.Generate",
		attribute.String("storybuddy.cycle", cycle),
		attribute.String("storybuddy.model", req.Model),
		attribute.String("storybuddy.language", req.LanguageLabel),
		attribute.Int("storybuddy.topic.length", len(topic)),
	)
	defer span.End()

	defer s.exitCycle(cycle)

	log.Info("generating story")
	text, err := s.stories.Generate(cycleCtx, req)
	if err != nil {
		if !s.current(cycle) {
			log.WithError(err).Debug("discarding result of cleared cycle")
			return nil
		}
		observe.Fail(span, err)
		msg := story.Message(err)
		log.WithError(err).Warn("story generation failed")
		s.update(func(st *State) bool {
			if st.CycleID != cycle {
				return false
			}
			st.LastError = msg
			return true
		})
		s.notifier.Notify(msg)
		return err
	}

	words := keywords.Limit(keywords.Extract(topic), keywords.MaxKeywords)
	span.SetAttributes(attribute.Int("storybuddy.keywords", len(words)))
	if !s.update(func(st *State) bool {
		if st.CycleID != cycle {
			return false
		}
		st.Story = text
		st.IsStoryGenerated = true
		st.Keywords = append([]string{}, words...)
		return true
	}) {
		log.Debug("discarding story of cleared cycle")
		return nil
	}
	log.WithField("keywords", len(words)).Info("story ready")

	for _, word := range words {
		if cycleCtx.Err() != nil {
			return nil
		}
		url := s.images.Lookup(cycleCtx, word)
		if !s.update(func(st *State) bool {
			if st.CycleID != cycle {
				return false
			}
			st.Images = append(st.Images, url)
			return true
		}) {
			return nil
		}
	}

	s.narrate(context.WithoutCancel(cycleCtx), cycle, text)
	return nil
}

// current reports whether cycle is still the session's cycle.
func (s *Session) current(cycle string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CycleID == cycle
}

func (s *Session) exitCycle(cycle string) {
	s.update(func(st *State) bool {
		if st.CycleID != cycle {
			return false
		}
		st.Loading = false
		st.InputsDisabled = false
		s.cancel = nil
		return true
	})
}

// narrate starts narration of text for cycle. The narration context is
// detached from the cycle, which ends before narration does.
func (s *Session) narrate(ctx context.Context, cycle, text string) {
	if s.speech == nil {
		return
	}

	var locale string
	if !s.update(func(st *State) bool {
		if st.CycleID != cycle {
			return false
		}
		locale = st.Language.Locale()
		st.Speaking = true
		st.IsPaused = false
		return true
	}) {
		return
	}

	err := s.speech.Speak(ctx, text, locale, func() { s.narrationEnded(cycle) })
	if err != nil {
		if !errors.Is(err, speech.ErrUnavailable) {
			s.log.WithError(err).Warn("narration failed")
		}
		s.narrationEnded(cycle)
		return
	}

	// ClearAll or StopNarration may have run between the Speaking update
	// and Speak; their Stop found nothing playing.
	s.mu.Lock()
	stale := s.state.CycleID != cycle || !s.state.Speaking
	s.mu.Unlock()
	if stale {
		s.speech.Stop()
	}
}

func (s *Session) narrationEnded(cycle string) {
	s.update(func(st *State) bool {
		if st.CycleID != cycle || !st.Speaking {
			return false
		}
		st.Speaking = false
		st.IsPaused = false
		return true
	})
}

// StartListening fills the prompt from one spoken utterance.
func (s *Session) StartListening(ctx context.Context) error {
	if !s.SpeechAvailable() {
		return speech.ErrUnavailable
	}

	var locale string
	var err error
	s.update(func(st *State) bool {
		switch {
		case st.Listening:
			err = ErrBusy
		case st.InputsDisabled:
			err = ErrInputsLocked
		default:
			st.Listening = true
			locale = st.Language.Locale()
		}
		return err == nil
	})
	if err != nil {
		return err
	}

	onTranscript := func(text string) {
		s.update(func(st *State) bool {
			if st.InputsDisabled {
				return false
			}
			st.Prompt = text
			return true
		})
	}
	onDone := func() {
		s.update(func(st *State) bool {
			if !st.Listening {
				return false
			}
			st.Listening = false
			return true
		})
	}

	if err := s.speech.StartListening(ctx, locale, onTranscript, onDone); err != nil {
		onDone()
		return err
	}
	return nil
}

// TogglePauseResume pauses speaking narration or resumes paused narration.
// It reports whether anything changed; without narration it does nothing.
func (s *Session) TogglePauseResume() bool {
	if s.speech == nil {
		return false
	}

	s.mu.Lock()
	speaking, paused, cycle := s.state.Speaking, s.state.IsPaused, s.state.CycleID
	s.mu.Unlock()
	if !speaking {
		return false
	}

	var applied bool
	if paused {
		applied = s.speech.Resume()
	} else {
		applied = s.speech.Pause()
	}
	if !applied {
		return false
	}

	return s.update(func(st *State) bool {
		if st.CycleID != cycle || !st.Speaking {
			return false
		}
		st.IsPaused = !paused
		return true
	})
}

// StopNarration cancels narration, paused or not.
func (s *Session) StopNarration() {
	if s.speech != nil {
		s.speech.Stop()
	}
	s.update(func(st *State) bool {
		if !st.Speaking && !st.IsPaused {
			return false
		}
		st.Speaking = false
		st.IsPaused = false
		return true
	})
}

// ClearAll stops narration and listening, abandons a running cycle and
// resets everything except language and model.
func (s *Session) ClearAll() {
	s.update(func(st *State) bool {
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		*st = State{
			Language:  st.Language,
			Model:     st.Model,
			Listening: st.Listening,
			Images:    []string{},
			Keywords:  []string{},
		}
		return true
	})

	if s.speech != nil {
		s.speech.Stop()
		s.speech.StopListening()
	}
	s.log.Debug("session cleared")
}

// ChangeLanguage selects the story, narration and recognition language.
func (s *Session) ChangeLanguage(language Language) error {
	if !language.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownLanguage, language)
	}

	var err error
	s.update(func(st *State) bool {
		if st.SettingsLocked() {
			err = ErrInputsLocked
			return false
		}
		st.Language = language
		return true
	})
	if err != nil {
		return err
	}

	if s.speech != nil {
		s.speech.Relocale(language.Locale())
	}
	return nil
}

// ChangeModel selects the catalog model for the next story.
func (s *Session) ChangeModel(model string) error {
	if err := story.ValidateModel(model); err != nil {
		return err
	}

	var err error
	s.update(func(st *State) bool {
		if st.SettingsLocked() {
			err = ErrInputsLocked
			return false
		}
		st.Model = model
		return true
	})
	return err
}

// DownloadStory writes the story verbatim to w.
func (s *Session) DownloadStory(w io.Writer) error {
	text := s.Snapshot().Story
	if text == "" {
		return ErrNoStory
	}
	_, err := io.WriteString(w, text)
	return err
}

// SaveStory writes the story to story.txt in dir and returns its path.
func (s *Session) SaveStory(dir string) (string, error) {
	text := s.Snapshot().Story
	if text == "" {
		return "", ErrNoStory
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, StoryFileName)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to write story: %w", err)
	}
	return path, nil
}
