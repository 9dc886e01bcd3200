package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"codeberg.org/snonux/storybuddy/internal"
	"codeberg.org/snonux/storybuddy/internal/archive"
	"codeberg.org/snonux/storybuddy/internal/batch"
	"codeberg.org/snonux/storybuddy/internal/cli"
	"codeberg.org/snonux/storybuddy/internal/gui"
	"codeberg.org/snonux/storybuddy/internal/image"
	"codeberg.org/snonux/storybuddy/internal/logging"
	"codeberg.org/snonux/storybuddy/internal/models"
	"codeberg.org/snonux/storybuddy/internal/observe"
	"codeberg.org/snonux/storybuddy/internal/server"
	"codeberg.org/snonux/storybuddy/internal/session"
	"codeberg.org/snonux/storybuddy/internal/speech"
	"codeberg.org/snonux/storybuddy/internal/speech/miniaudio"
	"codeberg.org/snonux/storybuddy/internal/story"
)

// imageTimeout bounds one image search or download request.
const imageTimeout = 30 * time.Second

// Dependencies are the collaborators a session is built from.
type Dependencies struct {
	Stories    story.Generator
	Images     session.Illustrator
	Narrator   session.Narrator // nil disables narration and listening
	Downloader *image.Downloader
	Closer     io.Closer // released by Close, e.g. the audio device
}

// Processor handles the story generation modes of the command line
type Processor struct {
	flags  *cli.Flags
	log    *logrus.Logger
	out    io.Writer
	errOut io.Writer
	deps   Dependencies
}

// NewProcessor creates a processor wired to the configured providers
func NewProcessor(ctx context.Context, flags *cli.Flags) (*Processor, error) {
	log, err := logging.New(setting("log.level", flags.LogLevel), setting("log.format", flags.LogFormat))
	if err != nil {
		return nil, err
	}

	p := &Processor{flags: flags, log: log, out: os.Stdout, errOut: os.Stderr}
	if p.deps.Stories, err = p.buildStories(ctx); err != nil {
		return nil, err
	}
	if p.deps.Images, err = p.buildIllustrator(); err != nil {
		return nil, err
	}
	p.deps.Downloader = image.NewDownloader(observe.HTTPClient(imageTimeout), image.DefaultMaxSizeBytes)
	if !flags.NoNarration {
		p.buildSpeech()
	}
	return p, nil
}

// NewProcessorWith creates a processor around prepared dependencies.
func NewProcessorWith(flags *cli.Flags, deps Dependencies, log *logrus.Logger, out io.Writer) *Processor {
	if deps.Downloader == nil {
		deps.Downloader = image.NewDownloader(observe.HTTPClient(imageTimeout), image.DefaultMaxSizeBytes)
	}
	return &Processor{flags: flags, log: log, out: out, errOut: os.Stderr, deps: deps}
}

// setting prefers the viper value (config file, environment, bound flag)
// over the flag default.
func setting(key, fallback string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return fallback
}

func (p *Processor) buildStories(ctx context.Context) (story.Generator, error) {
	router := story.NewRouter(story.DefaultBreakerSettings(), p.log)
	httpClient := observe.HTTPClient(0)

	if key := cli.GetOpenRouterKey(); key != "" {
		client, err := story.NewOpenAIClient(&story.OpenAIConfig{
			Provider:   story.ProviderOpenRouter,
			APIKey:     key,
			BaseURL:    setting("story.base_url", story.OpenRouterBaseURL),
			HTTPClient: httpClient,
		}, p.log)
		if err != nil {
			return nil, err
		}
		router.Register(story.ProviderOpenRouter, client)
	}

	if key := cli.GetGeminiKey(); key != "" {
		client, err := story.NewGeminiClient(ctx, key, httpClient, p.log)
		if err != nil {
			return nil, err
		}
		router.Register(story.ProviderGemini, client)
	}

	if len(router.Providers()) == 0 {
		p.log.Warn("no story API key configured, set OPENROUTER_API_KEY or GEMINI_API_KEY")
	}
	return router, nil
}

func (p *Processor) buildIllustrator() (*image.Illustrator, error) {
	httpClient := observe.HTTPClient(imageTimeout)
	provider := strings.ToLower(setting("image.provider", p.flags.ImageAPI))

	var searcher image.Searcher
	switch provider {
	case "unsplash":
		if key := cli.GetUnsplashKey(); key != "" {
			client, err := image.NewUnsplashClient(key, httpClient)
			if err != nil {
				return nil, err
			}
			client.SetHourlyLimit(viper.GetInt("image.rate_limit"))
			searcher = client
		}
	case "pixabay":
		if key := cli.GetPixabayKey(); key != "" {
			client, err := image.NewPixabayClient(key, httpClient)
			if err != nil {
				return nil, err
			}
			searcher = client
		}
	default:
		return nil, fmt.Errorf("unknown image provider: %s", provider)
	}

	if searcher == nil {
		p.log.WithField("provider", provider).Warn("no image API key configured, illustrations use the placeholder")
	}
	return image.NewIllustrator(searcher, p.log), nil
}

// buildSpeech wires the audio device, the narration engine and, with an
// OpenAI key, Whisper transcription. Missing pieces leave the matching
// feature unavailable.
func (p *Processor) buildSpeech() {
	device, err := miniaudio.New(p.log)
	if err != nil {
		p.log.WithError(err).Warn("audio device unavailable, narration and listening disabled")
		return
	}

	openaiKey := cli.GetOpenAIKey()
	config := speech.DefaultOpenAIConfig()
	config.APIKey = openaiKey
	config.HTTPClient = observe.HTTPClient(0)
	config.Model = setting("speech.openai_model", p.flags.OpenAIModel)
	if speed := viper.GetFloat64("speech.openai_speed"); speed > 0 {
		config.Speed = speed
	} else if p.flags.OpenAISpeed > 0 {
		config.Speed = p.flags.OpenAISpeed
	}
	if instruction := setting("speech.openai_instruction", p.flags.OpenAIInstruction); instruction != "" {
		config.Instruction = instruction
	}
	if voice := setting("speech.voice", p.flags.Voice); voice != "" {
		language, err := session.ParseLanguage(setting("story.language", p.flags.Language))
		if err == nil {
			config.Voices[language.Locale()] = voice
		}
	}

	var synth speech.Synthesizer
	espeak, espeakErr := speech.NewESpeakSynthesizer(speech.DefaultESpeakConfig())
	if espeakErr != nil {
		p.log.WithError(espeakErr).Debug("espeak-ng unavailable")
	}

	engine := strings.ToLower(setting("speech.engine", p.flags.TTS))
	switch {
	case engine == "openai" && openaiKey != "":
		openaiSynth, err := speech.NewOpenAISynthesizer(config, p.log)
		if err != nil {
			p.log.WithError(err).Warn("OpenAI narration unavailable")
		} else if espeakErr == nil {
			synth = speech.NewFallbackSynthesizer(openaiSynth, espeak, p.log)
		} else {
			synth = openaiSynth
		}
	case espeakErr == nil:
		synth = espeak
	}
	if synth == nil {
		p.log.Warn("no narration engine available, install espeak-ng or set OPENAI_API_KEY")
	}

	var transcriber speech.Transcriber
	if openaiKey != "" {
		whisper, err := speech.NewWhisperTranscriber(config)
		if err != nil {
			p.log.WithError(err).Warn("speech recognition unavailable")
		} else {
			transcriber = whisper
		}
	}

	listenFor := time.Duration(viper.GetInt("speech.listen_seconds")) * time.Second
	if listenFor <= 0 {
		listenFor = time.Duration(p.flags.ListenSeconds) * time.Second
	}

	bridge := speech.NewBridge(speech.BridgeConfig{
		Synthesizer: synth,
		Transcriber: transcriber,
		Device:      device,
		ListenFor:   listenFor,
		Logger:      p.log,
	})
	p.deps.Narrator = bridge
	p.deps.Closer = bridge
}

// Close releases the audio device.
func (p *Processor) Close() error {
	if p.deps.Closer == nil {
		return nil
	}
	return p.deps.Closer.Close()
}

// newSession creates a session in the configured language and model.
func (p *Processor) newSession(notifier session.Notifier) (*session.Session, error) {
	language, err := session.ParseLanguage(setting("story.language", p.flags.Language))
	if err != nil {
		return nil, err
	}
	return session.New(session.Options{
		Stories:  p.deps.Stories,
		Images:   p.deps.Images,
		Speech:   p.deps.Narrator,
		Notifier: notifier,
		Logger:   p.log,
		Language: language,
		Model:    setting("story.model", p.flags.Model),
	})
}

// printNotifier reports failures on stderr like the rest of the CLI output.
func (p *Processor) printNotifier() session.Notifier {
	return session.NotifierFunc(func(message string) {
		fmt.Fprintf(p.errOut, "Error: %s\n", message)
	})
}

// ProcessTopic generates, saves and narrates one story
func (p *Processor) ProcessTopic(ctx context.Context, topic string) error {
	sess, err := p.newSession(p.printNotifier())
	if err != nil {
		return err
	}

	outputDir := setting("output.directory", p.flags.OutputDir)
	fmt.Fprintf(p.out, "\nProcessing: %s\n", topic)
	if err := p.runTopic(ctx, sess, topic, outputDir); err != nil {
		return err
	}
	return p.waitForNarration(ctx, sess)
}

// runTopic runs one generation cycle and writes its results to dir.
func (p *Processor) runTopic(ctx context.Context, sess *session.Session, topic, dir string) error {
	if err := sess.Generate(ctx, topic); err != nil {
		if errors.Is(err, session.ErrBlankTopic) {
			return fmt.Errorf("topic must not be blank")
		}
		return err
	}

	snap := sess.Snapshot()
	if !snap.IsStoryGenerated {
		// interrupted before the story arrived
		return ctx.Err()
	}

	fmt.Fprintf(p.out, "\n%s\n\n", snap.Story)
	for i, url := range snap.Images {
		keyword := ""
		if i < len(snap.Keywords) {
			keyword = snap.Keywords[i]
		}
		fmt.Fprintf(p.out, "  Illustration %d (%s): %s\n", i+1, keyword, url)
	}

	path, err := sess.SaveStory(dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "  ✓ Story saved: %s\n", path)

	if p.flags.SaveImages && len(snap.Images) > 0 {
		paths, err := p.deps.Downloader.SaveAll(ctx, dir, snap.Keywords, snap.Images)
		for _, path := range paths {
			fmt.Fprintf(p.out, "  ✓ Illustration saved: %s\n", filepath.Base(path))
		}
		if err != nil {
			p.log.WithError(err).Warn("some illustrations could not be saved")
		}
	}
	return nil
}

// waitForNarration blocks until the session stops speaking. Cancelling
// ctx stops the narration.
func (p *Processor) waitForNarration(ctx context.Context, sess *session.Session) error {
	done := make(chan struct{})
	var once sync.Once
	unsubscribe := sess.Subscribe(func(st session.State) {
		if !st.Speaking {
			once.Do(func() { close(done) })
		}
	})
	defer unsubscribe()

	if !sess.Snapshot().Speaking {
		return nil
	}
	fmt.Fprintf(p.out, "\nNarrating... (Ctrl+C to stop)\n")

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		sess.StopNarration()
		return nil
	}
}

// ProcessBatch generates one story per topic of the batch file
func (p *Processor) ProcessBatch(ctx context.Context) error {
	entries, err := batch.ReadTopicFile(p.flags.BatchFile)
	if err != nil {
		return err
	}

	sess, err := p.newSession(p.printNotifier())
	if err != nil {
		return err
	}
	defaultLanguage := sess.Snapshot().Language

	outputDir := setting("output.directory", p.flags.OutputDir)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	processedCount := 0
	errorCount := 0
	for i, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		fmt.Fprintf(p.out, "\nProcessing %d/%d: %s\n", i+1, len(entries), entry.Topic)

		sess.ClearAll()
		language := defaultLanguage
		if entry.Language != "" {
			if language, err = session.ParseLanguage(entry.Language); err != nil {
				fmt.Fprintf(p.errOut, "Error processing '%s': %v\n", entry.Topic, err)
				errorCount++
				continue
			}
		}
		if err := sess.ChangeLanguage(language); err != nil {
			fmt.Fprintf(p.errOut, "Error processing '%s': %v\n", entry.Topic, err)
			errorCount++
			continue
		}

		dir := filepath.Join(outputDir, internal.GenerateRunID(entry.Topic))
		if err := p.runTopic(ctx, sess, entry.Topic, dir); err != nil {
			// Generation failures were already reported by the notifier
			if !cli.Reported(err) {
				fmt.Fprintf(p.errOut, "Error processing '%s': %v\n", entry.Topic, err)
			}
			errorCount++
			continue
		}
		if err := p.waitForNarration(ctx, sess); err != nil {
			return err
		}
		processedCount++
	}

	// Print summary
	fmt.Fprintf(p.out, "\n=== Batch Processing Summary ===\n")
	fmt.Fprintf(p.out, "Total topics: %d\n", len(entries))
	fmt.Fprintf(p.out, "Processed: %d\n", processedCount)
	if errorCount > 0 {
		fmt.Fprintf(p.out, "Errors: %d\n", errorCount)
	}
	fmt.Fprintf(p.out, "================================\n")

	return nil
}

// ListModels prints the story model catalog and the OpenAI speech models
func (p *Processor) ListModels(ctx context.Context) error {
	lister := models.NewLister(&models.Config{
		OpenRouterKey:     cli.GetOpenRouterKey(),
		OpenRouterBaseURL: setting("story.base_url", story.OpenRouterBaseURL),
		OpenAIKey:         cli.GetOpenAIKey(),
		HTTPClient:        observe.HTTPClient(imageTimeout),
	}, p.out)
	return lister.ListAvailableModels(ctx)
}

// Archive moves the output directory into a timestamped archive
func (p *Processor) Archive() error {
	archivePath, err := archive.Stories(setting("output.directory", p.flags.OutputDir))
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "Stories archived to: %s\n", archivePath)
	return nil
}

// Serve runs the JSON control API until ctx is cancelled
func (p *Processor) Serve(ctx context.Context) error {
	sess, err := p.newSession(nil)
	if err != nil {
		return err
	}

	srv := server.New(sess, p.log)
	return srv.ListenAndServe(ctx, setting("server.addr", p.flags.Addr))
}

// RunGUIMode launches the GUI application
func (p *Processor) RunGUIMode() error {
	app, err := gui.New(&gui.Config{
		OutputDir:  setting("output.directory", p.flags.OutputDir),
		Logger:     p.log,
		Downloader: p.deps.Downloader,
		NewSession: p.newSession,
	})
	if err != nil {
		return err
	}
	app.Run()
	return nil
}
