package gui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	fynetooltip "github.com/dweymouth/fyne-tooltip"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"
	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/storybuddy/internal"
	"codeberg.org/snonux/storybuddy/internal/session"
	"codeberg.org/snonux/storybuddy/internal/story"
)

// Application represents the main GUI application
type Application struct {
	// Fyne components
	app    fyne.App
	window fyne.Window

	// UI elements
	languageSelect *widget.Select
	modelSelect    *widget.Select
	topicEntry     *TopicEntry
	micButton      *ttwidget.Button
	generateButton *ttwidget.Button
	downloadButton *ttwidget.Button
	clearButton    *ttwidget.Button
	helpButton     *ttwidget.Button
	player         *NarrationPlayer
	storyView      *StoryView
	statusLabel    *widget.Label
	logViewer      *LogViewer

	// State management
	session       *session.Session
	queue         *ImageQueue
	renderedCycle string
	modelIDs      map[string]string // display name -> catalog id

	// Configuration
	config *Config
	log    logrus.FieldLogger

	// Background processing
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Config holds GUI application configuration
type Config struct {
	OutputDir  string
	Logger     *logrus.Logger
	Downloader Fetcher

	// NewSession builds the session the window drives; the notifier shows
	// generation failures as dialogs.
	NewSession func(notifier session.Notifier) (*session.Session, error)
}

// New creates a new GUI application
func New(config *Config) (*Application, error) {
	if config == nil || config.NewSession == nil || config.Downloader == nil {
		return nil, fmt.Errorf("GUI requires a session factory and a downloader")
	}
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}
	if config.OutputDir != "" {
		if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	myApp := app.NewWithID("org.codeberg.snonux.storybuddy")
	myApp.SetIcon(GetAppIcon())

	a := &Application{
		app:      myApp,
		config:   config,
		log:      config.Logger,
		ctx:      ctx,
		cancel:   cancel,
		modelIDs: make(map[string]string),
	}

	sess, err := config.NewSession(session.NotifierFunc(a.showErrorMessage))
	if err != nil {
		cancel()
		return nil, err
	}
	a.session = sess

	a.queue = NewImageQueue(ctx, config.Downloader, a.log)
	a.queue.SetCallback(func(job *ImageJob) {
		fyne.Do(func() { a.storyView.ShowImage(job) })
	})

	a.setupUI()
	config.Logger.AddHook(a.logViewer.Hook(logrus.InfoLevel))

	a.session.Subscribe(func(session.State) {
		fyne.Do(a.render)
	})
	a.render()

	return a, nil
}

// setupUI creates the main user interface
func (a *Application) setupUI() {
	a.window = a.app.NewWindow(fmt.Sprintf("StoryBuddy v%s", internal.Version))
	a.window.Resize(fyne.NewSize(900, 760))

	// Settings row
	a.languageSelect = widget.NewSelect(languageOptions(), a.onLanguageSelected)

	modelNames := make([]string, 0, len(story.Catalog))
	for _, m := range story.Catalog {
		modelNames = append(modelNames, m.Name)
		a.modelIDs[m.Name] = m.ID
	}
	a.modelSelect = widget.NewSelect(modelNames, a.onModelSelected)

	settings := container.New(layout.NewFormLayout(),
		widget.NewLabel("Language:"), a.languageSelect,
		widget.NewLabel("Model:"), a.modelSelect,
	)

	// Topic row (tooltips will be set after tooltip layer is created)
	a.topicEntry = NewTopicEntry()
	a.topicEntry.OnChanged = func(text string) {
		// Rejected while a cycle runs; render restores the session's prompt
		if err := a.session.SetPrompt(text); err != nil {
			a.log.WithError(err).Debug("prompt edit ignored")
		}
	}
	a.topicEntry.OnSubmitted = func(string) {
		a.onGenerate()
		a.window.Canvas().Unfocus()
	}
	a.topicEntry.SetOnEscape(func() {
		a.window.Canvas().Unfocus()
	})

	a.micButton = ttwidget.NewButtonWithIcon("", theme.MediaRecordIcon(), a.onListen)
	a.generateButton = ttwidget.NewButtonWithIcon("Generate", theme.ConfirmIcon(), a.onGenerate)
	a.generateButton.Importance = widget.HighImportance

	topicSection := container.NewBorder(
		nil, nil,
		a.micButton,
		a.generateButton,
		a.topicEntry,
	)

	// Action buttons
	a.player = NewNarrationPlayer(a.onTogglePause, a.onStopNarration)
	a.downloadButton = ttwidget.NewButtonWithIcon("", theme.DownloadIcon(), a.onDownload)
	a.clearButton = ttwidget.NewButtonWithIcon("", theme.ContentClearIcon(), a.onClear)
	a.clearButton.Importance = widget.DangerImportance
	a.helpButton = ttwidget.NewButtonWithIcon("", theme.HelpIcon(), a.onShowHotkeys)

	toolbar := container.NewBorder(
		nil, nil,
		nil,
		container.NewHBox(a.downloadButton, a.clearButton, widget.NewSeparator(), a.helpButton),
		a.player,
	)

	// Story and log
	a.storyView = NewStoryView()
	a.logViewer = NewLogViewer()

	mainSection := container.NewVSplit(a.storyView, a.logViewer)
	mainSection.SetOffset(0.8)

	a.statusLabel = widget.NewLabel("Ready")
	a.statusLabel.TextStyle = fyne.TextStyle{Italic: true}

	content := container.NewBorder(
		container.NewVBox(
			settings,
			topicSection,
			widget.NewSeparator(),
			toolbar,
		),
		a.statusLabel,
		nil, nil,
		mainSection,
	)

	// Add the tooltip layer to enable tooltips
	a.window.SetContent(fynetooltip.AddWindowToolTipLayer(content, a.window.Canvas()))
	a.setupTooltips()

	a.window.SetOnClosed(func() {
		a.session.ClearAll()
		a.cancel()
		a.queue.Stop()
		a.wg.Wait()
	})

	a.setupKeyboardShortcuts()
}

// setupTooltips sets up all tooltips after the tooltip layer has been created
func (a *Application) setupTooltips() {
	a.micButton.SetToolTip("Speak the topic (l)")
	a.generateButton.SetToolTip("Generate story (g)")
	a.downloadButton.SetToolTip("Download story.txt (d)")
	a.clearButton.SetToolTip("Clear everything (c)")
	a.helpButton.SetToolTip("Show hotkeys (h)")
	a.player.SetToolTips()
}

// Run starts the GUI application
func (a *Application) Run() {
	a.window.ShowAndRun()
}

// render brings every control in line with the latest session state.
// It must run on the UI goroutine.
func (a *Application) render() {
	st := a.session.Snapshot()
	c := controlsFor(st, a.session.SpeechAvailable())

	if a.topicEntry.Text != st.Prompt {
		a.topicEntry.SetText(st.Prompt)
	}
	setEnabled(a.topicEntry, c.TopicEnabled)
	setEnabled(a.generateButton, c.GenerateEnabled)
	setEnabled(a.micButton, c.MicEnabled)
	setEnabled(a.languageSelect, c.SelectorsEnabled)
	setEnabled(a.modelSelect, c.SelectorsEnabled)
	setEnabled(a.downloadButton, c.DownloadEnabled)

	micImportance := widget.MediumImportance
	if c.Listening {
		micImportance = widget.WarningImportance
	}
	if a.micButton.Importance != micImportance {
		a.micButton.Importance = micImportance
		a.micButton.Refresh()
	}

	if label := st.Language.Label(); a.languageSelect.Selected != label {
		a.languageSelect.SetSelected(label)
	}
	if m, ok := story.Lookup(st.Model); ok && a.modelSelect.Selected != m.Name {
		a.modelSelect.SetSelected(m.Name)
	}

	a.player.Update(c)
	a.statusLabel.SetText(c.Status)

	if st.CycleID != a.renderedCycle {
		a.queue.Reset()
		a.renderedCycle = st.CycleID
	}
	for _, index := range a.storyView.SetStory(st) {
		a.queue.Add(index, st.Images[index])
	}
}

func setEnabled(w fyne.Disableable, enabled bool) {
	if enabled && w.Disabled() {
		w.Enable()
	} else if !enabled && !w.Disabled() {
		w.Disable()
	}
}

// showErrorMessage is the session notifier; it may be called from any
// goroutine.
func (a *Application) showErrorMessage(message string) {
	fyne.Do(func() {
		dialog.ShowError(errors.New(message), a.window)
	})
}

func (a *Application) onLanguageSelected(label string) {
	language, err := session.ParseLanguage(label)
	if err == nil {
		err = a.session.ChangeLanguage(language)
	}
	if err != nil {
		a.log.WithError(err).Debug("language change rejected")
		fyne.Do(a.render)
	}
}

func (a *Application) onModelSelected(name string) {
	id, ok := a.modelIDs[name]
	if !ok {
		return
	}
	if err := a.session.ChangeModel(id); err != nil {
		a.log.WithError(err).Debug("model change rejected")
		fyne.Do(a.render)
	}
}

// onGenerate runs a generation cycle in the background
func (a *Application) onGenerate() {
	st := a.session.Snapshot()
	if !controlsFor(st, a.session.SpeechAvailable()).GenerateEnabled {
		return
	}
	topic := st.Prompt

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		err := a.session.Generate(a.ctx, topic)
		switch {
		case err == nil, errors.Is(err, session.ErrBlankTopic):
		case errors.Is(err, session.ErrBusy):
			a.log.Debug("generation already running")
		default:
			// already shown by the notifier
			a.log.WithError(err).Debug("generation cycle failed")
		}
	}()
}

func (a *Application) onListen() {
	if err := a.session.StartListening(a.ctx); err != nil {
		a.log.WithError(err).Warn("cannot start listening")
	}
}

func (a *Application) onTogglePause() {
	a.session.TogglePauseResume()
}

func (a *Application) onStopNarration() {
	a.session.StopNarration()
}

func (a *Application) onClear() {
	a.session.ClearAll()
	a.window.Canvas().Unfocus()
}

// onDownload asks where to save story.txt
func (a *Application) onDownload() {
	if a.downloadButton.Disabled() {
		return
	}

	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			a.showError(err)
			return
		}
		if writer == nil {
			return // cancelled
		}
		defer writer.Close()

		if err := a.session.DownloadStory(writer); err != nil {
			a.showError(fmt.Errorf("failed to save story: %w", err))
			return
		}
		a.log.WithField("path", writer.URI().Path()).Info("story saved")
	}, a.window)

	d.SetFileName(session.StoryFileName)
	if a.config.OutputDir != "" {
		if lister, err := storage.ListerForURI(storage.NewFileURI(a.config.OutputDir)); err == nil {
			d.SetLocation(lister)
		}
	}
	d.Show()
}

func (a *Application) showError(err error) {
	dialog.ShowError(err, a.window)
	a.statusLabel.SetText("Error: " + err.Error())
}

func (a *Application) onShowHotkeys() {
	hotkeys := `[Project Page: https://codeberg.org/snonux/storybuddy](https://codeberg.org/snonux/storybuddy)

---

## Story
**t** Focus topic field
**l** Speak the topic
**g** Generate story
**Esc** Unfocus field

## Narration
**p** Pause or resume
**s** Stop

## Story file
**d** Download story.txt
**c** Clear everything

## Help
**h** Show hotkeys
**q** Quit application
`

	content := widget.NewRichTextFromMarkdown(hotkeys)
	content.Wrapping = fyne.TextWrapWord

	scroll := container.NewScroll(container.NewPadded(content))
	scroll.SetMinSize(fyne.NewSize(420, 420))

	dialog.NewCustom("Keyboard Shortcuts", "Close", scroll, a.window).Show()
}

func (a *Application) setupKeyboardShortcuts() {
	a.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			a.window.Canvas().Unfocus()
			return
		}

		// Let the topic field receive its own keys
		if a.window.Canvas().Focused() == a.topicEntry {
			return
		}

		a.handleShortcutKey(ev.Name)
	})
}

// handleShortcutKey handles the actual shortcut action
func (a *Application) handleShortcutKey(key fyne.KeyName) {
	switch key {
	case fyne.KeyT:
		if !a.topicEntry.Disabled() {
			a.window.Canvas().Focus(a.topicEntry)
		}
	case fyne.KeyL:
		if !a.micButton.Disabled() {
			a.onListen()
		}
	case fyne.KeyG:
		if !a.generateButton.Disabled() {
			a.onGenerate()
		}
	case fyne.KeyP:
		a.onTogglePause()
	case fyne.KeyS:
		a.onStopNarration()
	case fyne.KeyD:
		a.onDownload()
	case fyne.KeyC:
		a.onClear()
	case fyne.KeyH:
		a.onShowHotkeys()
	case fyne.KeyQ:
		a.window.Close()
	}
}
