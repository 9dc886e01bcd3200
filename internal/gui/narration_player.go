package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"
)

// NarrationPlayer holds the pause/resume and stop controls of the
// narration. The session owns playback; the player only reflects it.
type NarrationPlayer struct {
	widget.BaseWidget

	container   *fyne.Container
	pauseButton *ttwidget.Button
	stopButton  *ttwidget.Button
	statusLabel *widget.Label

	paused bool
}

// NewNarrationPlayer creates the controls. onToggle and onStop are
// called from button taps.
func NewNarrationPlayer(onToggle, onStop func()) *NarrationPlayer {
	p := &NarrationPlayer{}

	p.pauseButton = ttwidget.NewButton("", onToggle)
	p.pauseButton.Icon = theme.MediaPauseIcon()

	p.stopButton = ttwidget.NewButton("", onStop)
	p.stopButton.Icon = theme.MediaStopIcon()

	p.statusLabel = widget.NewLabel("No narration")

	// Initially disable controls
	p.pauseButton.Disable()
	p.stopButton.Disable()

	p.container = container.NewHBox(
		p.pauseButton,
		p.stopButton,
		layout.NewSpacer(),
		p.statusLabel,
	)

	p.ExtendBaseWidget(p)
	return p
}

// CreateRenderer implements fyne.Widget
func (p *NarrationPlayer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(p.container)
}

// SetToolTips must run after the window tooltip layer exists.
func (p *NarrationPlayer) SetToolTips() {
	p.pauseButton.SetToolTip("Pause or resume narration (p)")
	p.stopButton.SetToolTip("Stop narration (s)")
}

// Update reflects the narration flags of a control state.
func (p *NarrationPlayer) Update(c controlState) {
	if c.PauseEnabled {
		p.pauseButton.Enable()
	} else {
		p.pauseButton.Disable()
	}
	if c.StopEnabled {
		p.stopButton.Enable()
	} else {
		p.stopButton.Disable()
	}

	if c.Paused != p.paused {
		p.paused = c.Paused
		if p.paused {
			p.pauseButton.SetIcon(theme.MediaPlayIcon())
		} else {
			p.pauseButton.SetIcon(theme.MediaPauseIcon())
		}
	}

	switch {
	case c.Paused:
		p.statusLabel.SetText("Narration paused")
	case c.PauseEnabled:
		p.statusLabel.SetText("Narrating")
	default:
		p.statusLabel.SetText("No narration")
	}
}
