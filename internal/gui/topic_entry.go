package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// TopicEntry is the single-line topic field; Escape leaves the field so
// the keyboard shortcuts work again.
type TopicEntry struct {
	widget.Entry
	onEscape func()
}

// NewTopicEntry creates a new topic entry
func NewTopicEntry() *TopicEntry {
	entry := &TopicEntry{}
	entry.ExtendBaseWidget(entry)
	entry.SetPlaceHolder("What should the story be about?")
	return entry
}

// TypedKey handles key events
func (e *TopicEntry) TypedKey(key *fyne.KeyEvent) {
	if key.Name == fyne.KeyEscape && e.onEscape != nil {
		e.onEscape()
		return
	}
	e.Entry.TypedKey(key)
}

// SetOnEscape sets the callback for when Escape is pressed
func (e *TopicEntry) SetOnEscape(f func()) {
	e.onEscape = f
}
