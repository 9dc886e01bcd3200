package gui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/storybuddy/internal/logging"
)

// LogViewer is a widget that displays log messages
type LogViewer struct {
	widget.BaseWidget

	container  *fyne.Container
	logEntry   *widget.Entry
	scrollView *container.Scroll

	mu          sync.Mutex
	messages    []string
	maxMessages int
}

// NewLogViewer creates a new log viewer widget
func NewLogViewer() *LogViewer {
	v := &LogViewer{
		maxMessages: 500,
		messages:    make([]string, 0),
	}

	// Read-only multiline entry
	v.logEntry = widget.NewMultiLineEntry()
	v.logEntry.Disable()
	v.logEntry.Wrapping = fyne.TextWrapWord

	v.scrollView = container.NewScroll(v.logEntry)
	v.scrollView.SetMinSize(fyne.NewSize(0, 120))
	v.scrollView.Direction = container.ScrollBoth

	v.container = container.NewBorder(
		widget.NewLabel("Log messages (newest first):"),
		nil,
		nil,
		nil,
		v.scrollView,
	)

	v.ExtendBaseWidget(v)
	return v
}

// CreateRenderer implements fyne.Widget
func (v *LogViewer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.container)
}

// Hook returns a logrus hook feeding this viewer with entries at level
// and above.
func (v *LogViewer) Hook(level logrus.Level) logrus.Hook {
	return logging.NewMessageHook(level, v.AddMessage)
}

// prependMessage keeps the newest max messages, newest first.
func prependMessage(messages []string, message string, max int) []string {
	messages = append([]string{message}, messages...)
	if len(messages) > max {
		messages = messages[:max]
	}
	return messages
}

// AddMessage adds a message to the log. Safe from any goroutine.
func (v *LogViewer) AddMessage(message string) {
	v.mu.Lock()
	timestamp := time.Now().Format("15:04:05")
	v.messages = prependMessage(v.messages, fmt.Sprintf("[%s] %s", timestamp, message), v.maxMessages)
	text := strings.Join(v.messages, "\n")
	v.mu.Unlock()

	fyne.Do(func() {
		v.logEntry.SetText(text)

		// Keep scroll at top to show newest messages
		v.scrollView.Offset = fyne.NewPos(0, 0)
		v.scrollView.Refresh()
	})
}
