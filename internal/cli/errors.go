package cli

import (
	"errors"
	"fmt"
	"io"

	"codeberg.org/snonux/storybuddy/internal/story"
)

// Reported reports whether err already reached the user through the
// session notifier, which prints every failed story request.
func Reported(err error) bool {
	var genErr *story.GenerationError
	return errors.As(err, &genErr)
}

// ReportError prints err to w unless it was already reported.
func ReportError(w io.Writer, err error) {
	if err == nil || Reported(err) {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
