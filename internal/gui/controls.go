package gui

import (
	"fmt"

	"codeberg.org/snonux/storybuddy/internal/session"
)

// controlState is what every control shows for one session state.
type controlState struct {
	TopicEnabled     bool
	GenerateEnabled  bool
	MicEnabled       bool
	Listening        bool
	SelectorsEnabled bool
	PauseEnabled     bool
	Paused           bool
	StopEnabled      bool
	DownloadEnabled  bool
	Status           string
}

// controlsFor derives control enablement from the session flags alone.
func controlsFor(st session.State, speechAvailable bool) controlState {
	return controlState{
		TopicEnabled:     !st.InputsDisabled && !st.Listening,
		GenerateEnabled:  st.CanGenerate() && !st.Listening,
		MicEnabled:       speechAvailable && !st.InputsDisabled && !st.Listening,
		Listening:        st.Listening,
		SelectorsEnabled: !st.SettingsLocked(),
		PauseEnabled:     st.Speaking,
		Paused:           st.Speaking && st.IsPaused,
		StopEnabled:      st.Speaking,
		DownloadEnabled:  st.IsStoryGenerated && st.Story != "",
		Status:           statusText(st),
	}
}

func statusText(st session.State) string {
	switch {
	case st.Listening:
		return "Listening..."
	case st.Loading && !st.IsStoryGenerated:
		return "Writing your story..."
	case st.Loading:
		return fmt.Sprintf("Finding pictures (%d/%d)...", len(st.Images), len(st.Keywords))
	case st.Speaking && st.IsPaused:
		return "Narration paused"
	case st.Speaking:
		return "Reading aloud..."
	case st.LastError != "":
		return "Error: " + st.LastError
	case st.IsStoryGenerated:
		return "Story ready"
	default:
		return "Ready"
	}
}

// languageOptions returns the selector labels in display order.
func languageOptions() []string {
	languages := session.Languages()
	labels := make([]string, len(languages))
	for i, l := range languages {
		labels[i] = l.Label()
	}
	return labels
}
