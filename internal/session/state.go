package session

import "strings"

// State is a snapshot of the session. Copies returned by Snapshot are
// independent of the session.
type State struct {
	Prompt   string   `json:"prompt"`
	Language Language `json:"language"`
	Model    string   `json:"model"`
	Story    string   `json:"story"`
	Images   []string `json:"images"`
	Keywords []string `json:"keywords"`

	Loading          bool `json:"loading"`
	Listening        bool `json:"listening"`
	InputsDisabled   bool `json:"inputs_disabled"`
	IsPaused         bool `json:"is_paused"`
	IsStoryGenerated bool `json:"is_story_generated"`
	Speaking         bool `json:"speaking"`

	CycleID   string `json:"cycle_id,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

func (s State) clone() State {
	s.Images = append([]string{}, s.Images...)
	s.Keywords = append([]string{}, s.Keywords...)
	return s
}

// SettingsLocked reports whether language and model are frozen.
func (s State) SettingsLocked() bool {
	return s.InputsDisabled || s.IsStoryGenerated
}

// CanGenerate reports whether the generate control should be enabled.
func (s State) CanGenerate() bool {
	return !s.InputsDisabled && strings.TrimSpace(s.Prompt) != ""
}

// Panel is one paragraph of the story with its illustration, if any.
type Panel struct {
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
}

// Illustrated pairs paragraph i with image i. Paragraphs past the last
// image have none.
func (s State) Illustrated() []Panel {
	paragraphs := Paragraphs(s.Story)
	panels := make([]Panel, len(paragraphs))
	for i, p := range paragraphs {
		panels[i].Text = p
		if i < len(s.Images) {
			panels[i].Image = s.Images[i]
		}
	}
	return panels
}

// Paragraphs splits a story on newlines and drops blank lines.
func Paragraphs(story string) []string {
	var out []string
	for _, line := range strings.Split(story, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
