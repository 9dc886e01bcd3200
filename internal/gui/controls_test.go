package gui

import (
	"testing"

	"codeberg.org/snonux/storybuddy/internal/session"
)

func TestControlsFor(t *testing.T) {
	tests := []struct {
		name   string
		state  session.State
		speech bool
		check  func(t *testing.T, c controlState)
	}{
		{
			name:  "empty prompt",
			state: session.State{},
			check: func(t *testing.T, c controlState) {
				if c.GenerateEnabled {
					t.Error("generate must be disabled without a topic")
				}
				if !c.TopicEnabled || !c.SelectorsEnabled {
					t.Error("topic and selectors must be enabled")
				}
				if c.MicEnabled {
					t.Error("mic must be disabled without speech")
				}
			},
		},
		{
			name:   "ready to generate",
			state:  session.State{Prompt: "tiger"},
			speech: true,
			check: func(t *testing.T, c controlState) {
				if !c.GenerateEnabled || !c.MicEnabled {
					t.Errorf("generate and mic must be enabled: %+v", c)
				}
				if c.DownloadEnabled || c.PauseEnabled || c.StopEnabled {
					t.Errorf("story controls must be disabled: %+v", c)
				}
			},
		},
		{
			name:   "loading",
			state:  session.State{Prompt: "tiger", Loading: true, InputsDisabled: true},
			speech: true,
			check: func(t *testing.T, c controlState) {
				if c.TopicEnabled || c.GenerateEnabled || c.MicEnabled || c.SelectorsEnabled {
					t.Errorf("inputs must be disabled while loading: %+v", c)
				}
				if c.Status != "Writing your story..." {
					t.Errorf("Status = %q", c.Status)
				}
			},
		},
		{
			name:   "listening",
			state:  session.State{Prompt: "tig", Listening: true},
			speech: true,
			check: func(t *testing.T, c controlState) {
				if c.MicEnabled || c.GenerateEnabled || c.TopicEnabled {
					t.Errorf("mic, generate and topic must be disabled while listening: %+v", c)
				}
				if !c.Listening || c.Status != "Listening..." {
					t.Errorf("unexpected listening state: %+v", c)
				}
			},
		},
		{
			name: "narrating",
			state: session.State{
				Prompt: "tiger", Story: "story", IsStoryGenerated: true, Speaking: true,
			},
			check: func(t *testing.T, c controlState) {
				if !c.PauseEnabled || !c.StopEnabled || c.Paused {
					t.Errorf("pause and stop must be enabled: %+v", c)
				}
				if c.SelectorsEnabled {
					t.Error("selectors must be frozen once a story exists")
				}
				if !c.DownloadEnabled || !c.GenerateEnabled {
					t.Errorf("download and generate must be enabled: %+v", c)
				}
			},
		},
		{
			name: "paused",
			state: session.State{
				Story: "story", IsStoryGenerated: true, Speaking: true, IsPaused: true,
			},
			check: func(t *testing.T, c controlState) {
				if !c.Paused || c.Status != "Narration paused" {
					t.Errorf("unexpected paused state: %+v", c)
				}
			},
		},
		{
			name:  "failed cycle",
			state: session.State{Prompt: "tiger", LastError: "model is overloaded"},
			check: func(t *testing.T, c controlState) {
				if c.Status != "Error: model is overloaded" {
					t.Errorf("Status = %q", c.Status)
				}
				if !c.GenerateEnabled {
					t.Error("generate must allow a retry")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, controlsFor(tt.state, tt.speech))
		})
	}
}

func TestStatusText_ImageProgress(t *testing.T) {
	st := session.State{
		Loading:          true,
		IsStoryGenerated: true,
		Keywords:         []string{"tiger", "books", "jungle"},
		Images:           []string{"https://images.example/tiger.jpg"},
	}
	if got := statusText(st); got != "Finding pictures (1/3)..." {
		t.Errorf("statusText = %q", got)
	}
}

func TestLanguageOptions(t *testing.T) {
	got := languageOptions()
	want := []string{"English", "Hindi", "Telugu"}
	if len(got) != len(want) {
		t.Fatalf("languageOptions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("languageOptions[%d] = %q, want %q", i, got[i], want[i])
		}
		if _, err := session.ParseLanguage(got[i]); err != nil {
			t.Errorf("label %q does not parse: %v", got[i], err)
		}
	}
}

func TestPrependMessage(t *testing.T) {
	var messages []string
	for _, m := range []string{"one", "two", "three", "four"} {
		messages = prependMessage(messages, m, 3)
	}

	want := []string{"four", "three", "two"}
	if len(messages) != len(want) {
		t.Fatalf("messages = %v, want %v", messages, want)
	}
	for i := range want {
		if messages[i] != want[i] {
			t.Errorf("messages[%d] = %q, want %q", i, messages[i], want[i])
		}
	}
}
