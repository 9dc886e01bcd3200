// Package speech narrates stories and captures spoken topics.
//
// The Bridge owns two small state machines. The listener goes
// idle -> listening -> idle for a single bounded recording that is
// transcribed once. The narrator goes idle -> speaking <-> paused -> idle.
// Engines sit behind narrow interfaces: Synthesizer (OpenAI TTS, espeak-ng),
// Transcriber (Whisper) and AudioDevice (malgo, see package miniaudio).
//
// When no device or engine is configured the bridge reports itself
// unavailable and every control is a no-op.
package speech
