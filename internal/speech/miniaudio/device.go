// Package miniaudio implements speech.AudioDevice on the system's default
// playback and capture devices through malgo.
package miniaudio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/storybuddy/internal/speech"
)

// Device plays one clip at a time and records on demand.
type Device struct {
	// audioContext is kept to uninitialize it on Close
	audioContext *malgo.AllocatedContext
	log          logrus.FieldLogger

	mu         sync.Mutex
	playback   *malgo.Device
	current    *clip
	generation uint64
	onDone     func()

	recordMu sync.Mutex
}

// New initializes the audio backend.
func New(log logrus.FieldLogger) (*Device, error) {
	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.WithField("component", "malgo").Trace(message)
	})
	if err != nil {
		return nil, fmt.Errorf("malgo InitContext failed: %w", err)
	}
	return &Device{audioContext: audioCtx, log: log}, nil
}

// Play replaces the current clip with audio.
func (d *Device) Play(audio *speech.Audio, onDone func()) error {
	if audio == nil || len(audio.PCM) == 0 {
		return fmt.Errorf("no audio to play")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.releaseLocked()
	d.generation++
	gen := d.generation

	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * audio.Channels
	c := newClip(audio.PCM, bytesPerFrame)

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = uint32(audio.SampleRate)
	config.Playback.Format = format
	config.Playback.Channels = uint32(audio.Channels)
	config.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(d.audioContext.Context, config, malgo.DeviceCallbacks{
		Data: func(pOutput, _ []byte, frameCount uint32) {
			if c.read(pOutput, int(frameCount)) {
				// never block the audio thread
				go d.finish(gen)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	d.playback = device
	d.current = c
	d.onDone = onDone
	return nil
}

// finish releases the device once clip gen has drained and reports it.
func (d *Device) finish(gen uint64) {
	d.mu.Lock()
	if d.generation != gen || d.playback == nil {
		d.mu.Unlock()
		return
	}
	onDone := d.onDone
	d.releaseLocked()
	d.mu.Unlock()

	if onDone != nil {
		onDone()
	}
}

func (d *Device) releaseLocked() {
	if d.playback != nil {
		d.playback.Uninit()
		d.playback = nil
	}
	d.current = nil
	d.onDone = nil
}

// Pause halts the playback device, keeping the read position.
func (d *Device) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.playback == nil {
		return fmt.Errorf("nothing is playing")
	}
	if err := d.playback.Stop(); err != nil {
		return fmt.Errorf("failed to pause playback device: %w", err)
	}
	return nil
}

// Resume restarts a paused playback device.
func (d *Device) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.playback == nil {
		return fmt.Errorf("nothing is playing")
	}
	if err := d.playback.Start(); err != nil {
		return fmt.Errorf("failed to resume playback device: %w", err)
	}
	return nil
}

// Stop discards the current clip without calling its onDone.
func (d *Device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.generation++
	d.releaseLocked()
	return nil
}

// Record captures mono 16-bit PCM until max elapses or ctx is done.
// Cancellation returns ctx.Err().
func (d *Device) Record(ctx context.Context, sampleRate int, max time.Duration) ([]byte, error) {
	if !d.recordMu.TryLock() {
		return nil, speech.ErrBusy
	}
	defer d.recordMu.Unlock()

	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format)

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.SampleRate = uint32(sampleRate)
	config.Capture.Format = format
	config.Capture.Channels = 1
	config.Alsa.NoMMap = 1

	rec := newRecording(sampleRate * bytesPerFrame * int(max/time.Second+1))
	device, err := malgo.InitDevice(d.audioContext.Context, config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			rec.write(pInput, int(frameCount)*bytesPerFrame)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return nil, fmt.Errorf("failed to start capture device: %w", err)
	}

	timer := time.NewTimer(max)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		_ = device.Stop()
		return nil, ctx.Err()
	case <-timer.C:
	}

	if err := device.Stop(); err != nil {
		return nil, fmt.Errorf("failed to stop capture device: %w", err)
	}
	return rec.bytes(), nil
}

// Close stops playback and releases the audio backend.
func (d *Device) Close() error {
	d.Stop()
	if err := d.audioContext.Uninit(); err != nil {
		return fmt.Errorf("failed to uninitialize audio context: %w", err)
	}
	d.audioContext.Free()
	return nil
}
