package miniaudio

import "sync"

// clip is PCM being fed to a playback callback.
type clip struct {
	mu            sync.Mutex
	pcm           []byte
	pos           int
	bytesPerFrame int
	drained       bool
}

func newClip(pcm []byte, bytesPerFrame int) *clip {
	return &clip{pcm: pcm, bytesPerFrame: bytesPerFrame}
}

// read fills up to frames frames of out, padding with silence past the end.
// It returns true exactly once, on the first call that finds nothing left.
func (c *clip) read(out []byte, frames int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	need := frames * c.bytesPerFrame
	if need > len(out) {
		need = len(out)
	}
	n := copy(out[:need], c.pcm[c.pos:])
	c.pos += n
	clear(out[n:need])

	if n == 0 && c.pos >= len(c.pcm) && !c.drained {
		c.drained = true
		return true
	}
	return false
}

// recording collects captured PCM up to a fixed capacity.
type recording struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func newRecording(max int) *recording {
	return &recording{buf: make([]byte, 0, max), max: max}
}

func (r *recording) write(in []byte, n int) {
	if n > len(in) {
		n = len(in)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if room := r.max - len(r.buf); n > room {
		n = room
	}
	if n > 0 {
		r.buf = append(r.buf, in[:n]...)
	}
}

func (r *recording) bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.buf...)
}
