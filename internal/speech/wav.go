package speech

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrInvalidWAV is returned for data that is not 16-bit PCM WAV.
var ErrInvalidWAV = errors.New("invalid WAV data")

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// DecodeWAV extracts 16-bit PCM from a RIFF/WAVE file. Streamed WAVs
// (espeak-ng --stdout, OpenAI) may carry placeholder chunk sizes; the data
// chunk is then clamped to the bytes present.
func DecodeWAV(data []byte) (*Audio, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: missing RIFF/WAVE header", ErrInvalidWAV)
	}

	var audio *Audio
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int64(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		pos += 8

		end := int64(pos) + size
		if end > int64(len(data)) {
			end = int64(len(data))
		}
		body := data[pos:end]

		switch id {
		case "fmt ":
			if len(body) < 16 {
				return nil, fmt.Errorf("%w: short fmt chunk", ErrInvalidWAV)
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			bits := binary.LittleEndian.Uint16(body[14:16])
			if (format != wavFormatPCM && format != wavFormatExtensible) || bits != 16 {
				return nil, fmt.Errorf("%w: unsupported format %d/%d-bit", ErrInvalidWAV, format, bits)
			}
			audio = &Audio{
				Channels:   int(binary.LittleEndian.Uint16(body[2:4])),
				SampleRate: int(binary.LittleEndian.Uint32(body[4:8])),
			}
		case "data":
			if audio == nil {
				return nil, fmt.Errorf("%w: data before fmt chunk", ErrInvalidWAV)
			}
			// whole samples only
			audio.PCM = body[:len(body)&^1]
			return audio, nil
		}

		pos = int(end)
		if size%2 == 1 {
			pos++
		}
	}

	return nil, fmt.Errorf("%w: no data chunk", ErrInvalidWAV)
}

// EncodeWAV wraps 16-bit PCM in a canonical 44-byte WAV header.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	blockAlign := channels * 2
	out := make([]byte, 44+len(pcm))

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], 16)

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[44:], pcm)

	return out
}

// concatAudio joins clips that share a format.
func concatAudio(clips []*Audio) (*Audio, error) {
	if len(clips) == 0 {
		return nil, errors.New("no audio")
	}
	out := &Audio{SampleRate: clips[0].SampleRate, Channels: clips[0].Channels}
	for _, c := range clips {
		if c.SampleRate != out.SampleRate || c.Channels != out.Channels {
			return nil, fmt.Errorf("audio format mismatch: %d Hz/%d ch vs %d Hz/%d ch",
				c.SampleRate, c.Channels, out.SampleRate, out.Channels)
		}
		out.PCM = append(out.PCM, c.PCM...)
	}
	return out, nil
}
