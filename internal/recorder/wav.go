// Package recorder persists raw per-speaker PCM audio to disk as standard
// RIFF/WAVE files, independent of (and upstream from) VAD packetization.
package recorder

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

const wavHeaderSize = 44

// SpeakerWAV accumulates one speaker's raw i16 samples and streams them to
// disk as they arrive, rather than buffering a whole meeting's audio in
// memory — a meeting may run for hours. The RIFF header is written with
// placeholder sizes up front and patched in place on Close.
type SpeakerWAV struct {
	file       *os.File
	sampleRate int
	samples    int
}

// NewSpeakerWAV creates (truncating if present) a mono 16-bit PCM WAV file at
// path and writes a placeholder header.
func NewSpeakerWAV(path string, sampleRate int) (*SpeakerWAV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("speaker wav create: %w", err)
	}
	w := &SpeakerWAV{file: f, sampleRate: sampleRate}
	if err := w.writeHeader(0); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *SpeakerWAV) writeHeader(dataLen int) error {
	var hdr [wavHeaderSize]byte
	totalLen := wavHeaderSize + dataLen
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(totalLen-8))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], 1) // mono
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(w.sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(w.sampleRate*2)) // byte rate
	binary.LittleEndian.PutUint16(hdr[32:34], 2)                      // block align
	binary.LittleEndian.PutUint16(hdr[34:36], 16)                     // bits per sample
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(dataLen))

	if _, err := w.file.WriteAt(hdr[:], 0); err != nil {
		return fmt.Errorf("speaker wav header: %w", err)
	}
	return nil
}

// Write appends signed 16-bit samples to the file.
func (w *SpeakerWAV) Write(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	if _, err := w.file.WriteAt(buf, int64(wavHeaderSize+w.samples*2)); err != nil {
		return fmt.Errorf("speaker wav write: %w", err)
	}
	w.samples += len(samples)
	return nil
}

// WriteFloat32 is a convenience wrapper for callers holding normalized
// [-1, 1] samples (e.g. post-resample or post-codec-decode audio).
func (w *SpeakerWAV) WriteFloat32(samples []float32) error {
	out := make([]int16, len(samples))
	for i, s := range samples {
		clamped := max(float32(-1.0), min(float32(1.0), s))
		out[i] = int16(clamped * math.MaxInt16)
	}
	return w.Write(out)
}

// Close patches the header with the final data size and closes the file.
func (w *SpeakerWAV) Close() error {
	if err := w.writeHeader(w.samples * 2); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
