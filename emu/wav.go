package emu

import (
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVWriter records the 16-bit mono audio stream of the console into a WAV
// file.
type WAVWriter struct {
	enc *wav.Encoder
	buf *audio.IntBuffer
}

const wavPCMFormat = 1

// NewWAVWriter returns a WAVWriter writing to w, which must stay open until
// Close is called.
func NewWAVWriter(w io.WriteSeeker, sampleRate int) *WAVWriter {
	return &WAVWriter{
		enc: wav.NewEncoder(w, sampleRate, 16, 1, wavPCMFormat),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}
}

// Write appends samples to the file.
func (ww *WAVWriter) Write(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	ww.buf.Data = ww.buf.Data[:0]
	for _, s := range samples {
		ww.buf.Data = append(ww.buf.Data, int(s))
	}
	return ww.enc.Write(ww.buf)
}

// Close finalizes the WAV header. It doesn't close the underlying writer.
func (ww *WAVWriter) Close() error { return ww.enc.Close() }
