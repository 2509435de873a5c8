package transcode

import (
	"context"
)

// Buffer holds decoded audio as one slice of samples per channel.
type Buffer struct {
	SampleRate int
	Channels   [][]float32
}

func (buf *Buffer) NumberOfChannels() int {
	return len(buf.Channels)
}

// Length is the number of frames, i.e. the length of the longest channel.
func (buf *Buffer) Length() int {
	var length int

	for _, channel := range buf.Channels {
		length = max(length, len(channel))
	}

	return length
}

// Decoder turns an encoded audio payload into samples.
type Decoder interface {
	Decode(ctx context.Context, payload []byte) (*Buffer, error)
}

// Render plays the buffer through an offline pass that keeps the sample rate,
// the channel count and the length, so that every channel ends up exactly
// Length() frames long. Decoders are free to return ragged channels when
// their internal buffering wasn't flushed.
func Render(buf *Buffer) *Buffer {
	length := buf.Length()

	rendered := &Buffer{
		SampleRate: buf.SampleRate,
		Channels:   make([][]float32, len(buf.Channels)),
	}

	for i, channel := range buf.Channels {
		rendered.Channels[i] = make([]float32, length)
		copy(rendered.Channels[i], channel)
	}

	return rendered
}
