package transcode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	wavHeaderSize = 44

	formatPCM        = 1
	formatIEEEFloat  = 3
	formatExtensible = 0xFFFE

	bitsPerSample16 = 16
)

var ErrMalformedWAV = errors.New("malformed WAV stream")

// EncodeWAV serializes the buffer as a canonical 16-bit PCM WAV
// with interleaved channels.
func EncodeWAV(buf *Buffer) []byte {
	numChannels := buf.NumberOfChannels()
	length := buf.Length()
	blockAlign := numChannels * bitsPerSample16 / 8
	dataSize := length * blockAlign

	out := make([]byte, wavHeaderSize+dataSize)

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataSize))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], formatPCM)
	binary.LittleEndian.PutUint16(out[22:24], uint16(numChannels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(buf.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(buf.SampleRate*blockAlign))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample16)

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataSize))

	offset := wavHeaderSize

	for frame := 0; frame < length; frame++ {
		for _, channel := range buf.Channels {
			var sample float32

			if frame < len(channel) {
				sample = channel[frame]
			}

			binary.LittleEndian.PutUint16(out[offset:offset+2], uint16(quantize(sample)))
			offset += 2
		}
	}

	return out
}

func quantize(sample float32) int16 {
	if math.IsNaN(float64(sample)) {
		return 0
	}

	sample = max(-1, min(1, sample))

	if sample < 0 {
		return int16(sample * 0x8000)
	}

	return int16(sample * 0x7FFF)
}

// ParseFloatWAV reads a 32-bit IEEE float WAV stream, as produced by ffmpeg's
// pcm_f32le encoder, into a buffer. Chunk sizes of streamed output may be
// bogus, so the data chunk is allowed to span till the end of the input.
func ParseFloatWAV(data []byte) (*Buffer, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: missing RIFF/WAVE signature", ErrMalformedWAV)
	}

	var numChannels, bitsPerSample int
	var sampleRate int
	var fmtFound bool

	offset := 12

	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := data[offset+8:]

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 || len(body) < 16 {
				return nil, fmt.Errorf("%w: fmt chunk is too short", ErrMalformedWAV)
			}

			format := binary.LittleEndian.Uint16(body[0:2])
			numChannels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(body[14:16]))

			if format != formatIEEEFloat && format != formatExtensible {
				return nil, fmt.Errorf("%w: expected IEEE float samples, got format %d",
					ErrMalformedWAV, format)
			}

			if bitsPerSample != 32 || numChannels == 0 {
				return nil, fmt.Errorf("%w: unsupported layout of %d channel(s) with %d bits per sample",
					ErrMalformedWAV, numChannels, bitsPerSample)
			}

			fmtFound = true
		case "data":
			if !fmtFound {
				return nil, fmt.Errorf("%w: data chunk precedes fmt chunk", ErrMalformedWAV)
			}

			if chunkSize > len(body) || chunkSize == 0 {
				chunkSize = len(body)
			}

			return deinterleave(body[:chunkSize], numChannels, sampleRate), nil
		}

		// Chunks are padded to an even size
		offset += 8 + chunkSize + chunkSize%2
	}

	return nil, fmt.Errorf("%w: no data chunk found", ErrMalformedWAV)
}

func deinterleave(data []byte, numChannels int, sampleRate int) *Buffer {
	frames := len(data) / (4 * numChannels)

	buf := &Buffer{
		SampleRate: sampleRate,
		Channels:   make([][]float32, numChannels),
	}

	for i := range buf.Channels {
		buf.Channels[i] = make([]float32, frames)
	}

	reader := bytes.NewReader(data[:frames*4*numChannels])

	for frame := 0; frame < frames; frame++ {
		for channel := 0; channel < numChannels; channel++ {
			var bits uint32

			// can't fail, the reader is sized to whole frames
			_ = binary.Read(reader, binary.LittleEndian, &bits)

			buf.Channels[channel][frame] = math.Float32frombits(bits)
		}
	}

	return buf
}
