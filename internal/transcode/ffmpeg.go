package transcode

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FFmpeg decodes audio by piping it through an ffmpeg binary.
type FFmpeg struct {
	path string
}

func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}

	return &FFmpeg{
		path: path,
	}
}

func (decoder *FFmpeg) Decode(ctx context.Context, payload []byte) (*Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer

	err := ffmpeg.Input("pipe:0").
		Output("pipe:1", ffmpeg.KwArgs{
			"f":            "wav",
			"acodec":       "pcm_f32le",
			"map_metadata": "-1",
		}).
		SetFfmpegPath(decoder.path).
		WithInput(bytes.NewReader(payload)).
		WithOutput(&stdout).
		WithErrorOutput(&stderr).
		Run()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w: %s", err, lastLine(stderr.String()))
	}

	buf, err := ParseFloatWAV(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to parse ffmpeg output: %w", err)
	}

	return buf, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")

	return lines[len(lines)-1]
}
