// Package transcode re-encodes OGG/Opus audio as WAV for players
// that can't handle OGG natively.
package transcode

import (
	"context"
	"errors"
	"fmt"

	"github.com/cirruslabs/mediacache/internal/contenttype"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

var ErrEmptyAudio = errors.New("decoded audio has no channels")

type Transcoder struct {
	decoder Decoder
	logger  *zap.SugaredLogger
}

type Option func(transcoder *Transcoder)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(transcoder *Transcoder) {
		transcoder.logger = logger
	}
}

func New(decoder Decoder, opts ...Option) *Transcoder {
	transcoder := &Transcoder{
		decoder: decoder,
	}

	for _, opt := range opts {
		opt(transcoder)
	}

	if transcoder.logger == nil {
		transcoder.logger = zap.NewNop().Sugar()
	}

	return transcoder
}

// Apply transcodes the payload if it's OGG/Opus audio. When there's nothing
// to do or the transcoding fails, the original payload and content type
// are returned as-is.
func (transcoder *Transcoder) Apply(ctx context.Context, payload []byte, contentType string) ([]byte, string) {
	if !contenttype.IsOgg(contentType) {
		return payload, contentType
	}

	wav := transcoder.ConvertOggToWav(ctx, payload)
	if wav == nil {
		return payload, contentType
	}

	return wav, contenttype.WAV
}

// ConvertOggToWav returns a WAV rendition of the payload or nil if it can't be decoded.
func (transcoder *Transcoder) ConvertOggToWav(ctx context.Context, payload []byte) []byte {
	wav, err := transcoder.convert(ctx, payload)
	if err != nil {
		transcoder.logger.Warnf("failed to convert OGG to WAV, falling back "+
			"to the original payload: %v", err)

		return nil
	}

	transcoder.logger.Debugf("converted %s of OGG into %s of WAV",
		humanize.Bytes(uint64(len(payload))), humanize.Bytes(uint64(len(wav))))

	return wav
}

func (transcoder *Transcoder) convert(ctx context.Context, payload []byte) (wav []byte, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			wav = nil
			err = fmt.Errorf("decoder panicked: %v", recovered)
		}
	}()

	decoded, err := transcoder.decoder.Decode(ctx, payload)
	if err != nil {
		return nil, err
	}

	if decoded == nil || decoded.NumberOfChannels() == 0 {
		return nil, ErrEmptyAudio
	}

	return EncodeWAV(Render(decoded)), nil
}
