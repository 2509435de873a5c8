package retrieval

import (
	"github.com/cirruslabs/mediacache/internal/cache"
	"github.com/cirruslabs/mediacache/internal/fetch"
	"github.com/cirruslabs/mediacache/internal/mediaurl"
	"github.com/cirruslabs/mediacache/internal/session"
	"github.com/cirruslabs/mediacache/internal/transcode"
	"go.uber.org/zap"
)

type Option func(service *Service)

func WithCache(cache cache.Cache) Option {
	return func(service *Service) {
		service.cache = cache
	}
}

func WithStore(store *cache.Store) Option {
	return func(service *Service) {
		service.store = store
	}
}

func WithClient(client *fetch.Client) Option {
	return func(service *Service) {
		service.client = client
	}
}

func WithClassifier(classifier *mediaurl.Classifier) Option {
	return func(service *Service) {
		service.classifier = classifier
	}
}

func WithSession(session *session.Session) Option {
	return func(service *Service) {
		service.session = session
	}
}

// WithTranscoder enables OGG/Opus to WAV conversion of retrieved audio.
func WithTranscoder(transcoder *transcode.Transcoder) Option {
	return func(service *Service) {
		service.transcoder = transcoder
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(service *Service) {
		service.logger = logger
	}
}
