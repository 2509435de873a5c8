// Package retrieval fetches media on behalf of its consumers, sharing the results
// through a cache of binary handles and collapsing concurrent requests for the same URL.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cirruslabs/mediacache/internal/cache"
	"github.com/cirruslabs/mediacache/internal/cache/memory"
	"github.com/cirruslabs/mediacache/internal/contenttype"
	"github.com/cirruslabs/mediacache/internal/fetch"
	"github.com/cirruslabs/mediacache/internal/inflight"
	"github.com/cirruslabs/mediacache/internal/media"
	"github.com/cirruslabs/mediacache/internal/mediaurl"
	"github.com/cirruslabs/mediacache/internal/opentelemetry"
	"github.com/cirruslabs/mediacache/internal/session"
	"github.com/cirruslabs/mediacache/internal/transcode"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	outcomeHit         = "hit"
	outcomeMiss        = "miss"
	outcomeShared      = "shared"
	outcomePassThrough = "pass-through"
	outcomeError       = "error"

	prefetchConcurrency = 8

	// a handle revoked between the lookup and the lease taking hold
	// of it is retrieved again, but not indefinitely
	maxHoldAttempts = 3
)

type Service struct {
	cache      cache.Cache
	store      *cache.Store
	client     *fetch.Client
	classifier *mediaurl.Classifier
	session    *session.Session
	transcoder *transcode.Transcoder
	logger     *zap.SugaredLogger

	inflight inflight.Group[*cache.Handle]

	retrievalsCounter metric.Int64Counter
	transcodesCounter metric.Int64Counter
}

// Result of a single retrieval. Handle is nil for pass-through URLs,
// which are handed back to the consumer unchanged.
type Result struct {
	URL         string
	ContentType string
	Handle      *cache.Handle
	Descriptor  media.Descriptor
}

func New(opts ...Option) (*Service, error) {
	service := &Service{}

	for _, opt := range opts {
		opt(service)
	}

	if service.cache == nil {
		service.cache = memory.New()
	}

	if service.store == nil {
		service.store = cache.NewStore()
	}

	if service.client == nil {
		service.client = fetch.New()
	}

	if service.classifier == nil {
		service.classifier = mediaurl.NewClassifier(nil, nil)
	}

	if service.session == nil {
		service.session = session.New("")
	}

	if service.logger == nil {
		service.logger = zap.NewNop().Sugar()
	}

	var err error

	service.retrievalsCounter, err = opentelemetry.DefaultMeter.Int64Counter(
		"org.cirruslabs.mediacache.retrievals.total")
	if err != nil {
		return nil, err
	}

	service.transcodesCounter, err = opentelemetry.DefaultMeter.Int64Counter(
		"org.cirruslabs.mediacache.transcodes.total")
	if err != nil {
		return nil, err
	}

	return service, nil
}

func (service *Service) Store() *cache.Store {
	return service.store
}

func (service *Service) Session() *session.Session {
	return service.session
}

// Retrieve performs one retrieval attempt for the source URL.
//
// Cached handles are returned right away, otherwise the caller starts
// or joins the in-flight retrieval for the same URL. Failed attempts
// are never cached.
func (service *Service) Retrieve(ctx context.Context, source string, kind media.Kind) (*Result, error) {
	if result, ok := service.peek(source, kind); ok {
		return result, nil
	}

	route := service.classifier.Classify(source)

	producer := func(ctx context.Context) (*cache.Handle, error) {
		return service.produce(ctx, source, route, kind)
	}

	handle, shared, err := service.inflight.StartOrJoin(ctx, flightKey(source, kind), producer)
	if err == nil {
		// The handle might have been produced for a caller
		// that expected a different kind of media
		err = checkCategory(kind, handle.ContentType())
	}
	if err != nil {
		service.count(outcomeError)

		service.logger.With("url", source, "kind", kind).Debugf("retrieval failed: %v", err)

		return nil, err
	}

	service.count(lo.Ternary(shared, outcomeShared, outcomeMiss))

	return service.result(source, route, kind, handle), nil
}

// Prefetch warms the cache for the given sources and returns
// the outcome of each retrieval, with nil meaning success.
func (service *Service) Prefetch(ctx context.Context, sources []string, kind media.Kind) map[string]error {
	sources = lo.Uniq(sources)

	results := make(map[string]error, len(sources))

	var mtx sync.Mutex

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(prefetchConcurrency)

	for _, source := range sources {
		group.Go(func() error {
			_, err := service.Retrieve(ctx, source, kind)

			mtx.Lock()
			results[source] = err
			mtx.Unlock()

			return nil
		})
	}

	_ = group.Wait()

	return results
}

// Purge empties the cache and returns the number of dropped entries.
//
// Dropped handles that nobody holds are revoked right away,
// the rest are revoked by the last lease that releases them.
func (service *Service) Purge() int {
	dropped := service.cache.Clear()

	for _, handle := range dropped {
		if service.store.RevokeUnheld(handle) {
			service.logger.Debugf("revoked purged handle %s", handle.ID())
		}
	}

	return len(dropped)
}

// peek resolves the source without producing anything,
// which is possible for pass-through and cached URLs.
func (service *Service) peek(source string, kind media.Kind) (*Result, bool) {
	route := service.classifier.Classify(source)

	if route == mediaurl.RoutePassThrough {
		service.count(outcomePassThrough)

		return &Result{
			URL: source,
			Descriptor: media.Descriptor{
				OriginalURL: source,
				Kind:        kind,
			},
		}, true
	}

	handle, ok := service.cached(source)
	if !ok || checkCategory(kind, handle.ContentType()) != nil {
		return nil, false
	}

	service.count(outcomeHit)

	return service.result(source, route, kind, handle), true
}

func (service *Service) cached(source string) (*cache.Handle, bool) {
	handle, ok := service.cache.Get(source)
	if !ok || handle.Revoked() {
		return nil, false
	}

	return handle, true
}

// hold retrieves the source and registers one more holder of the resulting handle.
func (service *Service) hold(ctx context.Context, source string, kind media.Kind) (*Result, error) {
	for range maxHoldAttempts {
		result, err := service.Retrieve(ctx, source, kind)
		if err != nil {
			return nil, err
		}

		if result.Handle == nil {
			return result, nil
		}

		if result.Handle.Retain() {
			return result, nil
		}
	}

	return nil, cache.ErrRevoked
}

// release drops one holder of the handle and revokes it once nobody holds it,
// unless it's still the one cached for the source URL.
func (service *Service) release(source string, handle *cache.Handle) {
	if handle == nil {
		return
	}

	if handle.Release() > 0 {
		return
	}

	if cached, ok := service.cache.Get(source); ok && cached == handle {
		return
	}

	if service.store.RevokeUnheld(handle) {
		service.logger.With("url", source).Debugf("revoked handle %s", handle.ID())
	}
}

func (service *Service) result(source string, route mediaurl.Route, kind media.Kind, handle *cache.Handle) *Result {
	descriptor := media.Descriptor{
		OriginalURL:         source,
		ResolvedContentType: handle.ContentType(),
		AuthRequired:        route.AuthRequired(),
		Kind:                kind,
	}

	if kind == media.KindImage {
		if content, err := handle.Content(); err == nil {
			descriptor.Image, _ = contenttype.ProbeImage(content)
		}
	}

	return &Result{
		URL:         handle.URL(),
		ContentType: handle.ContentType(),
		Handle:      handle,
		Descriptor:  descriptor,
	}
}

func (service *Service) count(outcome string) {
	service.retrievalsCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// flightKey keeps image retrievals, which reject other categories,
// from sharing a producer with the lenient kinds.
func flightKey(source string, kind media.Kind) string {
	if kind == media.KindImage {
		return kind.String() + " " + source
	}

	return source
}

func checkCategory(kind media.Kind, contentType string) error {
	if kind.Matches(contentType) {
		return nil
	}

	return fmt.Errorf("%w: response is not an %s (got %q)", ErrWrongMediaCategory, kind, contentType)
}

// IsUpstreamFailure tells whether the error came from the server hosting the media.
func IsUpstreamFailure(err error) bool {
	var fetchErr *fetch.Error

	return errors.As(err, &fetchErr)
}
