package retrieval

import (
	"context"
	"net/http"

	"github.com/cirruslabs/mediacache/internal/cache"
	"github.com/cirruslabs/mediacache/internal/contenttype"
	"github.com/cirruslabs/mediacache/internal/fetch"
	"github.com/cirruslabs/mediacache/internal/media"
	"github.com/cirruslabs/mediacache/internal/mediaurl"
	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func (service *Service) produce(
	ctx context.Context,
	source string,
	route mediaurl.Route,
	kind media.Kind,
) (*cache.Handle, error) {
	// Another producer for the same URL might have settled
	// between our cache lookup and us starting
	if handle, ok := service.cached(source); ok {
		return handle, nil
	}

	var credential string

	if route.AuthRequired() {
		if !service.session.Authenticated() {
			return nil, ErrUnauthenticated
		}

		credential = service.session.Token()
	}

	requestURL, err := service.classifier.RequestURL(source)
	if err != nil {
		return nil, err
	}

	response, err := service.client.Get(ctx, requestURL, credential)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		return nil, &fetch.Error{
			Kind:       fetch.KindHTTP,
			StatusCode: response.StatusCode,
			URL:        requestURL,
		}
	}

	if err := checkCategory(kind, response.ContentType); err != nil {
		return nil, err
	}

	payload := response.Body
	resolved := contenttype.Resolve(response.ContentType, kind, payload)
	label := contenttype.Label(response.ContentType, resolved)

	if service.transcoder != nil && contenttype.IsOgg(resolved) {
		var transcodedType string

		payload, transcodedType = service.transcoder.Apply(ctx, payload, resolved)

		if transcodedType == contenttype.WAV {
			label = contenttype.WAV
			service.countTranscode("converted")
		} else {
			service.countTranscode("fallback")
		}
	}

	handle := service.store.Create(payload, label)
	service.cache.Put(source, handle)

	service.logger.With("url", source, "kind", kind, "route", route).Debugf("retrieved %s of %s as %s",
		humanize.Bytes(uint64(len(payload))), label, handle.URL())

	return handle, nil
}

func (service *Service) countTranscode(result string) {
	service.transcodesCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("result", result),
	))
}
