package retrieval_test

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/cirruslabs/mediacache/internal/cache"
	"github.com/cirruslabs/mediacache/internal/cache/noop"
	"github.com/cirruslabs/mediacache/internal/contenttype"
	"github.com/cirruslabs/mediacache/internal/fetch"
	"github.com/cirruslabs/mediacache/internal/media"
	"github.com/cirruslabs/mediacache/internal/mediaurl"
	"github.com/cirruslabs/mediacache/internal/retrieval"
	"github.com/cirruslabs/mediacache/internal/session"
	"github.com/cirruslabs/mediacache/internal/transcode"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	twilioURL = "https://api.twilio.com/2010-04-01/Accounts/AC1/Messages/MSIDxyz/Media/MEDIDabc"
	proxyURI  = "/api/media/proxy?mediaSid=MEDIDabc&messageSid=MSIDxyz"
)

type decoderFunc func(ctx context.Context, payload []byte) (*transcode.Buffer, error)

func (fn decoderFunc) Decode(ctx context.Context, payload []byte) (*transcode.Buffer, error) {
	return fn(ctx, payload)
}

func newService(t *testing.T, backend *backend, opts ...retrieval.Option) *retrieval.Service {
	t.Helper()

	opts = append([]retrieval.Option{
		retrieval.WithClassifier(backend.classifier(t)),
		retrieval.WithSession(session.New(backend.token)),
	}, opts...)

	service, err := retrieval.New(opts...)
	require.NoError(t, err)

	return service
}

func publicURI() string {
	return "/api/media/public/" + uuid.NewString()
}

func TestRetrieveIsIdempotent(t *testing.T) {
	backend := newBackend(t)
	uri := publicURI()
	backend.put(uri, &object{contentType: "image/png", body: []byte("\x89PNG")})

	service := newService(t, backend)

	first, err := service.Retrieve(context.Background(), uri, media.KindImage)
	require.NoError(t, err)
	require.NotNil(t, first.Handle)
	require.Equal(t, first.Handle.URL(), first.URL)
	require.Equal(t, "image/png", first.ContentType)

	for range 5 {
		result, err := service.Retrieve(context.Background(), uri, media.KindImage)
		require.NoError(t, err)
		require.Same(t, first.Handle, result.Handle)
	}

	require.Equal(t, 1, backend.count(uri))
}

func TestRetrieveDeduplicates(t *testing.T) {
	backend := newBackend(t)
	uri := publicURI()
	gate := make(chan struct{})
	backend.put(uri, &object{contentType: "audio/mpeg", body: []byte("ID3"), gate: gate})

	service := newService(t, backend)

	const numCallers = 16

	handles := make([]*cache.Handle, numCallers)

	var wg sync.WaitGroup

	for i := range numCallers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			result, err := service.Retrieve(context.Background(), uri, media.KindAudio)
			if assert.NoError(t, err) {
				handles[i] = result.Handle
			}
		}()
	}

	require.Eventually(t, func() bool {
		return backend.count(uri) == 1
	}, defaultTimeout, tick)
	close(gate)

	wg.Wait()

	require.Equal(t, 1, backend.count(uri))

	for _, handle := range handles {
		require.Same(t, handles[0], handle)
	}
}

func TestContentTypeFallback(t *testing.T) {
	testCases := []struct {
		name     string
		magic    string
		expected string
	}{
		{name: "ogg", magic: "4f676753", expected: contenttype.OggOpus},
		{name: "wav", magic: "52494646", expected: contenttype.WAV},
		{name: "mp3", magic: "49443304", expected: contenttype.MPEG},
		{name: "unknown", magic: "deadbeef", expected: contenttype.OggOpus},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			backend := newBackend(t)
			uri := publicURI()

			body, err := hex.DecodeString(testCase.magic + "00000000")
			require.NoError(t, err)
			backend.put(uri, &object{contentType: contenttype.OctetStream, body: body})

			result, err := newService(t, backend).Retrieve(context.Background(), uri, media.KindAudio)
			require.NoError(t, err)
			require.Equal(t, testCase.expected, result.ContentType)
			require.Equal(t, testCase.expected, result.Descriptor.ResolvedContentType)

			content, err := result.Handle.Content()
			require.NoError(t, err)
			require.Equal(t, body, content)
		})
	}
}

func TestGenericContentTypeIsKeptForNonAudio(t *testing.T) {
	backend := newBackend(t)
	uri := publicURI()
	backend.put(uri, &object{contentType: contenttype.OctetStream, body: []byte("OggS")})

	result, err := newService(t, backend).Retrieve(context.Background(), uri, media.KindDocument)
	require.NoError(t, err)
	require.Equal(t, contenttype.OctetStream, result.ContentType)
}

func TestTranscode(t *testing.T) {
	backend := newBackend(t)
	uri := publicURI()
	backend.put(uri, &object{contentType: "audio/ogg", body: []byte("OggS\x00\x02")})

	transcoder := transcode.New(decoderFunc(func(_ context.Context, _ []byte) (*transcode.Buffer, error) {
		return &transcode.Buffer{SampleRate: 48000, Channels: [][]float32{{0, 0.5, -0.5}}}, nil
	}))

	result, err := newService(t, backend, retrieval.WithTranscoder(transcoder)).
		Retrieve(context.Background(), uri, media.KindAudio)
	require.NoError(t, err)
	require.Equal(t, contenttype.WAV, result.ContentType)

	content, err := result.Handle.Content()
	require.NoError(t, err)
	require.Len(t, content, 44+3*2)
	require.Equal(t, "RIFF", string(content[:4]))
}

func TestTranscodeFailureFallsBackToOriginal(t *testing.T) {
	backend := newBackend(t)
	uri := publicURI()
	body := []byte("OggS\x00\x02garbage")
	backend.put(uri, &object{contentType: contenttype.OctetStream, body: body})

	transcoder := transcode.New(decoderFunc(func(_ context.Context, _ []byte) (*transcode.Buffer, error) {
		return nil, errors.New("unable to decode audio data")
	}))

	result, err := newService(t, backend, retrieval.WithTranscoder(transcoder)).
		Retrieve(context.Background(), uri, media.KindAudio)
	require.NoError(t, err)
	require.Equal(t, contenttype.OggOpus, result.ContentType)

	content, err := result.Handle.Content()
	require.NoError(t, err)
	require.Equal(t, body, content)
}

func TestMalformedProviderURL(t *testing.T) {
	backend := newBackend(t)
	service := newService(t, backend)

	_, err := service.Retrieve(context.Background(),
		"https://api.twilio.com/2010-04-01/Accounts/AC1/Messages/MSIDxyz", media.KindAudio)
	require.ErrorIs(t, err, mediaurl.ErrMalformedSourceURL)
	require.Zero(t, backend.total())
}

func TestUnauthenticated(t *testing.T) {
	backend := newBackend(t)
	backend.put(proxyURI, &object{contentType: "audio/ogg", body: []byte("OggS")})

	service := newService(t, backend, retrieval.WithSession(session.New("")))

	_, err := service.Retrieve(context.Background(), twilioURL, media.KindAudio)
	require.ErrorIs(t, err, retrieval.ErrUnauthenticated)
	require.Zero(t, backend.total())
}

func TestProviderURLIsProxied(t *testing.T) {
	backend := newBackend(t)
	backend.put(proxyURI, &object{contentType: "image/jpeg", body: []byte("\xff\xd8\xff")})

	result, err := newService(t, backend).Retrieve(context.Background(), twilioURL, media.KindImage)
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", result.ContentType)
	require.True(t, result.Descriptor.AuthRequired)
	require.Equal(t, twilioURL, result.Descriptor.OriginalURL)
	require.Equal(t, 1, backend.count(proxyURI))
}

func TestWrongMediaCategory(t *testing.T) {
	backend := newBackend(t)
	uri := publicURI()
	backend.put(uri, &object{contentType: "text/html", body: []byte("<html></html>")})

	service := newService(t, backend)

	_, err := service.Retrieve(context.Background(), uri, media.KindImage)
	require.ErrorIs(t, err, retrieval.ErrWrongMediaCategory)
	require.Contains(t, err.Error(), "response is not an image")

	// Failures are never cached
	_, err = service.Retrieve(context.Background(), uri, media.KindImage)
	require.Error(t, err)
	require.Equal(t, 2, backend.count(uri))
}

func TestUpstreamFailure(t *testing.T) {
	backend := newBackend(t)
	uri := publicURI()
	backend.put(uri, &object{statusCode: http.StatusForbidden})

	service := newService(t, backend)

	_, err := service.Retrieve(context.Background(), uri, media.KindDocument)
	require.Equal(t, fetch.KindForbidden, fetch.KindOf(err))
	require.True(t, retrieval.IsUpstreamFailure(err))

	// Non-200 success codes are failures too
	backend.put(uri, &object{statusCode: http.StatusNonAuthoritativeInfo, body: []byte("partial")})

	_, err = service.Retrieve(context.Background(), uri, media.KindDocument)
	require.Equal(t, fetch.KindHTTP, fetch.KindOf(err))

	backend.put(uri, &object{contentType: "application/pdf", body: []byte("%PDF")})

	result, err := service.Retrieve(context.Background(), uri, media.KindDocument)
	require.NoError(t, err)
	require.Equal(t, "application/pdf", result.ContentType)
}

func TestPassThrough(t *testing.T) {
	backend := newBackend(t)
	service := newService(t, backend)

	const source = "https://cdn.example.com/cat.png"

	result, err := service.Retrieve(context.Background(), source, media.KindImage)
	require.NoError(t, err)
	require.Equal(t, source, result.URL)
	require.Nil(t, result.Handle)
	require.Zero(t, backend.total())
}

func TestPrefetch(t *testing.T) {
	backend := newBackend(t)

	good, bad := publicURI(), publicURI()
	backend.put(good, &object{contentType: "video/mp4", body: []byte("mp4")})

	service := newService(t, backend)

	results := service.Prefetch(context.Background(), []string{good, bad, good}, media.KindVideo)
	require.Len(t, results, 2)
	require.NoError(t, results[good])
	require.Equal(t, fetch.KindHTTP, fetch.KindOf(results[bad]))

	_, err := service.Retrieve(context.Background(), good, media.KindVideo)
	require.NoError(t, err)
	require.Equal(t, 1, backend.count(good))
}

func TestPurge(t *testing.T) {
	backend := newBackend(t)
	uri := publicURI()
	backend.put(uri, &object{contentType: "image/gif", body: []byte("GIF89a")})

	service := newService(t, backend)

	result, err := service.Retrieve(context.Background(), uri, media.KindImage)
	require.NoError(t, err)

	require.Equal(t, 1, service.Purge())
	require.True(t, result.Handle.Revoked())

	_, err = service.Store().Lookup(result.Handle.ID())
	require.ErrorIs(t, err, cache.ErrNotFound)

	again, err := service.Retrieve(context.Background(), uri, media.KindImage)
	require.NoError(t, err)
	require.NotSame(t, result.Handle, again.Handle)
	require.Equal(t, 2, backend.count(uri))
}

func TestNoopCacheAlwaysFetches(t *testing.T) {
	backend := newBackend(t)
	uri := publicURI()
	backend.put(uri, &object{contentType: "image/gif", body: []byte("GIF89a")})

	service := newService(t, backend, retrieval.WithCache(noop.New()))

	for range 3 {
		_, err := service.Retrieve(context.Background(), uri, media.KindImage)
		require.NoError(t, err)
	}

	require.Equal(t, 3, backend.count(uri))
}
