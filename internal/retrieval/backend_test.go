package retrieval_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/cirruslabs/mediacache/internal/mediaurl"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type object struct {
	contentType string
	body        []byte
	statusCode  int
	// closed to let the response through, nil means no delay
	gate chan struct{}
}

// backend is a fake media server that serves both the public
// and the protected (bearer-authenticated) media endpoints.
type backend struct {
	*httptest.Server

	token string

	mtx      sync.Mutex
	objects  map[string]*object
	requests map[string]int
}

func newBackend(t *testing.T) *backend {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(uuid.NewString()))
	require.NoError(t, err)

	backend := &backend{
		token:    token,
		objects:  map[string]*object{},
		requests: map[string]int{},
	}

	backend.Server = httptest.NewServer(http.HandlerFunc(backend.serve))
	t.Cleanup(backend.Close)

	return backend
}

func (backend *backend) serve(writer http.ResponseWriter, request *http.Request) {
	key := request.URL.RequestURI()

	backend.mtx.Lock()
	backend.requests[key]++
	obj, ok := backend.objects[key]
	backend.mtx.Unlock()

	if request.URL.Path == "/api/media/proxy" && request.Header.Get("Authorization") != "Bearer "+backend.token {
		writer.WriteHeader(http.StatusUnauthorized)

		return
	}

	if !ok {
		writer.WriteHeader(http.StatusNotFound)

		return
	}

	if obj.gate != nil {
		<-obj.gate
	}

	if obj.contentType != "" {
		writer.Header().Set("Content-Type", obj.contentType)
	}

	if obj.statusCode != 0 {
		writer.WriteHeader(obj.statusCode)
	}

	_, _ = writer.Write(obj.body)
}

func (backend *backend) put(requestURI string, obj *object) {
	backend.mtx.Lock()
	defer backend.mtx.Unlock()

	backend.objects[requestURI] = obj
}

func (backend *backend) count(requestURI string) int {
	backend.mtx.Lock()
	defer backend.mtx.Unlock()

	return backend.requests[requestURI]
}

func (backend *backend) total() int {
	backend.mtx.Lock()
	defer backend.mtx.Unlock()

	var total int

	for _, n := range backend.requests {
		total += n
	}

	return total
}

func (backend *backend) classifier(t *testing.T) *mediaurl.Classifier {
	t.Helper()

	backendURL, err := url.Parse(backend.URL)
	require.NoError(t, err)

	return mediaurl.NewClassifier(backendURL, nil)
}
