// Package fetch is a thin HTTP client that attaches bearer credentials and
// reports failures as tagged errors instead of raw responses.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

const defaultMaxBytes = 100 * humanize.MByte

var errTooLarge = errors.New("payload exceeds the size limit")

type Client struct {
	httpClient *http.Client
	maxBytes   int64
	logger     *zap.SugaredLogger
}

type Response struct {
	StatusCode  int
	Header      http.Header
	ContentType string
	Body        []byte
}

func New(opts ...Option) *Client {
	client := &Client{
		httpClient: http.DefaultClient,
		maxBytes:   defaultMaxBytes,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.logger == nil {
		client.logger = zap.NewNop().Sugar()
	}

	return client
}

// Get fetches the URL, attaching the credential as a bearer token when it's not empty.
//
// Non-2xx responses are reported as *Error with the kind derived from the status code.
func (client *Client) Get(ctx context.Context, url string, credential string) (*Response, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: KindTransport, URL: url, Err: err}
	}

	if credential != "" {
		request.Header.Set("Authorization", "Bearer "+credential)
	}

	client.logger.Debugf("fetching %s", url)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, &Error{Kind: KindTransport, URL: url, Err: err}
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		// Drain the body to make the connection reusable
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, 64*humanize.KByte))

		return nil, statusError(url, response.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, client.maxBytes+1))
	if err != nil {
		return nil, &Error{Kind: KindTransport, URL: url, Err: fmt.Errorf("failed to read the response body: %w", err)}
	}

	if int64(len(body)) > client.maxBytes {
		return nil, &Error{Kind: KindTooLarge, URL: url, Err: fmt.Errorf("%w of %s",
			errTooLarge, humanize.Bytes(uint64(client.maxBytes)))}
	}

	return &Response{
		StatusCode:  response.StatusCode,
		Header:      response.Header,
		ContentType: response.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func (client *Client) GetJSON(ctx context.Context, url string, credential string, v any) error {
	response, err := client.Get(ctx, url, credential)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(response.Body, v); err != nil {
		return fmt.Errorf("failed to decode JSON response from %s: %w", url, err)
	}

	return nil
}
