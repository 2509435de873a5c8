package fetch

import (
	"net/http"

	"go.uber.org/zap"
)

type Option func(client *Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) {
		client.httpClient = httpClient
	}
}

func WithMaxBytes(maxBytes int64) Option {
	return func(client *Client) {
		client.maxBytes = maxBytes
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(client *Client) {
		client.logger = logger
	}
}
