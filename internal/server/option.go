package server

import (
	"go.uber.org/zap"
)

type Option func(server *Server)

// WithSecret requires the clients to present the secret
// as an HTTP basic auth password.
func WithSecret(secret string) Option {
	return func(server *Server) {
		server.secret = secret
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(server *Server) {
		server.logger = logger
	}
}
