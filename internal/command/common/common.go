// Package common builds the retrieval service out of the configuration
// shared by the subcommands.
package common

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"os"

	cachepkg "github.com/cirruslabs/mediacache/internal/cache"
	"github.com/cirruslabs/mediacache/internal/cache/memory"
	"github.com/cirruslabs/mediacache/internal/cache/noop"
	configpkg "github.com/cirruslabs/mediacache/internal/config"
	"github.com/cirruslabs/mediacache/internal/fetch"
	"github.com/cirruslabs/mediacache/internal/mediaurl"
	"github.com/cirruslabs/mediacache/internal/retrieval"
	"github.com/cirruslabs/mediacache/internal/session"
	"github.com/cirruslabs/mediacache/internal/transcode"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// LoadConfig parses the configuration file, an empty path yields the defaults.
func LoadConfig(configPath string) (*configpkg.Config, error) {
	if configPath == "" {
		return &configpkg.Config{}, nil
	}

	configBytes, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file at path %s: %w", configPath, err)
	}

	config, err := configpkg.Parse(bytes.NewReader(configBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file at path %s: %w", configPath, err)
	}

	return config, nil
}

// NewService wires the retrieval service, token (when not empty)
// takes precedence over the one from the configuration file.
func NewService(config *configpkg.Config, token string, logger *zap.SugaredLogger) (*retrieval.Service, error) {
	backendURL, err := url.Parse(config.Backend.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse backend URL %q: %w", config.Backend.URL, err)
	}

	var rules mediaurl.Rules

	for _, configRoute := range config.Routes {
		route, err := mediaurl.ParseRoute(configRoute.Route)
		if err != nil {
			return nil, err
		}

		rule, err := mediaurl.NewRule(configRoute.Pattern, route)
		if err != nil {
			return nil, err
		}

		rules = append(rules, rule)
	}

	fetchOpts := []fetch.Option{
		fetch.WithHTTPClient(&http.Client{
			Timeout: config.Fetch.Timeout,
		}),
		fetch.WithLogger(logger),
	}

	if config.Fetch.MaxSize != "" {
		maxBytes, err := humanize.ParseBytes(config.Fetch.MaxSize)
		if err != nil {
			return nil, fmt.Errorf("failed to parse max size value %q: %w", config.Fetch.MaxSize, err)
		}

		fetchOpts = append(fetchOpts, fetch.WithMaxBytes(int64(maxBytes)))
	}

	var cache cachepkg.Cache = memory.New()

	if config.Cache.Disabled {
		cache = noop.New()
	}

	if token == "" {
		token = config.Backend.Token
	}

	opts := []retrieval.Option{
		retrieval.WithCache(cache),
		retrieval.WithClient(fetch.New(fetchOpts...)),
		retrieval.WithClassifier(mediaurl.NewClassifier(backendURL, rules)),
		retrieval.WithSession(session.New(token)),
		retrieval.WithLogger(logger),
	}

	if config.Transcode.Enabled {
		opts = append(opts, retrieval.WithTranscoder(transcode.New(transcode.NewFFmpeg(config.Transcode.FFmpeg),
			transcode.WithLogger(logger))))
	}

	return retrieval.New(opts...)
}
