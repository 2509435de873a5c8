package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cirruslabs/mediacache/internal/config"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	configFile, err := os.Open(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)
	defer configFile.Close()

	actualConfig, err := config.Parse(configFile)
	require.NoError(t, err)
	require.Equal(t, &config.Config{
		Addr:   "127.0.0.1:8080",
		Secret: "s3cr3t",
		Backend: config.Backend{
			URL:   "https://backend.example.com",
			Token: "opaque-token",
		},
		Routes: []config.Route{
			{Pattern: "/api/media/public/", Route: "public"},
			{Pattern: `^https://api\.twilio\.com/`, Route: "provider"},
			{Pattern: "/api/media/proxy", Route: "protected"},
		},
		Cache: config.Cache{
			Disabled: true,
		},
		Fetch: config.Fetch{
			Timeout: 30 * time.Second,
			MaxSize: "100MB",
		},
		Transcode: config.Transcode{
			Enabled: true,
			FFmpeg:  "/usr/local/bin/ffmpeg",
		},
	}, actualConfig)
}

func TestParseInvalid(t *testing.T) {
	_, err := config.Parse(strings.NewReader("fetch:\n  timeout: forever\n"))
	require.Error(t, err)
}
