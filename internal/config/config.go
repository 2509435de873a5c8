package config

import (
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr      string    `yaml:"addr"`
	Secret    string    `yaml:"secret"`
	Backend   Backend   `yaml:"backend"`
	Routes    []Route   `yaml:"routes"`
	Cache     Cache     `yaml:"cache"`
	Fetch     Fetch     `yaml:"fetch"`
	Transcode Transcode `yaml:"transcode"`
}

type Backend struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

type Route struct {
	Pattern string `yaml:"pattern"`
	Route   string `yaml:"route"`
}

type Cache struct {
	Disabled bool `yaml:"disabled"`
}

type Fetch struct {
	Timeout time.Duration `yaml:"timeout"`
	MaxSize string        `yaml:"max-size"`
}

type Transcode struct {
	Enabled bool   `yaml:"enabled"`
	FFmpeg  string `yaml:"ffmpeg"`
}

func Parse(r io.Reader) (*Config, error) {
	var config Config

	if err := yaml.NewDecoder(r).Decode(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
