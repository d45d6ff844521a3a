// Package config persists named upstream tracking-service endpoints for
// the "daa-sim watch" subcommand, mirroring the teacher's environment
// configuration for its own Legion endpoints.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FeedEndpoint names one upstream entity-tracking service.
type FeedEndpoint struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Realm    string `yaml:"realm,omitempty"`
	ClientID string `yaml:"client_id,omitempty"`
	APIKey   string `yaml:"api_key_env,omitempty"`
}

// Feeds holds the configured endpoints.
type Feeds struct {
	Endpoints []FeedEndpoint `yaml:"endpoints"`
}

func feedsPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".daa-sim", "feeds.yaml"), nil
}

// LoadFeeds loads the configured endpoints, returning an empty set if
// none has been configured yet.
func LoadFeeds() (*Feeds, error) {
	path, err := feedsPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Feeds{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds config: %w", err)
	}
	var f Feeds
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse feeds config: %w", err)
	}
	return &f, nil
}

// SaveFeeds persists the configured endpoints.
func SaveFeeds(f *Feeds) error {
	path, err := feedsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal feeds config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write feeds config: %w", err)
	}
	return nil
}
